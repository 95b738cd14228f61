// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the payload of an access token.
//
// The subject ("sub") claim holds the user ID as a decimal string. SessionID
// ties the token to a server-side session; without a live session the token
// is rejected even if its signature is valid.
type TokenClaims struct {
	jwt.RegisteredClaims

	Username  string    `json:"username"`
	SessionID string    `json:"sessionId"`
	RoleInfo  *RoleInfo `json:"roleInfo,omitempty"`
}

// UserID returns the subject claim.
func (c *TokenClaims) UserID() string {
	return c.Subject
}
