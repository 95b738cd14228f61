// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service implements the authentication and session engine: login
// flows, token issuance, session lifecycle, one-time codes and user
// management on top of the store and adapter packages.
package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-auth-keeper/models"
)

// TokenService issues and verifies access tokens and issues refresh tokens.
type TokenService interface {
	// IssueAccessToken signs a token carrying the user id, the session id
	// and the optional role snapshot.
	IssueAccessToken(user models.User, sessionID string, roleInfo *models.RoleInfo) (string, error)

	// IssueRefreshToken returns a new opaque token bound to sessionID.
	IssueRefreshToken(ctx context.Context, userID, sessionID string) (string, error)

	// VerifyAccessToken returns the claims of a valid token or ErrInvalidToken.
	VerifyAccessToken(token string) (*models.TokenClaims, error)

	// AccessTokenTTL is the lifetime of access tokens and of the sessions
	// created with them.
	AccessTokenTTL() time.Duration
}

// OtpService issues, throttles and validates one-time codes.
type OtpService interface {
	CanSend(ctx context.Context, identifier, purpose string) (models.OtpSendCheck, error)
	Store(ctx context.Context, identifier, code, purpose string, expiresAt time.Time) error

	// Validate consumes the code on match. Wrong, expired and already used
	// codes are indistinguishable.
	Validate(ctx context.Context, identifier, code, purpose string) (bool, error)

	// RequestCode generates and stores a code and delivers it by SMS when
	// identifier is a phone number. The code is returned for out-of-band
	// delivery. When sending is not allowed the check is returned with an
	// empty code.
	RequestCode(ctx context.Context, identifier, purpose string) (models.OtpSendCheck, string, error)
	Blacklist(ctx context.Context, identifier string, duration time.Duration) error
	SendSms(ctx context.Context, phone, content string) error
}

// RoleResolver loads the role snapshot attached to a user at login.
type RoleResolver interface {
	// Resolve returns nil when role lookup is disabled or fails.
	Resolve(ctx context.Context, roleID int64) *models.RoleInfo
}

// AuthService is the engine exposed to HTTP handlers and embedding
// applications.
type AuthService interface {
	// Authenticate logs in with a username or phone and a password.
	Authenticate(ctx context.Context, identifier, password string) (models.AuthResult, error)
	// PasswordLogin logs in with a phone number and a password.
	PasswordLogin(ctx context.Context, phone, password string) (models.AuthResult, error)
	SmsLogin(ctx context.Context, phone, code string) (models.AuthResult, error)
	EmailLogin(ctx context.Context, email, code string) (models.AuthResult, error)
	WechatLogin(ctx context.Context, code string) (models.AuthResult, error)
	WechatMiniLogin(ctx context.Context, code string) (models.AuthResult, error)

	// VerifyLogin never fails for invalid tokens or sessions; it reports
	// IsValid false instead.
	VerifyLogin(ctx context.Context, token string) models.LoginStatus
	Refresh(ctx context.Context, refreshToken, userID string) (models.AuthResult, error)
	Logout(ctx context.Context, token string) error

	CreateUser(ctx context.Context, input models.UserInput) (models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]models.User, error)
	ValidateUsername(ctx context.Context, username string) error
	GetUserSessions(ctx context.Context, userID string) ([]string, error)

	GetUserDepartments(ctx context.Context, token string) ([]map[string]any, error)
	SetCurrentDepartment(ctx context.Context, departmentID int64, token string) (models.User, error)

	CanSendOtp(ctx context.Context, identifier, purpose string) (models.OtpSendCheck, error)
	StoreOtp(ctx context.Context, identifier, code, purpose string, expiresAt time.Time) error
	RequestOtp(ctx context.Context, identifier, purpose string) (models.OtpSendCheck, string, error)
	SendSms(ctx context.Context, phone, content string) error
	BlacklistOtpTarget(ctx context.Context, identifier string, duration time.Duration) error

	// Initialize creates the configured seed users that do not exist yet.
	Initialize(ctx context.Context) error
}

// AppInfoService reports static information about the running service.
type AppInfoService interface {
	GetAppInfo(ctx context.Context) models.AppInfo
}

// AuthServiceWrapper defines middleware composition for AuthService.
// Implementations wrap an existing AuthService to add behavior such as
// input validation.
type AuthServiceWrapper interface {
	Wrap(AuthService) AuthService
}
