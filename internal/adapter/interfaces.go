// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides clients for the outbound integrations used by the
// authentication engine: the WeChat identity provider (web OAuth and
// mini-program surfaces) and an HTTP SMS gateway.
//
// Both clients are built on resty through [utils.HTTPClient]. Transport-level
// failures are mapped from HTTP status codes by mapHTTPError so that callers
// can use [errors.Is] (e.g. [ErrUpstreamAuth] for 401, [ErrRateLimited] for 429).
// Errors reported by WeChat inside a 200 response wrap [ErrProviderRejected].
package adapter

import (
	"context"

	"github.com/MKhiriev/go-auth-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// WechatClient exchanges a WeChat authorization code for the identity of the
// user who granted it. One client serves exactly one WeChat surface.
type WechatClient interface {
	// Exchange trades code for the user's open id. The web surface also
	// fetches the public profile (nickname, avatar); the mini-program surface
	// returns the open id and union id only.
	//
	// Returns [ErrDisabled] if the application credentials are not configured
	// and [ErrProviderRejected] (wrapped) if WeChat refuses the code.
	Exchange(ctx context.Context, code string) (models.WechatIdentity, error)
}

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	// Send delivers content to phone. Returns [ErrDisabled] when no gateway
	// is configured.
	Send(ctx context.Context, phone, content string) error
}
