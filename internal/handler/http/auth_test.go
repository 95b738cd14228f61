// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-auth-keeper/internal/service"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// ─────────────────────────────────────────────
// Login endpoints
// ─────────────────────────────────────────────

func TestAuthenticate_Success(t *testing.T) {
	auth := &mockAuthService{
		authenticateFn: func(_ context.Context, identifier, password string) (models.AuthResult, error) {
			assert.Equal(t, "admin", identifier)
			assert.Equal(t, "admin123", password)
			return stubResult(1), nil
		},
	}

	rec := doRequest(t, newTestRouter(t, auth), http.MethodPost, "/api/auth/login",
		`{"identifier":"admin","password":"admin123"}`, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result models.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, stubResult(1).Token, result.Token)
	assert.Equal(t, "refresh", result.RefreshToken)
	assert.Equal(t, "sid", result.SessionID)
	assert.Equal(t, int64(1), result.User.ID)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestAuthenticate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid JSON",
			body:       `{"identifier":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   service.CodeInvalidData,
		},
		{
			name:       "invalid credentials",
			body:       `{"identifier":"admin","password":"nope"}`,
			err:        service.ErrInvalidCredentials,
			wantStatus: http.StatusUnauthorized,
			wantCode:   service.CodeInvalidCredentials,
		},
		{
			name:       "disabled user",
			body:       `{"identifier":"admin","password":"admin123"}`,
			err:        service.ErrUnauthorized,
			wantStatus: http.StatusForbidden,
			wantCode:   service.CodeUnauthorized,
		},
		{
			name:       "unclassified failure",
			body:       `{"identifier":"admin","password":"admin123"}`,
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   service.CodeInfrastructure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &mockAuthService{
				authenticateFn: func(context.Context, string, string) (models.AuthResult, error) {
					return models.AuthResult{}, tt.err
				},
			}

			rec := doRequest(t, newTestRouter(t, auth), http.MethodPost, "/api/auth/login", tt.body, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestLoginEndpoints_RouteToEngine(t *testing.T) {
	called := ""
	record := func(name string) (models.AuthResult, error) {
		called = name
		return stubResult(2), nil
	}
	auth := &mockAuthService{
		passwordLoginFn: func(_ context.Context, phone, password string) (models.AuthResult, error) {
			assert.Equal(t, "13800000000", phone)
			assert.Equal(t, "secret1", password)
			return record("password")
		},
		smsLoginFn: func(_ context.Context, phone, code string) (models.AuthResult, error) {
			assert.Equal(t, "13800000000", phone)
			assert.Equal(t, "123456", code)
			return record("sms")
		},
		emailLoginFn: func(_ context.Context, email, code string) (models.AuthResult, error) {
			assert.Equal(t, "a@test.com", email)
			assert.Equal(t, "654321", code)
			return record("email")
		},
		wechatLoginFn: func(_ context.Context, code string) (models.AuthResult, error) {
			assert.Equal(t, "wx-code", code)
			return record("wechat")
		},
		wechatMiniLoginFn: func(_ context.Context, code string) (models.AuthResult, error) {
			assert.Equal(t, "mini-code", code)
			return record("wechat_mini")
		},
	}
	router := newTestRouter(t, auth)

	tests := []struct {
		path string
		body string
		want string
	}{
		{"/api/auth/login/password", `{"phone":"13800000000","password":"secret1"}`, "password"},
		{"/api/auth/login/sms", `{"phone":"13800000000","code":"123456"}`, "sms"},
		{"/api/auth/login/email", `{"email":"a@test.com","code":"654321"}`, "email"},
		{"/api/auth/login/wechat", `{"code":"wx-code"}`, "wechat"},
		{"/api/auth/login/wechat-mini", `{"code":"mini-code"}`, "wechat_mini"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, tt.path, tt.body, "")

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, called)
		})
	}
}

func TestWechatLogin_InfrastructureErrorHidesDetails(t *testing.T) {
	auth := &mockAuthService{
		wechatLoginFn: func(context.Context, string) (models.AuthResult, error) {
			return models.AuthResult{}, fmt.Errorf("%w: dial tcp: secret-host", service.ErrInfrastructure)
		},
	}

	rec := doRequest(t, newTestRouter(t, auth), http.MethodPost, "/api/auth/login/wechat", `{"code":"c"}`, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, service.CodeInfrastructure, decodeError(t, rec).Code)
	assert.NotContains(t, rec.Body.String(), "secret-host")
}

// ─────────────────────────────────────────────
// Refresh, logout, verify
// ─────────────────────────────────────────────

func TestRefresh(t *testing.T) {
	auth := &mockAuthService{
		refreshFn: func(_ context.Context, refreshToken, userID string) (models.AuthResult, error) {
			if refreshToken != "good" {
				return models.AuthResult{}, service.ErrInvalidRefreshToken
			}
			assert.Equal(t, "1", userID)
			return stubResult(1), nil
		},
	}
	router := newTestRouter(t, auth)

	rec := doRequest(t, router, http.MethodPost, "/api/auth/refresh", `{"refresh_token":"good","user_id":"1"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/auth/refresh", `{"refresh_token":"bad","user_id":"1"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, service.CodeInvalidRefreshToken, decodeError(t, rec).Code)
}

func TestLogout(t *testing.T) {
	var loggedOut []string
	auth := &mockAuthService{
		logoutFn: func(_ context.Context, token string) error {
			loggedOut = append(loggedOut, token)
			if token == "broken-store" {
				return fmt.Errorf("%w: redis down", service.ErrInfrastructure)
			}
			return nil
		},
	}
	router := newTestRouter(t, auth)

	rec := doRequest(t, router, http.MethodPost, "/api/auth/logout", "", "some-token")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/auth/logout", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/auth/logout", "", "broken-store")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Equal(t, []string{"some-token", "broken-store"}, loggedOut)
}

func TestVerify(t *testing.T) {
	router := newTestRouter(t, withValidSession(&mockAuthService{}))

	rec := doRequest(t, router, http.MethodGet, "/api/auth/verify", "", validToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.LoginStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.IsValid)
	require.NotNil(t, status.User)
	assert.Equal(t, int64(1), status.User.ID)
	require.NotNil(t, status.Session)
	assert.Equal(t, "sid-1", status.Session.SessionID)

	var raw struct {
		Session map[string]json.RawMessage `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.NotContains(t, raw.Session, "token")
	assert.NotContains(t, raw.Session, "refresh_token")
	assert.NotContains(t, rec.Body.String(), validToken)
	assert.NotContains(t, rec.Body.String(), "refresh-sid-1")

	rec = doRequest(t, router, http.MethodGet, "/api/auth/verify", "", "revoked")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"is_valid":false}`, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/api/auth/verify", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, service.CodeInvalidToken, decodeError(t, rec).Code)
}
