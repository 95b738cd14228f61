package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-auth-keeper/internal/service"
	"github.com/MKhiriev/go-auth-keeper/internal/utils"
)

// auth rejects requests without a bearer token bound to a live session.
//
// On success the session snapshot, the raw token and the user ID are stored
// in the request context under [utils.SessionCtxKey], [utils.TokenCtxKey]
// and [utils.UserIDCtxKey].
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := getTokenFromAuthHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, r, "*Handler.auth", invalidTokenError(err))
			return
		}

		ctx := r.Context()
		status := h.services.AuthService.VerifyLogin(ctx, tokenString)
		if !status.IsValid || status.Session == nil {
			writeError(w, r, "*Handler.auth", service.ErrInvalidToken)
			return
		}

		ctx = context.WithValue(ctx, utils.SessionCtxKey, *status.Session)
		ctx = context.WithValue(ctx, utils.TokenCtxKey, tokenString)
		ctx = context.WithValue(ctx, utils.UserIDCtxKey, status.Session.User.ID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getTokenFromAuthHeader extracts the token from a raw "Authorization"
// header value of the form "Bearer <token>".
func getTokenFromAuthHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrEmptyAuthorizationHeader
	}

	token, err := utils.ParseBearerToken(authHeader)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAuthorizationHeader, err)
	}

	return token, nil
}

func invalidTokenError(err error) error {
	return fmt.Errorf("%w: %w", service.ErrInvalidToken, err)
}
