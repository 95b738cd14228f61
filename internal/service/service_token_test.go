package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/mock"
	"github.com/MKhiriev/go-auth-keeper/models"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService(nil, config.App{TokenSignKey: "key", TokenIssuer: "auth-keeper", TokenDuration: time.Minute}, logger.Nop())
	role := &models.RoleInfo{RoleID: 2, MenuIDs: []int64{1}}

	token, err := svc.IssueAccessToken(models.User{ID: 42, Username: "admin"}, "sid-1", role)
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID())
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.Equal(t, "auth-keeper", claims.Issuer)
	require.NotNil(t, claims.RoleInfo)
	assert.Equal(t, int64(2), claims.RoleInfo.RoleID)
	assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt.Time, 2*time.Second)
}

func TestTokenService_VerifyRejects(t *testing.T) {
	svc := NewTokenService(nil, config.App{TokenSignKey: "key", TokenIssuer: "auth-keeper"}, logger.Nop())
	other := NewTokenService(nil, config.App{TokenSignKey: "other-key", TokenIssuer: "auth-keeper"}, logger.Nop())
	foreign := NewTokenService(nil, config.App{TokenSignKey: "key", TokenIssuer: "someone-else"}, logger.Nop())

	forged, err := other.IssueAccessToken(models.User{ID: 1}, "sid", nil)
	require.NoError(t, err)
	wrongIssuer, err := foreign.IssueAccessToken(models.User{ID: 1}, "sid", nil)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"malformed":    "not.a.jwt",
		"wrong key":    forged,
		"wrong issuer": wrongIssuer,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.VerifyAccessToken(token)
			require.ErrorIs(t, err, ErrInvalidToken)
			assert.Equal(t, CodeInvalidToken, ErrorCode(err))
		})
	}
}

func TestTokenService_Defaults(t *testing.T) {
	svc := NewTokenService(nil, config.App{TokenSignKey: "key"}, logger.Nop())

	assert.Equal(t, config.DefaultTokenDuration, svc.AccessTokenTTL())
}

func TestTokenService_IssueRefreshToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := mock.NewMockSessionStore(ctrl)
	svc := NewTokenService(sessions, config.App{TokenSignKey: "key", RefreshTokenDuration: time.Hour}, logger.Nop())

	var bound string
	sessions.EXPECT().
		BindRefreshToken(gomock.Any(), "7", gomock.Any(), "sid", time.Hour).
		DoAndReturn(func(_ context.Context, _, token, _ string, _ time.Duration) error {
			bound = token
			return nil
		})

	token, err := svc.IssueRefreshToken(context.Background(), "7", "sid")
	require.NoError(t, err)
	assert.Equal(t, bound, token)
	assert.Len(t, token, 36)
}
