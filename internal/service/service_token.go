package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/store"
	"github.com/MKhiriev/go-auth-keeper/internal/utils"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// tokenService signs HS256 access tokens and binds opaque refresh tokens
// to sessions through the session store.
type tokenService struct {
	sessionStore store.SessionStore

	// tokenSignKey is the HMAC secret used to sign and verify JWT tokens.
	tokenSignKey string

	// tokenIssuer is the optional "iss" claim embedded in every issued JWT.
	tokenIssuer string

	tokenDuration        time.Duration
	refreshTokenDuration time.Duration

	logger *logger.Logger
}

// NewTokenService builds a TokenService. Zero durations fall back to the
// configuration defaults.
func NewTokenService(sessionStore store.SessionStore, cfg config.App, logger *logger.Logger) TokenService {
	t := &tokenService{
		sessionStore:         sessionStore,
		tokenSignKey:         cfg.TokenSignKey,
		tokenIssuer:          cfg.TokenIssuer,
		tokenDuration:        cfg.TokenDuration,
		refreshTokenDuration: cfg.RefreshTokenDuration,
		logger:               logger,
	}
	if t.tokenDuration <= 0 {
		t.tokenDuration = config.DefaultTokenDuration
	}
	if t.refreshTokenDuration <= 0 {
		t.refreshTokenDuration = config.DefaultRefreshTokenDuration
	}
	return t
}

func (t *tokenService) IssueAccessToken(user models.User, sessionID string, roleInfo *models.RoleInfo) (string, error) {
	claims := &models.TokenClaims{
		Username:  user.Username,
		SessionID: sessionID,
		RoleInfo:  roleInfo,
	}
	claims.Subject = strconv.FormatInt(user.ID, 10)
	claims.Issuer = t.tokenIssuer

	token, err := utils.GenerateJWTToken(claims, t.tokenDuration, t.tokenSignKey)
	if err != nil {
		return "", fmt.Errorf("error signing access token: %w", err)
	}

	return token, nil
}

func (t *tokenService) IssueRefreshToken(ctx context.Context, userID, sessionID string) (string, error) {
	token := utils.NewOpaqueToken()
	if err := t.sessionStore.BindRefreshToken(ctx, userID, token, sessionID, t.refreshTokenDuration); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*tokenService.IssueRefreshToken").Msg("error binding refresh token")
		return "", err
	}

	return token, nil
}

// VerifyAccessToken normalises every validation failure (expired, wrong
// issuer, malformed, bad signature) to ErrInvalidToken.
func (t *tokenService) VerifyAccessToken(token string) (*models.TokenClaims, error) {
	claims, err := utils.ValidateAndParseJWTToken(token, t.tokenSignKey, t.tokenIssuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return claims, nil
}

func (t *tokenService) AccessTokenTTL() time.Duration {
	return t.tokenDuration
}
