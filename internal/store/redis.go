package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
)

// NewRedisClient opens a client for cfg and verifies it with PING.
func NewRedisClient(ctx context.Context, cfg config.Redis, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Err(err).Str("func", "NewRedisClient").Msg("error connecting redis (ping)")
		client.Close()
		return nil, fmt.Errorf("error connecting redis: %w", err)
	}
	log.Info().Str("func", "NewRedisClient").Str("address", cfg.Address).Msg("connected to redis successfully")

	return client, nil
}

// cacheKeys builds every cache key from the configured prefix.
type cacheKeys struct {
	prefix string
}

func (k cacheKeys) session(sessionID string) string {
	return k.prefix + "_session:" + sessionID
}

func (k cacheKeys) sessionTouch(sessionID string) string {
	return k.session(sessionID) + ":last_update"
}

func (k cacheKeys) userSessions(userID string) string {
	return k.prefix + "_user_sessions:" + userID
}

func (k cacheKeys) refresh(userID, token string) string {
	return k.prefix + "_refresh:" + userID + ":" + token
}

func (k cacheKeys) otpCode(purpose, identifier string) string {
	return k.prefix + "_otp_codes:" + purpose + ":" + identifier
}

func (k cacheKeys) otpLog(purpose, identifier string) string {
	return k.prefix + "_otp_logs:" + purpose + ":" + identifier
}

func (k cacheKeys) otpBlacklist(identifier string) string {
	return k.prefix + "_otp_blacklist:" + identifier
}
