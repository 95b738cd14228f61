package store

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// otpStore is the Redis implementation of [OtpStore].
type otpStore struct {
	rdb    redis.UniversalClient
	keys   cacheKeys
	now    func() time.Time
	logger *logger.Logger
}

// NewOtpStore constructs an [OtpStore] keeping its keys under prefix.
func NewOtpStore(rdb redis.UniversalClient, prefix string, logger *logger.Logger) OtpStore {
	logger.Debug().Str("prefix", prefix).Msg("creating otp store")
	return &otpStore{
		rdb:    rdb,
		keys:   cacheKeys{prefix: prefix},
		now:    time.Now,
		logger: logger,
	}
}

func (o *otpStore) BlacklistTTL(ctx context.Context, identifier string) (time.Duration, error) {
	ttl, err := o.rdb.TTL(ctx, o.keys.otpBlacklist(identifier)).Result()
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*otpStore.BlacklistTTL").Msg("error reading blacklist")
		return 0, fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}
	// -2: no entry, -1: entry without expiry (permanent ban)
	switch {
	case ttl == -1:
		return time.Duration(math.MaxInt64), nil
	case ttl < 0:
		return 0, nil
	}
	return ttl, nil
}

func (o *otpStore) Blacklist(ctx context.Context, identifier string, duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("%w: blacklist duration %s", ErrInvalidExpiry, duration)
	}

	if err := o.rdb.Set(ctx, o.keys.otpBlacklist(identifier), "1", duration).Err(); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*otpStore.Blacklist").Msg("error saving blacklist entry")
		return fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}
	return nil
}

func (o *otpStore) LastSent(ctx context.Context, identifier, purpose string) (time.Time, error) {
	raw, err := o.rdb.Get(ctx, o.keys.otpLog(purpose, identifier)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*otpStore.LastSent").Msg("error reading send log")
		return time.Time{}, fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrDecodingRecord, err)
	}
	return time.UnixMilli(ms), nil
}

// SaveCode replaces any live code for (identifier, purpose) and records the
// send time, which expires after resendInterval.
func (o *otpStore) SaveCode(ctx context.Context, identifier string, code models.OtpCode, resendInterval time.Duration) error {
	now := o.now()
	ttl := code.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return fmt.Errorf("%w: code expires at %s", ErrInvalidExpiry, code.ExpiresAt.Format(time.RFC3339))
	}

	data, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("error encoding code: %w", err)
	}

	_, err = o.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, o.keys.otpCode(code.Purpose, identifier), data, ttl)
		if resendInterval > 0 {
			pipe.Set(ctx, o.keys.otpLog(code.Purpose, identifier), strconv.FormatInt(now.UnixMilli(), 10), resendInterval)
		}
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*otpStore.SaveCode").Msg("error saving code")
		return fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}

	return nil
}

// ConsumeCode compares code with the stored one and deletes it on match.
// The read and the delete run under WATCH, so of two concurrent callers
// presenting the same code only one consumes it.
func (o *otpStore) ConsumeCode(ctx context.Context, identifier, code, purpose string) (bool, error) {
	key := o.keys.otpCode(purpose, identifier)
	consumed := false

	err := o.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		var stored models.OtpCode
		if err = json.Unmarshal(raw, &stored); err != nil {
			return nil
		}
		if !o.now().Before(stored.ExpiresAt) {
			return nil
		}
		if subtle.ConstantTimeCompare([]byte(stored.Code), []byte(code)) != 1 {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err == nil {
			consumed = true
		}
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*otpStore.ConsumeCode").Msg("error consuming code")
		return false, fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}

	return consumed, nil
}
