package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// DefaultTouchInterval is the minimum time between two activity writes
// for the same session.
const DefaultTouchInterval = 60 * time.Second

const (
	updateMaxRetries = 5
	updateRetryDelay = 5 * time.Millisecond
)

// sessionStore is the Redis implementation of [SessionStore].
//
// A session spans three keys: the primary record, the per-user index hash
// and the refresh token binding. They are not updated atomically; writes
// put the primary record last and deletes remove it first, so a partial
// failure leaves a session that is unusable rather than falsely usable.
type sessionStore struct {
	rdb           redis.UniversalClient
	keys          cacheKeys
	touchInterval time.Duration
	now           func() time.Time
	logger        *logger.Logger
}

// NewSessionStore constructs a [SessionStore] keeping its keys under prefix.
func NewSessionStore(rdb redis.UniversalClient, prefix string, logger *logger.Logger) SessionStore {
	logger.Debug().Str("prefix", prefix).Msg("creating session store")
	return &sessionStore{
		rdb:           rdb,
		keys:          cacheKeys{prefix: prefix},
		touchInterval: DefaultTouchInterval,
		now:           time.Now,
		logger:        logger,
	}
}

// Save writes the index entry first and the primary record last, both with ttl.
// The index hash expiry is only ever extended.
func (s *sessionStore) Save(ctx context.Context, session models.Session, ttl time.Duration) error {
	log := logger.FromContext(ctx)

	if ttl <= 0 {
		return fmt.Errorf("%w: session ttl %s", ErrInvalidExpiry, ttl)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("error encoding session: %w", err)
	}

	userKey := s.keys.userSessions(session.UserID)
	current, err := s.rdb.TTL(ctx, userKey).Result()
	if err != nil {
		log.Err(err).Str("func", "*sessionStore.Save").Msg("error reading index ttl")
		return fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, userKey, session.SessionID, strconv.FormatInt(int64(ttl/time.Second), 10))
		if current < ttl {
			pipe.Expire(ctx, userKey, ttl)
		}
		return nil
	})
	if err != nil {
		log.Err(err).Str("func", "*sessionStore.Save").Msg("error updating session index")
		return fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}

	if err = s.rdb.Set(ctx, s.keys.session(session.SessionID), data, ttl).Err(); err != nil {
		log.Err(err).Str("func", "*sessionStore.Save").Msg("error saving session")
		return fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}

	return nil
}

// Get returns the session, [ErrSessionNotFound] if it is absent or expired.
func (s *sessionStore) Get(ctx context.Context, sessionID string) (models.Session, error) {
	if sessionID == "" {
		return models.Session{}, ErrSessionNotFound
	}

	raw, err := s.rdb.Get(ctx, s.keys.session(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Session{}, ErrSessionNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*sessionStore.Get").Msg("error reading session")
		return models.Session{}, fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}

	var session models.Session
	if err = json.Unmarshal(raw, &session); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*sessionStore.Get").Msg("error decoding session")
		return models.Session{}, fmt.Errorf("%w: %w", ErrDecodingRecord, err)
	}

	return session, nil
}

// Touch updates LastActivityAt unless it was already updated within the
// touch interval. The remaining TTL is kept and a deleted session is
// never recreated.
func (s *sessionStore) Touch(ctx context.Context, sessionID string) {
	log := logger.FromContext(ctx)
	now := s.now()

	first, err := s.rdb.SetNX(ctx, s.keys.sessionTouch(sessionID), now.UnixMilli(), s.touchInterval).Result()
	if err != nil {
		log.Warn().Err(err).Str("func", "*sessionStore.Touch").Msg("error coalescing session touch")
		return
	}
	if !first {
		return
	}

	_, err = s.Update(ctx, sessionID, func(session *models.Session) error {
		session.LastActivityAt = now
		return nil
	})
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		log.Warn().Err(err).Str("func", "*sessionStore.Touch").Msg("error saving session")
	}
}

// Update reads the session under WATCH, applies mutate and writes it back
// with SET XX KEEPTTL. It never creates the record and never touches the
// user index, so a session deleted meanwhile stays deleted. mutate may run
// more than once when a concurrent write wins the race; an error from it
// aborts the update and is returned as is.
func (s *sessionStore) Update(ctx context.Context, sessionID string, mutate func(*models.Session) error) (models.Session, error) {
	log := logger.FromContext(ctx)

	if sessionID == "" {
		return models.Session{}, ErrSessionNotFound
	}
	key := s.keys.session(sessionID)

	var updated models.Session
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCacheOperation, err)
		}

		var session models.Session
		if err = json.Unmarshal(raw, &session); err != nil {
			return fmt.Errorf("%w: %w", ErrDecodingRecord, err)
		}
		if err = mutate(&session); err != nil {
			return err
		}

		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("error encoding session: %w", err)
		}

		var written *redis.BoolCmd
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			written = pipe.SetXX(ctx, key, data, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}
		if !written.Val() {
			return ErrSessionNotFound
		}

		updated = session
		return nil
	}

	backoff := retry.WithMaxRetries(updateMaxRetries, retry.NewConstant(updateRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			log.Debug().Str("func", "*sessionStore.Update").Str("session_id", sessionID).Msg("session changed concurrently, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
	if errors.Is(err, redis.TxFailedErr) {
		log.Err(err).Str("func", "*sessionStore.Update").Msg("session update kept conflicting")
		return models.Session{}, fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}
	if err != nil {
		return models.Session{}, err
	}

	return updated, nil
}

// Invalidate removes the primary record, then the index entry, then the
// bound refresh token. Invalidating an unknown session is a no-op.
func (s *sessionStore) Invalidate(ctx context.Context, sessionID string) error {
	log := logger.FromContext(ctx)

	session, err := s.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil && !errors.Is(err, ErrDecodingRecord) {
		return err
	}

	if err = s.rdb.Del(ctx, s.keys.session(sessionID), s.keys.sessionTouch(sessionID)).Err(); err != nil {
		log.Err(err).Str("func", "*sessionStore.Invalidate").Msg("error deleting session")
		return fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}

	if session.UserID == "" {
		return nil
	}

	if err = s.rdb.HDel(ctx, s.keys.userSessions(session.UserID), sessionID).Err(); err != nil {
		log.Err(err).Str("func", "*sessionStore.Invalidate").Msg("error deleting index entry")
		return fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}

	if session.RefreshToken != "" {
		if err = s.rdb.Del(ctx, s.keys.refresh(session.UserID, session.RefreshToken)).Err(); err != nil {
			log.Err(err).Str("func", "*sessionStore.Invalidate").Msg("error deleting refresh token")
			return fmt.Errorf("%w: %w", ErrCacheOperation, err)
		}
	}

	return nil
}

func (s *sessionStore) InvalidateAllForUser(ctx context.Context, userID string) error {
	sessionIDs, err := s.indexedSessions(ctx, userID)
	if err != nil {
		return err
	}

	for _, sessionID := range sessionIDs {
		if err = s.Invalidate(ctx, sessionID); err != nil {
			return err
		}
		// stale ids have no primary record to resolve the user from
		if err = s.rdb.HDel(ctx, s.keys.userSessions(userID), sessionID).Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrCacheOperation, err)
		}
	}

	logger.FromContext(ctx).Debug().Str("user_id", userID).Int("sessions", len(sessionIDs)).Msg("user sessions invalidated")
	return nil
}

func (s *sessionStore) ListUserSessions(ctx context.Context, userID string) ([]string, error) {
	log := logger.FromContext(ctx)

	sessionIDs, err := s.indexedSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(sessionIDs) == 0 {
		return []string{}, nil
	}

	cmds := make([]*redis.IntCmd, len(sessionIDs))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, sessionID := range sessionIDs {
			cmds[i] = pipe.Exists(ctx, s.keys.session(sessionID))
		}
		return nil
	})
	if err != nil {
		log.Err(err).Str("func", "*sessionStore.ListUserSessions").Msg("error checking sessions")
		return nil, fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}

	live := make([]string, 0, len(sessionIDs))
	var stale []string
	for i, cmd := range cmds {
		if cmd.Val() == 1 {
			live = append(live, sessionIDs[i])
		} else {
			stale = append(stale, sessionIDs[i])
		}
	}

	if len(stale) > 0 {
		if err = s.rdb.HDel(ctx, s.keys.userSessions(userID), stale...).Err(); err != nil {
			log.Warn().Err(err).Str("func", "*sessionStore.ListUserSessions").Msg("error pruning session index")
		}
	}

	return live, nil
}

func (s *sessionStore) indexedSessions(ctx context.Context, userID string) ([]string, error) {
	sessionIDs, err := s.rdb.HKeys(ctx, s.keys.userSessions(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.FromContext(ctx).Err(err).Str("func", "*sessionStore.indexedSessions").Msg("error reading session index")
		return nil, fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}
	return sessionIDs, nil
}

func (s *sessionStore) BindRefreshToken(ctx context.Context, userID, token, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: refresh token ttl %s", ErrInvalidExpiry, ttl)
	}

	data, err := json.Marshal(models.RefreshBinding{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("error encoding refresh binding: %w", err)
	}

	if err = s.rdb.Set(ctx, s.keys.refresh(userID, token), data, ttl).Err(); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*sessionStore.BindRefreshToken").Msg("error saving refresh token")
		return fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}

	return nil
}

// IsRefreshTokenValid requires both the binding and its session to exist.
// A binding whose session is gone is deleted.
func (s *sessionStore) IsRefreshTokenValid(ctx context.Context, userID, token string) (string, bool, error) {
	log := logger.FromContext(ctx)

	if userID == "" || token == "" {
		return "", false, nil
	}

	key := s.keys.refresh(userID, token)
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		log.Err(err).Str("func", "*sessionStore.IsRefreshTokenValid").Msg("error reading refresh token")
		return "", false, fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}

	var binding models.RefreshBinding
	if err = json.Unmarshal(raw, &binding); err != nil || binding.SessionID == "" {
		log.Warn().Err(err).Str("func", "*sessionStore.IsRefreshTokenValid").Msg("malformed refresh binding")
		return "", false, nil
	}

	exists, err := s.rdb.Exists(ctx, s.keys.session(binding.SessionID)).Result()
	if err != nil {
		log.Err(err).Str("func", "*sessionStore.IsRefreshTokenValid").Msg("error checking session")
		return "", false, fmt.Errorf("%w: %w", ErrCacheOperation, err)
	}
	if exists == 0 {
		if err = s.rdb.Del(ctx, key).Err(); err != nil {
			log.Warn().Err(err).Str("func", "*sessionStore.IsRefreshTokenValid").Msg("error deleting dangling refresh token")
		}
		return "", false, nil
	}

	return binding.SessionID, true, nil
}
