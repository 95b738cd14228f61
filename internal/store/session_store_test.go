package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/models"
)

func newTestSessionStore(t *testing.T) (*sessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewSessionStore(rdb, "auth", logger.Nop()).(*sessionStore), mr
}

func testSession(userID, sessionID string) models.Session {
	now := time.Now()
	return models.Session{
		UserID:         userID,
		SessionID:      sessionID,
		Token:          "access-" + sessionID,
		RefreshToken:   "refresh-" + sessionID,
		CreatedAt:      now,
		LastActivityAt: now,
		User:           models.User{ID: 1, Username: "admin"},
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSession("1", "sid-1"), time.Hour))

	got, err := s.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "1", got.UserID)
	assert.Equal(t, "admin", got.User.Username)
	assert.Equal(t, "refresh-sid-1", got.RefreshToken)

	assert.True(t, mr.Exists("auth_session:sid-1"))
	assert.Equal(t, time.Hour, mr.TTL("auth_session:sid-1"))
	assert.Equal(t, "3600", mr.HGet("auth_user_sessions:1", "sid-1"))
	assert.Equal(t, time.Hour, mr.TTL("auth_user_sessions:1"))
}

func TestSessionStore_SaveRejectsNonPositiveTTL(t *testing.T) {
	s, _ := newTestSessionStore(t)

	err := s.Save(context.Background(), testSession("1", "sid-1"), 0)
	assert.ErrorIs(t, err, ErrInvalidExpiry)
}

func TestSessionStore_IndexExpiryOnlyExtends(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSession("1", "long"), 2*time.Hour))
	require.NoError(t, s.Save(ctx, testSession("1", "short"), time.Hour))

	assert.Equal(t, 2*time.Hour, mr.TTL("auth_user_sessions:1"))
}

func TestSessionStore_GetMissingAndExpired(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, s.Save(ctx, testSession("1", "sid-1"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err = s.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_GetCorrupt(t *testing.T) {
	s, mr := newTestSessionStore(t)

	require.NoError(t, mr.Set("auth_session:bad", "{not json"))

	_, err := s.Get(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrDecodingRecord)
}

func TestSessionStore_TouchCoalesces(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	var clock atomic.Int64
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock.Store(base.UnixNano())
	s.now = func() time.Time { return time.Unix(0, clock.Load()).UTC() }

	session := testSession("1", "sid-1")
	session.LastActivityAt = base.Add(-time.Hour)
	require.NoError(t, s.Save(ctx, session, time.Hour))

	s.Touch(ctx, "sid-1")
	got, err := s.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, got.LastActivityAt.Equal(base))

	// within the interval: no write
	clock.Store(base.Add(30 * time.Second).UnixNano())
	s.Touch(ctx, "sid-1")
	got, err = s.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, got.LastActivityAt.Equal(base))

	// after the interval: written again, ttl kept
	mr.FastForward(61 * time.Second)
	clock.Store(base.Add(61 * time.Second).UnixNano())
	s.Touch(ctx, "sid-1")
	got, err = s.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, got.LastActivityAt.Equal(base.Add(61*time.Second)))
	assert.Equal(t, time.Hour-61*time.Second, mr.TTL("auth_session:sid-1"))
}

func TestSessionStore_TouchNeverResurrects(t *testing.T) {
	s, mr := newTestSessionStore(t)

	s.Touch(context.Background(), "gone")
	assert.False(t, mr.Exists("auth_session:gone"))
}

func TestSessionStore_TouchSwallowsErrors(t *testing.T) {
	s, mr := newTestSessionStore(t)
	mr.Close()

	// must not panic or block
	s.Touch(context.Background(), "sid-1")
}

func TestSessionStore_Invalidate(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	session := testSession("1", "sid-1")
	require.NoError(t, s.Save(ctx, session, time.Hour))
	require.NoError(t, s.BindRefreshToken(ctx, "1", session.RefreshToken, "sid-1", 24*time.Hour))

	require.NoError(t, s.Invalidate(ctx, "sid-1"))

	assert.False(t, mr.Exists("auth_session:sid-1"))
	assert.False(t, mr.Exists("auth_refresh:1:refresh-sid-1"))
	assert.Equal(t, "", mr.HGet("auth_user_sessions:1", "sid-1"))

	// idempotent
	assert.NoError(t, s.Invalidate(ctx, "sid-1"))
}

func TestSessionStore_ListUserSessionsPrunesStale(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSession("1", "live"), time.Hour))
	require.NoError(t, s.Save(ctx, testSession("1", "dying"), time.Minute))
	mr.HSet("auth_user_sessions:1", "orphan", "60")

	mr.FastForward(2 * time.Minute)

	ids, err := s.ListUserSessions(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, ids)

	keys, err := mr.HKeys("auth_user_sessions:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, keys)

	empty, err := s.ListUserSessions(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSessionStore_InvalidateAllForUser(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	for _, sid := range []string{"a", "b", "c"} {
		session := testSession("1", sid)
		require.NoError(t, s.Save(ctx, session, time.Hour))
		require.NoError(t, s.BindRefreshToken(ctx, "1", session.RefreshToken, sid, time.Hour))
	}
	require.NoError(t, s.Save(ctx, testSession("2", "other"), time.Hour))
	mr.HSet("auth_user_sessions:1", "orphan", "60")

	require.NoError(t, s.InvalidateAllForUser(ctx, "1"))

	ids, err := s.ListUserSessions(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.False(t, mr.Exists("auth_refresh:1:refresh-a"))
	assert.False(t, mr.Exists("auth_user_sessions:1"))

	_, err = s.Get(ctx, "other")
	assert.NoError(t, err)
}

func TestSessionStore_RefreshTokenValidity(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSession("1", "sid-1"), time.Hour))
	require.NoError(t, s.BindRefreshToken(ctx, "1", "tok", "sid-1", 24*time.Hour))

	sid, ok, err := s.IsRefreshTokenValid(ctx, "1", "tok")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sid-1", sid)

	// wrong user
	_, ok, err = s.IsRefreshTokenValid(ctx, "2", "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	// unknown token
	_, ok, err = s.IsRefreshTokenValid(ctx, "1", "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	// session gone: the binding dangles and is dropped
	mr.Del("auth_session:sid-1")
	_, ok, err = s.IsRefreshTokenValid(ctx, "1", "tok")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("auth_refresh:1:tok"))
}

func TestSessionStore_RefreshTokenExpires(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSession("1", "sid-1"), 48*time.Hour))
	require.NoError(t, s.BindRefreshToken(ctx, "1", "tok", "sid-1", time.Hour))
	assert.ErrorIs(t, s.BindRefreshToken(ctx, "1", "tok", "sid-1", 0), ErrInvalidExpiry)

	mr.FastForward(2 * time.Hour)

	_, ok, err := s.IsRefreshTokenValid(ctx, "1", "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_UpdateKeepsTTLAndIndex(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSession("1", "sid-1"), time.Hour))
	mr.FastForward(10 * time.Minute)

	dept := int64(7)
	updated, err := s.Update(ctx, "sid-1", func(session *models.Session) error {
		session.User.CurrentDepartmentID = &dept
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, updated.User.CurrentDepartmentID)

	assert.Equal(t, 50*time.Minute, mr.TTL("auth_session:sid-1"))
	assert.Equal(t, "3600", mr.HGet("auth_user_sessions:1", "sid-1"))

	got, err := s.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got.User.CurrentDepartmentID)
	assert.Equal(t, int64(7), *got.User.CurrentDepartmentID)
	assert.Equal(t, "refresh-sid-1", got.RefreshToken)
}

func TestSessionStore_UpdateMissingNeverCreates(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	called := false
	_, err := s.Update(ctx, "missing", func(*models.Session) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, called)
	assert.False(t, mr.Exists("auth_session:missing"))
	assert.False(t, mr.Exists("auth_user_sessions:1"))
}

func TestSessionStore_UpdateAfterConcurrentInvalidate(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSession("1", "sid-1"), time.Hour))

	_, err := s.Update(ctx, "sid-1", func(*models.Session) error {
		require.NoError(t, s.Invalidate(ctx, "sid-1"))
		return nil
	})

	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, mr.Exists("auth_session:sid-1"))

	ids, err := s.ListUserSessions(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, mr.HGet("auth_user_sessions:1", "sid-1"))
}

func TestSessionStore_UpdateRetriesOnConcurrentWrite(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSession("1", "sid-1"), time.Hour))

	dept := int64(3)
	concurrent := testSession("1", "sid-1")
	concurrent.User.CurrentDepartmentID = &dept
	raw, err := json.Marshal(concurrent)
	require.NoError(t, err)

	var calls atomic.Int32
	touched := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	_, err = s.Update(ctx, "sid-1", func(session *models.Session) error {
		if calls.Add(1) == 1 {
			require.NoError(t, mr.Set("auth_session:sid-1", string(raw)))
			mr.SetTTL("auth_session:sid-1", time.Hour)
		}
		session.LastActivityAt = touched
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	got, err := s.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got.User.CurrentDepartmentID)
	assert.Equal(t, int64(3), *got.User.CurrentDepartmentID)
	assert.True(t, touched.Equal(got.LastActivityAt))
}

func TestSessionStore_UpdateMutateError(t *testing.T) {
	s, _ := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSession("1", "sid-1"), time.Hour))

	boom := errors.New("rejected")
	_, err := s.Update(ctx, "sid-1", func(session *models.Session) error {
		session.UserID = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "1", got.UserID)
}
