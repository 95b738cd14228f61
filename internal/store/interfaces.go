package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-auth-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// UserRepository persists user records over a configurable table and column
// mapping. Lookups and listings never return soft-deleted rows.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByPhone(ctx context.Context, phone string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByWxWebOpenID(ctx context.Context, openID string) (models.User, error)
	FindByWxMiniOpenID(ctx context.Context, openID string) (models.User, error)

	// Create inserts a new user. It fails with ErrConflict when a populated
	// identifying field already belongs to a non-deleted user.
	Create(ctx context.Context, input models.UserInput) (models.User, error)
	Get(ctx context.Context, id int64) (models.User, error)
	Update(ctx context.Context, id int64, patch models.UserPatch) (models.User, error)

	// Delete marks the user as deleted. The row is kept.
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)

	// ValidateCredentials looks identifier up by username or phone and
	// returns the user only if the stored hash matches password.
	ValidateCredentials(ctx context.Context, identifier, password string) (models.User, error)
}

// RoleRepository reads role and menu rows. Rows are returned as generic
// column maps since the menu schema is owned by the host application.
type RoleRepository interface {
	GetRole(ctx context.Context, roleID int64) (map[string]any, error)
	ListMenus(ctx context.Context, menuIDs []int64) ([]map[string]any, error)
}

// DepartmentRepository reads department rows by id.
type DepartmentRepository interface {
	ListDepartments(ctx context.Context, ids []int64) ([]map[string]any, error)
}

// SessionStore keeps session records, the per-user session index and
// refresh token bindings in the cache.
type SessionStore interface {
	// Save writes a new session and its index entry.
	Save(ctx context.Context, session models.Session, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (models.Session, error)

	// Update rewrites an existing session in place, keeping its TTL.
	// It returns [ErrSessionNotFound] instead of recreating a deleted one.
	Update(ctx context.Context, sessionID string, mutate func(*models.Session) error) (models.Session, error)

	// Touch refreshes LastActivityAt at most once per coalescing interval.
	// Failures are logged, never returned.
	Touch(ctx context.Context, sessionID string)
	Invalidate(ctx context.Context, sessionID string) error
	InvalidateAllForUser(ctx context.Context, userID string) error

	// ListUserSessions returns the live session ids of a user and prunes
	// index entries whose session is gone.
	ListUserSessions(ctx context.Context, userID string) ([]string, error)
	BindRefreshToken(ctx context.Context, userID, token, sessionID string, ttl time.Duration) error

	// IsRefreshTokenValid returns the bound session id when the binding
	// exists and its session is still live.
	IsRefreshTokenValid(ctx context.Context, userID, token string) (string, bool, error)
}

// OtpStore keeps one-time codes, send throttles and blacklist entries.
type OtpStore interface {
	// BlacklistTTL returns the remaining ban, zero when not blacklisted.
	BlacklistTTL(ctx context.Context, identifier string) (time.Duration, error)
	Blacklist(ctx context.Context, identifier string, duration time.Duration) error

	// LastSent returns the time of the last recorded send, zero if none is
	// recorded within the resend interval.
	LastSent(ctx context.Context, identifier, purpose string) (time.Time, error)
	SaveCode(ctx context.Context, identifier string, code models.OtpCode, resendInterval time.Duration) error

	// ConsumeCode deletes the stored code if it matches and reports whether
	// this caller consumed it.
	ConsumeCode(ctx context.Context, identifier, code, purpose string) (bool, error)
}

// ErrorClassificator decides whether a failed database call may be retried.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
