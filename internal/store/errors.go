package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrNoUserWasFound is returned when a query expected to match a single
	// non-deleted user record produces an empty result set.
	ErrNoUserWasFound = errors.New("no user was found")

	// ErrConflict is returned when a populated identifying field (username,
	// phone, email or a WeChat open-id) already belongs to a non-deleted user.
	ErrConflict = errors.New("identifying field already in use")

	// ErrMissingIdentifier is returned by Create when none of the identifying
	// fields is set.
	ErrMissingIdentifier = errors.New("at least one identifying field is required")

	// ErrInvalidSchema is returned at construction time when a configured
	// table or column name is empty, malformed or used twice.
	ErrInvalidSchema = errors.New("invalid schema mapping")

	// ErrRoleNotFound is returned when no role row matches the requested id.
	ErrRoleNotFound = errors.New("role was not found")

	// ErrSessionNotFound is returned when the session key is absent or expired.
	ErrSessionNotFound = errors.New("session was not found")

	// ErrInvalidExpiry is returned when a one-time code expiry is not in the future.
	ErrInvalidExpiry = errors.New("expiry must be in the future")

	// ErrUnsupportedDriver is returned when the configured SQL driver is unknown.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")

	// ErrCacheOperation is returned when a Redis command fails for a reason
	// other than a missing key.
	ErrCacheOperation = errors.New("cache operation failed")

	// ErrDecodingRecord is returned when a cached JSON record cannot be decoded.
	ErrDecodingRecord = errors.New("failed to decode cached record")
)

// ErrPasswordMismatch is returned by ValidateCredentials when the user has no
// password or the supplied password does not match the stored hash.
var ErrPasswordMismatch = errors.New("password does not match")
