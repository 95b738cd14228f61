package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/crypto"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// ── sqlmock helpers ─────────────────────────────────────────────────────────

var userColumns = []string{
	"id", "username", "password", "email", "phone", "nickname", "name",
	"role_id", "department_ids", "is_disabled", "is_deleted",
	"wx_web_openid", "wx_mini_openid", "created_at", "updated_at",
}

func newTestUserRepo(t *testing.T) (*userRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.Nop()
	schema, err := NewSchema(config.Schema{UserTable: "auth_users"})
	require.NoError(t, err)

	repo := &userRepository{
		db: &DB{
			DB:                 db,
			builder:            sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
			errorClassificator: NewPostgresErrorClassifier(),
			logger:             l,
		},
		schema: schema,
		hasher: crypto.NewBcryptHasher(),
		logger: l,
		now:    func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
	return repo, mock, db
}

func userRow(id int64, username string, passwordHash any) *sqlmock.Rows {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(userColumns).
		AddRow(id, username, passwordHash, "admin@test.com", "13800000000", nil, "Admin",
			int64(3), "[1,2]", int64(0), int64(0), nil, nil, now, now)
}

func TestFindByUsername_Success(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password")).
		WithArgs("admin", 0).
		WillReturnRows(userRow(1, "admin", "hash"))

	user, err := repo.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)

	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "admin", user.Username)
	assert.Equal(t, "admin@test.com", user.Email)
	assert.Equal(t, "13800000000", user.Phone)
	require.NotNil(t, user.RoleID)
	assert.Equal(t, int64(3), *user.RoleID)
	assert.Equal(t, []int64{1, 2}, user.DepartmentIDs)
	assert.True(t, user.HasPassword())
	assert.False(t, user.IsDisabled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUsername_QueryShape(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery(`FROM auth_users WHERE username = \$1 AND is_deleted = \$2 ORDER BY id LIMIT 1`).
		WithArgs("admin", 0).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.FindByUsername(context.Background(), "admin")
	assert.ErrorIs(t, err, ErrNoUserWasFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByPhone_NotFound(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WithArgs("139", 0).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByPhone(context.Background(), "139")
	if !errors.Is(err, ErrNoUserWasFound) {
		t.Fatalf("expected ErrNoUserWasFound, got %v", err)
	}
}

func TestFindBy_EmptyValue(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	_, err := repo.FindByEmail(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoUserWasFound)
	// no query is sent for an empty value
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBy_UnexpectedDBError(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WillReturnError(errors.New("db network error"))

	_, err := repo.FindByWxWebOpenID(context.Background(), "openid")
	assert.ErrorIs(t, err, ErrExecutingQuery)
}

func TestFindBy_RetriesRetryableError(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WillReturnError(pgError(pgerrcode.SerializationFailure))
	mock.ExpectQuery("SELECT").
		WithArgs("openid", 0).
		WillReturnRows(userRow(5, "mini", nil))

	user, err := repo.FindByWxMiniOpenID(context.Background(), "openid")
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)
	assert.False(t, user.HasPassword())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBy_RetryGivesUp(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	for range retryMaxRetries + 1 {
		mock.ExpectQuery("SELECT").
			WillReturnError(pgError(pgerrcode.ConnectionFailure))
	}

	_, err := repo.FindByUsername(context.Background(), "admin")
	assert.ErrorIs(t, err, ErrExecutingQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_MissingIdentifier(t *testing.T) {
	repo, _, db := newTestUserRepo(t)
	defer db.Close()

	_, err := repo.Create(context.Background(), models.UserInput{Nickname: "nobody"})
	assert.ErrorIs(t, err, ErrMissingIdentifier)
}

func TestCreate_ConflictPreCheck(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM auth_users WHERE username = $1 AND is_deleted = $2 LIMIT 1")).
		WithArgs("admin", 0).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	_, err := repo.Create(context.Background(), models.UserInput{Username: "admin"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT 1").
		WithArgs("admin", 0).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("INSERT INTO auth_users").
		WillReturnError(pgError(pgerrcode.UniqueViolation))

	_, err := repo.Create(context.Background(), models.UserInput{Username: "admin"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT 1").
		WithArgs("138", 0).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery(`INSERT INTO auth_users \(username,password,email,phone,.*RETURNING id, username`).
		WillReturnRows(userRow(7, "", nil))

	user, err := repo.Create(context.Background(), models.UserInput{Phone: "138"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE auth_users SET is_deleted = $1, updated_at = $2 WHERE id = $3 AND is_deleted = $4")).
		WithArgs(1, sqlmock.AnyArg(), int64(9), 0).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNoUserWasFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_ExecError(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	nickname := "neo"
	mock.ExpectExec("UPDATE auth_users SET updated_at").
		WillReturnError(errors.New("db network error"))

	_, err := repo.Update(context.Background(), 1, models.UserPatch{Nickname: &nickname})
	assert.ErrorIs(t, err, ErrExecutingStatement)
}

func TestList_ScanError(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1)) // wrong shape → scan error

	_, err := repo.List(context.Background())
	assert.ErrorIs(t, err, ErrScanningRows)
}

func TestRemappedSchema_QueriesUseMappedNames(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	schema, err := NewSchema(config.Schema{
		UserTable: "members",
		Fields: config.FieldNames{
			ID:        "member_id",
			Username:  "login",
			IsDeleted: "removed",
		},
	})
	require.NoError(t, err)
	repo.schema = schema

	mock.ExpectQuery(`SELECT member_id, login, .* FROM members WHERE login = \$1 AND removed = \$2 ORDER BY member_id LIMIT 1`).
		WithArgs("admin", 0).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err = repo.FindByUsername(context.Background(), "admin")
	assert.ErrorIs(t, err, ErrNoUserWasFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ── SQLite-backed tests ─────────────────────────────────────────────────────

func newSQLiteUserRepo(t *testing.T) UserRepository {
	t.Helper()

	db, err := NewConnectDB(context.Background(), config.DB{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "auth.db"),
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := NewSchema(config.Schema{UserTable: "auth_users"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background(), config.Schema{UserTable: schema.Table, Fields: schema.Fields}))

	return NewUserRepository(db, schema, crypto.NewBcryptHasher(), logger.Nop())
}

func TestSQLite_CreateAndFind(t *testing.T) {
	repo := newSQLiteUserRepo(t)
	ctx := context.Background()

	roleID := int64(2)
	created, err := repo.Create(ctx, models.UserInput{
		Username:      "admin",
		Password:      "admin123",
		Email:         "admin@test.com",
		RoleID:        &roleID,
		DepartmentIDs: []int64{10, 20},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "admin", created.Username)
	assert.Equal(t, []int64{10, 20}, created.DepartmentIDs)
	require.True(t, created.HasPassword())
	assert.NotEqual(t, "admin123", *created.PasswordHash)

	byEmail, err := repo.FindByEmail(ctx, "admin@test.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	require.NotNil(t, byEmail.RoleID)
	assert.Equal(t, roleID, *byEmail.RoleID)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)

	exists, err := repo.UsernameExists(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.UsernameExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLite_CreateConflict(t *testing.T) {
	repo := newSQLiteUserRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, models.UserInput{Username: "admin", Phone: "138"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, models.UserInput{Username: "other", Phone: "138"})
	assert.ErrorIs(t, err, ErrConflict)

	// empty identifiers never conflict with each other
	_, err = repo.Create(ctx, models.UserInput{Username: "third"})
	assert.NoError(t, err)
}

func TestSQLite_ValidateCredentials(t *testing.T) {
	repo := newSQLiteUserRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, models.UserInput{Username: "admin", Password: "admin123", Phone: "13800000000"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, models.UserInput{Username: "wechat-only", WxWebOpenID: "oid"})
	require.NoError(t, err)

	user, err := repo.ValidateCredentials(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	user, err = repo.ValidateCredentials(ctx, "13800000000", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	_, err = repo.ValidateCredentials(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	_, err = repo.ValidateCredentials(ctx, "wechat-only", "")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	_, err = repo.ValidateCredentials(ctx, "nobody", "admin123")
	assert.ErrorIs(t, err, ErrNoUserWasFound)
}

func TestSQLite_SoftDelete(t *testing.T) {
	repo := newSQLiteUserRepo(t)
	ctx := context.Background()

	user, err := repo.Create(ctx, models.UserInput{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, user.ID))
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), ErrNoUserWasFound)

	_, err = repo.Get(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNoUserWasFound)

	_, err = repo.ValidateCredentials(ctx, "admin", "admin123")
	assert.ErrorIs(t, err, ErrNoUserWasFound)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	// the username is free again
	reused, err := repo.Create(ctx, models.UserInput{Username: "admin"})
	require.NoError(t, err)
	assert.NotEqual(t, user.ID, reused.ID)
}

func TestSQLite_Update(t *testing.T) {
	repo := newSQLiteUserRepo(t)
	ctx := context.Background()

	user, err := repo.Create(ctx, models.UserInput{Username: "admin", Password: "old"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, models.UserInput{Username: "taken"})
	require.NoError(t, err)

	nickname := "boss"
	password := "new"
	disabled := true
	departments := []int64{5}
	updated, err := repo.Update(ctx, user.ID, models.UserPatch{
		Nickname:      &nickname,
		Password:      &password,
		IsDisabled:    &disabled,
		DepartmentIDs: &departments,
	})
	require.NoError(t, err)
	assert.Equal(t, "boss", updated.Nickname)
	assert.True(t, updated.IsDisabled)
	assert.Equal(t, []int64{5}, updated.DepartmentIDs)

	_, err = repo.ValidateCredentials(ctx, "admin", "new")
	assert.NoError(t, err)

	// keeping its own username is not a conflict
	same := "admin"
	_, err = repo.Update(ctx, user.ID, models.UserPatch{Username: &same})
	assert.NoError(t, err)

	taken := "taken"
	_, err = repo.Update(ctx, user.ID, models.UserPatch{Username: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = repo.Update(ctx, 999, models.UserPatch{Nickname: &nickname})
	assert.ErrorIs(t, err, ErrNoUserWasFound)

	unchanged, err := repo.Update(ctx, user.ID, models.UserPatch{})
	require.NoError(t, err)
	assert.Equal(t, "boss", unchanged.Nickname)
}

func TestSQLite_List(t *testing.T) {
	repo := newSQLiteUserRepo(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := repo.Create(ctx, models.UserInput{Username: name})
		require.NoError(t, err)
	}

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "a", users[0].Username)
	assert.Equal(t, "c", users[2].Username)
}
