package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-auth-keeper/internal/crypto"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// userRepository is the SQL implementation of [UserRepository].
// Every table and column name comes from the validated [Schema].
//
// All methods obtain a context-scoped logger via [logger.FromContext] for
// structured, request-level tracing of database interactions.
type userRepository struct {
	logger *logger.Logger
	db     *DB
	schema Schema
	hasher crypto.PasswordHasher
	now    func() time.Time
}

// NewUserRepository constructs a [UserRepository] bound to schema.
// Passwords are hashed and verified with hasher.
func NewUserRepository(db *DB, schema Schema, hasher crypto.PasswordHasher, logger *logger.Logger) UserRepository {
	logger.Debug().Str("table", schema.Table).Msg("creating user repository")
	return &userRepository{
		db:     db,
		schema: schema,
		hasher: hasher,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// identifierColumn pairs an identifying column with the value to look up.
type identifierColumn struct {
	column string
	value  string
}

func (r *userRepository) notDeleted() sq.Eq {
	return sq.Eq{r.schema.Fields.IsDeleted: 0}
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findBy(ctx, r.schema.Fields.Username, username)
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (models.User, error) {
	return r.findBy(ctx, r.schema.Fields.Phone, phone)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findBy(ctx, r.schema.Fields.Email, email)
}

func (r *userRepository) FindByWxWebOpenID(ctx context.Context, openID string) (models.User, error) {
	return r.findBy(ctx, r.schema.Fields.WxWebOpenID, openID)
}

func (r *userRepository) FindByWxMiniOpenID(ctx context.Context, openID string) (models.User, error) {
	return r.findBy(ctx, r.schema.Fields.WxMiniOpenID, openID)
}

func (r *userRepository) Get(ctx context.Context, id int64) (models.User, error) {
	return r.findOne(ctx, sq.Eq{r.schema.Fields.ID: id})
}

func (r *userRepository) findBy(ctx context.Context, column, value string) (models.User, error) {
	if value == "" {
		return models.User{}, ErrNoUserWasFound
	}
	return r.findOne(ctx, sq.Eq{column: value})
}

// findOne returns the first non-deleted user matching where.
func (r *userRepository) findOne(ctx context.Context, where sq.Sqlizer) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.builder.
		Select(r.schema.columns()...).
		From(r.schema.Table).
		Where(where).
		Where(r.notDeleted()).
		OrderBy(r.schema.Fields.ID).
		Limit(1).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*userRepository.findOne").Msg("error building query")
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var user models.User
	err = r.db.withRetry(ctx, func(ctx context.Context) error {
		var scanErr error
		user, scanErr = scanUser(r.db.QueryRowContext(ctx, query, args...))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNoUserWasFound
	}
	if err != nil {
		log.Err(err).Str("func", "*userRepository.findOne").Msg("error selecting user")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return user, nil
}

// Create persists a new user and returns it with the assigned id.
//
// Error handling:
//   - no identifying field set → [ErrMissingIdentifier].
//   - a populated identifying field is taken → [ErrConflict].
//   - unique constraint violation (concurrent insert) → [ErrConflict].
func (r *userRepository) Create(ctx context.Context, input models.UserInput) (models.User, error) {
	log := logger.FromContext(ctx)

	if !input.HasIdentifier() {
		return models.User{}, ErrMissingIdentifier
	}

	f := r.schema.Fields
	if err := r.checkConflicts(ctx, 0, []identifierColumn{
		{f.Username, input.Username},
		{f.Phone, input.Phone},
		{f.Email, input.Email},
		{f.WxWebOpenID, input.WxWebOpenID},
		{f.WxMiniOpenID, input.WxMiniOpenID},
	}); err != nil {
		return models.User{}, err
	}

	var password any
	if input.Password != "" {
		hash, err := r.hasher.Hash(input.Password)
		if err != nil {
			log.Err(err).Str("func", "*userRepository.Create").Msg("error hashing password")
			return models.User{}, err
		}
		password = hash
	}

	var roleID any
	if input.RoleID != nil {
		roleID = *input.RoleID
	}

	now := r.now()
	query, args, err := r.db.builder.
		Insert(r.schema.Table).
		Columns(
			f.Username, f.Password, f.Email, f.Phone, f.Nickname, f.Name,
			f.RoleID, f.DepartmentIDs, f.IsDisabled, f.IsDeleted,
			f.WxWebOpenID, f.WxMiniOpenID, f.CreatedAt, f.UpdatedAt,
		).
		Values(
			nullString(input.Username), password, nullString(input.Email), nullString(input.Phone),
			nullString(input.Nickname), nullString(input.Name),
			roleID, encodeIDs(input.DepartmentIDs), flag(input.IsDisabled), 0,
			nullString(input.WxWebOpenID), nullString(input.WxMiniOpenID), now, now,
		).
		Suffix("RETURNING " + strings.Join(r.schema.columns(), ", ")).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*userRepository.Create").Msg("error building query")
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var user models.User
	err = r.db.withRetry(ctx, func(ctx context.Context) error {
		var scanErr error
		user, scanErr = scanUser(r.db.QueryRowContext(ctx, query, args...))
		return scanErr
	})
	if err != nil {
		log.Err(err).Str("func", "*userRepository.Create").Msg("error inserting user")
		if r.db.isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	log.Debug().Int64("user_id", user.ID).Msg("user created")
	return user, nil
}

// Update applies the non-nil fields of patch and returns the updated user.
// Setting a string field to "" clears it.
func (r *userRepository) Update(ctx context.Context, id int64, patch models.UserPatch) (models.User, error) {
	log := logger.FromContext(ctx)

	if patch.IsEmpty() {
		return r.Get(ctx, id)
	}

	f := r.schema.Fields
	var identifiers []identifierColumn
	for _, c := range []struct {
		column string
		value  *string
	}{
		{f.Username, patch.Username},
		{f.Phone, patch.Phone},
		{f.Email, patch.Email},
		{f.WxWebOpenID, patch.WxWebOpenID},
		{f.WxMiniOpenID, patch.WxMiniOpenID},
	} {
		if c.value != nil {
			identifiers = append(identifiers, identifierColumn{c.column, *c.value})
		}
	}
	if err := r.checkConflicts(ctx, id, identifiers); err != nil {
		return models.User{}, err
	}

	update := r.db.builder.
		Update(r.schema.Table).
		Set(f.UpdatedAt, r.now())

	for _, c := range []struct {
		column string
		value  *string
	}{
		{f.Username, patch.Username},
		{f.Email, patch.Email},
		{f.Phone, patch.Phone},
		{f.Nickname, patch.Nickname},
		{f.Name, patch.Name},
		{f.WxWebOpenID, patch.WxWebOpenID},
		{f.WxMiniOpenID, patch.WxMiniOpenID},
	} {
		if c.value != nil {
			update = update.Set(c.column, nullString(*c.value))
		}
	}

	if patch.Password != nil {
		var password any
		if *patch.Password != "" {
			hash, err := r.hasher.Hash(*patch.Password)
			if err != nil {
				log.Err(err).Str("func", "*userRepository.Update").Msg("error hashing password")
				return models.User{}, err
			}
			password = hash
		}
		update = update.Set(f.Password, password)
	}
	if patch.RoleID != nil {
		update = update.Set(f.RoleID, *patch.RoleID)
	}
	if patch.DepartmentIDs != nil {
		update = update.Set(f.DepartmentIDs, encodeIDs(*patch.DepartmentIDs))
	}
	if patch.IsDisabled != nil {
		update = update.Set(f.IsDisabled, flag(*patch.IsDisabled))
	}

	query, args, err := update.
		Where(sq.Eq{f.ID: id}).
		Where(r.notDeleted()).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*userRepository.Update").Msg("error building query")
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	affected, err := r.exec(ctx, query, args)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.Update").Msg("error updating user")
		if r.db.isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return models.User{}, ErrNoUserWasFound
	}

	return r.Get(ctx, id)
}

// Delete sets the soft-delete flag. Deleting an unknown or already deleted
// user returns [ErrNoUserWasFound].
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)

	f := r.schema.Fields
	query, args, err := r.db.builder.
		Update(r.schema.Table).
		Set(f.IsDeleted, 1).
		Set(f.UpdatedAt, r.now()).
		Where(sq.Eq{f.ID: id}).
		Where(r.notDeleted()).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*userRepository.Delete").Msg("error building query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	affected, err := r.exec(ctx, query, args)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.Delete").Msg("error deleting user")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrNoUserWasFound
	}

	return nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.builder.
		Select(r.schema.columns()...).
		From(r.schema.Table).
		Where(r.notDeleted()).
		OrderBy(r.schema.Fields.ID).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*userRepository.List").Msg("error building query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var users []models.User
	err = r.db.withRetry(ctx, func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		users = make([]models.User, 0)
		for rows.Next() {
			user, err := scanUser(rows)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrScanningRows, err)
			}
			users = append(users, user)
		}
		return rows.Err()
	})
	if err != nil {
		log.Err(err).Str("func", "*userRepository.List").Msg("error listing users")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return users, nil
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, r.schema.Fields.Username, username, 0)
}

// ValidateCredentials accepts a username or a phone number as identifier.
// Unknown identifiers return [ErrNoUserWasFound]; users without a password
// or with a different one return [ErrPasswordMismatch].
func (r *userRepository) ValidateCredentials(ctx context.Context, identifier, password string) (models.User, error) {
	if identifier == "" {
		return models.User{}, ErrNoUserWasFound
	}

	f := r.schema.Fields
	user, err := r.findOne(ctx, sq.Or{
		sq.Eq{f.Username: identifier},
		sq.Eq{f.Phone: identifier},
	})
	if err != nil {
		return models.User{}, err
	}

	if !user.HasPassword() || !r.hasher.Verify(password, *user.PasswordHash) {
		return models.User{}, ErrPasswordMismatch
	}
	if user.IsDeleted {
		return models.User{}, ErrNoUserWasFound
	}

	return user, nil
}

// checkConflicts fails with [ErrConflict] on the first non-empty identifier
// already used by another non-deleted user. excludeID skips the user being
// updated (0 skips nothing).
func (r *userRepository) checkConflicts(ctx context.Context, excludeID int64, identifiers []identifierColumn) error {
	for _, c := range identifiers {
		if c.value == "" {
			continue
		}
		taken, err := r.exists(ctx, c.column, c.value, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrConflict, c.column)
		}
	}
	return nil
}

func (r *userRepository) exists(ctx context.Context, column, value string, excludeID int64) (bool, error) {
	log := logger.FromContext(ctx)

	if value == "" {
		return false, nil
	}

	selectQuery := r.db.builder.
		Select("1").
		From(r.schema.Table).
		Where(sq.Eq{column: value}).
		Where(r.notDeleted())
	if excludeID != 0 {
		selectQuery = selectQuery.Where(sq.NotEq{r.schema.Fields.ID: excludeID})
	}

	query, args, err := selectQuery.Limit(1).ToSql()
	if err != nil {
		log.Err(err).Str("func", "*userRepository.exists").Msg("error building query")
		return false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var found int
	err = r.db.withRetry(ctx, func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx, query, args...).Scan(&found)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		log.Err(err).Str("func", "*userRepository.exists").Msg("error checking column value")
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return true, nil
}

func (r *userRepository) exec(ctx context.Context, query string, args []any) (int64, error) {
	var affected int64
	err := r.db.withRetry(ctx, func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	return affected, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser reads one row in [Schema.columns] order.
func scanUser(row rowScanner) (models.User, error) {
	var (
		user                      models.User
		username, password, email sql.NullString
		phone, nickname, name     sql.NullString
		wxWebOpenID, wxMiniOpenID sql.NullString
		roleID                    sql.NullInt64
		departmentIDs             any
		isDisabled, isDeleted     any
		createdAt, updatedAt      any
	)

	if err := row.Scan(
		&user.ID, &username, &password, &email, &phone, &nickname, &name,
		&roleID, &departmentIDs, &isDisabled, &isDeleted,
		&wxWebOpenID, &wxMiniOpenID, &createdAt, &updatedAt,
	); err != nil {
		return models.User{}, err
	}

	user.Username = username.String
	if password.Valid && password.String != "" {
		hash := password.String
		user.PasswordHash = &hash
	}
	user.Email = email.String
	user.Phone = phone.String
	user.Nickname = nickname.String
	user.Name = name.String
	if roleID.Valid {
		id := roleID.Int64
		user.RoleID = &id
	}
	user.DepartmentIDs = decodeIDs(departmentIDs)
	user.IsDisabled = asBool(isDisabled)
	user.IsDeleted = asBool(isDeleted)
	user.WxWebOpenID = wxWebOpenID.String
	user.WxMiniOpenID = wxMiniOpenID.String
	user.CreatedAt = asTime(createdAt)
	user.UpdatedAt = asTime(updatedAt)

	return user, nil
}
