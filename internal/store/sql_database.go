package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/migrations"
)

// DB wraps a database handle together with the dialect-specific pieces
// the repositories need: the placeholder format for squirrel and the error
// classifier used by the retry loop.
type DB struct {
	*sql.DB
	driver             string
	builder            sq.StatementBuilderType
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// NewConnectDB opens the database selected by cfg.Driver. Migrations are
// applied by [NewStorages] once the schema has been validated.
func NewConnectDB(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	var (
		db  *DB
		err error
	)

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err = NewConnectPostgres(ctx, cfg, log)
	case config.DriverSQLite:
		db, err = NewConnectSQLite(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the tables named by tables. Field names must already be
// filled in (see [NewSchema]).
func (db *DB) Migrate(ctx context.Context, tables config.Schema) error {
	if err := migrations.Migrate(ctx, db.DB, db.driver, tables); err != nil {
		db.logger.Err(err).Str("func", "DB.Migrate").Str("table", tables.UserTable).Msg("error applying migrations")
		return err
	}
	db.logger.Info().Str("func", "DB.Migrate").Str("table", tables.UserTable).Msg("migrations applied")
	return nil
}

// isUniqueViolation reports whether err is a unique constraint failure of
// either supported driver.
func (db *DB) isUniqueViolation(err error) bool {
	return isPostgresUniqueViolation(err) || isSQLiteUniqueViolation(err)
}
