package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/crypto"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
)

// Storages groups every repository and cache store used by the services.
// RoleRepository and DepartmentRepository are nil when their tables are
// not configured.
type Storages struct {
	UserRepository       UserRepository
	RoleRepository       RoleRepository
	DepartmentRepository DepartmentRepository
	SessionStore         SessionStore
	OtpStore             OtpStore

	db    *DB
	redis *redis.Client
}

// NewStorages connects the database and Redis and builds every store.
func NewStorages(ctx context.Context, cfg *config.StructuredConfig, hasher crypto.PasswordHasher, log *logger.Logger) (*Storages, error) {
	schema, err := NewSchema(cfg.Schema)
	if err != nil {
		log.Err(err).Str("func", "NewStorages").Msg("invalid user schema")
		return nil, err
	}

	db, err := NewConnectDB(ctx, cfg.Storage.DB, log)
	if err != nil {
		return nil, err
	}

	rdb, err := NewRedisClient(ctx, cfg.Storage.Redis, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	storages := &Storages{
		UserRepository: NewUserRepository(db, schema, hasher, log),
		SessionStore:   NewSessionStore(rdb, cfg.App.KeyPrefix, log),
		OtpStore:       NewOtpStore(rdb, cfg.App.KeyPrefix, log),
		db:             db,
		redis:          rdb,
	}

	if cfg.Schema.Role.Enabled() {
		if storages.RoleRepository, err = NewRoleRepository(db, cfg.Schema.Role, log); err != nil {
			storages.Close()
			return nil, err
		}
	}
	if cfg.Schema.Department.Enabled() {
		if storages.DepartmentRepository, err = NewDepartmentRepository(db, cfg.Schema.Department, log); err != nil {
			storages.Close()
			return nil, err
		}
	}

	if cfg.Storage.DB.Migrate {
		tables := cfg.Schema
		tables.UserTable, tables.Fields = schema.Table, schema.Fields
		if err = db.Migrate(ctx, tables); err != nil {
			storages.Close()
			return nil, err
		}
	}

	return storages, nil
}

// Close releases the database and Redis connections.
func (s *Storages) Close() error {
	var errs []error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing database: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
