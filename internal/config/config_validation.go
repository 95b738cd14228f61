// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"regexp"
	"time"
)

// Default values applied by [StructuredConfig.applyDefaults].
const (
	DefaultKeyPrefix            = "auth"
	DefaultTokenDuration        = 24 * time.Hour
	DefaultRefreshTokenDuration = 30 * 24 * time.Hour
	DefaultOtpCodeTTL           = 5 * time.Minute
	DefaultOtpResendInterval    = 60 * time.Second
	DefaultPasswordHasher       = PasswordHasherBcrypt
	DefaultDBDriver             = DriverPostgres
	DefaultLogLevel             = "debug"
	DefaultWechatBaseURL        = "https://api.weixin.qq.com"
	DefaultAdapterTimeout       = 10 * time.Second
)

// Supported password hashers.
const (
	PasswordHasherBcrypt   = "bcrypt"
	PasswordHasherArgon2id = "argon2id"
)

// Supported database drivers.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// identifierPattern accepts plain SQL identifiers, optionally schema-qualified.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// IsIdentifier reports whether name can be spliced into SQL as a table or
// column name.
func IsIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// DefaultFieldNames returns the column names used when no remapping is given.
func DefaultFieldNames() FieldNames {
	return FieldNames{
		ID:            "id",
		Username:      "username",
		Password:      "password",
		Email:         "email",
		Phone:         "phone",
		Nickname:      "nickname",
		Name:          "name",
		RoleID:        "role_id",
		DepartmentIDs: "department_ids",
		IsDisabled:    "is_disabled",
		IsDeleted:     "is_deleted",
		CreatedAt:     "created_at",
		UpdatedAt:     "updated_at",
		WxWebOpenID:   "wx_web_openid",
		WxMiniOpenID:  "wx_mini_openid",
	}
}

// applyDefaults fills every empty setting that has a sensible default.
func (cfg *StructuredConfig) applyDefaults() {
	setDefault(&cfg.App.KeyPrefix, DefaultKeyPrefix)
	setDefault(&cfg.App.PasswordHasher, DefaultPasswordHasher)
	setDefault(&cfg.App.LogLevel, DefaultLogLevel)
	setDefault(&cfg.App.TokenDuration, DefaultTokenDuration)
	setDefault(&cfg.App.RefreshTokenDuration, DefaultRefreshTokenDuration)
	setDefault(&cfg.App.OtpCodeTTL, DefaultOtpCodeTTL)
	setDefault(&cfg.App.OtpResendInterval, DefaultOtpResendInterval)

	setDefault(&cfg.Storage.DB.Driver, DefaultDBDriver)

	setDefault(&cfg.Schema.UserTable, cfg.App.KeyPrefix+"_users")
	defaults := DefaultFieldNames()
	f := &cfg.Schema.Fields
	setDefault(&f.ID, defaults.ID)
	setDefault(&f.Username, defaults.Username)
	setDefault(&f.Password, defaults.Password)
	setDefault(&f.Email, defaults.Email)
	setDefault(&f.Phone, defaults.Phone)
	setDefault(&f.Nickname, defaults.Nickname)
	setDefault(&f.Name, defaults.Name)
	setDefault(&f.RoleID, defaults.RoleID)
	setDefault(&f.DepartmentIDs, defaults.DepartmentIDs)
	setDefault(&f.IsDisabled, defaults.IsDisabled)
	setDefault(&f.IsDeleted, defaults.IsDeleted)
	setDefault(&f.CreatedAt, defaults.CreatedAt)
	setDefault(&f.UpdatedAt, defaults.UpdatedAt)
	setDefault(&f.WxWebOpenID, defaults.WxWebOpenID)
	setDefault(&f.WxMiniOpenID, defaults.WxMiniOpenID)

	if cfg.Schema.Role.RoleTable != "" {
		setDefault(&cfg.Schema.Role.RoleIDField, "id")
		setDefault(&cfg.Schema.Role.MenuIDsField, "menu_ids")
		setDefault(&cfg.Schema.Role.MenuIDField, "id")
	}
	if cfg.Schema.Department.DepartmentTable != "" {
		setDefault(&cfg.Schema.Department.DepartmentIDField, "id")
	}

	setDefault(&cfg.Adapter.WechatBaseURL, DefaultWechatBaseURL)
	setDefault(&cfg.Adapter.RequestTimeout, DefaultAdapterTimeout)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or an error wrapping one of
// the ErrInvalid*Configs sentinels otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.App.TokenSignKey == "" {
		return fmt.Errorf("%w: empty token sign key", ErrInvalidAppConfigs)
	}
	if cfg.App.TokenDuration <= 0 || cfg.App.RefreshTokenDuration <= 0 {
		return fmt.Errorf("%w: token durations must be positive", ErrInvalidAppConfigs)
	}
	if cfg.App.OtpCodeTTL <= 0 || cfg.App.OtpResendInterval <= 0 {
		return fmt.Errorf("%w: otp durations must be positive", ErrInvalidAppConfigs)
	}
	switch cfg.App.PasswordHasher {
	case PasswordHasherBcrypt, PasswordHasherArgon2id:
	default:
		return fmt.Errorf("%w: unknown password hasher %q", ErrInvalidAppConfigs, cfg.App.PasswordHasher)
	}

	switch cfg.Storage.DB.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidStorageConfigs, cfg.Storage.DB.Driver)
	}
	if cfg.Storage.DB.DSN == "" {
		return fmt.Errorf("%w: empty database DSN", ErrInvalidStorageConfigs)
	}
	if cfg.Storage.Redis.Address == "" {
		return fmt.Errorf("%w: empty redis address", ErrInvalidStorageConfigs)
	}

	if cfg.Schema.Role.RoleTable != "" && cfg.Schema.Role.MenuTable == "" {
		return fmt.Errorf("%w: role table set without menu table", ErrInvalidSchemaConfigs)
	}

	if cfg.Server.HTTPAddress == "" {
		return fmt.Errorf("%w: empty http address", ErrInvalidServerConfigs)
	}

	return nil
}
