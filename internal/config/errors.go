package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidAppConfigs indicates invalid application-level settings
	// (for example, missing token sign key).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, empty DSN or unknown driver).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidSchemaConfigs indicates an incomplete table mapping.
	ErrInvalidSchemaConfigs = errors.New("invalid schema configuration")
	// ErrInvalidServerConfigs indicates missing listen settings.
	ErrInvalidServerConfigs = errors.New("invalid server configuration")

	// ErrInvalidAddress is returned by [NetAddress.Set].
	ErrInvalidAddress = errors.New("invalid network address")
)
