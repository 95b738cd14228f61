package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrNoIdentifier     = errors.New("at least one of username, phone, email or wechat open id is required")
	ErrInvalidUsername  = errors.New("username must be 1-64 characters without spaces")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrInvalidPassword  = errors.New("password must be 6-72 bytes long")
	ErrNoFieldsToUpdate = errors.New("at least one field must be provided for update")
	ErrEmptyOtpTarget   = errors.New("identifier is required")
	ErrEmptyOtpCode     = errors.New("code is required")
	ErrInvalidPurpose   = errors.New("purpose must be 1-32 letters, digits, '-' or '_'")
	ErrInvalidDeptIDs   = errors.New("department ids must be positive")
)
