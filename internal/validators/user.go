package validators

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"github.com/MKhiriev/go-auth-keeper/models"
)

// Field name constants used to specify which fields should be validated.
const (
	// FieldIdentifier requires at least one identifying attribute
	// (username, phone, email or a WeChat open id).
	FieldIdentifier = "identifier"

	FieldUsername      = "username"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldPassword      = "password"
	FieldDepartmentIDs = "department_ids"

	// FieldPatch requires a patch to change at least one attribute.
	FieldPatch = "patch"

	FieldOtpIdentifier = "otp_identifier"
	FieldOtpPurpose    = "otp_purpose"
)

const (
	maxUsernameLength = 64
	minPasswordLength = 6
	// bcrypt ignores everything after 72 bytes
	maxPasswordLength = 72
)

var (
	phonePattern   = regexp.MustCompile(`^\+?[0-9]{5,20}$`)
	purposePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)
)

// UserValidator validates user records, partial updates and one-time-code
// requests. Empty optional attributes are not checked.
type UserValidator struct {
}

func NewUserValidator() Validator {
	return &UserValidator{}
}

func (v *UserValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.UserInput:
		return v.validateUserInput(ctx, value, fields...)
	case *models.UserInput:
		return v.validateUserInput(ctx, *value, fields...)

	case models.UserPatch:
		return v.validateUserPatch(ctx, value, fields...)
	case *models.UserPatch:
		return v.validateUserPatch(ctx, *value, fields...)

	case models.OtpRequest:
		return v.validateOtpRequest(ctx, value, fields...)
	case *models.OtpRequest:
		return v.validateOtpRequest(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func (v *UserValidator) validateUserInput(ctx context.Context, input models.UserInput, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldIdentifier, FieldUsername, FieldEmail, FieldPhone, FieldPassword, FieldDepartmentIDs}
	}

	for _, f := range fields {
		var err error
		switch f {
		case FieldIdentifier:
			if !input.HasIdentifier() {
				err = ErrNoIdentifier
			}
		case FieldUsername:
			err = optional(input.Username, validUsername)
		case FieldEmail:
			err = optional(input.Email, validEmail)
		case FieldPhone:
			err = optional(input.Phone, validPhone)
		case FieldPassword:
			err = optional(input.Password, validPassword)
		case FieldDepartmentIDs:
			err = validDepartmentIDs(input.DepartmentIDs)
		default:
			err = ErrUnknownField
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (v *UserValidator) validateUserPatch(ctx context.Context, patch models.UserPatch, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldPatch, FieldUsername, FieldEmail, FieldPhone, FieldPassword, FieldDepartmentIDs}
	}

	for _, f := range fields {
		var err error
		switch f {
		case FieldPatch:
			if patch.IsEmpty() {
				err = ErrNoFieldsToUpdate
			}
		case FieldUsername:
			// a username can be changed but never cleared
			if patch.Username != nil {
				err = validUsername(*patch.Username)
			}
		case FieldEmail:
			if patch.Email != nil {
				err = optional(*patch.Email, validEmail)
			}
		case FieldPhone:
			if patch.Phone != nil {
				err = optional(*patch.Phone, validPhone)
			}
		case FieldPassword:
			if patch.Password != nil {
				err = validPassword(*patch.Password)
			}
		case FieldDepartmentIDs:
			if patch.DepartmentIDs != nil {
				err = validDepartmentIDs(*patch.DepartmentIDs)
			}
		default:
			err = ErrUnknownField
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (v *UserValidator) validateOtpRequest(ctx context.Context, request models.OtpRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldOtpIdentifier, FieldOtpPurpose}
	}

	for _, f := range fields {
		switch f {
		case FieldOtpIdentifier:
			if strings.TrimSpace(request.Identifier) == "" {
				return ErrEmptyOtpTarget
			}
		case FieldOtpPurpose:
			if !purposePattern.MatchString(request.Purpose) {
				return ErrInvalidPurpose
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func optional(value string, check func(string) error) error {
	if value == "" {
		return nil
	}
	return check(value)
}

func validUsername(username string) error {
	if username == "" || len([]rune(username)) > maxUsernameLength {
		return ErrInvalidUsername
	}
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return ErrInvalidUsername
	}
	return nil
}

func validEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func validPhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

func validPassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return ErrInvalidPassword
	}
	return nil
}

func validDepartmentIDs(ids []int64) error {
	for _, id := range ids {
		if id <= 0 {
			return ErrInvalidDeptIDs
		}
	}
	return nil
}
