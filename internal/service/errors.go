package service

import (
	"errors"
	"fmt"

	"github.com/samber/oops"

	"github.com/MKhiriev/go-auth-keeper/internal/app"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("user not found")
	ErrConflict            = errors.New("conflict")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrSessionExpired      = errors.New("session expired")
	ErrInfrastructure      = errors.New("infrastructure failure")

	ErrInvalidDataProvided   = errors.New("invalid data provided")
	ErrOtpNotAllowed         = errors.New("one-time code cannot be sent yet")
	ErrVersionIsNotSpecified = errors.New("version is not specified")
)

// Stable error codes reported next to the user-facing message.
const (
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeSessionExpired      = "SESSION_EXPIRED"
	CodeInvalidData         = "INVALID_DATA"
	CodeOtpNotAllowed       = "OTP_NOT_ALLOWED"
	CodeInfrastructure      = "INFRASTRUCTURE_ERROR"
)

type domainError struct {
	err     error
	code    string
	message string
}

var domainErrors = []domainError{
	{ErrInvalidCredentials, CodeInvalidCredentials, app.MsgInvalidCredentials},
	{ErrInvalidToken, CodeInvalidToken, app.MsgInvalidToken},
	{ErrInvalidRefreshToken, CodeInvalidRefreshToken, app.MsgInvalidRefreshToken},
	{ErrUserNotFound, CodeUserNotFound, app.MsgUserNotFound},
	{ErrConflict, CodeConflict, app.MsgConflict},
	{ErrUnauthorized, CodeUnauthorized, app.MsgUnauthorized},
	{ErrSessionExpired, CodeSessionExpired, app.MsgSessionExpired},
	{ErrInvalidDataProvided, CodeInvalidData, app.MsgInvalidDataProvided},
	{ErrVersionIsNotSpecified, CodeInvalidData, app.MsgVersionIsNotSpecified},
	{ErrOtpNotAllowed, CodeOtpNotAllowed, app.MsgTooManyRequests},
}

// ErrorCode returns the stable code of err. Errors outside the domain
// taxonomy are reported as infrastructure failures.
func ErrorCode(err error) string {
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			return d.code
		}
	}
	return CodeInfrastructure
}

// ErrorMessage returns a message that is safe to show to the caller.
// Infrastructure failures name the failed operation only.
func ErrorMessage(err error) string {
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			if errors.Is(err, ErrInvalidDataProvided) {
				// validation details come from validator sentinels
				return err.Error()
			}
			return d.message
		}
	}

	if oopsErr, ok := oops.AsOops(err); ok {
		if operation, ok := oopsErr.Context()["operation"].(string); ok && operation != "" {
			return operation + " failed"
		}
	}
	return app.MsgInternalServerError
}

// infraError wraps a failure of a store or an outbound integration. The
// result matches ErrInfrastructure and carries the operation name for
// ErrorMessage.
func infraError(operation string, err error) error {
	return oops.
		Code(CodeInfrastructure).
		In("auth").
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", ErrInfrastructure, err))
}

// invalidData wraps a validation failure so that it matches
// ErrInvalidDataProvided and keeps the validator's message.
func invalidData(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
}
