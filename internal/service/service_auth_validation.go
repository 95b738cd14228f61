package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-auth-keeper/internal/validators"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// AuthValidationService checks caller input before it reaches the engine.
// Methods that are not overridden go straight to the wrapped service.
type AuthValidationService struct {
	AuthService
	validator validators.Validator
}

func NewAuthValidationService() AuthServiceWrapper {
	return &AuthValidationService{
		validator: validators.NewUserValidator(),
	}
}

func (v *AuthValidationService) CreateUser(ctx context.Context, input models.UserInput) (models.User, error) {
	if err := v.validator.Validate(ctx, input); err != nil {
		return models.User{}, invalidData(err)
	}

	return v.AuthService.CreateUser(ctx, input)
}

func (v *AuthValidationService) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (models.User, error) {
	if id <= 0 {
		return models.User{}, ErrUserNotFound
	}
	if err := v.validator.Validate(ctx, patch); err != nil {
		return models.User{}, invalidData(err)
	}

	return v.AuthService.UpdateUser(ctx, id, patch)
}

func (v *AuthValidationService) ValidateUsername(ctx context.Context, username string) error {
	if err := v.validator.Validate(ctx, models.UserPatch{Username: &username}, validators.FieldUsername); err != nil {
		return invalidData(err)
	}

	return v.AuthService.ValidateUsername(ctx, username)
}

func (v *AuthValidationService) CanSendOtp(ctx context.Context, identifier, purpose string) (models.OtpSendCheck, error) {
	if err := v.validateOtpTarget(ctx, identifier, purpose); err != nil {
		return models.OtpSendCheck{}, err
	}

	return v.AuthService.CanSendOtp(ctx, identifier, purpose)
}

func (v *AuthValidationService) StoreOtp(ctx context.Context, identifier, code, purpose string, expiresAt time.Time) error {
	if err := v.validateOtpTarget(ctx, identifier, purpose); err != nil {
		return err
	}
	if code == "" {
		return invalidData(validators.ErrEmptyOtpCode)
	}

	return v.AuthService.StoreOtp(ctx, identifier, code, purpose, expiresAt)
}

func (v *AuthValidationService) RequestOtp(ctx context.Context, identifier, purpose string) (models.OtpSendCheck, string, error) {
	if err := v.validateOtpTarget(ctx, identifier, purpose); err != nil {
		return models.OtpSendCheck{}, "", err
	}

	return v.AuthService.RequestOtp(ctx, identifier, purpose)
}

func (v *AuthValidationService) validateOtpTarget(ctx context.Context, identifier, purpose string) error {
	if err := v.validator.Validate(ctx, models.OtpRequest{Identifier: identifier, Purpose: purpose}); err != nil {
		return invalidData(err)
	}
	return nil
}

func (v *AuthValidationService) Wrap(inner AuthService) AuthService {
	v.AuthService = inner
	return v
}
