package service

import (
	"github.com/MKhiriev/go-auth-keeper/internal/adapter"
	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/store"
)

type Services struct {
	AuthService    AuthService
	TokenService   TokenService
	OtpService     OtpService
	AppInfoService AppInfoService
}

// NewServices wires the engine over storages and adapters. The returned
// AuthService validates input before it reaches the engine.
func NewServices(storages *store.Storages, adapters *adapter.Adapters, cfg *config.StructuredConfig, logger *logger.Logger) (*Services, error) {
	appInfoService, err := NewAppInfoService(cfg, logger)
	if err != nil {
		return nil, err
	}

	tokenService := NewTokenService(storages.SessionStore, cfg.App, logger)
	otpService := NewOtpService(storages.OtpStore, adapters.SMS, cfg.App, logger)

	engine := NewAuthService(AuthDeps{
		UserRepository:       storages.UserRepository,
		DepartmentRepository: storages.DepartmentRepository,
		SessionStore:         storages.SessionStore,
		TokenService:         tokenService,
		OtpService:           otpService,
		RoleResolver:         NewRoleResolver(storages.RoleRepository, cfg.Schema.Role, logger),
		WechatWeb:            adapters.WechatWeb,
		WechatMini:           adapters.WechatMini,
	}, cfg.App, cfg.SeedUsers, logger)

	return &Services{
		AuthService:    NewAuthValidationService().Wrap(engine),
		TokenService:   tokenService,
		OtpService:     otpService,
		AppInfoService: appInfoService,
	}, nil
}
