package service

import (
	"context"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/models"
)

type appInfoService struct {
	info models.AppInfo

	logger *logger.Logger
}

// NewAppInfoService reports the version and the login methods that can be
// used with cfg. Password, phone and one-time-code logins are always
// available; WeChat logins only when their application is configured.
func NewAppInfoService(cfg *config.StructuredConfig, logger *logger.Logger) (AppInfoService, error) {
	if cfg.App.Version == "" {
		return nil, ErrVersionIsNotSpecified
	}

	methods := []string{
		models.LoginMethodPassword,
		models.LoginMethodPhone,
		models.LoginMethodSMS,
		models.LoginMethodEmail,
	}
	if cfg.Adapter.WechatWeb.Enabled() {
		methods = append(methods, models.LoginMethodWechat)
	}
	if cfg.Adapter.WechatMini.Enabled() {
		methods = append(methods, models.LoginMethodWechatMini)
	}

	return &appInfoService{
		info: models.AppInfo{
			Version:       cfg.App.Version,
			LoginMethods:  methods,
			SingleSession: cfg.App.SingleSession,
		},
		logger: logger,
	}, nil
}

func (s *appInfoService) GetAppInfo(ctx context.Context) models.AppInfo {
	info := s.info
	info.LoginMethods = append([]string(nil), s.info.LoginMethods...)
	return info
}
