package adapter

import (
	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
)

// Adapters groups every outbound integration used by the services.
type Adapters struct {
	WechatWeb  WechatClient
	WechatMini WechatClient
	SMS        SMSSender
}

// NewAdapters builds the WeChat clients and the SMS sender from cfg.
// Integrations without credentials are still constructed and report
// [ErrDisabled] when used.
func NewAdapters(cfg config.Adapter, log *logger.Logger) (*Adapters, error) {
	web, err := NewWechatWebClient(cfg, log)
	if err != nil {
		return nil, err
	}
	mini, err := NewWechatMiniClient(cfg, log)
	if err != nil {
		return nil, err
	}
	sms, err := NewSMSSender(cfg, log)
	if err != nil {
		return nil, err
	}

	return &Adapters{WechatWeb: web, WechatMini: mini, SMS: sms}, nil
}
