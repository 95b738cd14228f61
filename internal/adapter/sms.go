package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/utils"
)

type smsMessage struct {
	Phone   string `json:"phone"`
	Content string `json:"content"`
}

type httpSMSSender struct {
	client *utils.HTTPClient
	url    string
	apiKey string
	logger *logger.Logger
}

// NewSMSSender constructs an [SMSSender] posting JSON {phone, content} to
// cfg.SMSGatewayURL. When the URL is empty, the returned sender fails every
// Send with [ErrDisabled].
func NewSMSSender(cfg config.Adapter, log *logger.Logger) (SMSSender, error) {
	sender := &httpSMSSender{apiKey: strings.TrimSpace(cfg.SMSAPIKey), logger: log}
	if strings.TrimSpace(cfg.SMSGatewayURL) == "" {
		return sender, nil
	}

	gatewayURL, err := normalizeBaseURL(cfg.SMSGatewayURL)
	if err != nil {
		return nil, fmt.Errorf("invalid sms gateway url: %w", err)
	}
	client, err := newClient("", cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}

	sender.client = client
	sender.url = gatewayURL
	return sender, nil
}

// Send implements [SMSSender].
func (s *httpSMSSender) Send(ctx context.Context, phone, content string) error {
	if s.client == nil {
		return fmt.Errorf("sms gateway: %w", ErrDisabled)
	}

	req := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(smsMessage{Phone: phone, Content: content})
	if s.apiKey != "" {
		req.SetAuthToken(s.apiKey)
	}

	resp, err := req.Post(s.url)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		s.logger.Err(err).Str("func", "*httpSMSSender.Send").Msg("sms gateway refused the message")
		return err
	}

	return nil
}
