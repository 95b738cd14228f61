package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/MKhiriev/go-auth-keeper/internal/adapter"
	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/crypto"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/store"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// otpCodeDigits is the length of generated one-time codes.
const otpCodeDigits = 6

type otpService struct {
	otpStore  store.OtpStore
	smsSender adapter.SMSSender

	codeTTL        time.Duration
	resendInterval time.Duration

	now    func() time.Time
	logger *logger.Logger
}

// NewOtpService builds an OtpService. smsSender may be nil, in which case
// codes for phone numbers are stored but not delivered.
func NewOtpService(otpStore store.OtpStore, smsSender adapter.SMSSender, cfg config.App, logger *logger.Logger) OtpService {
	o := &otpService{
		otpStore:       otpStore,
		smsSender:      smsSender,
		codeTTL:        cfg.OtpCodeTTL,
		resendInterval: cfg.OtpResendInterval,
		now:            time.Now,
		logger:         logger,
	}
	if o.codeTTL <= 0 {
		o.codeTTL = config.DefaultOtpCodeTTL
	}
	if o.resendInterval <= 0 {
		o.resendInterval = config.DefaultOtpResendInterval
	}
	return o
}

// CanSend checks the blacklist first and the resend interval second.
func (o *otpService) CanSend(ctx context.Context, identifier, purpose string) (models.OtpSendCheck, error) {
	banned, err := o.otpStore.BlacklistTTL(ctx, identifier)
	if err != nil {
		return models.OtpSendCheck{}, infraError("check one-time code", err)
	}
	if banned > 0 {
		return models.OtpSendCheck{
			Allowed:           false,
			Reason:            models.OtpReasonBlacklisted,
			RetryAfterSeconds: ceilSeconds(banned),
		}, nil
	}

	lastSent, err := o.otpStore.LastSent(ctx, identifier, purpose)
	if err != nil {
		return models.OtpSendCheck{}, infraError("check one-time code", err)
	}
	if !lastSent.IsZero() {
		if wait := lastSent.Add(o.resendInterval).Sub(o.now()); wait > 0 {
			return models.OtpSendCheck{
				Allowed:           false,
				Reason:            models.OtpReasonTooFrequent,
				RetryAfterSeconds: ceilSeconds(wait),
			}, nil
		}
	}

	return models.OtpSendCheck{Allowed: true}, nil
}

func (o *otpService) Store(ctx context.Context, identifier, code, purpose string, expiresAt time.Time) error {
	if !expiresAt.After(o.now()) {
		return invalidData(store.ErrInvalidExpiry)
	}

	err := o.otpStore.SaveCode(ctx, identifier, models.OtpCode{
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: expiresAt,
	}, o.resendInterval)
	if err != nil {
		return infraError("store one-time code", err)
	}

	return nil
}

func (o *otpService) Validate(ctx context.Context, identifier, code, purpose string) (bool, error) {
	if identifier == "" || code == "" {
		return false, nil
	}

	ok, err := o.otpStore.ConsumeCode(ctx, identifier, code, purpose)
	if err != nil {
		return false, infraError("validate one-time code", err)
	}

	return ok, nil
}

func (o *otpService) RequestCode(ctx context.Context, identifier, purpose string) (models.OtpSendCheck, string, error) {
	log := logger.FromContext(ctx)

	check, err := o.CanSend(ctx, identifier, purpose)
	if err != nil {
		otpRequestsTotal.WithLabelValues(resultError).Inc()
		return models.OtpSendCheck{}, "", err
	}
	if !check.Allowed {
		otpRequestsTotal.WithLabelValues(check.Reason).Inc()
		return check, "", nil
	}

	code, err := crypto.NewNumericCode(otpCodeDigits)
	if err != nil {
		otpRequestsTotal.WithLabelValues(resultError).Inc()
		return models.OtpSendCheck{}, "", infraError("generate one-time code", err)
	}

	if err = o.Store(ctx, identifier, code, purpose, o.now().Add(o.codeTTL)); err != nil {
		otpRequestsTotal.WithLabelValues(resultError).Inc()
		return models.OtpSendCheck{}, "", err
	}

	if isPhone(identifier) && o.smsSender != nil {
		if err = o.SendSms(ctx, identifier, codeMessage(code, o.codeTTL)); err != nil {
			log.Err(err).Str("func", "*otpService.RequestCode").Msg("error delivering one-time code")
			otpRequestsTotal.WithLabelValues(resultError).Inc()
			return models.OtpSendCheck{}, "", err
		}
	}

	otpRequestsTotal.WithLabelValues(resultSuccess).Inc()
	return check, code, nil
}

func (o *otpService) Blacklist(ctx context.Context, identifier string, duration time.Duration) error {
	if duration <= 0 {
		return invalidData(fmt.Errorf("blacklist duration must be positive, got %s", duration))
	}

	if err := o.otpStore.Blacklist(ctx, identifier, duration); err != nil {
		return infraError("blacklist one-time code target", err)
	}

	return nil
}

func (o *otpService) SendSms(ctx context.Context, phone, content string) error {
	if o.smsSender == nil {
		return infraError("send sms", adapter.ErrDisabled)
	}

	if err := o.smsSender.Send(ctx, phone, content); err != nil {
		return infraError("send sms", err)
	}

	return nil
}

func isPhone(identifier string) bool {
	return identifier != "" && !strings.Contains(identifier, "@")
}

func codeMessage(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(math.Ceil(ttl.Minutes())))
}

func ceilSeconds(d time.Duration) int64 {
	return int64(math.Ceil(d.Seconds()))
}
