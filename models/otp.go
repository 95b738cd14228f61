package models

import "time"

// OTP purposes.
const (
	OtpPurposeLogin = "login"
)

// Reasons reported by OtpSendCheck when sending is not allowed.
const (
	OtpReasonBlacklisted = "blacklisted"
	OtpReasonTooFrequent = "too_frequent"
)

// OtpSendCheck is the result of asking whether a code may be sent.
type OtpSendCheck struct {
	Allowed           bool   `json:"allowed"`
	Reason            string `json:"reason,omitempty"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
}

// OtpCode is a stored one-time code.
type OtpCode struct {
	Code      string    `json:"code"`
	Purpose   string    `json:"purpose"`
	ExpiresAt time.Time `json:"expires_at"`
}
