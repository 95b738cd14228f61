package utils

import "github.com/google/uuid"

// NewTraceID returns a time-ordered (version 7) UUID so trace ids sort by
// arrival in log storage.
func NewTraceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

// NewOpaqueToken returns a random version 4 UUID. It carries no timestamp and
// is used for bearer secrets such as refresh tokens.
func NewOpaqueToken() string {
	return uuid.NewString()
}
