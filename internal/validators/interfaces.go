// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks user records and one-time-code requests before
// they reach the auth engine. Each failure is one of the sentinel errors in
// errors.go so callers can map it to an invalid-data response.
package validators

import "context"

// Validator validates a value. When fields are given only those fields are
// checked, which is how partial user updates are validated.
type Validator interface {
	Validate(ctx context.Context, value any, fields ...string) error
}
