package adapter

import "errors"

// Upstream HTTP failures, classified by status code.
var (
	// ErrUpstreamAuth means the upstream refused our own credentials
	// (app secret or gateway key), as opposed to the user's.
	ErrUpstreamAuth        = errors.New("upstream refused the integration credentials")
	ErrUpstreamRejected    = errors.New("upstream rejected the request")
	ErrRateLimited         = errors.New("upstream rate limit exceeded")
	ErrUpstreamUnavailable = errors.New("upstream is unavailable")
)

var (
	ErrDisabled         = errors.New("integration is not configured")
	ErrProviderRejected = errors.New("identity provider rejected the request")
	ErrEmptyOpenID      = errors.New("identity provider returned no open id")
)
