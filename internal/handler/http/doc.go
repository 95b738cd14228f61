// Package http implements the REST surface of the auth engine.
//
// Routes are served by chi. Every request gets a trace id and an access log
// line; user management, department selection and session listing sit behind
// the bearer-session middleware. Failures are answered with
// [models.ErrorResponse] carrying the stable code from
// [service.ErrorCode].
package http
