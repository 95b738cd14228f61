// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared application-layer constants used across the
// go-auth-keeper services and handlers.
//
// All Msg* constants are human-readable message strings written into HTTP
// response bodies next to a stable error code. They are safe to show to end
// users: none of them reveals which part of a credential was wrong.
package app

const (
	// MsgInvalidDataProvided is returned when the request body cannot be
	// decoded or fails validation (e.g. missing required fields).
	MsgInvalidDataProvided = "invalid data provided"

	// MsgInvalidCredentials is returned for a wrong identifier, password or
	// one-time code.
	MsgInvalidCredentials = "invalid credentials"

	// MsgInvalidToken is returned when an access token is missing, malformed,
	// expired or no longer tied to a live session.
	MsgInvalidToken = "token is expired or invalid"

	// MsgInvalidRefreshToken is returned when a refresh token is unknown or
	// its session is gone.
	MsgInvalidRefreshToken = "refresh token is expired or invalid"

	MsgUserNotFound = "user not found"

	// MsgConflict is returned when an identifying attribute (username, phone,
	// email, WeChat open id) already belongs to another user.
	MsgConflict = "user with the same identifier already exists"

	// MsgUnauthorized is returned when the caller is authenticated but not
	// allowed to perform the operation (disabled account, foreign department).
	MsgUnauthorized = "operation is not permitted"

	MsgSessionExpired = "session is expired"

	// MsgTooManyRequests is returned when a one-time code cannot be sent yet.
	MsgTooManyRequests = "code was sent recently, try again later"

	// MsgInternalServerError is returned when an unexpected server-side
	// failure occurs and the failed operation is unknown.
	MsgInternalServerError = "internal server error"

	// MsgVersionIsNotSpecified is returned when the service is started
	// without a version string.
	MsgVersionIsNotSpecified = "version is not specified"
)
