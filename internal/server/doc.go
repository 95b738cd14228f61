// Package server runs the HTTP transport until a termination signal
// arrives and then shuts it down gracefully.
package server
