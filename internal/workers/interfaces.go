// Package workers runs the one-off and background jobs that accompany the
// HTTP server, such as provisioning seed users at startup.
package workers

import "context"

// Worker is a unit of background work started by [Workers.Run].
//
// Implementations either finish their job before returning or spawn
// goroutines that stop when ctx is cancelled.
type Worker interface {
	Run(ctx context.Context)
}

// Initializer is the part of the auth engine needed by the seed worker.
type Initializer interface {
	Initialize(ctx context.Context) error
}
