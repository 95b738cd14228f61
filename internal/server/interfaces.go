package server

// Server is the process-level lifecycle of the auth API.
type Server interface {
	// RunServer serves until a termination signal and returns after the
	// graceful shutdown completes.
	RunServer()

	// Shutdown stops accepting connections and waits for in-flight
	// requests, bounded by a fixed timeout.
	Shutdown()
}
