package workers

import (
	"context"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/service"
)

type Workers struct {
	workers []Worker
}

// NewWorkers returns the workers the server needs: today only the seed user
// provisioning.
func NewWorkers(services *service.Services, logger *logger.Logger) *Workers {
	return &Workers{
		workers: []Worker{
			NewSeedUsersWorker(services.AuthService, logger),
		},
	}
}

// Run starts every worker in registration order.
func (w *Workers) Run(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Run(ctx)
	}
}
