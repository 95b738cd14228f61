package http

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/service"
)

type Handler struct {
	services *service.Services
	metrics  prometheus.Gatherer

	logger *logger.Logger
}

// NewHandler builds the HTTP handler. metrics is served at /metrics; a nil
// gatherer falls back to the default prometheus registry.
func NewHandler(services *service.Services, metrics prometheus.Gatherer, logger *logger.Logger) *Handler {
	if metrics == nil {
		metrics = prometheus.DefaultGatherer
	}

	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		metrics:  metrics,
		logger:   logger,
	}
}
