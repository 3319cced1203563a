package registry

import (
	"log/slog"
	"time"

	"studioreg/internal/platform/metrics"
	"studioreg/internal/registry/handler"
	"studioreg/internal/registry/models"
	"studioreg/internal/registry/service"
	"studioreg/internal/registry/store"
)

// Service exposes registry orchestration.
type Service = service.Service

// Handler wires HTTP endpoints to the registry service.
type Handler = handler.Handler

// NewService constructs a registry service over a fresh in-memory registry
// owned by initialAdmin. A zero lockTimeout keeps the store default.
func NewService(initialAdmin models.Principal, lockTimeout time.Duration, opts ...service.Option) (*Service, error) {
	var storeOpts []store.Option
	if lockTimeout > 0 {
		storeOpts = append(storeOpts, store.WithTimeout(lockTimeout))
	}
	return service.New(store.NewInMemory(initialAdmin, storeOpts...), opts...)
}

// NewHandler constructs an HTTP handler for the registry routes.
func NewHandler(s *Service, logger *slog.Logger, m *metrics.Metrics, opts ...handler.Option) *Handler {
	return handler.New(s, logger, m, opts...)
}
