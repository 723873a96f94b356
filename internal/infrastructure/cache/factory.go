package cache

import (
	"fmt"

	"github.com/tradecraft/backend/internal/domain/shared"
	"github.com/tradecraft/backend/internal/infrastructure/config"
)

// NewIdempotencyStore builds the idempotency store selected by configuration.
// "memory" works for single-instance deployments; "redis" shares state across
// replicas.
func NewIdempotencyStore(cfg *config.Config) (shared.IdempotencyStore, error) {
	switch cfg.Event.IdempotencyBackend {
	case "memory":
		return NewInMemoryIdempotencyStore(), nil
	case "redis":
		return NewRedisIdempotencyStore(&cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown idempotency backend: %q", cfg.Event.IdempotencyBackend)
	}
}
