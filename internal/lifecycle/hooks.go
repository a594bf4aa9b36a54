// Package lifecycle coordinates probes and graceful shutdown of the vending service.
package lifecycle

import (
	"context"
	"errors"
)

// ErrDraining is reported by the readiness probe once shutdown has begun.
var ErrDraining = errors.New("service is shutting down")

// Hook describes a named shutdown hook.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}
