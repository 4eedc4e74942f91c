package optimizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/platform/logging"
	"route-planning-service/internal/platform/obs"
	"route-planning-service/internal/ports"

	gobreaker "github.com/sony/gobreaker/v2"
)

var _ ports.Optimizer = (*BreakerOptimizer)(nil)

// BreakerOptimizer fails fast while the wrapped optimizer keeps failing.
// It never re-issues a request.
type BreakerOptimizer struct {
	next ports.Optimizer
	cb   *gobreaker.CircuitBreaker[*ports.OptimizeResult]
}

type BreakerConfig struct {
	Name string
	// Consecutive failures that open the circuit.
	MaxFailures uint32
	// Time spent open before a half-open probe.
	Cooldown time.Duration
}

func NewBreakerOptimizer(next ports.Optimizer, cfg BreakerConfig) *BreakerOptimizer {
	if cfg.Name == "" {
		cfg.Name = "optimizer"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}

	obs.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*ports.OptimizeResult](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// A caller abandoning its request says nothing about optimizer health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			obs.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})

	return &BreakerOptimizer{next: next, cb: cb}
}

func (b *BreakerOptimizer) Optimize(
	ctx context.Context,
	points []domain.LatLng,
	mode ports.OptimizeMode,
) (*ports.OptimizeResult, error) {
	res, err := b.cb.Execute(func() (*ports.OptimizeResult, error) {
		return b.next.Optimize(ctx, points, mode)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("optimize %s: %w: %w", mode, domain.ErrOptimizationFailure, err)
	}
	return res, err
}

// State reports the current breaker state.
func (b *BreakerOptimizer) State() gobreaker.State { return b.cb.State() }

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
