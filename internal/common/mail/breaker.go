package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/metrics"
)

// BreakerConfig controls when a mail transport is considered down.
type BreakerConfig struct {
	// Name labels the breaker in logs and metrics, one per dispatch kind.
	Name             string
	FailureThreshold uint
	Delay            time.Duration
}

// BreakerMailer fails fast while the wrapped transport keeps failing. Only
// ErrTransport failures count; a rejected recipient is recorded as a success.
type BreakerMailer struct {
	next Mailer
	cb   circuitbreaker.CircuitBreaker[any]
}

var _ Mailer = (*BreakerMailer)(nil)

func NewBreakerMailer(next Mailer, cfg BreakerConfig, log logger.Logger) *BreakerMailer {
	if cfg.Name == "" {
		cfg.Name = "mail"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Delay == 0 {
		cfg.Delay = 30 * time.Second
	}

	cb := circuitbreaker.Builder[any]().
		WithFailureThreshold(cfg.FailureThreshold).
		WithDelay(cfg.Delay).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			log.Warn("Mail circuit breaker state changed", map[string]interface{}{
				"component": cfg.Name,
				"from":      e.OldState.String(),
				"to":        e.NewState.String(),
			})
			metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(stateToFloat(e.NewState))
		}).
		Build()

	return &BreakerMailer{next: next, cb: cb}
}

func (b *BreakerMailer) Send(ctx context.Context, msg *Message) error {
	if !b.cb.TryAcquirePermit() {
		return fmt.Errorf("mail circuit breaker open: %w", circuitbreaker.ErrOpen)
	}
	err := b.next.Send(ctx, msg)
	if errors.Is(err, ErrTransport) {
		b.cb.RecordError(err)
		return err
	}
	b.cb.RecordSuccess()
	return err
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}
