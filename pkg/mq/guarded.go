package mq

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"todoboard/pkg/circuitbreaker"
	"todoboard/pkg/metrics"
)

type EventSender interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// GuardedPublisher stops publishing while the broker keeps failing, so a
// dead broker costs writes one fast rejection instead of a timeout each.
type GuardedPublisher struct {
	next    EventSender
	breaker *circuitbreaker.Breaker
	logger  *zap.Logger
}

func NewGuardedPublisher(next EventSender, breaker *circuitbreaker.Breaker, logger *zap.Logger) *GuardedPublisher {
	return &GuardedPublisher{next: next, breaker: breaker, logger: logger}
}

func (g *GuardedPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	err := g.breaker.Do(func() error {
		return g.next.Publish(ctx, routingKey, payload)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		metrics.IncrementEventPublish(routingKey, "rejected")
		g.logger.Debug("Event dropped, broker circuit open", zap.String("routing_key", routingKey))
	}
	return err
}

type connectionStatus interface {
	IsConnected() bool
}

// IsConnected is false while the breaker is open or the wrapped publisher
// has lost its connection. Readiness uses it.
func (g *GuardedPublisher) IsConnected() bool {
	if g.breaker.State() == circuitbreaker.StateOpen {
		return false
	}
	if c, ok := g.next.(connectionStatus); ok {
		return c.IsConnected()
	}
	return true
}
