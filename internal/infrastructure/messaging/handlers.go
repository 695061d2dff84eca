// Package messaging implements the in-process event bus for the Lentera LMS backend.
package messaging

import (
	"context"
	"time"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
	"github.com/lentera-edu/lentera-lms-backend/pkg/logger"
)

// Publisher adapts the bus to the context-aware publish signature the
// application layer expects.
type Publisher struct {
	bus *InMemoryEventBus
}

// NewPublisher wraps an event bus.
func NewPublisher(bus *InMemoryEventBus) *Publisher {
	return &Publisher{bus: bus}
}

// Publish sends an event, respecting a cancelled context.
func (p *Publisher) Publish(ctx context.Context, event shared.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.bus.Publish(event)
}

// DashboardInvalidator drops a cached dashboard payload.
// Implemented by the Redis analytics cache.
type DashboardInvalidator interface {
	InvalidateDashboard(ctx context.Context) error
}

// NewCacheInvalidationHandler returns a handler that invalidates the admin
// dashboard cache whenever a new attempt lands in the result log. The next
// dashboard read then recomputes from PostgreSQL.
func NewCacheInvalidationHandler(cache DashboardInvalidator, timeout time.Duration, log *logger.Logger) shared.EventHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return shared.EventHandlerFunc{
		HandlerName: "dashboard-cache-invalidation",
		Fn: func(event shared.Event) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if err := cache.InvalidateDashboard(ctx); err != nil {
				return err
			}

			log.Debug("dashboard cache invalidated",
				logger.String("event_type", string(event.EventType())),
				logger.String("aggregate_id", event.AggregateID()),
			)
			return nil
		},
	}
}

// NewAuditLogHandler returns a handler that writes every domain event to the
// structured log as a JSON envelope. Subscribed to all event types.
func NewAuditLogHandler(log *logger.Logger) shared.EventHandler {
	return shared.EventHandlerFunc{
		HandlerName: "event-audit-log",
		Fn: func(event shared.Event) error {
			payload, err := shared.MarshalEvent(event)
			if err != nil {
				return err
			}

			log.Info("domain event",
				logger.String("event_type", string(event.EventType())),
				logger.String("aggregate_id", event.AggregateID()),
				logger.String("envelope", string(payload)),
			)
			return nil
		},
	}
}
