// Package jobs contains the background jobs run by the scheduler.
package jobs

import (
	"context"
	"time"

	"github.com/lentera-edu/lentera-lms-backend/internal/application/query"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
	"github.com/lentera-edu/lentera-lms-backend/pkg/logger"
)

// EventPublisher публикует доменные события из фоновых задач.
type EventPublisher interface {
	Publish(ctx context.Context, event shared.Event) error
}

// DashboardWarmJob периодически пересобирает админскую сводку и кладёт её в
// кеш. Благодаря этому первый запрос после истечения TTL не платит полную
// стоимость обхода журнала результатов.
type DashboardWarmJob struct {
	dashboard *query.GetAdminAnalyticsHandler
	events    EventPublisher
	log       *logger.Logger
}

// NewDashboardWarmJob создаёт задачу прогрева кеша.
func NewDashboardWarmJob(dashboard *query.GetAdminAnalyticsHandler, events EventPublisher, log *logger.Logger) *DashboardWarmJob {
	return &DashboardWarmJob{
		dashboard: dashboard,
		events:    events,
		log:       log,
	}
}

// Name implements scheduler.Job.
func (j *DashboardWarmJob) Name() string { return "dashboard-warm" }

// Description implements scheduler.Job.
func (j *DashboardWarmJob) Description() string {
	return "Recomputes the admin analytics dashboard and refreshes the Redis cache"
}

// Run implements scheduler.Job.
func (j *DashboardWarmJob) Run(ctx context.Context) error {
	start := time.Now()

	// ForceRefresh обходит кеш: пересчитываем из PostgreSQL и перезаписываем.
	result, err := j.dashboard.Handle(ctx, query.GetAdminAnalyticsQuery{ForceRefresh: true})
	if err != nil {
		return err
	}

	duration := time.Since(start)
	j.log.Debug("dashboard recomputed",
		logger.Int("total_users", result.TotalUsers),
		logger.Latency(duration),
	)

	if j.events != nil {
		event := shared.NewDashboardRefreshedEvent(duration)
		if pubErr := j.events.Publish(ctx, event); pubErr != nil {
			// Прогрев удался, событие не критично.
			j.log.Warn("failed to publish dashboard refresh event", logger.Err(pubErr))
		}
	}

	return nil
}
