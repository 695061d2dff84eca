// Package jobs contains the background jobs run by the scheduler.
package jobs

import (
	"context"

	"github.com/lentera-edu/lentera-lms-backend/internal/application/query"
	"github.com/lentera-edu/lentera-lms-backend/pkg/logger"
	"github.com/lentera-edu/lentera-lms-backend/pkg/timeutil"
)

// DailyReportJob раз в сутки пишет в лог сводку платформы за день.
// Лёгкая замена email-рассылке: отчёт собирается из того же дашборда
// и попадает в систему логов, откуда его забирает дежурный.
type DailyReportJob struct {
	dashboard *query.GetAdminAnalyticsHandler
	log       *logger.Logger
}

// NewDailyReportJob создаёт задачу ежедневного отчёта.
func NewDailyReportJob(dashboard *query.GetAdminAnalyticsHandler, log *logger.Logger) *DailyReportJob {
	return &DailyReportJob{
		dashboard: dashboard,
		log:       log,
	}
}

// Name implements scheduler.Job.
func (j *DailyReportJob) Name() string { return "daily-analytics-report" }

// Description implements scheduler.Job.
func (j *DailyReportJob) Description() string {
	return "Writes the daily platform analytics summary to the structured log"
}

// Run implements scheduler.Job.
func (j *DailyReportJob) Run(ctx context.Context) error {
	result, err := j.dashboard.Handle(ctx, query.GetAdminAnalyticsQuery{})
	if err != nil {
		return err
	}

	fields := []logger.Field{
		logger.String("report_date", timeutil.FormatDateStr(timeutil.Now())),
		logger.Int("total_users", result.TotalUsers),
		logger.Int("total_study_hours", result.TotalStudyHours),
		logger.Float64("average_completion_rate", result.AverageCompletionRate),
		logger.Float64("average_topic_score", result.AverageTopicScore),
	}
	if result.HardestTopic != nil {
		fields = append(fields,
			logger.String("hardest_topic", result.HardestTopic.Title),
			logger.Float64("hardest_topic_score", result.HardestTopic.AverageScore),
		)
	}

	j.log.Info("daily analytics report", fields...)
	return nil
}
