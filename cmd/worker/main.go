// Package main - точка входа для фоновых процессов (Worker) Lentera LMS.
//
// Worker отвечает за периодические задачи:
// - Прогрев аналитического дашборда в Redis
// - Ежедневный отчёт по аналитике в вечернее время (WIB)
//
// Worker не поднимает HTTP API и может работать отдельно от сервера,
// разгружая его от тяжёлых пересчётов.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lentera-edu/lentera-lms-backend/config"
	"github.com/lentera-edu/lentera-lms-backend/internal/application/query"
	"github.com/lentera-edu/lentera-lms-backend/internal/infrastructure/messaging"
	"github.com/lentera-edu/lentera-lms-backend/internal/infrastructure/persistence/postgres"
	"github.com/lentera-edu/lentera-lms-backend/internal/infrastructure/persistence/redis"
	"github.com/lentera-edu/lentera-lms-backend/internal/infrastructure/scheduler"
	"github.com/lentera-edu/lentera-lms-backend/internal/infrastructure/scheduler/jobs"
	"github.com/lentera-edu/lentera-lms-backend/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	log := logger.New(opts)

	log.Info("starting Lentera LMS worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("timezone", cfg.App.Timezone),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	// Worker не гоняет миграции: схемой владеет API-сервер.

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS И КЕШ ДАШБОРДА
	// ─────────────────────────────────────────────────────────────────────────
	var dashboardCache query.DashboardCache

	if !cfg.Redis.Disabled && cfg.Redis.URL != "" {
		log.Info("connecting to Redis")
		redisCache, err := redis.NewCacheFromURL(cfg.Redis.URL)
		if err != nil {
			log.Warn("failed to connect to Redis, warm job will only log results", logger.Err(err))
		} else {
			defer redisCache.Close()
			if cfg.Features.IsEnabled(config.FeatureAnalyticsDashboardCache) {
				dashboardCache = redis.NewAnalyticsCache(redisCache, cfg.Analytics.DashboardCacheTTL, log)
			}
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. APPLICATION LAYER И ШИНА СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	catalogRepo := postgres.NewCatalogRepository(dbConn)
	resultRepo := postgres.NewResultRepository(dbConn)
	userRepo := postgres.NewUserRepository(dbConn)

	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() { _ = eventBus.Close() }()

	if cfg.App.Debug {
		if err := eventBus.SubscribeAll(messaging.NewAuditLogHandler(log)); err != nil {
			return fmt.Errorf("failed to subscribe audit handler: %w", err)
		}
	}

	publisher := messaging.NewPublisher(eventBus)
	adminAnalyticsQuery := query.NewGetAdminAnalyticsHandler(resultRepo, catalogRepo, userRepo, dashboardCache, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{
		Timezone:          cfg.App.Location,
		JobTimeout:        cfg.Scheduler.JobTimeout,
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		Logger:            log,
	})

	if cfg.Features.IsEnabled(config.FeatureAnalyticsWarmJob) {
		warmJob := jobs.NewDashboardWarmJob(adminAnalyticsQuery, publisher, log)
		if err := sched.AddIntervalJob(warmJob, cfg.Scheduler.DashboardWarmInterval); err != nil {
			return fmt.Errorf("failed to schedule dashboard warm job: %w", err)
		}
	}

	reportJob := jobs.NewDailyReportJob(adminAnalyticsQuery, log)
	if err := sched.AddDailyJob(reportJob, cfg.Scheduler.DailyReportHour, cfg.Scheduler.DailyReportMinute); err != nil {
		return fmt.Errorf("failed to schedule daily report job: %w", err)
	}

	sched.Start()
	log.Info("worker is running")

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("stopping scheduler")
	sched.Stop()
	log.Info("shutdown completed")

	return nil
}
