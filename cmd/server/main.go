// Package main - точка входа для API-сервера Lentera LMS.
//
// Сервер отдаёт аналитический дашборд, персональную аналитику студентов,
// навигационный прогресс по модулям и принимает результаты тестов.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: Postgres, Redis, шина событий, планировщик
// - Interface: HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lentera-edu/lentera-lms-backend/config"
	"github.com/lentera-edu/lentera-lms-backend/internal/application/command"
	"github.com/lentera-edu/lentera-lms-backend/internal/application/query"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
	"github.com/lentera-edu/lentera-lms-backend/internal/infrastructure/messaging"
	"github.com/lentera-edu/lentera-lms-backend/internal/infrastructure/persistence/postgres"
	"github.com/lentera-edu/lentera-lms-backend/internal/infrastructure/persistence/redis"
	"github.com/lentera-edu/lentera-lms-backend/internal/infrastructure/scheduler"
	"github.com/lentera-edu/lentera-lms-backend/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/lentera-edu/lentera-lms-backend/internal/interface/http"
	"github.com/lentera-edu/lentera-lms-backend/internal/interface/http/handlers"
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
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Lentera LMS backend",
		logger.String("env", string(cfg.App.Environment)),
		logger.Bool("debug", cfg.App.Debug),
		logger.String("timezone", cfg.App.Timezone),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.AutoMigrate {
		log.Info("running database migrations")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		status, err := migrator.Status(ctx)
		if err != nil {
			log.Warn("failed to get migration status", logger.Err(err))
		} else {
			appliedCount := 0
			for _, m := range status {
				if m.IsApplied {
					appliedCount++
				}
			}
			log.Info("migrations completed",
				logger.Int("applied", appliedCount),
				logger.Int("total", len(status)),
			)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var analyticsCache *redis.AnalyticsCache
	var dashboardCache query.DashboardCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis")
		redisCache, err = connectRedis(cfg)
		if err != nil {
			// Кеш не критичен: дашборд считается напрямую из Postgres.
			log.Warn("failed to connect to Redis, dashboard caching disabled", logger.Err(err))
		} else {
			defer redisCache.Close()
			if cfg.Features.IsEnabled(config.FeatureAnalyticsDashboardCache) {
				analyticsCache = redis.NewAnalyticsCache(redisCache, cfg.Analytics.DashboardCacheTTL, log)
				dashboardCache = analyticsCache
			}
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories")
	catalogRepo := postgres.NewCatalogRepository(dbConn)
	resultRepo := postgres.NewResultRepository(dbConn)
	userRepo := postgres.NewUserRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus")
		_ = eventBus.Close()
	}()

	publisher := messaging.NewPublisher(eventBus)

	// Записанный результат делает закешированный дашборд устаревшим.
	if analyticsCache != nil {
		invalidator := messaging.NewCacheInvalidationHandler(analyticsCache, 0, log)
		if err := eventBus.Subscribe(shared.EventResultRecorded, invalidator); err != nil {
			return fmt.Errorf("failed to subscribe cache invalidation handler: %w", err)
		}
		if err := eventBus.Subscribe(shared.EventTopicCompleted, invalidator); err != nil {
			return fmt.Errorf("failed to subscribe cache invalidation handler: %w", err)
		}
	}
	if cfg.App.Debug {
		if err := eventBus.SubscribeAll(messaging.NewAuditLogHandler(log)); err != nil {
			return fmt.Errorf("failed to subscribe audit handler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer")

	adminAnalyticsQuery := query.NewGetAdminAnalyticsHandler(resultRepo, catalogRepo, userRepo, dashboardCache, log)
	studentAnalyticsQuery := query.NewGetStudentAnalyticsHandler(resultRepo, catalogRepo, userRepo)
	moduleProgressQuery := query.NewGetModuleProgressHandler(catalogRepo, userRepo)
	recordResultCmd := command.NewRecordTestResultHandler(resultRepo, catalogRepo, userRepo, publisher, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HEALTH CHECKER
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("postgres", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("redis", handlers.NewCacheCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server")

	httpConfig := httpserver.ConfigFromApp(cfg.HTTP)
	httpDeps := httpserver.Dependencies{
		GetAdminAnalyticsHandler:   adminAnalyticsQuery,
		GetStudentAnalyticsHandler: studentAnalyticsQuery,
		GetModuleProgressHandler:   moduleProgressQuery,
		RecordTestResultHandler:    recordResultCmd,
		Logger:                     log,
		HealthChecker:              healthChecker,
		Flags:                      cfg.Features,
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. ПЛАНИРОВЩИК ФОНОВЫХ ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		log.Info("initializing scheduler")
		sched = scheduler.New(scheduler.Config{
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
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. ЗАПУСК СЕРВИСОВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("starting services")

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	if sched != nil {
		sched.Start()
	}

	log.Info("Lentera LMS backend is running",
		logger.String("http_address", httpServer.Address()),
		logger.Bool("scheduler", sched != nil),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 13. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown", logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	// 1. Останавливаем планировщик (дожидаемся текущих задач)
	if sched != nil {
		log.Info("stopping scheduler")
		sched.Stop()
	}

	// 2. Останавливаем HTTP сервер
	log.Info("stopping HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		shutdownErr = err
	}

	// 3. Event bus и база данных закроются через defer

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
	} else {
		log.Info("shutdown completed successfully")
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}

// connectRedis создаёт клиент Redis из URL или отдельных настроек.
func connectRedis(cfg *config.Config) (*redis.Cache, error) {
	if cfg.Redis.URL != "" {
		return redis.NewCacheFromURL(cfg.Redis.URL)
	}

	redisCfg := redis.DefaultConfig()
	if cfg.Redis.Host != "" {
		redisCfg.Host = cfg.Redis.Host
	}
	if cfg.Redis.Port != 0 {
		redisCfg.Port = cfg.Redis.Port
	}
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	if cfg.Redis.PoolSize > 0 {
		redisCfg.PoolSize = cfg.Redis.PoolSize
	}
	if cfg.Redis.MinIdleConns > 0 {
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	}
	if cfg.Redis.DialTimeout > 0 {
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
	}
	if cfg.Redis.ReadTimeout > 0 {
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	}
	if cfg.Redis.WriteTimeout > 0 {
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout
	}

	return redis.NewCache(redisCfg)
}
