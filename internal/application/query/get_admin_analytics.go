// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"time"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/analytics"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/catalog"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/progress"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/result"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
	"github.com/lentera-edu/lentera-lms-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ADMIN ANALYTICS QUERY
// Строит полную аналитическую сводку для админ-дашборда: глобальные метрики,
// таблицы сложности по модулям и темам, самая сложная тема.
// Весь лог событий читается один раз за запрос; движок не хранит состояния.
// ══════════════════════════════════════════════════════════════════════════════

// GetAdminAnalyticsQuery содержит параметры запроса сводки.
type GetAdminAnalyticsQuery struct {
	// ForceRefresh - пересчитать сводку, игнорируя кеш.
	ForceRefresh bool
}

// DifficultyDTO - баллы сложности одной сущности (модуля или темы).
type DifficultyDTO struct {
	// ScorePoints - баллы за средний результат (0 хорошо, 2 плохо).
	ScorePoints int `json:"score_points"`

	// TimePoints - баллы за среднее время относительно глобального базлайна.
	TimePoints int `json:"time_points"`

	// RemedialPoints - баллы за долю студентов ниже проходного порога.
	RemedialPoints int `json:"remedial_points"`

	// WeightedScore - итоговый взвешенный балл сложности в [0, 2].
	WeightedScore float64 `json:"weighted_score"`
}

// TopicAnalyticsDTO - строка аналитической таблицы по теме.
type TopicAnalyticsDTO struct {
	TopicID     string  `json:"topic_id"`
	ModuleID    string  `json:"module_id"`
	Title       string  `json:"title"`
	ModuleTitle string  `json:"module_title"`
	Order       int     `json:"order"`

	// AverageScore - средний последний результат по пользователям, 0-100.
	AverageScore float64 `json:"average_score"`

	// RemedialRate - процент пользователей с последним результатом ниже 70.
	RemedialRate float64 `json:"remedial_rate"`

	// AverageTimeSeconds - среднее время прохождения в секундах.
	AverageTimeSeconds float64 `json:"average_time_seconds"`

	// UserCount - количество пользователей с хотя бы одной попыткой.
	UserCount int `json:"user_count"`

	// AttemptCount - общее количество попыток.
	AttemptCount int `json:"attempt_count"`

	Difficulty DifficultyDTO `json:"difficulty"`
}

// ModuleAnalyticsDTO - строка аналитической таблицы по модулю.
// Метрики объединяют собственный пост-тест модуля и агрегат пост-тестов
// его тем; сторона без событий считается отсутствующей, а не нулевой.
type ModuleAnalyticsDTO struct {
	ModuleID string `json:"module_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Order    int    `json:"order"`

	AverageScore       float64 `json:"average_score"`
	RemedialRate       float64 `json:"remedial_rate"`
	AverageTimeSeconds float64 `json:"average_time_seconds"`
	UserCount          int     `json:"user_count"`
	AttemptCount       int     `json:"attempt_count"`

	Difficulty DifficultyDTO `json:"difficulty"`
}

// HardestTopicDTO - самая сложная тема платформы.
type HardestTopicDTO struct {
	TopicID      string  `json:"topic_id"`
	Title        string  `json:"title"`
	ModuleTitle  string  `json:"module_title"`
	AverageScore float64 `json:"average_score"`
	AttemptCount int     `json:"attempt_count"`
}

// GetAdminAnalyticsResult содержит полную сводку дашборда.
type GetAdminAnalyticsResult struct {
	// TotalStudyHours - суммарное время учебных сессий в часах (с округлением вниз).
	TotalStudyHours int `json:"total_study_hours"`

	// AverageCompletionRate - средний процент завершения тем по всем пользователям.
	AverageCompletionRate float64 `json:"average_completion_rate"`

	// AverageTopicScore - средний последний результат пост-теста темы по пользователям.
	AverageTopicScore float64 `json:"average_topic_score"`

	// TotalUsers - количество зарегистрированных пользователей.
	TotalUsers int `json:"total_users"`

	// HardestTopic - тема с минимальным средним последним результатом
	// (минимум 3 попытки; nil если ни одна тема не прошла порог).
	HardestTopic *HardestTopicDTO `json:"hardest_topic,omitempty"`

	// GlobalAverageTimeSeconds - базлайн времени текущего пересчёта.
	GlobalAverageTimeSeconds float64 `json:"global_average_time_seconds"`

	// Modules - таблица по модулям в порядке навигации.
	Modules []ModuleAnalyticsDTO `json:"modules"`

	// Topics - таблица по темам в порядке навигации.
	Topics []TopicAnalyticsDTO `json:"topics"`

	// GeneratedAt - время генерации сводки.
	GeneratedAt time.Time `json:"generated_at"`
}

// DashboardCache кеширует собранную сводку. Реализация - Redis; nil допустим.
type DashboardCache interface {
	// GetDashboard возвращает закешированную сводку или ошибку промаха.
	GetDashboard(ctx context.Context) (*GetAdminAnalyticsResult, error)

	// SetDashboard сохраняет сводку с TTL.
	SetDashboard(ctx context.Context, r *GetAdminAnalyticsResult) error

	// InvalidateDashboard сбрасывает кеш (после новой попытки теста).
	InvalidateDashboard(ctx context.Context) error
}

// GetAdminAnalyticsHandler обрабатывает запросы админ-сводки.
type GetAdminAnalyticsHandler struct {
	resultRepo  result.Repository
	catalogRepo catalog.Repository
	userRepo    progress.Repository
	cache       DashboardCache
	log         *logger.Logger
}

// NewGetAdminAnalyticsHandler создаёт новый обработчик админ-сводки.
func NewGetAdminAnalyticsHandler(
	resultRepo result.Repository,
	catalogRepo catalog.Repository,
	userRepo progress.Repository,
	cache DashboardCache,
	log *logger.Logger,
) *GetAdminAnalyticsHandler {
	return &GetAdminAnalyticsHandler{
		resultRepo:  resultRepo,
		catalogRepo: catalogRepo,
		userRepo:    userRepo,
		cache:       cache,
		log:         log,
	}
}

// Handle выполняет запрос сводки. Любая ошибка под-агрегации прерывает весь
// ответ: частично неверная аналитика хуже отсутствующей.
func (h *GetAdminAnalyticsHandler) Handle(ctx context.Context, q GetAdminAnalyticsQuery) (*GetAdminAnalyticsResult, error) {
	if h.cache != nil && !q.ForceRefresh {
		if cached, err := h.cache.GetDashboard(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	res, err := h.compute(ctx)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.SetDashboard(ctx, res); err != nil {
			// Кеш не критичен: логируем и отдаём свежий результат.
			h.log.Warn("failed to cache dashboard", logger.Err(err))
		}
	}
	return res, nil
}

// compute пересчитывает сводку с нуля по логу событий и каталогу.
func (h *GetAdminAnalyticsHandler) compute(ctx context.Context) (*GetAdminAnalyticsResult, error) {
	modules, err := h.catalogRepo.ListModules(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetAdminAnalytics", shared.ErrExternalService, "failed to list modules", err)
	}
	topics, err := h.catalogRepo.ListAllTopics(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetAdminAnalytics", shared.ErrExternalService, "failed to list topics", err)
	}

	postTests, err := h.resultRepo.Query(ctx, result.Filter{
		TestTypes: []result.TestType{result.TestTypePostTestModule, result.TestTypePostTestTopic},
	})
	if err != nil {
		return nil, shared.WrapError("query", "GetAdminAnalytics", shared.ErrExternalService, "failed to query post-test events", err)
	}

	studySeconds, err := h.resultRepo.SumStudyTimeSeconds(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetAdminAnalytics", shared.ErrExternalService, "failed to sum study time", err)
	}

	totalUsers, err := h.userRepo.CountUsers(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetAdminAnalytics", shared.ErrExternalService, "failed to count users", err)
	}

	completionRate, err := h.averageCompletionRate(ctx, len(topics), totalUsers)
	if err != nil {
		return nil, err
	}

	// Один базлайн на весь пересчёт: все пост-тесты, темы и модули вместе.
	baseline := analytics.GlobalAverageTime(postTests)

	topicEvents, moduleEvents := splitPostTests(postTests)

	topicsTable, topicMetrics := h.buildTopicsTable(modules, topics, topicEvents, baseline)
	modulesTable := h.buildModulesTable(modules, topics, moduleEvents, topicEvents, baseline)

	return &GetAdminAnalyticsResult{
		TotalStudyHours:          int(studySeconds / 3600),
		AverageCompletionRate:    completionRate,
		AverageTopicScore:        averageLatestTopicScore(topicEvents),
		TotalUsers:               totalUsers,
		HardestTopic:             hardestTopic(topics, modules, topicMetrics),
		GlobalAverageTimeSeconds: baseline,
		Modules:                  modulesTable,
		Topics:                   topicsTable,
		GeneratedAt:              time.Now().UTC(),
	}, nil
}

// splitPostTests раскладывает пост-тесты по сущностям: темы и модули отдельно.
func splitPostTests(events []*result.TestResult) (byTopic map[shared.TopicID][]*result.TestResult, byModule map[shared.ModuleID][]*result.TestResult) {
	byTopic = make(map[shared.TopicID][]*result.TestResult)
	byModule = make(map[shared.ModuleID][]*result.TestResult)
	for _, ev := range events {
		switch ev.TestType {
		case result.TestTypePostTestTopic:
			if ev.TopicID != "" {
				byTopic[ev.TopicID] = append(byTopic[ev.TopicID], ev)
			}
		case result.TestTypePostTestModule:
			if ev.ModuleID != "" {
				byModule[ev.ModuleID] = append(byModule[ev.ModuleID], ev)
			}
		}
	}
	return byTopic, byModule
}

// buildTopicsTable собирает таблицу тем; каждая тема каталога присутствует,
// даже без единой попытки (тогда все метрики нулевые).
func (h *GetAdminAnalyticsHandler) buildTopicsTable(
	modules []*catalog.Module,
	topics []*catalog.Topic,
	topicEvents map[shared.TopicID][]*result.TestResult,
	baseline float64,
) ([]TopicAnalyticsDTO, map[shared.TopicID]analytics.EntityMetrics) {
	moduleTitles := make(map[shared.ModuleID]string, len(modules))
	for _, m := range modules {
		moduleTitles[m.ID] = m.Title
	}

	table := make([]TopicAnalyticsDTO, 0, len(topics))
	metricsByTopic := make(map[shared.TopicID]analytics.EntityMetrics, len(topics))

	for _, t := range topics {
		reduced := analytics.ReduceLatestPerUser(topicEvents[t.ID])
		metrics := analytics.ComputeMetrics(reduced)
		metricsByTopic[t.ID] = metrics

		table = append(table, TopicAnalyticsDTO{
			TopicID:            t.ID.String(),
			ModuleID:           t.ModuleID.String(),
			Title:              t.Title,
			ModuleTitle:        moduleTitles[t.ModuleID],
			Order:              t.Order,
			AverageScore:       metrics.AverageScore,
			RemedialRate:       metrics.RemedialRate,
			AverageTimeSeconds: metrics.AverageTimeSeconds,
			UserCount:          metrics.UserCount,
			AttemptCount:       metrics.AttemptCount,
			Difficulty:         toDifficultyDTO(analytics.ScoreDifficulty(metrics, baseline)),
		})
	}
	return table, metricsByTopic
}

// buildModulesTable собирает таблицу модулей, объединяя собственные
// пост-тесты модуля с агрегатом пост-тестов его тем.
func (h *GetAdminAnalyticsHandler) buildModulesTable(
	modules []*catalog.Module,
	topics []*catalog.Topic,
	moduleEvents map[shared.ModuleID][]*result.TestResult,
	topicEvents map[shared.TopicID][]*result.TestResult,
	baseline float64,
) []ModuleAnalyticsDTO {
	topicsByModule := catalog.GroupTopicsByModule(topics)

	table := make([]ModuleAnalyticsDTO, 0, len(modules))
	for _, m := range modules {
		own := analytics.ComputeMetrics(analytics.ReduceLatestPerUser(moduleEvents[m.ID]))

		var moduleTopicEvents []*result.TestResult
		for _, t := range topicsByModule[m.ID] {
			moduleTopicEvents = append(moduleTopicEvents, topicEvents[t.ID]...)
		}
		topicsAgg := analytics.ComputeMetrics(analytics.ReduceLatestPerUser(moduleTopicEvents))

		metrics := analytics.CombineModuleMetrics(own, topicsAgg)

		table = append(table, ModuleAnalyticsDTO{
			ModuleID:           m.ID.String(),
			Title:              m.Title,
			Category:           m.Category.String(),
			Order:              m.Order,
			AverageScore:       metrics.AverageScore,
			RemedialRate:       metrics.RemedialRate,
			AverageTimeSeconds: metrics.AverageTimeSeconds,
			UserCount:          metrics.UserCount,
			AttemptCount:       metrics.AttemptCount,
			Difficulty:         toDifficultyDTO(analytics.ScoreDifficulty(metrics, baseline)),
		})
	}
	return table
}

// hardestTopic выбирает тему с минимальным средним последним результатом
// среди тем с достаточным количеством попыток. Темы с разреженными данными
// остаются в общей таблице, но не участвуют в рейтинге.
func hardestTopic(
	topics []*catalog.Topic,
	modules []*catalog.Module,
	metricsByTopic map[shared.TopicID]analytics.EntityMetrics,
) *HardestTopicDTO {
	moduleTitles := make(map[shared.ModuleID]string, len(modules))
	for _, m := range modules {
		moduleTitles[m.ID] = m.Title
	}

	var hardest *HardestTopicDTO
	for _, t := range topics {
		m := metricsByTopic[t.ID]
		if m.AttemptCount < analytics.MinAttemptsForHardest {
			continue
		}
		if hardest == nil || m.AverageScore < hardest.AverageScore {
			hardest = &HardestTopicDTO{
				TopicID:      t.ID.String(),
				Title:        t.Title,
				ModuleTitle:  moduleTitles[t.ModuleID],
				AverageScore: m.AverageScore,
				AttemptCount: m.AttemptCount,
			}
		}
	}
	return hardest
}

// averageCompletionRate считает средний процент завершения по всем
// пользователям: каждому пользователю - его доля завершённых тем.
func (h *GetAdminAnalyticsHandler) averageCompletionRate(ctx context.Context, totalTopics, totalUsers int) (float64, error) {
	if totalUsers == 0 || totalTopics == 0 {
		return 0, nil
	}

	counts, err := h.userRepo.CountCompletionsByUser(ctx)
	if err != nil {
		return 0, shared.WrapError("query", "GetAdminAnalytics", shared.ErrExternalService, "failed to count completions", err)
	}

	var sum float64
	for _, completed := range counts {
		sum += float64(completed) / float64(totalTopics) * 100
	}
	// Пользователи без единого завершения отсутствуют в counts и дают 0 в сумму.
	return sum / float64(totalUsers), nil
}

// averageLatestTopicScore - средний последний результат пост-теста темы:
// один вклад на пользователя, его самая свежая попытка среди всех тем.
func averageLatestTopicScore(topicEvents map[shared.TopicID][]*result.TestResult) float64 {
	var all []*result.TestResult
	for _, events := range topicEvents {
		all = append(all, events...)
	}
	reduced := analytics.ReduceLatestPerUser(all)
	if len(reduced) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reduced {
		sum += float64(r.Score)
	}
	return sum / float64(len(reduced))
}

// toDifficultyDTO конвертирует доменный балл сложности в DTO.
func toDifficultyDTO(s analytics.DifficultyScore) DifficultyDTO {
	return DifficultyDTO{
		ScorePoints:    s.ScorePoints,
		TimePoints:     s.TimePoints,
		RemedialPoints: s.RemedialPoints,
		WeightedScore:  s.WeightedScore,
	}
}
