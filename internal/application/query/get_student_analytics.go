package query

import (
	"context"
	"time"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/analytics"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/catalog"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/progress"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/result"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT ANALYTICS QUERY
// Персональная аналитика одного студента: процент завершения, среднее время,
// самая слабая тема и разбивка последних результатов по модулям.
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentAnalyticsQuery содержит параметры запроса.
type GetStudentAnalyticsQuery struct {
	// UserID - идентификатор студента (UUID).
	UserID string
}

// Validate проверяет корректность параметров запроса.
// Невалидный идентификатор отклоняется до обращения к хранилищу.
func (q *GetStudentAnalyticsQuery) Validate() error {
	if _, err := shared.NewUserID(q.UserID); err != nil {
		return err
	}
	return nil
}

// StudentTopicScoreDTO - последний результат студента по одной теме.
type StudentTopicScoreDTO struct {
	TopicID string `json:"topic_id"`
	Title   string `json:"title"`
	Order   int    `json:"order"`

	// LatestScore - результат самой свежей попытки.
	LatestScore int `json:"latest_score"`

	// AverageTimeSeconds - среднее время по всем попыткам студента в теме.
	AverageTimeSeconds float64 `json:"average_time_seconds"`

	// AttemptCount - количество попыток студента в теме.
	AttemptCount int `json:"attempt_count"`
}

// StudentModuleBreakdownDTO - вложенная разбивка по одному модулю:
// последний результат модульного пост-теста в паре с последними результатами
// каждой темы, которую студент пробовал. Нетронутые темы отсутствуют в
// списке, а не показываются нулями.
type StudentModuleBreakdownDTO struct {
	ModuleID string `json:"module_id"`
	Title    string `json:"title"`
	Order    int    `json:"order"`

	// ModuleScore - последний результат пост-теста модуля; nil если студент
	// его ещё не проходил.
	ModuleScore *int `json:"module_score,omitempty"`

	// Topics - темы модуля с хотя бы одной попыткой, в порядке навигации.
	Topics []StudentTopicScoreDTO `json:"topics"`
}

// WeakestTopicDTO - тема с минимальным последним результатом студента.
type WeakestTopicDTO struct {
	TopicID     string `json:"topic_id"`
	Title       string `json:"title"`
	LatestScore int    `json:"latest_score"`
}

// GetStudentAnalyticsResult содержит персональную сводку студента.
type GetStudentAnalyticsResult struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`

	// LearningLevel - текущий уровень студента.
	LearningLevel string `json:"learning_level"`

	// CompletionRate - процент завершённых тем от всего каталога.
	CompletionRate float64 `json:"completion_rate"`

	// AverageTimeSeconds - среднее время по всем пост-тестам студента.
	AverageTimeSeconds float64 `json:"average_time_seconds"`

	// WeakestTopic - самая слабая тема; nil если попыток ещё нет.
	WeakestTopic *WeakestTopicDTO `json:"weakest_topic,omitempty"`

	// Modules - разбивка по модулям, где у студента есть попытки.
	Modules []StudentModuleBreakdownDTO `json:"modules"`

	// GeneratedAt - время генерации сводки.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetStudentAnalyticsHandler обрабатывает запросы персональной аналитики.
type GetStudentAnalyticsHandler struct {
	resultRepo  result.Repository
	catalogRepo catalog.Repository
	userRepo    progress.Repository
}

// NewGetStudentAnalyticsHandler создаёт новый обработчик.
func NewGetStudentAnalyticsHandler(
	resultRepo result.Repository,
	catalogRepo catalog.Repository,
	userRepo progress.Repository,
) *GetStudentAnalyticsHandler {
	return &GetStudentAnalyticsHandler{
		resultRepo:  resultRepo,
		catalogRepo: catalogRepo,
		userRepo:    userRepo,
	}
}

// Handle выполняет запрос. Несуществующий пользователь - ошибка not-found
// без частичного ответа.
func (h *GetStudentAnalyticsHandler) Handle(ctx context.Context, q GetStudentAnalyticsQuery) (*GetStudentAnalyticsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetStudentAnalytics", shared.ErrValidation, "invalid user ID", err)
	}
	userID := shared.UserID(q.UserID)

	user, err := h.userRepo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	userProgress, err := h.userRepo.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	totalTopics, err := h.catalogRepo.CountTopics(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetStudentAnalytics", shared.ErrExternalService, "failed to count topics", err)
	}

	events, err := h.resultRepo.Query(ctx, result.Filter{UserID: userID})
	if err != nil {
		return nil, shared.WrapError("query", "GetStudentAnalytics", shared.ErrExternalService, "failed to query events", err)
	}

	modules, err := h.catalogRepo.ListModules(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetStudentAnalytics", shared.ErrExternalService, "failed to list modules", err)
	}
	topics, err := h.catalogRepo.ListAllTopics(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetStudentAnalytics", shared.ErrExternalService, "failed to list topics", err)
	}

	topicEvents, moduleEvents := splitPostTests(events)

	breakdown := buildModuleBreakdown(userID, modules, topics, topicEvents, moduleEvents)

	// Завершения считаем только по темам, существующим в каталоге: запись о
	// завершении удалённой темы не должна завышать процент.
	topicIDs := make([]shared.TopicID, len(topics))
	for i, t := range topics {
		topicIDs[i] = t.ID
	}
	completedTopics := userProgress.CompletedIn(topicIDs)

	return &GetStudentAnalyticsResult{
		UserID:             user.ID.String(),
		Name:               user.Name,
		LearningLevel:      user.LearningLevel.String(),
		CompletionRate:     float64(progress.ProgressPercent(completedTopics, totalTopics)),
		AverageTimeSeconds: averagePostTestTime(events),
		WeakestTopic:       weakestTopic(topics, topicEvents, userID),
		Modules:            breakdown,
		GeneratedAt:        time.Now().UTC(),
	}, nil
}

// averagePostTestTime - простое среднее время по всем пост-тестам студента.
func averagePostTestTime(events []*result.TestResult) float64 {
	var sum, count int64
	for _, ev := range events {
		if !ev.TestType.IsPostTest() {
			continue
		}
		sum += int64(ev.TimeTakenSeconds)
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// weakestTopic - тема с минимальным последним результатом студента.
// При равенстве берётся первая по порядку каталога (выбор не несёт смысла).
func weakestTopic(
	topics []*catalog.Topic,
	topicEvents map[shared.TopicID][]*result.TestResult,
	userID shared.UserID,
) *WeakestTopicDTO {
	var weakest *WeakestTopicDTO
	for _, t := range topics {
		latest, ok := analytics.ReduceLatestForUser(topicEvents[t.ID], userID)
		if !ok {
			continue
		}
		if weakest == nil || latest.Score < weakest.LatestScore {
			weakest = &WeakestTopicDTO{
				TopicID:     t.ID.String(),
				Title:       t.Title,
				LatestScore: latest.Score,
			}
		}
	}
	return weakest
}

// buildModuleBreakdown собирает вложенную разбивку по модулям. Модуль попадает
// в ответ, только если у студента есть хотя бы одна попытка в нём - либо
// модульный пост-тест, либо пост-тест одной из его тем.
func buildModuleBreakdown(
	userID shared.UserID,
	modules []*catalog.Module,
	topics []*catalog.Topic,
	topicEvents map[shared.TopicID][]*result.TestResult,
	moduleEvents map[shared.ModuleID][]*result.TestResult,
) []StudentModuleBreakdownDTO {
	topicsByModule := catalog.GroupTopicsByModule(topics)

	breakdown := make([]StudentModuleBreakdownDTO, 0)
	for _, m := range modules {
		var moduleScore *int
		if latest, ok := analytics.ReduceLatestForUser(moduleEvents[m.ID], userID); ok {
			score := latest.Score
			moduleScore = &score
		}

		attempted := make([]StudentTopicScoreDTO, 0)
		for _, t := range topicsByModule[m.ID] {
			latest, ok := analytics.ReduceLatestForUser(topicEvents[t.ID], userID)
			if !ok {
				continue
			}
			attempted = append(attempted, StudentTopicScoreDTO{
				TopicID:            t.ID.String(),
				Title:              t.Title,
				Order:              t.Order,
				LatestScore:        latest.Score,
				AverageTimeSeconds: latest.AverageTimeSeconds,
				AttemptCount:       latest.AttemptCount,
			})
		}

		if moduleScore == nil && len(attempted) == 0 {
			continue
		}

		breakdown = append(breakdown, StudentModuleBreakdownDTO{
			ModuleID:    m.ID.String(),
			Title:       m.Title,
			Order:       m.Order,
			ModuleScore: moduleScore,
			Topics:      attempted,
		})
	}
	return breakdown
}
