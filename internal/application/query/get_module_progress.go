package query

import (
	"context"
	"time"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/catalog"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/progress"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MODULE PROGRESS QUERY
// Навигационное представление каталога для одного пользователя: какие модули
// и темы открыты, завершены и в каком статусе. Чистое чтение - прогресс
// пользователя никогда не мутируется при вычислении.
// ══════════════════════════════════════════════════════════════════════════════

// GetModuleProgressQuery содержит параметры запроса.
type GetModuleProgressQuery struct {
	// UserID - идентификатор пользователя (UUID).
	UserID string
}

// Validate проверяет корректность параметров запроса.
func (q *GetModuleProgressQuery) Validate() error {
	if _, err := shared.NewUserID(q.UserID); err != nil {
		return err
	}
	return nil
}

// TopicProgressDTO - состояние гейта одной темы для пользователя.
type TopicProgressDTO struct {
	TopicID     string `json:"topic_id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Order       int    `json:"order"`
	IsLocked    bool   `json:"is_locked"`
	IsCompleted bool   `json:"is_completed"`
}

// ModuleProgressDTO - модуль с аннотацией прогресса пользователя.
type ModuleProgressDTO struct {
	ModuleID string `json:"module_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Slug     string `json:"slug"`
	Order    int    `json:"order"`

	// Progress - процент завершённых тем модуля.
	Progress float64 `json:"progress"`

	// CompletedTopics - количество завершённых тем.
	CompletedTopics int `json:"completed_topics"`

	// TotalTopics - общее количество тем в модуле.
	TotalTopics int `json:"total_topics"`

	// IsLocked - закрыт ли модуль для уровня пользователя.
	IsLocked bool `json:"is_locked"`

	// Status - производный статус: Locked, Done, InProgress, NotStarted.
	Status string `json:"status"`

	// Topics - темы модуля с состоянием гейта, в порядке навигации.
	Topics []TopicProgressDTO `json:"topics"`
}

// GetModuleProgressResult содержит список модулей с прогрессом.
type GetModuleProgressResult struct {
	UserID        string              `json:"user_id"`
	LearningLevel string              `json:"learning_level"`
	Modules       []ModuleProgressDTO `json:"modules"`
	GeneratedAt   time.Time           `json:"generated_at"`
}

// GetModuleProgressHandler обрабатывает запросы прогресса по модулям.
type GetModuleProgressHandler struct {
	catalogRepo catalog.Repository
	userRepo    progress.Repository
}

// NewGetModuleProgressHandler создаёт новый обработчик.
func NewGetModuleProgressHandler(
	catalogRepo catalog.Repository,
	userRepo progress.Repository,
) *GetModuleProgressHandler {
	return &GetModuleProgressHandler{
		catalogRepo: catalogRepo,
		userRepo:    userRepo,
	}
}

// Handle выполняет запрос прогресса для пользователя.
func (h *GetModuleProgressHandler) Handle(ctx context.Context, q GetModuleProgressQuery) (*GetModuleProgressResult, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetModuleProgress", shared.ErrValidation, "invalid user ID", err)
	}
	userID := shared.UserID(q.UserID)

	userProgress, err := h.userRepo.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	modules, err := h.catalogRepo.ListModules(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetModuleProgress", shared.ErrExternalService, "failed to list modules", err)
	}
	topics, err := h.catalogRepo.ListAllTopics(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetModuleProgress", shared.ErrExternalService, "failed to list topics", err)
	}
	topicsByModule := catalog.GroupTopicsByModule(topics)

	dtos := make([]ModuleProgressDTO, 0, len(modules))
	for _, m := range modules {
		moduleTopics := topicsByModule[m.ID]
		locked := progress.ModuleLocked(m.Category, userProgress.LearningLevel)
		states := progress.TopicsWithLockState(moduleTopics, userProgress, locked)

		completed := 0
		topicDTOs := make([]TopicProgressDTO, len(states))
		for i, s := range states {
			if s.Completed {
				completed++
			}
			topicDTOs[i] = TopicProgressDTO{
				TopicID:     s.Topic.ID.String(),
				Title:       s.Topic.Title,
				Slug:        s.Topic.Slug.String(),
				Order:       s.Topic.Order,
				IsLocked:    s.Locked,
				IsCompleted: s.Completed,
			}
		}

		total := len(moduleTopics)
		dtos = append(dtos, ModuleProgressDTO{
			ModuleID:        m.ID.String(),
			Title:           m.Title,
			Category:        m.Category.String(),
			Slug:            m.Slug.String(),
			Order:           m.Order,
			Progress:        float64(progress.ProgressPercent(completed, total)),
			CompletedTopics: completed,
			TotalTopics:     total,
			IsLocked:        locked,
			Status:          string(progress.DeriveModuleStatus(locked, completed, total)),
			Topics:          topicDTOs,
		})
	}

	return &GetModuleProgressResult{
		UserID:        userID.String(),
		LearningLevel: userProgress.LearningLevel.String(),
		Modules:       dtos,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}
