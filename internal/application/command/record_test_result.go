// Package command contains write operations following CQRS pattern.
// Commands validate input, mutate state through repositories and publish
// domain events; they never return query payloads.
package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/catalog"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/progress"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/result"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
	"github.com/lentera-edu/lentera-lms-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD TEST RESULT COMMAND
// Единственный путь записи движка: добавляет неизменяемое событие попытки в
// лог и, для успешного пост-теста темы, идемпотентно помечает тему
// завершённой. Исправления - это новые события, старые никогда не меняются.
// ══════════════════════════════════════════════════════════════════════════════

// EventPublisher публикует доменные события. Реализация - in-memory шина.
type EventPublisher interface {
	Publish(ctx context.Context, event shared.Event) error
}

// RecordTestResultCommand содержит данные одной попытки.
type RecordTestResultCommand struct {
	UserID           string
	TestType         string
	Score            int
	Correct          int
	Total            int
	TimeTakenSeconds int
	ModuleID         string
	TopicID          string
}

// RecordTestResultResult подтверждает запись попытки.
type RecordTestResultResult struct {
	ResultID string `json:"result_id"`

	// Passed - достигнут ли проходной порог.
	Passed bool `json:"passed"`

	// TopicCompleted - была ли тема помечена завершённой этой попыткой.
	TopicCompleted bool `json:"topic_completed"`

	RecordedAt time.Time `json:"recorded_at"`
}

// RecordTestResultHandler обрабатывает команду записи попытки.
type RecordTestResultHandler struct {
	resultRepo  result.Repository
	catalogRepo catalog.Repository
	userRepo    progress.Repository
	events      EventPublisher
	log         *logger.Logger
}

// NewRecordTestResultHandler создаёт новый обработчик команды.
func NewRecordTestResultHandler(
	resultRepo result.Repository,
	catalogRepo catalog.Repository,
	userRepo progress.Repository,
	events EventPublisher,
	log *logger.Logger,
) *RecordTestResultHandler {
	return &RecordTestResultHandler{
		resultRepo:  resultRepo,
		catalogRepo: catalogRepo,
		userRepo:    userRepo,
		events:      events,
		log:         log,
	}
}

// Handle выполняет команду: валидация ссылок до записи, затем append в лог,
// затем отметка завершения. Запись в лог и отметка не транзакционны между
// собой: завершение идемпотентно и повторная попытка безопасна.
func (h *RecordTestResultHandler) Handle(ctx context.Context, cmd RecordTestResultCommand) (*RecordTestResultResult, error) {
	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, shared.WrapError("command", "RecordTestResult", shared.ErrValidation, "invalid user ID", err)
	}

	event, err := result.NewTestResult(
		uuid.NewString(),
		userID,
		result.TestType(cmd.TestType),
		cmd.Score,
		cmd.Correct,
		cmd.Total,
		cmd.TimeTakenSeconds,
		shared.ModuleID(cmd.ModuleID),
		shared.TopicID(cmd.TopicID),
		time.Now().UTC(),
	)
	if err != nil {
		return nil, shared.WrapError("command", "RecordTestResult", shared.ErrValidation, "invalid test result", err)
	}

	// Ссылки проверяются до записи: битое событие в append-only логе
	// осталось бы там навсегда.
	if _, err := h.userRepo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	if event.ModuleID != "" {
		if _, err := h.catalogRepo.GetModule(ctx, event.ModuleID); err != nil {
			return nil, err
		}
	}
	if event.TopicID != "" {
		if _, err := h.catalogRepo.GetTopic(ctx, event.TopicID); err != nil {
			return nil, err
		}
	}

	if err := h.resultRepo.Append(ctx, event); err != nil {
		return nil, shared.WrapError("command", "RecordTestResult", shared.ErrExternalService, "failed to append result", err)
	}

	completed := false
	if event.TestType == result.TestTypePostTestTopic && event.IsPassing() {
		// Идемпотентная вставка в множество: повторное завершение той же
		// темы не создаёт дубликата и атомарно на уровне хранилища.
		if err := h.userRepo.MarkTopicCompleted(ctx, userID, event.TopicID); err != nil {
			return nil, shared.WrapError("command", "RecordTestResult", shared.ErrExternalService, "failed to mark topic completed", err)
		}
		completed = true
		h.publish(ctx, shared.NewTopicCompletedEvent(userID.String(), event.TopicID.String(), event.Score))
	}

	h.publish(ctx, shared.NewResultRecordedEvent(
		event.ID,
		userID.String(),
		event.TestType.String(),
		event.Score,
		event.ModuleID.String(),
		event.TopicID.String(),
	))

	return &RecordTestResultResult{
		ResultID:       event.ID,
		Passed:         event.IsPassing(),
		TopicCompleted: completed,
		RecordedAt:     event.Timestamp,
	}, nil
}

// publish отправляет событие в шину; ошибка публикации не отменяет команду.
func (h *RecordTestResultHandler) publish(ctx context.Context, event shared.Event) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(ctx, event); err != nil {
		h.log.Warn("failed to publish event",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
}
