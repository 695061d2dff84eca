// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Result events
	EventResultRecorded EventType = "result.recorded"

	// Progress events
	EventTopicCompleted     EventType = "progress.topic_completed"
	EventModuleCompleted    EventType = "progress.module_completed"
	EventLearningLevelSet   EventType = "progress.learning_level_set"
	EventStudySessionLogged EventType = "progress.study_session_logged"

	// Analytics events
	EventDashboardRefreshed EventType = "analytics.dashboard_refreshed"

	// System events
	EventDashboardWarmFailed EventType = "system.dashboard_warm_failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a single domain event.
type EventHandler interface {
	// Handle processes the event. Errors are logged by the bus, not retried.
	Handle(event Event) error

	// Name returns a stable handler name for logging.
	Name() string
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc struct {
	HandlerName string
	Fn          func(event Event) error
}

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(event Event) error { return f.Fn(event) }

// Name implements EventHandler.
func (f EventHandlerFunc) Name() string { return f.HandlerName }

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType returns the type of the event.
func (e BaseEvent) EventType() EventType { return e.Type }

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// AggregateID returns the aggregate ID.
func (e BaseEvent) AggregateID() string { return e.AggregateId }

// NewBaseEvent creates a base event with the current timestamp.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Concrete Events
// ═══════════════════════════════════════════════════════════════════════════

// ResultRecordedEvent is published after a test attempt is appended to the log.
type ResultRecordedEvent struct {
	BaseEvent
	ResultID string `json:"result_id"`
	UserID   string `json:"user_id"`
	TestType string `json:"test_type"`
	Score    int    `json:"score"`
	ModuleID string `json:"module_id,omitempty"`
	TopicID  string `json:"topic_id,omitempty"`
}

// NewResultRecordedEvent creates a ResultRecordedEvent.
func NewResultRecordedEvent(resultID, userID, testType string, score int, moduleID, topicID string) *ResultRecordedEvent {
	return &ResultRecordedEvent{
		BaseEvent: NewBaseEvent(EventResultRecorded, userID),
		ResultID:  resultID,
		UserID:    userID,
		TestType:  testType,
		Score:     score,
		ModuleID:  moduleID,
		TopicID:   topicID,
	}
}

// Payload returns the event data as a map.
func (e *ResultRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"result_id": e.ResultID,
		"user_id":   e.UserID,
		"test_type": e.TestType,
		"score":     e.Score,
		"module_id": e.ModuleID,
		"topic_id":  e.TopicID,
	}
}

// TopicCompletedEvent is published when a passing topic post-test marks a completion.
type TopicCompletedEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	TopicID string `json:"topic_id"`
	Score   int    `json:"score"`
}

// NewTopicCompletedEvent creates a TopicCompletedEvent.
func NewTopicCompletedEvent(userID, topicID string, score int) *TopicCompletedEvent {
	return &TopicCompletedEvent{
		BaseEvent: NewBaseEvent(EventTopicCompleted, userID),
		UserID:    userID,
		TopicID:   topicID,
		Score:     score,
	}
}

// Payload returns the event data as a map.
func (e *TopicCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  e.UserID,
		"topic_id": e.TopicID,
		"score":    e.Score,
	}
}

// DashboardRefreshedEvent is published after the admin dashboard cache is rebuilt.
type DashboardRefreshedEvent struct {
	BaseEvent
	DurationMs int64 `json:"duration_ms"`
}

// NewDashboardRefreshedEvent creates a DashboardRefreshedEvent.
func NewDashboardRefreshedEvent(duration time.Duration) *DashboardRefreshedEvent {
	return &DashboardRefreshedEvent{
		BaseEvent:  NewBaseEvent(EventDashboardRefreshed, "dashboard"),
		DurationMs: duration.Milliseconds(),
	}
}

// Payload returns the event data as a map.
func (e *DashboardRefreshedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"duration_ms": e.DurationMs}
}

// MarshalEvent serializes an event envelope to JSON for transport or logging.
func MarshalEvent(e Event) ([]byte, error) {
	envelope := map[string]interface{}{
		"type":         e.EventType(),
		"occurred_at":  e.OccurredAt().Format(time.RFC3339Nano),
		"aggregate_id": e.AggregateID(),
		"payload":      e.Payload(),
	}
	return json.Marshal(envelope)
}
