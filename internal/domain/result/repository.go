package result

import (
	"context"
	"time"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

// Filter narrows an event-log query. Zero values mean "no constraint".
type Filter struct {
	UserID    shared.UserID
	ModuleID  shared.ModuleID
	TopicID   shared.TopicID
	TestTypes []TestType
	Since     time.Time
	Until     time.Time
	Limit     int
}

// Repository defines access to the append-only event log.
// Events are immutable: the interface deliberately has no update or delete.
type Repository interface {
	// Append writes one new attempt event to the log.
	Append(ctx context.Context, r *TestResult) error

	// Query returns events matching the filter, ordered by timestamp descending.
	Query(ctx context.Context, f Filter) ([]*TestResult, error)

	// SumStudyTimeSeconds returns the total duration of all study-session events.
	SumStudyTimeSeconds(ctx context.Context) (int64, error)
}
