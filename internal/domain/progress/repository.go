package progress

import (
	"context"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

// Repository defines access to the user-state store.
type Repository interface {
	// GetUser returns a user by ID, or shared.ErrUserNotFound.
	GetUser(ctx context.Context, id shared.UserID) (*User, error)

	// GetProgress returns the user's progress projection, or shared.ErrUserNotFound.
	GetProgress(ctx context.Context, id shared.UserID) (*UserProgress, error)

	// MarkTopicCompleted inserts a topic into the user's completion set.
	// The insert is idempotent and atomic at the storage layer: concurrent
	// completions of the same topic never duplicate the membership entry.
	MarkTopicCompleted(ctx context.Context, userID shared.UserID, topicID shared.TopicID) error

	// CountCompletionsByUser returns completed-topic counts keyed by user,
	// covering every registered user (zero entries may be absent from the map).
	CountCompletionsByUser(ctx context.Context) (map[shared.UserID]int, error)

	// CountUsers returns the number of registered users.
	CountUsers(ctx context.Context) (int, error)
}
