// Package progress contains the per-user progress projection and the gate
// rules that decide which modules and topics a user may enter. The projection
// is owned by the user-state store; this package only defines its shape and
// the pure derivation rules over it.
package progress

import (
	"errors"
	"time"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

// Domain errors for progress package.
var (
	ErrInvalidUserID        = errors.New("progress: invalid user ID")
	ErrInvalidLearningLevel = errors.New("progress: unknown learning level")
	ErrInvalidTopicID       = errors.New("progress: invalid topic ID")
)

// LearningLevel represents a user's placement level, assigned from the
// global pre-test and used to gate module categories.
type LearningLevel string

const (
	LevelBasic        LearningLevel = "Basic"
	LevelIntermediate LearningLevel = "Intermediate"
	LevelAdvanced     LearningLevel = "Advanced"
)

// IsValid checks if the learning level is one of the known values.
func (l LearningLevel) IsValid() bool {
	switch l {
	case LevelBasic, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// String returns the string representation of the learning level.
func (l LearningLevel) String() string {
	return string(l)
}

// Role represents a user's role in the platform.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// User is the minimal user account shape the engine needs.
// Authentication mechanics live behind the upstream gateway, not here.
type User struct {
	ID            shared.UserID
	Name          string
	Email         string
	Role          Role
	LearningLevel LearningLevel
	CreatedAt     time.Time
}

// CompletionSet is the set of topics a user has completed. Membership is the
// sole persisted completion signal; module completion is derived, never stored.
type CompletionSet map[shared.TopicID]struct{}

// NewCompletionSet builds a set from a list of topic IDs, dropping duplicates.
func NewCompletionSet(topicIDs []shared.TopicID) CompletionSet {
	set := make(CompletionSet, len(topicIDs))
	for _, id := range topicIDs {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether the topic is completed.
func (s CompletionSet) Contains(topicID shared.TopicID) bool {
	_, ok := s[topicID]
	return ok
}

// Add inserts a topic into the set. Idempotent.
func (s CompletionSet) Add(topicID shared.TopicID) {
	s[topicID] = struct{}{}
}

// Len returns the number of completed topics.
func (s CompletionSet) Len() int {
	return len(s)
}

// UserProgress is the per-user mutable projection read by the gate resolver.
type UserProgress struct {
	UserID           shared.UserID
	LearningLevel    LearningLevel
	TopicCompletions CompletionSet
}

// NewUserProgress creates a progress projection with validation.
func NewUserProgress(userID shared.UserID, level LearningLevel, completions CompletionSet) (*UserProgress, error) {
	if !userID.IsValid() {
		return nil, ErrInvalidUserID
	}
	if !level.IsValid() {
		return nil, ErrInvalidLearningLevel
	}
	if completions == nil {
		completions = make(CompletionSet)
	}
	return &UserProgress{
		UserID:           userID,
		LearningLevel:    level,
		TopicCompletions: completions,
	}, nil
}

// CompletedIn counts how many of the given topic IDs the user has completed.
func (p *UserProgress) CompletedIn(topicIDs []shared.TopicID) int {
	count := 0
	for _, id := range topicIDs {
		if p.TopicCompletions.Contains(id) {
			count++
		}
	}
	return count
}
