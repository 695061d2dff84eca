package progress

import (
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/catalog"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// Gate Resolver
// ═══════════════════════════════════════════════════════════════════════════

// The category-vs-level comparison lives in two explicit ordinal tables so the
// rule stays in one testable place instead of scattered conditionals.
// Unknown values rank highest/lowest respectively, which fails closed:
// an unknown category is never unlocked by an unknown level.

var categoryRank = map[catalog.Category]int{
	catalog.CategoryEasy:   0,
	catalog.CategoryMedium: 1,
	catalog.CategoryHard:   2,
}

var levelRank = map[LearningLevel]int{
	LevelBasic:        0,
	LevelIntermediate: 1,
	LevelAdvanced:     2,
}

// ModuleLocked reports whether a module of the given category is locked for a
// user at the given learning level. A module is locked iff its category ranks
// above the user's level.
func ModuleLocked(category catalog.Category, level LearningLevel) bool {
	catOrd, ok := categoryRank[category]
	if !ok {
		return true
	}
	lvlOrd, ok := levelRank[level]
	if !ok {
		lvlOrd = 0 // corrupted level gates like the lowest one
	}
	return catOrd > lvlOrd
}

// TopicLockState is the per-topic gate decision for one user.
type TopicLockState struct {
	Topic     *catalog.Topic
	Locked    bool
	Completed bool
}

// TopicsWithLockState evaluates the sequential gate over a module's topics.
//
// Rules, applied left-to-right over topics sorted by Order:
//   - a locked module locks every topic in it, completions notwithstanding;
//   - the first topic of an unlocked module is always open;
//   - topic i (i > 0) is locked iff topic i-1 is not completed. Completion is
//     a membership test against the completion set, not a score check, so a
//     completion recorded through any path (including admin import) counts.
//
// The function never mutates the progress projection.
func TopicsWithLockState(topics []*catalog.Topic, p *UserProgress, moduleLocked bool) []TopicLockState {
	ordered := make([]*catalog.Topic, len(topics))
	copy(ordered, topics)
	catalog.SortTopics(ordered)

	states := make([]TopicLockState, len(ordered))
	prevCompleted := true // first topic has no predecessor
	for i, t := range ordered {
		completed := p.TopicCompletions.Contains(t.ID)
		locked := moduleLocked || (i > 0 && !prevCompleted)
		states[i] = TopicLockState{
			Topic:     t,
			Locked:    locked,
			Completed: completed,
		}
		prevCompleted = completed
	}
	return states
}

// ModuleStatus is the derived per-user status of a module.
type ModuleStatus string

const (
	StatusLocked     ModuleStatus = "Locked"
	StatusDone       ModuleStatus = "Done"
	StatusInProgress ModuleStatus = "InProgress"
	StatusNotStarted ModuleStatus = "NotStarted"
)

// DeriveModuleStatus derives the module status from the gate decision and
// completion counts: Locked wins, then Done at 100%, then InProgress above 0.
func DeriveModuleStatus(locked bool, completedTopics, totalTopics int) ModuleStatus {
	switch {
	case locked:
		return StatusLocked
	case totalTopics > 0 && completedTopics == totalTopics:
		return StatusDone
	case completedTopics > 0:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// ProgressPercent returns completedTopics/totalTopics as a percentage.
// An empty module reads as 0%, never a division by zero.
func ProgressPercent(completedTopics, totalTopics int) shared.Percent {
	if totalTopics <= 0 {
		return 0
	}
	return shared.Percent(float64(completedTopics) / float64(totalTopics) * 100).Clamp()
}
