// Package analytics contains the pure derivation logic that turns the raw
// test-attempt event log into difficulty and performance signals: the
// latest-attempt reducer and the weighted difficulty scorer. This package has
// no I/O; orchestration over the catalog lives in the application layer.
package analytics

import (
	"sort"
	"time"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/result"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// Latest-Attempt Reducer
// ═══════════════════════════════════════════════════════════════════════════

// UserLatest is the reduced record for one (user, entity) group: the score of
// the newest attempt combined with the mean duration over every attempt in
// the group. The score-is-latest / time-is-averaged asymmetry is a deliberate
// product rule carried over from the original pipeline; do not unify it.
type UserLatest struct {
	UserID             shared.UserID
	Score              int
	AverageTimeSeconds float64
	AttemptCount       int
	LatestAt           time.Time
}

// sortDesc orders events newest-first. The sort is stable, so events with
// equal timestamps keep the order the event store returned them in.
func sortDesc(events []*result.TestResult) []*result.TestResult {
	sorted := make([]*result.TestResult, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return sorted
}

// ReduceLatestPerUser collapses a group of events into one logical record per
// user: newest score, averaged time. The reduction is order-independent with
// respect to the input slice. Users appear in newest-attempt-first order.
func ReduceLatestPerUser(events []*result.TestResult) []UserLatest {
	if len(events) == 0 {
		return nil
	}

	sorted := sortDesc(events)

	index := make(map[shared.UserID]int)
	reduced := make([]UserLatest, 0)
	totalTime := make(map[shared.UserID]int)

	for _, ev := range sorted {
		i, seen := index[ev.UserID]
		if !seen {
			index[ev.UserID] = len(reduced)
			reduced = append(reduced, UserLatest{
				UserID:   ev.UserID,
				Score:    ev.Score, // newest event wins; older ones only feed the time average
				LatestAt: ev.Timestamp,
			})
			i = len(reduced) - 1
		}
		reduced[i].AttemptCount++
		totalTime[ev.UserID] += ev.TimeTakenSeconds
	}

	for i := range reduced {
		reduced[i].AverageTimeSeconds = float64(totalTime[reduced[i].UserID]) / float64(reduced[i].AttemptCount)
	}
	return reduced
}

// ReduceLatestForUser reduces a single user's events for one entity.
// The second return value is false when the user has no attempts, so callers
// can keep "never attempted" distinct from "scored zero".
func ReduceLatestForUser(events []*result.TestResult, userID shared.UserID) (UserLatest, bool) {
	own := make([]*result.TestResult, 0, len(events))
	for _, ev := range events {
		if ev.UserID == userID {
			own = append(own, ev)
		}
	}
	reduced := ReduceLatestPerUser(own)
	if len(reduced) == 0 {
		return UserLatest{}, false
	}
	return reduced[0], true
}

// ═══════════════════════════════════════════════════════════════════════════
// Entity Metrics
// ═══════════════════════════════════════════════════════════════════════════

// EntityMetrics are the rate inputs of the difficulty scorer for one topic or
// module, derived from the reduced latest-per-user records.
type EntityMetrics struct {
	// AverageScore is the mean of latest-per-user scores, 0-100.
	AverageScore float64

	// RemedialRate is the percentage of users whose latest score is below
	// the passing threshold.
	RemedialRate float64

	// AverageTimeSeconds is the mean of per-user average completion times.
	AverageTimeSeconds float64

	// UserCount is the number of distinct users with at least one attempt.
	UserCount int

	// AttemptCount is the total number of attempts across all users.
	AttemptCount int
}

// ComputeMetrics derives entity metrics from reduced records. An entity with
// zero attempts yields all-zero metrics, never NaN.
func ComputeMetrics(reduced []UserLatest) EntityMetrics {
	if len(reduced) == 0 {
		return EntityMetrics{}
	}

	var scoreSum, timeSum float64
	remedial := 0
	attempts := 0
	for _, r := range reduced {
		scoreSum += float64(r.Score)
		timeSum += r.AverageTimeSeconds
		attempts += r.AttemptCount
		if r.Score < result.PassingScore {
			remedial++
		}
	}

	n := float64(len(reduced))
	return EntityMetrics{
		AverageScore:       scoreSum / n,
		RemedialRate:       float64(remedial) / n * 100,
		AverageTimeSeconds: timeSum / n,
		UserCount:          len(reduced),
		AttemptCount:       attempts,
	}
}

// CombineModuleMetrics merges a module's own post-test metrics with the
// aggregate of its topics' post-tests. Each side is reduced independently; a
// side with no contributing events is absent, never a zero pulled into the
// averages. Only when both sides are absent does the projection fall back to
// all-zero metrics. When both contribute, rate fields merge weighted by the
// number of users behind each side.
func CombineModuleMetrics(own, topicsAgg EntityMetrics) EntityMetrics {
	if own.UserCount == 0 && topicsAgg.UserCount == 0 {
		return EntityMetrics{}
	}
	if own.UserCount == 0 {
		return topicsAgg
	}
	if topicsAgg.UserCount == 0 {
		return own
	}

	ownW := float64(own.UserCount)
	aggW := float64(topicsAgg.UserCount)
	total := ownW + aggW

	userCount := own.UserCount
	if topicsAgg.UserCount > userCount {
		userCount = topicsAgg.UserCount
	}

	return EntityMetrics{
		AverageScore:       (own.AverageScore*ownW + topicsAgg.AverageScore*aggW) / total,
		RemedialRate:       (own.RemedialRate*ownW + topicsAgg.RemedialRate*aggW) / total,
		AverageTimeSeconds: (own.AverageTimeSeconds*ownW + topicsAgg.AverageTimeSeconds*aggW) / total,
		UserCount:          userCount,
		AttemptCount:       own.AttemptCount + topicsAgg.AttemptCount,
	}
}
