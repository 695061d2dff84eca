package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/result"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

var reducerBase = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func attempt(userID string, score, timeTaken int, offset time.Duration) *result.TestResult {
	return &result.TestResult{
		ID:               "r-" + userID + offset.String(),
		UserID:           shared.UserID(userID),
		TestType:         result.TestTypePostTestTopic,
		Score:            score,
		TimeTakenSeconds: timeTaken,
		Timestamp:        reducerBase.Add(offset),
	}
}

func TestReduceLatestPerUser_LatestScoreAveragedTime(t *testing.T) {
	events := []*result.TestResult{
		attempt("u1", 40, 300, 0),
		attempt("u1", 55, 500, 1*time.Hour),
		attempt("u1", 90, 400, 2*time.Hour),
	}

	reduced := ReduceLatestPerUser(events)
	assert.Len(t, reduced, 1)

	r := reduced[0]
	assert.Equal(t, shared.UserID("u1"), r.UserID)
	assert.Equal(t, 90, r.Score, "score must come from the newest attempt only")
	assert.InDelta(t, 400.0, r.AverageTimeSeconds, 0.001, "time must average over all attempts")
	assert.Equal(t, 3, r.AttemptCount)
	assert.Equal(t, reducerBase.Add(2*time.Hour), r.LatestAt)
}

func TestReduceLatestPerUser_OrderIndependence(t *testing.T) {
	inOrder := []*result.TestResult{
		attempt("u1", 40, 100, 0),
		attempt("u1", 60, 200, time.Hour),
		attempt("u1", 95, 300, 2*time.Hour),
	}
	shuffled := []*result.TestResult{inOrder[2], inOrder[0], inOrder[1]}
	reversed := []*result.TestResult{inOrder[2], inOrder[1], inOrder[0]}

	for _, input := range [][]*result.TestResult{inOrder, shuffled, reversed} {
		reduced := ReduceLatestPerUser(input)
		assert.Len(t, reduced, 1)
		assert.Equal(t, 95, reduced[0].Score)
		assert.InDelta(t, 200.0, reduced[0].AverageTimeSeconds, 0.001)
	}
}

func TestReduceLatestPerUser_MultipleUsers(t *testing.T) {
	events := []*result.TestResult{
		attempt("u1", 80, 600, 0),
		attempt("u2", 50, 900, 30*time.Minute),
		attempt("u2", 75, 300, 90*time.Minute),
	}

	reduced := ReduceLatestPerUser(events)
	assert.Len(t, reduced, 2)

	byUser := make(map[shared.UserID]UserLatest)
	for _, r := range reduced {
		byUser[r.UserID] = r
	}
	assert.Equal(t, 80, byUser["u1"].Score)
	assert.Equal(t, 75, byUser["u2"].Score)
	assert.InDelta(t, 600.0, byUser["u2"].AverageTimeSeconds, 0.001)
}

func TestReduceLatestPerUser_Empty(t *testing.T) {
	assert.Nil(t, ReduceLatestPerUser(nil))
	assert.Nil(t, ReduceLatestPerUser([]*result.TestResult{}))
}

func TestReduceLatestForUser(t *testing.T) {
	events := []*result.TestResult{
		attempt("u1", 45, 300, 0),
		attempt("u1", 85, 500, time.Hour),
		attempt("u2", 99, 100, time.Hour),
	}

	r, ok := ReduceLatestForUser(events, "u1")
	assert.True(t, ok)
	assert.Equal(t, 85, r.Score)
	assert.InDelta(t, 400.0, r.AverageTimeSeconds, 0.001)

	_, ok = ReduceLatestForUser(events, "u3")
	assert.False(t, ok, "a user with no attempts must be absent, not zero-scored")
}

func TestComputeMetrics_RemedialRateScenario(t *testing.T) {
	// Five latest scores [90, 85, 40, 60, 95] against threshold 70:
	// two of five below -> 40% remedial rate.
	reduced := []UserLatest{
		{UserID: "u1", Score: 90, AverageTimeSeconds: 100},
		{UserID: "u2", Score: 85, AverageTimeSeconds: 200},
		{UserID: "u3", Score: 40, AverageTimeSeconds: 300},
		{UserID: "u4", Score: 60, AverageTimeSeconds: 400},
		{UserID: "u5", Score: 95, AverageTimeSeconds: 500},
	}
	for i := range reduced {
		reduced[i].AttemptCount = 1
	}

	m := ComputeMetrics(reduced)
	assert.InDelta(t, 74.0, m.AverageScore, 0.001)
	assert.InDelta(t, 40.0, m.RemedialRate, 0.001)
	assert.InDelta(t, 300.0, m.AverageTimeSeconds, 0.001)
	assert.Equal(t, 5, m.UserCount)
	assert.Equal(t, 5, m.AttemptCount)
}

func TestCombineModuleMetrics(t *testing.T) {
	own := EntityMetrics{AverageScore: 80, RemedialRate: 20, AverageTimeSeconds: 600, UserCount: 2, AttemptCount: 3}
	agg := EntityMetrics{AverageScore: 50, RemedialRate: 50, AverageTimeSeconds: 300, UserCount: 4, AttemptCount: 8}

	t.Run("both sides absent yields zeros", func(t *testing.T) {
		assert.Equal(t, EntityMetrics{}, CombineModuleMetrics(EntityMetrics{}, EntityMetrics{}))
	})

	t.Run("absent side never drags the average to zero", func(t *testing.T) {
		assert.Equal(t, own, CombineModuleMetrics(own, EntityMetrics{}))
		assert.Equal(t, agg, CombineModuleMetrics(EntityMetrics{}, agg))
	})

	t.Run("both sides merge weighted by user count", func(t *testing.T) {
		merged := CombineModuleMetrics(own, agg)
		assert.InDelta(t, 60.0, merged.AverageScore, 0.001)  // (80*2 + 50*4) / 6
		assert.InDelta(t, 40.0, merged.RemedialRate, 0.001)  // (20*2 + 50*4) / 6
		assert.InDelta(t, 400.0, merged.AverageTimeSeconds, 0.001)
		assert.Equal(t, 4, merged.UserCount)
		assert.Equal(t, 11, merged.AttemptCount)
	})
}

func TestComputeMetrics_ZeroAttempts(t *testing.T) {
	m := ComputeMetrics(nil)
	assert.Zero(t, m.AverageScore)
	assert.Zero(t, m.RemedialRate)
	assert.Zero(t, m.AverageTimeSeconds)
	assert.Zero(t, m.UserCount)
	assert.Zero(t, m.AttemptCount)
}
