package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/result"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

func TestScoreDifficulty_Buckets(t *testing.T) {
	tests := []struct {
		name           string
		metrics        EntityMetrics
		baseline       float64
		scorePoints    int
		timePoints     int
		remedialPoints int
		weighted       float64
	}{
		{
			name:     "all healthy",
			metrics:  EntityMetrics{AverageScore: 92, RemedialRate: 5, AverageTimeSeconds: 400, UserCount: 10},
			baseline: 600,
		},
		{
			name:        "average score just under moderate threshold",
			metrics:     EntityMetrics{AverageScore: 79.9, RemedialRate: 0, AverageTimeSeconds: 100, UserCount: 4},
			baseline:    600,
			scorePoints: 1,
			weighted:    0.5,
		},
		{
			name:        "average score at moderate threshold scores zero",
			metrics:     EntityMetrics{AverageScore: 80, RemedialRate: 0, AverageTimeSeconds: 100, UserCount: 4},
			baseline:    600,
			scorePoints: 0,
		},
		{
			name:        "average score below severe threshold",
			metrics:     EntityMetrics{AverageScore: 64.9, RemedialRate: 0, AverageTimeSeconds: 100, UserCount: 4},
			baseline:    600,
			scorePoints: 2,
			weighted:    1.0,
		},
		{
			name:       "module time ratio scenario: 1000s vs 600s baseline is severe",
			metrics:    EntityMetrics{AverageScore: 90, RemedialRate: 0, AverageTimeSeconds: 1000, UserCount: 5},
			baseline:   600,
			timePoints: 2,
			weighted:   0.4,
		},
		{
			name:       "time just above moderate ratio",
			metrics:    EntityMetrics{AverageScore: 90, RemedialRate: 0, AverageTimeSeconds: 700, UserCount: 5},
			baseline:   600,
			timePoints: 1,
			weighted:   0.2,
		},
		{
			name:           "remedial rate 40 percent is severe",
			metrics:        EntityMetrics{AverageScore: 90, RemedialRate: 40, AverageTimeSeconds: 100, UserCount: 5},
			baseline:       600,
			remedialPoints: 2,
			weighted:       0.6,
		},
		{
			name:           "remedial rate between 10 and 25 percent is moderate",
			metrics:        EntityMetrics{AverageScore: 90, RemedialRate: 20, AverageTimeSeconds: 100, UserCount: 5},
			baseline:       600,
			remedialPoints: 1,
			weighted:       0.3,
		},
		{
			name:           "worst case on every axis",
			metrics:        EntityMetrics{AverageScore: 30, RemedialRate: 80, AverageTimeSeconds: 2000, UserCount: 5},
			baseline:       600,
			scorePoints:    2,
			timePoints:     2,
			remedialPoints: 2,
			weighted:       2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ScoreDifficulty(tt.metrics, tt.baseline)
			assert.Equal(t, tt.scorePoints, s.ScorePoints)
			assert.Equal(t, tt.timePoints, s.TimePoints)
			assert.Equal(t, tt.remedialPoints, s.RemedialPoints)
			assert.InDelta(t, tt.weighted, s.WeightedScore, 0.0001)
		})
	}
}

func TestScoreDifficulty_PointsAlwaysInRange(t *testing.T) {
	metrics := []EntityMetrics{
		{AverageScore: 0, RemedialRate: 100, AverageTimeSeconds: 100000, UserCount: 1},
		{AverageScore: 100, RemedialRate: 0, AverageTimeSeconds: 0, UserCount: 1},
		{AverageScore: 70, RemedialRate: 25, AverageTimeSeconds: 660, UserCount: 3},
		{AverageScore: 65, RemedialRate: 10, AverageTimeSeconds: 840, UserCount: 7},
	}
	for _, m := range metrics {
		s := ScoreDifficulty(m, 600)
		assert.Contains(t, []int{0, 1, 2}, s.ScorePoints)
		assert.Contains(t, []int{0, 1, 2}, s.TimePoints)
		assert.Contains(t, []int{0, 1, 2}, s.RemedialPoints)
		assert.GreaterOrEqual(t, s.WeightedScore, 0.0)
		assert.LessOrEqual(t, s.WeightedScore, 2.0)
	}
}

func TestScoreDifficulty_ZeroAttemptsScoresZero(t *testing.T) {
	s := ScoreDifficulty(EntityMetrics{}, 600)
	assert.Zero(t, s.ScorePoints)
	assert.Zero(t, s.TimePoints)
	assert.Zero(t, s.RemedialPoints)
	assert.Zero(t, s.WeightedScore)
}

func TestGlobalAverageTime(t *testing.T) {
	events := []*result.TestResult{
		{UserID: shared.UserID("u1"), TestType: result.TestTypePostTestTopic, TimeTakenSeconds: 300},
		{UserID: shared.UserID("u2"), TestType: result.TestTypePostTestModule, TimeTakenSeconds: 900},
		// study sessions and pre-tests never feed the baseline
		{UserID: shared.UserID("u1"), TestType: result.TestTypeStudySession, TimeTakenSeconds: 10000},
		{UserID: shared.UserID("u1"), TestType: result.TestTypePreTestGlobal, TimeTakenSeconds: 10000},
	}

	assert.InDelta(t, 600.0, GlobalAverageTime(events), 0.001)
}

func TestGlobalAverageTime_DefaultsWithoutPostTests(t *testing.T) {
	assert.Equal(t, DefaultGlobalAverageTimeSeconds, GlobalAverageTime(nil))

	onlySessions := []*result.TestResult{
		{UserID: shared.UserID("u1"), TestType: result.TestTypeStudySession, TimeTakenSeconds: 1234},
	}
	assert.Equal(t, DefaultGlobalAverageTimeSeconds, GlobalAverageTime(onlySessions))
}
