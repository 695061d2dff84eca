package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/analytics"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/progress"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/result"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
	"github.com/lentera-edu/lentera-lms-backend/pkg/logger"
)

var adminBase = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func adminEvent(userID string, testType result.TestType, score, timeTaken int, moduleID, topicID string, offset time.Duration) *result.TestResult {
	return &result.TestResult{
		ID:               "ev-" + userID[:8] + offset.String(),
		UserID:           shared.UserID(userID),
		TestType:         testType,
		Score:            score,
		TimeTakenSeconds: timeTaken,
		ModuleID:         shared.ModuleID(moduleID),
		TopicID:          shared.TopicID(topicID),
		Timestamp:        adminBase.Add(offset),
	}
}

func adminFixture() (*fakeResultRepo, *fakeCatalogRepo, *fakeUserRepo) {
	users := newFakeUserRepo()
	users.addUser(userAlice, progress.LevelIntermediate, topicIntro, topicSlices)
	users.addUser(userBob, progress.LevelBasic, topicIntro)
	users.addUser(userCarol, progress.LevelBasic)

	results := &fakeResultRepo{events: []*result.TestResult{
		// Introduction: four attempts by three users.
		adminEvent(userAlice, result.TestTypePostTestTopic, 50, 600, "", topicIntro, 1*time.Hour),
		adminEvent(userAlice, result.TestTypePostTestTopic, 90, 400, "", topicIntro, 2*time.Hour),
		adminEvent(userBob, result.TestTypePostTestTopic, 60, 800, "", topicIntro, 1*time.Hour),
		adminEvent(userCarol, result.TestTypePostTestTopic, 85, 200, "", topicIntro, 1*time.Hour),
		// Slices: one attempt, below the hardest-ranking threshold.
		adminEvent(userAlice, result.TestTypePostTestTopic, 30, 100, "", topicSlices, 3*time.Hour),
		// Module post-test for Go Basics.
		adminEvent(userAlice, result.TestTypePostTestModule, 80, 300, moduleBasics, "", 4*time.Hour),
		// Study sessions: 2.5 hours total, reported floored to 2.
		adminEvent(userAlice, result.TestTypeStudySession, 0, 5400, "", "", 1*time.Hour),
		adminEvent(userBob, result.TestTypeStudySession, 0, 3600, "", "", 1*time.Hour),
	}}

	return results, fixtureCatalog(), users
}

func TestGetAdminAnalytics_GlobalRollups(t *testing.T) {
	results, cat, users := adminFixture()
	h := NewGetAdminAnalyticsHandler(results, cat, users, nil, logger.Default())

	res, err := h.Handle(context.Background(), GetAdminAnalyticsQuery{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalStudyHours)
	assert.Equal(t, 3, res.TotalUsers)
	// alice 2/3, bob 1/3, carol 0/3 completed topics
	assert.InDelta(t, 33.333, res.AverageCompletionRate, 0.01)
	// latest topic scores per user: alice 30, bob 60, carol 85
	assert.InDelta(t, 58.333, res.AverageTopicScore, 0.01)
	// post-test durations: 600+400+800+200+100+300 over 6 attempts
	assert.InDelta(t, 400.0, res.GlobalAverageTimeSeconds, 0.001)
}

func TestGetAdminAnalytics_HardestTopicExcludesSparseData(t *testing.T) {
	results, cat, users := adminFixture()
	h := NewGetAdminAnalyticsHandler(results, cat, users, nil, logger.Default())

	res, err := h.Handle(context.Background(), GetAdminAnalyticsQuery{})
	require.NoError(t, err)

	// Slices has the global-minimum mean (30) but only one attempt, so
	// Introduction wins the hardest slot despite its higher mean.
	require.NotNil(t, res.HardestTopic)
	assert.Equal(t, topicIntro, res.HardestTopic.TopicID)
	assert.InDelta(t, 78.333, res.HardestTopic.AverageScore, 0.01)
	assert.Equal(t, 4, res.HardestTopic.AttemptCount)
}

func TestGetAdminAnalytics_TopicTable(t *testing.T) {
	results, cat, users := adminFixture()
	h := NewGetAdminAnalyticsHandler(results, cat, users, nil, logger.Default())

	res, err := h.Handle(context.Background(), GetAdminAnalyticsQuery{})
	require.NoError(t, err)
	require.Len(t, res.Topics, 3)

	byID := make(map[string]TopicAnalyticsDTO)
	for _, row := range res.Topics {
		byID[row.TopicID] = row
	}

	intro := byID[topicIntro]
	assert.InDelta(t, 78.333, intro.AverageScore, 0.01)
	// bob's latest 60 is the only one below 70 among three users
	assert.InDelta(t, 33.333, intro.RemedialRate, 0.01)
	assert.Equal(t, 3, intro.UserCount)
	assert.Equal(t, 4, intro.AttemptCount)

	// A topic with zero attempts stays in the table with zeroed metrics.
	traversal := byID[topicTravers]
	assert.Zero(t, traversal.AverageScore)
	assert.Zero(t, traversal.AttemptCount)
	assert.Zero(t, traversal.Difficulty.WeightedScore)
}

func TestGetAdminAnalytics_ModuleTableMergesOwnAndTopicAggregate(t *testing.T) {
	results, cat, users := adminFixture()
	h := NewGetAdminAnalyticsHandler(results, cat, users, nil, logger.Default())

	res, err := h.Handle(context.Background(), GetAdminAnalyticsQuery{})
	require.NoError(t, err)
	require.Len(t, res.Modules, 2)

	basics := res.Modules[0]
	require.Equal(t, moduleBasics, basics.ModuleID)
	// own post-test (80, 1 user) merged with the topics aggregate
	// (alice 30, bob 60, carol 85 -> 58.333, 3 users) weighted by user count
	assert.InDelta(t, 63.75, basics.AverageScore, 0.01)
	assert.Equal(t, 3, basics.UserCount)
	assert.Equal(t, 6, basics.AttemptCount)

	graphs := res.Modules[1]
	require.Equal(t, moduleGraphs, graphs.ModuleID)
	assert.Zero(t, graphs.AttemptCount)
	assert.Zero(t, graphs.Difficulty.WeightedScore)
}

func TestGetAdminAnalytics_EmptyLogDegradesToZeroes(t *testing.T) {
	h := NewGetAdminAnalyticsHandler(&fakeResultRepo{}, fixtureCatalog(), newFakeUserRepo(), nil, logger.Default())

	res, err := h.Handle(context.Background(), GetAdminAnalyticsQuery{})
	require.NoError(t, err)

	assert.Zero(t, res.TotalStudyHours)
	assert.Zero(t, res.AverageCompletionRate)
	assert.Zero(t, res.AverageTopicScore)
	assert.Zero(t, res.TotalUsers)
	assert.Nil(t, res.HardestTopic)
	assert.Equal(t, analytics.DefaultGlobalAverageTimeSeconds, res.GlobalAverageTimeSeconds)
	assert.Len(t, res.Modules, 2)
	assert.Len(t, res.Topics, 3)
}

type fakeDashboardCache struct {
	stored  *GetAdminAnalyticsResult
	setHits int
}

func (c *fakeDashboardCache) GetDashboard(_ context.Context) (*GetAdminAnalyticsResult, error) {
	if c.stored == nil {
		return nil, errors.New("cache miss")
	}
	return c.stored, nil
}

func (c *fakeDashboardCache) SetDashboard(_ context.Context, r *GetAdminAnalyticsResult) error {
	c.stored = r
	c.setHits++
	return nil
}

func (c *fakeDashboardCache) InvalidateDashboard(_ context.Context) error {
	c.stored = nil
	return nil
}

func TestGetAdminAnalytics_CacheRoundTrip(t *testing.T) {
	results, cat, users := adminFixture()
	cache := &fakeDashboardCache{}
	h := NewGetAdminAnalyticsHandler(results, cat, users, cache, logger.Default())

	first, err := h.Handle(context.Background(), GetAdminAnalyticsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.setHits)

	// Second call is served from cache: same payload, no new write.
	second, err := h.Handle(context.Background(), GetAdminAnalyticsQuery{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.setHits)

	// ForceRefresh bypasses the cached copy and stores a fresh one.
	_, err = h.Handle(context.Background(), GetAdminAnalyticsQuery{ForceRefresh: true})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.setHits)
}
