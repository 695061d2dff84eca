package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/progress"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/result"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

func studentFixture() (*fakeResultRepo, *fakeCatalogRepo, *fakeUserRepo) {
	users := newFakeUserRepo()
	users.addUser(userAlice, progress.LevelIntermediate, topicIntro)

	results := &fakeResultRepo{events: []*result.TestResult{
		// Introduction: failed once, passed on retry.
		adminEvent(userAlice, result.TestTypePostTestTopic, 55, 700, "", topicIntro, 1*time.Hour),
		adminEvent(userAlice, result.TestTypePostTestTopic, 88, 500, "", topicIntro, 2*time.Hour),
		// Traversal in the Graphs module: one weak attempt.
		adminEvent(userAlice, result.TestTypePostTestTopic, 42, 900, "", topicTravers, 3*time.Hour),
		// Module post-test for Go Basics.
		adminEvent(userAlice, result.TestTypePostTestModule, 75, 650, moduleBasics, "", 4*time.Hour),
		// Study session: never counted into post-test time.
		adminEvent(userAlice, result.TestTypeStudySession, 0, 4000, "", "", 1*time.Hour),
		// Another student's attempts must not leak into alice's view.
		adminEvent(userBob, result.TestTypePostTestTopic, 10, 50, "", topicSlices, 1*time.Hour),
	}}

	return results, fixtureCatalog(), users
}

func TestGetStudentAnalytics(t *testing.T) {
	results, cat, users := studentFixture()
	h := NewGetStudentAnalyticsHandler(results, cat, users)

	res, err := h.Handle(context.Background(), GetStudentAnalyticsQuery{UserID: userAlice})
	require.NoError(t, err)

	assert.Equal(t, userAlice, res.UserID)
	assert.Equal(t, "Intermediate", res.LearningLevel)
	// one completed topic of three
	assert.InDelta(t, 33.333, res.CompletionRate, 0.01)
	// post-test durations only: (700+500+900+650)/4
	assert.InDelta(t, 687.5, res.AverageTimeSeconds, 0.001)

	require.NotNil(t, res.WeakestTopic)
	assert.Equal(t, topicTravers, res.WeakestTopic.TopicID)
	assert.Equal(t, 42, res.WeakestTopic.LatestScore)
}

func TestGetStudentAnalytics_ModuleBreakdown(t *testing.T) {
	results, cat, users := studentFixture()
	h := NewGetStudentAnalyticsHandler(results, cat, users)

	res, err := h.Handle(context.Background(), GetStudentAnalyticsQuery{UserID: userAlice})
	require.NoError(t, err)
	require.Len(t, res.Modules, 2)

	basics := res.Modules[0]
	assert.Equal(t, moduleBasics, basics.ModuleID)
	require.NotNil(t, basics.ModuleScore)
	assert.Equal(t, 75, *basics.ModuleScore)
	// Slices was never attempted by alice: absent, not zero.
	require.Len(t, basics.Topics, 1)
	assert.Equal(t, topicIntro, basics.Topics[0].TopicID)
	assert.Equal(t, 88, basics.Topics[0].LatestScore, "latest attempt wins over the failed first try")
	assert.InDelta(t, 600.0, basics.Topics[0].AverageTimeSeconds, 0.001)
	assert.Equal(t, 2, basics.Topics[0].AttemptCount)

	graphs := res.Modules[1]
	assert.Equal(t, moduleGraphs, graphs.ModuleID)
	assert.Nil(t, graphs.ModuleScore, "module post-test never attempted")
	require.Len(t, graphs.Topics, 1)
	assert.Equal(t, 42, graphs.Topics[0].LatestScore)
}

func TestGetStudentAnalytics_CompletionOfRemovedTopicNotCounted(t *testing.T) {
	users := newFakeUserRepo()
	// One real completion plus one referencing a topic gone from the catalog.
	users.addUser(userAlice, progress.LevelIntermediate,
		topicIntro, "bbbbbbbb-0000-0000-0000-00000000dead")
	h := NewGetStudentAnalyticsHandler(&fakeResultRepo{}, fixtureCatalog(), users)

	res, err := h.Handle(context.Background(), GetStudentAnalyticsQuery{UserID: userAlice})
	require.NoError(t, err)

	// still one completed topic of three
	assert.InDelta(t, 33.333, res.CompletionRate, 0.01)
}

func TestGetStudentAnalytics_NoAttempts(t *testing.T) {
	users := newFakeUserRepo()
	users.addUser(userCarol, progress.LevelBasic)
	h := NewGetStudentAnalyticsHandler(&fakeResultRepo{}, fixtureCatalog(), users)

	res, err := h.Handle(context.Background(), GetStudentAnalyticsQuery{UserID: userCarol})
	require.NoError(t, err)

	assert.Zero(t, res.CompletionRate)
	assert.Zero(t, res.AverageTimeSeconds)
	assert.Nil(t, res.WeakestTopic)
	assert.Empty(t, res.Modules)
}

func TestGetStudentAnalytics_UnknownUser(t *testing.T) {
	h := NewGetStudentAnalyticsHandler(&fakeResultRepo{}, fixtureCatalog(), newFakeUserRepo())

	_, err := h.Handle(context.Background(), GetStudentAnalyticsQuery{UserID: userAlice})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestGetStudentAnalytics_MalformedIDRejectedBeforeQuerying(t *testing.T) {
	h := NewGetStudentAnalyticsHandler(&fakeResultRepo{}, fixtureCatalog(), newFakeUserRepo())

	_, err := h.Handle(context.Background(), GetStudentAnalyticsQuery{UserID: "not-a-uuid"})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}
