package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/catalog"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/progress"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/result"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
	"github.com/lentera-edu/lentera-lms-backend/pkg/logger"
)

const (
	cmdUser   = "11111111-1111-1111-1111-111111111111"
	cmdModule = "aaaaaaaa-0000-0000-0000-000000000001"
	cmdTopic  = "bbbbbbbb-0000-0000-0000-000000000001"
)

type fakeResultRepo struct {
	appended []*result.TestResult
}

func (f *fakeResultRepo) Append(_ context.Context, r *result.TestResult) error {
	f.appended = append(f.appended, r)
	return nil
}

func (f *fakeResultRepo) Query(_ context.Context, _ result.Filter) ([]*result.TestResult, error) {
	return f.appended, nil
}

func (f *fakeResultRepo) SumStudyTimeSeconds(_ context.Context) (int64, error) {
	return 0, nil
}

type fakeCatalogRepo struct{}

func (f *fakeCatalogRepo) ListModules(_ context.Context) ([]*catalog.Module, error) { return nil, nil }
func (f *fakeCatalogRepo) ListAllTopics(_ context.Context) ([]*catalog.Topic, error) {
	return nil, nil
}
func (f *fakeCatalogRepo) ListTopics(_ context.Context, _ shared.ModuleID) ([]*catalog.Topic, error) {
	return nil, nil
}
func (f *fakeCatalogRepo) CountTopics(_ context.Context) (int, error) { return 0, nil }

func (f *fakeCatalogRepo) GetModule(_ context.Context, id shared.ModuleID) (*catalog.Module, error) {
	if id != shared.ModuleID(cmdModule) {
		return nil, shared.ErrModuleNotFound
	}
	return &catalog.Module{ID: id, Title: "Go Basics", Category: catalog.CategoryEasy, Order: 1}, nil
}

func (f *fakeCatalogRepo) GetTopic(_ context.Context, id shared.TopicID) (*catalog.Topic, error) {
	if id != shared.TopicID(cmdTopic) {
		return nil, shared.ErrTopicNotFound
	}
	return &catalog.Topic{ID: id, ModuleID: shared.ModuleID(cmdModule), Title: "Introduction", Order: 1}, nil
}

type fakeUserRepo struct {
	completions map[shared.TopicID]int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{completions: make(map[shared.TopicID]int)}
}

func (f *fakeUserRepo) GetUser(_ context.Context, id shared.UserID) (*progress.User, error) {
	if id != shared.UserID(cmdUser) {
		return nil, shared.ErrUserNotFound
	}
	return &progress.User{ID: id, Name: "Sari", LearningLevel: progress.LevelBasic}, nil
}

func (f *fakeUserRepo) GetProgress(_ context.Context, id shared.UserID) (*progress.UserProgress, error) {
	return &progress.UserProgress{UserID: id, LearningLevel: progress.LevelBasic, TopicCompletions: make(progress.CompletionSet)}, nil
}

func (f *fakeUserRepo) MarkTopicCompleted(_ context.Context, _ shared.UserID, topicID shared.TopicID) error {
	f.completions[topicID]++
	return nil
}

func (f *fakeUserRepo) CountUsers(_ context.Context) (int, error) { return 1, nil }
func (f *fakeUserRepo) CountCompletionsByUser(_ context.Context) (map[shared.UserID]int, error) {
	return nil, nil
}

type capturingPublisher struct {
	published []shared.Event
}

func (p *capturingPublisher) Publish(_ context.Context, e shared.Event) error {
	p.published = append(p.published, e)
	return nil
}

func newHandler() (*RecordTestResultHandler, *fakeResultRepo, *fakeUserRepo, *capturingPublisher) {
	results := &fakeResultRepo{}
	users := newFakeUserRepo()
	bus := &capturingPublisher{}
	h := NewRecordTestResultHandler(results, &fakeCatalogRepo{}, users, bus, logger.Default())
	return h, results, users, bus
}

func TestRecordTestResult_PassingTopicPostTestMarksCompletion(t *testing.T) {
	h, results, users, bus := newHandler()

	res, err := h.Handle(context.Background(), RecordTestResultCommand{
		UserID:           cmdUser,
		TestType:         "post-test-topik",
		Score:            85,
		Correct:          17,
		Total:            20,
		TimeTakenSeconds: 420,
		TopicID:          cmdTopic,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ResultID)
	assert.True(t, res.Passed)
	assert.True(t, res.TopicCompleted)

	require.Len(t, results.appended, 1)
	assert.Equal(t, result.TestTypePostTestTopic, results.appended[0].TestType)
	assert.Equal(t, 1, users.completions[shared.TopicID(cmdTopic)])

	// topic.completed first, then result.recorded
	require.Len(t, bus.published, 2)
	assert.Equal(t, shared.EventTopicCompleted, bus.published[0].EventType())
	assert.Equal(t, shared.EventResultRecorded, bus.published[1].EventType())
}

func TestRecordTestResult_FailingScoreDoesNotComplete(t *testing.T) {
	h, results, users, bus := newHandler()

	res, err := h.Handle(context.Background(), RecordTestResultCommand{
		UserID:           cmdUser,
		TestType:         "post-test-topik",
		Score:            69,
		Correct:          13,
		Total:            20,
		TimeTakenSeconds: 600,
		TopicID:          cmdTopic,
	})
	require.NoError(t, err)

	assert.False(t, res.Passed)
	assert.False(t, res.TopicCompleted)
	assert.Len(t, results.appended, 1, "failed attempts still land in the log")
	assert.Empty(t, users.completions)
	require.Len(t, bus.published, 1)
	assert.Equal(t, shared.EventResultRecorded, bus.published[0].EventType())
}

func TestRecordTestResult_ModulePostTestNeverMarksTopics(t *testing.T) {
	h, _, users, _ := newHandler()

	res, err := h.Handle(context.Background(), RecordTestResultCommand{
		UserID:           cmdUser,
		TestType:         "post-test-modul",
		Score:            95,
		Correct:          19,
		Total:            20,
		TimeTakenSeconds: 900,
		ModuleID:         cmdModule,
	})
	require.NoError(t, err)

	assert.True(t, res.Passed)
	assert.False(t, res.TopicCompleted)
	assert.Empty(t, users.completions)
}

func TestRecordTestResult_Validation(t *testing.T) {
	h, results, _, _ := newHandler()

	tests := []struct {
		name string
		cmd  RecordTestResultCommand
	}{
		{
			name: "malformed user ID",
			cmd:  RecordTestResultCommand{UserID: "nope", TestType: "post-test-topik", Score: 80, Total: 10, TopicID: cmdTopic},
		},
		{
			name: "unknown test type",
			cmd:  RecordTestResultCommand{UserID: cmdUser, TestType: "final-exam", Score: 80, Total: 10},
		},
		{
			name: "score above 100",
			cmd:  RecordTestResultCommand{UserID: cmdUser, TestType: "post-test-topik", Score: 101, Total: 10, TopicID: cmdTopic},
		},
		{
			name: "topic post-test without topic reference",
			cmd:  RecordTestResultCommand{UserID: cmdUser, TestType: "post-test-topik", Score: 80, Total: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(context.Background(), tt.cmd)
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))
		})
	}
	assert.Empty(t, results.appended, "nothing invalid ever reaches the log")
}

func TestRecordTestResult_UnknownReferences(t *testing.T) {
	h, results, _, _ := newHandler()

	_, err := h.Handle(context.Background(), RecordTestResultCommand{
		UserID: cmdUser, TestType: "post-test-topik", Score: 80, Correct: 8, Total: 10,
		TopicID: "bbbbbbbb-0000-0000-0000-00000000dead",
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))

	_, err = h.Handle(context.Background(), RecordTestResultCommand{
		UserID: "99999999-9999-9999-9999-999999999999", TestType: "study-session",
		TimeTakenSeconds: 300,
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))

	assert.Empty(t, results.appended)
}
