package query

import (
	"context"
	"sort"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/catalog"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/progress"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/result"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

// Stable UUIDs for fixtures.
const (
	userAlice = "11111111-1111-1111-1111-111111111111"
	userBob   = "22222222-2222-2222-2222-222222222222"
	userCarol = "33333333-3333-3333-3333-333333333333"

	moduleBasics = "aaaaaaaa-0000-0000-0000-000000000001"
	moduleGraphs = "aaaaaaaa-0000-0000-0000-000000000002"

	topicIntro   = "bbbbbbbb-0000-0000-0000-000000000001"
	topicSlices  = "bbbbbbbb-0000-0000-0000-000000000002"
	topicTravers = "bbbbbbbb-0000-0000-0000-000000000003"
)

type fakeResultRepo struct {
	events []*result.TestResult
}

func (f *fakeResultRepo) Append(_ context.Context, r *result.TestResult) error {
	f.events = append(f.events, r)
	return nil
}

func (f *fakeResultRepo) Query(_ context.Context, filter result.Filter) ([]*result.TestResult, error) {
	matched := make([]*result.TestResult, 0)
	for _, ev := range f.events {
		if filter.UserID != "" && ev.UserID != filter.UserID {
			continue
		}
		if filter.ModuleID != "" && ev.ModuleID != filter.ModuleID {
			continue
		}
		if filter.TopicID != "" && ev.TopicID != filter.TopicID {
			continue
		}
		if len(filter.TestTypes) > 0 && !containsType(filter.TestTypes, ev.TestType) {
			continue
		}
		matched = append(matched, ev)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (f *fakeResultRepo) SumStudyTimeSeconds(_ context.Context) (int64, error) {
	var sum int64
	for _, ev := range f.events {
		if ev.TestType == result.TestTypeStudySession {
			sum += int64(ev.TimeTakenSeconds)
		}
	}
	return sum, nil
}

func containsType(types []result.TestType, t result.TestType) bool {
	for _, tt := range types {
		if tt == t {
			return true
		}
	}
	return false
}

type fakeCatalogRepo struct {
	modules []*catalog.Module
	topics  []*catalog.Topic
}

func (f *fakeCatalogRepo) ListModules(_ context.Context) ([]*catalog.Module, error) {
	ordered := make([]*catalog.Module, len(f.modules))
	copy(ordered, f.modules)
	catalog.SortModules(ordered)
	return ordered, nil
}

func (f *fakeCatalogRepo) GetModule(_ context.Context, id shared.ModuleID) (*catalog.Module, error) {
	for _, m := range f.modules {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, shared.ErrModuleNotFound
}

func (f *fakeCatalogRepo) ListTopics(_ context.Context, moduleID shared.ModuleID) ([]*catalog.Topic, error) {
	out := make([]*catalog.Topic, 0)
	for _, t := range f.topics {
		if t.ModuleID == moduleID {
			out = append(out, t)
		}
	}
	catalog.SortTopics(out)
	return out, nil
}

func (f *fakeCatalogRepo) ListAllTopics(_ context.Context) ([]*catalog.Topic, error) {
	ordered := make([]*catalog.Topic, len(f.topics))
	copy(ordered, f.topics)
	catalog.SortTopics(ordered)
	return ordered, nil
}

func (f *fakeCatalogRepo) GetTopic(_ context.Context, id shared.TopicID) (*catalog.Topic, error) {
	for _, t := range f.topics {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, shared.ErrTopicNotFound
}

func (f *fakeCatalogRepo) CountTopics(_ context.Context) (int, error) {
	return len(f.topics), nil
}

type fakeUserRepo struct {
	users       map[shared.UserID]*progress.User
	completions map[shared.UserID]progress.CompletionSet
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:       make(map[shared.UserID]*progress.User),
		completions: make(map[shared.UserID]progress.CompletionSet),
	}
}

func (f *fakeUserRepo) addUser(id string, level progress.LearningLevel, completed ...string) {
	uid := shared.UserID(id)
	f.users[uid] = &progress.User{
		ID:            uid,
		Name:          "User " + id[:8],
		Role:          progress.RoleStudent,
		LearningLevel: level,
	}
	set := make(progress.CompletionSet)
	for _, topicID := range completed {
		set.Add(shared.TopicID(topicID))
	}
	f.completions[uid] = set
}

func (f *fakeUserRepo) GetUser(_ context.Context, id shared.UserID) (*progress.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetProgress(_ context.Context, id shared.UserID) (*progress.UserProgress, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return &progress.UserProgress{
		UserID:           id,
		LearningLevel:    u.LearningLevel,
		TopicCompletions: f.completions[id],
	}, nil
}

func (f *fakeUserRepo) MarkTopicCompleted(_ context.Context, userID shared.UserID, topicID shared.TopicID) error {
	if _, ok := f.users[userID]; !ok {
		return shared.ErrUserNotFound
	}
	f.completions[userID].Add(topicID)
	return nil
}

func (f *fakeUserRepo) CountUsers(_ context.Context) (int, error) {
	return len(f.users), nil
}

func (f *fakeUserRepo) CountCompletionsByUser(_ context.Context) (map[shared.UserID]int, error) {
	counts := make(map[shared.UserID]int)
	for id, set := range f.completions {
		if set.Len() > 0 {
			counts[id] = set.Len()
		}
	}
	return counts, nil
}

// fixtureCatalog builds a two-module catalog: Basics (easy, topics Intro and
// Slices) and Graphs (medium, topic Traversal).
func fixtureCatalog() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		modules: []*catalog.Module{
			{ID: shared.ModuleID(moduleBasics), Title: "Go Basics", Category: catalog.CategoryEasy, Order: 1, Slug: "go-basics"},
			{ID: shared.ModuleID(moduleGraphs), Title: "Graphs", Category: catalog.CategoryMedium, Order: 2, Slug: "graphs"},
		},
		topics: []*catalog.Topic{
			{ID: shared.TopicID(topicIntro), ModuleID: shared.ModuleID(moduleBasics), Title: "Introduction", Order: 1, Slug: "introduction"},
			{ID: shared.TopicID(topicSlices), ModuleID: shared.ModuleID(moduleBasics), Title: "Slices", Order: 2, Slug: "slices"},
			{ID: shared.TopicID(topicTravers), ModuleID: shared.ModuleID(moduleGraphs), Title: "Traversal", Order: 1, Slug: "traversal"},
		},
	}
}
