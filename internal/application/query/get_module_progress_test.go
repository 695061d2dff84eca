package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/progress"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

func TestGetModuleProgress_BasicUserSeesMediumModuleLocked(t *testing.T) {
	users := newFakeUserRepo()
	users.addUser(userBob, progress.LevelBasic, topicIntro)
	h := NewGetModuleProgressHandler(fixtureCatalog(), users)

	res, err := h.Handle(context.Background(), GetModuleProgressQuery{UserID: userBob})
	require.NoError(t, err)
	require.Len(t, res.Modules, 2)

	basics := res.Modules[0]
	assert.Equal(t, moduleBasics, basics.ModuleID)
	assert.False(t, basics.IsLocked)
	assert.Equal(t, "InProgress", basics.Status)
	assert.Equal(t, 1, basics.CompletedTopics)
	assert.Equal(t, 2, basics.TotalTopics)
	assert.InDelta(t, 50.0, basics.Progress, 0.001)

	// Introduction completed unlocks Slices.
	require.Len(t, basics.Topics, 2)
	assert.False(t, basics.Topics[0].IsLocked)
	assert.True(t, basics.Topics[0].IsCompleted)
	assert.False(t, basics.Topics[1].IsLocked)
	assert.False(t, basics.Topics[1].IsCompleted)

	graphs := res.Modules[1]
	assert.True(t, graphs.IsLocked, "medium module is locked for a Basic user")
	assert.Equal(t, "Locked", graphs.Status)
	require.Len(t, graphs.Topics, 1)
	assert.True(t, graphs.Topics[0].IsLocked, "every topic of a locked module is locked")
}

func TestGetModuleProgress_Statuses(t *testing.T) {
	users := newFakeUserRepo()
	users.addUser(userAlice, progress.LevelAdvanced, topicIntro, topicSlices)
	h := NewGetModuleProgressHandler(fixtureCatalog(), users)

	res, err := h.Handle(context.Background(), GetModuleProgressQuery{UserID: userAlice})
	require.NoError(t, err)
	require.Len(t, res.Modules, 2)

	assert.Equal(t, "Done", res.Modules[0].Status)
	assert.InDelta(t, 100.0, res.Modules[0].Progress, 0.001)

	assert.Equal(t, "NotStarted", res.Modules[1].Status)
	assert.False(t, res.Modules[1].IsLocked)
}

func TestGetModuleProgress_UnknownUser(t *testing.T) {
	h := NewGetModuleProgressHandler(fixtureCatalog(), newFakeUserRepo())

	_, err := h.Handle(context.Background(), GetModuleProgressQuery{UserID: userAlice})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestGetModuleProgress_MalformedID(t *testing.T) {
	h := NewGetModuleProgressHandler(fixtureCatalog(), newFakeUserRepo())

	_, err := h.Handle(context.Background(), GetModuleProgressQuery{UserID: "42"})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}
