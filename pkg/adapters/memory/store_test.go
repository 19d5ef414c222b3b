package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/loophound/pkg/adapters/memory"
	"github.com/aretw0/loophound/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadIsolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	state := domain.NewRunState(2, 0)
	require.NoError(t, store.Save(ctx, "run-1", state))

	// Mutating the original must not leak into the stored copy.
	state.Agents[0].MoveTo(3)

	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Agents[0].CurrentNode)

	// Mutating the loaded copy must not leak back either.
	loaded.Agents[1].Finished = true
	again, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.False(t, again.Agents[1].Finished)
}

func TestStore_MissingSession(t *testing.T) {
	store := memory.NewStore()
	_, err := store.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_DeleteAndList(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", domain.NewRunState(1, 0)))
	require.NoError(t, store.Save(ctx, "b", domain.NewRunState(1, 0)))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestProgramSource_EditBetweenRounds(t *testing.T) {
	src := memory.NewProgramSource("S", "N")
	ctx := context.Background()

	progs, err := src.Programs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "N"}, progs)

	require.NoError(t, src.SetProgram(1, "CL"))
	progs, err = src.Programs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "CL"}, progs)

	assert.Error(t, src.SetProgram(5, "S"))
}
