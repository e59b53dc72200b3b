package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajkarlsson/stint/internal/repository"
	"github.com/ajkarlsson/stint/internal/sqlite"
)

func TestTaskRegisterAndList(t *testing.T) {
	repo := sqlite.NewTaskRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, "work"))
	require.NoError(t, repo.Register(ctx, "work-coding"))
	require.NoError(t, repo.Register(ctx, "play"))

	tags, err := repo.Tags(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"play", "work", "work-coding"}, tags)
}

func TestTaskRegisterDuplicate(t *testing.T) {
	repo := sqlite.NewTaskRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, "work"))
	err := repo.Register(ctx, "work")
	require.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestTaskRename(t *testing.T) {
	repo := sqlite.NewTaskRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, "work"))
	require.NoError(t, repo.Rename(ctx, "work", "job"))

	tags, err := repo.Tags(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"job"}, tags)
}

func TestTaskRenameErrors(t *testing.T) {
	repo := sqlite.NewTaskRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, "work"))
	require.NoError(t, repo.Register(ctx, "play"))

	require.ErrorIs(t, repo.Rename(ctx, "ghost", "other"), repository.ErrNotFound)
	require.ErrorIs(t, repo.Rename(ctx, "play", "work"), repository.ErrDuplicate)
}

func TestTaskRemove(t *testing.T) {
	repo := sqlite.NewTaskRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, "work"))
	require.NoError(t, repo.Remove(ctx, "work"))

	tags, err := repo.Tags(ctx)
	require.NoError(t, err)
	require.Empty(t, tags)

	require.ErrorIs(t, repo.Remove(ctx, "work"), repository.ErrNotFound)
}
