package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ajkarlsson/stint/internal/domain/interval"
	"github.com/ajkarlsson/stint/internal/repository"
	"github.com/ajkarlsson/stint/internal/sqlite"
)

func at(clock string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", clock, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func newIntervalRepo(t *testing.T, tags ...string) (*sqlite.IntervalRepository, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	tasks := sqlite.NewTaskRepository(db)
	for _, tag := range tags {
		require.NoError(t, tasks.Register(context.Background(), tag))
	}
	return sqlite.NewIntervalRepository(db), db
}

func TestOpenUnknownTask(t *testing.T) {
	repo, _ := newIntervalRepo(t)

	_, err := repo.Open(context.Background(), "ghost", at("2026-03-02 09:00:00"))
	require.ErrorIs(t, err, repository.ErrValidation)
}

func TestOpenAndClose(t *testing.T) {
	repo, db := newIntervalRepo(t, "work")
	ctx := context.Background()
	start := at("2026-03-02 09:00:00")
	end := at("2026-03-02 09:30:15")

	id, err := repo.Open(ctx, "work", start)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	iv, err := repo.Close(ctx, "work", start, end)
	require.NoError(t, err)
	require.Equal(t, id, iv.ID)
	require.Equal(t, []string{"work"}, iv.Tags)
	require.True(t, iv.Closed())
	require.Equal(t, 30*time.Minute+15*time.Second, iv.Duration())

	// The stored duration column carries the H:MM:SS rendering.
	var stored string
	err = db.QueryRow(`SELECT duration FROM time_logs WHERE id = ?`, iv.ID).Scan(&stored)
	require.NoError(t, err)
	require.Equal(t, "0:30:15", stored)
}

func TestCloseTwice(t *testing.T) {
	repo, _ := newIntervalRepo(t, "work")
	ctx := context.Background()
	start := at("2026-03-02 09:00:00")
	end := at("2026-03-02 10:00:00")

	_, err := repo.Open(ctx, "work", start)
	require.NoError(t, err)
	_, err = repo.Close(ctx, "work", start, end)
	require.NoError(t, err)

	_, err = repo.Close(ctx, "work", start, end)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCloseInvalidRange(t *testing.T) {
	repo, _ := newIntervalRepo(t, "work")

	_, err := repo.Close(context.Background(), "work", at("2026-03-02 10:00:00"), at("2026-03-02 09:00:00"))
	require.ErrorIs(t, err, interval.ErrInvalidRange)
}

func TestFindOpen(t *testing.T) {
	repo, _ := newIntervalRepo(t, "work")
	ctx := context.Background()

	_, err := repo.FindOpen(ctx)
	require.ErrorIs(t, err, repository.ErrNotFound)

	start := at("2026-03-02 09:00:00")
	id, err := repo.Open(ctx, "work", start)
	require.NoError(t, err)

	open, err := repo.FindOpen(ctx)
	require.NoError(t, err)
	require.Equal(t, id, open.ID)
	require.False(t, open.Closed())
	require.Equal(t, start, open.Start)
}

func TestListOrdering(t *testing.T) {
	repo, _ := newIntervalRepo(t, "work")
	ctx := context.Background()

	for _, span := range [][2]string{
		{"2026-03-02 10:00:00", "2026-03-02 11:00:00"},
		{"2026-03-02 08:00:00", "2026-03-02 09:00:00"},
	} {
		start, end := at(span[0]), at(span[1])
		_, err := repo.Open(ctx, "work", start)
		require.NoError(t, err)
		_, err = repo.Close(ctx, "work", start, end)
		require.NoError(t, err)
	}

	ivs, err := repo.List(ctx, "work")
	require.NoError(t, err)
	require.Len(t, ivs, 2)
	require.True(t, ivs[0].Start.Before(ivs[1].Start))
}

func TestListProject(t *testing.T) {
	repo, _ := newIntervalRepo(t, "work", "work-coding", "workshop")
	ctx := context.Background()

	for i, tag := range []string{"work", "work-coding", "workshop"} {
		start := at("2026-03-02 09:00:00").Add(time.Duration(i) * time.Hour)
		_, err := repo.Open(ctx, tag, start)
		require.NoError(t, err)
		_, err = repo.Close(ctx, tag, start, start.Add(10*time.Minute))
		require.NoError(t, err)
	}

	// "workshop" shares the prefix text but is not a child of "work".
	ivs, err := repo.ListProject(ctx, "work")
	require.NoError(t, err)
	require.Len(t, ivs, 2)
	require.Equal(t, []string{"work"}, ivs[0].Tags)
	require.Equal(t, []string{"work-coding"}, ivs[1].Tags)
}

func TestDelete(t *testing.T) {
	repo, _ := newIntervalRepo(t, "work")
	ctx := context.Background()
	start := at("2026-03-02 09:00:00")

	id, err := repo.Open(ctx, "work", start)
	require.NoError(t, err)
	_, err = repo.Close(ctx, "work", start, start.Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))
	require.ErrorIs(t, repo.Delete(ctx, id), repository.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "not-a-number"), repository.ErrNotFound)
}

func TestDeleteByTag(t *testing.T) {
	repo, _ := newIntervalRepo(t, "work", "play")
	ctx := context.Background()

	for _, tag := range []string{"work", "play"} {
		start := at("2026-03-02 09:00:00")
		_, err := repo.Open(ctx, tag, start)
		require.NoError(t, err)
		_, err = repo.Close(ctx, tag, start, start.Add(time.Hour))
		require.NoError(t, err)
	}

	require.NoError(t, repo.DeleteByTag(ctx, "work"))

	ivs, err := repo.List(ctx, "work")
	require.NoError(t, err)
	require.Empty(t, ivs)

	ivs, err = repo.List(ctx, "play")
	require.NoError(t, err)
	require.Len(t, ivs, 1)
}

func TestModify(t *testing.T) {
	repo, _ := newIntervalRepo(t, "work", "play")
	ctx := context.Background()
	start := at("2026-03-02 09:00:00")

	id, err := repo.Open(ctx, "work", start)
	require.NoError(t, err)
	_, err = repo.Close(ctx, "work", start, start.Add(time.Hour))
	require.NoError(t, err)

	newStart := at("2026-03-02 08:00:00")
	newEnd := at("2026-03-02 08:45:00")
	require.NoError(t, repo.Modify(ctx, id, newStart, newEnd, []string{"play"}))

	ivs, err := repo.List(ctx, "play")
	require.NoError(t, err)
	require.Len(t, ivs, 1)
	require.Equal(t, newStart, ivs[0].Start)
	require.Equal(t, 45*time.Minute, ivs[0].Duration())
}

func TestModifyErrors(t *testing.T) {
	repo, _ := newIntervalRepo(t, "work")
	ctx := context.Background()
	start := at("2026-03-02 09:00:00")
	end := at("2026-03-02 10:00:00")

	err := repo.Modify(ctx, "1", end, start, nil)
	require.ErrorIs(t, err, interval.ErrInvalidRange)

	require.ErrorIs(t, repo.Modify(ctx, "99", start, end, nil), repository.ErrNotFound)

	// Open rows are not editable.
	id, err := repo.Open(ctx, "work", start)
	require.NoError(t, err)
	require.ErrorIs(t, repo.Modify(ctx, id, start, end, nil), repository.ErrNotFound)
}

func TestExport(t *testing.T) {
	repo, _ := newIntervalRepo(t, "work", "play")
	ctx := context.Background()

	spans := []struct {
		tag   string
		start string
	}{
		{"play", "2026-03-02 11:00:00"},
		{"work", "2026-03-02 09:00:00"},
	}
	for _, span := range spans {
		start := at(span.start)
		_, err := repo.Open(ctx, span.tag, start)
		require.NoError(t, err)
		_, err = repo.Close(ctx, span.tag, start, start.Add(30*time.Minute))
		require.NoError(t, err)
	}

	ivs, err := repo.Export(ctx)
	require.NoError(t, err)
	require.Len(t, ivs, 2)
	require.Equal(t, []string{"work"}, ivs[0].Tags)
	require.Equal(t, []string{"play"}, ivs[1].Tags)
}
