package repository

import (
	"context"
	"time"

	"github.com/ajkarlsson/stint/internal/domain/interval"
)

// IntervalStore is the canonical record of intervals for one backing
// strategy. Implementations exist for the local SQLite store and for the
// external command-line tracker bridge.
type IntervalStore interface {
	// Open starts a new interval for a known tag and returns its id.
	Open(ctx context.Context, tag string, start time.Time) (string, error)

	// Close ends the unique open interval matching (tag, start) and
	// returns the closed record. ErrNotFound when no open interval
	// matches, so a second close attempt makes no duplicate update.
	Close(ctx context.Context, tag string, start, end time.Time) (*interval.Interval, error)

	// List returns the intervals carrying the exact tag, ascending by
	// start time.
	List(ctx context.Context, tag string) ([]interval.Interval, error)

	// ListProject returns intervals for the bare project tag and every
	// <project>-<task> child, ascending by start time.
	ListProject(ctx context.Context, project string) ([]interval.Interval, error)

	// Export returns every stored interval, including records hidden
	// from listings.
	Export(ctx context.Context) ([]interval.Interval, error)

	// FindOpen returns the interval with no end time, or ErrNotFound.
	FindOpen(ctx context.Context) (*interval.Interval, error)

	// Delete removes a single interval record by id.
	Delete(ctx context.Context, id string) error

	// DeleteByTag removes every interval carrying the exact tag.
	DeleteByTag(ctx context.Context, tag string) error

	// Modify rewrites start, end and tags of a closed interval.
	Modify(ctx context.Context, id string, start, end time.Time, tags []string) error
}

// TagStore manages the set of recorded task tags.
type TagStore interface {
	Tags(ctx context.Context) ([]string, error)
	Register(ctx context.Context, tag string) error
	Rename(ctx context.Context, oldTag, newTag string) error
	Remove(ctx context.Context, tag string) error
}
