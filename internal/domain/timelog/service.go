package timelog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ajkarlsson/stint/internal/domain/interval"
	"github.com/ajkarlsson/stint/internal/domain/task"
	"github.com/ajkarlsson/stint/internal/repository"
)

// Annotations is the metadata overlay keyed by interval id.
type Annotations interface {
	Set(id, text string) error
	Get(id string) (string, error)
	Remove(id string) error
	Merge(ivs []interval.Interval) ([]interval.Interval, error)
}

// Visibility reports whether a tag is soft-deleted.
type Visibility interface {
	Hidden(t task.Tag) bool
}

// Service is the interval review and edit surface: listings merged with
// annotations, explicit entry deletion and closed-interval edits.
type Service struct {
	store      repository.IntervalStore
	notes      Annotations
	visibility Visibility
	logger     *slog.Logger
}

// NewService creates a new timelog service.
func NewService(store repository.IntervalStore, notes Annotations, visibility Visibility, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, notes: notes, visibility: visibility, logger: logger}
}

// List returns the visible intervals for a tag, annotation-merged,
// ascending by start time. A bare project tag covers the project and
// all of its child tasks.
func (s *Service) List(ctx context.Context, rawTag string) ([]interval.Interval, error) {
	t, err := task.Parse(rawTag)
	if err != nil {
		return nil, err
	}
	if s.visibility.Hidden(t) {
		return nil, nil
	}

	var ivs []interval.Interval
	if t.IsProject() {
		ivs, err = s.store.ListProject(ctx, t.Project)
	} else {
		ivs, err = s.store.List(ctx, t.String())
	}
	if err != nil {
		return nil, fmt.Errorf("listing intervals: %w", err)
	}

	visible := make([]interval.Interval, 0, len(ivs))
	for _, iv := range ivs {
		if visibleFor(s.visibility, t, iv) {
			visible = append(visible, iv)
		}
	}

	merged, err := s.notes.Merge(visible)
	if err != nil {
		return nil, fmt.Errorf("merging annotations: %w", err)
	}
	return merged, nil
}

// Export returns every stored interval unfiltered, annotation-merged.
// Hidden tags are included; the raw history stays retrievable here even
// while soft-deleted.
func (s *Service) Export(ctx context.Context) ([]interval.Interval, error) {
	ivs, err := s.store.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting intervals: %w", err)
	}
	merged, err := s.notes.Merge(ivs)
	if err != nil {
		return nil, fmt.Errorf("merging annotations: %w", err)
	}
	return merged, nil
}

// Delete removes an interval record and its annotation. A failed
// annotation cleanup is logged, not fatal.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return interval.ErrIntervalNotFound
		}
		return fmt.Errorf("deleting interval: %w", err)
	}
	if err := s.notes.Remove(id); err != nil {
		s.logger.Warn("failed to drop annotation", "interval", id, "error", err)
	}
	return nil
}

// Modify rewrites start, end and tags of a closed interval. The
// annotation is keyed by id and survives the edit.
func (s *Service) Modify(ctx context.Context, id string, start, end time.Time, tags []string) error {
	if end.Before(start) {
		return interval.ErrInvalidRange
	}
	if err := s.store.Modify(ctx, id, start, end, tags); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return interval.ErrIntervalNotFound
		}
		return fmt.Errorf("modifying interval: %w", err)
	}
	return nil
}

// Annotate attaches free text to an interval id.
func (s *Service) Annotate(id, text string) error {
	if err := s.notes.Set(id, text); err != nil {
		return fmt.Errorf("saving annotation: %w", err)
	}
	return nil
}

// Annotation returns the stored text for an interval id, empty when
// absent.
func (s *Service) Annotation(id string) (string, error) {
	return s.notes.Get(id)
}

// visibleFor reports whether an interval belongs to the queried tag's
// scope through at least one non-hidden tag.
func visibleFor(visibility Visibility, scope task.Tag, iv interval.Interval) bool {
	for _, raw := range iv.Tags {
		t, err := task.Parse(raw)
		if err != nil {
			continue
		}
		if scope.IsProject() {
			if t.Project != scope.Project {
				continue
			}
		} else if t != scope {
			continue
		}
		if !visibility.Hidden(t) {
			return true
		}
	}
	return false
}
