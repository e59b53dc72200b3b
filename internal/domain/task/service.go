package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/ajkarlsson/stint/internal/repository"
)

// DeletePolicy selects how Delete treats interval history.
type DeletePolicy string

const (
	// DeleteSoft hides the tag; its interval rows stay queryable by export.
	DeleteSoft DeletePolicy = "soft"
	// DeleteHard removes the task and its interval rows.
	DeleteHard DeletePolicy = "hard"
)

// HiddenStore persists the soft-delete tag set.
type HiddenStore interface {
	Load() (map[string]struct{}, error)
	Save(tags map[string]struct{}) error
}

// Service owns the tag hierarchy and the soft-delete set.
type Service struct {
	tags      repository.TagStore
	intervals repository.IntervalStore
	store     HiddenStore
	policy    DeletePolicy
	logger    *slog.Logger

	mu     sync.Mutex
	hidden map[string]struct{}
}

// NewService creates a tag hierarchy service with the hidden set loaded
// from its store.
func NewService(
	tags repository.TagStore,
	intervals repository.IntervalStore,
	store HiddenStore,
	policy DeletePolicy,
	logger *slog.Logger,
) (*Service, error) {
	hidden, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading hidden tags: %w", err)
	}
	if policy == "" {
		policy = DeleteSoft
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		tags:      tags,
		intervals: intervals,
		store:     store,
		policy:    policy,
		logger:    logger,
		hidden:    hidden,
	}, nil
}

// AddProject records a bare project tag.
func (s *Service) AddProject(ctx context.Context, name string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, ErrInvalidTag
	}
	return s.add(ctx, Tag{Project: name})
}

// AddTask records a <project>-<task> tag under an existing project name.
func (s *Service) AddTask(ctx context.Context, project, name string) (Tag, error) {
	project = strings.TrimSpace(project)
	name = strings.TrimSpace(name)
	if project == "" || name == "" {
		return Tag{}, ErrInvalidTag
	}
	return s.add(ctx, Tag{Project: project, Task: name})
}

// add registers a tag. Re-adding a hidden tag removes exactly that tag
// from the hidden set instead of failing as a duplicate.
func (s *Service) add(ctx context.Context, tag Tag) (Tag, error) {
	known, err := s.known(ctx)
	if err != nil {
		return Tag{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw := tag.String()
	if _, ok := s.hidden[raw]; ok {
		delete(s.hidden, raw)
		if err := s.store.Save(s.hidden); err != nil {
			s.hidden[raw] = struct{}{}
			return Tag{}, fmt.Errorf("saving hidden tags: %w", err)
		}
		s.logger.Info("restored hidden tag", "tag", raw)
		if _, recorded := known[raw]; recorded {
			return tag, nil
		}
	} else if _, recorded := known[raw]; recorded {
		return Tag{}, ErrDuplicateTag
	}

	if err := s.tags.Register(ctx, raw); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return Tag{}, ErrDuplicateTag
		}
		return Tag{}, fmt.Errorf("registering tag: %w", err)
	}
	return tag, nil
}

// Hide adds a tag to the soft-delete set. Hiding a project also hides
// every recorded <project>-<task> child at that moment.
func (s *Service) Hide(ctx context.Context, tag Tag) error {
	known, err := s.known(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hidden[tag.String()] = struct{}{}
	if tag.IsProject() {
		prefix := tag.Project + Separator
		for raw := range known {
			if strings.HasPrefix(raw, prefix) {
				s.hidden[raw] = struct{}{}
			}
		}
	}
	if err := s.store.Save(s.hidden); err != nil {
		return fmt.Errorf("saving hidden tags: %w", err)
	}
	s.logger.Info("tag hidden", "tag", tag.String())
	return nil
}

// Unhide removes exactly one tag from the hidden set. Restoring a
// project does not resurrect previously hidden children.
func (s *Service) Unhide(ctx context.Context, tag Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := tag.String()
	if _, ok := s.hidden[raw]; !ok {
		return ErrTagNotFound
	}
	delete(s.hidden, raw)
	if err := s.store.Save(s.hidden); err != nil {
		s.hidden[raw] = struct{}{}
		return fmt.Errorf("saving hidden tags: %w", err)
	}
	return nil
}

// Hidden reports whether a tag or its ancestor project is soft-deleted.
func (s *Service) Hidden(tag Tag) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hidden[tag.String()]; ok {
		return true
	}
	_, ok := s.hidden[tag.Project]
	return ok
}

// ListVisible returns the recorded hierarchy with hidden tags excluded.
func (s *Service) ListVisible(ctx context.Context) ([]ProjectView, error) {
	known, err := s.known(ctx)
	if err != nil {
		return nil, err
	}

	byProject := make(map[string][]string)
	for raw := range known {
		tag, err := Parse(raw)
		if err != nil {
			continue
		}
		if s.Hidden(tag) {
			continue
		}
		if tag.IsProject() {
			if _, ok := byProject[tag.Project]; !ok {
				byProject[tag.Project] = nil
			}
			continue
		}
		byProject[tag.Project] = append(byProject[tag.Project], tag.Task)
	}

	views := make([]ProjectView, 0, len(byProject))
	for project, tasks := range byProject {
		sort.Strings(tasks)
		views = append(views, ProjectView{Project: project, Tasks: tasks})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Project < views[j].Project })
	return views, nil
}

// Rename changes a tag's string form, preserving interval history.
func (s *Service) Rename(ctx context.Context, old, updated Tag) error {
	if updated.Project == "" {
		return ErrInvalidTag
	}
	if err := s.tags.Rename(ctx, old.String(), updated.String()); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrTagNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return ErrDuplicateTag
		}
		return fmt.Errorf("renaming tag: %w", err)
	}
	return nil
}

// Delete removes a tag according to the configured policy: soft hides
// it, hard removes the task and its interval rows. Hard deleting a
// project cascades over its recorded children.
func (s *Service) Delete(ctx context.Context, tag Tag) error {
	if s.policy == DeleteSoft {
		return s.Hide(ctx, tag)
	}

	known, err := s.known(ctx)
	if err != nil {
		return err
	}

	targets := []string{tag.String()}
	if tag.IsProject() {
		prefix := tag.Project + Separator
		for raw := range known {
			if strings.HasPrefix(raw, prefix) {
				targets = append(targets, raw)
			}
		}
	}

	for _, raw := range targets {
		if err := s.intervals.DeleteByTag(ctx, raw); err != nil {
			return fmt.Errorf("deleting intervals for %q: %w", raw, err)
		}
		if err := s.tags.Remove(ctx, raw); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("removing tag %q: %w", raw, err)
		}
		s.logger.Info("tag removed", "tag", raw)
	}
	return nil
}

func (s *Service) known(ctx context.Context) (map[string]struct{}, error) {
	raws, err := s.tags.Tags(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	known := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		known[raw] = struct{}{}
	}
	return known, nil
}
