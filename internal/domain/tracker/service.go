package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ajkarlsson/stint/internal/domain/interval"
	"github.com/ajkarlsson/stint/internal/repository"
	"github.com/google/uuid"
)

// Running describes the active session.
type Running struct {
	SessionID  string    `json:"session_id"`
	Tag        string    `json:"tag"`
	IntervalID string    `json:"interval_id"`
	Start      time.Time `json:"start"`
}

// Service is the session state machine. At most one interval across the
// whole system may be open at any instant, regardless of task.
type Service struct {
	store  repository.IntervalStore
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	current *Running
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new session tracker.
func NewService(store repository.IntervalStore, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens an interval for the tag. Starting the already-running tag
// is a no-op; starting while a different tag runs fails with
// ErrAlreadyRunning and mutates nothing.
func (s *Service) Start(ctx context.Context, tag string) (Running, error) {
	if strings.TrimSpace(tag) == "" {
		return Running{}, fmt.Errorf("empty tag: %w", repository.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		if s.current.Tag == tag {
			return *s.current, nil
		}
		return Running{}, ErrAlreadyRunning
	}

	start := s.now()
	id, err := s.store.Open(ctx, tag, start)
	if err != nil {
		return Running{}, fmt.Errorf("opening interval: %w", err)
	}

	run := &Running{
		SessionID:  uuid.NewString(),
		Tag:        tag,
		IntervalID: id,
		Start:      start,
	}
	s.current = run
	s.logger.Info("tracking started", "session", run.SessionID, "tag", tag)
	return *run, nil
}

// Stop closes the open interval with the current time. A no-op when
// idle. On a failed write the open-session pointer is kept so the
// caller can retry.
func (s *Service) Stop(ctx context.Context) (*interval.Interval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, nil
	}

	end := s.now()
	iv, err := s.store.Close(ctx, s.current.Tag, s.current.Start, end)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Closed out from under us; treat as already stopped.
			s.logger.Warn("no open interval to close", "tag", s.current.Tag)
			s.current = nil
			return nil, nil
		}
		return nil, fmt.Errorf("closing interval: %w", err)
	}

	s.logger.Info("tracking stopped",
		"session", s.current.SessionID,
		"tag", s.current.Tag,
		"duration", iv.Duration().String(),
	)
	s.current = nil
	return iv, nil
}

// Elapsed returns the running session's age, zero when idle. Purely a
// read, no side effect.
func (s *Service) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return 0
	}
	return s.now().Sub(s.current.Start).Truncate(time.Second)
}

// Current returns a copy of the active session, if any.
func (s *Service) Current() (Running, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Running{}, false
	}
	return *s.current, true
}

// Resume adopts an interval left open by an unclean shutdown so the
// next Stop closes it.
func (s *Service) Resume(ctx context.Context) (*Running, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		run := *s.current
		return &run, nil
	}

	open, err := s.store.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding open interval: %w", err)
	}

	tag := ""
	if len(open.Tags) > 0 {
		tag = open.Tags[0]
	}
	s.current = &Running{
		SessionID:  uuid.NewString(),
		Tag:        tag,
		IntervalID: open.ID,
		Start:      open.Start,
	}
	s.logger.Info("resumed open interval", "session", s.current.SessionID, "tag", tag, "start", open.Start)
	run := *s.current
	return &run, nil
}

// Shutdown closes any running session before process exit. A failed
// flush is logged and swallowed; shutdown must never block termination.
func (s *Service) Shutdown(ctx context.Context) {
	if _, err := s.Stop(ctx); err != nil {
		s.logger.Error("failed to flush running session", "error", err)
	}
}
