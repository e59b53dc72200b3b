package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ajkarlsson/stint/internal/domain/interval"
	"github.com/ajkarlsson/stint/internal/domain/task"
	"github.com/ajkarlsson/stint/internal/repository"
)

// Period selects the aggregation window relative to now.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name, defaulting to all.
func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case "":
		return PeriodAll, nil
	case PeriodAll, PeriodDay, PeriodWeek, PeriodMonth:
		return Period(raw), nil
	}
	return "", fmt.Errorf("unknown period %q: %w", raw, repository.ErrValidation)
}

// Visibility reports whether a tag is soft-deleted.
type Visibility interface {
	Hidden(t task.Tag) bool
}

// Service computes filtered totals over closed intervals.
type Service struct {
	store      repository.IntervalStore
	visibility Visibility
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new aggregation service.
func NewService(store repository.IntervalStore, visibility Visibility, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{store: store, visibility: visibility, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Total sums the durations of closed, visible intervals for a tag in
// whole seconds. A bare project tag aggregates the project and all of
// its child tasks. Hidden tags total zero.
func (s *Service) Total(ctx context.Context, rawTag string, period Period) (int64, error) {
	t, err := task.Parse(rawTag)
	if err != nil {
		return 0, err
	}
	if s.visibility.Hidden(t) {
		return 0, nil
	}

	var ivs []interval.Interval
	if t.IsProject() {
		ivs, err = s.store.ListProject(ctx, t.Project)
	} else {
		ivs, err = s.store.List(ctx, t.String())
	}
	if err != nil {
		return 0, fmt.Errorf("listing intervals: %w", err)
	}

	now := s.now()
	var total int64
	for _, iv := range ivs {
		if !iv.Closed() {
			continue
		}
		if !s.inScope(t, iv) {
			continue
		}
		if !matches(iv.Start, now, period) {
			continue
		}
		total += int64(iv.Duration() / time.Second)
	}
	return total, nil
}

func (s *Service) inScope(scope task.Tag, iv interval.Interval) bool {
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
		if !s.visibility.Hidden(t) {
			return true
		}
	}
	return false
}

// matches compares the interval start against now for the period.
// Week and month compare the period number only; the year is not part
// of the comparison.
func matches(start, now time.Time, period Period) bool {
	switch period {
	case PeriodDay:
		y1, m1, d1 := start.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case PeriodWeek:
		_, w1 := start.ISOWeek()
		_, w2 := now.ISOWeek()
		return w1 == w2
	case PeriodMonth:
		return start.Month() == now.Month()
	default:
		return true
	}
}
