package mocks

import (
	"context"
	"time"

	"github.com/ajkarlsson/stint/internal/domain/interval"
	"github.com/stretchr/testify/mock"
)

// IntervalStore is a mock for repository.IntervalStore.
type IntervalStore struct {
	mock.Mock
}

func (m *IntervalStore) Open(ctx context.Context, tag string, start time.Time) (string, error) {
	args := m.Called(ctx, tag, start)
	return args.String(0), args.Error(1)
}

func (m *IntervalStore) Close(ctx context.Context, tag string, start, end time.Time) (*interval.Interval, error) {
	args := m.Called(ctx, tag, start, end)
	if iv, ok := args.Get(0).(*interval.Interval); ok {
		return iv, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IntervalStore) List(ctx context.Context, tag string) ([]interval.Interval, error) {
	args := m.Called(ctx, tag)
	if ivs, ok := args.Get(0).([]interval.Interval); ok {
		return ivs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IntervalStore) ListProject(ctx context.Context, project string) ([]interval.Interval, error) {
	args := m.Called(ctx, project)
	if ivs, ok := args.Get(0).([]interval.Interval); ok {
		return ivs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IntervalStore) Export(ctx context.Context) ([]interval.Interval, error) {
	args := m.Called(ctx)
	if ivs, ok := args.Get(0).([]interval.Interval); ok {
		return ivs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IntervalStore) FindOpen(ctx context.Context) (*interval.Interval, error) {
	args := m.Called(ctx)
	if iv, ok := args.Get(0).(*interval.Interval); ok {
		return iv, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IntervalStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *IntervalStore) DeleteByTag(ctx context.Context, tag string) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *IntervalStore) Modify(ctx context.Context, id string, start, end time.Time, tags []string) error {
	args := m.Called(ctx, id, start, end, tags)
	return args.Error(0)
}

// TagStore is a mock for repository.TagStore.
type TagStore struct {
	mock.Mock
}

func (m *TagStore) Tags(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if tags, ok := args.Get(0).([]string); ok {
		return tags, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TagStore) Register(ctx context.Context, tag string) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *TagStore) Rename(ctx context.Context, oldTag, newTag string) error {
	args := m.Called(ctx, oldTag, newTag)
	return args.Error(0)
}

func (m *TagStore) Remove(ctx context.Context, tag string) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}
