package timew

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ajkarlsson/stint/internal/domain/interval"
	"github.com/ajkarlsson/stint/internal/repository"
)

// exportTimeLayout is the backend's compact ISO-8601 timestamp form.
const exportTimeLayout = "20060102T150405Z"

// deletedMarkerTag hides a single interval from listings. The backend
// has no per-record delete, so deletion is represented by re-tagging;
// export output keeps the raw row.
const deletedMarkerTag = "stint-deleted"

// Client bridges IntervalStore and TagStore onto an external
// command-line time tracker. Interval ids and timestamps are
// backend-assigned; the caller-provided times on Open/Close are
// advisory only.
type Client struct {
	runner Runner
	logger *slog.Logger
}

// NewClient creates a backend bridge over a runner.
func NewClient(runner Runner, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{runner: runner, logger: logger}
}

// exportEntry mirrors one record of the backend's export JSON.
type exportEntry struct {
	ID    int      `json:"id"`
	Start string   `json:"start"`
	End   string   `json:"end,omitempty"`
	Tags  []string `json:"tags"`
}

// Ping checks that the backend binary responds.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, "--version"); err != nil {
		return fmt.Errorf("probing backend: %w", err)
	}
	return nil
}

// Open starts tracking the tag and returns the backend-assigned id of
// the now-open interval.
func (c *Client) Open(ctx context.Context, tag string, start time.Time) (string, error) {
	if _, err := c.runner.Run(ctx, "start", tag); err != nil {
		return "", err
	}

	open, err := c.FindOpen(ctx)
	if err != nil {
		return "", fmt.Errorf("locating started interval: %w", err)
	}
	c.logger.Debug("backend tracking started", "tag", tag, "interval", open.ID)
	return open.ID, nil
}

// Close stops the active tracking. ErrNotFound when nothing is being
// tracked or the open interval belongs to another tag.
func (c *Client) Close(ctx context.Context, tag string, start, end time.Time) (*interval.Interval, error) {
	open, err := c.FindOpen(ctx)
	if err != nil {
		return nil, err
	}
	if !open.HasTag(tag) {
		return nil, repository.ErrNotFound
	}

	if _, err := c.runner.Run(ctx, "stop"); err != nil {
		return nil, err
	}

	ivs, err := c.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("reloading closed interval: %w", err)
	}
	for i := len(ivs) - 1; i >= 0; i-- {
		if ivs[i].ID == open.ID && ivs[i].Closed() {
			return &ivs[i], nil
		}
	}
	return nil, fmt.Errorf("closed interval %s missing from export: %w", open.ID, repository.ErrCommandFailed)
}

// List returns non-deleted intervals carrying the exact tag.
func (c *Client) List(ctx context.Context, tag string) ([]interval.Interval, error) {
	return c.filtered(ctx, func(iv interval.Interval) bool {
		return iv.HasTag(tag)
	})
}

// ListProject returns non-deleted intervals for the project and its
// child tags.
func (c *Client) ListProject(ctx context.Context, project string) ([]interval.Interval, error) {
	prefix := project + "-"
	return c.filtered(ctx, func(iv interval.Interval) bool {
		for _, t := range iv.Tags {
			if t == project || strings.HasPrefix(t, prefix) {
				return true
			}
		}
		return false
	})
}

// Export returns every backend interval, including ones carrying the
// deleted marker.
func (c *Client) Export(ctx context.Context) ([]interval.Interval, error) {
	out, err := c.runner.Run(ctx, "export")
	if err != nil {
		return nil, err
	}

	var entries []exportEntry
	if err := json.Unmarshal(out, &entries); err != nil {
		return nil, fmt.Errorf("parsing export output: %v: %w", err, repository.ErrCommandFailed)
	}

	ivs := make([]interval.Interval, 0, len(entries))
	for _, entry := range entries {
		iv, err := entry.toInterval()
		if err != nil {
			return nil, err
		}
		ivs = append(ivs, iv)
	}
	sort.SliceStable(ivs, func(i, j int) bool { return ivs[i].Start.Before(ivs[j].Start) })
	return ivs, nil
}

// FindOpen returns the interval without an end time, or ErrNotFound.
func (c *Client) FindOpen(ctx context.Context) (*interval.Interval, error) {
	ivs, err := c.Export(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(ivs) - 1; i >= 0; i-- {
		if !ivs[i].Closed() {
			return &ivs[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

// Delete hides a closed interval by adding the deleted marker to its
// tags. Open intervals cannot be deleted.
func (c *Client) Delete(ctx context.Context, id string) error {
	target, err := c.find(ctx, id)
	if err != nil {
		return err
	}
	if !target.Closed() {
		return fmt.Errorf("interval %s is still open: %w", id, repository.ErrValidation)
	}

	tags := append(append([]string{}, target.Tags...), deletedMarkerTag)
	return c.Modify(ctx, id, target.Start, *target.End, tags)
}

// DeleteByTag is not supported; the backend keeps historical rows.
func (c *Client) DeleteByTag(ctx context.Context, tag string) error {
	return repository.ErrUnsupported
}

// Modify rewrites start, end and tags of an interval.
func (c *Client) Modify(ctx context.Context, id string, start, end time.Time, tags []string) error {
	if end.Before(start) {
		return interval.ErrInvalidRange
	}

	args := []string{
		"modify",
		"@" + id,
		"start:" + start.UTC().Format(exportTimeLayout),
		"end:" + end.UTC().Format(exportTimeLayout),
	}
	args = append(args, tags...)

	if _, err := c.runner.Run(ctx, args...); err != nil {
		return err
	}
	return nil
}

// Tags lists the backend's recorded tags, excluding status lines and
// the deleted marker.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	out, err := c.runner.Run(ctx, "tags")
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == deletedMarkerTag || strings.HasPrefix(line, "Tracking") {
			continue
		}
		tags = append(tags, line)
	}
	return tags, nil
}

// Register records a tag by starting and immediately stopping a
// zero-length interval, the only way the backend learns a tag.
func (c *Client) Register(ctx context.Context, tag string) error {
	if _, err := c.runner.Run(ctx, "start", tag); err != nil {
		return err
	}
	if _, err := c.runner.Run(ctx, "stop"); err != nil {
		return err
	}
	return nil
}

// Rename is not supported by the backend bridge.
func (c *Client) Rename(ctx context.Context, oldTag, newTag string) error {
	return repository.ErrUnsupported
}

// Remove is not supported; tags disappear from view via the hidden set.
func (c *Client) Remove(ctx context.Context, tag string) error {
	return repository.ErrUnsupported
}

func (c *Client) filtered(ctx context.Context, keep func(interval.Interval) bool) ([]interval.Interval, error) {
	ivs, err := c.Export(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]interval.Interval, 0, len(ivs))
	for _, iv := range ivs {
		if iv.HasTag(deletedMarkerTag) {
			continue
		}
		if keep(iv) {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (c *Client) find(ctx context.Context, id string) (*interval.Interval, error) {
	ivs, err := c.Export(ctx)
	if err != nil {
		return nil, err
	}
	for i := range ivs {
		if ivs[i].ID == id {
			return &ivs[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (e exportEntry) toInterval() (interval.Interval, error) {
	start, err := time.Parse(exportTimeLayout, e.Start)
	if err != nil {
		return interval.Interval{}, fmt.Errorf("invalid export start %q: %v: %w", e.Start, err, repository.ErrCommandFailed)
	}

	iv := interval.Interval{
		ID:    strconv.Itoa(e.ID),
		Tags:  e.Tags,
		Start: start,
	}
	if e.End != "" {
		end, err := time.Parse(exportTimeLayout, e.End)
		if err != nil {
			return interval.Interval{}, fmt.Errorf("invalid export end %q: %v: %w", e.End, err, repository.ErrCommandFailed)
		}
		iv.End = &end
	}
	return iv, nil
}
