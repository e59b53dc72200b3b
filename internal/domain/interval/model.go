package interval

import "time"

// Interval is a single timed start/end record attached to a task tag.
// End is nil while the interval is open.
type Interval struct {
	ID    string     `json:"id"`
	Tags  []string   `json:"tags"`
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
	Note  string     `json:"note,omitempty"`
}

// Closed reports whether the interval has an end time.
func (iv Interval) Closed() bool {
	return iv.End != nil
}

// Duration is derived from the stored endpoints, truncated to whole
// seconds. Zero while the interval is open.
func (iv Interval) Duration() time.Duration {
	if iv.End == nil {
		return 0
	}
	return iv.End.Sub(iv.Start).Truncate(time.Second)
}

// HasTag reports whether the interval carries the given tag.
func (iv Interval) HasTag(tag string) bool {
	for _, t := range iv.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
