package overlay

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ajkarlsson/stint/internal/domain/interval"
	"github.com/ajkarlsson/stint/internal/repository"
)

// Annotations persists free-text notes keyed by interval id in a JSON
// file, independent of interval storage. Entries survive interval edits
// and are removed only when the interval itself is deleted.
type Annotations struct {
	path string
	mu   sync.Mutex
}

// NewAnnotations creates an annotation store backed by a JSON file.
// A missing file reads as empty.
func NewAnnotations(path string) *Annotations {
	return &Annotations{path: path}
}

// Set stores the annotation for an interval id.
func (a *Annotations) Set(id, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	notes, err := a.load()
	if err != nil {
		return err
	}
	notes[id] = text
	return a.save(notes)
}

// Get returns the stored annotation, empty when absent.
func (a *Annotations) Get(id string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	notes, err := a.load()
	if err != nil {
		return "", err
	}
	return notes[id], nil
}

// Remove drops the annotation for an interval id. Removing an absent
// entry is a no-op.
func (a *Annotations) Remove(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	notes, err := a.load()
	if err != nil {
		return err
	}
	if _, ok := notes[id]; !ok {
		return nil
	}
	delete(notes, id)
	return a.save(notes)
}

// Merge returns a copy of the intervals with stored annotations
// attached. Intervals without an entry stay untouched; the input slice
// is never mutated.
func (a *Annotations) Merge(ivs []interval.Interval) ([]interval.Interval, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	notes, err := a.load()
	if err != nil {
		return nil, err
	}

	merged := make([]interval.Interval, len(ivs))
	copy(merged, ivs)
	for i := range merged {
		if note, ok := notes[merged[i].ID]; ok {
			merged[i].Note = note
		}
	}
	return merged, nil
}

func (a *Annotations) load() (map[string]string, error) {
	data, err := readFileIfExists(a.path)
	if err != nil {
		return nil, fmt.Errorf("reading annotations (%v): %w", err, repository.ErrPersistence)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}
	var notes map[string]string
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("parsing annotations (%v): %w", err, repository.ErrPersistence)
	}
	return notes, nil
}

func (a *Annotations) save(notes map[string]string) error {
	data, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("encoding annotations (%v): %w", err, repository.ErrPersistence)
	}
	if err := writeFileAtomic(a.path, data); err != nil {
		return fmt.Errorf("writing annotations (%v): %w", err, repository.ErrPersistence)
	}
	return nil
}
