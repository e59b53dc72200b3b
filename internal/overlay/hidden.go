package overlay

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/ajkarlsson/stint/internal/repository"
)

// HiddenTags persists the soft-delete tag set as a JSON file of the
// form {"deleted_tags": [...]}.
type HiddenTags struct {
	path string
	mu   sync.Mutex
}

type hiddenFile struct {
	DeletedTags []string `json:"deleted_tags"`
}

// NewHiddenTags creates a hidden-tag store backed by a JSON file.
// A missing file reads as an empty set.
func NewHiddenTags(path string) *HiddenTags {
	return &HiddenTags{path: path}
}

// Load reads the hidden set.
func (h *HiddenTags) Load() (map[string]struct{}, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := readFileIfExists(h.path)
	if err != nil {
		return nil, fmt.Errorf("reading hidden tags (%v): %w", err, repository.ErrPersistence)
	}
	set := make(map[string]struct{})
	if len(data) == 0 {
		return set, nil
	}
	var file hiddenFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing hidden tags (%v): %w", err, repository.ErrPersistence)
	}
	for _, tag := range file.DeletedTags {
		set[tag] = struct{}{}
	}
	return set, nil
}

// Save writes the hidden set, sorted for stable files.
func (h *HiddenTags) Save(tags map[string]struct{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	file := hiddenFile{DeletedTags: make([]string, 0, len(tags))}
	for tag := range tags {
		file.DeletedTags = append(file.DeletedTags, tag)
	}
	sort.Strings(file.DeletedTags)

	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("encoding hidden tags (%v): %w", err, repository.ErrPersistence)
	}
	if err := writeFileAtomic(h.path, data); err != nil {
		return fmt.Errorf("writing hidden tags (%v): %w", err, repository.ErrPersistence)
	}
	return nil
}
