package history

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/randalmurphal/patchflow/apply"
)

// ErrRunNotFound indicates no record exists for the run ID.
var ErrRunNotFound = errors.New("run not found")

// Kind distinguishes preview runs from apply runs.
type Kind string

const (
	KindPreview Kind = "preview"
	KindApply   Kind = "apply"
)

// Record is the persisted outcome of one pipeline run.
type Record struct {
	RunID   string `json:"run_id"`
	Kind    Kind   `json:"kind"`
	Request string `json:"request"`

	// Summary is the model's description of the change set.
	Summary string `json:"summary,omitempty"`

	// PRURL is set when a pull request was opened.
	PRURL string `json:"pr_url,omitempty"`

	// Applied lists the per-file results of a local apply.
	Applied []apply.Result `json:"applied,omitempty"`

	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Kind  Kind
	Limit int
}

// Store is a file-based run record store.
type Store struct {
	baseDir string
	mu      sync.Mutex
}

// NewStore creates a store rooted at baseDir, creating the runs directory
// if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, "runs"), 0o755); err != nil {
		return nil, err
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Save writes the record, overwriting any previous record for the same run.
func (s *Store) Save(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runDir := filepath.Join(s.baseDir, "runs", rec.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(runDir, "run.json"), data, 0o644)
}

// Load retrieves the record for runID.
func (s *Store) Load(runID string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, "runs", runID, "run.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns records matching the filter, newest first. Unreadable
// records are skipped.
func (s *Store) List(filter ListFilter) ([]Record, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "runs"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var results []Record
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rec, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		if filter.Kind != "" && rec.Kind != filter.Kind {
			continue
		}
		results = append(results, *rec)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartedAt.After(results[j].StartedAt)
	})

	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

// Delete removes a run record. Deleting a missing run is not an error.
func (s *Store) Delete(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.RemoveAll(filepath.Join(s.baseDir, "runs", runID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
