package study

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/errmech-cli/internal/pipeline"
	"github.com/KaramelBytes/errmech-cli/internal/utils"
)

const (
	studyFileName = "study.json"
)

// Study groups mechanism inference runs persisted on disk.
type Study struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Runs        map[string]*Run `json:"runs"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Not serialized: on-disk location of the study.json
	rootDir string `json:"-"`
}

// NewStudy constructs an in-memory study. Call Save() to persist.
func NewStudy(name, description, rootDir string) *Study {
	now := time.Now()
	return &Study{
		Name:        name,
		Description: description,
		Runs:        make(map[string]*Run),
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// LoadStudy loads a study.json from the provided directory.
func LoadStudy(dir string) (*Study, error) {
	path := filepath.Join(dir, studyFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("study not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read study: %w", err)
	}
	var s Study
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse study: %w", err)
	}
	if s.Runs == nil {
		s.Runs = make(map[string]*Run)
	}
	s.rootDir = dir
	return &s, nil
}

// Exists reports whether dir already holds a study.json.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, studyFileName))
	return err == nil
}

// RootDir returns the on-disk study directory path.
func (s *Study) RootDir() string { return s.rootDir }

// Save writes study.json using atomic write.
func (s *Study) Save() error {
	if s.rootDir == "" {
		return errors.New("study root directory not set")
	}
	if err := utils.EnsureDir(s.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	s.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(s)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.rootDir, studyFileName), data)
}

// AddRun records the results of one dataset run and returns it with a fresh ID.
func (s *Study) AddRun(dataset string, settings Settings, results []pipeline.ColumnResult) *Run {
	r := &Run{
		ID:        uuid.NewString(),
		Dataset:   strings.TrimSpace(dataset),
		Settings:  settings,
		Results:   results,
		CreatedAt: time.Now(),
	}
	if s.Runs == nil {
		s.Runs = make(map[string]*Run)
	}
	s.Runs[r.ID] = r
	s.UpdatedAt = r.CreatedAt
	return r
}

// SortedRuns returns runs oldest first, ties broken by ID.
func (s *Study) SortedRuns() []*Run {
	out := make([]*Run, 0, len(s.Runs))
	for _, r := range s.Runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Latest returns the most recent run for each dataset.
func (s *Study) Latest() map[string]*Run {
	out := make(map[string]*Run)
	for _, r := range s.SortedRuns() {
		out[r.Dataset] = r
	}
	return out
}
