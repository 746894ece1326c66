// Package storage keeps finished runs on disk, one directory per run:
//
//	<base>/<scenario>_<id8>/metadata.json
//	<base>/<scenario>_<id8>/track.csv
//	<base>/<scenario>_<id8>/dtd.json   (only for enabled r-process sources)
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/rprocfit/internal/compare"
	"github.com/san-kum/rprocfit/internal/dtd"
	"github.com/san-kum/rprocfit/internal/experiment"
	"github.com/san-kum/rprocfit/internal/optim"
	"github.com/san-kum/rprocfit/internal/track"
)

const (
	metadataFile = "metadata.json"
	trackFile    = "track.csv"
	dtdFile      = "dtd.json"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string              `json:"id"`
	Timestamp time.Time           `json:"timestamp"`
	Scenario  experiment.Scenario `json:"scenario"`
	Params    optim.Params        `json:"params"`
	Target    string              `json:"target"`
	Scored    bool                `json:"scored"`
	Score     compare.Score       `json:"score"`
	Elapsed   float64             `json:"elapsed_seconds"`
	Samples   int                 `json:"samples"`
}

// Save writes a result and returns its run ID.
func (s *Store) Save(res *experiment.Result) (string, error) {
	if res == nil || res.Track == nil {
		return "", fmt.Errorf("storage: result without a track")
	}
	runID := fmt.Sprintf("%s_%s", safeName(res.Scenario.Name), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now().UTC(),
		Scenario:  res.Scenario,
		Params:    res.Params,
		Target:    res.Target,
		Scored:    res.Scored,
		Score:     res.Score,
		Elapsed:   res.Elapsed.Seconds(),
		Samples:   len(res.Track.Samples),
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if err := writeTrack(filepath.Join(runDir, trackFile), res.Track); err != nil {
		return "", err
	}

	if res.DTD != nil {
		if err := writeJSON(filepath.Join(runDir, dtdFile), res.DTD); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// List returns all readable runs, newest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(s.path(runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTrack(runID string) (*track.Track, error) {
	f, err := os.Open(s.path(runID, trackFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()
	return track.ReadCSV(f, runID)
}

// LoadDTD returns nil without error for runs whose source was disabled.
func (s *Store) LoadDTD(runID string) (*dtd.Table, error) {
	data, err := os.ReadFile(s.path(runID, dtdFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var t dtd.Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &t, nil
}

// Rank orders scored runs by RMS, lowest first; unscored runs go last.
func Rank(runs []RunMetadata) {
	sort.SliceStable(runs, func(i, j int) bool {
		a, b := runs[i], runs[j]
		if a.Scored != b.Scored {
			return a.Scored
		}
		return a.Score.RMS < b.Score.RMS
	})
}

func (s *Store) path(runID, file string) string {
	return filepath.Join(s.baseDir, filepath.Base(runID), file)
}

func safeName(name string) string {
	if name == "" {
		return "run"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '-'
	}, name)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTrack(path string, t *track.Track) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := track.WriteCSV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
