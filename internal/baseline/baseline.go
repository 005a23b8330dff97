// Package baseline persists point-in-time schedule snapshots and compares
// later schedules against them.
package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/jason-marshall/defense-pm-tool-sub005/internal/cpm"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/graph"
)

const snapshotExt = ".json"

// ErrNotFound is returned when no snapshot matches an id.
var ErrNotFound = errors.New("baseline not found")

// ErrAmbiguous is returned when an id prefix matches several snapshots.
var ErrAmbiguous = errors.New("ambiguous baseline id")

// Snapshot is a frozen schedule.
type Snapshot struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	CreatedAt       time.Time            `json:"created_at"`
	Fingerprint     string               `json:"fingerprint"`
	ProjectDuration int                  `json:"project_duration"`
	CriticalPath    []string             `json:"critical_path"`
	Activities      []cpm.ActivityResult `json:"activities"`
}

// Fingerprint hashes the scheduling inputs so a comparison can tell
// whether the network itself changed.
func Fingerprint(activities []graph.Activity, deps []graph.Dependency) (string, error) {
	canonical, err := json.Marshal(struct {
		Activities   []graph.Activity   `json:"activities"`
		Dependencies []graph.Dependency `json:"dependencies"`
	}{activities, deps})
	if err != nil {
		return "", fmt.Errorf("canonicalize inputs: %w", err)
	}

	hasher := blake3.New()
	if _, err := hasher.Write(canonical); err != nil {
		return "", fmt.Errorf("hash inputs: %w", err)
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// Take captures a snapshot of sched.
func Take(name string, activities []graph.Activity, deps []graph.Dependency, sched *cpm.Schedule) (*Snapshot, error) {
	fp, err := Fingerprint(activities, deps)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:              uuid.NewString(),
		Name:            name,
		CreatedAt:       time.Now().UTC(),
		Fingerprint:     fp,
		ProjectDuration: sched.ProjectDuration(),
		CriticalPath:    sched.CriticalPath(),
		Activities:      sched.Rows(),
	}, nil
}

// Store keeps snapshots as one JSON file each in a directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a store rooted at dir. The directory is created on the
// first Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save persists a snapshot.
func (s *Store) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create baseline dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal baseline: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, snap.ID+snapshotExt), data, 0644)
}

// Load reads a snapshot by full id or unique id prefix.
func (s *Store) Load(id string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return readSnapshot(path)
}

// List returns all snapshots, oldest first.
func (s *Store) List() ([]*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read baseline dir: %w", err)
	}

	var snaps []*Snapshot
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotExt) {
			continue
		}
		snap, err := readSnapshot(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	sort.SliceStable(snaps, func(a, b int) bool {
		return snaps[a].CreatedAt.Before(snaps[b].CreatedAt)
	})
	return snaps, nil
}

// Delete removes a snapshot.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.resolve(id)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

func (s *Store) resolve(id string) (string, error) {
	exact := filepath.Join(s.dir, id+snapshotExt)
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, id+"*"+snapshotExt))
	if err != nil {
		return "", fmt.Errorf("find baseline: %w", err)
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s matches %d baselines", ErrAmbiguous, id, len(matches))
	}
}

func readSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse baseline %s: %w", filepath.Base(path), err)
	}
	return &snap, nil
}
