package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pfrederiksen/happenr/internal/event"
)

// DefaultSnapshot is the snapshot name used when none is given.
const DefaultSnapshot = "default"

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// Storage handles persistence of event snapshots
type Storage struct {
	dataDir string
	clock   clockwork.Clock
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	return NewWithClock(dataDir, clockwork.NewRealClock())
}

// NewWithClock creates a Storage that stamps snapshots using clock.
func NewWithClock(dataDir string, clock clockwork.Clock) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
		clock:   clock,
	}, nil
}

// snapshotPath returns the path to the snapshot file for name
func (s *Storage) snapshotPath(name string) string {
	name = unsafeNameChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	if name == "" || name == DefaultSnapshot {
		return filepath.Join(s.dataDir, "snapshot.json")
	}
	return filepath.Join(s.dataDir, fmt.Sprintf("snapshot_%s.json", name))
}

// LoadSnapshot loads a snapshot from disk. A missing file yields an empty snapshot.
func (s *Storage) LoadSnapshot(name string) (*event.Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return event.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot event.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.Events == nil {
		snapshot.Events = make(map[string]*event.Event)
	}
	if snapshot.ChangeLog == nil {
		snapshot.ChangeLog = make([]*event.EventChange, 0)
	}

	return &snapshot, nil
}

// SaveSnapshot saves a snapshot to disk, stamping UpdatedAt with the current time
func (s *Storage) SaveSnapshot(snapshot *event.Snapshot, name string) error {
	snapshot.UpdatedAt = s.now().Format(time.RFC3339)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := writeFileAtomic(s.snapshotPath(name), data); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// writeFileAtomic replaces path with data through a temp file in the same
// directory, so an interrupted run never leaves a truncated snapshot.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// Track compares events against the named snapshot, merges them into it and
// saves it. The returned diff lists what is new or changed since the last call.
func (s *Storage) Track(name string, events []*event.Event) (*event.DiffResult, error) {
	previous, err := s.LoadSnapshot(name)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	now := s.now()
	diff := event.Diff(previous, events, now)
	previous.Apply(events, diff.Changes, now.Format(time.RFC3339))

	if err := s.SaveSnapshot(previous, name); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	return diff, nil
}

func (s *Storage) now() time.Time {
	return s.clock.Now().UTC()
}
