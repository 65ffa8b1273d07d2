package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/imamik/ec2-cli/internal/config"
)

const lockRetryDelay = 50 * time.Millisecond

// InstanceRecord is what the state document knows about one instance.
type InstanceRecord struct {
	InstanceID string    `json:"instance_id"`
	Profile    string    `json:"profile"`
	Region     string    `json:"region"`
	CreatedAt  time.Time `json:"created_at"`
}

// State maps instance names to records.
type State struct {
	Instances map[string]InstanceRecord `json:"instances"`
}

// Entry is a named record.
type Entry struct {
	Name string
	InstanceRecord
}

// New returns an empty state.
func New() *State {
	return &State{Instances: map[string]InstanceRecord{}}
}

// AddInstance stores rec under name, replacing any previous record.
func (s *State) AddInstance(name string, rec InstanceRecord) {
	if s.Instances == nil {
		s.Instances = map[string]InstanceRecord{}
	}
	s.Instances[name] = rec
}

// RemoveInstance deletes name and returns the prior record, if any.
func (s *State) RemoveInstance(name string) (InstanceRecord, bool) {
	rec, ok := s.Instances[name]
	if ok {
		delete(s.Instances, name)
	}
	return rec, ok
}

// GetInstance returns the record for name.
func (s *State) GetInstance(name string) (InstanceRecord, bool) {
	rec, ok := s.Instances[name]
	return rec, ok
}

// Entries returns all records sorted by name.
func (s *State) Entries() []Entry {
	entries := make([]Entry, 0, len(s.Instances))
	for name, rec := range s.Instances {
		entries = append(entries, Entry{Name: name, InstanceRecord: rec})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Store reads and writes the state document at a fixed path.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore returns a store for the document at path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// DefaultStore returns the store under the XDG state directory.
func DefaultStore() *Store {
	return NewStore(filepath.Join(config.StateDir(), "state.json"))
}

// Path returns the document path.
func (s *Store) Path() string { return s.path }

func (s *Store) lock() *flock.Flock {
	return flock.New(s.path + ".lock")
}

// Load reads the document. A missing document yields an empty state.
func (s *Store) Load(ctx context.Context) (*State, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	lock := s.lock()
	if _, err := lock.TryRLockContext(ctx, lockRetryDelay); err != nil {
		return nil, fmt.Errorf("failed to lock state file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	return s.read()
}

// Save replaces the document with st.
func (s *Store) Save(ctx context.Context, st *State) error {
	return s.Update(ctx, func(current *State) error {
		current.Instances = st.Instances
		return nil
	})
}

// Update runs fn on the current state under an exclusive lock and saves the
// result. Nothing is written when fn fails.
func (s *Store) Update(ctx context.Context, fn func(*State) error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	lock := s.lock()
	if _, err := lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return fmt.Errorf("failed to lock state file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	st, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	return s.write(st)
}

// AddInstance records a newly launched instance and returns its record.
func (s *Store) AddInstance(ctx context.Context, name, instanceID, profile, region string) (InstanceRecord, error) {
	rec := InstanceRecord{
		InstanceID: instanceID,
		Profile:    profile,
		Region:     region,
		CreatedAt:  s.now().UTC().Truncate(time.Second),
	}
	err := s.Update(ctx, func(st *State) error {
		st.AddInstance(name, rec)
		return nil
	})
	return rec, err
}

// RemoveInstance deletes name and returns the prior record, or nil when
// name was not recorded.
func (s *Store) RemoveInstance(ctx context.Context, name string) (*InstanceRecord, error) {
	var removed *InstanceRecord
	err := s.Update(ctx, func(st *State) error {
		if rec, ok := st.RemoveInstance(name); ok {
			removed = &rec
		}
		return nil
	})
	return removed, err
}

// GetInstance returns the record for name, or nil when absent.
func (s *Store) GetInstance(ctx context.Context, name string) (*InstanceRecord, error) {
	st, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := st.GetInstance(name)
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// ListInstances returns every record sorted by name.
func (s *Store) ListInstances(ctx context.Context) ([]Entry, error) {
	st, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return st.Entries(), nil
}

func (s *Store) read() (*State, error) {
	// #nosec G304
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	st := New()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, &CorruptError{Path: s.path, Err: err}
	}
	if st.Instances == nil {
		st.Instances = map[string]InstanceRecord{}
	}
	return st, nil
}

func (s *Store) write(st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("failed to set state file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	success = true
	return nil
}
