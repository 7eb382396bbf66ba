package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rf24mesh/mesh-go/pkg/wire"
)

// SnapshotVersion is the current version of the binding snapshot file format.
const SnapshotVersion = 1

// BindingSnapshot is a point-in-time projection of a mesh master's
// binding table, suitable for reloading after a restart.
type BindingSnapshot struct {
	// Version is the snapshot file format version.
	Version int `json:"version"`

	// SavedAt is when the snapshot was taken.
	SavedAt time.Time `json:"saved_at"`

	// Bindings is the id-to-address table, in insertion order.
	Bindings []BindingEntry `json:"bindings,omitempty"`
}

// BindingEntry is one id/address pair from the binding table.
type BindingEntry struct {
	NodeID wire.NodeId `json:"node_id"`
	Addr   wire.Addr   `json:"addr"`
}

// SnapshotStore is the persistence collaborator a mesh master's
// SaveDHCP/LoadDHCP operations delegate to, when configured.
type SnapshotStore interface {
	Save(snapshot *BindingSnapshot) error
	// Load returns (nil, nil) if no snapshot has been saved yet.
	Load() (*BindingSnapshot, error)
}

// FileStore persists a BindingSnapshot to a JSON file. It is safe for
// concurrent use.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore backed by the file at path. The parent
// directory is created on first Save if it does not already exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save persists the snapshot to disk, overwriting any prior snapshot.
func (s *FileStore) Save(snapshot *BindingSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	snapshot.Version = SnapshotVersion
	if snapshot.SavedAt.IsZero() {
		snapshot.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the snapshot from disk. It returns (nil, nil) if the file
// does not exist.
func (s *FileStore) Load() (*BindingSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snapshot := &BindingSnapshot{}
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// Clear removes the snapshot file, if present.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Compile-time interface satisfaction check.
var _ SnapshotStore = (*FileStore)(nil)
