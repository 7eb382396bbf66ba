// Package persistence provides optional, file-backed persistence for a
// mesh master's binding table across restarts. The mesh protocol itself
// never depends on a store being configured; Save/Load are wired in by
// the caller through pkg/mesh's WithSnapshotStore option.
package persistence
