package binding

import "github.com/rf24mesh/mesh-go/pkg/wire"

// MaxAddresses bounds the table's preallocated capacity, matching the
// protocol's 8-bit node id space.
const MaxAddresses = 255

// Entry is one (NodeId, Addr) binding. A released entry keeps its NodeId
// but has Addr reset to wire.EmptyAddr, so a later assignment for the
// same id reuses the slot instead of appending a new one.
type Entry struct {
	NodeID wire.NodeId
	Addr   wire.Addr
}

// Table is the master's ordered binding table. The zero value is an
// empty table ready to use. Table is not safe for concurrent use; the
// mesh façade's single-thread contract is the only caller.
type Table struct {
	entries []Entry
}

// NewTable returns an empty table preallocated to MaxAddresses capacity,
// avoiding append-driven reallocation during steady-state operation.
func NewTable() *Table {
	return &Table{entries: make([]Entry, 0, MaxAddresses)}
}

// FindByID returns the entry bound to id, if any.
func (t *Table) FindByID(id wire.NodeId) (Entry, bool) {
	for _, e := range t.entries {
		if e.NodeID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// FindByAddr returns the entry currently bound to addr. EmptyAddr never
// matches, since a released entry's Addr is not a valid lookup target.
func (t *Table) FindByAddr(addr wire.Addr) (Entry, bool) {
	if addr == wire.EmptyAddr {
		return Entry{}, false
	}
	for _, e := range t.entries {
		if e.Addr == addr {
			return e, true
		}
	}
	return Entry{}, false
}

// IsAddrTaken reports whether addr is already owned by some entry other
// than excludeID, used by the DHCP engine's uniqueness check.
func (t *Table) IsAddrTaken(addr wire.Addr, excludeID wire.NodeId) bool {
	if addr == wire.EmptyAddr {
		return false
	}
	for _, e := range t.entries {
		if e.NodeID != excludeID && e.Addr == addr {
			return true
		}
	}
	return false
}

// Set inserts a new binding or replaces the address of an existing one,
// preserving the entry's position on replacement.
func (t *Table) Set(id wire.NodeId, addr wire.Addr) {
	for i := range t.entries {
		if t.entries[i].NodeID == id {
			t.entries[i].Addr = addr
			return
		}
	}
	t.entries = append(t.entries, Entry{NodeID: id, Addr: addr})
}

// Release clears the address of the entry bound to id, keeping the slot
// for future reassignment. It is a no-op if id has no entry.
func (t *Table) Release(id wire.NodeId) {
	for i := range t.entries {
		if t.entries[i].NodeID == id {
			t.entries[i].Addr = wire.EmptyAddr
			return
		}
	}
}

// Entries returns the table's entries in insertion order. The returned
// slice must not be mutated by the caller.
func (t *Table) Entries() []Entry {
	return t.entries
}

// Len returns the number of entries, including released ones.
func (t *Table) Len() int {
	return len(t.entries)
}

// Reset empties the table, used when the master is torn down and
// recreated.
func (t *Table) Reset() {
	t.entries = t.entries[:0]
}
