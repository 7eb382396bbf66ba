package mesh

import "errors"

// ErrLookupNotFound is returned by GetAddress/GetNodeID when the master
// answers that the requested id or address is not in its binding table.
// On the wire the master signals this with a negative result (-1); a
// lookup that gets no reply fails with a Timeout *wire.Error instead, and
// this distinct error lets callers tell the two apart with errors.Is.
var ErrLookupNotFound = errors.New("mesh: id or address not found")

// ErrNotBegun is the cause wrapped in the NotConfigured error that
// ReleaseAddress and WriteTo return when invoked before Begin has
// configured the radio and network layers.
var ErrNotBegun = errors.New("mesh: Begin has not been called")
