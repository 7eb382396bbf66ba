package network

import "github.com/rf24mesh/mesh-go/pkg/wire"

// Flag bits that tune how the network layer treats inbound traffic
// during address acquisition.
type Flags uint8

const (
	// NoPoll stops this node from answering NetworkPoll, used on leaves
	// that must never become a parent.
	NoPoll Flags = 1 << iota

	// HoldIncoming buffers the current frame until explicitly released,
	// used while the mesh layer is still deciding how to handle it.
	HoldIncoming

	// BypassHolds ignores HoldIncoming, used while actively joining so
	// the join state machine is not blocked by its own prior holds.
	BypassHolds
)

// Frame is one inbound or outbound unit: a header plus its payload
// bytes, as produced by a Network implementation's Update/Write.
type Frame struct {
	Header  wire.Header
	Payload []byte
}

// Network is the framed transport the mesh layer consumes. It owns
// logical-address assignment and routing; the mesh layer only ever
// refers to peers by wire.Addr.
type Network interface {
	// Begin configures the network layer with this node's logical
	// address and brings the radio up.
	Begin(addr wire.Addr) error

	// Update pumps the underlying radio and returns the type of the
	// most recently classified inbound frame, or wire.MessageTypeNone
	// if nothing arrived this call. The frame itself is retrieved with
	// LastFrame.
	Update() wire.MessageType

	// LastFrame returns the frame classified by the most recent Update
	// call that returned a non-None type.
	LastFrame() Frame

	// Write sends a frame, routed hop-by-hop toward h.ToAddr. directTo,
	// when non-zero, overrides routing and sends the frame to that
	// immediate neighbor instead - used when forwarding a response
	// through the contact that relayed the original request.
	Write(h wire.Header, payload []byte, directTo wire.Addr) error

	// Multicast sends a frame to all neighbors at the given tree level
	// (the level is a tree depth: 0 = the master, 1 = nodes directly
	// below it).
	Multicast(h wire.Header, payload []byte, level uint8) error

	// SetAddress changes this node's logical address, e.g. after a
	// successful join.
	SetAddress(addr wire.Addr) error

	// LogicalAddress returns this node's current logical address.
	LogicalAddress() wire.Addr

	// IsValidAddress reports whether addr is a well-formed, reachable
	// tree address under this network's configured MaxChildren.
	IsValidAddress(addr wire.Addr) bool

	// ChildBitField returns this node's own occupied-child-slot mask,
	// consulted by the DHCP engine when this node is the direct parent
	// of a requester.
	ChildBitField() uint8

	// RouteTimeout is the bound on a single hop-routed exchange, reused
	// as the DHCP engine's pending-confirmation deadline.
	RouteTimeout() uint32

	// SetFlags / Flags control the bits above.
	SetFlags(f Flags)
	Flags() Flags
}
