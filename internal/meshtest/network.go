package meshtest

import (
	"sync"

	"github.com/rf24mesh/mesh-go/pkg/network"
	"github.com/rf24mesh/mesh-go/pkg/wire"
)

// routeTimeoutMs is the fake network's fixed bound on a single hop-routed
// exchange, handed back through RouteTimeout() for the DHCP engine's
// pending-confirmation deadline.
const routeTimeoutMs = 300

// Medium is the shared air interface several Network fakes register
// against. It plays the role real hardware plays for NetworkPoll replies
// (auto-ack, answered without the responder's own Update loop running)
// and for REQ_ADDRESS relaying (the immediate hop patches the payload's
// child bitmap before the frame reaches its final destination).
type Medium struct {
	mu    sync.Mutex
	nodes map[wire.Addr]*Network
}

// NewMedium creates an empty shared medium.
func NewMedium() *Medium {
	return &Medium{nodes: make(map[wire.Addr]*Network)}
}

// NewNetwork creates a Network fake registered against this medium, with
// no logical address yet (wire.DefaultAddr, as Begin leaves it).
func (med *Medium) NewNetwork(maxChildren int) *Network {
	return &Network{medium: med, addr: wire.DefaultAddr, maxChildren: maxChildren}
}

func (med *Medium) register(addr wire.Addr, n *Network) {
	med.mu.Lock()
	defer med.mu.Unlock()
	med.nodes[addr] = n
}

func (med *Medium) unregister(addr wire.Addr) {
	med.mu.Lock()
	defer med.mu.Unlock()
	delete(med.nodes, addr)
}

// Network is a network.Network backed by a Medium instead of a radio. It
// queues inbound frames in arrival order and hands them out one per
// Update call, the way the real layer drains its radio FIFO.
type Network struct {
	medium      *Medium
	maxChildren int

	mu       sync.Mutex
	addr     wire.Addr
	flags    network.Flags
	inbox    []network.Frame
	last     network.Frame
	deaf     map[wire.Addr]bool
	failType map[wire.MessageType]bool

	// relayFor is set while this node is acting as the contact for an
	// unjoined requester's in-flight REQ_ADDRESS, so a subsequent
	// ADDR_RESPONSE addressed to this node (since the requester itself
	// has no routable address yet) can be handed onward to the actual
	// waiting requester instead of landing in this node's own inbox.
	relayFor *Network
}

// IgnorePollsFrom makes this node deaf to NETWORK_POLL replies from the
// given addresses, simulating a node out of radio range of them so a
// join attempt has to escalate to a deeper poll level to find a parent.
func (n *Network) IgnorePollsFrom(addrs ...wire.Addr) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.deaf == nil {
		n.deaf = make(map[wire.Addr]bool)
	}
	for _, a := range addrs {
		n.deaf[a] = true
	}
}

// FailWrites makes Write return FailedWrite for the given message types,
// simulating a frame that never reaches its destination.
func (n *Network) FailWrites(types ...wire.MessageType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failType == nil {
		n.failType = make(map[wire.MessageType]bool)
	}
	for _, t := range types {
		n.failType[t] = true
	}
}

func (n *Network) Begin(addr wire.Addr) error {
	n.mu.Lock()
	n.addr = addr
	n.mu.Unlock()
	if addr != wire.DefaultAddr {
		n.medium.register(addr, n)
	}
	return nil
}

func (n *Network) Update() wire.MessageType {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.inbox) == 0 {
		return wire.MessageTypeNone
	}
	frame := n.inbox[0]
	n.inbox = n.inbox[1:]
	n.last = frame
	return frame.Header.Type
}

func (n *Network) LastFrame() network.Frame {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// Write delivers h/payload to h.ToAddr. directTo, when non-zero,
// overrides which registered node is treated as the immediate hop. A
// REQ_ADDRESS sent through a non-master contact gets that contact's own
// ChildBitField stamped into the payload first, mirroring how a real
// intermediate parent patches the frame it forwards upward; either way,
// the contact is remembered as the relay point for this requester, so
// the matching ADDR_RESPONSE - addressed back to the contact, since an
// unjoined requester has no routable address of its own - is handed to
// the requester instead of landing in the contact's own inbox.
func (n *Network) Write(h wire.Header, payload []byte, directTo wire.Addr) error {
	n.mu.Lock()
	shouldFail := n.failType[h.Type]
	n.mu.Unlock()
	if shouldFail {
		return wire.NewError("Write", wire.FailedWrite, nil)
	}

	immediate := directTo
	if directTo == 0 {
		// No override: route straight to the destination, since this
		// flat fake medium needs no real hop-by-hop forwarding.
		immediate = h.ToAddr
	}
	target := h.ToAddr

	n.medium.mu.Lock()
	immediateNet, haveImmediate := n.medium.nodes[immediate]
	targetNet, haveTarget := n.medium.nodes[target]
	n.medium.mu.Unlock()
	if !haveImmediate || !haveTarget {
		return wire.NewError("Write", wire.FailedWrite, nil)
	}

	out := payload
	if h.Type == wire.ReqAddress {
		if immediate != wire.MasterAddr {
			if req, err := wire.DecodeReqAddressPayload(payload); err == nil {
				req.ChildBitmap = immediateNet.ChildBitField()
				out = req.Encode()
			}
		}
		immediateNet.mu.Lock()
		immediateNet.relayFor = n
		immediateNet.mu.Unlock()
	}

	dest := targetNet
	if h.Type == wire.AddrResponse {
		targetNet.mu.Lock()
		if targetNet.relayFor != nil {
			dest = targetNet.relayFor
			targetNet.relayFor = nil
		}
		targetNet.mu.Unlock()
	}

	dest.deliver(network.Frame{Header: h, Payload: out})
	return nil
}

// Multicast answers a poll immediately: every other registered node whose
// address depth equals level and that isn't flagged NoPoll (or ignored by
// this node) replies into the caller's own
// inbox right away, mirroring auto-ack so the poll doesn't depend on the
// candidate parent's own Update loop running.
func (n *Network) Multicast(h wire.Header, payload []byte, level uint8) error {
	n.mu.Lock()
	self := n.addr
	deaf := n.deaf
	n.mu.Unlock()

	n.medium.mu.Lock()
	var replyFrom []wire.Addr
	for addr, other := range n.medium.nodes {
		if other == n {
			continue
		}
		if deaf[addr] {
			continue
		}
		other.mu.Lock()
		flags := other.flags
		other.mu.Unlock()
		if flags&network.NoPoll != 0 {
			continue
		}
		if addr.Depth() != int(level) {
			continue
		}
		replyFrom = append(replyFrom, addr)
	}
	n.medium.mu.Unlock()

	for _, from := range replyFrom {
		n.deliver(network.Frame{
			Header: wire.Header{ToAddr: self, FromAddr: from, Type: wire.NetworkPoll},
		})
	}
	return nil
}

func (n *Network) SetAddress(addr wire.Addr) error {
	n.mu.Lock()
	old := n.addr
	n.addr = addr
	n.mu.Unlock()

	if old != wire.DefaultAddr {
		n.medium.unregister(old)
	}
	if addr != wire.DefaultAddr {
		n.medium.register(addr, n)
	}
	return nil
}

func (n *Network) LogicalAddress() wire.Addr {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.addr
}

func (n *Network) IsValidAddress(addr wire.Addr) bool {
	return addr == wire.MasterAddr || addr.IsValid(n.maxChildren)
}

// ChildBitField reports which of this node's child slots are currently
// occupied, derived from whoever else is registered on the shared medium
// directly beneath this node's address.
func (n *Network) ChildBitField() uint8 {
	n.mu.Lock()
	addr := n.addr
	maxChildren := n.maxChildren
	n.mu.Unlock()

	shift := uint(3 * addr.Depth())
	n.medium.mu.Lock()
	defer n.medium.mu.Unlock()

	var mask uint8
	for slot := 1; slot <= maxChildren; slot++ {
		candidate := addr | wire.Addr(slot<<shift)
		if _, ok := n.medium.nodes[candidate]; ok {
			mask |= 1 << uint(slot-1)
		}
	}
	return mask
}

func (n *Network) RouteTimeout() uint32 {
	return routeTimeoutMs
}

func (n *Network) SetFlags(f network.Flags) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.flags = f
}

func (n *Network) Flags() network.Flags {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.flags
}

func (n *Network) deliver(f network.Frame) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inbox = append(n.inbox, f)
}

var _ network.Network = (*Network)(nil)
