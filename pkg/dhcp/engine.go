package dhcp

import (
	"github.com/rf24mesh/mesh-go/pkg/binding"
	"github.com/rf24mesh/mesh-go/pkg/log"
	"github.com/rf24mesh/mesh-go/pkg/wire"
)

// Request carries the fields the mesh façade extracts from an inbound
// REQ_ADDRESS frame and its payload, independent of the wire framing.
type Request struct {
	// RequesterID is the sender's node id (the payload's reserved byte).
	RequesterID wire.NodeId

	// SrcNode is the requester's current logical address, or
	// wire.DefaultAddr if the requester is not yet joined.
	SrcNode wire.Addr

	// ReplyTo is the address of the contact that relayed this request,
	// used to address the offer directly when SrcNode is unjoined.
	ReplyTo wire.Addr

	// Parent is the address the requester polled.
	Parent wire.Addr

	// ChildBitmap is Parent's occupied-child-slot mask; the engine skips
	// every slot whose bit is set. When the master itself is the parent,
	// the mesh façade fills it from the master's own network ChildBitField.
	ChildBitmap uint8
}

// Offer is the response the engine wants the caller to send back to the
// requester.
type Offer struct {
	ToAddr   wire.Addr
	DirectTo wire.Addr
	Payload  wire.AddrResponsePayload
}

// Engine assigns addresses from the master's own binding table. It is
// not safe for concurrent use; the mesh façade's single-thread contract
// is the only caller.
type Engine struct {
	table       *binding.Table
	logger      log.Logger
	maxChildren int

	pendingID       wire.NodeId
	pendingAddr     wire.Addr
	pendingDeadline uint32
	pendingArmed    bool
}

// NewEngine creates a DHCP engine operating on table, emitting allocation
// decisions to logger (log.NoopLogger{} if nil). maxChildren bounds slot
// indices, matching the network's configured MaxChildren (1..5).
func NewEngine(table *binding.Table, logger log.Logger, maxChildren int) *Engine {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	if maxChildren < 1 || maxChildren > wire.HardMaxChildren {
		maxChildren = wire.DefaultMaxChildren
	}
	return &Engine{table: table, logger: logger, maxChildren: maxChildren}
}

// HandleRequest runs the slot-selection algorithm for req. It returns the
// offer to send, or ok=false if the request was rejected or silently
// dropped (no free slot) and nothing should be sent.
func (e *Engine) HandleRequest(req Request) (offer Offer, ok bool) {
	if req.RequesterID == wire.MasterNodeId {
		return Offer{}, false
	}

	masterIsParent := req.Parent == wire.MasterAddr
	parent := req.Parent
	availableMask := req.ChildBitmap
	if masterIsParent {
		parent = wire.MasterAddr
	}

	depth := parent.Depth()
	shift := uint(3 * depth)

	for k := 1; k <= e.maxChildren; k++ {
		if availableMask&(1<<uint(k-1)) != 0 {
			continue
		}

		newAddr := parent | wire.Addr((k&0x7)<<shift)
		if newAddr == wire.EmptyAddr {
			continue
		}

		if e.table.IsAddrTaken(newAddr, req.RequesterID) {
			e.logEvent("collision", req.RequesterID, newAddr)
			continue
		}

		e.pendingID = req.RequesterID
		e.pendingAddr = newAddr
		e.pendingArmed = true
		e.logEvent("assigned", req.RequesterID, newAddr)

		toAddr := req.SrcNode
		directTo := wire.Addr(0)
		if req.SrcNode == wire.DefaultAddr {
			toAddr = req.ReplyTo
			directTo = req.ReplyTo
		}

		return Offer{
			ToAddr:   toAddr,
			DirectTo: directTo,
			Payload:  wire.AddrResponsePayload{NewAddr: newAddr, Reserved: req.RequesterID},
		}, true
	}

	e.logEvent("no-free-slot", req.RequesterID, wire.EmptyAddr)
	return Offer{}, false
}

// ArmDeadline records the confirmation deadline for the most recent
// offer, expressed as an absolute millisecond timestamp on the caller's
// clock.
func (e *Engine) ArmDeadline(deadline uint32) {
	e.pendingDeadline = deadline
}

// HandleConfirm processes an inbound ADDR_CONFIRM. It commits the
// pending offer into the binding table only if fromAddr and id match the
// most recent offer and nowMs has not passed the armed deadline.
func (e *Engine) HandleConfirm(fromAddr wire.Addr, id wire.NodeId, nowMs uint32) bool {
	if !e.pendingArmed {
		return false
	}
	if fromAddr != e.pendingAddr || id != e.pendingID {
		return false
	}
	if nowMs > e.pendingDeadline {
		e.pendingArmed = false
		return false
	}

	e.table.Set(id, fromAddr)
	e.pendingArmed = false
	return true
}

// ExpirePending clears the pending offer if nowMs has passed the armed
// deadline without a matching confirmation, leaving the binding table
// unchanged. Called periodically from the façade's update loop.
func (e *Engine) ExpirePending(nowMs uint32) {
	if e.pendingArmed && nowMs > e.pendingDeadline {
		e.pendingArmed = false
	}
}

// HasPending reports whether an offer is currently awaiting confirmation.
func (e *Engine) HasPending() bool {
	return e.pendingArmed
}

func (e *Engine) logEvent(newState string, id wire.NodeId, addr wire.Addr) {
	e.logger.Log(log.Event{
		Layer:    log.LayerService,
		Category: log.CategoryState,
		LocalRole: log.RoleMaster,
		NodeID:   id,
		Addr:     addr,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityDHCP,
			NewState: newState,
		},
	})
}
