package mesh

import (
	"sync"

	"github.com/google/uuid"

	"github.com/rf24mesh/mesh-go/pkg/binding"
	"github.com/rf24mesh/mesh-go/pkg/clock"
	"github.com/rf24mesh/mesh-go/pkg/dhcp"
	"github.com/rf24mesh/mesh-go/pkg/join"
	"github.com/rf24mesh/mesh-go/pkg/log"
	"github.com/rf24mesh/mesh-go/pkg/network"
	"github.com/rf24mesh/mesh-go/pkg/persistence"
	"github.com/rf24mesh/mesh-go/pkg/radio"
	"github.com/rf24mesh/mesh-go/pkg/wire"
)

// Mesh orchestrates one node's participation in the address-assignment
// protocol: a master runs the DHCP engine against its own binding
// table, a non-master runs the join/renew state machine. Both sides
// share the same Update/dispatch loop for classifying inbound traffic.
//
// Mesh guards its state with a mutex so the structured logger and a
// concurrently-read status method may be called from outside the
// single-threaded contract the protocol otherwise assumes; Begin,
// Update, Dhcp and the public operations below are still meant to be
// driven from one goroutine, matching the host's poll loop.
type Mesh struct {
	mu sync.Mutex

	radio  radio.Radio
	net    network.Network
	clk    clock.Clock
	logger log.Logger
	store  persistence.SnapshotStore

	nodeID      wire.NodeId
	isMaster    bool
	maxChildren int
	connID      string

	table  *binding.Table
	engine *dhcp.Engine

	begun       bool
	dhcpPending bool
	pendingReq  dhcp.Request
}

// New creates a Mesh for nodeID, driving r and net. nodeID 0 makes this
// node the master.
func New(nodeID wire.NodeId, r radio.Radio, net network.Network, opts ...Option) *Mesh {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Mesh{
		radio:       r,
		net:         net,
		clk:         cfg.clk,
		logger:      cfg.logger,
		store:       cfg.store,
		nodeID:      nodeID,
		isMaster:    nodeID == wire.MasterNodeId,
		maxChildren: cfg.maxChildren,
		connID:      uuid.New().String(),
	}
}

// Begin configures the radio and network layers. On the master it
// installs address 0 and an empty binding table; otherwise it runs
// RenewAddress(timeoutMs).
func (m *Mesh) Begin(channel uint8, rate radio.DataRate, power radio.PowerLevel, timeoutMs uint32) error {
	m.mu.Lock()
	isMaster := m.isMaster

	if err := m.radio.SetChannel(channel); err != nil {
		m.mu.Unlock()
		return wire.NewError("Begin", wire.FailedInit, err)
	}
	if err := m.radio.SetDataRate(rate); err != nil {
		m.mu.Unlock()
		return wire.NewError("Begin", wire.FailedInit, err)
	}
	if err := m.radio.SetPowerLevel(power); err != nil {
		m.mu.Unlock()
		return wire.NewError("Begin", wire.FailedInit, err)
	}
	m.radio.StartListening()

	if err := m.net.Begin(wire.DefaultAddr); err != nil {
		m.mu.Unlock()
		return wire.NewError("Begin", wire.FailedInit, err)
	}

	if isMaster {
		m.table = binding.NewTable()
		m.engine = dhcp.NewEngine(m.table, m.logger, m.maxChildren)
		if err := m.net.SetAddress(wire.MasterAddr); err != nil {
			m.mu.Unlock()
			return wire.NewError("Begin", wire.FailedInit, err)
		}
		m.begun = true
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if _, err := m.RenewAddress(timeoutMs); err != nil {
		return err
	}

	m.mu.Lock()
	m.begun = true
	m.mu.Unlock()
	return nil
}

// RenewAddress runs the join/renew state machine for up to timeoutMs
// and, on success, adopts the returned address in the network layer.
func (m *Mesh) RenewAddress(timeoutMs uint32) (wire.Addr, error) {
	m.mu.Lock()
	jm := join.NewMachine(m.net, m.clk, m.logger, m.nodeID, m.connID)
	m.mu.Unlock()
	return jm.Run(timeoutMs)
}

// ReleaseAddress sends ADDR_RELEASE to the master and resets this
// node's local address to wire.DefaultAddr.
func (m *Mesh) ReleaseAddress() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.begun {
		return wire.NewError("ReleaseAddress", wire.NotConfigured, ErrNotBegun)
	}

	header := wire.Header{ToAddr: wire.MasterAddr, FromAddr: m.net.LogicalAddress(), Type: wire.MeshAddrRelease}
	payload := wire.AddrConfirmPayload{RequesterID: m.nodeID}
	if err := m.net.Write(header, payload.Encode(), 0); err != nil {
		return wire.NewError("ReleaseAddress", wire.FailedWrite, err)
	}
	return m.net.SetAddress(wire.DefaultAddr)
}

// GetAddress resolves nodeID to its logical address. On the master this
// is a local table lookup; elsewhere it sends MESH_ADDR_LOOKUP and
// waits up to AddrLookupTimeoutMs.
func (m *Mesh) GetAddress(nodeID wire.NodeId) (wire.Addr, error) {
	if nodeID == wire.MasterNodeId {
		return wire.MasterAddr, nil
	}

	m.mu.Lock()
	isMaster := m.isMaster
	if isMaster {
		entry, found := m.table.FindByID(nodeID)
		m.mu.Unlock()
		if !found || entry.Addr == wire.EmptyAddr {
			return wire.Addr(0), ErrLookupNotFound
		}
		return entry.Addr, nil
	}
	net := m.net
	clk := m.clk
	m.mu.Unlock()

	payload := wire.AddrLookupRequestPayload{ID: nodeID}
	header := wire.Header{ToAddr: wire.MasterAddr, FromAddr: net.LogicalAddress(), Type: wire.MeshAddrLookup}
	if err := net.Write(header, payload.Encode(), 0); err != nil {
		return wire.Addr(0), wire.NewError("GetAddress", wire.FailedAddrLookup, err)
	}

	deadline := clk.Millis() + AddrLookupTimeoutMs
	for clk.Millis() < deadline {
		if net.Update() != wire.MeshAddrLookup {
			continue
		}
		resp, err := wire.DecodeLookupResponsePayload(net.LastFrame().Payload)
		if err != nil {
			continue
		}
		if resp.Result < 0 {
			return wire.Addr(0), ErrLookupNotFound
		}
		return wire.Addr(resp.Result), nil
	}
	return wire.Addr(0), wire.NewError("GetAddress", wire.Timeout, nil)
}

// GetNodeID resolves addr to its node id. wire.BlankID returns this
// node's own id; wire.MasterAddr returns 0. On the master this is a
// local reverse lookup; elsewhere it sends MESH_ID_LOOKUP and waits up
// to IDLookupTimeoutMs.
func (m *Mesh) GetNodeID(addr wire.Addr) (wire.NodeId, error) {
	m.mu.Lock()
	if addr == wire.BlankID {
		id := m.nodeID
		m.mu.Unlock()
		return id, nil
	}
	if addr == wire.MasterAddr {
		m.mu.Unlock()
		return wire.MasterNodeId, nil
	}

	if m.isMaster {
		entry, found := m.table.FindByAddr(addr)
		m.mu.Unlock()
		if !found {
			return 0, ErrLookupNotFound
		}
		return entry.NodeID, nil
	}
	net := m.net
	clk := m.clk
	m.mu.Unlock()

	payload := wire.IDLookupRequestPayload{Addr: addr}
	header := wire.Header{ToAddr: wire.MasterAddr, FromAddr: net.LogicalAddress(), Type: wire.MeshIDLookup}
	if err := net.Write(header, payload.Encode(), 0); err != nil {
		return 0, wire.NewError("GetNodeID", wire.FailedAddrLookup, err)
	}

	deadline := clk.Millis() + IDLookupTimeoutMs
	for clk.Millis() < deadline {
		if net.Update() != wire.MeshIDLookup {
			continue
		}
		resp, err := wire.DecodeLookupResponsePayload(net.LastFrame().Payload)
		if err != nil {
			continue
		}
		if resp.Result < 0 {
			return 0, ErrLookupNotFound
		}
		return wire.NodeId(resp.Result), nil
	}
	return 0, wire.NewError("GetNodeID", wire.Timeout, nil)
}

// SetNodeID changes this node's identifier. Callers must RenewAddress
// afterward; SetNodeID itself does not touch the network layer.
func (m *Mesh) SetNodeID(id wire.NodeId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodeID = id
	m.isMaster = id == wire.MasterNodeId
}

// SetChannel changes the radio channel in place, without a full Begin.
func (m *Mesh) SetChannel(channel uint8) error {
	return m.radio.SetChannel(channel)
}

// SetChild enables or disables NO_POLL on the network layer, allowing
// or forbidding this node from acting as a parent.
func (m *Mesh) SetChild(allow bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if allow {
		m.net.SetFlags(m.net.Flags() &^ network.NoPoll)
	} else {
		m.net.SetFlags(m.net.Flags() | network.NoPoll)
	}
}

// SetAddress is the master-only administrative override: force-insert
// or replace (id, addr) in the binding table.
func (m *Mesh) SetAddress(id wire.NodeId, addr wire.Addr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isMaster {
		return wire.NewError("SetAddress", wire.NotConfigured, nil)
	}
	m.table.Set(id, addr)
	return nil
}

// CheckConnection issues up to PingCount pings to the master at
// PingSpacingMs spacing and reports liveness.
func (m *Mesh) CheckConnection() bool {
	m.mu.Lock()
	net, clk, r := m.net, m.clk, m.radio
	m.mu.Unlock()

	for i := 0; i < PingCount; i++ {
		if r.RxFifoFull() {
			r.StartListening()
			return true
		}
		header := wire.Header{ToAddr: wire.MasterAddr, FromAddr: net.LogicalAddress(), Type: wire.NetworkPing}
		if err := net.Write(header, nil, 0); err == nil {
			r.StartListening()
			return true
		}
		if i < PingCount-1 {
			clk.DelayMilliseconds(PingSpacingMs)
		}
	}
	r.StopListening()
	return false
}
