package mesh

import (
	"github.com/rf24mesh/mesh-go/pkg/dhcp"
	"github.com/rf24mesh/mesh-go/pkg/log"
	"github.com/rf24mesh/mesh-go/pkg/network"
	"github.com/rf24mesh/mesh-go/pkg/persistence"
	"github.com/rf24mesh/mesh-go/pkg/wire"
)

// Update pumps the network layer once and classifies the last inbound
// frame, if any. On the master it synchronously dispatches address
// lookups, id lookups, releases and confirmations; on any node it
// latches REQ_ADDRESS frames for Dhcp to pick up outside this call
// (other frame types are not latched). Every classified frame is also mirrored to the logger as a
// Message event.
func (m *Mesh) Update() wire.MessageType {
	m.mu.Lock()
	net, isMaster := m.net, m.isMaster
	m.mu.Unlock()

	msgType := net.Update()
	if msgType == wire.MessageTypeNone {
		return msgType
	}

	frame := net.LastFrame()
	m.mu.Lock()
	m.logger.Log(log.Event{
		ConnectionID: m.connID,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    roleOf(m.isMaster),
		NodeID:       m.nodeID,
		Message: &log.MessageEvent{
			Type:        msgType,
			FromAddr:    frame.Header.FromAddr,
			ToAddr:      frame.Header.ToAddr,
			PayloadSize: len(frame.Payload),
		},
	})
	m.mu.Unlock()

	if isMaster {
		m.dispatchAsMaster(msgType, frame)
	} else {
		m.latchForDhcp(msgType, frame)
	}

	return msgType
}

func roleOf(isMaster bool) log.Role {
	if isMaster {
		return log.RoleMaster
	}
	return log.RoleNode
}

// dispatchAsMaster handles the frame types the master answers
// synchronously within Update itself; REQ_ADDRESS is latched instead,
// since its handling (§4.3) is deliberately deferred to Dhcp.
func (m *Mesh) dispatchAsMaster(msgType wire.MessageType, frame network.Frame) {
	switch msgType {
	case wire.ReqAddress:
		m.latchForDhcp(msgType, frame)
	case wire.MeshAddrConfirm:
		m.handleConfirm(frame)
	case wire.MeshAddrLookup:
		m.handleAddrLookup(frame)
	case wire.MeshIDLookup:
		m.handleIDLookup(frame)
	case wire.MeshAddrRelease:
		m.handleRelease(frame)
	}
}

func (m *Mesh) latchForDhcp(msgType wire.MessageType, frame network.Frame) {
	if msgType != wire.ReqAddress {
		return
	}

	req, err := wire.DecodeReqAddressPayload(frame.Payload)
	if err != nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	availableMask := req.ChildBitmap
	if req.ParentAddr == wire.MasterAddr {
		availableMask = m.net.ChildBitField()
	}
	m.pendingReq = dhcp.Request{
		RequesterID: req.RequesterID,
		SrcNode:     frame.Header.FromAddr,
		ReplyTo:     req.ParentAddr,
		Parent:      req.ParentAddr,
		ChildBitmap: availableMask,
	}
	m.dhcpPending = true
}

func (m *Mesh) handleConfirm(frame network.Frame) {
	payload, err := wire.DecodeAddrConfirmPayload(frame.Payload)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.HandleConfirm(frame.Header.FromAddr, payload.RequesterID, m.clk.Millis())
}

func (m *Mesh) handleAddrLookup(frame network.Frame) {
	req, err := wire.DecodeAddrLookupRequestPayload(frame.Payload)
	if err != nil {
		return
	}
	m.mu.Lock()
	entry, found := m.table.FindByID(req.ID)
	net := m.net
	m.mu.Unlock()

	result := int16(-1)
	if found && entry.Addr != wire.EmptyAddr {
		result = int16(entry.Addr)
	}
	resp := wire.LookupResponsePayload{Result: result}
	header := wire.Header{ToAddr: frame.Header.FromAddr, FromAddr: wire.MasterAddr, Type: wire.MeshAddrLookup}
	_ = net.Write(header, resp.Encode(), frame.Header.FromAddr)
}

func (m *Mesh) handleIDLookup(frame network.Frame) {
	req, err := wire.DecodeIDLookupRequestPayload(frame.Payload)
	if err != nil {
		return
	}
	m.mu.Lock()
	entry, found := m.table.FindByAddr(req.Addr)
	net := m.net
	m.mu.Unlock()

	result := int16(-1)
	if found {
		result = int16(entry.NodeID)
	}
	resp := wire.LookupResponsePayload{Result: result}
	header := wire.Header{ToAddr: frame.Header.FromAddr, FromAddr: wire.MasterAddr, Type: wire.MeshIDLookup}
	_ = net.Write(header, resp.Encode(), frame.Header.FromAddr)
}

func (m *Mesh) handleRelease(frame network.Frame) {
	if len(frame.Payload) < 1 {
		return
	}
	id := wire.NodeId(frame.Payload[0])
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table.Release(id)
}

// Dhcp consumes a latched REQ_ADDRESS frame outside the Update call,
// per §4.1's master-only deferred-assignment contract. It is a no-op on
// a non-master or when no request is pending.
func (m *Mesh) Dhcp() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isMaster || !m.dhcpPending {
		return
	}
	m.dhcpPending = false

	offer, ok := m.engine.HandleRequest(m.pendingReq)
	if !ok {
		return
	}
	m.engine.ArmDeadline(m.clk.Millis() + m.net.RouteTimeout())

	header := wire.Header{ToAddr: offer.ToAddr, FromAddr: wire.MasterAddr, Type: wire.AddrResponse}
	_ = m.net.Write(header, offer.Payload.Encode(), offer.DirectTo)
}

// ExpireDhcp clears a pending offer that has aged past its deadline
// without a matching confirmation. Called periodically alongside Dhcp.
func (m *Mesh) ExpireDhcp() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isMaster && m.engine != nil {
		m.engine.ExpirePending(m.clk.Millis())
	}
}

// SaveDHCP snapshots the master's binding table through the configured
// SnapshotStore. Returns NotConfigured if this node is not the master
// or no store was given at construction time.
func (m *Mesh) SaveDHCP() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isMaster || m.store == nil {
		return wire.NewError("SaveDHCP", wire.NotConfigured, nil)
	}

	entries := m.table.Entries()
	bindings := make([]persistence.BindingEntry, len(entries))
	for i, e := range entries {
		bindings[i] = persistence.BindingEntry{NodeID: e.NodeID, Addr: e.Addr}
	}
	return m.store.Save(&persistence.BindingSnapshot{Bindings: bindings})
}

// LoadDHCP restores the master's binding table from the configured
// SnapshotStore, replacing its current contents.
func (m *Mesh) LoadDHCP() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isMaster || m.store == nil {
		return wire.NewError("LoadDHCP", wire.NotConfigured, nil)
	}

	snapshot, err := m.store.Load()
	if err != nil {
		return wire.NewError("LoadDHCP", wire.FailedInit, err)
	}
	if snapshot == nil {
		return nil
	}

	m.table.Reset()
	for _, entry := range snapshot.Bindings {
		m.table.Set(entry.NodeID, entry.Addr)
	}
	return nil
}
