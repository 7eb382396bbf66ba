package join

import (
	"github.com/rf24mesh/mesh-go/pkg/clock"
	"github.com/rf24mesh/mesh-go/pkg/log"
	"github.com/rf24mesh/mesh-go/pkg/network"
	"github.com/rf24mesh/mesh-go/pkg/wire"
)

// Tuning constants from the original firmware's join/renew loop.
const (
	MaxPolls        = 4
	PollTimeoutMs   = 55
	ResponseWaitMs  = 225
	InterContactMs  = 5
	ConfirmRetries  = 6
	ConfirmSpacingMs = 3
)

// Machine drives one node's address-acquisition attempts over a network
// and clock facade. It holds no address state of its own beyond the
// current State, reported through logger as StateChange events.
type Machine struct {
	net    network.Network
	clk    clock.Clock
	logger log.Logger
	nodeID wire.NodeId
	connID string

	state      State
	reqCounter uint32
	totalReqs  uint32
}

// NewMachine creates a join/renew state machine for nodeID, operating on
// net and clk. logger may be nil (log.NoopLogger{} is used). connID tags
// every StateChange event the machine logs, letting a multi-node demo
// tell which node's join attempt a log line belongs to.
func NewMachine(net network.Network, clk clock.Clock, logger log.Logger, nodeID wire.NodeId, connID string) *Machine {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Machine{net: net, clk: clk, logger: logger, nodeID: nodeID, connID: connID, state: Unjoined}
}

// State returns the machine's current phase.
func (m *Machine) State() State {
	return m.state
}

// Run attempts to acquire an address within timeoutMs, cycling through
// poll/request/confirm attempts with backoff until timeoutMs elapses.
// On success it calls net.SetAddress with the confirmed address and
// returns it. On failure it returns wire.DefaultAddr and a non-nil
// *wire.Error classifying why.
func (m *Machine) Run(timeoutMs uint32) (wire.Addr, error) {
	deadline := m.clk.Millis() + timeoutMs
	m.net.SetFlags(m.net.Flags() | network.BypassHolds)

	for m.clk.Millis() < deadline {
		addr, err := m.attempt(deadline)
		if err == nil {
			return addr, nil
		}
		if wire.KindOf(err) == wire.FailedAddrConfirm {
			return wire.DefaultAddr, err
		}

		m.reqCounter = (m.reqCounter + 1) % 4
		m.totalReqs = (m.totalReqs + 1) % 10
		backoff := 50 + 2*(m.totalReqs+1)*(m.reqCounter+1)
		m.transition(Polling)
		m.clk.DelayMilliseconds(backoff)
	}

	return wire.DefaultAddr, wire.NewError("Run", wire.Timeout, nil)
}

// attempt runs a single poll/request/confirm cycle, bounded by deadline.
func (m *Machine) attempt(deadline uint32) (wire.Addr, error) {
	m.transition(Polling)
	level := uint8(m.reqCounter % 4)
	contacts := m.poll(level)
	if len(contacts) == 0 {
		return wire.DefaultAddr, wire.NewError("poll", wire.PollFail, nil)
	}

	m.transition(Requesting)
	for i, contact := range contacts {
		if m.clk.Millis() >= deadline {
			break
		}

		offer, ok := m.request(contact)
		if !ok {
			if i < len(contacts)-1 {
				m.clk.DelayMilliseconds(InterContactMs)
			}
			continue
		}

		m.transition(Confirming)
		if m.confirm(contact, offer.NewAddr) {
			if err := m.net.SetAddress(offer.NewAddr); err != nil {
				return wire.DefaultAddr, wire.NewError("SetAddress", wire.FailedAddrConfirm, err)
			}
			m.transition(Joined)
			return offer.NewAddr, nil
		}

		_ = m.net.SetAddress(wire.DefaultAddr)
		return wire.DefaultAddr, wire.NewError("confirm", wire.FailedAddrConfirm, nil)
	}

	return wire.DefaultAddr, wire.NewError("request", wire.NoResponse, nil)
}

// poll multicasts NETWORK_POLL at level and collects up to MaxPolls
// responding addresses within PollTimeoutMs.
func (m *Machine) poll(level uint8) []wire.Addr {
	header := wire.Header{ToAddr: wire.DefaultAddr, FromAddr: m.net.LogicalAddress(), Type: wire.NetworkPoll}
	if err := m.net.Multicast(header, nil, level); err != nil {
		return nil
	}

	var contacts []wire.Addr
	deadline := m.clk.Millis() + PollTimeoutMs
	for m.clk.Millis() < deadline && len(contacts) < MaxPolls {
		if m.net.Update() == wire.NetworkPoll {
			contacts = append(contacts, m.net.LastFrame().Header.FromAddr)
		}
	}
	return contacts
}

// request sends REQ_ADDRESS to contact and waits for a matching
// ADDR_RESPONSE, validating the offered address and reserved id.
func (m *Machine) request(contact wire.Addr) (wire.AddrResponsePayload, bool) {
	payload := wire.ReqAddressPayload{ParentAddr: contact, RequesterID: m.nodeID}
	header := wire.Header{ToAddr: wire.MasterAddr, FromAddr: m.net.LogicalAddress(), Type: wire.ReqAddress}
	if err := m.net.Write(header, payload.Encode(), contact); err != nil {
		return wire.AddrResponsePayload{}, false
	}

	deadline := m.clk.Millis() + ResponseWaitMs
	for m.clk.Millis() < deadline {
		if m.net.Update() != wire.AddrResponse {
			continue
		}
		resp, err := wire.DecodeAddrResponsePayload(m.net.LastFrame().Payload)
		if err != nil {
			continue
		}
		if resp.NewAddr == wire.EmptyAddr || resp.Reserved != m.nodeID {
			continue
		}
		return resp, true
	}
	return wire.AddrResponsePayload{}, false
}

// confirm sends ADDR_CONFIRM to the master via contact, retrying up to
// ConfirmRetries times at ConfirmSpacingMs spacing until a write succeeds.
// It reports newAddr as the frame's FromAddr, since the master keys the
// pending offer on the address it just handed out, not on the (still
// unset) address the requester had before this exchange.
func (m *Machine) confirm(contact wire.Addr, newAddr wire.Addr) bool {
	payload := wire.AddrConfirmPayload{RequesterID: m.nodeID}
	header := wire.Header{ToAddr: wire.MasterAddr, FromAddr: newAddr, Type: wire.MeshAddrConfirm}

	for i := 0; i < ConfirmRetries; i++ {
		if err := m.net.Write(header, payload.Encode(), contact); err == nil {
			return true
		}
		if i < ConfirmRetries-1 {
			m.clk.DelayMilliseconds(ConfirmSpacingMs)
		}
	}
	return false
}

func (m *Machine) transition(next State) {
	old := m.state
	m.state = next
	if old == next {
		return
	}
	m.logger.Log(log.Event{
		ConnectionID: m.connID,
		Layer:        log.LayerService,
		Category:     log.CategoryState,
		LocalRole:    log.RoleNode,
		NodeID:       m.nodeID,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityJoin,
			OldState: old.String(),
			NewState: next.String(),
		},
	})
}
