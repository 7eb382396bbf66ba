package mesh

import "github.com/rf24mesh/mesh-go/pkg/wire"

// Write resolves nodeID to an address and sends payload to it, retrying
// the resolution with a growing delay (50ms initial, +50ms per attempt)
// until LookupTimeoutMs elapses. nodeID 0 addresses the master.
func (m *Mesh) Write(msgType wire.MessageType, payload []byte, nodeID wire.NodeId) error {
	addr, err := m.resolveWithRetry(nodeID)
	if err != nil {
		return err
	}
	return m.WriteTo(addr, msgType, payload)
}

// WriteTo sends payload directly to addr without any id resolution.
func (m *Mesh) WriteTo(addr wire.Addr, msgType wire.MessageType, payload []byte) error {
	m.mu.Lock()
	net, begun := m.net, m.begun
	m.mu.Unlock()

	if !begun {
		return wire.NewError("WriteTo", wire.NotConfigured, ErrNotBegun)
	}

	header := wire.Header{ToAddr: addr, FromAddr: net.LogicalAddress(), Type: msgType}
	if err := net.Write(header, payload, 0); err != nil {
		return wire.NewError("WriteTo", wire.FailedWrite, err)
	}
	return nil
}

func (m *Mesh) resolveWithRetry(nodeID wire.NodeId) (wire.Addr, error) {
	m.mu.Lock()
	clk := m.clk
	m.mu.Unlock()

	delay := uint32(writeRetryBaseMs)
	deadline := clk.Millis() + LookupTimeoutMs
	for {
		addr, err := m.GetAddress(nodeID)
		if err == nil {
			return addr, nil
		}
		if clk.Millis() >= deadline {
			return wire.Addr(0), wire.NewError("Write", wire.FailedAddrLookup, err)
		}
		clk.DelayMilliseconds(delay)
		delay += writeRetryStepMs
	}
}
