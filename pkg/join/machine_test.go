package join_test

import (
	"errors"
	"testing"

	"github.com/rf24mesh/mesh-go/pkg/join"
	"github.com/rf24mesh/mesh-go/pkg/network"
	"github.com/rf24mesh/mesh-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a millisecond counter that ticks on every read, so a
// scripted network's busy-wait loops terminate deterministically in
// tests without needing a real sleep.
type fakeClock struct{ ms uint32 }

func (c *fakeClock) Millis() uint32 {
	c.ms++
	return c.ms
}

func (c *fakeClock) DelayMilliseconds(ms uint32) { c.ms += ms }

// scriptedNetwork simulates a single counterparty: Multicast (the poll)
// queues a NETWORK_POLL reply from pollsFrom, and a REQ_ADDRESS write
// queues the canned addrResponse - mirroring the real protocol's
// causality (a response cannot arrive before its request is sent) so the
// machine's busy-wait loops never race against pre-seeded frames.
type scriptedNetwork struct {
	addr        wire.Addr
	flags       network.Flags
	pollsFrom   []wire.Addr
	addrResponse *wire.AddrResponsePayload
	failConfirm  bool

	queue  []network.Frame
	last   network.Frame
	writes []network.Frame
}

func (n *scriptedNetwork) Begin(addr wire.Addr) error { n.addr = addr; return nil }

func (n *scriptedNetwork) Update() wire.MessageType {
	if len(n.queue) == 0 {
		return wire.MessageTypeNone
	}
	n.last, n.queue = n.queue[0], n.queue[1:]
	return n.last.Header.Type
}

func (n *scriptedNetwork) LastFrame() network.Frame { return n.last }

func (n *scriptedNetwork) Write(h wire.Header, payload []byte, directTo wire.Addr) error {
	n.writes = append(n.writes, network.Frame{Header: h, Payload: payload})
	if n.failConfirm && h.Type == wire.MeshAddrConfirm {
		return wire.NewError("Write", wire.FailedWrite, errors.New("no ack"))
	}
	if h.Type == wire.ReqAddress && n.addrResponse != nil {
		n.queue = append(n.queue, network.Frame{
			Header:  wire.Header{Type: wire.AddrResponse, FromAddr: wire.MasterAddr},
			Payload: n.addrResponse.Encode(),
		})
	}
	return nil
}

func (n *scriptedNetwork) Multicast(h wire.Header, payload []byte, level uint8) error {
	n.writes = append(n.writes, network.Frame{Header: h, Payload: payload})
	for _, from := range n.pollsFrom {
		n.queue = append(n.queue, network.Frame{Header: wire.Header{Type: wire.NetworkPoll, FromAddr: from}})
	}
	return nil
}

func (n *scriptedNetwork) SetAddress(addr wire.Addr) error     { n.addr = addr; return nil }
func (n *scriptedNetwork) LogicalAddress() wire.Addr            { return n.addr }
func (n *scriptedNetwork) IsValidAddress(addr wire.Addr) bool   { return true }
func (n *scriptedNetwork) ChildBitField() uint8                 { return 0 }
func (n *scriptedNetwork) RouteTimeout() uint32                 { return 100 }
func (n *scriptedNetwork) SetFlags(f network.Flags)             { n.flags = f }
func (n *scriptedNetwork) Flags() network.Flags                 { return n.flags }

var _ network.Network = (*scriptedNetwork)(nil)

func TestMachineRunJoinsOnFirstAttempt(t *testing.T) {
	resp := wire.AddrResponsePayload{NewAddr: 0o1, Reserved: 7}
	net := &scriptedNetwork{
		addr:         wire.DefaultAddr,
		pollsFrom:    []wire.Addr{wire.MasterAddr},
		addrResponse: &resp,
	}
	clk := &fakeClock{}
	m := join.NewMachine(net, clk, nil, 7, "test-conn")

	addr, err := m.Run(1000)

	require.NoError(t, err)
	assert.Equal(t, wire.Addr(0o1), addr)
	assert.Equal(t, join.Joined, m.State())
	assert.Equal(t, wire.Addr(0o1), net.LogicalAddress())
}

func TestMachineRunTimesOutWhenContactNeverAnswersRequest(t *testing.T) {
	net := &scriptedNetwork{
		addr:      wire.DefaultAddr,
		pollsFrom: []wire.Addr{wire.MasterAddr},
		// no addrResponse configured: the contact never answers REQ_ADDRESS
	}
	clk := &fakeClock{}
	m := join.NewMachine(net, clk, nil, 7, "test-conn")

	_, err := m.Run(300)

	require.Error(t, err)
	assert.Equal(t, wire.Timeout, wire.KindOf(err))
}

func TestMachineRunTimesOutWhenNoContactsRespond(t *testing.T) {
	net := &scriptedNetwork{addr: wire.DefaultAddr}
	clk := &fakeClock{}
	m := join.NewMachine(net, clk, nil, 7, "test-conn")

	addr, err := m.Run(200)

	require.Error(t, err)
	assert.Equal(t, wire.Timeout, wire.KindOf(err))
	assert.Equal(t, wire.DefaultAddr, addr)
}

func TestMachineRunFailsAddrConfirmWhenWritesNeverAck(t *testing.T) {
	resp := wire.AddrResponsePayload{NewAddr: 0o1, Reserved: 7}
	net := &scriptedNetwork{
		addr:         wire.DefaultAddr,
		pollsFrom:    []wire.Addr{wire.MasterAddr},
		addrResponse: &resp,
		failConfirm:  true,
	}
	clk := &fakeClock{}
	m := join.NewMachine(net, clk, nil, 7, "test-conn")

	_, err := m.Run(1000)

	require.Error(t, err)
	assert.Equal(t, wire.FailedAddrConfirm, wire.KindOf(err))
	assert.Equal(t, join.ConfirmRetries, countConfirms(net.writes))
}

func countConfirms(frames []network.Frame) int {
	n := 0
	for _, f := range frames {
		if f.Header.Type == wire.MeshAddrConfirm {
			n++
		}
	}
	return n
}
