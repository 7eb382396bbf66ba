package mesh_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rf24mesh/mesh-go/internal/meshtest"
	"github.com/rf24mesh/mesh-go/pkg/mesh"
	"github.com/rf24mesh/mesh-go/pkg/network"
	"github.com/rf24mesh/mesh-go/pkg/persistence"
	"github.com/rf24mesh/mesh-go/pkg/radio"
	"github.com/rf24mesh/mesh-go/pkg/wire"
)

// memStore is an in-memory persistence.SnapshotStore, so SaveDHCP/LoadDHCP
// can be exercised without touching a filesystem.
type memStore struct {
	snapshot *persistence.BindingSnapshot
}

func (s *memStore) Save(snapshot *persistence.BindingSnapshot) error {
	s.snapshot = snapshot
	return nil
}

func (s *memStore) Load() (*persistence.BindingSnapshot, error) {
	return s.snapshot, nil
}

func newNode(medium *meshtest.Medium, id wire.NodeId, opts ...mesh.Option) (*mesh.Mesh, *meshtest.Network) {
	net := medium.NewNetwork(wire.DefaultMaxChildren)
	r := meshtest.NewRadio()
	allOpts := append([]mesh.Option{mesh.WithClock(meshtest.NewClock())}, opts...)
	return mesh.New(id, r, net, allOpts...), net
}

func beginMasterMesh(t *testing.T, medium *meshtest.Medium, opts ...mesh.Option) (*mesh.Mesh, func()) {
	t.Helper()
	m, _ := newNode(medium, wire.MasterNodeId, opts...)
	require.NoError(t, m.Begin(mesh.DefaultChannel, radio.DataRate1Mbps, radio.PowerHigh, 0))

	stop := make(chan struct{})
	go meshtest.Pump(m, stop)
	return m, func() { close(stop) }
}

func TestBeginMasterInstallsMasterAddress(t *testing.T) {
	medium := meshtest.NewMedium()
	master, net := newNode(medium, wire.MasterNodeId)
	require.NoError(t, master.Begin(mesh.DefaultChannel, radio.DataRate1Mbps, radio.PowerHigh, 0))
	assert.Equal(t, wire.MasterAddr, net.LogicalAddress())
}

func TestBeginNonMasterJoinsAndAdoptsAddress(t *testing.T) {
	medium := meshtest.NewMedium()
	master, stop := beginMasterMesh(t, medium)
	defer stop()

	child, childNet := newNode(medium, 7)
	require.NoError(t, child.Begin(mesh.DefaultChannel, radio.DataRate1Mbps, radio.PowerHigh, 1000))

	assert.Equal(t, wire.Addr(1), childNet.LogicalAddress())

	addr, err := master.GetAddress(7)
	require.NoError(t, err)
	assert.Equal(t, wire.Addr(1), addr)
}

func TestGetNodeIDResolvesBothDirections(t *testing.T) {
	medium := meshtest.NewMedium()
	master, stop := beginMasterMesh(t, medium)
	defer stop()

	child, _ := newNode(medium, 7)
	require.NoError(t, child.Begin(mesh.DefaultChannel, radio.DataRate1Mbps, radio.PowerHigh, 1000))

	id, err := master.GetNodeID(wire.Addr(1))
	require.NoError(t, err)
	assert.Equal(t, wire.NodeId(7), id)

	addr, err := child.GetAddress(wire.MasterNodeId)
	require.NoError(t, err)
	assert.Equal(t, wire.MasterAddr, addr)

	self, err := child.GetNodeID(wire.BlankID)
	require.NoError(t, err)
	assert.Equal(t, wire.NodeId(7), self)
}

func TestGetNodeIDUnknownAddrNotFound(t *testing.T) {
	medium := meshtest.NewMedium()
	master, stop := beginMasterMesh(t, medium)
	defer stop()

	_, err := master.GetNodeID(wire.Addr(0o5))
	assert.ErrorIs(t, err, mesh.ErrLookupNotFound)
}

func TestSetAddressIsMasterOnlyOverride(t *testing.T) {
	medium := meshtest.NewMedium()
	master, stop := beginMasterMesh(t, medium)
	defer stop()

	require.NoError(t, master.SetAddress(42, wire.Addr(0o3)))
	addr, err := master.GetAddress(42)
	require.NoError(t, err)
	assert.Equal(t, wire.Addr(0o3), addr)

	child, _ := newNode(medium, 7)
	err = child.SetAddress(1, wire.Addr(1))
	assert.Equal(t, wire.NotConfigured, wire.KindOf(err))
}

func TestWriteResolvesIDAndDelivers(t *testing.T) {
	medium := meshtest.NewMedium()
	_, stop := beginMasterMesh(t, medium)
	defer stop()

	first, firstNet := newNode(medium, 7)
	require.NoError(t, first.Begin(mesh.DefaultChannel, radio.DataRate1Mbps, radio.PowerHigh, 1000))

	second, _ := newNode(medium, 9)
	require.NoError(t, second.Begin(mesh.DefaultChannel, radio.DataRate1Mbps, radio.PowerHigh, 1000))

	require.NoError(t, second.Write(wire.NetworkPing, []byte("hi"), 7))

	var gotType wire.MessageType
	for i := 0; i < 100 && gotType == wire.MessageTypeNone; i++ {
		gotType = firstNet.Update()
	}
	assert.Equal(t, wire.NetworkPing, gotType)
	assert.Equal(t, []byte("hi"), firstNet.LastFrame().Payload)
}

func TestWriteToMasterUnknownIDFailsAfterTimeout(t *testing.T) {
	medium := meshtest.NewMedium()
	master, stop := beginMasterMesh(t, medium)
	defer stop()

	err := master.Write(wire.NetworkPing, nil, 200)
	assert.Equal(t, wire.FailedAddrLookup, wire.KindOf(err))
}

func TestSetChildTogglesNoPoll(t *testing.T) {
	medium := meshtest.NewMedium()
	_, stop := beginMasterMesh(t, medium)
	defer stop()

	child, childNet := newNode(medium, 7)
	require.NoError(t, child.Begin(mesh.DefaultChannel, radio.DataRate1Mbps, radio.PowerHigh, 1000))

	child.SetChild(false)
	assert.NotEqual(t, network.Flags(0), childNet.Flags()&network.NoPoll)

	child.SetChild(true)
	assert.Equal(t, network.Flags(0), childNet.Flags()&network.NoPoll)
}

func TestSaveAndLoadDHCPRoundTrips(t *testing.T) {
	medium := meshtest.NewMedium()
	store := &memStore{}
	master, stop := beginMasterMesh(t, medium, mesh.WithSnapshotStore(store))
	defer stop()

	child, _ := newNode(medium, 7)
	require.NoError(t, child.Begin(mesh.DefaultChannel, radio.DataRate1Mbps, radio.PowerHigh, 1000))

	require.NoError(t, master.SaveDHCP())
	require.NotNil(t, store.snapshot)
	require.Len(t, store.snapshot.Bindings, 1)

	require.NoError(t, master.SetAddress(7, wire.Addr(0)))
	require.NoError(t, master.LoadDHCP())

	addr, err := master.GetAddress(7)
	require.NoError(t, err)
	assert.Equal(t, wire.Addr(1), addr)
}

func TestSaveDHCPWithoutStoreIsNotConfigured(t *testing.T) {
	medium := meshtest.NewMedium()
	master, stop := beginMasterMesh(t, medium)
	defer stop()

	err := master.SaveDHCP()
	assert.Equal(t, wire.NotConfigured, wire.KindOf(err))
}

func TestCheckConnectionSucceedsWhenMasterReachable(t *testing.T) {
	medium := meshtest.NewMedium()
	_, stop := beginMasterMesh(t, medium)
	defer stop()

	child, _ := newNode(medium, 7)
	require.NoError(t, child.Begin(mesh.DefaultChannel, radio.DataRate1Mbps, radio.PowerHigh, 1000))

	assert.True(t, child.CheckConnection())
}
