package dhcp_test

import (
	"testing"

	"github.com/rf24mesh/mesh-go/pkg/binding"
	"github.com/rf24mesh/mesh-go/pkg/dhcp"
	"github.com/rf24mesh/mesh-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRequestFirstChildOfMaster(t *testing.T) {
	tbl := binding.NewTable()
	engine := dhcp.NewEngine(tbl, nil, wire.DefaultMaxChildren)

	offer, ok := engine.HandleRequest(dhcp.Request{
		RequesterID: 7,
		SrcNode:     wire.DefaultAddr,
		ReplyTo:     wire.MasterAddr,
		Parent:      wire.MasterAddr,
		ChildBitmap: 0,
	})

	require.True(t, ok)
	assert.Equal(t, wire.Addr(0o1), offer.Payload.NewAddr)
	assert.Equal(t, wire.NodeId(7), offer.Payload.Reserved)
}

func TestHandleRequestSkipsOccupiedSlots(t *testing.T) {
	tbl := binding.NewTable()
	engine := dhcp.NewEngine(tbl, nil, wire.DefaultMaxChildren)

	offer, ok := engine.HandleRequest(dhcp.Request{
		RequesterID: 9,
		SrcNode:     wire.DefaultAddr,
		ReplyTo:     wire.MasterAddr,
		Parent:      wire.MasterAddr,
		ChildBitmap: 0x01, // slot 1 occupied
	})

	require.True(t, ok)
	assert.Equal(t, wire.Addr(0o2), offer.Payload.NewAddr)
}

func TestHandleRequestRejectsMasterID(t *testing.T) {
	tbl := binding.NewTable()
	engine := dhcp.NewEngine(tbl, nil, wire.DefaultMaxChildren)

	_, ok := engine.HandleRequest(dhcp.Request{RequesterID: wire.MasterNodeId})
	assert.False(t, ok)
}

func TestHandleRequestGrandchildViaIntermediate(t *testing.T) {
	tbl := binding.NewTable()
	tbl.Set(7, 0o1)
	engine := dhcp.NewEngine(tbl, nil, wire.DefaultMaxChildren)

	offer, ok := engine.HandleRequest(dhcp.Request{
		RequesterID: 11,
		SrcNode:     wire.DefaultAddr,
		ReplyTo:     0o1,
		Parent:      0o1,
		ChildBitmap: 0,
	})

	require.True(t, ok)
	assert.Equal(t, wire.Addr(0o11), offer.Payload.NewAddr)
}

func TestHandleRequestAvoidsCollisionWithExistingBinding(t *testing.T) {
	tbl := binding.NewTable()
	tbl.Set(3, 0o1) // slot 1 already bound, but bitmap doesn't reflect it

	engine := dhcp.NewEngine(tbl, nil, wire.DefaultMaxChildren)

	offer, ok := engine.HandleRequest(dhcp.Request{
		RequesterID: 7,
		SrcNode:     wire.DefaultAddr,
		ReplyTo:     wire.MasterAddr,
		Parent:      wire.MasterAddr,
		ChildBitmap: 0,
	})

	require.True(t, ok)
	assert.Equal(t, wire.Addr(0o2), offer.Payload.NewAddr, "must skip the slot already bound in the table even though the bitmap claims it free")
}

func TestHandleRequestNoFreeSlotDropsSilently(t *testing.T) {
	tbl := binding.NewTable()
	engine := dhcp.NewEngine(tbl, nil, wire.DefaultMaxChildren)

	_, ok := engine.HandleRequest(dhcp.Request{
		RequesterID: 7,
		SrcNode:     wire.DefaultAddr,
		ReplyTo:     wire.MasterAddr,
		Parent:      wire.MasterAddr,
		ChildBitmap: 0x0F, // all four slots occupied
	})

	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Len())
}

func TestHandleConfirmCommitsOnMatch(t *testing.T) {
	tbl := binding.NewTable()
	engine := dhcp.NewEngine(tbl, nil, wire.DefaultMaxChildren)

	_, ok := engine.HandleRequest(dhcp.Request{
		RequesterID: 7,
		SrcNode:     wire.DefaultAddr,
		ReplyTo:     wire.MasterAddr,
		Parent:      wire.MasterAddr,
	})
	require.True(t, ok)
	engine.ArmDeadline(1000)

	committed := engine.HandleConfirm(0o1, 7, 500)
	assert.True(t, committed)

	entry, found := tbl.FindByID(7)
	require.True(t, found)
	assert.Equal(t, wire.Addr(0o1), entry.Addr)
}

func TestHandleConfirmRejectsMismatch(t *testing.T) {
	tbl := binding.NewTable()
	engine := dhcp.NewEngine(tbl, nil, wire.DefaultMaxChildren)

	_, ok := engine.HandleRequest(dhcp.Request{
		RequesterID: 7,
		SrcNode:     wire.DefaultAddr,
		ReplyTo:     wire.MasterAddr,
		Parent:      wire.MasterAddr,
	})
	require.True(t, ok)
	engine.ArmDeadline(1000)

	committed := engine.HandleConfirm(0o1, 9, 500)
	assert.False(t, committed)
	_, found := tbl.FindByID(9)
	assert.False(t, found)
}

func TestHandleConfirmRejectsAfterDeadline(t *testing.T) {
	tbl := binding.NewTable()
	engine := dhcp.NewEngine(tbl, nil, wire.DefaultMaxChildren)

	_, ok := engine.HandleRequest(dhcp.Request{
		RequesterID: 13,
		SrcNode:     wire.DefaultAddr,
		ReplyTo:     wire.MasterAddr,
		Parent:      wire.MasterAddr,
	})
	require.True(t, ok)
	engine.ArmDeadline(1000)

	committed := engine.HandleConfirm(0o1, 13, 2000)
	assert.False(t, committed, "confirmation arriving after the route-timeout deadline must not commit")

	_, found := tbl.FindByID(13)
	assert.False(t, found)

	// The same id may retry and be offered the same slot again.
	offer, ok := engine.HandleRequest(dhcp.Request{
		RequesterID: 13,
		SrcNode:     wire.DefaultAddr,
		ReplyTo:     wire.MasterAddr,
		Parent:      wire.MasterAddr,
	})
	require.True(t, ok)
	assert.Equal(t, wire.Addr(0o1), offer.Payload.NewAddr)
}

func TestExpirePendingClearsWithoutCommit(t *testing.T) {
	tbl := binding.NewTable()
	engine := dhcp.NewEngine(tbl, nil, wire.DefaultMaxChildren)

	_, ok := engine.HandleRequest(dhcp.Request{
		RequesterID: 7,
		SrcNode:     wire.DefaultAddr,
		ReplyTo:     wire.MasterAddr,
		Parent:      wire.MasterAddr,
	})
	require.True(t, ok)
	engine.ArmDeadline(1000)

	require.True(t, engine.HasPending())
	engine.ExpirePending(2000)
	assert.False(t, engine.HasPending())
}
