package meshtest

import (
	"time"

	"github.com/rf24mesh/mesh-go/pkg/mesh"
)

// Pump drives a master Mesh's Update/Dhcp/ExpireDhcp cycle until stop is
// closed, standing in for the host main loop the façade otherwise
// assumes. Non-master nodes need no such loop: every façade operation
// that waits for a reply (RenewAddress, GetAddress, Write, ...) pumps
// its own network internally while it waits.
func Pump(m *mesh.Mesh, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		m.Update()
		m.Dhcp()
		m.ExpireDhcp()
		time.Sleep(100 * time.Microsecond)
	}
}
