// Package radio defines the capability surface the mesh layer expects
// from the underlying short-range radio: channel/power/data-rate control
// and fifo status. It does not implement a driver - internal/meshtest
// provides a fake for tests, and a real build would wire this interface
// to a physical transceiver driver.
package radio
