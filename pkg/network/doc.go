// Package network defines the framed network facade the mesh layer
// builds on: logical-address routing, multicast, and the flag bits that
// tune ack/hold behavior during address acquisition. Package
// internal/meshtest provides an in-process simulated implementation used
// by tests and the demo binaries; a real deployment wires this interface
// to an actual tree-routing network stack.
package network
