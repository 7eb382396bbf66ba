// Package mesh is the façade a host application drives: it owns the
// radio and network facades, the master's binding table and DHCP
// engine, and the join/renew state machine, and exposes the small
// operation set (begin, update, dhcp, write, getAddress, getNodeId, ...)
// that is all a caller needs to participate in the mesh.
package mesh
