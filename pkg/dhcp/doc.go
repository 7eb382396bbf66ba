// Package dhcp implements the mesh master's address-assignment engine:
// turning an inbound address request into a free child slot, tracking
// the single outstanding offer until it is confirmed or times out, and
// committing it into the binding table only on confirmation.
package dhcp
