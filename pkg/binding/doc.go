// Package binding implements the mesh master's id-to-address table: an
// insertion-ordered slice of entries, mutated by the DHCP engine, by
// address releases, by administrative overrides and by snapshot reloads,
// that the resolver and DHCP engine consult
// to answer lookups and to detect address collisions.
package binding
