// Package meshtest provides fakes for the radio, network and clock
// capability surfaces, plus a shared Medium that lets several Mesh
// instances in one process join and talk to each other the way real
// radios would over the air. It exists so the end-to-end join/DHCP
// scenarios can run as ordinary Go tests, without any hardware.
package meshtest
