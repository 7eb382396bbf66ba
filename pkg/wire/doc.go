// Package wire defines the on-air message format for the mesh addressing
// protocol: node and address types, control message type codes, and the
// little-endian fixed-size header and payload encodings carried inside
// every network frame.
//
// # Message Types
//
// Every frame carries a one-byte message type in its header. Address
// acquisition uses four of them in sequence:
//
//	NetworkPoll -> ReqAddress -> AddrResponse -> MeshAddrConfirm
//
// Lookups are single request/response pairs; a release is a one-way
// notice the master does not answer:
//
//	MeshAddrLookup, MeshIDLookup, MeshAddrRelease
//
// # Encoding
//
// All multi-byte fields are little-endian. Decoders validate the payload
// length against the size required for the message type before reading
// any field; a short payload is a decode error, never a silent zero-fill.
package wire
