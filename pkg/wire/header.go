package wire

import "encoding/binary"

// HeaderSize is the encoded size in bytes of a Header.
const HeaderSize = 7

// Header precedes every frame's payload. ToAddr/FromAddr are logical tree
// addresses already resolved by the network layer; Type classifies the
// payload that follows; ID is a per-sender sequence number the network
// layer uses for its own deduplication and is opaque to this package.
type Header struct {
	ToAddr   Addr
	FromAddr Addr
	Type     MessageType
	ID       uint16
}

// Encode writes h as HeaderSize little-endian bytes.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(h.ToAddr))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(h.FromAddr))
	buf[4] = byte(h.Type)
	binary.LittleEndian.PutUint16(buf[5:7], h.ID)
	return buf
}

// DecodeHeader reads a Header from the front of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, NewError("DecodeHeader", InvalidParam, errShortBuffer(HeaderSize, len(b)))
	}
	return Header{
		ToAddr:   Addr(binary.LittleEndian.Uint16(b[0:2])),
		FromAddr: Addr(binary.LittleEndian.Uint16(b[2:4])),
		Type:     MessageType(b[4]),
		ID:       binary.LittleEndian.Uint16(b[5:7]),
	}, nil
}
