package wire

import (
	"encoding/binary"
	"fmt"
)

func errShortBuffer(want, got int) error {
	return fmt.Errorf("short buffer: want %d bytes, got %d", want, got)
}

// ReqAddressPayload is carried by a ReqAddress frame. ParentAddr is the
// address of the node the requester polled (the future parent).
// RequesterID is the requester's stable node id, carried here because an
// unjoined requester has no valid FromAddr to identify it by. ChildBitmap
// is the parent's occupied-child-slot mask: the requester sends it as
// zero, a non-master contact relaying the request fills in its own mask,
// and when the parent is the master itself the master ignores this field
// and uses its own network's ChildBitField.
type ReqAddressPayload struct {
	ParentAddr  Addr
	RequesterID NodeId
	ChildBitmap uint8
}

const reqAddressPayloadSize = 4

func (p ReqAddressPayload) Encode() []byte {
	buf := make([]byte, reqAddressPayloadSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(p.ParentAddr))
	buf[2] = byte(p.RequesterID)
	buf[3] = p.ChildBitmap
	return buf
}

func DecodeReqAddressPayload(b []byte) (ReqAddressPayload, error) {
	if len(b) < reqAddressPayloadSize {
		return ReqAddressPayload{}, NewError("DecodeReqAddressPayload", InvalidParam, errShortBuffer(reqAddressPayloadSize, len(b)))
	}
	return ReqAddressPayload{
		ParentAddr:  Addr(binary.LittleEndian.Uint16(b[0:2])),
		RequesterID: NodeId(b[2]),
		ChildBitmap: b[3],
	}, nil
}

// AddrResponsePayload is the master's reply to ReqAddress. Reserved
// echoes the requester's node id so the requester can reject a response
// addressed to a different, stale request.
type AddrResponsePayload struct {
	NewAddr  Addr
	Reserved NodeId
}

const addrResponsePayloadSize = 3

func (p AddrResponsePayload) Encode() []byte {
	buf := make([]byte, addrResponsePayloadSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(p.NewAddr))
	buf[2] = byte(p.Reserved)
	return buf
}

func DecodeAddrResponsePayload(b []byte) (AddrResponsePayload, error) {
	if len(b) < addrResponsePayloadSize {
		return AddrResponsePayload{}, NewError("DecodeAddrResponsePayload", InvalidParam, errShortBuffer(addrResponsePayloadSize, len(b)))
	}
	return AddrResponsePayload{
		NewAddr:  Addr(binary.LittleEndian.Uint16(b[0:2])),
		Reserved: NodeId(b[2]),
	}, nil
}

// AddrConfirmPayload accompanies MeshAddrConfirm so the master can match
// the confirmation to the pending offer by requester id, not just by the
// confirming frame's source address.
type AddrConfirmPayload struct {
	RequesterID NodeId
}

const addrConfirmPayloadSize = 1

func (p AddrConfirmPayload) Encode() []byte {
	return []byte{byte(p.RequesterID)}
}

func DecodeAddrConfirmPayload(b []byte) (AddrConfirmPayload, error) {
	if len(b) < addrConfirmPayloadSize {
		return AddrConfirmPayload{}, NewError("DecodeAddrConfirmPayload", InvalidParam, errShortBuffer(addrConfirmPayloadSize, len(b)))
	}
	return AddrConfirmPayload{RequesterID: NodeId(b[0])}, nil
}

// IDLookupRequestPayload carries the address being reverse-resolved by a
// MeshIDLookup frame.
type IDLookupRequestPayload struct {
	Addr Addr
}

const idLookupRequestPayloadSize = 2

func (p IDLookupRequestPayload) Encode() []byte {
	buf := make([]byte, idLookupRequestPayloadSize)
	binary.LittleEndian.PutUint16(buf, uint16(p.Addr))
	return buf
}

func DecodeIDLookupRequestPayload(b []byte) (IDLookupRequestPayload, error) {
	if len(b) < idLookupRequestPayloadSize {
		return IDLookupRequestPayload{}, NewError("DecodeIDLookupRequestPayload", InvalidParam, errShortBuffer(idLookupRequestPayloadSize, len(b)))
	}
	return IDLookupRequestPayload{Addr: Addr(binary.LittleEndian.Uint16(b))}, nil
}

// AddrLookupRequestPayload carries the node id being resolved by a
// MeshAddrLookup frame.
type AddrLookupRequestPayload struct {
	ID NodeId
}

const addrLookupRequestPayloadSize = 1

func (p AddrLookupRequestPayload) Encode() []byte {
	return []byte{byte(p.ID)}
}

func DecodeAddrLookupRequestPayload(b []byte) (AddrLookupRequestPayload, error) {
	if len(b) < addrLookupRequestPayloadSize {
		return AddrLookupRequestPayload{}, NewError("DecodeAddrLookupRequestPayload", InvalidParam, errShortBuffer(addrLookupRequestPayloadSize, len(b)))
	}
	return AddrLookupRequestPayload{ID: NodeId(b[0])}, nil
}

// LookupResponsePayload carries a signed 16-bit result shared by both
// MeshAddrLookup and MeshIDLookup replies: a non-negative value is the
// resolved address or id, -1 means "not found".
type LookupResponsePayload struct {
	Result int16
}

const lookupResponsePayloadSize = 2

func (p LookupResponsePayload) Encode() []byte {
	buf := make([]byte, lookupResponsePayloadSize)
	binary.LittleEndian.PutUint16(buf, uint16(p.Result))
	return buf
}

func DecodeLookupResponsePayload(b []byte) (LookupResponsePayload, error) {
	if len(b) < lookupResponsePayloadSize {
		return LookupResponsePayload{}, NewError("DecodeLookupResponsePayload", InvalidParam, errShortBuffer(lookupResponsePayloadSize, len(b)))
	}
	return LookupResponsePayload{Result: int16(binary.LittleEndian.Uint16(b))}, nil
}
