package log

import (
	"time"

	"github.com/rf24mesh/mesh-go/pkg/wire"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID is a free-form session tag; pkg/mesh sets it to a
	// UUID generated once per Mesh instance.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this is the master or a regular node.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// NodeID is the id of the node the event concerns: the local node's
	// own id, or the requester's id in a DHCP allocation event.
	NodeID wire.NodeId `cbor:"7,keyasint,omitempty"`

	// Addr is the logical tree address the event concerns, when one
	// applies (the candidate address in a DHCP allocation event).
	Addr wire.Addr `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Wire layer (classified)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Join/DHCP state transitions
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the control-message classification layer.
	LayerWire Layer = 1
	// LayerService is the join/DHCP/façade layer.
	LayerService Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a classified inbound or outbound frame.
	CategoryMessage Category = 0
	// CategoryState indicates a join/DHCP state transition.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates whether the local node is the mesh master or a regular
// (non-master) node.
type Role uint8

const (
	// RoleNode indicates a non-master mesh participant.
	RoleNode Role = 0
	// RoleMaster indicates the mesh master.
	RoleMaster Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleNode:
		return "NODE"
	case RoleMaster:
		return "MASTER"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (header + payload).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a classified control message at the wire layer.
type MessageEvent struct {
	// Type identifies the control message.
	Type wire.MessageType `cbor:"1,keyasint"`

	// FromAddr is the frame's source logical address.
	FromAddr wire.Addr `cbor:"2,keyasint,omitempty"`

	// ToAddr is the frame's destination logical address.
	ToAddr wire.Addr `cbor:"3,keyasint,omitempty"`

	// PayloadSize is the size of the frame's payload in bytes.
	PayloadSize int `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures join and DHCP lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityJoin indicates a join/renew state machine transition.
	StateEntityJoin StateEntity = 0
	// StateEntityDHCP indicates a master-side allocation decision.
	StateEntityDHCP StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityJoin:
		return "JOIN"
	case StateEntityDHCP:
		return "DHCP"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Kind is the error's classified kind, if it originated as a
	// *wire.Error.
	Kind wire.ErrorKind `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
