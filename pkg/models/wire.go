package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Wire message types. The set is closed: anything else is rejected at the
// protocol boundary instead of being passed around as loose JSON.
const (
	TypeRoomJoin     = "room-join"
	TypeLeaveRoom    = "leave-room"
	TypeChat         = "chat"
	TypeUpdateShape  = "update-shape"
	TypeDeleteShape  = "delete-shape"
	TypeUpdatedShape = "updated-shape"
)

// ErrMalformed marks a message that failed envelope decoding or field
// validation. The handler drops the single message and keeps the
// connection.
var ErrMalformed = errors.New("malformed message")

// Envelope is the transport-agnostic wire unit. Message carries a
// JSON-encoded Shape string on the chat path (relayed verbatim);
// ShapeData/Shape carry raw shape JSON on the update paths.
type Envelope struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"roomId,omitempty"`
	Message   string          `json:"message,omitempty"`
	ShapeID   int64           `json:"shapeId,omitempty"`
	ShapeData json.RawMessage `json:"shapeData,omitempty"`
	Shape     json.RawMessage `json:"shape,omitempty"`
}

// DecodeEnvelope parses one wire message and validates it against the
// closed message set. Required fields are checked per type so handlers
// never see a half-formed envelope.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch env.Type {
	case TypeRoomJoin, TypeLeaveRoom:
		if env.RoomID == "" {
			return Envelope{}, fmt.Errorf("%w: %s without roomId", ErrMalformed, env.Type)
		}
	case TypeChat:
		if env.RoomID == "" || env.Message == "" {
			return Envelope{}, fmt.Errorf("%w: chat requires roomId and message", ErrMalformed)
		}
	case TypeUpdateShape:
		if env.RoomID == "" || env.ShapeID <= 0 || len(env.ShapeData) == 0 {
			return Envelope{}, fmt.Errorf("%w: update-shape requires roomId, shapeId and shapeData", ErrMalformed)
		}
	case TypeDeleteShape:
		if env.RoomID == "" || env.ShapeID <= 0 {
			return Envelope{}, fmt.Errorf("%w: delete-shape requires roomId and shapeId", ErrMalformed)
		}
	case TypeUpdatedShape:
		if env.RoomID == "" || env.ShapeID <= 0 || len(env.Shape) == 0 {
			return Envelope{}, fmt.Errorf("%w: updated-shape requires roomId, shapeId and shape", ErrMalformed)
		}
	default:
		return Envelope{}, fmt.Errorf("%w: unknown type %q", ErrMalformed, env.Type)
	}
	return env, nil
}

// Encode marshals the envelope for the wire.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}
