// Package protocol defines the wire messages exchanged over the persistent
// channel between a garden client and the world server. Every frame on the
// wire is a JSON envelope carrying a type tag and a type-specific payload.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Type tags every message on the wire.
type Type string

// Client -> server.
const (
	TypeJoin    Type = "join"
	TypeLeave   Type = "leave"
	TypeMove    Type = "move"
	TypeSpeak   Type = "speak"
	TypeBuild   Type = "build"
	TypeDestroy Type = "destroy"
)

// Server -> client.
const (
	TypeJoined Type = "joined"
	TypeError  Type = "error"
)

// Envelope is the outer frame for every message.
type Envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Vec3 is a world-space position.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Join announces an avatar on attach.
type Join struct {
	AvatarID string `json:"avatarId"`
}

// Leave announces detach. Clients send it empty; the server stamps the
// avatar id when relaying it to other clients.
type Leave struct {
	AvatarID string `json:"avatarId,omitempty"`
}

// Move carries a throttled position update. Coordinates are rounded to two
// decimals before transmission to bound message size. AvatarID is filled by
// the server on relay only.
type Move struct {
	AvatarID string  `json:"avatarId,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
}

// Speak carries a chat line.
type Speak struct {
	AvatarID string `json:"avatarId,omitempty"`
	Text     string `json:"text"`
}

// Build places a voxel at an integer world cell.
type Build struct {
	AvatarID string `json:"avatarId,omitempty"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Z        int    `json:"z"`
	Color    string `json:"color"`
	Material string `json:"material"`
}

// Destroy removes the voxel at an integer world cell.
type Destroy struct {
	AvatarID string `json:"avatarId,omitempty"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Z        int    `json:"z"`
}

// Joined confirms a join. Position, when present, is the authoritative
// starting position the client must adopt.
type Joined struct {
	AvatarID string `json:"avatarId,omitempty"`
	Position *Vec3  `json:"position,omitempty"`
}

// ErrorInfo reports a channel-level failure, typically a rejected join.
type ErrorInfo struct {
	Reason string `json:"reason"`
}

// Encode wraps payload in an envelope of the given type.
func Encode(t Type, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: t}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return Envelope{Type: t, Data: data}, nil
}

// MustEncode is Encode for payload types that cannot fail to marshal.
// All message structs in this package qualify.
func MustEncode(t Type, payload any) Envelope {
	env, err := Encode(t, payload)
	if err != nil {
		panic(err)
	}
	return env
}

// Decode parses a raw wire frame into an envelope.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// Payload unmarshals the envelope's data into out.
func (e Envelope) Payload(out any) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Marshal renders the envelope for the wire.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
