package core

import "github.com/dkeye/Meet/internal/domain"

// Frame is a raw signaling payload.
type Frame []byte

// SignalConnection abstracts a signaling transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

type SignalType string

const (
	SignalOpen   SignalType = "open"
	SignalOffer  SignalType = "offer"
	SignalAnswer SignalType = "answer"
	SignalLeave  SignalType = "leave"
	SignalError  SignalType = "error"
	SignalPing   SignalType = "ping"
	SignalPong   SignalType = "pong"
)

type ConnectionKind string

const (
	KindMedia ConnectionKind = "media"
	KindData  ConnectionKind = "data"
)

// Error codes carried in Envelope.Error.
const (
	ErrCodePeerUnavailable = "peer_unavailable"
	ErrCodeBadPayload      = "bad_payload"
	ErrCodeUnknownType     = "unknown_type"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeInvalidID       = "invalid_id"
)

type SignalPayload struct {
	ConnectionID domain.ConnectionID `json:"connection_id"`
	Kind         ConnectionKind      `json:"kind"`
	SDP          string              `json:"sdp,omitempty"`
}

// Envelope is the single JSON message shape exchanged with the broker.
// Src is always stamped by the broker, never trusted from the client.
type Envelope struct {
	Type    SignalType     `json:"type"`
	ID      domain.PeerID  `json:"id,omitempty"`
	Src     domain.PeerID  `json:"src,omitempty"`
	Dst     domain.PeerID  `json:"dst,omitempty"`
	Payload *SignalPayload `json:"payload,omitempty"`
	Error   string         `json:"error,omitempty"`
}
