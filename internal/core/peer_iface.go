package core

import "github.com/dkeye/Meet/internal/domain"

// MediaCall is an audio/video call with one remote peer.
type MediaCall interface {
	ID() domain.ConnectionID
	Peer() domain.PeerID
	// Answer attaches local media to an incoming call and accepts it.
	Answer(media LocalMedia) error
	// Close must tolerate being called more than once.
	Close()
}

// DataLink is the ordered text channel used for chat and control.
type DataLink interface {
	ID() domain.ConnectionID
	Peer() domain.PeerID
	IsOpen() bool
	Send(text string) error
	// Close must tolerate being called more than once.
	Close()
}

// PeerClient is the surface of the peer connection library. It owns
// signaling, negotiation and transport; callers only see events.
type PeerClient interface {
	// ID is empty until EventPeerOpen has been delivered.
	ID() domain.PeerID
	Events() <-chan Event
	// Call places a call. Negotiation continues in the background and
	// reports through Events.
	Call(remote domain.PeerID, media LocalMedia) (MediaCall, error)
	// Connect opens a data link to remote in the background.
	Connect(remote domain.PeerID) (DataLink, error)
	Close()
}

// Notifier shows a blocking, user-facing message for an error.
type Notifier interface {
	Notify(err error)
}
