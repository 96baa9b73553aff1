package core

import (
	"fmt"

	"github.com/dkeye/Meet/internal/domain"
)

type EventKind int

const (
	EventPeerOpen EventKind = iota
	EventLocalMediaReady
	EventIncomingCall
	EventIncomingConnection
	EventRemoteStream
	EventChannelOpened
	EventChannelData
	EventChannelClosed
	EventCallClosed
	EventPeerError
)

var eventNames = [...]string{
	EventPeerOpen:           "peer_open",
	EventLocalMediaReady:    "local_media_ready",
	EventIncomingCall:       "incoming_call",
	EventIncomingConnection: "incoming_connection",
	EventRemoteStream:       "remote_stream",
	EventChannelOpened:      "channel_opened",
	EventChannelData:        "channel_data",
	EventChannelClosed:      "channel_closed",
	EventCallClosed:         "call_closed",
	EventPeerError:          "peer_error",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is what the peer library (or capture) reports back. Only the
// fields relevant to Kind are set.
type Event struct {
	Kind  EventKind
	Peer  domain.PeerID
	Call  MediaCall
	Link  DataLink
	Media LocalMedia
	Data  string
	Err   error
}
