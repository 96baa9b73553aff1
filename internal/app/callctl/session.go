package callctl

import "github.com/dkeye/Meet/internal/core"

// State is the call lifecycle: Idle -> Connecting -> InCall -> Idle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateInCall
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateInCall:
		return "in_call"
	}
	return "unknown"
}

// Session holds the handles the controller owns. Call and Link are nil
// outside a call; Local survives hangup and is reused by the next call.
type Session struct {
	Local      core.LocalMedia
	Call       core.MediaCall
	Link       core.DataLink
	MicEnabled bool
	CamEnabled bool
}

func (s *Session) hasCall() bool { return s.Call != nil || s.Link != nil }

func (s *Session) linkOpen() bool { return s.Link != nil && s.Link.IsOpen() }

// clearCall drops call handles and keeps local media.
func (s *Session) clearCall() {
	s.Call = nil
	s.Link = nil
}
