package callctl

import "github.com/dkeye/Meet/internal/domain"

type Screen string

const (
	ScreenLobby Screen = "lobby"
	ScreenCall  Screen = "call"
)

// Snapshot is the raw state a view is computed from.
type Snapshot struct {
	State       State
	LocalID     domain.PeerID
	HasMedia    bool
	MediaDenied bool
	MicEnabled  bool
	CamEnabled  bool
	ChatOpen    bool
	RemoteInput string
	Chat        []domain.ChatEntry
}

// Toggle is one media control button.
type Toggle struct {
	Icon   string
	Danger bool
}

// View is everything a renderer needs; it holds no handles.
type View struct {
	Screen      Screen
	Status      string
	LocalID     string
	CanCall     bool
	RemoteInput string
	Mic         Toggle
	Camera      Toggle
	ChatOpen    bool
	Chat        []domain.ChatEntry
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:       c.state,
		LocalID:     c.localID,
		HasMedia:    c.session.Local != nil,
		MediaDenied: c.mediaDenied,
		MicEnabled:  c.session.MicEnabled,
		CamEnabled:  c.session.CamEnabled,
		ChatOpen:    c.chatOpen,
		RemoteInput: c.remoteInput,
		Chat:        c.chat.Entries(),
	}
}

// View renders the current controller state.
func (c *Controller) View() View { return Render(c.Snapshot()) }

// Render maps state to a view model. It is pure.
func Render(s Snapshot) View {
	v := View{
		Screen:      ScreenLobby,
		LocalID:     s.LocalID.String(),
		RemoteInput: s.RemoteInput,
		Mic:         micToggle(s.MicEnabled),
		Camera:      camToggle(s.CamEnabled),
		ChatOpen:    s.ChatOpen,
		Chat:        s.Chat,
	}
	v.CanCall = s.State == StateIdle && s.HasMedia && s.LocalID != ""

	switch {
	case s.State == StateInCall:
		v.Screen = ScreenCall
		v.Status = "In call"
	case s.State == StateConnecting:
		v.Status = "Connecting..."
	case s.MediaDenied:
		v.Status = "Please allow camera and microphone permissions to use this app."
	case s.LocalID == "":
		v.Status = "Waiting for meeting ID..."
	default:
		v.Status = "Ready"
	}
	return v
}

func micToggle(enabled bool) Toggle {
	if enabled {
		return Toggle{Icon: "mic"}
	}
	return Toggle{Icon: "mic_off", Danger: true}
}

func camToggle(enabled bool) Toggle {
	if enabled {
		return Toggle{Icon: "videocam"}
	}
	return Toggle{Icon: "videocam_off", Danger: true}
}
