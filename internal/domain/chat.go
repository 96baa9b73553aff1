package domain

// HangupSignal is the reserved data link payload that ends the call.
// It is never shown in the chat log.
const HangupSignal = "SIGNAL_HANGUP"

const (
	ChatStartedText = "End-to-end encrypted chat started."
	PeerJoinedText  = "User joined the meeting."
)

type ChatOrigin string

const (
	OriginSelf   ChatOrigin = "self"
	OriginPeer   ChatOrigin = "peer"
	OriginSystem ChatOrigin = "system"
)

type ChatEntry struct {
	Text   string     `json:"text"`
	Origin ChatOrigin `json:"origin"`
}

// ChatLog is the ordered list of messages shown in the chat panel.
type ChatLog struct {
	entries []ChatEntry
}

// NewChatLog returns a log holding the single "chat started" system entry.
func NewChatLog() *ChatLog {
	l := &ChatLog{}
	l.Reset()
	return l
}

func (l *ChatLog) Append(text string, origin ChatOrigin) {
	l.entries = append(l.entries, ChatEntry{Text: text, Origin: origin})
}

// Reset drops every entry and leaves the single system entry.
func (l *ChatLog) Reset() {
	l.entries = []ChatEntry{{Text: ChatStartedText, Origin: OriginSystem}}
}

func (l *ChatLog) Len() int { return len(l.entries) }

// Entries returns a copy so views cannot mutate the log.
func (l *ChatLog) Entries() []ChatEntry {
	out := make([]ChatEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
