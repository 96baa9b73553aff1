package term

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/dkeye/Meet/internal/app/callctl"
	"github.com/dkeye/Meet/internal/domain"
)

// Renderer prints views, skipping ones identical to the last printed.
type Renderer struct {
	mu   sync.Mutex
	out  io.Writer
	last string
	// qr caches the code of the local id, which rarely changes.
	qrID string
	qr   string
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

func (r *Renderer) Render(v callctl.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.format(v)
	if s == r.last {
		return
	}
	r.last = s
	_, _ = io.WriteString(r.out, s)
}

func (r *Renderer) format(v callctl.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n== Meet [%s] ==\n", v.Screen)
	fmt.Fprintf(&b, "Status: %s\n", v.Status)

	if v.Screen == callctl.ScreenLobby {
		if v.LocalID != "" {
			fmt.Fprintf(&b, "Your meeting ID: %s  (/copy)\n", v.LocalID)
			b.WriteString(r.qrCode(v.LocalID))
		}
		if v.RemoteInput != "" {
			fmt.Fprintf(&b, "Meeting ID: %s\n", v.RemoteInput)
		}
		if v.CanCall {
			b.WriteString("Type /call <meeting id> to start.\n")
		}
	} else {
		fmt.Fprintf(&b, "[%s] /mute  [%s] /cam  [call_end] /hangup\n", toggleLabel(v.Mic), toggleLabel(v.Camera))
	}

	if v.ChatOpen {
		b.WriteString("-- chat (/close) --\n")
		for _, e := range v.Chat {
			fmt.Fprintf(&b, "%s: %s\n", speaker(e.Origin), e.Text)
		}
	} else if n := len(v.Chat); n > 0 && v.Screen == callctl.ScreenCall {
		fmt.Fprintf(&b, "-- chat hidden, %d messages (/chat) --\n", n)
	}
	return b.String()
}

func (r *Renderer) qrCode(id string) string {
	if id == r.qrID {
		return r.qr
	}
	q, err := qrcode.New(id, qrcode.Medium)
	if err != nil {
		log.Warn().Err(err).Str("module", "term").Msg("qr encode")
		return ""
	}
	r.qrID = id
	r.qr = q.ToString(false)
	return r.qr
}

func toggleLabel(t callctl.Toggle) string {
	if t.Danger {
		return "!" + t.Icon
	}
	return t.Icon
}

func speaker(o domain.ChatOrigin) string {
	switch o {
	case domain.OriginSelf:
		return "you"
	case domain.OriginPeer:
		return "peer"
	default:
		return "*"
	}
}
