// Package term is the terminal user surface of the peer: it prints the
// call view, shows notifications and turns typed lines into commands.
package term

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/domain"
)

const (
	msgPermission    = "Please allow camera and microphone permissions to use this app."
	msgInvalidID     = "Please enter a valid Meeting ID."
	msgCallActive    = "A call is already in progress."
	msgConnection    = "Could not connect to the other participant."
	msgReservedInput = "That message is reserved and was not sent."
)

// Message is the user-facing text for err.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrCallInProgress):
		return msgCallActive
	case errors.Is(err, domain.ErrPermissionDenied):
		return msgPermission
	case errors.Is(err, domain.ErrInvalidInput):
		return msgInvalidID
	case errors.Is(err, domain.ErrConnectionFailure):
		return msgConnection
	default:
		return err.Error()
	}
}

// Notifier implements core.Notifier by printing an alert line.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

func (n *Notifier) Notify(err error) {
	if err == nil {
		return
	}
	log.Debug().Err(err).Str("module", "term").Msg("notify")
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "! %s\n", Message(err))
}
