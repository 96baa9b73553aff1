package term

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dkeye/Meet/internal/app/callctl"
	"github.com/dkeye/Meet/internal/domain"
)

const help = `Commands:
  /call <id>  call a meeting ID
  /mute       toggle microphone
  /cam        toggle camera
  /hangup     end the call
  /chat       show or hide the chat
  /close      hide the chat
  /media      ask for camera and microphone again
  /copy       print your meeting ID
  /quit       leave
Anything else is sent as a chat message.`

// Input turns typed lines into controller commands.
type Input struct {
	ctx context.Context
	out io.Writer
}

func NewInput(ctx context.Context, out io.Writer) *Input {
	return &Input{ctx: ctx, out: out}
}

// Parse returns the command for line, or quit when the user wants to leave.
// A nil command means nothing to do.
func (in *Input) Parse(line string) (cmd callctl.Command, quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}
	if !strings.HasPrefix(line, "/") {
		return in.chat(line), false
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/quit", "/exit":
		return nil, true
	case "/call":
		return func(c *callctl.Controller) { _ = c.StartOutgoingCall(arg) }, false
	case "/mute", "/mic":
		return func(c *callctl.Controller) { c.ToggleMicrophone() }, false
	case "/cam", "/video":
		return func(c *callctl.Controller) { c.ToggleCamera() }, false
	case "/hangup":
		return func(c *callctl.Controller) { c.HangUp() }, false
	case "/chat":
		return func(c *callctl.Controller) { c.ToggleChat() }, false
	case "/close":
		return func(c *callctl.Controller) { c.CloseChat() }, false
	case "/media":
		return func(c *callctl.Controller) { _, _ = c.AcquireLocalMedia(in.ctx) }, false
	case "/copy":
		return func(c *callctl.Controller) {
			if id := c.LocalID(); id != "" {
				fmt.Fprintf(in.out, "%s\n", id)
			}
		}, false
	case "/help":
		fmt.Fprintln(in.out, help)
		return nil, false
	default:
		fmt.Fprintf(in.out, "unknown command %s, try /help\n", name)
		return nil, false
	}
}

func (in *Input) chat(text string) callctl.Command {
	return func(c *callctl.Controller) {
		sent, err := c.SendChatMessage(text)
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			fmt.Fprintf(in.out, "! %s\n", msgReservedInput)
		case err != nil:
			fmt.Fprintf(in.out, "! %s\n", Message(err))
		case !sent:
			fmt.Fprintln(in.out, "no one to chat with yet")
		}
	}
}
