package callctl

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/core"
)

// Command is a user action executed on the loop goroutine.
type Command func(c *Controller)

// Loop owns a Controller and is the only goroutine that touches it.
// Peer library events and user commands are applied one at a time.
type Loop struct {
	ctrl     *Controller
	events   <-chan core.Event
	commands chan Command
	onChange func(View)
}

// NewLoop wires ctrl to events. onChange, if non-nil, receives the view after
// every applied event or command.
func NewLoop(ctrl *Controller, events <-chan core.Event, onChange func(View)) *Loop {
	return &Loop{
		ctrl:     ctrl,
		events:   events,
		commands: make(chan Command, 16),
		onChange: onChange,
	}
}

// Do queues cmd. It blocks until the loop accepts it or ctx is done.
func (l *Loop) Do(ctx context.Context, cmd Command) error {
	select {
	case l.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post injects an event as if the peer library had emitted it.
func (l *Loop) Post(ctx context.Context, ev core.Event) error {
	return l.Do(ctx, func(c *Controller) { c.Handle(ev) })
}

// Run applies events and commands until ctx is done, then hangs up and
// releases local media.
func (l *Loop) Run(ctx context.Context) error {
	events := l.events
	l.render()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "callctl").Msg("loop ctx done")
			l.ctrl.Close()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				log.Warn().Str("module", "callctl").Msg("peer events channel closed")
				events = nil
				continue
			}
			l.ctrl.Handle(ev)
		case cmd := <-l.commands:
			cmd(l.ctrl)
		}
		l.render()
	}
}

func (l *Loop) render() {
	if l.onChange != nil {
		l.onChange(l.ctrl.View())
	}
}
