package callctl

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

// Handle applies one event. Events about a call or link that is no longer
// current are dropped, so late callbacks after hangup are harmless.
func (c *Controller) Handle(ev core.Event) {
	log.Debug().Str("module", "callctl").Str("event", ev.Kind.String()).Str("state", c.state.String()).Msg("event")

	switch ev.Kind {
	case core.EventPeerOpen:
		c.localID = ev.Peer
		log.Info().Str("module", "callctl").Str("id", ev.Peer.String()).Msg("peer id assigned")
	case core.EventLocalMediaReady:
		if ev.Media != nil {
			c.onLocalMediaReady(ev.Media)
		}
	case core.EventIncomingCall:
		if ev.Call != nil {
			_ = c.HandleIncomingCall(ev.Call)
		}
	case core.EventIncomingConnection:
		if ev.Link != nil {
			_ = c.HandleIncomingConnection(ev.Link)
		}
	case core.EventRemoteStream:
		c.onRemoteStream(ev.Call)
	case core.EventChannelOpened:
		if c.isCurrentLink(ev.Link) {
			c.chat.Append(domain.PeerJoinedText, domain.OriginSystem)
		}
	case core.EventChannelData:
		if c.isCurrentLink(ev.Link) {
			c.ReceiveChannelData(ev.Data)
		}
	case core.EventChannelClosed:
		if c.isCurrentLink(ev.Link) {
			c.onRemoteClosed("data link closed")
		}
	case core.EventCallClosed:
		if c.isCurrentCall(ev.Call) {
			c.onRemoteClosed("call closed")
		}
	case core.EventPeerError:
		c.onPeerError(ev.Err)
	}
}

func (c *Controller) onRemoteStream(call core.MediaCall) {
	if !c.isCurrentCall(call) || c.state != StateConnecting {
		return
	}
	c.state = StateInCall
	log.Info().Str("module", "callctl").Str("peer", call.Peer().String()).Msg("remote stream received")
}

func (c *Controller) onRemoteClosed(reason string) {
	log.Info().Err(domain.ErrRemoteClosed).Str("module", "callctl").Str("reason", reason).Msg("remote side ended the call")
	c.endCall()
}

func (c *Controller) onPeerError(err error) {
	if err == nil {
		return
	}
	if !errors.Is(err, domain.ErrConnectionFailure) {
		err = fmt.Errorf("%w: %v", domain.ErrConnectionFailure, err)
	}
	log.Error().Err(err).Str("module", "callctl").Msg("peer error")
	c.report(err)
	if c.state == StateConnecting {
		c.endCall()
	}
}

func (c *Controller) isCurrentCall(call core.MediaCall) bool {
	return call != nil && c.session.Call != nil && c.session.Call.ID() == call.ID()
}

func (c *Controller) isCurrentLink(link core.DataLink) bool {
	return link != nil && c.session.Link != nil && c.session.Link.ID() == link.ID()
}
