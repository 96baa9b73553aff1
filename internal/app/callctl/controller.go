// Package callctl is the call session controller: it keeps the session
// state of a one-to-one call, reacts to peer library events and produces a
// view model for the user interface.
//
// A Controller is not safe for concurrent use. Loop serializes every event
// and user command onto one goroutine.
package callctl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

var ErrCallSelf = errors.New("cannot call your own meeting id")

type Controller struct {
	peer     core.PeerClient
	capture  core.MediaCapture
	notifier core.Notifier

	localID  domain.PeerID
	state    State
	session  Session
	chat     *domain.ChatLog
	chatOpen bool
	// mediaDenied is set once capture failed; calls stay disabled until a
	// later AcquireLocalMedia succeeds.
	mediaDenied bool
	// remoteInput mirrors the remote id field of the lobby.
	remoteInput string
}

func NewController(peer core.PeerClient, capture core.MediaCapture, notifier core.Notifier) *Controller {
	return &Controller{
		peer:     peer,
		capture:  capture,
		notifier: notifier,
		chat:     domain.NewChatLog(),
	}
}

func (c *Controller) State() State           { return c.state }
func (c *Controller) LocalID() domain.PeerID { return c.localID }
func (c *Controller) Chat() []domain.ChatEntry {
	return c.chat.Entries()
}
func (c *Controller) MicEnabled() bool { return c.session.MicEnabled }
func (c *Controller) CamEnabled() bool { return c.session.CamEnabled }

// AcquireLocalMedia requests camera and microphone. On refusal the user is
// told to grant permission and calls cannot be placed or answered.
func (c *Controller) AcquireLocalMedia(ctx context.Context) (core.LocalMedia, error) {
	if c.session.Local != nil {
		return c.session.Local, nil
	}
	media, err := c.capture.Acquire(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrPermissionDenied) {
			err = fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
		}
		log.Error().Err(err).Str("module", "callctl").Msg("failed to get local stream")
		c.mediaDenied = true
		c.report(err)
		return nil, err
	}
	c.onLocalMediaReady(media)
	return media, nil
}

func (c *Controller) onLocalMediaReady(media core.LocalMedia) {
	c.session.Local = media
	c.session.MicEnabled = true
	c.session.CamEnabled = true
	c.mediaDenied = false
	if a := media.Audio(); a != nil {
		a.SetEnabled(true)
	}
	if v := media.Video(); v != nil {
		v.SetEnabled(true)
	}
	log.Info().Str("module", "callctl").Msg("local media ready")
}

// HandleIncomingCall answers automatically with local media. The UI moves
// to the call screen on the first remote media frame.
func (c *Controller) HandleIncomingCall(call core.MediaCall) error {
	l := log.With().Str("module", "callctl").Str("peer", call.Peer().String()).Str("call", string(call.ID())).Logger()
	if c.session.Local == nil {
		l.Warn().Msg("incoming call without local media, refusing")
		call.Close()
		c.report(domain.ErrNoLocalMedia)
		return domain.ErrNoLocalMedia
	}
	if c.session.Call != nil {
		l.Warn().Msg("incoming call while another is active, refusing")
		call.Close()
		return domain.ErrCallInProgress
	}

	c.session.Call = call
	c.state = StateConnecting
	if err := call.Answer(c.session.Local); err != nil {
		err = fmt.Errorf("%w: answer: %v", domain.ErrConnectionFailure, err)
		l.Error().Err(err).Msg("answer failed")
		c.report(err)
		c.endCall()
		return err
	}
	l.Info().Msg("incoming call answered")
	return nil
}

// HandleIncomingConnection adopts a data link opened by the remote peer.
func (c *Controller) HandleIncomingConnection(link core.DataLink) error {
	if c.session.Link != nil {
		log.Warn().Str("module", "callctl").Str("peer", link.Peer().String()).Msg("second data link refused")
		link.Close()
		return domain.ErrCallInProgress
	}
	c.session.Link = link
	if c.state == StateIdle {
		c.state = StateConnecting
	}
	return nil
}

// StartOutgoingCall places a call and a parallel data link to remoteID.
func (c *Controller) StartOutgoingCall(remoteID string) error {
	c.remoteInput = remoteID
	id, err := domain.ParsePeerID(remoteID)
	if err == nil && id == c.localID {
		err = ErrCallSelf
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		c.report(err)
		return err
	}
	if c.session.Local == nil {
		c.report(domain.ErrNoLocalMedia)
		return domain.ErrNoLocalMedia
	}
	if c.session.hasCall() {
		c.report(domain.ErrCallInProgress)
		return domain.ErrCallInProgress
	}

	l := log.With().Str("module", "callctl").Str("peer", id.String()).Logger()
	call, err := c.peer.Call(id, c.session.Local)
	if err != nil {
		err = fmt.Errorf("%w: call: %v", domain.ErrConnectionFailure, err)
		l.Error().Err(err).Msg("call failed")
		c.report(err)
		return err
	}
	c.session.Call = call
	c.state = StateConnecting

	link, err := c.peer.Connect(id)
	if err != nil {
		err = fmt.Errorf("%w: connect: %v", domain.ErrConnectionFailure, err)
		l.Error().Err(err).Msg("data link failed")
		c.report(err)
		c.endCall()
		return err
	}
	c.session.Link = link
	l.Info().Str("call", string(call.ID())).Str("link", string(link.ID())).Msg("outgoing call placed")
	return nil
}

// SendChatMessage sends text over the open data link and logs it as self.
// It reports whether anything was sent.
func (c *Controller) SendChatMessage(text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" || !c.session.linkOpen() {
		return false, nil
	}
	if text == domain.HangupSignal {
		return false, fmt.Errorf("%w: reserved message", domain.ErrInvalidInput)
	}
	if err := c.session.Link.Send(text); err != nil {
		log.Error().Err(err).Str("module", "callctl").Msg("chat send failed")
		return false, fmt.Errorf("%w: send: %v", domain.ErrConnectionFailure, err)
	}
	c.chat.Append(text, domain.OriginSelf)
	return true, nil
}

// ReceiveChannelData handles one payload from the data link.
func (c *Controller) ReceiveChannelData(payload string) {
	if payload == domain.HangupSignal {
		log.Info().Str("module", "callctl").Msg("remote hangup signal")
		c.endCall()
		return
	}
	c.chat.Append(payload, domain.OriginPeer)
	c.chatOpen = true
}

func (c *Controller) ToggleMicrophone() bool {
	if c.session.Local == nil {
		return c.session.MicEnabled
	}
	c.session.MicEnabled = !c.session.MicEnabled
	if t := c.session.Local.Audio(); t != nil {
		t.SetEnabled(c.session.MicEnabled)
	}
	log.Debug().Str("module", "callctl").Bool("enabled", c.session.MicEnabled).Msg("microphone toggled")
	return c.session.MicEnabled
}

func (c *Controller) ToggleCamera() bool {
	if c.session.Local == nil {
		return c.session.CamEnabled
	}
	c.session.CamEnabled = !c.session.CamEnabled
	if t := c.session.Local.Video(); t != nil {
		t.SetEnabled(c.session.CamEnabled)
	}
	log.Debug().Str("module", "callctl").Bool("enabled", c.session.CamEnabled).Msg("camera toggled")
	return c.session.CamEnabled
}

func (c *Controller) ToggleChat() { c.chatOpen = !c.chatOpen }
func (c *Controller) CloseChat()  { c.chatOpen = false }

// SetRemoteInput records what the user typed in the remote id field.
func (c *Controller) SetRemoteInput(s string) { c.remoteInput = s }

// HangUp tells the remote side, when a link exists, and tears down locally.
// Safe to call at any time, including repeatedly.
func (c *Controller) HangUp() {
	if c.session.Link != nil {
		if err := c.session.Link.Send(domain.HangupSignal); err != nil {
			log.Debug().Err(err).Str("module", "callctl").Msg("hangup signal not delivered")
		}
	}
	c.endCall()
}

// Close releases local media as well; used on shutdown.
func (c *Controller) Close() {
	c.HangUp()
	if c.session.Local != nil {
		c.session.Local.Close()
		c.session.Local = nil
	}
}

// endCall is the single teardown path for local hangup, the hangup signal
// and remote close.
func (c *Controller) endCall() {
	hadCall := c.session.hasCall() || c.state != StateIdle
	if c.session.Call != nil {
		c.session.Call.Close()
	}
	if c.session.Link != nil {
		c.session.Link.Close()
	}
	c.session.clearCall()
	c.chat.Reset()
	c.remoteInput = ""
	c.state = StateIdle
	if hadCall {
		log.Info().Str("module", "callctl").Msg("call ended")
	}
}

func (c *Controller) report(err error) {
	if c.notifier != nil {
		c.notifier.Notify(err)
	}
}
