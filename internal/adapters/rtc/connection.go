package rtc

import (
	"fmt"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

// connection is the part shared by calls and data links: one
// PeerConnection negotiated through the broker.
type connection struct {
	client *Client
	id     domain.ConnectionID
	peer   domain.PeerID
	kind   core.ConnectionKind
	pc     *webrtc.PeerConnection
	logger zerolog.Logger

	// offer is the remote offer of an incoming connection.
	offer  string
	closed atomic.Bool
	// closedEvent is emitted when the remote side or the network ends it.
	closedEvent core.Event
	// beforeClose runs right before the PeerConnection is closed.
	beforeClose func()
}

func newConnection(cl *Client, id domain.ConnectionID, peer domain.PeerID, kind core.ConnectionKind) (*connection, error) {
	pc, err := cl.api.NewPeerConnection(cl.cfg.rtcConfiguration())
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}
	c := &connection{
		client: cl,
		id:     id,
		peer:   peer,
		kind:   kind,
		pc:     pc,
		logger: log.With().Str("module", "rtc").Str("conn", string(id)).Str("peer", peer.String()).Str("kind", string(kind)).Logger(),
	}

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		c.logger.Info().Str("peer_connection_state", s.String()).Msg("Peer state")
		switch s {
		case webrtc.PeerConnectionStateFailed:
			go c.fail(fmt.Errorf("peer connection failed"))
		case webrtc.PeerConnectionStateClosed:
			go c.shutdown(true)
		}
	})
	return c, nil
}

func (c *connection) ID() domain.ConnectionID { return c.id }
func (c *connection) Peer() domain.PeerID     { return c.peer }

func (c *connection) sendOffer() {
	desc, err := c.createOffer()
	if err != nil {
		c.fail(err)
		return
	}
	c.client.sendSignal(core.SignalOffer, c.peer, &core.SignalPayload{ConnectionID: c.id, Kind: c.kind, SDP: desc.SDP})
	c.logger.Info().Msg("offer sent")
}

func (c *connection) createOffer() (*webrtc.SessionDescription, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(c.pc)
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("set local offer: %w", err)
	}
	if err := c.waitGathering(gatherComplete); err != nil {
		return nil, err
	}
	return c.pc.LocalDescription(), nil
}

func (c *connection) applyOffer() error {
	if err := c.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: c.offer}); err != nil {
		return fmt.Errorf("set remote offer: %w", err)
	}
	return nil
}

// sendAnswer expects the remote offer to be applied already.
func (c *connection) sendAnswer() error {
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(c.pc)
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("set local answer: %w", err)
	}
	if err := c.waitGathering(gatherComplete); err != nil {
		return err
	}
	c.client.sendSignal(core.SignalAnswer, c.peer, &core.SignalPayload{ConnectionID: c.id, Kind: c.kind, SDP: c.pc.LocalDescription().SDP})
	c.logger.Info().Msg("answer sent")
	return nil
}

func (c *connection) applyAnswer(sdp string) error {
	if err := c.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp}); err != nil {
		return fmt.Errorf("set remote answer: %w", err)
	}
	c.logger.Info().Msg("answer applied")
	return nil
}

func (c *connection) waitGathering(done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-c.client.done:
		return ErrClientClosed
	}
}

// fail reports err and ends the connection. Called off the event loop.
func (c *connection) fail(err error) {
	if c.closed.Load() {
		return
	}
	c.logger.Error().Err(err).Msg("connection failed")
	c.client.emit(core.Event{
		Kind: core.EventPeerError,
		Peer: c.peer,
		Err:  fmt.Errorf("%w: %s with %s: %v", domain.ErrConnectionFailure, c.kind, c.peer, err),
	})
	c.shutdown(true)
}

// shutdown ends the connection once. A local close notifies the remote
// through the broker; a remote close emits closedEvent.
func (c *connection) shutdown(remote bool) {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.client.forget(c.id)
	if remote {
		c.closePC()
		c.client.emit(c.closedEvent)
		return
	}
	c.client.sendSignal(core.SignalLeave, c.peer, &core.SignalPayload{ConnectionID: c.id, Kind: c.kind})
	go c.closePC()
}

func (c *connection) closePC() {
	if c.beforeClose != nil {
		c.beforeClose()
	}
	if err := c.pc.Close(); err != nil {
		c.logger.Error().Err(err).Msg("close error")
	} else {
		c.logger.Info().Msg("closed")
	}
}
