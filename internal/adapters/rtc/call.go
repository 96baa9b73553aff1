package rtc

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

var ErrNoMedia = errors.New("no local media")

// Call implements core.MediaCall.
type Call struct {
	*connection

	streamOnce sync.Once
	received   atomic.Uint64
}

func newCall(cl *Client, id domain.ConnectionID, peer domain.PeerID) (*Call, error) {
	conn, err := newConnection(cl, id, peer, core.KindMedia)
	if err != nil {
		return nil, err
	}
	call := &Call{connection: conn}
	conn.closedEvent = core.Event{Kind: core.EventCallClosed, Peer: peer, Call: call}
	conn.pc.OnTrack(call.onTrack)
	return call, nil
}

// Received is the number of remote RTP packets read so far.
func (c *Call) Received() uint64 { return c.received.Load() }

func (c *Call) addTracks(media core.LocalMedia) error {
	for _, tl := range media.TrackLocals() {
		sender, err := c.pc.AddTrack(tl)
		if err != nil {
			return fmt.Errorf("add %s track: %w", tl.Kind(), err)
		}
		go drainRTCP(sender)
	}
	return nil
}

// Answer accepts an incoming call with media. Negotiation runs in the
// background; failures arrive as EventPeerError.
func (c *Call) Answer(media core.LocalMedia) error {
	if media == nil {
		return ErrNoMedia
	}
	if c.offer == "" {
		return fmt.Errorf("call %s has no remote offer", c.id)
	}
	go func() {
		if err := c.applyOffer(); err != nil {
			c.fail(err)
			return
		}
		if err := c.addTracks(media); err != nil {
			c.fail(err)
			return
		}
		if err := c.sendAnswer(); err != nil {
			c.fail(err)
		}
	}()
	return nil
}

func (c *Call) Close() { c.shutdown(false) }

func (c *Call) onTrack(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	c.logger.Info().
		Str("track_kind", track.Kind().String()).
		Str("track_id", track.ID()).
		Str("stream_id", track.StreamID()).
		Msg("OnTrack received")
	c.streamOnce.Do(func() {
		c.client.emit(core.Event{Kind: core.EventRemoteStream, Peer: c.peer, Call: c})
	})
	c.drain(track)
}

// drain reads remote RTP until the track ends. Packets are only counted;
// rendering is left to the user surface.
func (c *Call) drain(track *webrtc.TrackRemote) {
	logger := c.logger.With().Str("track_kind", track.Kind().String()).Logger()
	for {
		if c.closed.Load() {
			logger.Debug().Msg("call closed, stop reading")
			return
		}
		if _, _, err := track.ReadRTP(); err != nil {
			logger.Debug().Err(err).Uint64("packets", c.received.Load()).Msg("remote track ended")
			return
		}
		c.received.Add(1)
	}
}

// drainRTCP keeps interceptors running for a sender.
func drainRTCP(sender *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}
