package rtc

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

var ErrSignalLost = errors.New("signaling connection lost")

func (c *Client) writePump() {
	var heartbeat <-chan time.Time
	if c.cfg.PingPeriod > 0 {
		ticker := time.NewTicker(c.cfg.PingPeriod)
		defer ticker.Stop()
		heartbeat = ticker.C
	}
	ping, _ := json.Marshal(core.Envelope{Type: core.SignalPing})

	for {
		select {
		case <-c.done:
			c.flushSend()
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			_ = c.ws.Close()
			return
		case <-heartbeat:
			if err := c.write(ping); err != nil {
				return
			}
		case data := <-c.send:
			if err := c.write(data); err != nil {
				return
			}
		}
	}
}

// flushSend writes whatever is still queued, such as leave notices.
func (c *Client) flushSend() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Error().Err(err).Str("module", "rtc").Msg("signal write error")
		return err
	}
	return nil
}

func (c *Client) readPump() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				log.Error().Err(err).Str("module", "rtc").Msg("signal read error")
				c.emit(core.Event{Kind: core.EventPeerError, Err: fmt.Errorf("%w: %v", domain.ErrConnectionFailure, ErrSignalLost)})
			}
			return
		}
		var env core.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn().Err(err).Str("module", "rtc").Msg("bad envelope from broker")
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env core.Envelope) {
	log.Debug().Str("module", "rtc").Str("type", string(env.Type)).Str("src", env.Src.String()).Msg("signal")

	switch env.Type {
	case core.SignalOpen:
		c.mu.Lock()
		c.id = env.ID
		c.mu.Unlock()
		log.Info().Str("module", "rtc").Str("id", env.ID.String()).Msg("peer open")
		c.emit(core.Event{Kind: core.EventPeerOpen, Peer: env.ID})
	case core.SignalOffer:
		c.handleOffer(env)
	case core.SignalAnswer:
		if env.Payload == nil {
			return
		}
		if n, ok := c.lookup(env.Payload.ConnectionID); ok {
			if err := n.applyAnswer(env.Payload.SDP); err != nil {
				go n.fail(err)
			}
		}
	case core.SignalLeave:
		if env.Payload == nil {
			return
		}
		if n, ok := c.lookup(env.Payload.ConnectionID); ok {
			go n.shutdown(true)
		}
	case core.SignalError:
		c.handleError(env)
	case core.SignalPong:
	default:
		log.Warn().Str("module", "rtc").Str("type", string(env.Type)).Msg("unknown signal")
	}
}

func (c *Client) handleOffer(env core.Envelope) {
	p := env.Payload
	if p == nil || p.ConnectionID == "" || p.SDP == "" || env.Src == "" {
		log.Warn().Str("module", "rtc").Msg("offer without payload")
		return
	}
	if _, dup := c.lookup(p.ConnectionID); dup {
		return
	}

	switch p.Kind {
	case core.KindMedia:
		call, err := newCall(c, p.ConnectionID, env.Src)
		if err != nil {
			log.Error().Err(err).Str("module", "rtc").Msg("incoming call")
			return
		}
		call.offer = p.SDP
		c.track(call.id, call)
		log.Info().Str("module", "rtc").Str("peer", env.Src.String()).Str("conn", string(call.id)).Msg("incoming call")
		c.emit(core.Event{Kind: core.EventIncomingCall, Peer: env.Src, Call: call})
	case core.KindData:
		link, err := newLink(c, p.ConnectionID, env.Src)
		if err != nil {
			log.Error().Err(err).Str("module", "rtc").Msg("incoming data link")
			return
		}
		link.offer = p.SDP
		link.pc.OnDataChannel(link.attach)
		c.track(link.id, link)
		log.Info().Str("module", "rtc").Str("peer", env.Src.String()).Str("conn", string(link.id)).Msg("incoming data link")
		c.emit(core.Event{Kind: core.EventIncomingConnection, Peer: env.Src, Link: link})
		go func() {
			if err := link.applyOffer(); err != nil {
				link.fail(err)
				return
			}
			if err := link.sendAnswer(); err != nil {
				link.fail(err)
			}
		}()
	default:
		log.Warn().Str("module", "rtc").Str("kind", string(p.Kind)).Msg("offer of unknown kind")
	}
}

func (c *Client) handleError(env core.Envelope) {
	log.Warn().Str("module", "rtc").Str("error", env.Error).Str("dst", env.Dst.String()).Msg("broker error")
	if env.Payload != nil {
		if n, ok := c.lookup(env.Payload.ConnectionID); ok {
			// A failed call is reported once; its data link just closes.
			if env.Payload.Kind == core.KindData {
				go n.shutdown(true)
			} else {
				go n.fail(fmt.Errorf("%s: %s", env.Error, env.Dst))
			}
			return
		}
	}
	c.emit(core.Event{Kind: core.EventPeerError, Peer: env.Dst, Err: fmt.Errorf("%w: broker: %s", domain.ErrConnectionFailure, env.Error)})
}
