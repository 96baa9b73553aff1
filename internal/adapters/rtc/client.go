package rtc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

const (
	writeWait   = 5 * time.Second
	eventBuffer = 64
	sendBuffer  = 32
)

var (
	ErrClientClosed = errors.New("peer client closed")
	ErrNotOpen      = errors.New("no peer id from broker yet")
)

type negotiator interface {
	applyAnswer(sdp string) error
	fail(err error)
	shutdown(remote bool)
}

// Client implements core.PeerClient against the signaling broker.
type Client struct {
	cfg Config
	api *webrtc.API
	ws  *websocket.Conn

	send   chan []byte
	events chan core.Event
	done   chan struct{}
	once   sync.Once

	mu    sync.Mutex
	id    domain.PeerID
	conns map[domain.ConnectionID]negotiator
}

// Dial connects to the broker. The assigned id arrives later as
// EventPeerOpen.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	api, err := newAPI(cfg)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("%w: server url: %v", domain.ErrConnectionFailure, err)
	}
	if cfg.ID != "" {
		q := u.Query()
		q.Set("id", cfg.ID)
		u.RawQuery = q.Encode()
	}

	d := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := d.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial broker: %v", domain.ErrConnectionFailure, err)
	}
	log.Info().Str("module", "rtc").Str("url", u.String()).Msg("connected to broker")

	c := &Client{
		cfg:    cfg,
		api:    api,
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		events: make(chan core.Event, eventBuffer),
		done:   make(chan struct{}),
		conns:  make(map[domain.ConnectionID]negotiator),
	}
	go c.writePump()
	go c.readPump()
	return c, nil
}

func (c *Client) ID() domain.PeerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *Client) Events() <-chan core.Event { return c.events }

func (c *Client) Call(remote domain.PeerID, media core.LocalMedia) (core.MediaCall, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if media == nil {
		return nil, ErrNoMedia
	}
	call, err := newCall(c, domain.NewConnectionID(), remote)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnectionFailure, err)
	}
	if err := call.addTracks(media); err != nil {
		_ = call.pc.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrConnectionFailure, err)
	}
	c.track(call.id, call)
	go call.sendOffer()
	log.Info().Str("module", "rtc").Str("peer", remote.String()).Str("conn", string(call.id)).Msg("calling")
	return call, nil
}

func (c *Client) Connect(remote domain.PeerID) (core.DataLink, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	link, err := newLink(c, domain.NewConnectionID(), remote)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnectionFailure, err)
	}
	dc, err := link.pc.CreateDataChannel(chatLabel, nil)
	if err != nil {
		_ = link.pc.Close()
		return nil, fmt.Errorf("%w: create data channel: %v", domain.ErrConnectionFailure, err)
	}
	link.attach(dc)
	c.track(link.id, link)
	go link.sendOffer()
	log.Info().Str("module", "rtc").Str("peer", remote.String()).Str("conn", string(link.id)).Msg("connecting data link")
	return link, nil
}

func (c *Client) ready() error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	if c.ID() == "" {
		return fmt.Errorf("%w: %v", domain.ErrConnectionFailure, ErrNotOpen)
	}
	return nil
}

// Close ends every connection, tells the remotes and leaves the broker.
func (c *Client) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		open := make([]negotiator, 0, len(c.conns))
		for _, n := range c.conns {
			open = append(open, n)
		}
		c.mu.Unlock()
		for _, n := range open {
			n.shutdown(false)
		}
		close(c.done)
		log.Info().Str("module", "rtc").Msg("peer client closed")
	})
}

func (c *Client) track(id domain.ConnectionID, n negotiator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns[id] = n
}

func (c *Client) forget(id domain.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.conns, id)
}

func (c *Client) lookup(id domain.ConnectionID) (negotiator, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.conns[id]
	return n, ok
}

// emit blocks until the event is taken or the client is closed. It must
// not be called from the goroutine that consumes Events.
func (c *Client) emit(ev core.Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Client) sendSignal(t core.SignalType, dst domain.PeerID, p *core.SignalPayload) {
	b, err := json.Marshal(core.Envelope{Type: t, Dst: dst, Payload: p})
	if err != nil {
		log.Error().Err(err).Str("module", "rtc").Msg("marshal envelope")
		return
	}
	select {
	case c.send <- b:
	case <-c.done:
	default:
		log.Warn().Str("module", "rtc").Str("type", string(t)).Msg("signal queue full, dropping")
	}
}
