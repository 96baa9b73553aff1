package rtc

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

const (
	chatLabel = "chat"
	// flushTimeout bounds how long a closing link waits for queued text.
	flushTimeout = 250 * time.Millisecond
)

var ErrLinkNotOpen = errors.New("data link not open")

// Link implements core.DataLink on an ordered, reliable data channel.
type Link struct {
	*connection

	mu   sync.Mutex
	dc   *webrtc.DataChannel
	open atomic.Bool
}

func newLink(cl *Client, id domain.ConnectionID, peer domain.PeerID) (*Link, error) {
	conn, err := newConnection(cl, id, peer, core.KindData)
	if err != nil {
		return nil, err
	}
	l := &Link{connection: conn}
	conn.closedEvent = core.Event{Kind: core.EventChannelClosed, Peer: peer, Link: l}
	conn.beforeClose = l.flush
	return l, nil
}

func (l *Link) attach(dc *webrtc.DataChannel) {
	l.mu.Lock()
	l.dc = dc
	l.mu.Unlock()

	dc.OnOpen(func() {
		l.open.Store(true)
		l.logger.Info().Str("label", dc.Label()).Msg("data channel open")
		l.client.emit(core.Event{Kind: core.EventChannelOpened, Peer: l.peer, Link: l})
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		l.client.emit(core.Event{Kind: core.EventChannelData, Peer: l.peer, Link: l, Data: string(msg.Data)})
	})
	dc.OnClose(func() {
		l.open.Store(false)
		go l.shutdown(true)
	})
}

func (l *Link) channel() *webrtc.DataChannel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dc
}

func (l *Link) IsOpen() bool { return l.open.Load() && !l.closed.Load() }

func (l *Link) Send(text string) error {
	dc := l.channel()
	if dc == nil || !l.IsOpen() {
		return ErrLinkNotOpen
	}
	return dc.SendText(text)
}

func (l *Link) Close() { l.shutdown(false) }

// flush gives queued messages, such as a hangup notice, a chance to leave
// before the transport goes away.
func (l *Link) flush() {
	l.open.Store(false)
	dc := l.channel()
	if dc == nil {
		return
	}
	deadline := time.Now().Add(flushTimeout)
	for dc.BufferedAmount() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	_ = dc.Close()
}
