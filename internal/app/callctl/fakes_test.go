package callctl

import (
	"context"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

type fakeTrack struct {
	kind    webrtc.RTPCodecType
	enabled bool
}

func (t *fakeTrack) Kind() webrtc.RTPCodecType { return t.kind }
func (t *fakeTrack) Enabled() bool             { return t.enabled }
func (t *fakeTrack) SetEnabled(e bool)         { t.enabled = e }

type fakeMedia struct {
	audio, video *fakeTrack
	closed       bool
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{
		audio: &fakeTrack{kind: webrtc.RTPCodecTypeAudio},
		video: &fakeTrack{kind: webrtc.RTPCodecTypeVideo},
	}
}

func (m *fakeMedia) Audio() core.Track                { return m.audio }
func (m *fakeMedia) Video() core.Track                { return m.video }
func (m *fakeMedia) TrackLocals() []webrtc.TrackLocal { return nil }
func (m *fakeMedia) Close()                           { m.closed = true }

type fakeCapture struct {
	err   error
	media *fakeMedia
	calls int
}

func (c *fakeCapture) Acquire(context.Context) (core.LocalMedia, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	c.media = newFakeMedia()
	return c.media, nil
}

type recNotifier struct{ errs []error }

func (n *recNotifier) Notify(err error) { n.errs = append(n.errs, err) }

// fakeNet connects fakePeers in memory. Events are queued per peer and
// applied explicitly with drain, which mimics the event loop.
type fakeNet struct {
	peers map[domain.PeerID]*fakePeer
	seq   int
}

func newFakeNet() *fakeNet { return &fakeNet{peers: make(map[domain.PeerID]*fakePeer)} }

func (n *fakeNet) nextID() domain.ConnectionID {
	n.seq++
	return domain.ConnectionID(fmt.Sprintf("conn-%d", n.seq))
}

type fakePeer struct {
	net     *fakeNet
	id      domain.PeerID
	queue   []core.Event
	calls   int
	links   int
	callErr error
}

func (n *fakeNet) join(id domain.PeerID) *fakePeer {
	p := &fakePeer{net: n, id: id}
	n.peers[id] = p
	p.push(core.Event{Kind: core.EventPeerOpen, Peer: id})
	return p
}

func (p *fakePeer) push(ev core.Event) { p.queue = append(p.queue, ev) }

func (p *fakePeer) ID() domain.PeerID         { return p.id }
func (p *fakePeer) Events() <-chan core.Event { return nil }
func (p *fakePeer) Close()                    {}

func (p *fakePeer) Call(remote domain.PeerID, media core.LocalMedia) (core.MediaCall, error) {
	p.calls++
	if p.callErr != nil {
		return nil, p.callErr
	}
	id := p.net.nextID()
	local := &fakeCall{id: id, owner: p, remote: remote}
	r, ok := p.net.peers[remote]
	if !ok {
		p.push(core.Event{Kind: core.EventPeerError, Err: errors.New("peer_unavailable")})
		return local, nil
	}
	other := &fakeCall{id: id, owner: r, remote: p.id, incoming: true}
	local.other, other.other = other, local
	r.push(core.Event{Kind: core.EventIncomingCall, Call: other})
	return local, nil
}

func (p *fakePeer) Connect(remote domain.PeerID) (core.DataLink, error) {
	p.links++
	id := p.net.nextID()
	local := &fakeLink{id: id, owner: p, remote: remote}
	r, ok := p.net.peers[remote]
	if !ok {
		return local, nil
	}
	other := &fakeLink{id: id, owner: r, remote: p.id}
	local.other, other.other = other, local
	r.push(core.Event{Kind: core.EventIncomingConnection, Link: other})
	local.open, other.open = true, true
	p.push(core.Event{Kind: core.EventChannelOpened, Link: local})
	r.push(core.Event{Kind: core.EventChannelOpened, Link: other})
	return local, nil
}

type fakeCall struct {
	id        domain.ConnectionID
	owner     *fakePeer
	remote    domain.PeerID
	other     *fakeCall
	incoming  bool
	answered  bool
	closed    int
	answerErr error
}

func (c *fakeCall) ID() domain.ConnectionID { return c.id }
func (c *fakeCall) Peer() domain.PeerID     { return c.remote }

func (c *fakeCall) Answer(core.LocalMedia) error {
	if c.answerErr != nil {
		return c.answerErr
	}
	c.answered = true
	c.owner.push(core.Event{Kind: core.EventRemoteStream, Call: c})
	if c.other != nil {
		c.other.owner.push(core.Event{Kind: core.EventRemoteStream, Call: c.other})
	}
	return nil
}

func (c *fakeCall) Close() {
	c.closed++
	if c.closed == 1 && c.other != nil && c.other.closed == 0 {
		c.other.owner.push(core.Event{Kind: core.EventCallClosed, Call: c.other})
	}
}

type fakeLink struct {
	id     domain.ConnectionID
	owner  *fakePeer
	remote domain.PeerID
	other  *fakeLink
	open   bool
	sent   []string
	closed int
}

func (l *fakeLink) ID() domain.ConnectionID { return l.id }
func (l *fakeLink) Peer() domain.PeerID     { return l.remote }
func (l *fakeLink) IsOpen() bool            { return l.open && l.closed == 0 }

func (l *fakeLink) Send(text string) error {
	if !l.IsOpen() {
		return errors.New("link not open")
	}
	l.sent = append(l.sent, text)
	if l.other != nil && l.other.IsOpen() {
		l.other.owner.push(core.Event{Kind: core.EventChannelData, Link: l.other, Data: text})
	}
	return nil
}

func (l *fakeLink) Close() {
	l.closed++
	if l.closed == 1 && l.other != nil && l.other.closed == 0 {
		l.other.owner.push(core.Event{Kind: core.EventChannelClosed, Link: l.other})
	}
}

// drain applies queued events for every (ctrl, peer) pair until all queues
// are empty.
func drain(pairs ...side) {
	for {
		progressed := false
		for _, pair := range pairs {
			for len(pair.p.queue) > 0 {
				ev := pair.p.queue[0]
				pair.p.queue = pair.p.queue[1:]
				pair.c.Handle(ev)
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}

type side struct {
	c *Controller
	p *fakePeer
}
