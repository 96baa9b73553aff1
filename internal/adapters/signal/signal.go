// Package signal is the broker side of peer signaling: one WebSocket per
// peer, an assigned peer id, and relay of offers, answers and leave notices.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

const sessionPeerKey = "peer_id"

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type SignalWSController struct {
	Broker     *app.Broker
	Limiter    *RateLimiter
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewSignalWSController(broker *app.Broker, limiter *RateLimiter, readLimit int64, pingPeriod time.Duration) *SignalWSController {
	return &SignalWSController{
		Broker:     broker,
		Limiter:    limiter,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
	}
}

type wsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request, assigns a peer id and starts the pumps.
// The id comes from ?id=, else from the cookie session, else is generated.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	want, err := ctl.requestedID(c)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad requested id")
		c.JSON(http.StatusBadRequest, gin.H{"type": core.SignalError, "error": core.ErrCodeInvalidID})
		return
	}

	reg := ctl.Broker.Registry
	id := reg.Reserve(want)

	sess := sessions.Default(c)
	sess.Set(sessionPeerKey, id.String())
	if err := sess.Save(); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("session save")
	}
	respHeader := http.Header{}
	for _, v := range c.Writer.Header().Values("Set-Cookie") {
		respHeader.Add("Set-Cookie", v)
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		reg.Release(id, nil)
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &wsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	ctx, cancel := context.WithCancel(ctx)
	reg.Bind(id, conn, cancel)
	log.Info().Str("module", "signal").Str("peer", id.String()).Msg("new WS connection")

	ctl.sendJSON(conn, core.Envelope{Type: core.SignalOpen, ID: id})

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, id, conn)
}

func (ctl *SignalWSController) requestedID(c *gin.Context) (domain.PeerID, error) {
	if raw := c.Query("id"); raw != "" {
		return domain.ParsePeerID(raw)
	}
	if v, ok := sessions.Default(c).Get(sessionPeerKey).(string); ok {
		if id, err := domain.ParsePeerID(v); err == nil {
			return id, nil
		}
	}
	return "", nil
}
