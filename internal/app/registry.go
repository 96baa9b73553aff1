package app

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

type peerEntry struct {
	Conn   core.SignalConnection
	Cancel context.CancelFunc
	Since  time.Time
}

// Registry maps online peer ids to their signaling connection.
type Registry struct {
	mu    sync.RWMutex
	peers map[domain.PeerID]*peerEntry
}

func NewRegistry() *Registry {
	return &Registry{
		peers: make(map[domain.PeerID]*peerEntry),
	}
}

// Reserve claims want when it is free, otherwise a fresh random id.
// The reservation has no connection until Bind.
func (r *Registry) Reserve(want domain.PeerID) domain.PeerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := want
	if id != "" {
		if _, taken := r.peers[id]; taken {
			log.Info().Str("module", "app.registry").Str("want", id.String()).Msg("requested id taken, generating")
			id = ""
		}
	}
	for id == "" {
		cand := domain.NewPeerID()
		if _, taken := r.peers[cand]; !taken {
			id = cand
		}
	}
	r.peers[id] = &peerEntry{Since: time.Now()}
	log.Info().Str("module", "app.registry").Str("peer", id.String()).Msg("reserved peer id")
	return id
}

func (r *Registry) Bind(id domain.PeerID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[id] = &peerEntry{Conn: conn, Cancel: cancel, Since: time.Now()}
	log.Info().Str("module", "app.registry").Str("peer", id.String()).Msg("bound signal")
}

// Lookup returns the connection of a bound peer.
func (r *Registry) Lookup(id domain.PeerID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.peers[id]
	if !ok || e.Conn == nil {
		return nil, false
	}
	return e.Conn, true
}

// Release frees id. With a non-nil conn it only releases when id is still
// bound to that conn, so a stale disconnect cannot evict a newer holder.
func (r *Registry) Release(id domain.PeerID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.peers[id]
	if !ok {
		return
	}
	if conn != nil && e.Conn != conn {
		return
	}
	delete(r.peers, id)
	log.Info().Str("module", "app.registry").Str("peer", id.String()).Msg("released peer id")
}

// Online lists bound peers in sorted order.
func (r *Registry) Online() []domain.PeerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PeerID, 0, len(r.peers))
	for id, e := range r.peers {
		if e.Conn != nil {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

func (r *Registry) Cancel(id domain.PeerID) bool {
	r.mu.RLock()
	e, ok := r.peers[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("peer", id.String()).Msg("canceled peer")
	return true
}

// CloseAll cancels every bound peer; used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	cancels := make([]context.CancelFunc, 0, len(r.peers))
	for _, e := range r.peers {
		if e.Cancel != nil {
			cancels = append(cancels, e.Cancel)
		}
	}
	r.mu.RUnlock()
	for _, cancel := range cancels {
		cancel()
	}
}
