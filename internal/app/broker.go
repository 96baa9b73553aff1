package app

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

var ErrPeerUnavailable = errors.New("peer unavailable")

// Broker forwards offers, answers and leave notices between peers.
type Broker struct {
	Registry *Registry
	Policy   Policy
}

func NewBroker(reg *Registry, policy Policy) *Broker {
	return &Broker{Registry: reg, Policy: policy}
}

// Route stamps src on env and delivers it to env.Dst.
func (b *Broker) Route(src domain.PeerID, env core.Envelope) error {
	conn, ok := b.Registry.Lookup(env.Dst)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPeerUnavailable, env.Dst)
	}
	env.Src = src
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := conn.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "app.broker").Str("src", src.String()).Str("dst", env.Dst.String()).Msg("deliver failed")
		b.onBackpressure(env.Dst)
		return err
	}
	log.Debug().Str("module", "app.broker").Str("type", string(env.Type)).Str("src", src.String()).Str("dst", env.Dst.String()).Msg("routed")
	return nil
}

func (b *Broker) onBackpressure(dst domain.PeerID) {
	if b.Policy == nil {
		return
	}
	switch b.Policy.OnBackpressure(dst) {
	case KickPeer:
		b.Registry.Cancel(dst)
	case DropSignal, NoAction:
	}
}
