package signal

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

// handleRelay validates an offer, answer or leave and forwards it.
// Unknown destinations are reported back, except for leave.
func (ctl *SignalWSController) handleRelay(src domain.PeerID, conn *wsSignalConn, env core.Envelope) {
	if env.Dst == "" || env.Payload == nil || env.Payload.ConnectionID == "" {
		log.Warn().Str("module", "signal").Str("peer", src.String()).Str("type", string(env.Type)).Msg("relay without dst or connection")
		ctl.sendError(conn, core.ErrCodeBadPayload, env.Dst, env.Payload)
		return
	}
	if env.Type != core.SignalLeave && env.Payload.SDP == "" {
		ctl.sendError(conn, core.ErrCodeBadPayload, env.Dst, env.Payload)
		return
	}
	if env.Type == core.SignalOffer && ctl.Limiter != nil && !ctl.Limiter.Allow(src) {
		log.Warn().Str("module", "signal").Str("peer", src.String()).Msg("offer rate limited")
		ctl.sendError(conn, core.ErrCodeRateLimited, env.Dst, env.Payload)
		return
	}

	err := ctl.Broker.Route(src, env)
	if err == nil || env.Type == core.SignalLeave {
		return
	}
	if errors.Is(err, app.ErrPeerUnavailable) {
		log.Info().Str("module", "signal").Str("src", src.String()).Str("dst", env.Dst.String()).Msg("peer unavailable")
		ctl.sendError(conn, core.ErrCodePeerUnavailable, env.Dst, env.Payload)
		return
	}
	log.Error().Err(err).Str("module", "signal").Str("dst", env.Dst.String()).Msg("relay failed")
	ctl.sendError(conn, core.ErrCodePeerUnavailable, env.Dst, env.Payload)
}
