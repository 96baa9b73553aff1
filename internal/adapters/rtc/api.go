// Package rtc is the peer connection library used by the call controller:
// a client of the signaling broker that places and answers pion calls and
// opens chat data channels. Every connection gets its own PeerConnection
// and uses non-trickle ICE, so one offer and one answer complete it.
package rtc

import (
	"fmt"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
)

type Config struct {
	// ServerURL is the broker WebSocket endpoint, e.g. ws://host/api/peerjs.
	ServerURL string
	// ID is the requested peer id; empty lets the broker choose.
	ID         string
	ICEServers []string
	// ICEDisconnectedTimeout bounds how long a silent connection is kept.
	ICEDisconnectedTimeout time.Duration
	// PingPeriod is the heartbeat interval towards the broker; 0 disables it.
	PingPeriod time.Duration
}

func DefaultConfig() Config {
	return Config{
		ServerURL:              "ws://localhost:8080/api/peerjs",
		ICEServers:             []string{"stun:stun.l.google.com:19302"},
		ICEDisconnectedTimeout: 10 * time.Second,
	}
}

func (c Config) rtcConfiguration() webrtc.Configuration {
	var cfg webrtc.Configuration
	if len(c.ICEServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: c.ICEServers}}
	}
	return cfg
}

// newAPI builds the pion API with default codecs, default interceptors
// (NACK, RTCP reports, TWCC) and the configured ICE timeouts.
func newAPI(cfg Config) (*webrtc.API, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, registry); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	se := webrtc.SettingEngine{}
	if d := cfg.ICEDisconnectedTimeout; d > 0 {
		se.SetICETimeouts(d, 3*d, 2*time.Second)
	}

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(registry),
		webrtc.WithSettingEngine(se),
	), nil
}
