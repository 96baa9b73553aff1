package media

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type TrackState int32

const (
	TrackStateLive TrackState = iota
	TrackStateMuted
	TrackStateEnded
)

const (
	rtpVersion = 2
	// mutedEvery is how many frame intervals pass between keepalive frames
	// of a muted track. The remote still needs frames to see the stream.
	mutedEvery = 25
)

// Track is a synthetic capture track feeding a static RTP track. A muted
// track stays negotiated and only sends sparse keepalive frames.
type Track struct {
	local *webrtc.TrackLocalStaticRTP
	kind  webrtc.RTPCodecType
	state atomic.Int32

	payload   []byte
	clockRate uint32
	seq       uint16
	ts        uint32
	muted     int
	write     func(*rtp.Packet) error
}

func newTrack(local *webrtc.TrackLocalStaticRTP, kind webrtc.RTPCodecType, clockRate uint32, payload []byte) *Track {
	t := &Track{
		local:     local,
		kind:      kind,
		payload:   payload,
		clockRate: clockRate,
	}
	t.write = local.WriteRTP
	return t
}

func (t *Track) Kind() webrtc.RTPCodecType { return t.kind }

func (t *Track) State() TrackState { return TrackState(t.state.Load()) }

func (t *Track) Enabled() bool { return t.State() == TrackStateLive }

// SetEnabled is a no-op once the track has ended.
func (t *Track) SetEnabled(enabled bool) {
	next := TrackStateMuted
	if enabled {
		next = TrackStateLive
	}
	for {
		cur := t.state.Load()
		if TrackState(cur) == TrackStateEnded {
			return
		}
		if t.state.CompareAndSwap(cur, int32(next)) {
			return
		}
	}
}

func (t *Track) markEnded() { t.state.Store(int32(TrackStateEnded)) }

// tick emits one frame when live. A muted track emits a keepalive frame on
// the first tick and then every mutedEvery ticks. The timestamp advances on
// every tick so the receiver sees a gap rather than a clock jump.
func (t *Track) tick(step time.Duration) error {
	t.ts += uint32(uint64(t.clockRate) * uint64(step) / uint64(time.Second))
	switch t.State() {
	case TrackStateLive:
		t.muted = 0
	case TrackStateMuted:
		skip := t.muted%mutedEvery != 0
		t.muted++
		if skip {
			return nil
		}
	default:
		return nil
	}
	t.seq++
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        rtpVersion,
			Marker:         true,
			SequenceNumber: t.seq,
			Timestamp:      t.ts,
		},
		Payload: t.payload,
	}
	return t.write(pkt)
}

// pump writes frames every interval until ctx is done or the track ends.
func (t *Track) pump(ctx context.Context, interval time.Duration) {
	logger := log.With().Str("module", "media").Str("kind", t.kind.String()).Str("track_id", t.local.ID()).Logger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("pump ctx done")
			return
		case <-ticker.C:
			if t.State() == TrackStateEnded {
				return
			}
			if err := t.tick(interval); err != nil {
				logger.Error().Err(err).Msg("write RTP error, ending track")
				t.markEnded()
				return
			}
		}
	}
}
