// Package media is a synthetic camera and microphone. It produces silent
// Opus and blank VP8 RTP frames so a call has real media flowing without
// capture hardware.
package media

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
)

const (
	PermissionGranted = "granted"
	PermissionDenied  = "denied"

	DefaultFrameInterval = 20 * time.Millisecond
)

var (
	// opusSilence is a single 20ms Opus frame of silence.
	opusSilence = []byte{0xf8, 0xff, 0xfe}
	// vp8Blank is a VP8 payload descriptor (start of partition) and an empty
	// frame; receivers only need to see frames arrive.
	vp8Blank = []byte{0x10, 0x00}
)

type Config struct {
	Permission    string
	FrameInterval time.Duration
}

// Capture implements core.MediaCapture.
type Capture struct {
	cfg Config
}

func NewCapture(cfg Config) *Capture {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.Permission == "" {
		cfg.Permission = PermissionGranted
	}
	return &Capture{cfg: cfg}
}

func (c *Capture) Acquire(ctx context.Context) (core.LocalMedia, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.cfg.Permission == PermissionDenied {
		log.Warn().Str("module", "media").Msg("capture refused by configuration")
		return nil, domain.ErrPermissionDenied
	}

	streamID := "local-" + uuid.NewString()
	audioLocal, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		"audio", streamID,
	)
	if err != nil {
		return nil, fmt.Errorf("audio track: %w", err)
	}
	videoLocal, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
		"video", streamID,
	)
	if err != nil {
		return nil, fmt.Errorf("video track: %w", err)
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	s := &Stream{
		id:     streamID,
		audio:  newTrack(audioLocal, webrtc.RTPCodecTypeAudio, 48000, opusSilence),
		video:  newTrack(videoLocal, webrtc.RTPCodecTypeVideo, 90000, vp8Blank),
		cancel: cancel,
	}
	go s.audio.pump(pumpCtx, c.cfg.FrameInterval)
	go s.video.pump(pumpCtx, c.cfg.FrameInterval)

	log.Info().Str("module", "media").Str("stream_id", streamID).Dur("interval", c.cfg.FrameInterval).Msg("local media captured")
	return s, nil
}

// Stream is the local audio+video handle.
type Stream struct {
	id     string
	audio  *Track
	video  *Track
	cancel context.CancelFunc
	once   sync.Once
}

func (s *Stream) ID() string        { return s.id }
func (s *Stream) Audio() core.Track { return s.audio }
func (s *Stream) Video() core.Track { return s.video }
func (s *Stream) TrackLocals() []webrtc.TrackLocal {
	return []webrtc.TrackLocal{s.audio.local, s.video.local}
}

func (s *Stream) Close() {
	s.once.Do(func() {
		s.cancel()
		s.audio.markEnded()
		s.video.markEnded()
		log.Info().Str("module", "media").Str("stream_id", s.id).Msg("local media stopped")
	})
}
