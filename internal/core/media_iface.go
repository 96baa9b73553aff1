package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// Track is one local capture track. Disabling keeps the track attached to
// the call and only stops its frames.
type Track interface {
	Kind() webrtc.RTPCodecType
	Enabled() bool
	SetEnabled(enabled bool)
}

// LocalMedia is the handle returned by a successful capture.
type LocalMedia interface {
	Audio() Track
	Video() Track
	// TrackLocals exposes the tracks in the form the peer library attaches.
	TrackLocals() []webrtc.TrackLocal
	// Close stops all capture resources.
	Close()
}

// MediaCapture requests camera and microphone access.
// It fails with domain.ErrPermissionDenied when access is refused.
type MediaCapture interface {
	Acquire(ctx context.Context) (LocalMedia, error)
}
