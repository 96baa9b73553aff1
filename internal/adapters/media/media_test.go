package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"

	"github.com/dkeye/Meet/internal/domain"
)

func TestAcquireDenied(t *testing.T) {
	c := NewCapture(Config{Permission: PermissionDenied})
	_, err := c.Acquire(context.Background())
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("err = %v", err)
	}
}

func TestAcquireCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewCapture(Config{}).Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestAcquireTracks(t *testing.T) {
	lm, err := NewCapture(Config{FrameInterval: time.Hour}).Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer lm.Close()

	if lm.Audio().Kind() != webrtc.RTPCodecTypeAudio || lm.Video().Kind() != webrtc.RTPCodecTypeVideo {
		t.Fatal("wrong track kinds")
	}
	if !lm.Audio().Enabled() || !lm.Video().Enabled() {
		t.Fatal("tracks should start enabled")
	}
	locals := lm.TrackLocals()
	if len(locals) != 2 || locals[0].StreamID() != locals[1].StreamID() {
		t.Fatalf("track locals = %v", locals)
	}
}

func TestCloseEndsTracks(t *testing.T) {
	lm, err := NewCapture(Config{FrameInterval: time.Hour}).Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	lm.Close()
	lm.Close()
	a := lm.Audio().(*Track)
	if a.State() != TrackStateEnded {
		t.Fatalf("state = %v", a.State())
	}
	a.SetEnabled(true)
	if a.Enabled() {
		t.Fatal("ended track re-enabled")
	}
}

func newRecordingTrack(t *testing.T) (*Track, *[]*rtp.Packet) {
	t.Helper()
	local, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000}, "audio", "test")
	if err != nil {
		t.Fatal(err)
	}
	tr := newTrack(local, webrtc.RTPCodecTypeAudio, 48000, opusSilence)
	var got []*rtp.Packet
	tr.write = func(p *rtp.Packet) error {
		got = append(got, p)
		return nil
	}
	return tr, &got
}

func TestTickWhileMutedSendsKeepalive(t *testing.T) {
	tr, got := newRecordingTrack(t)
	step := 20 * time.Millisecond

	if err := tr.tick(step); err != nil {
		t.Fatal(err)
	}
	tr.SetEnabled(false)
	for i := 0; i < mutedEvery+1; i++ {
		if err := tr.tick(step); err != nil {
			t.Fatal(err)
		}
	}
	// one live frame, then keepalives on the first and the mutedEvery-th muted tick
	if len(*got) != 3 {
		t.Fatalf("wrote %d packets, want 3", len(*got))
	}
	tr.SetEnabled(true)
	if err := tr.tick(step); err != nil {
		t.Fatal(err)
	}
	if len(*got) != 4 {
		t.Fatalf("live tick after unmute wrote nothing")
	}

	first, second := (*got)[0], (*got)[1]
	if second.SequenceNumber != first.SequenceNumber+1 {
		t.Fatalf("sequence %d -> %d", first.SequenceNumber, second.SequenceNumber)
	}
	// 20ms at 48kHz is 960 ticks.
	if second.Timestamp-first.Timestamp != 960 {
		t.Fatalf("timestamp step = %d", second.Timestamp-first.Timestamp)
	}
	third := (*got)[2]
	if third.Timestamp-second.Timestamp != mutedEvery*960 {
		t.Fatalf("muted timestamp step = %d", third.Timestamp-second.Timestamp)
	}
}

func TestTickEndedWritesNothing(t *testing.T) {
	tr, got := newRecordingTrack(t)
	tr.markEnded()
	if err := tr.tick(20 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if len(*got) != 0 {
		t.Fatalf("ended track wrote %d packets", len(*got))
	}
}

// A call from a peer with microphone and camera off must still deliver
// frames, or the other side never sees the stream.
func TestMutedCaptureReachesRemote(t *testing.T) {
	lm, err := NewCapture(Config{FrameInterval: 5 * time.Millisecond}).Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer lm.Close()
	lm.Audio().SetEnabled(false)
	lm.Video().SetEnabled(false)

	sender, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatal(err)
	}
	defer sender.Close()
	receiver, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatal(err)
	}
	defer receiver.Close()

	for _, tl := range lm.TrackLocals() {
		if _, err := sender.AddTrack(tl); err != nil {
			t.Fatal(err)
		}
	}
	frames := make(chan struct{}, 1)
	receiver.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if _, _, err := track.ReadRTP(); err == nil {
			select {
			case frames <- struct{}{}:
			default:
			}
		}
	})

	offer, err := sender.CreateOffer(nil)
	if err != nil {
		t.Fatal(err)
	}
	gathered := webrtc.GatheringCompletePromise(sender)
	if err := sender.SetLocalDescription(offer); err != nil {
		t.Fatal(err)
	}
	<-gathered
	if err := receiver.SetRemoteDescription(*sender.LocalDescription()); err != nil {
		t.Fatal(err)
	}
	answer, err := receiver.CreateAnswer(nil)
	if err != nil {
		t.Fatal(err)
	}
	gathered = webrtc.GatheringCompletePromise(receiver)
	if err := receiver.SetLocalDescription(answer); err != nil {
		t.Fatal(err)
	}
	<-gathered
	if err := sender.SetRemoteDescription(*receiver.LocalDescription()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-frames:
	case <-time.After(10 * time.Second):
		t.Fatal("no frame reached the remote while muted")
	}
}

func TestPumpEndsTrackOnWriteError(t *testing.T) {
	tr, _ := newRecordingTrack(t)
	tr.write = func(*rtp.Packet) error { return errors.New("closed pipe") }

	done := make(chan struct{})
	go func() {
		tr.pump(context.Background(), time.Millisecond)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not stop")
	}
	if tr.State() != TrackStateEnded {
		t.Fatalf("state = %v", tr.State())
	}
}
