package callctl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Meet/internal/core"
)

func nextView(t *testing.T, views <-chan View) View {
	t.Helper()
	select {
	case v := <-views:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for view")
	}
	return View{}
}

func TestLoopAppliesEventsAndCommands(t *testing.T) {
	capture := &fakeCapture{}
	ctrl := NewController(newFakeNet().join("loop"), capture, &recNotifier{})
	events := make(chan core.Event)
	views := make(chan View, 8)
	loop := NewLoop(ctrl, events, func(v View) { views <- v })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	nextView(t, views) // initial render

	events <- core.Event{Kind: core.EventPeerOpen, Peer: "loop"}
	if v := nextView(t, views); v.LocalID != "loop" {
		t.Fatalf("local id = %q", v.LocalID)
	}

	if err := loop.Do(ctx, func(c *Controller) { _, _ = c.AcquireLocalMedia(ctx) }); err != nil {
		t.Fatal(err)
	}
	if v := nextView(t, views); !v.CanCall {
		t.Fatalf("view = %+v", v)
	}

	if err := loop.Do(ctx, func(c *Controller) { c.ToggleMicrophone() }); err != nil {
		t.Fatal(err)
	}
	if v := nextView(t, views); v.Mic.Icon != "mic_off" {
		t.Fatalf("mic = %+v", v.Mic)
	}

	if err := loop.Post(ctx, core.Event{Kind: core.EventPeerOpen, Peer: "renamed"}); err != nil {
		t.Fatal(err)
	}
	if v := nextView(t, views); v.LocalID != "renamed" {
		t.Fatalf("local id = %q", v.LocalID)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	if !capture.media.closed {
		t.Fatal("local media not released on shutdown")
	}
}

func TestLoopSurvivesClosedEvents(t *testing.T) {
	ctrl := NewController(newFakeNet().join("x"), &fakeCapture{}, nil)
	events := make(chan core.Event)
	close(events)
	views := make(chan View, 8)
	loop := NewLoop(ctrl, events, func(v View) { views <- v })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	nextView(t, views)

	if err := loop.Do(ctx, func(c *Controller) { c.ToggleChat() }); err != nil {
		t.Fatal(err)
	}
	if v := nextView(t, views); !v.ChatOpen {
		t.Fatal("command not applied after events closed")
	}
}

func TestLoopDoHonorsContext(t *testing.T) {
	loop := NewLoop(NewController(nil, nil, nil), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < cap(loop.commands); i++ {
		loop.commands <- func(*Controller) {}
	}
	if err := loop.Do(ctx, func(*Controller) {}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Do = %v", err)
	}
}
