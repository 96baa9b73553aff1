package core

import "testing"

func TestEventKindString(t *testing.T) {
	if got := EventRemoteStream.String(); got != "remote_stream" {
		t.Fatalf("got %q", got)
	}
	if got := EventKind(99).String(); got != "event(99)" {
		t.Fatalf("got %q", got)
	}
}
