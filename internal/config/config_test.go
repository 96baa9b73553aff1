package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 || cfg.Mode != "release" || cfg.PingPeriod != 54*time.Second {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Peer.ServerURL != "ws://localhost:8080/api/peerjs" {
		t.Fatalf("server url = %q", cfg.Peer.ServerURL)
	}
	if len(cfg.Peer.ICEServers) != 1 || cfg.Media.FrameInterval != 20*time.Millisecond {
		t.Fatalf("peer/media = %+v %+v", cfg.Peer, cfg.Media)
	}
	if cfg.Media.Permission != "granted" {
		t.Fatalf("permission = %q", cfg.Media.Permission)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	body := `
mode: debug
port: 9000
log_level: debug
peer:
  server_url: ws://broker:9000/api/peerjs
  ice_servers: []
media:
  permission: denied
  frame_interval: 40ms
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != "debug" || cfg.Port != 9000 || cfg.Level() != zerolog.DebugLevel {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Peer.ServerURL != "ws://broker:9000/api/peerjs" || cfg.Media.Permission != "denied" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Media.FrameInterval != 40*time.Millisecond {
		t.Fatalf("frame interval = %v", cfg.Media.FrameInterval)
	}
	// ping_period is not in the file, so the default applies.
	if cfg.PingPeriod != 54*time.Second {
		t.Fatalf("ping period = %v", cfg.PingPeriod)
	}
}

func TestLoadFileBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("port: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("MEET_PORT", "7070")
	t.Setenv("MEET_PEER_SERVER_URL", "ws://env/api/peerjs")
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 7070 || cfg.Peer.ServerURL != "ws://env/api/peerjs" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLevelFallback(t *testing.T) {
	c := &Config{LogLevel: "loud"}
	if c.Level() != zerolog.InfoLevel {
		t.Fatalf("level = %v", c.Level())
	}
}
