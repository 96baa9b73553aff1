package main

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/adapters/media"
	"github.com/dkeye/Meet/internal/adapters/rtc"
	"github.com/dkeye/Meet/internal/adapters/term"
	"github.com/dkeye/Meet/internal/app/callctl"
	"github.com/dkeye/Meet/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The view goes to stdout, logs to stderr.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	peer, err := rtc.Dial(ctx, rtc.Config{
		ServerURL:              cfg.Peer.ServerURL,
		ID:                     cfg.Peer.ID,
		ICEServers:             cfg.Peer.ICEServers,
		ICEDisconnectedTimeout: cfg.Peer.ICEDisconnectedTimeout,
		PingPeriod:             cfg.PingPeriod,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to reach broker")
	}
	defer peer.Close()

	capture := media.NewCapture(media.Config{
		Permission:    cfg.Media.Permission,
		FrameInterval: cfg.Media.FrameInterval,
	})
	renderer := term.NewRenderer(os.Stdout)
	ctrl := callctl.NewController(peer, capture, term.NewNotifier(os.Stdout))
	loop := callctl.NewLoop(ctrl, peer.Events(), renderer.Render)

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	_ = loop.Do(ctx, func(c *callctl.Controller) { _, _ = c.AcquireLocalMedia(ctx) })
	go readInput(ctx, cancel, loop)

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("loop stopped")
	}
	log.Info().Msg("bye")
}

func readInput(ctx context.Context, quit context.CancelFunc, loop *callctl.Loop) {
	in := term.NewInput(ctx, os.Stdout)
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		cmd, stop := in.Parse(sc.Text())
		if stop {
			break
		}
		if cmd == nil {
			continue
		}
		if err := loop.Do(ctx, cmd); err != nil {
			return
		}
	}
	quit()
}
