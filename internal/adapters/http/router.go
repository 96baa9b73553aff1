package http

import (
	"context"
	"crypto/rand"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/adapters/signal"
	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/config"
	"github.com/dkeye/Meet/internal/domain"
)

const sessionName = "MeetSessions"

// sessionSecret returns the configured secret or a random one, in which
// case peer id affinity only lasts until restart.
func sessionSecret(cfg *config.Config) []byte {
	if cfg.Secret != "" {
		return []byte(cfg.Secret)
	}
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	log.Warn().Str("module", "adapters.http").Msg("no secret configured, using a random cookie key")
	return b
}

func SetupRouter(ctx context.Context, cfg *config.Config, broker *app.Broker, limiter *signal.RateLimiter) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore(sessionSecret(cfg))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":   "meet",
			"signal": "/api/peerjs",
			"online": len(broker.Registry.Online()),
		})
	})

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")

	api := r.Group("/api")

	ctrl := signal.NewSignalWSController(broker, limiter, cfg.ReadLimit, cfg.PingPeriod)
	api.GET("/peerjs", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("remote", c.ClientIP()).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	api.GET("/peers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"peers": broker.Registry.Online()})
	})

	api.GET("/peers/:id", func(c *gin.Context) {
		id, err := domain.ParsePeerID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		_, online := broker.Registry.Lookup(id)
		c.JSON(http.StatusOK, gin.H{"id": id, "online": online})
	})

	return r
}
