// Package httpapi is the management front end: it parses requests into fork
// configurations and maps the control surface onto HTTP.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/callfork/audiofork/internal/adapters/ingest"
	"github.com/callfork/audiofork/internal/app"
	"github.com/callfork/audiofork/internal/config"
)

func SetupRouter(cfg *config.Config, ctl *app.Control, hub *ingest.Hub) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	h := &handlers{ctl: ctl, legs: hub}

	api := r.Group("/api")
	api.GET("/ws/legs/:name", hub.HandleFeed)

	api.POST("/forks", h.start)
	api.GET("/forks/:id", h.query)
	api.GET("/legs/:name/forks", h.list)
	api.DELETE("/legs/:name/forks", h.stopAny)
	api.DELETE("/legs/:name/forks/:id", h.stop)
	api.POST("/legs/:name/mute", h.mute)
	api.POST("/legs/:name/volume", h.volume)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info().Str("module", "httpapi").Msg("router setup")
	return r
}
