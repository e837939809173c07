// Package server exposes the catalog's codecs, validator and differ over
// HTTP for test tooling.
package server

import (
	"time"

	"github.com/danmuck/dictwire/internal/catalog"
	"github.com/danmuck/dictwire/internal/config"
	"github.com/danmuck/dictwire/internal/dictionary/diff"
	"github.com/danmuck/dictwire/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Server struct {
	ID       string    `json:"id"`
	Addr     string    `json:"addr"`
	Appeared time.Time `json:"appeared"`

	Catalog *catalog.Catalog `json:"-"`
	Diff    diff.Options     `json:"-"`

	router *gin.Engine
}

// Appear builds a server for cat using the service settings in cfg. Routes
// are registered by Serve or RegisterRoutes.
func Appear(cfg config.Config, cat *catalog.Catalog) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	return &Server{
		ID:       cfg.Name,
		Addr:     cfg.Addr,
		Appeared: time.Now(),
		Catalog:  cat,
		Diff:     cfg.Diff.Options(),
		router:   r,
	}
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) Serve() error {
	s.RegisterRoutes()
	log.Info().Msgf("server %s: serving %d dictionaries on %s", s.ID, s.Catalog.Len(), s.Addr)
	return s.router.Run(s.Addr)
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
