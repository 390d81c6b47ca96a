package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"aipseo/internal/core/ports"
	"aipseo/internal/toolspec"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Market ports.MarketplaceClient
	Tools  []toolspec.Tool
	Logger zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(requestLogger(deps.Logger))

	h := NewToolHandler(deps.Market, deps.Tools)

	r.GET("/health", h.Health)
	r.GET("/tools", h.ListTools)
	r.GET("/lookup", h.Lookup)
	r.GET("/spam-score", h.SpamScore)
	r.GET("/market/search", h.SearchListings)

	return r
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	}
}
