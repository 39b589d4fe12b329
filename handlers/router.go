package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"matomotrack/api/middleware"
)

// NewRouter wires the tracking endpoints and their middleware.
func NewRouter(h *TrackingHandlers, origin string, jwtSecret []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(
		middleware.CORSMiddleware(origin),
		middleware.Identity(jwtSecret),
		middleware.SearchContext(),
	)
	{
		api.POST("/pageview", h.PageView)
		api.GET("/footer", h.Footer)
		// Preflight requests are answered by the CORS middleware.
		api.OPTIONS("/pageview", func(c *gin.Context) {})
	}

	return r
}
