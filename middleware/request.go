package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"matomotrack/api/logging"
	"matomotrack/api/search"
)

const (
	requestIDHeader = "X-Request-ID"
	searchKey       = "search_context"
)

// RequestID tags every request with an id, reusing the caller's X-Request-ID if sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}
		c.Writer.Header().Set(requestIDHeader, id)
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// SearchContext gives each request its own search.Context.
func SearchContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(searchKey, search.New())
		c.Next()
	}
}

// SearchFrom returns the request's search.Context, or nil outside SearchContext.
func SearchFrom(c *gin.Context) *search.Context {
	if v, ok := c.Get(searchKey); ok {
		if sc, ok := v.(*search.Context); ok {
			return sc
		}
	}
	return nil
}

// RequestLogger logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logging.Ctx(c.Request.Context()).Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request handled")
	}
}
