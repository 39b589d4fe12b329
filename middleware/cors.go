// api/middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const defaultOrigin = "http://localhost:3000"

// CORSMiddleware lets the wiki's pages call the tracking API from the browser.
// origin is the wiki's origin; an empty origin falls back to the local dev server.
func CORSMiddleware(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = defaultOrigin
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		// Session cookies carry the visitor's identity.
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
