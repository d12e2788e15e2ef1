package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// The API surface only mutates via POST and DELETE.
var headers = map[string]string{
	"Access-Control-Allow-Credentials": "true",
	"Access-Control-Allow-Headers":     "Authorization, Content-Type, X-Requested-With, X-Request-ID",
	"Access-Control-Allow-Methods":     "GET, POST, DELETE, OPTIONS",
	// Browsers need the disposition header to name report downloads.
	"Access-Control-Expose-Headers": "Content-Disposition, X-Request-ID",
	"Access-Control-Max-Age":        "600",
}

// New returns a CORS middleware restricted to the given origins. An
// empty list allows any origin.
func New(allowedOrigins []string) gin.HandlerFunc {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originSet[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		if origin := c.GetHeader("Origin"); origin != "" {
			if allowed(originSet, origin) {
				h.Set("Access-Control-Allow-Origin", origin)
			}
		} else if len(originSet) == 0 {
			h.Set("Access-Control-Allow-Origin", "*")
		}

		h.Set("Vary", "Origin")
		for name, value := range headers {
			h.Set(name, value)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func allowed(originSet map[string]struct{}, origin string) bool {
	if len(originSet) == 0 {
		return true
	}
	_, ok := originSet[strings.TrimRight(origin, "/")]
	return ok
}
