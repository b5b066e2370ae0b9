package middleware

import (
	"net/http"
	"strings"

	"github.com/wb-go/wbf/ginext"
)

// CORSMiddleware allows browsers on the given origins to call the API.
// "*" allows any origin. Preflight requests are answered directly.
func CORSMiddleware(origins []string) func(c *ginext.Context) {
	allowAny := false
	allowed := make(map[string]struct{}, len(origins))

	for _, o := range origins {
		if o == "*" {
			allowAny = true
		}
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(c *ginext.Context) {
		origin := c.GetHeader("Origin")

		if origin != "" {
			if _, ok := allowed[origin]; ok || allowAny {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
				c.Header("Access-Control-Max-Age", "600")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
