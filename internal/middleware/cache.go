package middleware

import "github.com/gin-gonic/gin"

// NoStore sets strict no-cache headers on every response. Reports are computed
// from live response sets, so intermediaries must never serve a stale copy.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}
