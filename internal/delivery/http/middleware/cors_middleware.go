package middleware

import (
	"net/http"

	"resume-portfolio-backend/config"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware adds CORS headers so the SPA frontend can call the API.
// Only the configured frontend origin and, outside release mode, localhost
// development origins are allowed.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	isProduction := gin.Mode() == gin.ReleaseMode

	devOrigins := map[string]bool{
		"http://localhost:3000": true,
		"http://127.0.0.1:3000": true,
		"http://localhost:5173": true,
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := origin != "" && origin == cfg.FrontendURL
		if !allowed && !isProduction && devOrigins[origin] {
			allowed = true
		}

		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
