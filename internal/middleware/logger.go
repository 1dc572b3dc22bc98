package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"seikin/internal/config"
)

// RequestID injects an X-Request-ID header into the request and response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger logs each HTTP request with method, path, status, and latency.
// Level "warn" logs only 4xx/5xx responses and "error" only 5xx; any other
// level logs every request. Format "json" emits one JSON object per line
// for log collectors, anything else the console line.
func Logger(cfg config.LogConfig) gin.HandlerFunc {
	minStatus := 0
	switch cfg.Level {
	case "warn":
		minStatus = http.StatusBadRequest
	case "error":
		minStatus = http.StatusInternalServerError
	}
	asJSON := cfg.Format == "json"

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		if status < minStatus {
			return
		}

		requestID, _ := c.Get("request_id")
		if asJSON {
			line, _ := json.Marshal(map[string]interface{}{
				"request_id": requestID,
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"status":     status,
				"latency_ms": latency.Milliseconds(),
			})
			log.Printf("%s", line)
			return
		}
		log.Printf("[%s] %s %s %d %s",
			requestID,
			c.Request.Method,
			c.Request.URL.Path,
			status,
			latency,
		)
	}
}

// Recovery recovers from panics and returns a 500 error.
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}
