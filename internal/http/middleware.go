package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"homemoney/internal/log"
)

const requestIDHeader = "X-Request-ID"

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// requestLogger assigns a request id, stores a request-scoped logger in the
// context and logs start and completion.
func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		r := c.Request

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Header(requestIDHeader, requestID)

		reqLogger := logger.With(log.FieldRequestID, requestID)
		c.Request = r.WithContext(log.WithContext(r.Context(), reqLogger))

		fields := log.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
			WithClientIP(c.ClientIP())
		reqLogger.DebugContext(c.Request.Context(), "HTTP request started", fields.ToSlice()...)

		if isSuspicious(r) {
			reqLogger.WarnContext(c.Request.Context(), "Suspicious request", fields.ToSlice()...)
		}

		c.Next()

		status := c.Writer.Status()
		fields = fields.WithHTTPResponse(status, time.Since(start).Milliseconds())
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		reqLogger.Log(c.Request.Context(), level, "HTTP request completed", fields.ToSlice()...)
	}
}

// rateLimit applies the limiter to POST requests only.
func rateLimit(rl *rateLimiter, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if !rl.allow(ip) {
			logger.WarnContext(c.Request.Context(), "Rate limit exceeded",
				log.FieldClientIP, ip,
				log.FieldPath, c.Request.URL.Path)
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// timeout bounds every handler with a context deadline. Handlers that give
// up on the deadline without writing a response get a 503.
func timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorBody("TIMEOUT", "request timed out"))
		}
	}
}

// errorBody is the payload for internal failures.
func errorBody(code, message string) gin.H {
	return gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}
