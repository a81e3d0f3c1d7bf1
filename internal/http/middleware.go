package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mangashelf/internal/auth"
	"github.com/mrlokans/mangashelf/internal/metrics"
)

// Context keys set by the middleware.
const (
	ContextKeyRequestID = "request_id"
	ContextKeyLogger    = "logger"

	HeaderRequestID = "X-Request-ID"
)

// RequestIDMiddleware tags every request with an id, reusing one supplied
// by the client, and binds a request-scoped logger to the context.
func RequestIDMiddleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Set(ContextKeyLogger, log.WithField("request_id", id))
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// LoggerMiddleware writes one structured line per request.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := requestLogger(c).WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).Round(time.Microsecond),
			"client":   c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Debug("Request served")
		}
	}
}

// MetricsMiddleware records request counts and latency per route template,
// so "/api/manga/:id" is one series regardless of the id.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// TokenAuthMiddleware requires "Authorization: Bearer <token>" matching the
// bcrypt hash. An empty hash disables the check. With a limiter, clients
// that keep failing are locked out for a while.
func TokenAuthMiddleware(tokenHash string, limiter *auth.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenHash == "" {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if limiter != nil {
			if allowed, retryAfter := limiter.Allow(ip); !allowed {
				c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				respondError(c, http.StatusTooManyRequests, "too many failed attempts")
				c.Abort()
				return
			}
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || auth.CheckToken(token, tokenHash) != nil {
			if limiter != nil {
				if locked, _ := limiter.RecordFailure(ip); locked {
					requestLogger(c).WithField("client_ip", ip).Warn("Client locked out after failed token checks")
				}
			}
			c.Header("WWW-Authenticate", `Bearer realm="mangashelf"`)
			respondError(c, http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}

		if limiter != nil {
			limiter.RecordSuccess(ip)
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
