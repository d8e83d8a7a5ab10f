package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kostkita/kostkita/backend/internal/auth"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var errInvalidAuthorization = errors.New("authorization header missing or invalid")

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Requested-With", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	origins := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 || containsWildcard(origins) {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	return cors.New(config)
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// requestLogger tags each request with an id and logs its outcome. Bodies are never logged.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if status >= http.StatusInternalServerError {
			logger.Warn("http request", fields...)
			return
		}
		logger.Info("http request", fields...)
	}
}

// clientRateLimiter keeps one token bucket per client IP. Buckets idle for longer than the
// idle TTL are evicted; an evicted client starts again with a full bucket.
type clientRateLimiter struct {
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
}

func newClientRateLimiter(limit rate.Limit, burst int, idleTTL time.Duration) *clientRateLimiter {
	return &clientRateLimiter{
		limiters: cache.New(idleTTL, 2*idleTTL),
		limit:    limit,
		burst:    burst,
	}
}

func (l *clientRateLimiter) limiterFor(clientIP string) *rate.Limiter {
	if cached, found := l.limiters.Get(clientIP); found {
		if limiter, ok := cached.(*rate.Limiter); ok {
			l.limiters.SetDefault(clientIP, limiter)
			return limiter
		}
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	if err := l.limiters.Add(clientIP, limiter, cache.DefaultExpiration); err != nil {
		// Another request for the same client stored its bucket first.
		if cached, found := l.limiters.Get(clientIP); found {
			if existing, ok := cached.(*rate.Limiter); ok {
				return existing
			}
		}
	}
	return limiter
}

func loginRateLimiter(limit rate.Limit, burst int, idleTTL time.Duration) gin.HandlerFunc {
	limiter := newClientRateLimiter(limit, burst, idleTTL)
	return func(c *gin.Context) {
		if !limiter.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too_many_requests"})
			return
		}
		c.Next()
	}
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	principal, err := h.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(principalContextKey, principal)
	c.Next()
}

func principalFrom(c *gin.Context) (auth.Principal, bool) {
	value, exists := c.Get(principalContextKey)
	if !exists {
		return auth.Principal{}, false
	}
	principal, ok := value.(auth.Principal)
	if !ok || principal.UserID == "" {
		return auth.Principal{}, false
	}
	return principal, true
}
