package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	RequestsPerMinute int           // Max scrub requests per client per minute
	BurstSize         int           // Allow burst of N requests
	CleanupInterval   time.Duration // How often to clean up old entries
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request can proceed and consumes a token if so
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	// Refill tokens based on elapsed time
	tb.tokens = min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Remaining returns the number of tokens remaining
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tokens := min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	return int(tokens)
}

// ClientRateLimiter manages rate limits per client address
type ClientRateLimiter struct {
	config      RateLimiterConfig
	limits      map[string]*TokenBucket
	mu          sync.RWMutex
	logger      *zap.Logger
	stopCleanup chan struct{}
}

// NewClientRateLimiter creates a new per-client rate limiter
func NewClientRateLimiter(config RateLimiterConfig, logger *zap.Logger) *ClientRateLimiter {
	limiter := &ClientRateLimiter{
		config:      config,
		limits:      make(map[string]*TokenBucket),
		logger:      logger,
		stopCleanup: make(chan struct{}),
	}

	// Start cleanup goroutine
	go limiter.cleanupRoutine()

	return limiter
}

// cleanupRoutine periodically removes stale entries
func (crl *ClientRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(crl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			crl.cleanup()
		case <-crl.stopCleanup:
			return
		}
	}
}

// cleanup drops all buckets once the map grows past a threshold. Buckets
// are cheap to rebuild, so a full reset is simpler than tracking last
// access per client.
func (crl *ClientRateLimiter) cleanup() {
	crl.mu.Lock()
	defer crl.mu.Unlock()

	if len(crl.limits) > 1000 {
		crl.logger.Info("Cleaning up rate limiter cache", zap.Int("client_limiters", len(crl.limits)))
		crl.limits = make(map[string]*TokenBucket)
	}
}

// Stop stops the cleanup routine
func (crl *ClientRateLimiter) Stop() {
	close(crl.stopCleanup)
}

// Allow checks if a request from the given client can proceed
func (crl *ClientRateLimiter) Allow(clientIP string) bool {
	crl.mu.Lock()
	bucket, exists := crl.limits[clientIP]
	if !exists {
		refillRate := float64(crl.config.RequestsPerMinute) / 60.0
		bucket = NewTokenBucket(float64(crl.config.BurstSize), refillRate)
		crl.limits[clientIP] = bucket
	}
	crl.mu.Unlock()

	return bucket.Allow()
}

// GetLimit returns remaining tokens for a client
func (crl *ClientRateLimiter) GetLimit(clientIP string) (remaining int, limit int) {
	crl.mu.RLock()
	bucket, exists := crl.limits[clientIP]
	crl.mu.RUnlock()

	if !exists {
		return crl.config.BurstSize, crl.config.BurstSize
	}
	return bucket.Remaining(), crl.config.BurstSize
}

// RateLimitMiddleware creates a Gin middleware for rate limiting by client
// address
func RateLimitMiddleware(limiter *ClientRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		allowed := limiter.Allow(clientIP)
		remaining, limit := limiter.GetLimit(clientIP)

		// Add rate limit headers
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			logger, _ := c.Get("logger")
			zapLogger, _ := logger.(*zap.Logger)
			if zapLogger != nil {
				zapLogger.Warn("Rate limit exceeded",
					zap.String("client_ip", clientIP),
					zap.Int("limit", limit))
			}

			c.Header("Retry-After", "60") // Suggest retry after 60 seconds
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"limit":       limit,
				"remaining":   remaining,
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}
