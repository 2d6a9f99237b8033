package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
)

// RateLimiter is a fixed-window in-memory limiter keyed per client. Windows
// reset lazily on the next request after expiry.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientBucket),
	}
}

// Middleware enforces the limit per client key: the authenticated user when
// available, the client IP otherwise.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c)
		now := time.Now()

		rl.mu.Lock()

		bucket, ok := rl.clients[key]
		if !ok || now.After(bucket.windowEnd) {
			rl.clients[key] = &clientBucket{count: 1, windowEnd: now.Add(rl.window)}
			rl.mu.Unlock()
			c.Next()
			return
		}

		if bucket.count >= rl.limit {
			retryAfter := int(time.Until(bucket.windowEnd).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			rl.mu.Unlock()

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeRateLimited, "Too many requests, try again shortly")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse(errorDetail))
			return
		}

		bucket.count++
		rl.mu.Unlock()
		c.Next()
	}
}

func clientKey(c *gin.Context) string {
	if id, ok := UserIDFromContext(c); ok {
		return "user:" + strconv.FormatInt(id, 10)
	}
	return "ip:" + c.ClientIP()
}
