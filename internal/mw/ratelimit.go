package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPRateLimiter stores a rate limiter for each client IP address.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(limit rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// Limiter returns the rate limiter for an IP, creating it on first sight.
func (i *IPRateLimiter) Limiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, ok := i.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(i.limit, i.burst)
		i.limiters[ip] = limiter
	}
	return limiter
}

// RateLimiter is a middleware for IP-based rate limiting. ipHeader, when
// non-empty, names a trusted proxy header to read the client IP from.
func RateLimiter(limit rate.Limit, burst int, ipHeader string) gin.HandlerFunc {
	limiter := NewIPRateLimiter(limit, burst)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ipHeader != "" {
			if forwarded := c.GetHeader(ipHeader); forwarded != "" {
				ip = forwarded
			}
		}
		if !limiter.Limiter(ip).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
