package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterInfo holds a rate limiter and the last time its IP was seen.
type limiterInfo struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	limiterCleanupInterval = 10 * time.Minute
	limiterExpiration      = 30 * time.Minute
)

// RateLimitByIP limits request bursts per client IP. Each instance keeps its
// own limiter map, so route groups with different rates stay independent.
// Voice and kiosk endpoints are chatty, so the limits are generous; they
// exist to stop runaway clients, not to meter usage.
func RateLimitByIP(r rate.Limit, burst int) gin.HandlerFunc {
	var limiters sync.Map

	// Cleanup goroutine
	go func() {
		for range time.Tick(limiterCleanupInterval) {
			limiters.Range(func(key, value interface{}) bool {
				if time.Since(value.(*limiterInfo).lastSeen) > limiterExpiration {
					limiters.Delete(key)
				}
				return true
			})
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()

		value, _ := limiters.LoadOrStore(ip, &limiterInfo{
			limiter:  rate.NewLimiter(r, burst),
			lastSeen: time.Now(),
		})
		info := value.(*limiterInfo)
		info.lastSeen = time.Now()

		if !info.limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
