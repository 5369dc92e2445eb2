package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// triggerRecord tracks ingestion triggers from an IP
type triggerRecord struct {
	Count   int
	FirstAt time.Time
}

// RateLimiter caps how often an IP may hit an expensive endpoint within a
// time window. The ingest trigger fans out to the brokerage API, so a
// runaway caller would burn through the upstream quota.
type RateLimiter struct {
	mu           sync.Mutex
	triggers     map[string]*triggerRecord
	maxTriggers  int
	windowPeriod time.Duration
}

// NewRateLimiter creates a rate limiter allowing maxTriggers per window
func NewRateLimiter(maxTriggers int, windowPeriod time.Duration) *RateLimiter {
	rl := &RateLimiter{
		triggers:     make(map[string]*triggerRecord),
		maxTriggers:  maxTriggers,
		windowPeriod: windowPeriod,
	}
	go rl.startCleanup()
	return rl
}

// startCleanup periodically removes expired entries
func (rl *RateLimiter) startCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, record := range rl.triggers {
			if now.Sub(record.FirstAt) > rl.windowPeriod {
				delete(rl.triggers, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow reports whether the IP has budget left in the current window
func (rl *RateLimiter) allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	record, exists := rl.triggers[ip]
	if !exists || now.Sub(record.FirstAt) > rl.windowPeriod {
		rl.triggers[ip] = &triggerRecord{Count: 1, FirstAt: now}
		return true, 0
	}

	if record.Count >= rl.maxTriggers {
		return false, rl.windowPeriod - now.Sub(record.FirstAt)
	}
	record.Count++
	return true, 0
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := rl.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "Too many ingestion triggers, try again later",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
