package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter 按用户（未登录时按 IP）限制写操作频率
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	every    time.Duration
	burst    int
}

func NewRateLimiter(every time.Duration, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		every:    every,
		burst:    burst,
	}
}

// Get retrieves or creates the limiter for key.
func (rl *RateLimiter) Get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(rl.every), rl.burst)
		rl.limiters[key] = limiter
	}
	rl.lastSeen[key] = time.Now()
	return limiter
}

// Cleanup 删除 cutoff 之前最后出现的 key
func (rl *RateLimiter) Cleanup(cutoff time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for key, seen := range rl.lastSeen {
		if seen.Before(cutoff) {
			delete(rl.limiters, key)
			delete(rl.lastSeen, key)
			removed++
		}
	}
	return removed
}

// StartCleanup 每小时清理一天未出现的 key，ctx 取消后退出
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.Cleanup(now.Add(-24 * time.Hour))
			}
		}
	}()
}

// Middleware 只限制非 GET 请求
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}
		key := "ip:" + c.ClientIP()
		if id, ok := actorOf(c); ok {
			key = fmt.Sprintf("user:%d", id)
		}
		if !rl.Get(key).Allow() {
			c.Header("Retry-After", fmt.Sprintf("%.0f", rl.every.Seconds()))
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
