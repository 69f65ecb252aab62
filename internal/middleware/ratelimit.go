package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sihmvp/dropout-monitor/internal/metrics"
	"github.com/sihmvp/dropout-monitor/internal/response"
)

// LoginLimiter throttles sign-in attempts per client IP. Each IP gets limit
// attempts per window; the window starts at its first attempt.
type LoginLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	attempts map[string]*attemptWindow
	swept    time.Time
}

type attemptWindow struct {
	start time.Time
	count int
}

// NewLoginLimiter allows limit attempts per window for each IP.
func NewLoginLimiter(limit int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		attempts: make(map[string]*attemptWindow),
	}
}

// allow records an attempt from ip. When the budget is spent it returns
// false and how long until the window resets.
func (l *LoginLimiter) allow(ip string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(now)

	w, ok := l.attempts[ip]
	if !ok || now.Sub(w.start) >= l.window {
		w = &attemptWindow{start: now}
		l.attempts[ip] = w
	}
	if w.count >= l.limit {
		return false, w.start.Add(l.window).Sub(now)
	}
	w.count++
	return true, 0
}

// sweepLocked drops expired windows at most once per window.
func (l *LoginLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.swept) < l.window {
		return
	}
	for ip, w := range l.attempts {
		if now.Sub(w.start) >= l.window {
			delete(l.attempts, ip)
		}
	}
	l.swept = now
}

// Middleware rejects over-budget attempts with 429 and a Retry-After header.
func (l *LoginLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := l.allow(c.ClientIP())
		if !ok {
			metrics.LoginThrottled.Inc()
			secs := int(wait.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}
