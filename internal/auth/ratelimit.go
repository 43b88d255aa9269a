package auth

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

// LoginLimiter throttles login attempts per client address with a token bucket.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows burst attempts and refills one every refill interval.
func NewLoginLimiter(burst int, refill time.Duration) *LoginLimiter {
	if burst <= 0 {
		burst = 5
	}
	if refill <= 0 {
		refill = 12 * time.Second
	}
	return &LoginLimiter{
		limiters: make(map[string]*visitor),
		limit:    rate.Every(refill),
		burst:    burst,
		idle:     refill * time.Duration(burst) * 2,
		now:      time.Now,
	}
}

// Allow consumes one attempt for key.
func (l *LoginLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = v
	}
	v.lastSeen = now
	l.evict(now)
	return v.limiter.AllowN(now, 1)
}

// evict drops buckets that have been idle long enough to be full again.
func (l *LoginLimiter) evict(now time.Time) {
	if len(l.limiters) < 1024 {
		return
	}
	for key, v := range l.limiters {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.limiters, key)
		}
	}
}

// Middleware rejects requests from addresses that exhausted their attempts.
func (l *LoginLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.Allow(c.IP()) {
			return apperrors.NewTooManyRequests("too many login attempts, try again later")
		}
		return c.Next()
	}
}
