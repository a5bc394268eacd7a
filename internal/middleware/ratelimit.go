package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/time/rate"
)

// idleTTL is how long a key's bucket is kept after its last request.
const idleTTL = 10 * time.Minute

// RateLimitConfig defines the limit for a specific route or group.
type RateLimitConfig struct {
	Max    int                      // Requests allowed per Window (also the burst size)
	Window time.Duration            // Time window for the limit
	KeyFn  func(c fiber.Ctx) string // Returns the key to rate limit on (IP, userID, etc.)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is an in-memory token-bucket rate limiter keyed per client.
// Each key refills at Max tokens per Window.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	config   RateLimitConfig
	every    rate.Limit
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a rate limiter with the given config.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		config:   cfg,
		every:    rate.Every(cfg.Window / time.Duration(cfg.Max)),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.every, rl.config.Max)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Handler returns a Fiber middleware handler that enforces the rate limit.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		lim := rl.limiter(rl.config.KeyFn(c))
		r := lim.Reserve()

		delay := r.Delay()
		if delay > 0 {
			r.Cancel()
			retryAfter := int(delay.Seconds()) + 1
			setRateLimitHeaders(c, rl.config.Max, 0)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":       "RATE_LIMITED",
					"message":    "Too many requests. Try again in " + strconv.Itoa(retryAfter) + " seconds.",
					"retryAfter": retryAfter,
				},
			})
		}

		setRateLimitHeaders(c, rl.config.Max, int(lim.Tokens()))
		return c.Next()
	}
}

// Allow reports whether a request with the given key is allowed now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// Stop ends the background cleanup.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func setRateLimitHeaders(c fiber.Ctx, limit, remaining int) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(idleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for key, v := range rl.visitors {
				if time.Since(v.lastSeen) > idleTTL {
					delete(rl.visitors, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// KeyByIP returns the client IP as the rate limit key.
func KeyByIP(c fiber.Ctx) string {
	return "ip:" + c.IP()
}

// KeyByIdentity keys on the authenticated user, falling back to the client IP
// for anonymous requests.
func KeyByIdentity(c fiber.Ctx) string {
	if id := IdentityFrom(c); id != nil {
		return "user:" + id.ID
	}
	return "ip:" + c.IP()
}

// --- Pre-configured rate limiters for the API ---

// NewReadRateLimiter: 120 req/min per IP
func NewReadRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    120,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})
}

// NewVoteRateLimiter: 30 req/min per user
func NewVoteRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    30,
		Window: time.Minute,
		KeyFn:  KeyByIdentity,
	})
}

// NewCategoryRequestRateLimiter: 5 req/hour per user
func NewCategoryRequestRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    5,
		Window: time.Hour,
		KeyFn:  KeyByIdentity,
	})
}
