package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LimiterStore keeps one token bucket per caller key and forgets idle keys
type LimiterStore struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLimiterStore creates a store handing out limiters of rps with burst
func NewLimiterStore(rps float64, burst int, idleTTL time.Duration) *LimiterStore {
	if burst < 1 {
		burst = 1
	}
	return &LimiterStore{
		entries: make(map[string]*limiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
	}
}

// Get returns the limiter of key, creating it on first use
func (s *LimiterStore) Get(key string) *rate.Limiter {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}
	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup drops limiters not used within the idle TTL
func (s *LimiterStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// Len returns the number of tracked keys
func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor runs Cleanup every interval until ctx is done
func (s *LimiterStore) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// RateLimit rejects callers that exceed their token bucket with 429.
// Authenticated callers are keyed by subject, others by client IP.
func RateLimit(store *LimiterStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if claims, err := ClaimsFromContext(c); err == nil {
			key = "sub:" + claims.SUB
		}

		reservation := store.Get(key).Reserve()
		if !reservation.OK() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.NewError("Muitas requisicoes. Tente novamente em instantes.", nil))
			return
		}
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			observability.Logger().Debug("rate limit exceeded", zap.String("key", key), zap.Duration("retry_after", delay))
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.NewError("Muitas requisicoes. Tente novamente em instantes.", nil))
			return
		}
		c.Next()
	}
}
