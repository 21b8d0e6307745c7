package middleware

import (
	"net/http"
	"reserva/pkg/logger"
	"sync"
	"time"
)

type UserExtractor func(r *http.Request) string

// UserRateLimiter keeps a sliding window of request timestamps per user.
// Requests without a user identity pass through; the auth layer rejects
// those later.
type UserRateLimiter struct {
	mu            sync.RWMutex
	requests      map[string][]time.Time
	limit         int
	window        time.Duration
	userExtractor UserExtractor
	log           *logger.Logger
	stopCh        chan struct{}
}

func NewUserRateLimiter(limit int, window time.Duration, extractor UserExtractor, log *logger.Logger) *UserRateLimiter {
	limiter := &UserRateLimiter{
		requests:      make(map[string][]time.Time),
		limit:         limit,
		window:        window,
		userExtractor: extractor,
		log:           log,
		stopCh:        make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *UserRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for user, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, user)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *UserRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *UserRateLimiter) Allow(user string) bool {
	if user == "" {
		return true
	}

	now := time.Now()

	rl.mu.RLock()
	timestamps := rl.requests[user]
	rl.mu.RUnlock()

	validTimestamps := make([]time.Time, 0)
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			validTimestamps = append(validTimestamps, ts)
		}
	}

	if len(validTimestamps) >= rl.limit {
		return false
	}

	validTimestamps = append(validTimestamps, now)

	rl.mu.Lock()
	rl.requests[user] = validTimestamps
	rl.mu.Unlock()

	return true
}

func UserRateLimit(limiter *UserRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := extractUserID(r, limiter.userExtractor)

			if user == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(user) {
				rejectRateLimited(w, limiter.log, r, user)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractUserID(r *http.Request, extractor UserExtractor) string {
	if extractor == nil {
		return r.Header.Get("X-User-ID")
	}
	return extractor(r)
}

func rejectRateLimited(w http.ResponseWriter, log *logger.Logger, r *http.Request, user string) {
	requestID := ""
	if rid := r.Context().Value(RequestIDKey); rid != nil {
		requestID = rid.(string)
	}

	log.Warn("Rate limit exceeded",
		"request_id", requestID,
		"user_id", user,
		"path", r.URL.Path,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
}

func DefaultUserExtractor(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}
