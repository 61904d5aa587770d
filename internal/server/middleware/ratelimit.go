package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimitByIP applies per-IP rate limiting for unauthenticated endpoints
// (auth routes). Uses chi's RealIP middleware value via r.RemoteAddr.
// Stale entries are cleaned up every 10 minutes.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*limiterEntry)
	)

	go cleanupLoop(ctx, &mu, func(cutoff time.Time) {
		for ip, le := range limiters {
			if le.lastAccess.Before(cutoff) {
				delete(limiters, ip)
			}
		}
	})

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		le, ok := limiters[ip]
		if !ok {
			le = &limiterEntry{
				limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
				lastAccess: time.Now(),
			}
			limiters[ip] = le
		} else {
			le.lastAccess = time.Now()
		}
		return le.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiterFor(r.RemoteAddr).Allow() {
				tooMany(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByUser applies per-principal rate limiting on authenticated
// routes. Requests without a principal in context are passed through (the
// auth middleware already rejected them).
func RateLimitByUser(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = make(map[uuid.UUID]*limiterEntry)
	)

	go cleanupLoop(ctx, &mu, func(cutoff time.Time) {
		for id, le := range limiters {
			if le.lastAccess.Before(cutoff) {
				delete(limiters, id)
			}
		}
	})

	limiterFor := func(userID uuid.UUID) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		le, ok := limiters[userID]
		if !ok {
			le = &limiterEntry{
				limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
				lastAccess: time.Now(),
			}
			limiters[userID] = le
		} else {
			le.lastAccess = time.Now()
		}
		return le.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if !limiterFor(userID).Allow() {
				tooMany(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func cleanupLoop(ctx context.Context, mu *sync.Mutex, sweep func(cutoff time.Time)) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			mu.Lock()
			sweep(time.Now().Add(-30 * time.Minute))
			mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func tooMany(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"Too many requests"}`))
}
