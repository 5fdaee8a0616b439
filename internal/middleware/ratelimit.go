package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerSecond defines the maximum number of requests per second
	RequestsPerSecond float64
	// WindowSize defines the time window for rate limiting
	WindowSize time.Duration
	// KeyExtractor extracts the key for rate limiting
	KeyExtractor func(*http.Request) string
	// OnRateLimitExceeded is called when rate limit is exceeded
	OnRateLimitExceeded func(http.ResponseWriter, *http.Request, string)
	// SkipPaths contains paths that should not be rate limited
	SkipPaths []string
	// Store is the storage backend for rate limit data
	Store RateLimitStore
}

// RateLimitStore defines the interface for rate limit storage
type RateLimitStore interface {
	// Allow checks if a request is allowed and updates counters
	Allow(key string, limit float64, window time.Duration) (bool, error)
	// Reset resets the counter for a key
	Reset(key string) error
	// Cleanup removes expired entries
	Cleanup() error
}

// TokenBucket represents a token bucket for rate limiting
type TokenBucket struct {
	tokens     float64
	capacity   float64
	refillRate float64
	lastRefill time.Time
	mu         sync.Mutex
}

// InMemoryRateLimitStore implements RateLimitStore using in-memory storage
type InMemoryRateLimitStore struct {
	buckets map[string]*TokenBucket
	idle    time.Duration
	now     func() time.Time
	mu      sync.Mutex
}

// NewInMemoryRateLimitStore creates a new in-memory rate limit store.
// Buckets unused for an hour are dropped by Cleanup.
func NewInMemoryRateLimitStore() *InMemoryRateLimitStore {
	return &InMemoryRateLimitStore{
		buckets: make(map[string]*TokenBucket),
		idle:    time.Hour,
		now:     time.Now,
	}
}

// Allow implements RateLimitStore.Allow
func (s *InMemoryRateLimitStore) Allow(key string, limit float64, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return false, fmt.Errorf("invalid rate limit %v per %v", limit, window)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	bucket, exists := s.buckets[key]
	if !exists {
		bucket = &TokenBucket{
			tokens:     limit,
			capacity:   limit,
			refillRate: limit / window.Seconds(),
			lastRefill: now,
		}
		s.buckets[key] = bucket
	}

	return bucket.allow(now), nil
}

// Reset implements RateLimitStore.Reset
func (s *InMemoryRateLimitStore) Reset(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.buckets, key)
	return nil
}

// Cleanup implements RateLimitStore.Cleanup
func (s *InMemoryRateLimitStore) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, bucket := range s.buckets {
		bucket.mu.Lock()
		if now.Sub(bucket.lastRefill) > s.idle {
			delete(s.buckets, key)
		}
		bucket.mu.Unlock()
	}

	return nil
}

// Len returns the number of tracked keys
func (s *InMemoryRateLimitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// Run calls Cleanup every interval until ctx is done
func (s *InMemoryRateLimitStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Cleanup()
		}
	}
}

// allow refills the bucket up to now and consumes a token if one is available
func (tb *TokenBucket) allow(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	elapsed := now.Sub(tb.lastRefill).Seconds()

	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}

	return false
}

// RateLimitWithConfig returns a rate limiting middleware with custom configuration
func RateLimitWithConfig(config *RateLimitConfig) func(http.Handler) http.Handler {
	if config.Store == nil {
		config.Store = NewInMemoryRateLimitStore()
	}
	if config.WindowSize <= 0 {
		config.WindowSize = time.Second
	}
	if config.KeyExtractor == nil {
		config.KeyExtractor = IPKeyExtractor
	}
	if config.OnRateLimitExceeded == nil {
		config.OnRateLimitExceeded = func(w http.ResponseWriter, r *http.Request, key string) {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
		}
	}
	limit := fmt.Sprintf("%.0f", config.RequestsPerSecond)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skipPath := range config.SkipPaths {
				if r.URL.Path == skipPath {
					next.ServeHTTP(w, r)
					return
				}
			}

			key := config.KeyExtractor(r)

			allowed, err := config.Store.Allow(key, config.RequestsPerSecond, config.WindowSize)
			if err != nil {
				// a broken limiter never blocks the console
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", limit)
			if !allowed {
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", "1")
				config.OnRateLimitExceeded(w, r, key)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TrustedProxies holds additional trusted proxy IPs/CIDRs beyond private networks.
// Private ranges and loopback are always trusted.
var TrustedProxies []string

var privateNetworks []*net.IPNet

func init() {
	privateCIDRs := []string{
		"127.0.0.0/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"::1/128",
		"fc00::/7",
	}
	for _, cidr := range privateCIDRs {
		_, network, _ := net.ParseCIDR(cidr)
		privateNetworks = append(privateNetworks, network)
	}
}

// IPKeyExtractor extracts the real client IP address as the rate limiting key.
// X-Forwarded-For and X-Real-IP are honoured only when the direct peer is a
// private address or listed in TrustedProxies.
func IPKeyExtractor(r *http.Request) string {
	remoteIP := stripPort(r.RemoteAddr)

	if isTrustedProxy(remoteIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// client, proxy1, proxy2
			parts := strings.SplitN(xff, ",", 2)
			clientIP := strings.TrimSpace(parts[0])
			if clientIP != "" {
				return clientIP
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	return remoteIP
}

// stripPort removes the port from an address like "192.168.1.1:12345"
func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}

// isTrustedProxy checks if the IP is a private network address or in the explicit trusted list
func isTrustedProxy(ip string) bool {
	parsedIP := net.ParseIP(ip)
	if parsedIP != nil {
		for _, network := range privateNetworks {
			if network.Contains(parsedIP) {
				return true
			}
		}
	}

	for _, trusted := range TrustedProxies {
		if strings.Contains(trusted, "/") {
			_, network, err := net.ParseCIDR(trusted)
			if err == nil && parsedIP != nil && network.Contains(parsedIP) {
				return true
			}
		} else if trusted == ip {
			return true
		}
	}
	return false
}
