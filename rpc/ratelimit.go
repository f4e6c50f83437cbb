package rpc

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"tipfinity/observability"
)

const (
	limiterIdleTTL       = 5 * time.Minute
	limiterSweepInterval = time.Minute
	maxTrackedClients    = 10000
	maxForwardedForAddrs = 16
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter applies a token bucket per client address. A zero rate
// disables limiting.
type rateLimiter struct {
	perSecond rate.Limit
	burst     int

	mu        sync.Mutex
	visitors  map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiter(requestsPerMinute float64, burst int) *rateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		perSecond: rate.Limit(requestsPerMinute / 60.0),
		burst:     burst,
		visitors:  make(map[string]*limiterEntry),
		now:       time.Now,
	}
}

func (l *rateLimiter) allow(id string) bool {
	if l == nil || l.perSecond <= 0 {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= limiterSweepInterval || len(l.visitors) >= maxTrackedClients {
		l.sweepLocked(now)
	}
	entry, ok := l.visitors[id]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.perSecond, l.burst)}
		l.visitors[id] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// sweepLocked drops idle buckets. When the table is still full the least
// recently seen client is evicted to make room.
func (l *rateLimiter) sweepLocked(now time.Time) {
	l.lastSweep = now
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, entry := range l.visitors {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(l.visitors, key)
			continue
		}
		if oldestKey == "" || entry.lastSeen.Before(oldest) {
			oldestKey, oldest = key, entry.lastSeen
		}
	}
	if len(l.visitors) >= maxTrackedClients && oldestKey != "" {
		delete(l.visitors, oldestKey)
	}
}

func (l *rateLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Middleware rejects requests from clients over their budget.
func (l *rateLimiter) Middleware(source func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(source(r)) {
				observability.RPC().RecordThrottle("rate_limit")
				w.Header().Set("Content-Type", "application/json")
				writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// proxyTrust decides whether forwarding headers may name the client.
type proxyTrust struct {
	proxies map[string]struct{}
}

func newProxyTrust(addrs []string) proxyTrust {
	trust := proxyTrust{proxies: make(map[string]struct{}, len(addrs))}
	for _, addr := range addrs {
		if ip := canonicalIP(addr); ip != "" {
			trust.proxies[ip] = struct{}{}
		}
	}
	return trust
}

// clientSource keys a request on its peer address. X-Forwarded-For and
// X-Real-IP are honoured only when the peer is a configured proxy.
func (t proxyTrust) clientSource(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if _, ok := t.proxies[peer]; !ok {
		return peer
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > maxForwardedForAddrs {
			return peer
		}
		if ip := canonicalIP(parts[0]); ip != "" {
			return ip
		}
	}
	if ip := canonicalIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return peer
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	if ip := canonicalIP(host); ip != "" {
		return ip
	}
	return strings.TrimSpace(host)
}

// canonicalIP returns the textual form of value, which may carry a port.
// Anything that is not an IP yields "".
func canonicalIP(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(value); err == nil {
		value = host
	}
	ip := net.ParseIP(strings.Trim(value, "[]"))
	if ip == nil {
		return ""
	}
	return ip.String()
}
