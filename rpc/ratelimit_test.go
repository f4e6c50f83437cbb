package rpc

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func requestFrom(remoteAddr string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestClientSourceIgnoresHeadersFromUntrustedPeer(t *testing.T) {
	trust := newProxyTrust(nil)
	req := requestFrom("192.0.2.10:7000", map[string]string{
		"X-Real-IP":       "198.51.100.1",
		"X-Forwarded-For": "198.51.100.2",
	})
	require.Equal(t, "192.0.2.10", trust.clientSource(req))
}

func TestClientSourceHonorsTrustedProxy(t *testing.T) {
	trust := newProxyTrust([]string{"10.0.0.1"})

	req := requestFrom("10.0.0.1:8080", map[string]string{"X-Forwarded-For": " 198.51.100.7:443 , 10.0.0.5"})
	require.Equal(t, "198.51.100.7", trust.clientSource(req))

	req = requestFrom("10.0.0.1:8080", map[string]string{"X-Real-IP": "198.51.100.8"})
	require.Equal(t, "198.51.100.8", trust.clientSource(req))

	req = requestFrom("10.0.0.1:8080", map[string]string{"X-Real-IP": "not-an-ip"})
	require.Equal(t, "10.0.0.1", trust.clientSource(req))
}

func TestClientSourceCapsForwardedForChain(t *testing.T) {
	trust := newProxyTrust([]string{"10.0.0.1"})
	parts := make([]string, maxForwardedForAddrs+1)
	for i := range parts {
		parts[i] = "198.51.100.10"
	}
	req := requestFrom("10.0.0.1:8000", map[string]string{"X-Forwarded-For": strings.Join(parts, ",")})
	require.Equal(t, "10.0.0.1", trust.clientSource(req))
}

func TestRateLimitSpoofedRealIP(t *testing.T) {
	limiter := newRateLimiter(60, 2)
	trust := newProxyTrust(nil)

	for i := 0; i < 2; i++ {
		req := requestFrom("10.1.1.1:9000", map[string]string{"X-Real-IP": fmt.Sprintf("198.51.100.%d", i)})
		require.True(t, limiter.allow(trust.clientSource(req)), "request %d", i)
	}
	req := requestFrom("10.1.1.1:9000", map[string]string{"X-Real-IP": "198.51.100.250"})
	require.False(t, limiter.allow(trust.clientSource(req)))
	require.Equal(t, 1, limiter.tracked())
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	limiter := newRateLimiter(60, 1)
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.allow("198.51.100.1"))
	require.True(t, limiter.allow("198.51.100.2"))
	require.Equal(t, 2, limiter.tracked())

	// Within the sweep interval idle entries are left in place.
	now = now.Add(30 * time.Second)
	require.True(t, limiter.allow("198.51.100.3"))
	require.Equal(t, 3, limiter.tracked())

	now = now.Add(limiterIdleTTL + time.Second)
	require.True(t, limiter.allow("198.51.100.4"))
	require.Equal(t, 1, limiter.tracked())
}

func TestRateLimiterEvictsOldestWhenFull(t *testing.T) {
	limiter := newRateLimiter(60, 1)
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }

	for i := 0; i < maxTrackedClients; i++ {
		now = now.Add(time.Millisecond)
		limiter.allow(fmt.Sprintf("client-%d", i))
	}
	require.Equal(t, maxTrackedClients, limiter.tracked())

	now = now.Add(time.Millisecond)
	require.True(t, limiter.allow("late-client"))
	require.Equal(t, maxTrackedClients, limiter.tracked())

	// The first client was evicted and starts with a full bucket.
	require.True(t, limiter.allow("client-0"))
}
