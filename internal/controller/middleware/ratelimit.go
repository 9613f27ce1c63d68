// Package middleware contains HTTP middleware for the controller.
package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter limits requests per client address with a token bucket.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	proxies []netip.Prefix

	limiters  sync.Map // client address -> *cachedLimiter
	lastSweep atomic.Int64
	now       func() time.Time
}

// Option configures a RateLimiter.
type Option func(*RateLimiter)

// WithTTL sets how long an idle client's bucket is kept.
func WithTTL(ttl time.Duration) Option {
	return func(rl *RateLimiter) {
		rl.ttl = ttl
	}
}

// WithTrustedProxies makes the limiter key requests arriving from these
// addresses or CIDRs by their X-Forwarded-For client instead. Unparseable
// entries are ignored.
func WithTrustedProxies(proxies ...string) Option {
	return func(rl *RateLimiter) {
		for _, p := range proxies {
			if prefix, err := parsePrefix(strings.TrimSpace(p)); err == nil {
				rl.proxies = append(rl.proxies, prefix)
			}
		}
	}
}

// NewRateLimiter creates a limiter allowing perSecond requests with the
// given burst. perSecond <= 0 means unlimited.
func NewRateLimiter(perSecond float64, burst int, opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		limit: rate.Limit(perSecond),
		burst: burst,
		ttl:   5 * time.Minute,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(rl)
	}
	rl.lastSweep.Store(rl.now().UnixNano())
	return rl
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// RateLimit=0 means unlimited
			if rl.limit > 0 && !rl.get(rl.clientKey(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt atomic.Int64 // unix nanos, pushed forward on every use
}

func (rl *RateLimiter) get(client string) *rate.Limiter {
	now := rl.now()
	rl.sweep(now)

	v, ok := rl.limiters.Load(client)
	if ok {
		cached := v.(*cachedLimiter)
		if now.UnixNano() < cached.expiresAt.Load() {
			cached.expiresAt.Store(now.Add(rl.ttl).UnixNano())
			return cached.limiter
		}
		// expired, need to create new
	}

	burst := rl.burst
	if burst <= 0 {
		burst = 1
	}
	fresh := &cachedLimiter{limiter: rate.NewLimiter(rl.limit, burst)}
	fresh.expiresAt.Store(now.Add(rl.ttl).UnixNano())
	if ok {
		rl.limiters.Store(client, fresh)
		return fresh.limiter
	}
	actual, _ := rl.limiters.LoadOrStore(client, fresh)
	return actual.(*cachedLimiter).limiter
}

// sweep drops idle buckets at most once per ttl.
func (rl *RateLimiter) sweep(now time.Time) {
	last := rl.lastSweep.Load()
	if now.UnixNano()-last < int64(rl.ttl) || !rl.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	rl.limiters.Range(func(key, v any) bool {
		if now.UnixNano() >= v.(*cachedLimiter).expiresAt.Load() {
			rl.limiters.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiter) size() int {
	n := 0
	rl.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// clientKey is the peer address, or, when the peer is a trusted proxy, the
// right-most X-Forwarded-For entry that is not itself a trusted proxy.
func (rl *RateLimiter) clientKey(r *http.Request) string {
	peer := ClientAddr(r)
	if !rl.trusted(peer) {
		return peer
	}
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !rl.trusted(hop) {
			return hop
		}
	}
	return peer
}

func (rl *RateLimiter) trusted(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	ip = ip.Unmap()
	for _, p := range rl.proxies {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

func parsePrefix(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		return netip.ParsePrefix(s)
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// ClientAddr returns the host part of the request's peer address.
func ClientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
