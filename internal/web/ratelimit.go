package web

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/JonMunkholm/kcportal/internal/core"
)

// errRateLimited is mapped to RATE001.
var errRateLimited = rateError{}

type rateError struct{}

func (rateError) Error() string { return "rate limit exceeded" }

// rateLimiter is a token bucket per client IP. Idle visitors expire from the
// cache after a few windows.
type rateLimiter struct {
	visitors *cache.Cache
	limit    rate.Limit
	burst    int
	window   time.Duration
}

// newRateLimiter allows n requests per window per IP, refilled evenly.
func newRateLimiter(n int, window time.Duration) *rateLimiter {
	if n <= 0 {
		n = 1
	}
	return &rateLimiter{
		visitors: cache.New(3*window, window),
		limit:    rate.Every(window / time.Duration(n)),
		burst:    n,
		window:   window,
	}
}

// allow consumes a token for ip and reports whether one was available.
func (rl *rateLimiter) allow(ip string) bool {
	v, ok := rl.visitors.Get(ip)
	if !ok {
		lim := rate.NewLimiter(rl.limit, rl.burst)
		if err := rl.visitors.Add(ip, lim, cache.DefaultExpiration); err != nil {
			// Lost the race; use the stored limiter.
			v, _ = rl.visitors.Get(ip)
		} else {
			v = lim
		}
	} else {
		rl.visitors.SetDefault(ip, v)
	}
	lim, ok := v.(*rate.Limiter)
	if !ok {
		return true
	}
	return lim.Allow()
}

// middleware rejects requests over the limit with 429.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window/time.Second)))
			respondError(w, r, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the request's client address without port. RemoteAddr
// has already been rewritten by TrustedRealIP for trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// requestMeta attaches the client address and user agent for audit entries.
func requestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithRequestMeta(r.Context(), core.RequestMeta{
			IPAddress: clientIP(r),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
