package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ateliermoda/moda-backend/api/responses"
	pkgerrors "github.com/ateliermoda/moda-backend/pkg/errors"
	"github.com/ateliermoda/moda-backend/pkg/logger"
)

// RateLimitStore is the counter backend, satisfied by the redis client.
type RateLimitStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy defines the throttling parameters for a traffic surface.
// The per-email limit tracks credential-stuffing against one account across
// many source addresses; the per-IP limit tracks one address spraying many.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

// NewAuthRateLimitPolicy builds a policy with the supplied window and limits.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		trimmed = "auth"
	}
	return AuthRateLimitPolicy{
		name:       trimmed,
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// AuthRateLimit enforces the policy's per-IP and per-email counters. A nil
// store disables the middleware entirely.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		l := &limiter{policy: policy, store: store, logg: logg}
		return http.HandlerFunc(l.handle(next))
	}
}

type limiter struct {
	policy AuthRateLimitPolicy
	store  RateLimitStore
	logg   *logger.Logger
}

func (l *limiter) handle(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if l.policy.ipLimit > 0 {
			ip := clientIP(r)
			if done := l.check(ctx, w, "ip:"+l.policy.name+":"+ip, l.policy.ipLimit, map[string]any{"scope": "ip", "ip": ip}); done {
				return
			}
		}

		if l.policy.emailLimit > 0 {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			// the handler downstream still needs the body
			r.Body = io.NopCloser(bytes.NewReader(body))

			if email := extractEmail(body); email != "" {
				hash := hashValue(email)
				if done := l.check(ctx, w, "email:"+l.policy.name+":"+hash, l.policy.emailLimit, map[string]any{"scope": "email", "email_hash": hash}); done {
					return
				}
			}
		}

		next.ServeHTTP(w, r)
	}
}

// check increments the counter and writes the 429 when over limit; the
// boolean reports whether a response was already written.
func (l *limiter) check(ctx context.Context, w http.ResponseWriter, key string, limit int, fields map[string]any) bool {
	count, err := l.store.IncrWithTTL(ctx, "rl:"+key, l.policy.window)
	if err != nil {
		responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return true
	}
	if count <= int64(limit) {
		return false
	}

	if l.logg != nil {
		fields["policy"] = l.policy.name
		fields["attempts"] = count
		fields["limit"] = limit
		fields["window_seconds"] = int(l.policy.window.Seconds())
		l.logg.Warn(l.logg.WithFields(ctx, fields), "auth.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
	return true
}

// clientIP trusts the proxy headers Heroku-style deployments set before
// falling back to the socket address.
func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// extractEmail pulls the normalized email out of a login/register payload.
// Unparseable bodies yield "" and are left for the handler to reject.
func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
