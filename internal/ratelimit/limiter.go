// Package ratelimit implements fixed-window rate limiting on the expiring
// store: one atomic counter per key, expiry set only on the increment that
// creates the window. The window never slides; the known burst at window
// boundaries is accepted in exchange for O(1) state per key. A store outage
// fails open so an infrastructure problem never blocks all traffic.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chat-gateway/internal/fallback"
	"chat-gateway/internal/store"
)

// Rule is a limit of Limit requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// ParseRule parses "30/60s" style rule strings (limit, slash, window duration).
func ParseRule(s string) (Rule, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "/", 2)
	if len(parts) != 2 {
		return Rule{}, fmt.Errorf("ratelimit: invalid rule %q", s)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || limit <= 0 {
		return Rule{}, fmt.Errorf("ratelimit: invalid limit in rule %q", s)
	}
	window, err := time.ParseDuration(strings.TrimSpace(parts[1]))
	if err != nil || window <= 0 {
		return Rule{}, fmt.Errorf("ratelimit: invalid window in rule %q", s)
	}
	return Rule{Limit: limit, Window: window}, nil
}

// Result is the outcome of a single Check.
type Result struct {
	// Limited reports whether the request exceeds the rule.
	Limited bool
	// Remaining is how many requests are left in the current window.
	Remaining int
	// ResetIn is the time until the window expires; a retry-after hint.
	ResetIn time.Duration
}

// Limiter counts requests per key in the expiring store.
type Limiter struct {
	store store.Store
	fb    *fallback.Policy
}

// New returns a Limiter on the given store.
func New(s store.Store, fb *fallback.Policy) *Limiter {
	return &Limiter{store: s, fb: fb}
}

// Check increments the counter for key and evaluates it against rule. The
// TTL is set only when the increment transitions the counter to 1; later
// increments in the same window must not touch it, or the window would
// slide and change the limiting semantics. On store failure Check fails
// open: the request is allowed and the outage is logged once here.
func (l *Limiter) Check(ctx context.Context, key string, rule Rule) Result {
	n, err := l.store.Incr(ctx, "ratelimit:"+key)
	if err != nil {
		l.fb.Degrade("incr "+key, err)
		return Result{Limited: false, Remaining: rule.Limit, ResetIn: rule.Window}
	}
	if n == 1 {
		if err := l.store.Expire(ctx, "ratelimit:"+key, rule.Window); err != nil {
			l.fb.Degrade("expire "+key, err)
		}
	}

	remaining := rule.Limit - int(n)
	if remaining < 0 {
		remaining = 0
	}
	resetIn := rule.Window
	if ttl, err := l.store.TTL(ctx, "ratelimit:"+key); err == nil && ttl > 0 {
		resetIn = ttl
	}
	return Result{
		Limited:   n > int64(rule.Limit),
		Remaining: remaining,
		ResetIn:   resetIn,
	}
}
