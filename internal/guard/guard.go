// Package guard implements the duplicate-call guard: a best-effort,
// advisory suppressor for repeated expensive generation calls inside a short
// time window. It is keyed by a fingerprint of the call and is explicitly not
// a billing-enforcement mechanism.
package guard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadchat_backend/platform/logger"

	"github.com/cespare/xxhash/v2"
)

// fingerprintPrefixLen is how much of the message content participates in the
// fingerprint. Two calls that agree on this prefix, the feature flags, and the
// model selector count as "the same call".
const fingerprintPrefixLen = 120

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RetryAfterMs returns the remaining wait in milliseconds.
func (d Decision) RetryAfterMs() int64 {
	return d.RetryAfter.Milliseconds()
}

// Guard consults a Store before allowing an expensive call. Failures in the
// backing store fail open: the guard is advisory, so a broken store must not
// take the chat path down with it.
type Guard struct {
	store  Store
	window time.Duration
	log    *logger.Logger
}

// New creates a guard over the given store and suppression window.
func New(store Store, window time.Duration, log *logger.Logger) *Guard {
	if window <= 0 {
		window = 10 * time.Second
	}
	return &Guard{store: store, window: window, log: log}
}

// Fingerprint derives the duplicate-suppression key for a call: an xxhash of
// the content prefix, the sorted feature flags, and the model selector.
func Fingerprint(content string, flags []string, model string) string {
	prefix := content
	if len(prefix) > fingerprintPrefixLen {
		prefix = prefix[:fingerprintPrefixLen]
	}

	h := xxhash.New()
	_, _ = h.WriteString(prefix)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strings.Join(flags, ","))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(model)
	return fmt.Sprintf("%016x", h.Sum64())
}

// ShouldAllow records the fingerprint and allows the call when no live entry
// exists; otherwise it denies and reports the remaining wait.
func (g *Guard) ShouldAllow(ctx context.Context, fingerprint string) Decision {
	allowed, retryAfter, err := g.store.Acquire(ctx, fingerprint, g.window)
	if err != nil {
		if g.log != nil {
			g.log.Error("guard store unavailable, allowing call", "error", err)
		}
		return Decision{Allowed: true}
	}

	if !allowed && g.log != nil {
		g.log.DuplicateSuppressed(fingerprint, retryAfter.Milliseconds())
	}

	return Decision{Allowed: allowed, RetryAfter: retryAfter}
}

// Window returns the configured suppression window.
func (g *Guard) Window() time.Duration {
	return g.window
}
