// Package ratelimit guards the AI-assisted endpoints with a per-user sliding
// window. This limiter protects an expensive external call; it is unrelated
// to the reward policy's per-project prompt cap. Exhausted capacity rejects
// with a retry-after hint rather than queueing.
package ratelimit

import (
	"context"
	"time"
)

// Fixed limiter configuration. Per user, across all content endpoints.
const (
	DefaultWindow = time.Minute
	DefaultLimit  = 25
)

// Result is the outcome of a limiter check. RetryAfter is populated only
// when OK is false, rounded up to whole seconds, minimum one second.
type Result struct {
	OK         bool  `json:"ok"`
	RetryAfter int64 `json:"retryAfter,omitempty"` // seconds
}

// Limiter is the per-user sliding window contract. Implementations may keep
// state in process (single instance) or in a shared store (multi instance).
type Limiter interface {
	Check(ctx context.Context, userID string) (Result, error)
}

// retryAfterSeconds converts the wait until the oldest timestamp leaves the
// window into a caller-facing hint.
func retryAfterSeconds(oldest, now time.Time, window time.Duration) int64 {
	wait := oldest.Add(window).Sub(now)
	secs := int64((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
