package crawler

import (
	"time"

	"github.com/ibeckermayer/xreader/internal/types"
)

// StopAfter stops once at least n posts have been accumulated.
func StopAfter(n int) StopFunc {
	return func(posts []types.Post) bool {
		return len(posts) >= n
	}
}

// StopAtCutoff stops once an original, non-thread post at or before cutoff
// has been seen. Reshares and thread replies are skipped because the
// timeline shows them out of chronological order.
func StopAtCutoff(cutoff time.Time) StopFunc {
	return func(posts []types.Post) bool {
		for _, p := range posts {
			if ReachedCutoff(p, cutoff) {
				return true
			}
		}
		return false
	}
}

// ReachedCutoff reports whether p is an in-order post not newer than cutoff.
func ReachedCutoff(p types.Post, cutoff time.Time) bool {
	if !p.IsOriginal() || p.HasReplies {
		return false
	}
	t := p.Time()
	return !t.IsZero() && !t.After(cutoff)
}

// AnyOf stops when any of fns does.
func AnyOf(fns ...StopFunc) StopFunc {
	return func(posts []types.Post) bool {
		for _, fn := range fns {
			if fn != nil && fn(posts) {
				return true
			}
		}
		return false
	}
}
