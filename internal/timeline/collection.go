// Package timeline holds the accumulated, de-duplicated set of posts gathered
// during an ingestion session.
package timeline

import (
	"sync"

	"github.com/ibeckermayer/xreader/internal/types"
)

// Merge appends incoming posts whose IDs are not yet in acc. A post whose ID
// is already present replaces the stored content but keeps its position.
// Applying the same batch twice yields the same result as applying it once.
func Merge(acc, incoming []types.Post) []types.Post {
	index := make(map[string]int, len(acc)+len(incoming))
	out := make([]types.Post, len(acc), len(acc)+len(incoming))
	copy(out, acc)
	for i, p := range out {
		if _, ok := index[p.ID]; !ok {
			index[p.ID] = i
		}
	}
	for _, p := range incoming {
		if i, ok := index[p.ID]; ok {
			out[i] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}

// Collection is the accumulated store shared by the crawler (single writer)
// and summary generation (readers).
type Collection struct {
	mu    sync.RWMutex
	posts []types.Post
	index map[string]int
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{index: make(map[string]int)}
}

// Merge folds posts into the collection and returns how many new IDs were added.
func (c *Collection) Merge(posts []types.Post) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for _, p := range posts {
		if i, ok := c.index[p.ID]; ok {
			c.posts[i] = p
			continue
		}
		c.index[p.ID] = len(c.posts)
		c.posts = append(c.posts, p)
		added++
	}
	return added
}

// Snapshot returns a point-in-time copy of the posts in first-seen order.
func (c *Collection) Snapshot() []types.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.Post, len(c.posts))
	copy(out, c.posts)
	return out
}

// Len returns the number of distinct posts.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.posts)
}

// Reset empties the collection for a new session.
func (c *Collection) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = nil
	c.index = make(map[string]int)
}
