// Package crawler drives a live timeline to reveal more posts and folds the
// parsed results into the accumulated collection.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ibeckermayer/xreader/internal/scraper"
	"github.com/ibeckermayer/xreader/internal/timeline"
	"github.com/ibeckermayer/xreader/internal/types"
)

var (
	// ErrNoTimeline is returned by a Page when the timeline container is not
	// in the document.
	ErrNoTimeline = errors.New("timeline container not found")

	// ErrTeardownTimeout means a superseded crawl did not stop in time.
	ErrTeardownTimeout = errors.New("previous crawl did not stop in time")
)

// Page is the live, externally rendered timeline.
type Page interface {
	// Children returns the keys of the timeline container's children in
	// document order.
	Children(ctx context.Context) ([]string, error)
	// Render captures the markup of the given children.
	Render(ctx context.Context, keys []string) ([]scraper.RenderedNode, error)
	// ScrollIntoView scrolls the child with the given key into the viewport.
	ScrollIntoView(ctx context.Context, key string) error
}

// StopFunc is evaluated against the accumulated posts after every step.
type StopFunc func(posts []types.Post) bool

// Reason tells why a crawl ended.
type Reason string

const (
	ReasonStopped    Reason = "stop_condition"
	ReasonCancelled  Reason = "cancelled"
	ReasonNoTimeline Reason = "no_timeline"
	ReasonExhausted  Reason = "exhausted"
	ReasonFailed     Reason = "failed"
)

// Result summarizes one crawl.
type Result struct {
	Reason Reason
	Steps  int
	Added  int
	// Err is set when Reason is ReasonFailed. It has already been logged.
	Err error
}

// Options tune the crawl cadence
type Options struct {
	// SettleDelay is how long to wait after scrolling before reading the DOM.
	SettleDelay time.Duration
	// TeardownTimeout bounds how long a new crawl waits for the old one to stop.
	TeardownTimeout time.Duration
	// IdleSteps ends a crawl after this many consecutive steps reveal nothing.
	// Zero disables the check.
	IdleSteps int
}

// DefaultOptions returns the cadence used against X.com
func DefaultOptions() Options {
	return Options{
		SettleDelay:     200 * time.Millisecond,
		TeardownTimeout: 10 * time.Second,
		IdleSteps:       25,
	}
}

// Controller runs at most one crawl at a time. Starting a crawl cancels the
// one in flight and waits for it to tear down first.
type Controller struct {
	page   Page
	parser *scraper.Parser
	posts  *timeline.Collection
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	active *run
}

type run struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a controller that writes into posts
func New(page Page, parser *scraper.Parser, posts *timeline.Collection, opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		page:   page,
		parser: parser,
		posts:  posts,
		opts:   opts,
		logger: logger.With("component", "crawler"),
	}
}

// Posts returns the collection the controller writes into.
func (c *Controller) Posts() *timeline.Collection {
	return c.posts
}

// Loading reports whether a crawl is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Cancel signals the crawl in flight, if any, to stop. It does not wait.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.cancel()
	}
}

// Crawl reveals and parses posts until stop returns true, the crawl is
// cancelled, or the timeline disappears. Step failures end the crawl and are
// reported in the Result. An error is returned only when the crawl could not
// start.
func (c *Controller) Crawl(ctx context.Context, stop StopFunc) (Result, error) {
	if _, err := c.page.Children(ctx); err != nil {
		if errors.Is(err, ErrNoTimeline) {
			c.logger.Debug("timeline not rendered yet")
			return Result{Reason: ReasonNoTimeline}, nil
		}
		return Result{}, fmt.Errorf("failed to read timeline: %w", err)
	}

	r, err := c.acquire(ctx)
	if err != nil {
		return Result{}, err
	}
	defer c.release(r)

	c.logger.Debug("crawl started", "posts", c.posts.Len())
	res := c.loop(r.ctx, stop)
	c.logger.Info("crawl finished",
		"reason", res.Reason,
		"steps", res.Steps,
		"added", res.Added,
		"posts", c.posts.Len(),
	)
	return res, nil
}

// acquire cancels any crawl in flight, waits for its teardown, then registers
// a new one.
func (c *Controller) acquire(ctx context.Context) (*run, error) {
	for {
		c.mu.Lock()
		prev := c.active
		if prev == nil {
			runCtx, cancel := context.WithCancel(ctx)
			r := &run{ctx: runCtx, cancel: cancel, done: make(chan struct{})}
			c.active = r
			c.mu.Unlock()
			return r, nil
		}
		c.mu.Unlock()

		c.logger.Debug("cancelling crawl in flight")
		prev.cancel()

		timer := time.NewTimer(c.opts.TeardownTimeout)
		select {
		case <-prev.done:
			timer.Stop()
		case <-timer.C:
			return nil, ErrTeardownTimeout
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

func (c *Controller) release(r *run) {
	r.cancel()
	c.mu.Lock()
	if c.active == r {
		c.active = nil
	}
	c.mu.Unlock()
	close(r.done)
}

func (c *Controller) loop(ctx context.Context, stop StopFunc) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = c.fail(ctx, res, fmt.Errorf("crawl step panicked: %v", p))
		}
	}()

	var marker string
	idle := 0

	for {
		if stop != nil && stop(c.posts.Snapshot()) {
			res.Reason = ReasonStopped
			return res
		}
		if ctx.Err() != nil {
			res.Reason = ReasonCancelled
			return res
		}

		if marker != "" {
			if err := c.page.ScrollIntoView(ctx, marker); err != nil {
				return c.fail(ctx, res, err)
			}
			if !sleep(ctx, c.opts.SettleDelay) {
				res.Reason = ReasonCancelled
				return res
			}
		}

		keys, err := c.page.Children(ctx)
		if err != nil {
			return c.fail(ctx, res, err)
		}
		res.Steps++

		fresh := keys
		if marker != "" {
			fresh = keys[indexOf(keys, marker)+1:]
		}
		if len(fresh) == 0 {
			idle++
			if c.opts.IdleSteps > 0 && idle >= c.opts.IdleSteps {
				res.Reason = ReasonExhausted
				return res
			}
			continue
		}
		idle = 0

		nodes, err := c.page.Render(ctx, fresh)
		if err != nil {
			return c.fail(ctx, res, err)
		}
		posts, err := c.parser.ParseBatch(ctx, nodes)
		if err != nil {
			return c.fail(ctx, res, err)
		}
		res.Added += c.posts.Merge(posts)
		marker = keys[len(keys)-1]
	}
}

// fail classifies a step error. Errors after cancellation and a vanished
// timeline are normal stops.
func (c *Controller) fail(ctx context.Context, res Result, err error) Result {
	switch {
	case ctx.Err() != nil:
		res.Reason = ReasonCancelled
	case errors.Is(err, ErrNoTimeline):
		res.Reason = ReasonNoTimeline
	default:
		c.logger.Error("crawl step failed", "error", err, "steps", res.Steps)
		res.Reason = ReasonFailed
		res.Err = err
	}
	return res
}

// DefaultPollInterval is used by WaitForTimeline when no interval is given.
const DefaultPollInterval = 300 * time.Millisecond

// WaitForTimeline polls until the timeline container is rendered. A
// non-positive interval falls back to DefaultPollInterval.
func (c *Controller) WaitForTimeline(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, err := c.page.Children(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNoTimeline) {
			c.logger.Debug("timeline probe failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// indexOf returns the position of key in keys, or -1.
func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
