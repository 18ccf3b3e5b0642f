// Package app wires the crawler, summarizer and history store into the
// summary generation flow.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/ibeckermayer/xreader/internal/config"
	"github.com/ibeckermayer/xreader/internal/crawler"
	"github.com/ibeckermayer/xreader/internal/scraper"
	"github.com/ibeckermayer/xreader/internal/store"
	"github.com/ibeckermayer/xreader/internal/summary"
	"github.com/ibeckermayer/xreader/internal/timeline"
	"github.com/ibeckermayer/xreader/internal/types"
)

var (
	// ErrNoSummarizer is returned by GenerateSummary when none is configured.
	ErrNoSummarizer = errors.New("no summarizer configured")
	// ErrNoPage is returned by crawl operations on an App built without a page.
	ErrNoPage = errors.New("no timeline page attached")
	// ErrNoCache is returned by SummarizeCached when there is no step cache.
	ErrNoCache = errors.New("no step cache configured")
)

// Page is the live timeline plus feed-mode detection
type Page interface {
	crawler.Page
	IsForYou(ctx context.Context) (bool, error)
}

// Deps are the collaborators an App is built from. Only Config is required.
// Without a page the App can only summarize cached crawls; without a
// summarizer it can only crawl.
type Deps struct {
	Config     *config.Config
	Page       Page
	Summarizer summary.Summarizer
	Store      *store.Store
	Cache      *store.Cache
	Logger     *slog.Logger
}

// App holds the application state.
type App struct {
	mu sync.RWMutex

	// Mutable fields - use getSnapshot() for concurrent access.
	config     *config.Config
	summarizer summary.Summarizer

	page    Page
	crawler *crawler.Controller
	store   *store.Store
	cache   *store.Cache
	logger  *slog.Logger
	now     func() time.Time

	generating atomic.Int32
}

// snapshot holds fields that may be replaced by ReloadConfig.
type snapshot struct {
	config     *config.Config
	summarizer summary.Summarizer
}

// getSnapshot returns a snapshot of mutable fields under read lock.
func (a *App) getSnapshot() snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return snapshot{
		config:     a.config,
		summarizer: a.summarizer,
	}
}

// New creates a new App instance.
func New(d Deps) (*App, error) {
	if d.Config == nil {
		return nil, errors.New("app needs a config")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		config:     d.Config,
		summarizer: d.Summarizer,
		page:       d.Page,
		store:      d.Store,
		cache:      d.Cache,
		logger:     logger.With("component", "app"),
		now:        time.Now,
	}
	if d.Page != nil {
		parser, err := scraper.NewParser(scraper.DefaultBaseURL, logger)
		if err != nil {
			return nil, err
		}
		a.crawler = crawler.New(d.Page, parser, timeline.NewCollection(), crawlOptions(d.Config), logger)
	}
	return a, nil
}

func crawlOptions(cfg *config.Config) crawler.Options {
	return crawler.Options{
		SettleDelay:     cfg.Scraping.SettleDelay.Duration,
		TeardownTimeout: cfg.Scraping.TeardownTimeout.Duration,
		IdleSteps:       cfg.Scraping.IdleSteps,
	}
}

// NewSummarizer builds the summarizer the config asks for. Anthropic
// exchanges are written to cache when it is non-nil.
func NewSummarizer(cfg *config.Config, cache *store.Cache, logger *slog.Logger) (summary.Summarizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Summary.Provider {
	case config.ProviderEndpoint:
		if cfg.Summary.Endpoint == "" {
			return nil, fmt.Errorf("summary.endpoint is not set (or set %s)", config.EnvEndpoint)
		}
		return summary.NewEndpointSummarizer(cfg.Summary.Endpoint, cfg.Summary.Timeout.Duration, logger), nil
	case config.ProviderAnthropic:
		if cfg.Summary.APIKey == "" {
			return nil, fmt.Errorf("summary.api_key is not set (or set %s)", config.EnvAPIKey)
		}
		s := summary.NewAnthropicSummarizer(cfg.Summary.APIKey, cfg.Summary.Model, logger,
			option.WithRequestTimeout(cfg.Summary.Timeout.Duration),
		)
		if cache != nil {
			s.OnExchange = func(e summary.Exchange) {
				if _, err := cache.SaveLLMExchange(store.LLMExchange{
					Timestamp: time.Now(),
					Provider:  e.Provider,
					Model:     e.Model,
					Prompt:    e.Prompt,
					Response:  e.Response,
				}); err != nil {
					logger.Warn("failed to cache LLM exchange", "error", err)
				}
			}
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown summary provider: %s", cfg.Summary.Provider)
	}
}

// Posts returns the accumulated timeline posts
func (a *App) Posts() []types.Post {
	if a.crawler == nil {
		return nil
	}
	return a.crawler.Posts().Snapshot()
}

// Reset cancels any crawl in flight and forgets the accumulated posts.
// Call it after the page has been reloaded.
func (a *App) Reset() {
	if a.crawler == nil {
		return
	}
	a.crawler.Cancel()
	a.crawler.Posts().Reset()
}

// Loading reports whether a generation or crawl is in flight
func (a *App) Loading() bool {
	return a.generating.Load() > 0 || (a.crawler != nil && a.crawler.Loading())
}

// LoadInitial waits for the timeline to render, then collects the first
// page of posts.
func (a *App) LoadInitial(ctx context.Context) (crawler.Result, error) {
	if a.crawler == nil {
		return crawler.Result{}, ErrNoPage
	}
	s := a.getSnapshot()

	if err := a.crawler.WaitForTimeline(ctx, s.config.Scraping.PollInterval.Duration); err != nil {
		return crawler.Result{}, fmt.Errorf("timeline never appeared: %w", err)
	}
	return a.crawler.Crawl(ctx, crawler.StopAfter(s.config.Scraping.InitialPosts))
}

// Crawl collects posts until stop, without summarizing them
func (a *App) Crawl(ctx context.Context, stop crawler.StopFunc) (crawler.Result, error) {
	if a.crawler == nil {
		return crawler.Result{}, ErrNoPage
	}
	return a.crawler.Crawl(ctx, stop)
}

// GenerateSummary crawls back days (or up to the for-you cap), sends the
// collected posts to the summarizer and returns the assembled summary.
// Crawl problems are logged and the summary is built from whatever was
// collected; summarizer failures are returned.
func (a *App) GenerateSummary(ctx context.Context, days int) (*types.Summary, error) {
	a.generating.Add(1)
	defer a.generating.Add(-1)

	s := a.getSnapshot()
	if s.summarizer == nil {
		return nil, ErrNoSummarizer
	}
	if a.crawler == nil {
		return nil, ErrNoPage
	}
	if days <= 0 {
		days = s.config.Summary.Days
	}

	start := a.now()
	cutoff := start.Add(-time.Duration(days) * 24 * time.Hour)

	mode := summary.ModeChronological
	forYou, err := a.page.IsForYou(ctx)
	if err != nil {
		a.logger.Warn("failed to detect feed mode, assuming chronological", "error", err)
	} else if forYou {
		mode = summary.ModeForYou
	}

	a.logger.Info("generating summary", "mode", mode, "days", days, "cutoff", cutoff)

	res, err := a.crawler.Crawl(ctx, StopCondition(s.config.Scraping, mode, cutoff))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("crawl did not run, summarizing collected posts", "error", err)
	} else if res.Reason == crawler.ReasonCancelled && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	posts := a.crawler.Posts().Snapshot()
	a.saveStep(store.StepPosts, posts)

	return a.summarize(ctx, s, posts, summary.Window{
		Mode:        mode,
		GeneratedAt: start,
		Cutoff:      cutoff,
	})
}

// SummarizeCached summarizes a crawl saved in the step cache instead of the
// live page. An empty path picks the newest cached crawl. A cached crawl
// does not record its feed mode, so the window ends days back.
func (a *App) SummarizeCached(ctx context.Context, path string, days int) (*types.Summary, error) {
	a.generating.Add(1)
	defer a.generating.Add(-1)

	s := a.getSnapshot()
	if s.summarizer == nil {
		return nil, ErrNoSummarizer
	}
	if a.cache == nil {
		return nil, ErrNoCache
	}
	if days <= 0 {
		days = s.config.Summary.Days
	}

	var (
		posts []types.Post
		err   error
	)
	if path == "" {
		posts, path, err = store.LoadLatestStepOutput[[]types.Post](a.cache, store.StepPosts)
	} else {
		posts, err = store.LoadStepOutput[[]types.Post](path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cached posts: %w", err)
	}
	a.logger.Info("summarizing cached crawl", "path", path, "posts", len(posts))

	start := a.now()
	return a.summarize(ctx, s, posts, summary.Window{
		Mode:        summary.ModeChronological,
		GeneratedAt: start,
		Cutoff:      start.Add(-time.Duration(days) * 24 * time.Hour),
	})
}

// summarize sends posts to the summarizer, bounded by summary.timeout, and
// assembles and persists the result.
func (a *App) summarize(ctx context.Context, s snapshot, posts []types.Post, w summary.Window) (*types.Summary, error) {
	payload := summary.BuildPayload(posts)
	a.saveStep(store.StepPayload, payload)

	sctx := ctx
	if timeout := s.config.Summary.Timeout.Duration; timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	items, err := s.summarizer.Summarize(sctx, preferences(s.config), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize %d posts: %w", len(payload), err)
	}
	a.saveStep(store.StepItems, items)

	sum := summary.Build(items, posts, w)
	sum.ID = uuid.NewString()

	a.persist(ctx, posts, sum)
	a.saveStep(store.StepSummary, sum)

	a.logger.Info("summary ready",
		"id", sum.ID,
		"posts", len(posts),
		"items", len(sum.TextItems),
		"media_groups", len(sum.MediaItems),
	)
	return sum, nil
}

// StopCondition is the crawl stop rule for one generation: a hard cap,
// then either the for-you cap or reaching the cutoff.
func StopCondition(cfg config.ScrapingConfig, mode summary.Mode, cutoff time.Time) crawler.StopFunc {
	if mode == summary.ModeForYou {
		return crawler.AnyOf(crawler.StopAfter(cfg.MaxPosts), crawler.StopAfter(cfg.ForYouMaxPosts))
	}
	return crawler.AnyOf(crawler.StopAfter(cfg.MaxPosts), crawler.StopAtCutoff(cutoff))
}

// preferences falls back to the defaults for any blank statement
func preferences(cfg *config.Config) types.Preferences {
	prefs := cfg.Preferences
	if prefs.Interests == "" {
		prefs.Interests = config.DefaultInterests
	}
	if prefs.NotInterests == "" {
		prefs.NotInterests = config.DefaultNotInterests
	}
	return prefs
}

func (a *App) persist(ctx context.Context, posts []types.Post, sum *types.Summary) {
	if a.store == nil {
		return
	}
	if err := a.store.SavePosts(ctx, posts); err != nil {
		a.logger.Warn("failed to save posts", "error", err)
	}
	if err := a.store.SaveSummary(ctx, sum); err != nil {
		a.logger.Warn("failed to save summary", "error", err)
	}
}

func (a *App) saveStep(step store.StepName, data any) {
	if a.cache == nil {
		return
	}
	path, err := store.SaveStepOutput(a.cache, step, data)
	if err != nil {
		a.logger.Warn("failed to cache step output", "step", step, "error", err)
		return
	}
	a.logger.Debug("cached step output", "step", step, "path", path)
}

// ReloadConfig swaps in cfg and a summarizer built from it. The crawl
// cadence of the running controller is unchanged.
func (a *App) ReloadConfig(cfg *config.Config) error {
	sum, err := NewSummarizer(cfg, a.cache, a.logger)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.config = cfg
	a.summarizer = sum
	a.mu.Unlock()

	a.logger.Info("configuration reloaded")
	return nil
}

// Config returns the active configuration
func (a *App) Config() *config.Config {
	return a.getSnapshot().config
}
