package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// SessionConfig describes how to open the home timeline
type SessionConfig struct {
	Headless bool
	HomeURL  string
	// Cookies are injected before navigation so the page opens logged in.
	Cookies []*network.Cookie
}

// Session owns one Chrome instance with the home timeline loaded in a tab.
type Session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	homeURL string
	logger  *slog.Logger
}

// Open starts Chrome, injects cookies and navigates to the home timeline.
// The browser lives until ctx ends or Close is called.
// The timeline itself may render later; use Timeline.Children or the
// crawler's WaitForTimeline to find out.
func Open(ctx context.Context, cfg SessionConfig, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "browser")

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, Options(cfg.Headless)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:     browserCtx,
		homeURL: cfg.HomeURL,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		logger: logger,
	}

	if err := InjectCookies(browserCtx, cfg.Cookies); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to inject cookies: %w", err)
	}

	logger.Info("opening timeline", "url", cfg.HomeURL, "headless", cfg.Headless)
	if err := chromedp.Run(browserCtx, chromedp.Navigate(cfg.HomeURL)); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to load %s: %w", cfg.HomeURL, err)
	}

	return s, nil
}

// Reload navigates the tab to the home timeline again so it shows the
// newest posts.
func (s *Session) Reload(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	s.logger.Debug("reloading timeline", "url", s.homeURL)
	if err := chromedp.Run(runCtx, chromedp.Navigate(s.homeURL)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to reload %s: %w", s.homeURL, err)
	}
	return nil
}

// Timeline returns the crawlable view of the open tab
func (s *Session) Timeline() *Timeline {
	return &Timeline{browserCtx: s.ctx, logger: s.logger}
}

// Close shuts the browser down
func (s *Session) Close() {
	s.cancel()
}

// InjectCookies sets cookies in the browser context
func InjectCookies(ctx context.Context, cookies []*network.Cookie) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				err := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly).
					WithSameSite(c.SameSite).
					Do(ctx)

				if err != nil {
					return err
				}
			}
			return nil
		}),
	)
}
