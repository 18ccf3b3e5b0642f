package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ibeckermayer/xreader/internal/app"
	"github.com/ibeckermayer/xreader/internal/auth"
	"github.com/ibeckermayer/xreader/internal/browser"
	"github.com/ibeckermayer/xreader/internal/config"
	"github.com/ibeckermayer/xreader/internal/store"
)

// signalContext is cancelled on Ctrl-C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newAuthManager(c *config.Config) (*auth.Manager, error) {
	path, err := auth.DefaultCookieStorePath()
	if err != nil {
		return nil, err
	}
	return auth.NewManager(auth.NewCookieStore(path), c.Scraping.HomeURL, logger), nil
}

func openStore(c *config.Config) (*store.Store, error) {
	path, err := c.DBPath()
	if err != nil {
		return nil, err
	}
	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history at %s: %w", path, err)
	}
	return st, nil
}

// runtime is a logged-in browser session wired into an App
type runtime struct {
	app     *app.App
	session *browser.Session
	store   *store.Store
}

func (r *runtime) Close() {
	if r.store != nil {
		r.store.Close()
	}
	if r.session != nil {
		r.session.Close()
	}
}

// openRuntime starts the browser with the stored login. The summarizer is
// only required when needSummarizer is set.
func openRuntime(ctx context.Context, c *config.Config, needSummarizer bool) (*runtime, error) {
	mgr, err := newAuthManager(c)
	if err != nil {
		return nil, err
	}
	if !mgr.IsAuthenticated() {
		return nil, errors.New("not logged in to X, run `xreader login` first")
	}
	cookies, err := mgr.GetCookies()
	if err != nil {
		return nil, fmt.Errorf("failed to load cookies: %w", err)
	}

	cache, err := store.DefaultCache()
	if err != nil {
		return nil, err
	}

	sum, err := app.NewSummarizer(c, cache, logger)
	if err != nil {
		if needSummarizer {
			return nil, err
		}
		logger.Debug("summarizer unavailable", "error", err)
		sum = nil
	}

	rt := &runtime{}
	rt.store, err = openStore(c)
	if err != nil {
		return nil, err
	}

	rt.session, err = browser.Open(ctx, browser.SessionConfig{
		Headless: c.Scraping.Headless,
		HomeURL:  c.Scraping.HomeURL,
		Cookies:  cookies,
	}, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.app, err = app.New(app.Deps{
		Config:     c,
		Page:       rt.session.Timeline(),
		Summarizer: sum,
		Store:      rt.store,
		Cache:      cache,
		Logger:     logger,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}
