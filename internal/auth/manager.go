package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/ibeckermayer/xreader/internal/browser"
)

// LoginURL is where the interactive login starts
const LoginURL = "https://x.com/login"

// Manager handles X.com authentication
type Manager struct {
	cookieStore *CookieStore
	homeURL     string
	logger      *slog.Logger

	// LoginTimeout bounds how long the user has to finish logging in.
	LoginTimeout time.Duration
}

// NewManager creates a new auth manager. Reaching homeURL with an
// auth_token cookie counts as a successful login.
func NewManager(cookieStore *CookieStore, homeURL string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cookieStore:  cookieStore,
		homeURL:      homeURL,
		logger:       logger.With("component", "auth"),
		LoginTimeout: 5 * time.Minute,
	}
}

// IsAuthenticated checks if we have valid stored credentials
func (m *Manager) IsAuthenticated() bool {
	return m.cookieStore.IsValid()
}

// Login opens a visible browser window for the user to log in to X.com and
// stores the resulting session cookies.
func (m *Manager) Login(ctx context.Context) error {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		browser.Options(false, chromedp.Flag("start-maximized", true))...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	m.logger.Info("waiting for login", "url", LoginURL, "timeout", m.LoginTimeout)
	if err := chromedp.Run(browserCtx, chromedp.Navigate(LoginURL)); err != nil {
		return fmt.Errorf("failed to navigate to login page: %w", err)
	}

	if err := m.waitForLogin(browserCtx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cookies, err := extractCookies(browserCtx)
	if err != nil {
		return fmt.Errorf("failed to extract cookies: %w", err)
	}

	if err := m.cookieStore.Save(cookies); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}

	m.logger.Info("login successful, cookies saved", "count", len(cookies))
	return nil
}

// waitForLogin polls until the user has successfully logged in
func (m *Manager) waitForLogin(ctx context.Context) error {
	timeout := time.After(m.LoginTimeout)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return fmt.Errorf("login timeout exceeded")
		case <-ticker.C:
			var url string
			if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
				continue
			}
			if !m.isHome(url) {
				continue
			}
			cookies, err := extractCookies(ctx)
			if err != nil {
				continue
			}
			if hasAuthToken(cookies) {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Manager) isHome(url string) bool {
	url = strings.TrimSuffix(url, "/")
	return url == strings.TrimSuffix(m.homeURL, "/") || url == "https://twitter.com/home"
}

func hasAuthToken(cookies []*network.Cookie) bool {
	for _, c := range cookies {
		if c.Name == "auth_token" && c.Value != "" {
			return true
		}
	}
	return false
}

// extractCookies gets all cookies from the browser
func extractCookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie

	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)

	return cookies, err
}

// Logout clears stored credentials
func (m *Manager) Logout() error {
	m.logger.Info("clearing stored cookies")
	return m.cookieStore.Clear()
}

// GetCookies returns the stored cookies for use in a browser session
func (m *Manager) GetCookies() ([]*network.Cookie, error) {
	return m.cookieStore.GetXCookies()
}
