package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/ibeckermayer/xreader/internal/config"
)

// requiredCookies must all be present for the home timeline to load
// logged in.
var requiredCookies = []string{"auth_token", "ct0"}

// CookieStore keeps the captured X session on disk
type CookieStore struct {
	path string
}

// StoredCookies is the on-disk session. ExpiresAt is the earliest expiry
// among the required cookies.
type StoredCookies struct {
	Cookies    []*network.Cookie `json:"cookies"`
	CapturedAt time.Time         `json:"captured_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

// DefaultCookieStorePath is cookies.json next to the config file
func DefaultCookieStorePath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cookies.json"), nil
}

// Save writes the session readable by the owner only
func (cs *CookieStore) Save(cookies []*network.Cookie) error {
	if err := os.MkdirAll(filepath.Dir(cs.path), 0700); err != nil {
		return fmt.Errorf("failed to create cookie dir: %w", err)
	}

	data, err := json.MarshalIndent(StoredCookies{
		Cookies:    cookies,
		CapturedAt: time.Now(),
		ExpiresAt:  sessionExpiry(cookies),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}
	if err := os.WriteFile(cs.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write cookies: %w", err)
	}
	return nil
}

// Load reads the stored session. A missing file wraps fs.ErrNotExist.
func (cs *CookieStore) Load() (*StoredCookies, error) {
	data, err := os.ReadFile(cs.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	var stored StoredCookies
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode cookies %s: %w", cs.path, err)
	}
	return &stored, nil
}

// IsValid reports whether a complete, unexpired session is stored
func (cs *CookieStore) IsValid() bool {
	stored, err := cs.Load()
	if err != nil {
		return false
	}
	if stored.ExpiresAt.IsZero() || time.Now().After(stored.ExpiresAt) {
		return false
	}

	have := make(map[string]bool, len(stored.Cookies))
	for _, c := range stored.Cookies {
		have[c.Name] = true
	}
	for _, name := range requiredCookies {
		if !have[name] {
			return false
		}
	}
	return true
}

// Clear forgets the session. Clearing an empty store is not an error.
func (cs *CookieStore) Clear() error {
	if err := os.Remove(cs.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove cookies: %w", err)
	}
	return nil
}

// GetXCookies returns the stored cookies that belong to X
func (cs *CookieStore) GetXCookies() ([]*network.Cookie, error) {
	stored, err := cs.Load()
	if err != nil {
		return nil, err
	}

	var out []*network.Cookie
	for _, c := range stored.Cookies {
		if isXDomain(c.Domain) {
			out = append(out, c)
		}
	}
	return out, nil
}

// sessionExpiry is the earliest expiry of the required cookies. Session
// cookies (no expiry) are ignored.
func sessionExpiry(cookies []*network.Cookie) time.Time {
	var earliest time.Time
	for _, c := range cookies {
		if !isRequired(c.Name) || c.Expires <= 0 {
			continue
		}
		exp := time.Unix(int64(c.Expires), 0)
		if earliest.IsZero() || exp.Before(earliest) {
			earliest = exp
		}
	}
	return earliest
}

func isRequired(name string) bool {
	for _, n := range requiredCookies {
		if n == name {
			return true
		}
	}
	return false
}

// isXDomain matches x.com, twitter.com and their subdomains
func isXDomain(domain string) bool {
	domain = strings.TrimPrefix(domain, ".")
	for _, d := range []string{"x.com", "twitter.com"} {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}
