// Package browser runs the X.com home timeline in Chrome via chromedp and
// exposes it as a crawlable page.
package browser

import "github.com/chromedp/chromedp"

// DefaultUserAgent is a realistic Chrome user agent
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options returns chromedp allocator options with anti-bot-detection measures.
// Every browser the app starts goes through here; extra options are appended
// last so callers can override.
func Options(headless bool, extra ...chromedp.ExecAllocatorOption) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),

		// X.com checks navigator.webdriver
		chromedp.Flag("disable-blink-features", "AutomationControlled"),

		chromedp.UserAgent(DefaultUserAgent),
		chromedp.WindowSize(1920, 1080),

		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	if headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}

	return append(opts, extra...)
}
