package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/chromedp/chromedp"

	"github.com/ibeckermayer/xreader/internal/crawler"
	"github.com/ibeckermayer/xreader/internal/scraper"
)

// keyAttr tags timeline children so they can be found again across steps.
const keyAttr = "data-xr-key"

// Timeline implements crawler.Page on a live chromedp tab
type Timeline struct {
	browserCtx context.Context
	logger     *slog.Logger
}

var _ crawler.Page = (*Timeline)(nil)

type childrenResult struct {
	Found bool     `json:"found"`
	Keys  []string `json:"keys"`
}

// Children tags every child of the timeline's node list with a stable key
// and returns the keys in document order.
func (t *Timeline) Children(ctx context.Context) ([]string, error) {
	js := fmt.Sprintf(`(function() {
		const root = document.querySelector(%s);
		if (!root || !root.firstElementChild) return {found: false, keys: []};
		window.__xrSeq = window.__xrSeq || 0;
		const keys = [];
		for (const el of root.firstElementChild.children) {
			if (!el.hasAttribute(%q)) el.setAttribute(%q, 'n' + (++window.__xrSeq));
			keys.push(el.getAttribute(%q));
		}
		return {found: true, keys: keys};
	})()`, jsString(scraper.TimelineContainer), keyAttr, keyAttr, keyAttr)

	var res childrenResult
	if err := t.run(ctx, chromedp.Evaluate(js, &res)); err != nil {
		return nil, fmt.Errorf("failed to list timeline children: %w", err)
	}
	if !res.Found {
		return nil, crawler.ErrNoTimeline
	}
	return res.Keys, nil
}

// Render captures outer HTML and the computed bottom border of each keyed
// child's first element. Children that are gone by now are skipped.
func (t *Timeline) Render(ctx context.Context, keys []string) ([]scraper.RenderedNode, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	js := fmt.Sprintf(`(function(keys) {
		const out = [];
		for (const k of keys) {
			const el = document.querySelector('[%s="' + k + '"]');
			if (!el) continue;
			for (const card of el.querySelectorAll(%s)) {
				const inner = card.querySelector('a[href]');
				if (inner) card.setAttribute(%s, inner.href);
			}
			const first = el.firstElementChild;
			const width = first ? getComputedStyle(first).borderBottomWidth : '';
			out.push({key: k, html: el.outerHTML, borderBottomWidth: width});
		}
		return out;
	})(%s)`, keyAttr, jsString(scraper.PostLinkCard), jsString(scraper.LinkCardTarget), jsValue(keys))

	var nodes []scraper.RenderedNode
	if err := t.run(ctx, chromedp.Evaluate(js, &nodes)); err != nil {
		return nil, fmt.Errorf("failed to render timeline children: %w", err)
	}
	return nodes, nil
}

// ScrollIntoView scrolls the keyed child into view, or to the bottom of the
// page when it has been recycled out of the document.
func (t *Timeline) ScrollIntoView(ctx context.Context, key string) error {
	js := fmt.Sprintf(`(function(k) {
		const el = document.querySelector('[%s="' + k + '"]');
		if (el) { el.scrollIntoView(); return true; }
		window.scrollTo(0, document.body.scrollHeight);
		return false;
	})(%s)`, keyAttr, jsString(key))

	var found bool
	if err := t.run(ctx, chromedp.Evaluate(js, &found)); err != nil {
		return fmt.Errorf("failed to scroll timeline: %w", err)
	}
	if !found {
		t.logger.Debug("scroll marker gone, scrolled to bottom", "key", key)
	}
	return nil
}

// IsForYou reports whether the selected feed tab is "For you".
func (t *Timeline) IsForYou(ctx context.Context) (bool, error) {
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%s))
		.some(a => (a.textContent || '').includes(%s))`,
		jsString(scraper.ForYouTab), jsString(scraper.ForYouTabLabel))

	var forYou bool
	if err := t.run(ctx, chromedp.Evaluate(js, &forYou)); err != nil {
		return false, fmt.Errorf("failed to read feed tab: %w", err)
	}
	return forYou, nil
}

// run executes actions in the tab, aborting when either ctx or the browser
// ends.
func (t *Timeline) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(t.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func jsValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
