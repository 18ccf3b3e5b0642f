// Package dom holds read-only helpers for pulling data out of rendered markup
// that we do not control. Every helper degrades to an empty result instead of
// failing.
package dom

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Resolve turns ref into an absolute URL against base. It returns "" when ref
// is empty or cannot be parsed.
func Resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

// Attr returns the attribute of the first node in sel resolved against base.
func Attr(sel *goquery.Selection, base *url.URL, name string) string {
	v, ok := sel.First().Attr(name)
	if !ok {
		return ""
	}
	return Resolve(base, v)
}

// CollectLinks gathers every hyperlink target under sel as absolute URLs,
// de-duplicated and in document order.
func CollectLinks(sel *goquery.Selection, base *url.URL) (links []string) {
	seen := make(map[string]struct{})
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("link collection aborted", "panic", r, "collected", len(links))
		}
	}()

	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := Attr(a, base, "href")
		if href == "" {
			return
		}
		if _, ok := seen[href]; ok {
			return
		}
		seen[href] = struct{}{}
		links = append(links, href)
	})
	return links
}

// SignificantTextNodes returns the text nodes under sel that carry
// non-whitespace content, in document order. Callers rely on the order for
// positional heuristics such as "first is the display name".
func SignificantTextNodes(sel *goquery.Selection) (nodes []*html.Node) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("text node collection aborted", "panic", r)
		}
	}()

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if strings.TrimSpace(c.Data) != "" {
					nodes = append(nodes, c)
				}
			case html.ElementNode:
				walk(c)
			}
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return nodes
}

// TextAt returns the trimmed text of nodes[i], or "" when out of range.
func TextAt(nodes []*html.Node, i int) string {
	if i < 0 || i >= len(nodes) {
		return ""
	}
	return strings.TrimSpace(nodes[i].Data)
}

// ElementWithOwnText returns the first element under sel (document order) with
// a direct text child exactly equal to text.
func ElementWithOwnText(sel *goquery.Selection, text string) *goquery.Selection {
	var found *html.Node
	sel.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		n := s.Get(0)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode && c.Data == text {
				found = n
				return false
			}
		}
		return true
	})
	if found == nil {
		return nil
	}
	return sel.FindNodes(found)
}

// Within reports whether n lies inside (or is) one of the nodes in root.
func Within(root *goquery.Selection, n *html.Node) bool {
	if root == nil || n == nil {
		return false
	}
	for _, r := range root.Nodes {
		for p := n; p != nil; p = p.Parent {
			if p == r {
				return true
			}
		}
	}
	return false
}
