package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/ibeckermayer/xreader/internal/types"
)

const timeLayout = "Jan 2 15:04"

// renderSummary prints a summary as plain text
func renderSummary(w io.Writer, s *types.Summary) {
	fmt.Fprintf(w, "Your timeline from %s to %s\n",
		s.TimeTo.Local().Format(timeLayout), s.TimeFrom.Local().Format(timeLayout))

	if len(s.TextItems) == 0 {
		fmt.Fprintln(w, "\nNothing worth your time.")
	}
	for i, item := range s.TextItems {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, item.Text)
		for _, p := range item.RelatedPosts {
			fmt.Fprintf(w, "   - %s: %s\n", p.AuthorName, excerpt(p.TextContent, 80))
			if p.CanonicalURL != "" {
				fmt.Fprintf(w, "     %s\n", p.CanonicalURL)
			}
		}
	}

	if len(s.MediaItems) == 0 {
		return
	}
	fmt.Fprintln(w, "\nMedia")
	for _, group := range s.MediaItems {
		fmt.Fprintf(w, "\n  %s (%d)\n", group.AuthorName, len(group.Images))
		for _, img := range group.Images {
			fmt.Fprintf(w, "    %s\n", img.ImageURL)
			if img.PostURL != "" {
				fmt.Fprintf(w, "      from %s\n", img.PostURL)
			}
		}
	}
}

// excerpt collapses whitespace and cuts s to at most n runes
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
