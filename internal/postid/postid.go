// Package postid derives stable identifiers for scraped posts.
package postid

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// prefixLen is how many leading characters of the post text take part in the key.
const prefixLen = 5

// Hash returns a compact base-36 hash of s. It is the classic 31x rolling
// hash over UTF-16 code units with 32-bit wraparound, so identical input
// always produces identical output across runs and platforms.
func Hash(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

// Key builds the identity of a post from its timestamp, the account it is
// attributed to and a short prefix of its text.
func Key(createdAt, attribution, text string) string {
	var sb strings.Builder
	sb.WriteString(createdAt)
	sb.WriteString(strings.ReplaceAll(attribution, " ", ""))
	sb.WriteString(strings.TrimSpace(prefix(text, prefixLen)))
	return Hash(sb.String())
}

func prefix(s string, n int) string {
	units := utf16.Encode([]rune(s))
	if len(units) <= n {
		return s
	}
	return string(utf16.Decode(units[:n]))
}
