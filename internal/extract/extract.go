package extract

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Anchor is the call that wraps the feed inside the portal page.
const Anchor = "display_update("

var blobPattern = regexp.MustCompile(`display_update\((.*?),"Top"`)

// ErrAnchorNotFound means the page carries no feed.
var ErrAnchorNotFound = errors.New("feed anchor not found")

// Blob isolates the feed from page text and reverses its escaping: \xNN
// sequences become %NN, then the result is percent-decoded.
func Blob(page string) (string, error) {
	m := blobPattern.FindStringSubmatch(page)
	if m == nil {
		return "", ErrAnchorNotFound
	}
	return Unescape(m[1])
}

// Unescape reverses the portal's \xNN escaping.
func Unescape(s string) (string, error) {
	decoded, err := url.PathUnescape(strings.ReplaceAll(s, `\x`, "%"))
	if err != nil {
		return "", fmt.Errorf("unescape feed: %w", err)
	}
	return decoded, nil
}

// ScriptBlob looks for the feed inside <script> elements of an HTML page and
// falls back to scanning the raw text when no script carries the anchor.
func ScriptBlob(page string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(page))
	inScript := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return Blob(page)
		case html.StartTagToken:
			name, _ := z.TagName()
			inScript = atom.Lookup(name) == atom.Script
		case html.EndTagToken:
			inScript = false
		case html.TextToken:
			if !inScript {
				continue
			}
			text := string(z.Text())
			if !strings.Contains(text, Anchor) {
				continue
			}
			if blob, err := Blob(text); err == nil {
				return blob, nil
			}
		}
	}
}

// Escape is the inverse of Unescape: characters outside the unreserved set
// are written as \xNN.
func Escape(blob string) string {
	var b strings.Builder
	b.Grow(len(blob) * 2)
	for i := 0; i < len(blob); i++ {
		c := blob[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, `\x%02X`, c)
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}

// Page wraps an escaped feed the way the portal does.
func Page(blob string) string {
	return "<html><head><title>Suivi</title></head><body><script>\n" +
		Anchor + Escape(blob) + `,"Top",0);` +
		"\n</script></body></html>"
}
