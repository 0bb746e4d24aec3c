// File: internal/browser/content.go
package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// normalizeURL forces https. Scheme-less URLs get https:// prepended and
// plain http is upgraded; every site the agent targets serves TLS and the
// upgrade avoids mixed-scheme redirects mid-run.
func normalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(u, "https://"):
		return u
	case strings.HasPrefix(u, "http://"):
		return "https://" + strings.TrimPrefix(u, "http://")
	default:
		return "https://" + u
	}
}

// visibleText extracts the human-visible text from an HTML document,
// skipping script, style and noscript subtrees. Lines are trimmed and
// blank lines collapsed so the model sees dense, readable text.
func visibleText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		// Parse only fails on reader errors; strings.Reader never errors.
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimRight(sb.String(), "\n")
}

// truncateRunes caps s at limit runes, appending a marker when content was
// dropped. Rune-based so multi-byte text is never cut mid-character.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + fmt.Sprintf("\n... (truncated, %d characters omitted)", len(runes)-limit)
}

// visibleTextXPath builds the fallback lookup used when a click selector
// matches nothing as CSS. Quotes in the needle are handled with concat()
// so arbitrary link text stays expressible.
func visibleTextXPath(text string) string {
	return fmt.Sprintf(`//*[self::a or self::button or self::input or self::span or self::div][contains(normalize-space(.), %s)]`, xpathLiteral(text))
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
