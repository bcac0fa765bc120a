// Package cleaner reduces a fetched page down to the plain text handed to
// the LLM-grounded extraction fallback, isolating the main content before
// any of it reaches a prompt.
package cleaner

import (
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	readability "github.com/go-shiori/go-readability"
)

// PageText reduces rawHTML to a plain-text view suitable for an LLM prompt:
// readability first isolates the main article-like content (dropping nav,
// footer, and script/style boilerplate), then html-to-markdown flattens the
// remaining structure into text. Either stage falls back to its input on
// error, so PageText always returns something usable.
func PageText(rawHTML, sourceURL string) string {
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL(sourceURL))
	content := rawHTML
	if err == nil && strings.TrimSpace(article.Content) != "" {
		content = article.Content
	}

	markdown, err := htmltomarkdown.ConvertString(content)
	if err != nil || strings.TrimSpace(markdown) == "" {
		return content
	}
	return markdown
}

func parsedURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
