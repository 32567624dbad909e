// Package sanitize normalizes extraction results before they leave the
// engine: suspect links are dropped, free text is cleaned, and gaps are
// filled with deterministic placeholders. The pass is idempotent, so
// results can be sanitized again (for example after a cache round trip)
// without changing.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/youming-ai/snatch-sub000/internal/domain"
)

const maxTitleLength = 200

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	jsSchemePattern   = regexp.MustCompile(`(?i)javascript:`)
	eventAttrPattern  = regexp.MustCompile(`(?i)\bon[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Sanitizer cleans media items for delivery.
type Sanitizer struct{}

// New creates a sanitizer.
func New() *Sanitizer {
	return &Sanitizer{}
}

// Sanitize returns a cleaned copy of the items. Items with download URLs
// that are neither http(s) nor the open-original sentinel are dropped, and
// duplicate IDs keep their first occurrence. The input slice is not
// modified.
func (s *Sanitizer) Sanitize(items []domain.MediaItem) []domain.MediaItem {
	out := make([]domain.MediaItem, 0, len(items))
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		if !validDownloadURL(item.DownloadURL) {
			continue
		}
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true

		item.Title = cleanTitle(item.Title)
		if item.ThumbnailURL == "" || !isHTTP(item.ThumbnailURL) {
			item.ThumbnailURL = domain.PlaceholderThumbnail
		}

		out = append(out, item)
	}

	return out
}

// validDownloadURL accepts http(s) links and the sentinel. A download URL
// is never invented here; an item without a usable one is discarded.
func validDownloadURL(u string) bool {
	return u == domain.SentinelOpenOriginal || isHTTP(u)
}

func isHTTP(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// cleanTitle strips markup and script fragments, collapses whitespace and
// bounds the length. Empty results get the placeholder title.
func cleanTitle(title string) string {
	title = htmlTagPattern.ReplaceAllString(title, "")
	title = jsSchemePattern.ReplaceAllString(title, "")
	title = eventAttrPattern.ReplaceAllString(title, "")
	title = whitespacePattern.ReplaceAllString(title, " ")
	title = strings.TrimSpace(title)

	if title == "" {
		return domain.PlaceholderTitle
	}

	runes := []rune(title)
	if len(runes) > maxTitleLength {
		title = strings.TrimSpace(string(runes[:maxTitleLength]))
	}

	return title
}
