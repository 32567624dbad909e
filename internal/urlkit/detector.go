package urlkit

import (
	"regexp"
	"strings"

	"github.com/youming-ai/snatch-sub000/internal/domain"
)

// platformHosts maps each platform to the host suffixes it owns. Host sets
// are disjoint, so first match wins without ambiguity.
var platformHosts = []struct {
	platform domain.Platform
	hosts    []string
}{
	{domain.PlatformInstagram, []string{"instagram.com"}},
	{domain.PlatformTikTok, []string{"tiktok.com"}},
	{domain.PlatformTwitter, []string{"twitter.com", "x.com"}},
}

// contentPatterns holds the ordered path patterns per platform. The first
// capturing match wins.
var contentPatterns = map[domain.Platform][]*regexp.Regexp{
	domain.PlatformInstagram: {
		regexp.MustCompile(`^/reel/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`^/reels/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`^/p/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`^/tv/([A-Za-z0-9_-]+)`),
	},
	domain.PlatformTikTok: {
		regexp.MustCompile(`^/@[^/]+/video/(\d+)`),
		regexp.MustCompile(`^/@[^/]+/photo/(\d+)`),
		regexp.MustCompile(`^/v/(\d+)`),
		regexp.MustCompile(`^/t/([A-Za-z0-9]+)`),
	},
	domain.PlatformTwitter: {
		regexp.MustCompile(`^/[^/]+/status(?:es)?/(\d+)`),
		regexp.MustCompile(`^/i/status/(\d+)`),
	},
}

// shortLinkHosts are TikTok redirect hosts whose whole path is the content
// code (e.g. vm.tiktok.com/ZM8abcdef).
var shortLinkHosts = map[string]bool{
	"vm.tiktok.com": true,
	"vt.tiktok.com": true,
}

var shortLinkPattern = regexp.MustCompile(`^/([A-Za-z0-9]+)/?$`)

// Detect maps a normalized URL to a supported platform. Returns false when
// the host belongs to no supported platform.
func Detect(n NormalizedURL) (domain.Platform, bool) {
	for _, entry := range platformHosts {
		for _, host := range entry.hosts {
			if n.Host == host || strings.HasSuffix(n.Host, "."+host) {
				return entry.platform, true
			}
		}
	}
	return "", false
}

// ExtractContentID applies the platform's ordered path patterns and returns
// the first capturing match. Returns false when no pattern matches, which
// the orchestrator treats as a terminal validation failure.
func ExtractContentID(n NormalizedURL, platform domain.Platform) (string, bool) {
	if platform == domain.PlatformTikTok && shortLinkHosts[n.Host] {
		if m := shortLinkPattern.FindStringSubmatch(n.Path); m != nil {
			return m[1], true
		}
	}

	for _, pattern := range contentPatterns[platform] {
		if m := pattern.FindStringSubmatch(n.Path); m != nil && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}
