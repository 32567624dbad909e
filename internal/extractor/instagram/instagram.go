// Package instagram implements extraction strategies for Instagram posts,
// reels and IGTV.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/youming-ai/snatch-sub000/internal/domain"
	"github.com/youming-ai/snatch-sub000/internal/extractor"
	"github.com/youming-ai/snatch-sub000/internal/retry"
)

const (
	oembedEndpoint = "https://graph.facebook.com/v18.0/instagram_oembed"
	embedPath      = "/embed/captioned/"
)

// OEmbedStrategy resolves post metadata through the official oEmbed
// endpoint. It needs an app access token and only ever yields the
// thumbnail, so it sits behind strategies that can find direct video links.
type OEmbedStrategy struct {
	fetcher     extractor.Fetcher
	accessToken string
}

// NewOEmbedStrategy creates the strategy. The access token is required by
// the endpoint; register the strategy only when one is configured.
func NewOEmbedStrategy(fetcher extractor.Fetcher, accessToken string) *OEmbedStrategy {
	return &OEmbedStrategy{fetcher: fetcher, accessToken: accessToken}
}

func (s *OEmbedStrategy) Name() string {
	return "instagram-oembed"
}

func (s *OEmbedStrategy) Requires() []extractor.Capability {
	return []extractor.Capability{extractor.CapabilityNetwork}
}

type oembedResponse struct {
	ThumbnailURL string `json:"thumbnail_url"`
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
}

func (s *OEmbedStrategy) Extract(ctx context.Context, target extractor.Target) ([]domain.MediaItem, error) {
	endpoint := fmt.Sprintf("%s?url=%s&access_token=%s",
		oembedEndpoint, url.QueryEscape(target.URL), url.QueryEscape(s.accessToken))

	body, err := s.fetcher.Fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var resp oembedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, retry.Wrap(retry.KindParsing,
			fmt.Errorf("failed to decode oembed response: %w", err))
	}

	if resp.ThumbnailURL == "" {
		return nil, nil
	}

	title := resp.Title
	if title == "" && resp.AuthorName != "" {
		title = "Post by " + resp.AuthorName
	}

	return []domain.MediaItem{
		{
			ID:           fmt.Sprintf("instagram-%s-0", target.ContentID),
			Kind:         domain.MediaImage,
			SourceURL:    target.URL,
			DownloadURL:  resp.ThumbnailURL,
			ThumbnailURL: resp.ThumbnailURL,
			Title:        title,
			Platform:     domain.PlatformInstagram,
			Quality:      domain.QualitySD,
		},
	}, nil
}

// videoURLPattern matches the JSON-escaped video_url field embedded in the
// captioned embed page markup.
var (
	videoURLPattern  = regexp.MustCompile(`"video_url"\s*:\s*"([^"]+)"`)
	displayPattern   = regexp.MustCompile(`"display_url"\s*:\s*"([^"]+)"`)
	ogImagePattern   = regexp.MustCompile(`<meta\s+property="og:image"\s+content="([^"]+)"`)
	titleTagPattern  = regexp.MustCompile(`<title>([^<]*)</title>`)
	escapedSlashRepl = strings.NewReplacer(`\/`, `/`, `\u0026`, `&`, `&amp;`, `&`)
)

// EmbedScrapeStrategy fetches the public captioned embed page and digs the
// media URLs out of its markup. No credentials needed, but the markup is
// not a contract and the strategy fails soft when it changes.
type EmbedScrapeStrategy struct {
	fetcher extractor.Fetcher
}

func NewEmbedScrapeStrategy(fetcher extractor.Fetcher) *EmbedScrapeStrategy {
	return &EmbedScrapeStrategy{fetcher: fetcher}
}

func (s *EmbedScrapeStrategy) Name() string {
	return "instagram-embed-scrape"
}

func (s *EmbedScrapeStrategy) Requires() []extractor.Capability {
	return []extractor.Capability{extractor.CapabilityNetwork}
}

func (s *EmbedScrapeStrategy) Extract(ctx context.Context, target extractor.Target) ([]domain.MediaItem, error) {
	embedURL := strings.TrimSuffix(target.URL, "/") + embedPath

	body, err := s.fetcher.Fetch(ctx, embedURL)
	if err != nil {
		return nil, err
	}

	page := string(body)

	thumbnail := ""
	if m := ogImagePattern.FindStringSubmatch(page); m != nil {
		thumbnail = escapedSlashRepl.Replace(m[1])
	}

	title := ""
	if m := titleTagPattern.FindStringSubmatch(page); m != nil {
		title = strings.TrimSpace(m[1])
	}

	if m := videoURLPattern.FindStringSubmatch(page); m != nil {
		return []domain.MediaItem{
			{
				ID:           fmt.Sprintf("instagram-%s-0", target.ContentID),
				Kind:         domain.MediaVideo,
				SourceURL:    target.URL,
				DownloadURL:  escapedSlashRepl.Replace(m[1]),
				ThumbnailURL: thumbnail,
				Title:        title,
				Platform:     domain.PlatformInstagram,
				Quality:      domain.QualityUnknown,
			},
		}, nil
	}

	if m := displayPattern.FindStringSubmatch(page); m != nil {
		return []domain.MediaItem{
			{
				ID:           fmt.Sprintf("instagram-%s-0", target.ContentID),
				Kind:         domain.MediaImage,
				SourceURL:    target.URL,
				DownloadURL:  escapedSlashRepl.Replace(m[1]),
				ThumbnailURL: thumbnail,
				Title:        title,
				Platform:     domain.PlatformInstagram,
				Quality:      domain.QualitySD,
			},
		}, nil
	}

	return nil, nil
}
