// Package tiktok implements extraction strategies for TikTok videos and
// photo posts.
package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/youming-ai/snatch-sub000/internal/domain"
	"github.com/youming-ai/snatch-sub000/internal/extractor"
	"github.com/youming-ai/snatch-sub000/internal/retry"
)

const (
	resolverEndpoint = "https://www.tikwm.com/api/"
	oembedEndpoint   = "https://www.tiktok.com/oembed"
)

// ResolverStrategy queries a public resolver API that returns watermark-free
// download links. It is the preferred path: direct CDN URLs in both HD and
// SD when available.
type ResolverStrategy struct {
	fetcher extractor.Fetcher
}

func NewResolverStrategy(fetcher extractor.Fetcher) *ResolverStrategy {
	return &ResolverStrategy{fetcher: fetcher}
}

func (s *ResolverStrategy) Name() string {
	return "tiktok-resolver"
}

func (s *ResolverStrategy) Requires() []extractor.Capability {
	return []extractor.Capability{extractor.CapabilityNetwork}
}

type resolverResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		ID     string   `json:"id"`
		Title  string   `json:"title"`
		Cover  string   `json:"cover"`
		Play   string   `json:"play"`
		HDPlay string   `json:"hdplay"`
		Size   int64    `json:"size"`
		HDSize int64    `json:"hd_size"`
		Images []string `json:"images"`
	} `json:"data"`
}

func (s *ResolverStrategy) Extract(ctx context.Context, target extractor.Target) ([]domain.MediaItem, error) {
	endpoint := fmt.Sprintf("%s?url=%s&hd=1", resolverEndpoint, url.QueryEscape(target.URL))

	body, err := s.fetcher.Fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var resp resolverResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, retry.Wrap(retry.KindParsing,
			fmt.Errorf("failed to decode resolver response: %w", err))
	}
	if resp.Code != 0 {
		return nil, retry.Wrap(retry.KindPlatform,
			fmt.Errorf("resolver rejected request: %s", resp.Msg))
	}

	contentID := resp.Data.ID
	if contentID == "" {
		contentID = target.ContentID
	}

	var items []domain.MediaItem

	if resp.Data.HDPlay != "" {
		items = append(items, domain.MediaItem{
			ID:           fmt.Sprintf("tiktok-%s-hd", contentID),
			Kind:         domain.MediaVideo,
			SourceURL:    target.URL,
			DownloadURL:  resp.Data.HDPlay,
			ThumbnailURL: resp.Data.Cover,
			Title:        resp.Data.Title,
			SizeHint:     resp.Data.HDSize,
			Platform:     domain.PlatformTikTok,
			Quality:      domain.QualityHD,
		})
	}

	if resp.Data.Play != "" {
		items = append(items, domain.MediaItem{
			ID:           fmt.Sprintf("tiktok-%s-sd", contentID),
			Kind:         domain.MediaVideo,
			SourceURL:    target.URL,
			DownloadURL:  resp.Data.Play,
			ThumbnailURL: resp.Data.Cover,
			Title:        resp.Data.Title,
			SizeHint:     resp.Data.Size,
			Platform:     domain.PlatformTikTok,
			Quality:      domain.QualitySD,
		})
	}

	// Photo posts carry a slideshow instead of a video.
	for i, img := range resp.Data.Images {
		items = append(items, domain.MediaItem{
			ID:           fmt.Sprintf("tiktok-%s-img%d", contentID, i),
			Kind:         domain.MediaImage,
			SourceURL:    target.URL,
			DownloadURL:  img,
			ThumbnailURL: resp.Data.Cover,
			Title:        resp.Data.Title,
			Platform:     domain.PlatformTikTok,
			Quality:      domain.QualitySD,
		})
	}

	return items, nil
}

// OEmbedStrategy hits TikTok's public oEmbed endpoint. It cannot produce a
// direct video link, only the cover image, so it serves as a weak fallback
// before the synthetic one.
type OEmbedStrategy struct {
	fetcher extractor.Fetcher
}

func NewOEmbedStrategy(fetcher extractor.Fetcher) *OEmbedStrategy {
	return &OEmbedStrategy{fetcher: fetcher}
}

func (s *OEmbedStrategy) Name() string {
	return "tiktok-oembed"
}

func (s *OEmbedStrategy) Requires() []extractor.Capability {
	return []extractor.Capability{extractor.CapabilityNetwork}
}

type oembedResponse struct {
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (s *OEmbedStrategy) Extract(ctx context.Context, target extractor.Target) ([]domain.MediaItem, error) {
	endpoint := fmt.Sprintf("%s?url=%s", oembedEndpoint, url.QueryEscape(target.URL))

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

	return []domain.MediaItem{
		{
			ID:           fmt.Sprintf("tiktok-%s-0", target.ContentID),
			Kind:         domain.MediaImage,
			SourceURL:    target.URL,
			DownloadURL:  resp.ThumbnailURL,
			ThumbnailURL: resp.ThumbnailURL,
			Title:        resp.Title,
			Platform:     domain.PlatformTikTok,
			Quality:      domain.QualitySD,
		},
	}, nil
}
