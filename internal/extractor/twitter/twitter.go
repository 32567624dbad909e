// Package twitter implements extraction strategies for posts on Twitter/X.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/youming-ai/snatch-sub000/internal/domain"
	"github.com/youming-ai/snatch-sub000/internal/extractor"
	"github.com/youming-ai/snatch-sub000/internal/retry"
)

const (
	syndicationEndpoint = "https://cdn.syndication.twimg.com/tweet-result"
	apiEndpoint         = "https://api.twitter.com/2/tweets"
)

// SyndicationStrategy reads the public embed syndication API. No
// credentials required; works for any tweet that allows embedding.
type SyndicationStrategy struct {
	fetcher extractor.Fetcher
}

func NewSyndicationStrategy(fetcher extractor.Fetcher) *SyndicationStrategy {
	return &SyndicationStrategy{fetcher: fetcher}
}

func (s *SyndicationStrategy) Name() string {
	return "twitter-syndication"
}

func (s *SyndicationStrategy) Requires() []extractor.Capability {
	return []extractor.Capability{extractor.CapabilityNetwork}
}

type syndicationTweet struct {
	Text         string `json:"text"`
	MediaDetails []struct {
		Type          string `json:"type"`
		MediaURLHTTPS string `json:"media_url_https"`
		VideoInfo     struct {
			Variants []videoVariant `json:"variants"`
		} `json:"video_info"`
	} `json:"mediaDetails"`
}

type videoVariant struct {
	Bitrate     int64  `json:"bitrate"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

func (s *SyndicationStrategy) Extract(ctx context.Context, target extractor.Target) ([]domain.MediaItem, error) {
	endpoint := fmt.Sprintf("%s?id=%s&lang=en", syndicationEndpoint, target.ContentID)

	body, err := s.fetcher.Fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var tweet syndicationTweet
	if err := json.Unmarshal(body, &tweet); err != nil {
		return nil, retry.Wrap(retry.KindParsing,
			fmt.Errorf("failed to decode syndication response: %w", err))
	}

	title := firstSentence(tweet.Text)

	var items []domain.MediaItem
	for i, media := range tweet.MediaDetails {
		switch media.Type {
		case "video", "animated_gif":
			if variant, ok := bestMP4(media.VideoInfo.Variants); ok {
				items = append(items, domain.MediaItem{
					ID:           fmt.Sprintf("twitter-%s-%d", target.ContentID, i),
					Kind:         domain.MediaVideo,
					SourceURL:    target.URL,
					DownloadURL:  variant.URL,
					ThumbnailURL: media.MediaURLHTTPS,
					Title:        title,
					Platform:     domain.PlatformTwitter,
					Quality:      qualityForBitrate(variant.Bitrate),
				})
			}
		case "photo":
			items = append(items, domain.MediaItem{
				ID:           fmt.Sprintf("twitter-%s-%d", target.ContentID, i),
				Kind:         domain.MediaImage,
				SourceURL:    target.URL,
				DownloadURL:  media.MediaURLHTTPS,
				ThumbnailURL: media.MediaURLHTTPS,
				Title:        title,
				Platform:     domain.PlatformTwitter,
				Quality:      domain.QualitySD,
			})
		}
	}

	return items, nil
}

// APIStrategy queries the official v2 API with a bearer token. Registered
// only when a token is configured; covers tweets the syndication endpoint
// refuses to serve.
type APIStrategy struct {
	fetcher     extractor.Fetcher
	bearerToken string
}

func NewAPIStrategy(fetcher extractor.Fetcher, bearerToken string) *APIStrategy {
	return &APIStrategy{fetcher: fetcher, bearerToken: bearerToken}
}

func (s *APIStrategy) Name() string {
	return "twitter-api"
}

func (s *APIStrategy) Requires() []extractor.Capability {
	return []extractor.Capability{extractor.CapabilityNetwork}
}

type apiResponse struct {
	Data struct {
		Text string `json:"text"`
	} `json:"data"`
	Includes struct {
		Media []struct {
			Type            string         `json:"type"`
			URL             string         `json:"url"`
			PreviewImageURL string         `json:"preview_image_url"`
			Variants        []videoVariant `json:"variants"`
		} `json:"media"`
	} `json:"includes"`
}

func (s *APIStrategy) Extract(ctx context.Context, target extractor.Target) ([]domain.MediaItem, error) {
	endpoint := fmt.Sprintf(
		"%s/%s?expansions=attachments.media_keys&media.fields=variants,url,preview_image_url,type",
		apiEndpoint, target.ContentID)

	body, err := s.fetcher.Fetch(ctx, endpoint, "Authorization", "Bearer "+s.bearerToken)
	if err != nil {
		return nil, err
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, retry.Wrap(retry.KindParsing,
			fmt.Errorf("failed to decode api response: %w", err))
	}

	title := firstSentence(resp.Data.Text)

	var items []domain.MediaItem
	for i, media := range resp.Includes.Media {
		switch media.Type {
		case "video", "animated_gif":
			if variant, ok := bestMP4(media.Variants); ok {
				items = append(items, domain.MediaItem{
					ID:           fmt.Sprintf("twitter-%s-%d", target.ContentID, i),
					Kind:         domain.MediaVideo,
					SourceURL:    target.URL,
					DownloadURL:  variant.URL,
					ThumbnailURL: media.PreviewImageURL,
					Title:        title,
					Platform:     domain.PlatformTwitter,
					Quality:      qualityForBitrate(variant.Bitrate),
				})
			}
		case "photo":
			items = append(items, domain.MediaItem{
				ID:           fmt.Sprintf("twitter-%s-%d", target.ContentID, i),
				Kind:         domain.MediaImage,
				SourceURL:    target.URL,
				DownloadURL:  media.URL,
				ThumbnailURL: media.URL,
				Title:        title,
				Platform:     domain.PlatformTwitter,
				Quality:      domain.QualitySD,
			})
		}
	}

	return items, nil
}

// bestMP4 picks the highest-bitrate mp4 variant.
func bestMP4(variants []videoVariant) (videoVariant, bool) {
	var best videoVariant
	found := false
	for _, v := range variants {
		if v.ContentType != "video/mp4" || v.URL == "" {
			continue
		}
		if !found || v.Bitrate > best.Bitrate {
			best = v
			found = true
		}
	}
	return best, found
}

func qualityForBitrate(bitrate int64) domain.Quality {
	switch {
	case bitrate >= 2_000_000:
		return domain.QualityHD
	case bitrate > 0:
		return domain.QualitySD
	default:
		return domain.QualityUnknown
	}
}

// firstSentence trims tweet text down to a usable title.
func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i > 0 {
		text = text[:i]
	}
	return text
}
