package extractor

import (
	"context"
	"fmt"

	"github.com/youming-ai/snatch-sub000/internal/domain"
)

// SyntheticStrategy is the terminal fallback. It never fails and always
// produces exactly one item pointing the client back at the original post.
type SyntheticStrategy struct{}

// NewSyntheticStrategy creates the fallback strategy.
func NewSyntheticStrategy() *SyntheticStrategy {
	return &SyntheticStrategy{}
}

func (s *SyntheticStrategy) Name() string {
	return "synthetic-fallback"
}

func (s *SyntheticStrategy) Requires() []Capability {
	return nil
}

// Extract builds the fallback item. The download URL is the open-original
// sentinel rather than a fabricated link, and the item is flagged synthetic
// so the caller can render it differently.
func (s *SyntheticStrategy) Extract(_ context.Context, target Target) ([]domain.MediaItem, error) {
	return []domain.MediaItem{
		{
			ID:           fmt.Sprintf("%s-%s", target.Platform, target.ContentID),
			Kind:         domain.MediaVideo,
			SourceURL:    target.URL,
			DownloadURL:  domain.SentinelOpenOriginal,
			ThumbnailURL: domain.PlaceholderThumbnail,
			Title:        fmt.Sprintf("%s media %s", target.Platform, target.ContentID),
			Platform:     target.Platform,
			Quality:      domain.QualityUnknown,
			Synthetic:    true,
		},
	}, nil
}
