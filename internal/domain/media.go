// Package domain holds the core entities of the download engine: platforms,
// media items and the public response shape.
package domain

import "time"

// Platform identifies a supported social-media platform. The set is closed;
// it grows only when a new adapter is registered.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformTwitter   Platform = "twitter"
)

// Platforms returns every supported platform in registration order.
func Platforms() []Platform {
	return []Platform{PlatformInstagram, PlatformTikTok, PlatformTwitter}
}

// MediaKind classifies a media item.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaImage MediaKind = "image"
)

// Quality is the declared quality of a downloadable variant.
type Quality string

const (
	QualityHD      Quality = "hd"
	QualitySD      Quality = "sd"
	QualityUnknown Quality = "unknown"
)

// SentinelOpenOriginal is the literal download URL used when no direct link
// could be produced; the client should open the source URL instead. It is
// the only non-HTTP value a MediaItem.DownloadURL may carry.
const SentinelOpenOriginal = "open-original"

// PlaceholderTitle replaces free text that is empty after sanitization.
const PlaceholderTitle = "Untitled media"

// PlaceholderThumbnail is the deterministic thumbnail used when a strategy
// did not produce one.
const PlaceholderThumbnail = "https://placehold.co/480x480?text=media"

// MediaItem is one downloadable media reference returned to the caller.
type MediaItem struct {
	// ID is unique within a single response.
	ID string `json:"id"`

	Kind MediaKind `json:"kind"`

	// SourceURL is the original post URL the item was extracted from.
	SourceURL string `json:"sourceUrl"`

	// DownloadURL is an http(s) URL, or SentinelOpenOriginal when no
	// direct link exists.
	DownloadURL string `json:"downloadUrl"`

	ThumbnailURL string `json:"thumbnailUrl"`
	Title        string `json:"title"`

	// SizeHint is the approximate payload size in bytes, 0 when unknown.
	SizeHint int64 `json:"sizeHint,omitempty"`

	Platform Platform `json:"platform"`
	Quality  Quality  `json:"quality"`

	// Synthetic is true when no real strategy produced a verified link
	// and this item is the terminal fallback. The flag is always
	// surfaced to the caller.
	Synthetic bool `json:"isSynthetic"`
}

// DownloadRequest is the transient per-call input. Never persisted.
type DownloadRequest struct {
	URL string `json:"url"`

	// ClientID identifies the caller for rate limiting. It is hashed
	// before it ever reaches a store.
	ClientID string `json:"-"`
}

// DownloadResponse is the public result shape of a download call.
//
// Invariant: Success=true implies len(Results) >= 1; Success=false implies
// Results is empty.
type DownloadResponse struct {
	Success          bool        `json:"success"`
	Results          []MediaItem `json:"results,omitempty"`
	Platform         Platform    `json:"platform,omitempty"`
	Error            string      `json:"error,omitempty"`
	ErrorCode        string      `json:"errorCode,omitempty"`
	ProcessingTimeMs int64       `json:"processingTimeMs,omitempty"`

	// ResetAt is set on rate-limit rejections: the instant the client's
	// window reopens.
	ResetAt *time.Time `json:"resetAt,omitempty"`
}

// SyntheticOnly reports whether every result is the terminal fallback.
// Responses like this are not worth caching; a later attempt may do better.
func (r DownloadResponse) SyntheticOnly() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, item := range r.Results {
		if !item.Synthetic {
			return false
		}
	}
	return true
}
