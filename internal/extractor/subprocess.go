package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"time"

	"github.com/youming-ai/snatch-sub000/internal/domain"
	"github.com/youming-ai/snatch-sub000/internal/retry"
)

// SubprocessStrategy shells out to an external extractor binary (yt-dlp)
// and parses its JSON dump. It is the heavyweight option: slow but broadly
// compatible across platforms.
type SubprocessStrategy struct {
	binary      string
	timeout     time.Duration
	maxVariants int
}

// NewSubprocessStrategy creates the strategy. maxVariants caps how many
// format variants a single post contributes.
func NewSubprocessStrategy(binary string, timeout time.Duration, maxVariants int) *SubprocessStrategy {
	if maxVariants <= 0 {
		maxVariants = 3
	}
	return &SubprocessStrategy{
		binary:      binary,
		timeout:     timeout,
		maxVariants: maxVariants,
	}
}

func (s *SubprocessStrategy) Name() string {
	return "subprocess"
}

func (s *SubprocessStrategy) Requires() []Capability {
	return []Capability{CapabilitySubprocess}
}

// dumpInfo is the subset of the extractor's JSON dump we consume.
type dumpInfo struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Thumbnail string       `json:"thumbnail"`
	Duration  float64      `json:"duration"`
	Formats   []dumpFormat `json:"formats"`
	URL       string       `json:"url"`
}

type dumpFormat struct {
	FormatID string  `json:"format_id"`
	URL      string  `json:"url"`
	Ext      string  `json:"ext"`
	Height   int     `json:"height"`
	Width    int     `json:"width"`
	Filesize int64   `json:"filesize"`
	VCodec   string  `json:"vcodec"`
	ACodec   string  `json:"acodec"`
	TBR      float64 `json:"tbr"`
}

// Extract runs the binary with --dump-json and converts the best-ranked
// formats into media items. The URL was already screened for dangerous
// characters at validation, so passing it as an argv element is safe.
func (s *SubprocessStrategy) Extract(ctx context.Context, target Target) ([]domain.MediaItem, error) {
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, s.binary,
		"--dump-json",
		"--no-warnings",
		"--no-playlist",
		target.URL,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, retry.Wrap(retry.KindTimeout,
				fmt.Errorf("extractor process timed out after %s", s.timeout))
		}
		return nil, retry.Wrap(retry.KindEnvironment,
			fmt.Errorf("extractor process failed: %w: %s", err, firstLine(stderr.String())))
	}

	var info dumpInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, retry.Wrap(retry.KindParsing,
			fmt.Errorf("failed to decode extractor output: %w", err))
	}

	return s.toItems(info, target), nil
}

// toItems ranks video formats by height descending and keeps the top
// variants. When the dump carries no usable formats but a direct URL,
// that single URL is returned.
func (s *SubprocessStrategy) toItems(info dumpInfo, target Target) []domain.MediaItem {
	formats := make([]dumpFormat, 0, len(info.Formats))
	for _, f := range info.Formats {
		if f.URL == "" || f.VCodec == "none" {
			continue
		}
		formats = append(formats, f)
	}

	sort.SliceStable(formats, func(i, j int) bool {
		if formats[i].Height != formats[j].Height {
			return formats[i].Height > formats[j].Height
		}
		return formats[i].TBR > formats[j].TBR
	})

	if len(formats) > s.maxVariants {
		formats = formats[:s.maxVariants]
	}

	title := info.Title
	contentID := info.ID
	if contentID == "" {
		contentID = target.ContentID
	}

	var items []domain.MediaItem
	for i, f := range formats {
		items = append(items, domain.MediaItem{
			ID:           fmt.Sprintf("%s-%s-%d", target.Platform, contentID, i),
			Kind:         domain.MediaVideo,
			SourceURL:    target.URL,
			DownloadURL:  f.URL,
			ThumbnailURL: info.Thumbnail,
			Title:        title,
			SizeHint:     f.Filesize,
			Platform:     target.Platform,
			Quality:      qualityForHeight(f.Height),
		})
	}

	if len(items) == 0 && info.URL != "" {
		items = append(items, domain.MediaItem{
			ID:           fmt.Sprintf("%s-%s-0", target.Platform, contentID),
			Kind:         domain.MediaVideo,
			SourceURL:    target.URL,
			DownloadURL:  info.URL,
			ThumbnailURL: info.Thumbnail,
			Title:        title,
			Platform:     target.Platform,
			Quality:      domain.QualityUnknown,
		})
	}

	return items
}

func qualityForHeight(height int) domain.Quality {
	switch {
	case height >= 720:
		return domain.QualityHD
	case height > 0:
		return domain.QualitySD
	default:
		return domain.QualityUnknown
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
