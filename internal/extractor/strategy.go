// Package extractor runs ordered chains of extraction strategies against
// social media URLs. Each platform registers its own chain; the chain always
// ends with a synthetic fallback so extraction as a whole cannot fail for a
// supported URL.
package extractor

import (
	"context"
	"os"
	"os/exec"

	"github.com/youming-ai/snatch-sub000/internal/domain"
)

// Target is the resolved input a strategy works against.
type Target struct {
	// URL is the normalized post URL.
	URL string

	// ContentID is the platform-specific identifier parsed from the URL.
	ContentID string

	Platform domain.Platform
}

// Capability names a runtime facility a strategy depends on.
type Capability string

const (
	// CapabilityNetwork means outbound HTTP is available. Always present.
	CapabilityNetwork Capability = "network"

	// CapabilitySubprocess means external extraction binaries can be
	// spawned. Absent on serverless runtimes and when the binary is not
	// installed.
	CapabilitySubprocess Capability = "subprocess"
)

// Strategy is one way of extracting media from a target. Strategies are
// tried in order until one yields at least one item.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string

	// Requires lists the capabilities the strategy needs to run.
	Requires() []Capability

	// Extract attempts extraction. Returning an empty slice with a nil
	// error means the strategy ran but found nothing usable.
	Extract(ctx context.Context, target Target) ([]domain.MediaItem, error)
}

// DetectCapabilities probes the runtime for available capabilities.
// The subprocess capability requires the binary on PATH and a runtime that
// permits spawning processes.
func DetectCapabilities(subprocessBinary string) map[Capability]bool {
	caps := map[Capability]bool{
		CapabilityNetwork: true,
	}

	if subprocessBinary != "" && !isLambda() {
		if _, err := exec.LookPath(subprocessBinary); err == nil {
			caps[CapabilitySubprocess] = true
		}
	}

	return caps
}

func isLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" ||
		os.Getenv("AWS_LAMBDA_RUNTIME_API") != ""
}

// hasCapabilities reports whether every required capability is present.
func hasCapabilities(s Strategy, caps map[Capability]bool) bool {
	for _, req := range s.Requires() {
		if !caps[req] {
			return false
		}
	}
	return true
}
