package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/youming-ai/snatch-sub000/internal/retry"
)

// maxFetchBytes caps how much of a remote response is read. Metadata
// endpoints and embed pages are small; anything larger is not worth parsing.
const maxFetchBytes = 4 << 20

// Fetcher is the outbound HTTP port strategies use. Keeping it narrow lets
// tests substitute canned responses without a network.
type Fetcher interface {
	// Fetch performs a GET and returns the response body. Optional header
	// pairs are applied to the request in order (key, value, key, value).
	Fetch(ctx context.Context, url string, headers ...string) ([]byte, error)
}

// HTTPFetcher is the production Fetcher backed by net/http.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout and
// User-Agent.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Fetch performs a GET request and returns up to maxFetchBytes of the body.
// Errors are classified so the retry layer can tell transient failures from
// permanent ones.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, headers ...string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Wrap(retry.KindParsing, fmt.Errorf("failed to build request: %w", err))
	}

	req.Header.Set("User-Agent", f.userAgent)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, retry.Wrap(retry.Classify(err), fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode, url); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, retry.Wrap(retry.KindNetwork, fmt.Errorf("failed to read body: %w", err))
	}

	return body, nil
}

// classifyStatus maps HTTP status codes onto error kinds. Auth and
// not-found style responses are permanent; server errors and throttling
// are worth retrying.
func classifyStatus(status int, url string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return retry.Wrap(retry.KindAuthentication,
			fmt.Errorf("request to %s rejected with status %d", url, status))
	case status == http.StatusNotFound || status == http.StatusGone:
		return retry.Wrap(retry.KindPlatform,
			fmt.Errorf("resource %s not found (status %d)", url, status))
	case status == http.StatusTooManyRequests || status >= 500:
		return retry.Wrap(retry.KindNetwork,
			fmt.Errorf("request to %s failed with status %d", url, status))
	default:
		return retry.Wrap(retry.KindPlatform,
			fmt.Errorf("request to %s failed with status %d", url, status))
	}
}
