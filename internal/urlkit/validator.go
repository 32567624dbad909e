// Package urlkit validates incoming post URLs and maps them to supported
// platforms and content identifiers.
package urlkit

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/youming-ai/snatch-sub000/internal/domain"
)

// NormalizedURL is the parsed, lowercased form of a validated input URL.
// Invariant: Scheme is http or https.
type NormalizedURL struct {
	Scheme string
	Host   string
	Path   string

	// Raw is the original input, kept for strategies that fetch the page.
	Raw string
}

// String reassembles the normalized URL.
func (n NormalizedURL) String() string {
	return fmt.Sprintf("%s://%s%s", n.Scheme, n.Host, n.Path)
}

// dangerousChars are rejected before parsing. Validated URLs may end up as
// arguments to a subprocess extractor, so anything with shell metacharacters
// is refused outright.
const dangerousChars = ";|&$`\n\r\t\\<>"

// Validate parses and normalizes a raw URL. It rejects empty input, strings
// containing dangerous characters, malformed URLs, and non-HTTP(S) schemes.
// Side-effect free.
func Validate(rawURL string) (NormalizedURL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return NormalizedURL{}, domain.NewDomainError(
			domain.CodeValidation,
			"URL must not be empty",
			nil,
			false,
		)
	}

	if idx := strings.IndexAny(rawURL, dangerousChars); idx >= 0 {
		return NormalizedURL{}, domain.NewDomainError(
			domain.CodeValidation,
			fmt.Sprintf("URL contains invalid character %q", rawURL[idx]),
			nil,
			false,
		)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return NormalizedURL{}, domain.NewDomainError(
			domain.CodeValidation,
			"invalid URL format",
			err,
			false,
		)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return NormalizedURL{}, domain.NewDomainError(
			domain.CodeValidation,
			fmt.Sprintf("unsupported scheme %q, only http and https are allowed", parsed.Scheme),
			nil,
			false,
		)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return NormalizedURL{}, domain.NewDomainError(
			domain.CodeValidation,
			"URL has no host",
			nil,
			false,
		)
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}

	return NormalizedURL{
		Scheme: scheme,
		Host:   host,
		Path:   path,
		Raw:    rawURL,
	}, nil
}
