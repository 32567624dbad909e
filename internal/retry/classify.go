// Package retry wraps network-bound operations with classification-aware
// retry and exponential backoff. Classification decides in one place which
// failures are worth retrying; everything else propagates immediately.
package retry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
)

// Kind classifies an extraction failure. Classification matches on error
// signals, not concrete types, so strategies can return plain errors.
type Kind string

const (
	KindNetwork        Kind = "network"
	KindTimeout        Kind = "timeout"
	KindAuthentication Kind = "authentication"
	KindParsing        Kind = "parsing"
	KindPlatform       Kind = "platform"
	KindEnvironment    Kind = "environment"
	KindUnknown        Kind = "unknown"
)

// Retryable reports whether errors of this kind are transient. Only network
// and timeout failures are; retrying authentication, parsing or platform
// errors wastes time and quota without changing the outcome.
func (k Kind) Retryable() bool {
	return k == KindNetwork || k == KindTimeout
}

// Error carries an explicit classification alongside the underlying error.
// Strategies use it when they already know what went wrong.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches a classification to an error.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Signal substrings checked, lowercased, when no structural match applies.
var (
	authSignals = []string{
		"unauthorized", "forbidden", "authentication", "invalid token",
		"login required", "status 401", "status 403",
	}
	parseSignals = []string{
		"parse", "unmarshal", "invalid character", "unexpected end of json",
		"no media found in", "malformed",
	}
	platformSignals = []string{
		"status 404", "status 410", "not found", "removed", "private",
		"age restricted", "unavailable",
	}
	networkSignals = []string{
		"connection refused", "connection reset", "no such host",
		"broken pipe", "eof", "status 502", "status 503", "status 504",
	}
)

// Classify maps an error to a Kind. An explicit *Error wins; otherwise
// structural checks (context deadlines, net errors) apply, then signal
// substrings, then KindUnknown.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	for _, s := range authSignals {
		if strings.Contains(msg, s) {
			return KindAuthentication
		}
	}
	for _, s := range parseSignals {
		if strings.Contains(msg, s) {
			return KindParsing
		}
	}
	for _, s := range platformSignals {
		if strings.Contains(msg, s) {
			return KindPlatform
		}
	}
	for _, s := range networkSignals {
		if strings.Contains(msg, s) {
			return KindNetwork
		}
	}

	return KindUnknown
}
