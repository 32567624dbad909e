package handler

import (
	"context"
)

// Worker is the business-logic contract behind every platform adapter.
// Workers process requests and return responses without knowing about the
// transport that delivered them.
type Worker interface {
	// Name returns the worker name for logging, metrics and routing.
	Name() string

	// Process handles one request. The worker unmarshals the payload,
	// does the work and returns a response.
	Process(ctx context.Context, request Request) (Response, error)

	// Health verifies the worker's dependencies are reachable.
	Health(ctx context.Context) error
}
