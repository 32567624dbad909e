package orchestrator

import (
	"context"
	"strconv"
	"time"

	"github.com/youming-ai/snatch-sub000/internal/domain"
	"github.com/youming-ai/snatch-sub000/internal/handler"
)

// DownloadWorker adapts the orchestrator to the handler's Worker contract.
type DownloadWorker struct {
	orchestrator *Orchestrator
}

// NewDownloadWorker creates the worker.
func NewDownloadWorker(o *Orchestrator) *DownloadWorker {
	return &DownloadWorker{orchestrator: o}
}

// Name identifies the worker in logs and metrics.
func (w *DownloadWorker) Name() string {
	return "download"
}

// Process handles one download request. The public response shape is
// always placed in Data, success or not, so platform adapters can return
// it verbatim.
func (w *DownloadWorker) Process(ctx context.Context, req handler.Request) (handler.Response, error) {
	var payload domain.DownloadRequest
	if err := req.Unmarshal(&payload); err != nil || payload.URL == "" {
		resp := handler.NewErrorResponse(req.ID, domain.CodeValidation,
			"Request body must be JSON with a url field", "")
		resp.Marshal(domain.DownloadResponse{
			Success:   false,
			Error:     "request body must be JSON with a url field",
			ErrorCode: domain.CodeValidation,
		})
		return resp, nil
	}

	payload.ClientID = req.Metadata["client_key"]

	result := w.orchestrator.Download(ctx, payload)

	resp := handler.Response{
		ID:       req.ID,
		Success:  result.Success,
		Metadata: make(map[string]string),
	}
	if err := resp.Marshal(result); err != nil {
		return handler.NewErrorResponse(req.ID, domain.CodeInternal,
			"Failed to encode response", ""), err
	}

	if !result.Success {
		resp.Error = &handler.ErrorResponse{
			Code:      result.ErrorCode,
			Message:   result.Error,
			Retryable: result.ErrorCode == domain.CodeRateLimit || result.ErrorCode == domain.CodeTimeout,
		}
		if result.ErrorCode == domain.CodeRateLimit && result.ResetAt != nil {
			seconds := int(RetryAfter(*result.ResetAt, time.Now()).Seconds() + 0.5)
			if seconds < 1 {
				seconds = 1
			}
			resp.Metadata["retry_after_seconds"] = strconv.Itoa(seconds)
		}
	}

	return resp, nil
}

// Health verifies the engine's dependencies.
func (w *DownloadWorker) Health(ctx context.Context) error {
	return w.orchestrator.Healthy(ctx)
}
