package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/youming-ai/snatch-sub000/internal/domain"
)

// Request is the platform-agnostic envelope for incoming work. Platform
// adapters (HTTP, Lambda) translate their native formats into this shape.
type Request struct {
	// ID is a unique identifier for the request, used for tracing.
	ID string `json:"id"`

	// Source identifies where the request came from (http, lambda).
	Source string `json:"source"`

	// Type identifies the operation (e.g. "download").
	Type string `json:"type"`

	// Payload contains the actual request data as raw JSON.
	Payload json.RawMessage `json:"payload"`

	// Metadata carries transport context: client address, headers.
	Metadata map[string]string `json:"metadata,omitempty"`

	// Timestamp when the request was created.
	Timestamp time.Time `json:"timestamp"`
}

// Response is the platform-agnostic result envelope.
type Response struct {
	// ID correlates with the request ID.
	ID string `json:"id"`

	// Success indicates whether processing succeeded.
	Success bool `json:"success"`

	// Data contains the response payload when Success is true.
	Data json.RawMessage `json:"data,omitempty"`

	// Error carries structured error information when Success is false.
	Error *ErrorResponse `json:"error,omitempty"`

	// Metadata contains additional response context.
	Metadata map[string]string `json:"metadata,omitempty"`

	// ProcessedAt timestamp.
	ProcessedAt time.Time `json:"processed_at"`

	// Duration of processing.
	Duration time.Duration `json:"duration,omitempty"`
}

// ErrorResponse is the structured error shape shared by every platform.
type ErrorResponse struct {
	// Code is a machine-readable error code (e.g. "VALIDATION_ERROR").
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Details provides additional context, safe to expose to clients.
	Details string `json:"details,omitempty"`

	// Retryable indicates whether the caller may usefully retry.
	Retryable bool `json:"retryable,omitempty"`
}

// NewRequest creates a request with a generated ID and timestamp.
func NewRequest(requestType string, payload interface{}) (Request, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return Request{}, err
	}

	return Request{
		ID:        uuid.New().String(),
		Type:      requestType,
		Payload:   payloadBytes,
		Metadata:  make(map[string]string),
		Timestamp: time.Now().UTC(),
	}, nil
}

// Unmarshal decodes the request payload into v.
func (r *Request) Unmarshal(v interface{}) error {
	return json.Unmarshal(r.Payload, v)
}

// Marshal encodes v as the response data.
func (r *Response) Marshal(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.Data = data
	return nil
}

// NewSuccessResponse creates a successful response with the given payload.
func NewSuccessResponse(id string, data interface{}) (Response, error) {
	resp := Response{
		ID:          id,
		Success:     true,
		ProcessedAt: time.Now().UTC(),
	}
	if data != nil {
		if err := resp.Marshal(data); err != nil {
			return Response{}, err
		}
	}
	return resp, nil
}

// NewErrorResponse creates a failed response with the given error code.
func NewErrorResponse(id, code, message, details string) Response {
	return Response{
		ID:      id,
		Success: false,
		Error: &ErrorResponse{
			Code:      code,
			Message:   message,
			Details:   details,
			Retryable: isRetryableCode(code),
		},
		ProcessedAt: time.Now().UTC(),
	}
}

// isRetryableCode reports whether a caller may usefully retry the request.
// Rate limited callers can retry after the window resets; timeouts may
// succeed on a quieter attempt.
func isRetryableCode(code string) bool {
	switch code {
	case domain.CodeRateLimit, domain.CodeTimeout:
		return true
	default:
		return false
	}
}
