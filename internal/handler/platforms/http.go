// Package platforms adapts the platform-agnostic handler to concrete
// transports: a plain HTTP server and AWS Lambda behind API Gateway.
package platforms

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/youming-ai/snatch-sub000/internal/domain"
	"github.com/youming-ai/snatch-sub000/internal/handler"
)

const downloadPath = "/api/download"

// HTTPAdapter exposes the handler on a standard HTTP server. Suitable for
// local development, containers and Kubernetes.
type HTTPAdapter struct {
	handler        *handler.Handler
	allowedOrigins []string
}

// NewHTTPAdapter creates an HTTP adapter. allowedOrigins controls CORS; an
// empty list allows any origin (development mode).
func NewHTTPAdapter(h *handler.Handler, allowedOrigins []string) *HTTPAdapter {
	return &HTTPAdapter{handler: h, allowedOrigins: allowedOrigins}
}

// ServeHTTP implements http.Handler.
func (a *HTTPAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.applyCORS(w, r)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if a.isHealthCheck(r.URL.Path) {
		a.handleHealth(w, r)
		return
	}

	if r.URL.Path != downloadPath {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := a.readBody(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, handler.NewErrorResponse(
			uuid.New().String(),
			domain.CodeValidation,
			"Failed to read request body",
			err.Error(),
		))
		return
	}

	req := a.buildRequest(r, body)

	resp, err := a.handler.Handle(r.Context(), req)
	a.writeResponse(w, resp, err)
}

// applyCORS sets the CORS headers. With a configured origin list only
// matching origins are echoed back; otherwise requests are allowed from
// anywhere.
func (a *HTTPAdapter) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")

	switch {
	case len(a.allowedOrigins) == 0:
		w.Header().Set("Access-Control-Allow-Origin", "*")
	case origin != "":
		for _, allowed := range a.allowedOrigins {
			if strings.EqualFold(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				break
			}
		}
	}

	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
}

func (a *HTTPAdapter) isHealthCheck(path string) bool {
	switch path {
	case "/health", "/healthz", "/ready", "/readyz", "/live", "/livez":
		return true
	}
	return false
}

func (a *HTTPAdapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := a.handler.Health(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "healthy",
		"worker": a.handler.Worker().Name(),
		"time":   time.Now().UTC(),
	})
}

func (a *HTTPAdapter) readBody(r *http.Request) ([]byte, error) {
	maxSize := a.handler.Config().MaxRequestSize
	if maxSize <= 0 {
		maxSize = 10 * 1024
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxSize)
	defer r.Body.Close()

	return io.ReadAll(r.Body)
}

func (a *HTTPAdapter) buildRequest(r *http.Request, body []byte) handler.Request {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	metadata := map[string]string{
		"http_method": r.Method,
		"http_path":   r.URL.Path,
		"client_key":  clientAddr(r),
		"user_agent":  r.UserAgent(),
	}

	return handler.Request{
		ID:        requestID,
		Source:    "http",
		Type:      "download",
		Payload:   json.RawMessage(body),
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
}

// clientAddr resolves the caller's address, honoring proxy headers.
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	addr := r.RemoteAddr
	if i := strings.LastIndexByte(addr, ':'); i > 0 {
		return addr[:i]
	}
	return addr
}

// writeResponse maps the envelope onto HTTP. The body is always the
// download response JSON; the status code follows the error code.
func (a *HTTPAdapter) writeResponse(w http.ResponseWriter, resp handler.Response, err error) {
	status := http.StatusOK

	if !resp.Success {
		code := ""
		if resp.Error != nil {
			code = resp.Error.Code
		}
		status = statusForCode(code)

		if retryAfter, ok := resp.Metadata["retry_after_seconds"]; ok && status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", retryAfter)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Workers put the public response shape in Data even on failure; the
	// envelope is only sent when no payload was produced at all.
	if resp.Data != nil {
		w.Write(resp.Data)
		return
	}

	json.NewEncoder(w).Encode(resp)
}

func (a *HTTPAdapter) writeError(w http.ResponseWriter, status int, resp handler.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// statusForCode maps engine error codes to HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
