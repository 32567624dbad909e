package platforms

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"

	"github.com/youming-ai/snatch-sub000/internal/handler"
)

// LambdaAdapter runs the handler behind API Gateway on AWS Lambda.
type LambdaAdapter struct {
	handler        *handler.Handler
	allowedOrigins []string
}

// NewLambdaAdapter creates a Lambda adapter.
func NewLambdaAdapter(h *handler.Handler, allowedOrigins []string) *LambdaAdapter {
	return &LambdaAdapter{handler: h, allowedOrigins: allowedOrigins}
}

// Start begins the Lambda runtime loop.
func (a *LambdaAdapter) Start() {
	lambda.Start(a.HandleEvent)
}

// HandleEvent processes one API Gateway proxy event.
func (a *LambdaAdapter) HandleEvent(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := a.corsHeaders(event.Headers["origin"])
	headers["Content-Type"] = "application/json"

	if event.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent, Headers: headers}, nil
	}

	if event.Path == "/health" || event.Path == "/healthz" {
		return a.handleHealth(ctx, headers), nil
	}

	if event.Path != downloadPath || event.HTTPMethod != http.MethodPost {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusNotFound,
			Headers:    headers,
			Body:       `{"success":false,"error":"not found"}`,
		}, nil
	}

	req := a.buildRequest(event)

	resp, _ := a.handler.Handle(ctx, req)

	status := http.StatusOK
	if !resp.Success {
		code := ""
		if resp.Error != nil {
			code = resp.Error.Code
		}
		status = statusForCode(code)

		if retryAfter, ok := resp.Metadata["retry_after_seconds"]; ok && status == http.StatusTooManyRequests {
			headers["Retry-After"] = retryAfter
		}
	}

	body := resp.Data
	if body == nil {
		body, _ = json.Marshal(resp)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

func (a *LambdaAdapter) handleHealth(ctx context.Context, headers map[string]string) events.APIGatewayProxyResponse {
	if err := a.handler.Health(ctx); err != nil {
		body, _ := json.Marshal(map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusServiceUnavailable,
			Headers:    headers,
			Body:       string(body),
		}
	}

	body, _ := json.Marshal(map[string]interface{}{
		"status": "healthy",
		"worker": a.handler.Worker().Name(),
	})
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       string(body),
	}
}

func (a *LambdaAdapter) buildRequest(event events.APIGatewayProxyRequest) handler.Request {
	requestID := event.Headers["x-request-id"]
	if requestID == "" {
		requestID = event.RequestContext.RequestID
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}

	clientKey := event.RequestContext.Identity.SourceIP
	if fwd := event.Headers["x-forwarded-for"]; fwd != "" {
		clientKey = fwd
	}

	return handler.Request{
		ID:     requestID,
		Source: "lambda",
		Type:   "download",
		Payload: json.RawMessage(event.Body),
		Metadata: map[string]string{
			"http_method": event.HTTPMethod,
			"http_path":   event.Path,
			"client_key":  clientKey,
			"user_agent":  event.Headers["user-agent"],
		},
		Timestamp: time.Now().UTC(),
	}
}

func (a *LambdaAdapter) corsHeaders(origin string) map[string]string {
	headers := map[string]string{
		"Access-Control-Allow-Methods": "POST, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, X-Request-ID",
	}

	if len(a.allowedOrigins) == 0 {
		headers["Access-Control-Allow-Origin"] = "*"
		return headers
	}

	for _, allowed := range a.allowedOrigins {
		if allowed == origin {
			headers["Access-Control-Allow-Origin"] = origin
			headers["Vary"] = "Origin"
			break
		}
	}

	return headers
}
