package httpclient

import (
	"context"
	"net/http"
	"time"
)

type BaseResponse struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// HTTPClient is the read-only client used by the backend gateways.
type HTTPClient interface {
	Get(ctx context.Context, endpoint string, queryParams map[string]string, headers map[string]string, result interface{}) (*BaseResponse, error)
}

type Options struct {
	BaseURL     string
	Timeout     time.Duration
	BearerToken string
	// Headers are sent with every request.
	Headers map[string]string
	// RetryCount retries transport errors and 5xx responses.
	RetryCount int
}
