package ports

import (
	"net/http"
	"time"
)

// HTTPClient abstracts HTTP operations for testability
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClientConfig holds configuration for HTTP client
type HTTPClientConfig struct {
	Timeout         time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
	FollowRedirects bool
	UserAgent       string
}

// RealHTTPClient implements HTTPClient using standard HTTP client
type RealHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// NewRealHTTPClient creates a new real HTTP client implementation
func NewRealHTTPClient(config HTTPClientConfig) HTTPClient {
	return &RealHTTPClient{
		client: &http.Client{
			Timeout: config.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if !config.FollowRedirects {
					return http.ErrUseLastResponse
				}
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		config: config,
	}
}

// Do executes an HTTP request, retrying transport failures of idempotent requests
func (c *RealHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.config.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	retries := c.config.MaxRetries
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		retries = 0
	}

	var resp *http.Response
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		resp, err = c.client.Do(req)
		if err == nil {
			return resp, nil
		}

		// Don't retry on context cancellation
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if attempt < retries && c.config.RetryDelay > 0 {
			select {
			case <-time.After(c.config.RetryDelay):
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}
	}

	return resp, err
}
