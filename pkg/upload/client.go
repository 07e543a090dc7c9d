// Package upload provides a client for the file upload service. It accepts
// binary image data and returns a retrievable reference URL.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client uploads binary data and returns a retrievable reference.
type Client interface {
	Upload(ctx context.Context, filename string, data []byte) (*UploadResponse, error)
}

// UploadResponse is the parsed upload service response.
type UploadResponse struct {
	FileURL string `json:"file_url"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new upload service client.
func NewClient(apiKey, baseURL string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

func (c *httpClient) Upload(ctx context.Context, filename string, data []byte) (*UploadResponse, error) {
	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, eris.Wrap(err, "upload: create form file")
	}
	if _, err := part.Write(data); err != nil {
		return nil, eris.Wrap(err, "upload: write form data")
	}
	if err := writer.Close(); err != nil {
		return nil, eris.Wrap(err, "upload: close form")
	}

	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", bytes.NewReader(form.Bytes()))
		if err != nil {
			return nil, eris.Wrap(err, "upload: create request")
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = eris.Wrap(err, "upload: send request")
		} else {
			body, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr != nil {
				return nil, eris.Wrap(readErr, "upload: read response")
			}

			if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
				var result UploadResponse
				if err := json.Unmarshal(body, &result); err != nil {
					return nil, eris.Wrap(err, "upload: unmarshal response")
				}
				if result.FileURL == "" {
					return nil, eris.New("upload: response missing file_url")
				}
				return &result, nil
			}

			lastErr = eris.Errorf("upload: unexpected status %d: %s", resp.StatusCode, string(body))
			if !retryableStatusCode(resp.StatusCode) {
				return nil, lastErr
			}
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return nil, lastErr
}
