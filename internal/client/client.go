// Package client talks to a running fbvideodl API server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fbvideodl/pkg/models"
)

// DefaultServerURL is the address of a locally running server
const DefaultServerURL = "http://127.0.0.1:8000"

var (
	ErrNoURL       = errors.New("no URL specified")
	ErrServerError = errors.New("server returned error")
)

// APIError is an error envelope returned by the server
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s (%s, status %d)", e.Message, e.Code, e.StatusCode)
}

func (e *APIError) Is(target error) bool {
	return target == ErrServerError
}

// Client is an HTTP client for the API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL. A nil httpClient uses a
// client with a timeout suited to extraction requests.
func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 3 * time.Minute}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Download requests video metadata plus a direct download URL
func (c *Client) Download(ctx context.Context, videoURL, quality string) (*models.VideoResponse, error) {
	return c.lookup(ctx, "/download", videoURL, quality)
}

// Info requests video metadata without a download URL
func (c *Client) Info(ctx context.Context, videoURL, quality string) (*models.VideoResponse, error) {
	return c.lookup(ctx, "/info", videoURL, quality)
}

func (c *Client) lookup(ctx context.Context, path, videoURL, quality string) (*models.VideoResponse, error) {
	if strings.TrimSpace(videoURL) == "" {
		return nil, ErrNoURL
	}

	body, err := json.Marshal(models.VideoRequestBody{URL: videoURL, Quality: quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp models.VideoResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Qualities lists the quality hints the server accepts
func (c *Client) Qualities(ctx context.Context) (*models.QualitiesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/qualities", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var resp models.QualitiesResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health queries the liveness probe
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var resp models.HealthResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamURL returns the proxy URL that serves mediaURL as <id>.mp4
func (c *Client) StreamURL(id, mediaURL string) string {
	return fmt.Sprintf("%s/stream/%s?url=%s", c.baseURL, url.PathEscape(id), url.QueryEscape(mediaURL))
}

// Stream copies the proxied media into w and returns the bytes written
func (c *Client) Stream(ctx context.Context, id, mediaURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.StreamURL(id, mediaURL), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("connection failed - is the server running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, decodeError(resp)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read stream: %w", err)
	}
	return n, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed - is the server running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError reads the error envelope, falling back to the raw body
func decodeError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}

	var envelope models.ErrorResponse
	if json.Unmarshal(body, &envelope) == nil && envelope.Status == models.StatusError {
		apiErr.Code = envelope.ErrorCode
		apiErr.Message = envelope.Message
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}
