// Package client is a thin HTTP client for the scrapecheck API, shared by
// the CLI and the MCP server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/use-agent/scrapecheck/models"
)

// DefaultBaseURL is used when no API URL is configured.
const DefaultBaseURL = "http://127.0.0.1:8080"

// ErrJobNotCreated is returned when the batch endpoint answers without a
// job id.
var ErrJobNotCreated = errors.New("batch job creation failed")

// Client calls a running scrapecheck server.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client

	// PollInterval is the delay between batch status polls.
	PollInterval time.Duration
}

// New returns a client for baseURL. An empty baseURL uses DefaultBaseURL.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		APIKey:       apiKey,
		HTTP:         &http.Client{Timeout: timeout},
		PollInterval: 2 * time.Second,
	}
}

// APIError is a failure reported by the server in its error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Analyze runs a live analysis.
func (c *Client) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	var resp models.AnalyzeResponse
	if err := c.post(ctx, "/api/v1/analyze", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Recommend composes a verdict from a snapshot without loading any page.
func (c *Client) Recommend(ctx context.Context, snapshot *models.SiteAnalysisResult) (*models.RecommendResponse, error) {
	var resp models.RecommendResponse
	if err := c.post(ctx, "/api/v1/recommend", snapshot, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Report renders a snapshot as a Markdown report.
func (c *Client) Report(ctx context.Context, snapshot *models.SiteAnalysisResult) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/v1/report", snapshot)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Robots parses robots.txt content, or fetches it for url when content is
// nil.
func (c *Client) Robots(ctx context.Context, content *string, url string) (*models.RobotsResponse, error) {
	var resp models.RobotsResponse
	req := models.RobotsRequest{Content: content, URL: url}
	if err := c.post(ctx, "/api/v1/robots", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Batch submits a batch job and polls until it leaves the processing state
// or ctx is done.
func (c *Client) Batch(ctx context.Context, req *models.BatchRequest) (*models.BatchStatusResponse, error) {
	var created models.BatchResponse
	if err := c.post(ctx, "/api/v1/batch/analyze", req, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, ErrJobNotCreated
	}
	return c.pollJobCompletion(ctx, "/api/v1/batch/"+created.ID)
}

// Health fetches the server health report.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return nil, err
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse health response: %w", err)
	}
	return &resp, nil
}

func (c *Client) pollJobCompletion(ctx context.Context, endpoint string) (*models.BatchStatusResponse, error) {
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			body, err := c.do(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return nil, err
			}
			var status models.BatchStatusResponse
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}
			if status.Status != models.BatchProcessing {
				return &status, nil
			}
		}
	}
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// do sends the request and returns the body of a 2xx response. Other
// statuses are decoded into an *APIError.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp.StatusCode, body)
	}
	return body, nil
}

func decodeError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}
	var env models.ErrorResponse
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	}
	return apiErr
}
