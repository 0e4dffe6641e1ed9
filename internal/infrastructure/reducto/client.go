package reducto

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"RfpIntel/internal/config"
	"RfpIntel/internal/domain"
	"RfpIntel/internal/ports"
)

// ErrJobNotReady is returned by JobResult while the job is still running or
// ended without a result.
var ErrJobNotReady = errors.New("parse job not completed")

// StatusCompleted is the job status carrying a result.
const StatusCompleted = "Completed"

// Client talks to the Reducto document parsing API.
type Client struct {
	endpoint   string
	apiKey     string
	webhookURL string
	http       *http.Client
	logger     *slog.Logger
}

var _ ports.Parser = (*Client)(nil)
var _ ports.AsyncParser = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.ParsingConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		webhookURL: cfg.WebhookURL,
		http:       &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Name identifies the parser in the registry.
func (c *Client) Name() string { return config.ParsingModeReducto }

type parseRequest struct {
	DocumentURL string   `json:"document_url"`
	Webhook     *webhook `json:"webhook,omitempty"`
}

type webhook struct {
	Mode     string            `json:"mode"`
	URL      string            `json:"url"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type parseResponse struct {
	JobID  string              `json:"job_id"`
	Result *domain.ParseResult `json:"result"`
}

// JobDetails is the GET /job/{id} payload.
type JobDetails struct {
	Status string `json:"status"`
	Result *struct {
		Result *domain.ParseResult `json:"result"`
	} `json:"result"`
}

// Parse blocks until the document is parsed.
func (c *Client) Parse(ctx context.Context, documentURL string) (domain.ParseResult, error) {
	if c.apiKey == "" {
		return domain.ParseResult{}, fmt.Errorf("reducto api key is not configured")
	}

	var resp parseResponse
	start := time.Now()
	if err := c.post(ctx, "/parse", parseRequest{DocumentURL: documentURL}, &resp); err != nil {
		return domain.ParseResult{}, err
	}
	if resp.Result == nil {
		return domain.ParseResult{}, fmt.Errorf("reducto response has no result")
	}

	c.logger.Debug("document parsed", "job_id", resp.JobID, "chunks", len(resp.Result.Chunks), "elapsed", time.Since(start))
	return *resp.Result, nil
}

// ParseAsync submits a parse job whose completion is delivered to the
// configured webhook with metadata echoed back.
func (c *Client) ParseAsync(ctx context.Context, documentURL string, metadata map[string]string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("reducto api key is not configured")
	}
	if c.webhookURL == "" {
		return "", fmt.Errorf("reducto webhook url is not configured")
	}

	payload := parseRequest{
		DocumentURL: documentURL,
		Webhook:     &webhook{Mode: "direct", URL: c.webhookURL, Metadata: metadata},
	}
	var resp parseResponse
	if err := c.post(ctx, "/parse_async", payload, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("reducto returned no job id")
	}
	return resp.JobID, nil
}

// JobResult fetches a finished job's chunks.
func (c *Client) JobResult(ctx context.Context, jobID string) (domain.ParseResult, error) {
	var job JobDetails
	if err := c.get(ctx, "/job/"+url.PathEscape(jobID), &job); err != nil {
		return domain.ParseResult{}, err
	}
	if job.Status != StatusCompleted {
		return domain.ParseResult{}, fmt.Errorf("%w: status %q", ErrJobNotReady, job.Status)
	}
	if job.Result == nil || job.Result.Result == nil {
		return domain.ParseResult{}, fmt.Errorf("%w: job %s has no result", ErrJobNotReady, jobID)
	}
	return *job.Result.Result, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("reducto %s %s: unexpected status %s: %s",
			req.Method, req.URL.Path, resp.Status, strings.TrimSpace(string(payload)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
