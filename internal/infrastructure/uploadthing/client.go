package uploadthing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"RfpIntel/internal/config"
	"RfpIntel/internal/domain"
	"RfpIntel/internal/ports"
)

const pageSize = 500

// Client lists uploaded files through the UploadThing REST API. Each
// logical folder is a separate app addressed by its own API key.
type Client struct {
	endpoint    string
	fileBaseURL string
	tokens      map[string]string
	http        *http.Client
	logger      *slog.Logger
}

var _ ports.FileStorage = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.StorageConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		fileBaseURL: cfg.FileBaseURL,
		tokens:      cfg.Folders,
		http:        &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type listRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type listResponse struct {
	HasMore bool       `json:"hasMore"`
	Files   []fileInfo `json:"files"`
}

type fileInfo struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	UploadedAt int64  `json:"uploadedAt"`
}

// ListFiles returns every uploaded file in folder, following pagination.
func (c *Client) ListFiles(ctx context.Context, folder string) ([]domain.ExternalFile, error) {
	token := c.tokens[folder]
	if token == "" {
		return nil, fmt.Errorf("no storage api key configured for folder %q", folder)
	}

	files := make([]domain.ExternalFile, 0)
	for offset := 0; ; offset += pageSize {
		var page listResponse
		if err := c.post(ctx, token, "/v6/listFiles", listRequest{Limit: pageSize, Offset: offset}, &page); err != nil {
			return nil, err
		}
		for _, f := range page.Files {
			if f.Status != "" && f.Status != "Uploaded" {
				continue
			}
			files = append(files, domain.ExternalFile{
				Name:       f.Name,
				Key:        f.Key,
				UploadedAt: time.UnixMilli(f.UploadedAt).UTC(),
			})
		}
		if !page.HasMore || len(page.Files) == 0 {
			break
		}
	}

	c.logger.Debug("files listed", slog.String("folder", folder), slog.Int("count", len(files)))
	return files, nil
}

// FileURL builds the public download URL for key.
func (c *Client) FileURL(key string) string {
	return c.fileBaseURL + key
}

func (c *Client) post(ctx context.Context, token, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-uploadthing-api-key", token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("uploadthing %s: unexpected status %s: %s", path, resp.Status, strings.TrimSpace(string(payload)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
