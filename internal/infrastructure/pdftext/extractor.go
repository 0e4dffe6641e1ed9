package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"RfpIntel/internal/config"
	"RfpIntel/internal/domain"
	"RfpIntel/internal/ports"
)

const maxDocumentBytes = 64 << 20

// Extractor downloads a PDF and extracts its text locally, one chunk per
// page. It trades layout fidelity for having no parsing service dependency.
type Extractor struct {
	http   *http.Client
	logger *slog.Logger
}

var _ ports.Parser = (*Extractor)(nil)

// NewExtractor builds a local extractor.
func NewExtractor(timeout time.Duration, logger *slog.Logger) *Extractor {
	if timeout <= 0 {
		timeout = time.Minute
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{http: &http.Client{Timeout: timeout}, logger: logger}
}

// Name identifies the parser in the registry.
func (e *Extractor) Name() string { return config.ParsingModeLocal }

// Parse fetches documentURL and extracts its pages.
func (e *Extractor) Parse(ctx context.Context, documentURL string) (domain.ParseResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, documentURL, nil)
	if err != nil {
		return domain.ParseResult{}, fmt.Errorf("new request: %w", err)
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return domain.ParseResult{}, fmt.Errorf("download document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ParseResult{}, fmt.Errorf("download document: unexpected status %s", resp.Status)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return domain.ParseResult{}, fmt.Errorf("read document: %w", err)
	}
	if len(content) > maxDocumentBytes {
		return domain.ParseResult{}, fmt.Errorf("document exceeds %d bytes", maxDocumentBytes)
	}

	result, err := ExtractPages(content)
	if err != nil {
		return domain.ParseResult{}, err
	}
	e.logger.Debug("document extracted", "url", documentURL, "pages", len(result.Chunks))
	return result, nil
}

// ExtractPages turns PDF bytes into one chunk per non-empty page. Pages are
// newline terminated except the last so flattened text keeps page breaks.
func ExtractPages(content []byte) (domain.ParseResult, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return domain.ParseResult{}, fmt.Errorf("open PDF: %w", err)
	}

	var result domain.ParseResult
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return domain.ParseResult{}, fmt.Errorf("extract page %d: %w", i, err)
		}
		text = strings.TrimRight(text, " \n")
		if text == "" {
			continue
		}
		result.Chunks = append(result.Chunks, domain.Chunk{Blocks: []domain.Block{{Content: text}}})
	}

	for i := 0; i < len(result.Chunks)-1; i++ {
		result.Chunks[i].Blocks[0].Content += "\n"
	}
	return result, nil
}
