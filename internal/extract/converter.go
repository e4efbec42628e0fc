package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ConverterClient talks to an external document conversion service that
// renders PDF, Word and spreadsheet files to markdown, one string per page.
// The same service exposes an OCR endpoint for scanned pages. The client
// never inspects provider-specific failures; any non-2xx response is an
// extraction error.
type ConverterClient struct {
	url    string
	client *http.Client
}

// ConverterConfig configures the conversion service client.
type ConverterConfig struct {
	URL     string
	Timeout time.Duration
}

// NewConverterClient creates a client for the conversion service.
func NewConverterClient(cfg ConverterConfig) *ConverterClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &ConverterClient{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
	}
}

// Extract implements domain.Extractor via the /convert endpoint.
func (c *ConverterClient) Extract(ctx context.Context, path string) ([]string, error) {
	return c.post(ctx, c.url+"/convert", path)
}

// Recognize implements domain.OCREngine via the /ocr endpoint.
func (c *ConverterClient) Recognize(ctx context.Context, path string) ([]string, error) {
	return c.post(ctx, c.url+"/ocr", path)
}

func (c *ConverterClient) post(ctx context.Context, url, path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("converter POST %s failed: %s", url, resp.Status)
	}

	var out struct {
		Pages []string `json:"pages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode converter response: %w", err)
	}
	return out.Pages, nil
}
