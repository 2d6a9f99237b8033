package mathpix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned when no API credentials are present. Callers
// fall back to the plain text extractor.
var ErrNotConfigured = errors.New("mathpix credentials not configured")

// ErrConversionFailed is returned when the service reports an error status
// for a submitted document.
var ErrConversionFailed = errors.New("mathpix conversion failed")

// Config holds Mathpix API credentials and endpoint.
type Config struct {
	AppID   string
	AppKey  string
	BaseURL string // e.g. https://api.mathpix.com/v3
}

// Line is one recognized text line with its confidence score.
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Page groups the recognized lines of a single PDF page.
type Page struct {
	Page  int    `json:"page"`
	Lines []Line `json:"lines"`
}

// Document is the recognized content of a whole PDF.
type Document struct {
	Pages []Page `json:"pages"`
}

// Client talks to the Mathpix PDF OCR API: submit, poll, fetch lines.
type Client struct {
	config Config
	http   *http.Client
	logger zerolog.Logger

	pollInterval time.Duration
}

// NewClient creates a Mathpix client.
func NewClient(config Config, logger zerolog.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.mathpix.com/v3"
	}
	return &Client{
		config:       config,
		http:         &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
		pollInterval: 2 * time.Second,
	}
}

// IsConfigured reports whether API credentials are present.
func (c *Client) IsConfigured() bool {
	return c.config.AppID != "" && c.config.AppKey != ""
}

// ConvertPDF submits a PDF and blocks until recognition finishes or ctx is
// done. Returns the recognized lines per page.
func (c *Client) ConvertPDF(ctx context.Context, filePath string) (*Document, error) {
	if !c.IsConfigured() {
		c.logger.Warn().Str("file", filepath.Base(filePath)).Msg("Mathpix credentials not configured, skipping OCR")
		return nil, ErrNotConfigured
	}

	pdfID, err := c.submit(ctx, filePath)
	if err != nil {
		return nil, err
	}

	if err := c.waitCompleted(ctx, pdfID); err != nil {
		return nil, err
	}

	return c.fetchLines(ctx, pdfID)
}

func (c *Client) submit(ctx context.Context, filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/pdf", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuthHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("mathpix submit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mathpix submit returned status %d", resp.StatusCode)
	}

	var out struct {
		PDFID string `json:"pdf_id"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode submit response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrConversionFailed, out.Error)
	}
	if out.PDFID == "" {
		return "", fmt.Errorf("%w: empty pdf id", ErrConversionFailed)
	}

	c.logger.Debug().Str("pdfId", out.PDFID).Msg("Mathpix accepted document")
	return out.PDFID, nil
}

func (c *Client) waitCompleted(ctx context.Context, pdfID string) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/pdf/"+pdfID, nil)
		if err != nil {
			return err
		}
		c.setAuthHeaders(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("mathpix status request failed: %w", err)
		}

		var out struct {
			Status string `json:"status"`
		}
		err = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		switch out.Status {
		case "completed":
			return nil
		case "error":
			return ErrConversionFailed
		}
		// still processing, poll again
	}
}

func (c *Client) fetchLines(ctx context.Context, pdfID string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/pdf/"+pdfID+".lines.json", nil)
	if err != nil {
		return nil, err
	}
	c.setAuthHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mathpix lines request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mathpix lines returned status %d", resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode lines response: %w", err)
	}

	return &doc, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("app_id", c.config.AppID)
	req.Header.Set("app_key", c.config.AppKey)
}
