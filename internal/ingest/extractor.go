package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
	"github.com/qpaperai/qpaper-api/internal/pkg/mathpix"
)

// Block is one extracted text line with its OCR confidence.
type Block struct {
	Text       string
	Confidence float64
}

// PageExtraction is the extracted content of a single page.
type PageExtraction struct {
	PageNumber int
	Blocks     []Block
}

// Extractor turns a stored paper file into per-page text blocks.
type Extractor interface {
	Name() string
	ExtractPages(ctx context.Context, filePath string) ([]PageExtraction, error)
}

// MathpixExtractor runs PDFs through the Mathpix OCR API.
type MathpixExtractor struct {
	client *mathpix.Client
}

// NewMathpixExtractor creates an extractor backed by a Mathpix client
func NewMathpixExtractor(client *mathpix.Client) *MathpixExtractor {
	return &MathpixExtractor{client: client}
}

// Name identifies the extractor in extraction reports
func (e *MathpixExtractor) Name() string { return "mathpix" }

// ExtractPages converts the PDF and flattens recognized lines into blocks.
// Returns mathpix.ErrNotConfigured when no credentials are present so the
// pipeline can fall through to the next extractor.
func (e *MathpixExtractor) ExtractPages(ctx context.Context, filePath string) ([]PageExtraction, error) {
	document, err := e.client.ConvertPDF(ctx, filePath)
	if err != nil {
		return nil, err
	}

	pages := make([]PageExtraction, 0, len(document.Pages))
	for _, page := range document.Pages {
		blocks := make([]Block, 0, len(page.Lines))
		for _, line := range page.Lines {
			text := strings.TrimSpace(line.Text)
			if text == "" {
				continue
			}
			blocks = append(blocks, Block{Text: text, Confidence: line.Confidence})
		}
		pages = append(pages, PageExtraction{PageNumber: page.Page, Blocks: blocks})
	}

	return pages, nil
}

// PlainTextExtractor reads a sidecar text file next to the stored paper.
// It keeps local development and tests working without OCR credentials:
// pages are separated by form feeds, one block per line, confidence 1.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates the fallback extractor
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Name identifies the extractor in extraction reports
func (e *PlainTextExtractor) Name() string { return "plaintext" }

// ExtractPages reads the paper's text content from the file itself (when it
// is already a .txt) or from a "<file>.txt" sidecar.
func (e *PlainTextExtractor) ExtractPages(ctx context.Context, filePath string) ([]PageExtraction, error) {
	path, err := e.resolve(filePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text content: %w", err)
	}

	pageTexts := strings.Split(string(data), "\f")
	pages := make([]PageExtraction, 0, len(pageTexts))
	for i, pageText := range pageTexts {
		blocks := make([]Block, 0)
		for _, line := range strings.Split(pageText, "\n") {
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			blocks = append(blocks, Block{Text: text, Confidence: 1})
		}
		pages = append(pages, PageExtraction{PageNumber: i + 1, Blocks: blocks})
	}

	return pages, nil
}

func (e *PlainTextExtractor) resolve(filePath string) (string, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".txt") {
		return filePath, nil
	}

	sidecar := filePath + ".txt"
	if _, err := os.Stat(sidecar); err == nil {
		return sidecar, nil
	}

	trimmed := strings.TrimSuffix(filePath, filepath.Ext(filePath)) + ".txt"
	if _, err := os.Stat(trimmed); err == nil {
		return trimmed, nil
	}

	return "", fmt.Errorf("%w: no text content for %s", apperrors.ErrUnsupportedFile, filepath.Base(filePath))
}
