// Package extract turns uploaded files into text, routing scanned
// documents through OCR. Parsing backends are external collaborators hidden
// behind the domain.Extractor and domain.OCREngine interfaces.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docqa/internal/domain"
)

// Service selects an extractor by file extension and applies the OCR
// fallback for scanned documents.
type Service struct {
	extractors map[string]domain.Extractor
	ocr        domain.OCREngine
}

// NewService creates an extraction service. The ocr engine may be nil, in
// which case scanned documents fail extraction with a typed error.
func NewService(ocr domain.OCREngine) *Service {
	return &Service{extractors: make(map[string]domain.Extractor), ocr: ocr}
}

// Register binds an extractor to a file extension (with leading dot).
func (s *Service) Register(ext string, extractor domain.Extractor) {
	s.extractors[strings.ToLower(ext)] = extractor
}

// Supported reports whether the extension has a registered extractor.
func (s *Service) Supported(ext string) bool {
	_, ok := s.extractors[strings.ToLower(ext)]
	return ok
}

// Text extracts the document at path into a single text. When every page
// lacks extractable text the document is treated as scanned and routed to
// OCR; a single page with real text takes the cheap true-text path.
func (s *Service) Text(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extractor, ok := s.extractors[ext]
	if !ok {
		return "", fmt.Errorf("no extractor for %s", ext)
	}
	pages, err := extractor.Extract(ctx, path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", ext, err)
	}

	if IsScanned(pages) {
		if s.ocr == nil {
			return "", fmt.Errorf("document has no text layer and no OCR engine is configured")
		}
		pages, err = s.ocr.Recognize(ctx, path)
		if err != nil {
			return "", fmt.Errorf("ocr: %w", err)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// IsScanned reports whether every page lacks extractable text. A single
// page with non-whitespace text means the document is not scanned.
func IsScanned(pages []string) bool {
	for _, page := range pages {
		if strings.TrimSpace(page) != "" {
			return false
		}
	}
	return true
}

// Plaintext reads the file as-is, returning one page. It serves .txt
// uploads without an external backend.
type Plaintext struct{}

// Extract implements domain.Extractor.
func (Plaintext) Extract(_ context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []string{string(data)}, nil
}
