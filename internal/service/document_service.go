// Package service composes the ingestion and chat pipelines on top of the
// retrieval store and the external collaborators.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docqa/internal/domain"
	"docqa/internal/extract"
	"docqa/internal/logger"
)

// allowedExtensions is the upload allow-list.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".docx": true,
	".xlsx": true,
}

// DocumentService ingests uploaded files and manages document lifecycle.
type DocumentService struct {
	store     domain.RetrievalStore
	extractor *extract.Service
	chunker   domain.Chunker
	uploadDir string
	maxBytes  int64
	logger    *slog.Logger
}

// NewDocumentService creates the ingestion service. maxFileSizeMB bounds
// accepted uploads.
func NewDocumentService(store domain.RetrievalStore, extractor *extract.Service, chunker domain.Chunker, uploadDir string, maxFileSizeMB int) *DocumentService {
	return &DocumentService{
		store:     store,
		extractor: extractor,
		chunker:   chunker,
		uploadDir: uploadDir,
		maxBytes:  int64(maxFileSizeMB) * 1024 * 1024,
		logger:    logger.ForComponent("documents"),
	}
}

// MaxBytes returns the upload size limit, letting the transport layer
// reject oversized bodies before buffering them.
func (s *DocumentService) MaxBytes() int64 { return s.maxBytes }

// Ingest validates, extracts, chunks, embeds and indexes one uploaded file.
// The operation is atomic for the caller: either the result reports the
// committed chunk count, or a typed error names the failing stage and no
// state was committed.
func (s *DocumentService) Ingest(ctx context.Context, filename string, content []byte) (domain.UploadResult, error) {
	var zero domain.UploadResult

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return zero, &domain.ValidationError{
			Reason: fmt.Sprintf("unsupported file type %q, supported: .pdf, .txt, .docx, .xlsx", ext),
			Err:    domain.ErrUnsupportedType,
		}
	}
	if int64(len(content)) > s.maxBytes {
		return zero, &domain.ValidationError{
			Reason: fmt.Sprintf("file size %.1fMB exceeds maximum %dMB",
				float64(len(content))/(1024*1024), s.maxBytes/(1024*1024)),
			Err: domain.ErrFileTooLarge,
		}
	}

	path, err := s.saveTemp(content, ext)
	if err != nil {
		return zero, domain.NewStageError(domain.StageExtraction, err)
	}
	// Temp artifacts are best-effort cleanup; a failed remove must not fail
	// the ingestion.
	defer func() {
		if err := os.Remove(path); err != nil {
			s.logger.Warn("temp file cleanup failed", slog.String("path", path))
		}
	}()

	text, err := s.extractor.Text(ctx, path)
	if err != nil {
		return zero, domain.NewStageError(domain.StageExtraction, err)
	}

	kind := domain.KindText
	if ext == ".xlsx" {
		kind = domain.KindTable
	}
	documentID := uuid.NewString()
	chunks := s.chunker.Chunk(text, documentID, filename, kind)
	if len(chunks) == 0 {
		return zero, domain.NewStageError(domain.StageChunking, fmt.Errorf("no extractable content in %s", filename))
	}

	count, err := s.store.Add(ctx, chunks)
	if err != nil {
		return zero, err
	}

	s.logger.Info("document ingested",
		slog.String("document_id", documentID),
		slog.String("filename", filename),
		slog.Int("chunks", count))
	return domain.UploadResult{DocumentID: documentID, Filename: filename, TotalChunks: count}, nil
}

// List aggregates stored chunks into per-document totals split by kind.
func (s *DocumentService) List() []domain.DocumentInfo {
	return s.store.Documents()
}

// Delete removes a document and returns a human-readable result. Deleting
// an unknown document is a no-op, not an error.
func (s *DocumentService) Delete(ctx context.Context, documentID string) (string, error) {
	removed, err := s.store.DeleteDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Removed %d chunks for document %s", removed, documentID), nil
}

// DeleteAll clears every document.
func (s *DocumentService) DeleteAll() error {
	return s.store.DeleteAll()
}

func (s *DocumentService) saveTemp(content []byte, ext string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(s.uploadDir, "upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
