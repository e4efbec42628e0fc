package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	pages []string
	err   error
}

func (f fakeExtractor) Extract(context.Context, string) ([]string, error) {
	return f.pages, f.err
}

type fakeOCR struct {
	pages  []string
	err    error
	called bool
}

func (f *fakeOCR) Recognize(context.Context, string) ([]string, error) {
	f.called = true
	return f.pages, f.err
}

func TestIsScanned(t *testing.T) {
	assert.True(t, IsScanned(nil))
	assert.True(t, IsScanned([]string{"", "   ", "\n\t"}))
	assert.False(t, IsScanned([]string{"", "some text", ""}))
}

func TestTextPrefersTrueTextPath(t *testing.T) {
	ocr := &fakeOCR{pages: []string{"ocr text"}}
	svc := NewService(ocr)
	svc.Register(".pdf", fakeExtractor{pages: []string{"page one", "page two"}})

	text, err := svc.Text(context.Background(), "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "page one\n\npage two", text)
	assert.False(t, ocr.called, "OCR must not run when a text layer exists")
}

func TestTextFallsBackToOCR(t *testing.T) {
	ocr := &fakeOCR{pages: []string{"recognized page"}}
	svc := NewService(ocr)
	svc.Register(".pdf", fakeExtractor{pages: []string{"", "  "}})

	text, err := svc.Text(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "recognized page", text)
	assert.True(t, ocr.called)
}

func TestTextScannedWithoutOCRFails(t *testing.T) {
	svc := NewService(nil)
	svc.Register(".pdf", fakeExtractor{pages: []string{""}})

	_, err := svc.Text(context.Background(), "scan.pdf")
	assert.Error(t, err)
}

func TestTextUnknownExtension(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Text(context.Background(), "file.zip")
	assert.Error(t, err)
}

func TestTextExtractorFailure(t *testing.T) {
	svc := NewService(nil)
	svc.Register(".docx", fakeExtractor{err: errors.New("backend down")})

	_, err := svc.Text(context.Background(), "doc.docx")
	assert.Error(t, err)
}

func TestPlaintextExtractor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello from a text file"), 0o644))

	pages, err := Plaintext{}.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "hello from a text file", pages[0])
}
