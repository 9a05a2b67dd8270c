// Package extract converts raw document bytes into page-marked markdown
// without calling any external service. It is the fallback extraction path
// when no OCR service is configured; scanned documents need real OCR and
// are out of its reach.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// SupportedExtensions lists file extensions the local extractor handles.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
}

// IsSupported reports whether a filename can be handled locally.
func IsSupported(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Local extracts text from documents on this machine.
type Local struct {
	// FallbackPdftotext enables shelling out to pdftotext when the Go PDF
	// library cannot read a file.
	FallbackPdftotext bool
}

// Extract returns page-marked markdown and a page count. The context is
// accepted for interface parity with the OCR client; local extraction does
// not block on anything cancellable.
func (l *Local) Extract(_ context.Context, data []byte, filename string) (string, int, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return l.extractPDF(data)
	case ".docx":
		return extractDOCX(data)
	case ".html", ".htm":
		return extractHTML(data)
	case ".md", ".markdown", ".txt":
		return passthrough(data)
	default:
		return "", 0, fmt.Errorf("unsupported file extension: %s", filepath.Ext(filename))
	}
}

// passthrough wraps already-textual content. Existing page markers in the
// input are respected; markerless input becomes a single page.
func passthrough(data []byte) (string, int, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", 0, fmt.Errorf("document is empty")
	}
	return text, countMarkedPages(text), nil
}

func countMarkedPages(markdown string) int {
	n := strings.Count(markdown, "\n--- Page ")
	if strings.HasPrefix(markdown, "--- Page ") {
		n++
	}
	if n == 0 {
		return 1
	}
	return n
}

// pageMarked joins per-page text with markers the splitter recognizes.
func pageMarked(pages []string) (string, int) {
	var b strings.Builder
	n := 0
	for _, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		if n > 0 {
			b.WriteString("\n\n")
		}
		n++
		fmt.Fprintf(&b, "--- Page %d ---\n\n", n)
		b.WriteString(page)
	}
	return b.String(), n
}
