// Package parser is the local layout analyzer: it turns document bytes into
// the same AnalysisResult an external layout engine produces.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/pagegest/internal/layout"
)

// Analyzer converts raw document bytes into a layout analysis.
type Analyzer interface {
	Analyze(r io.Reader, filename string) (*layout.AnalysisResult, error)
}

// Options tune the analyzers returned by ForFile.
type Options struct {
	PageRunes         int  // soft page size for unpaged formats; 0 uses DefaultPageRunes
	FallbackPdftotext bool // retry PDFs with pdftotext when the Go reader fails
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate analyzer for a filename.
func ForFile(filename string, opts Options) (Analyzer, error) {
	pageRunes := opts.PageRunes
	if pageRunes <= 0 {
		pageRunes = DefaultPageRunes
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextAnalyzer{PageRunes: pageRunes}, nil
	case ".md", ".markdown":
		return &MarkdownAnalyzer{PageRunes: pageRunes}, nil
	case ".csv":
		return &CSVAnalyzer{}, nil
	case ".html", ".htm":
		return &HTMLAnalyzer{PageRunes: pageRunes}, nil
	case ".pdf":
		return &PDFAnalyzer{FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".docx":
		return &DOCXAnalyzer{PageRunes: pageRunes}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
