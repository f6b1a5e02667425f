package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/pagegest/internal/layout"
)

// TextAnalyzer handles plain text. Paragraphs are separated by blank lines
// and a form feed forces a page break.
type TextAnalyzer struct {
	PageRunes int
}

func (a *TextAnalyzer) Analyze(r io.Reader, filename string) (*layout.AnalysisResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	b := newResultBuilder(a.PageRunes)
	for i, page := range strings.Split(string(data), "\f") {
		if i > 0 {
			b.breakPage()
		}
		for _, para := range splitParagraphs(page) {
			b.paragraph(para, layout.RoleNone)
		}
	}
	return b.result(), nil
}
