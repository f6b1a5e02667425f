package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/pagegest/internal/layout"
)

// DefaultPageRunes is the soft page size for formats without real pages.
// A page is closed at the first paragraph boundary past this size.
const DefaultPageRunes = 4000

// resultBuilder accumulates an AnalysisResult, tracking rune offsets so
// every page and table span points into Content.
type resultBuilder struct {
	content   strings.Builder
	offset    int // runes written so far
	pageStart int
	maxRunes  int // 0 disables soft pagination
	res       layout.AnalysisResult
}

func newResultBuilder(maxRunes int) *resultBuilder {
	return &resultBuilder{maxRunes: maxRunes}
}

func (b *resultBuilder) pageNumber() int {
	return len(b.res.Pages) + 1
}

func (b *resultBuilder) pageLen() int {
	return b.offset - b.pageStart
}

func (b *resultBuilder) write(s string) layout.Span {
	span := layout.Span{Offset: b.offset, Length: utf8.RuneCountInString(s)}
	b.content.WriteString(s)
	b.offset += span.Length
	return span
}

// fit starts a new page when adding n runes would overflow a non-empty page.
func (b *resultBuilder) fit(n int) {
	if b.maxRunes > 0 && b.pageLen() > 0 && b.pageLen()+n > b.maxRunes {
		b.breakPage()
	}
}

// paragraph appends text as one paragraph. Blank text is ignored.
func (b *resultBuilder) paragraph(text string, role layout.Role) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if role != layout.RoleTitle {
		b.fit(utf8.RuneCountInString(text))
	}
	b.write(text)
	b.write("\n")
	b.res.Paragraphs = append(b.res.Paragraphs, layout.Paragraph{
		Content:    text,
		Role:       role,
		PageNumber: b.pageNumber(),
	})
}

// table appends the cell text of t to the content and records the table
// with a span covering it. Cells must be in row-major order.
func (b *resultBuilder) table(t layout.Table) {
	if len(t.Cells) == 0 {
		return
	}
	var sb strings.Builder
	row := t.Cells[0].RowIndex
	for i, c := range t.Cells {
		if i > 0 {
			if c.RowIndex != row {
				sb.WriteString("\n")
				row = c.RowIndex
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(c.Content)
	}
	text := sb.String()
	b.fit(utf8.RuneCountInString(text))

	span := b.write(text)
	b.write("\n")
	t.PageNumber = b.pageNumber()
	if span.Length > 0 {
		t.Spans = []layout.Span{span}
	}
	b.res.Tables = append(b.res.Tables, t)
}

// breakPage closes the current page and opens the next.
func (b *resultBuilder) breakPage() {
	b.res.Pages = append(b.res.Pages, layout.Page{
		Index: len(b.res.Pages),
		Span:  layout.Span{Offset: b.pageStart, Length: b.pageLen()},
	})
	b.pageStart = b.offset
}

// result closes the last page and returns the analysis. A document always
// has at least one page.
func (b *resultBuilder) result() *layout.AnalysisResult {
	if b.pageLen() > 0 || len(b.res.Pages) == 0 {
		b.breakPage()
	}
	b.res.Content = b.content.String()
	res := b.res
	return &res
}

// splitParagraphs splits text on blank lines, keeping single line breaks
// inside a paragraph.
func splitParagraphs(text string) []string {
	var paragraphs []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return paragraphs
}
