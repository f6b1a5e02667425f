package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/pagegest/internal/layout"
	"github.com/fumiama/go-docx"
)

// DOCXAnalyzer handles .docx files. The Title style marks the document
// title, Heading styles mark section headings, and tables keep their cell
// grid.
type DOCXAnalyzer struct {
	PageRunes int
}

func (a *DOCXAnalyzer) Analyze(r io.Reader, filename string) (*layout.AnalysisResult, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "pagegest-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	b := newResultBuilder(a.PageRunes)
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			b.paragraph(docxParagraphText(it), docxRole(it))
		case *docx.Table:
			b.table(docxTable(it))
		}
	}
	return b.result(), nil
}

func docxRole(para *docx.Paragraph) layout.Role {
	if para.Properties == nil || para.Properties.Style == nil {
		return layout.RoleNone
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	switch {
	case style == "title":
		return layout.RoleTitle
	case strings.HasPrefix(style, "heading"):
		return layout.RoleSectionHeading
	}
	return layout.RoleNone
}

func docxTable(t *docx.Table) layout.Table {
	var out layout.Table
	for r, row := range t.TableRows {
		for c, cell := range row.TableCells {
			var parts []string
			for _, p := range cell.Paragraphs {
				if s := docxParagraphText(p); s != "" {
					parts = append(parts, s)
				}
			}
			out.Cells = append(out.Cells, layout.Cell{
				RowIndex:    r,
				ColumnIndex: c,
				RowSpan:     1,
				ColumnSpan:  1,
				Content:     strings.Join(parts, "\n"),
			})
		}
		out.ColumnCount = max(out.ColumnCount, len(row.TableCells))
	}
	out.RowCount = len(t.TableRows)
	return out
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
