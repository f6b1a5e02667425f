package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/pagegest/internal/layout"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownAnalyzer handles Markdown using goldmark with GFM tables.
// A level-1 heading is the document title; deeper headings are section
// headings.
type MarkdownAnalyzer struct {
	PageRunes int
}

func (a *MarkdownAnalyzer) Analyze(r io.Reader, filename string) (*layout.AnalysisResult, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	b := newResultBuilder(a.PageRunes)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			role := layout.RoleSectionHeading
			if node.Level == 1 {
				role = layout.RoleTitle
			}
			b.paragraph(inlineText(node, src), role)
		case *extast.Table:
			b.table(markdownTable(node, src))
		case *ast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				b.paragraph(inlineText(item, src), layout.RoleNone)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			b.paragraph(blockLines(n, src), layout.RoleNone)
		case *ast.ThematicBreak:
		default:
			b.paragraph(inlineText(n, src), layout.RoleNone)
		}
	}
	return b.result(), nil
}

func markdownTable(t *extast.Table, src []byte) layout.Table {
	var out layout.Table
	row := 0
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		kind := layout.CellData
		if _, ok := r.(*extast.TableHeader); ok {
			kind = layout.CellColumnHeader
		}
		col := 0
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			out.Cells = append(out.Cells, layout.Cell{
				RowIndex:    row,
				ColumnIndex: col,
				RowSpan:     1,
				ColumnSpan:  1,
				Kind:        kind,
				Content:     inlineText(c, src),
			})
			col++
		}
		out.ColumnCount = max(out.ColumnCount, col)
		row++
	}
	out.RowCount = row
	return out
}

// inlineText collects the text of n's inline descendants. Line breaks
// inside a paragraph are kept.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.TextBlock, *ast.Paragraph:
			if buf.Len() > 0 && c != n {
				buf.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

// blockLines returns the raw source lines of a block such as a code block.
func blockLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}
