package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/pagegest/internal/layout"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLAnalyzer handles HTML. The <title> element is the document title; an
// h1 is the title only when there is no <title>. h2-h6 are section headings.
type HTMLAnalyzer struct {
	PageRunes int
}

func (a *HTMLAnalyzer) Analyze(r io.Reader, filename string) (*layout.AnalysisResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	b := newResultBuilder(a.PageRunes)
	var title string
	if el := findElement(doc, atom.Title); el != nil {
		title = textContent(el)
	}
	b.paragraph(title, layout.RoleTitle)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.H1:
				role := layout.RoleTitle
				if title != "" {
					role = layout.RoleSectionHeading
				}
				b.paragraph(textContent(n), role)
				return
			case atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				b.paragraph(textContent(n), layout.RoleSectionHeading)
				return
			case atom.Script, atom.Style, atom.Nav, atom.Footer, atom.Header, atom.Noscript, atom.Template:
				return
			case atom.P, atom.Li, atom.Blockquote, atom.Pre, atom.Dt, atom.Dd, atom.Caption, atom.Figcaption:
				b.paragraph(textContent(n), layout.RoleNone)
				return
			case atom.Table:
				b.table(htmlTable(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	// Find <body> or use whole document.
	if body := findElement(doc, atom.Body); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return b.result(), nil
}

// maxTableColumns bounds the column grid of one table.
const maxTableColumns = 1000

// colRange is a half-open run of columns covered in one row.
type colRange struct{ start, end int }

// htmlTable lays out the rows of a <table> on a grid, placing each cell in
// the first column not already covered by a rowspan from above. Cells that
// would start past maxTableColumns are dropped.
func htmlTable(t *html.Node) layout.Table {
	var out layout.Table
	rows := tableRows(t)
	out.RowCount = len(rows)
	covered := make([][]colRange, len(rows))
	for r, tr := range rows {
		col := 0
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
				continue
			}
			col = nextFreeColumn(covered[r], col)
			if col >= maxTableColumns {
				break
			}
			rs := min(spanAttr(c, "rowspan"), len(rows)-r)
			cs := min(spanAttr(c, "colspan"), maxTableColumns-col)
			for i := r + 1; i < r+rs; i++ {
				covered[i] = append(covered[i], colRange{col, col + cs})
			}

			kind := layout.CellData
			if c.DataAtom == atom.Th {
				kind = layout.CellRowHeader
				if r == 0 || tr.Parent.DataAtom == atom.Thead {
					kind = layout.CellColumnHeader
				}
			}
			out.Cells = append(out.Cells, layout.Cell{
				RowIndex:    r,
				ColumnIndex: col,
				RowSpan:     rs,
				ColumnSpan:  cs,
				Kind:        kind,
				Content:     textContent(c),
			})
			out.ColumnCount = max(out.ColumnCount, col+cs)
			col += cs
		}
	}
	return out
}

// nextFreeColumn returns the first column at or after col outside every
// covered range.
func nextFreeColumn(covered []colRange, col int) int {
	for moved := true; moved; {
		moved = false
		for _, rg := range covered {
			if col >= rg.start && col < rg.end {
				col = rg.end
				moved = true
			}
		}
	}
	return col
}

// tableRows returns the <tr> elements of t in document order, including
// those inside thead/tbody/tfoot but not those of nested tables.
func tableRows(t *html.Node) []*html.Node {
	var rows []*html.Node
	for c := t.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Tr:
			rows = append(rows, c)
		case atom.Thead, atom.Tbody, atom.Tfoot:
			for tr := c.FirstChild; tr != nil; tr = tr.NextSibling {
				if tr.Type == html.ElementNode && tr.DataAtom == atom.Tr {
					rows = append(rows, tr)
				}
			}
		}
	}
	return rows
}

func spanAttr(n *html.Node, name string) int {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && v > 1 {
				return min(v, 1000)
			}
		}
	}
	return 1
}

// textContent returns the whitespace-collapsed text under n.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
