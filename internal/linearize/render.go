package linearize

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/pagegest/internal/layout"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RenderTable renders a table as a single <table> element. Rows cover
// 0..RowCount; cells within a row are ordered by column. Cell text is
// escaped by the HTML serializer. The output depends only on the table.
func RenderTable(t layout.Table) string {
	rows := make([][]layout.Cell, max(t.RowCount, 0))
	for _, c := range t.Cells {
		if c.RowIndex < 0 || c.RowIndex >= len(rows) {
			continue
		}
		rows[c.RowIndex] = append(rows[c.RowIndex], c)
	}

	table := element(atom.Table)
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool {
			return row[i].ColumnIndex < row[j].ColumnIndex
		})
		tr := element(atom.Tr)
		for _, c := range row {
			tr.AppendChild(renderCell(c))
		}
		table.AppendChild(tr)
	}

	var sb strings.Builder
	// Writes to a strings.Builder cannot fail and the tree has no void
	// elements with children, so Render never returns an error here.
	_ = html.Render(&sb, table)
	return sb.String()
}

func renderCell(c layout.Cell) *html.Node {
	tag := atom.Td
	if c.Kind.IsHeader() {
		tag = atom.Th
	}
	n := element(tag)
	if c.ColumnSpan > 1 {
		n.Attr = append(n.Attr, html.Attribute{Key: "colSpan", Val: strconv.Itoa(c.ColumnSpan)})
	}
	if c.RowSpan > 1 {
		n.Attr = append(n.Attr, html.Attribute{Key: "rowSpan", Val: strconv.Itoa(c.RowSpan)})
	}
	if c.Content != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: c.Content})
	}
	return n
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}
