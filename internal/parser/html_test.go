package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/pagegest/internal/layout"
)

func TestHTMLAnalyzer_TitleAndHeadings(t *testing.T) {
	input := `<html><head><title>Annual Report</title><style>p{}</style></head>
<body>
<nav>skip me</nav>
<h1>Overview</h1>
<p>First   paragraph.</p>
<h2>Revenue</h2>
<ul><li>item one</li><li>item two</li></ul>
<script>var x = 1;</script>
</body></html>`
	res, err := (&HTMLAnalyzer{}).Analyze(strings.NewReader(input), "r.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		content string
		role    layout.Role
	}{
		{"Annual Report", layout.RoleTitle},
		{"Overview", layout.RoleSectionHeading},
		{"First paragraph.", layout.RoleNone},
		{"Revenue", layout.RoleSectionHeading},
		{"item one", layout.RoleNone},
		{"item two", layout.RoleNone},
	}
	if len(res.Paragraphs) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d: %+v", len(want), len(res.Paragraphs), res.Paragraphs)
	}
	for i, w := range want {
		p := res.Paragraphs[i]
		if p.Content != w.content || p.Role != w.role {
			t.Errorf("paragraph[%d]: expected %q/%s, got %q/%s", i, w.content, w.role, p.Content, p.Role)
		}
	}
	if strings.Contains(res.Content, "skip me") || strings.Contains(res.Content, "var x") {
		t.Errorf("non-content elements leaked into %q", res.Content)
	}
}

func TestHTMLAnalyzer_H1IsTitleWithoutTitleElement(t *testing.T) {
	res, err := (&HTMLAnalyzer{}).Analyze(strings.NewReader("<h1>Guide</h1><p>x</p>"), "g.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Paragraphs[0].Role != layout.RoleTitle {
		t.Errorf("expected h1 to be the title, got %s", res.Paragraphs[0].Role)
	}
}

func TestHTMLAnalyzer_TableSpans(t *testing.T) {
	input := `<table>
<thead><tr><th>Region</th><th colspan="2">Sales</th></tr></thead>
<tbody>
<tr><th rowspan="2">North</th><td>1</td><td>2</td></tr>
<tr><td>3</td><td>4</td></tr>
</tbody>
</table>`
	res, err := (&HTMLAnalyzer{}).Analyze(strings.NewReader(input), "t.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(res.Tables))
	}
	tbl := res.Tables[0]
	if tbl.RowCount != 3 || tbl.ColumnCount != 3 {
		t.Fatalf("expected 3x3 table, got %dx%d", tbl.RowCount, tbl.ColumnCount)
	}

	type pos struct{ row, col, rs, cs int }
	want := map[string]pos{
		"Region": {0, 0, 1, 1},
		"Sales":  {0, 1, 1, 2},
		"North":  {1, 0, 2, 1},
		"1":      {1, 1, 1, 1},
		"2":      {1, 2, 1, 1},
		"3":      {2, 1, 1, 1},
		"4":      {2, 2, 1, 1},
	}
	for _, c := range tbl.Cells {
		w, ok := want[c.Content]
		if !ok {
			t.Errorf("unexpected cell %q", c.Content)
			continue
		}
		got := pos{c.RowIndex, c.ColumnIndex, c.RowSpan, c.ColumnSpan}
		if got != w {
			t.Errorf("cell %q: expected %+v, got %+v", c.Content, w, got)
		}
	}
	kinds := map[string]layout.CellKind{}
	for _, c := range tbl.Cells {
		kinds[c.Content] = c.Kind
	}
	if kinds["Sales"] != layout.CellColumnHeader {
		t.Errorf("expected Sales to be a column header, got %s", kinds["Sales"])
	}
	if kinds["North"] != layout.CellRowHeader {
		t.Errorf("expected North to be a row header, got %s", kinds["North"])
	}
	if kinds["3"] != layout.CellData {
		t.Errorf("expected 3 to be data, got %s", kinds["3"])
	}
	if tbl.PageNumber != 1 || len(tbl.Spans) != 1 {
		t.Fatalf("expected one span on page 1, got page %d spans %+v", tbl.PageNumber, tbl.Spans)
	}
	if got := spanText(res, tbl.Spans[0]); got != "Region Sales\nNorth 1 2\n3 4" {
		t.Errorf("unexpected span text %q", got)
	}
}

func TestHTMLAnalyzer_RowspanClippedToTable(t *testing.T) {
	input := `<table><tr><td rowspan="9">a</td><td>b</td></tr><tr><td>c</td></tr></table>`
	res, err := (&HTMLAnalyzer{}).Analyze(strings.NewReader(input), "t.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tbl := res.Tables[0]
	if tbl.RowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.RowCount)
	}
	if tbl.Cells[0].RowSpan != 2 {
		t.Errorf("expected rowspan clipped to 2, got %d", tbl.Cells[0].RowSpan)
	}
	if tbl.Cells[2].ColumnIndex != 1 {
		t.Errorf("expected c to skip the spanned column, got column %d", tbl.Cells[2].ColumnIndex)
	}
}

func TestHTMLAnalyzer_HugeSpansStayBounded(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<table>")
	for range 200 {
		sb.WriteString(`<tr><td rowspan=1000 colspan=1000>x</td><td>y</td></tr>`)
	}
	sb.WriteString("</table>")

	res, err := (&HTMLAnalyzer{}).Analyze(strings.NewReader(sb.String()), "t.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tbl := res.Tables[0]
	if tbl.RowCount != 200 {
		t.Fatalf("expected 200 rows, got %d", tbl.RowCount)
	}
	if tbl.ColumnCount != maxTableColumns {
		t.Errorf("expected column count capped at %d, got %d", maxTableColumns, tbl.ColumnCount)
	}
	// The first cell covers every column of every row, so nothing else fits.
	if len(tbl.Cells) != 1 {
		t.Fatalf("expected 1 cell, got %d", len(tbl.Cells))
	}
	if c := tbl.Cells[0]; c.RowSpan != 200 || c.ColumnSpan != maxTableColumns {
		t.Errorf("expected 200x%d span, got %dx%d", maxTableColumns, c.RowSpan, c.ColumnSpan)
	}
}

func TestNextFreeColumn(t *testing.T) {
	covered := []colRange{{2, 4}, {0, 2}, {5, 6}}
	if got := nextFreeColumn(covered, 0); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
	if got := nextFreeColumn(covered, 5); got != 6 {
		t.Errorf("expected 6, got %d", got)
	}
	if got := nextFreeColumn(nil, 3); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}
