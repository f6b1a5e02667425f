package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/pagegest/internal/layout"
)

// CSVRowsPerPage is how many data rows go on one page. Each page holds one
// table that repeats the header row.
const CSVRowsPerPage = 50

// CSVAnalyzer handles CSV files. The first record is the header row.
type CSVAnalyzer struct{}

func (a *CSVAnalyzer) Analyze(r io.Reader, filename string) (*layout.AnalysisResult, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := newResultBuilder(0)
	if len(records) == 0 {
		return b.result(), nil
	}

	headers := records[0]
	dataRows := records[1:]
	if len(dataRows) == 0 {
		b.table(csvTable(headers, nil))
		return b.result(), nil
	}
	for i := 0; i < len(dataRows); i += CSVRowsPerPage {
		if i > 0 {
			b.breakPage()
		}
		end := min(i+CSVRowsPerPage, len(dataRows))
		b.table(csvTable(headers, dataRows[i:end]))
	}
	return b.result(), nil
}

func csvTable(headers []string, rows [][]string) layout.Table {
	t := layout.Table{RowCount: len(rows) + 1, ColumnCount: len(headers)}
	for j, h := range headers {
		t.Cells = append(t.Cells, layout.Cell{
			RowIndex:    0,
			ColumnIndex: j,
			RowSpan:     1,
			ColumnSpan:  1,
			Kind:        layout.CellColumnHeader,
			Content:     h,
		})
	}
	for i, row := range rows {
		for j, v := range row {
			t.Cells = append(t.Cells, layout.Cell{
				RowIndex:    i + 1,
				ColumnIndex: j,
				RowSpan:     1,
				ColumnSpan:  1,
				Content:     v,
			})
		}
		t.ColumnCount = max(t.ColumnCount, len(row))
	}
	return t
}
