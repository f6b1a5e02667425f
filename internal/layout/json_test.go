package layout

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analyzerJSON = `{
  "analyzeResult": {
    "content": "Report\nRevenue\nQ1 Q2\n10 20\nEnd",
    "pages": [
      {"pageNumber": 1, "spans": [{"offset": 0, "length": 27}]},
      {"pageNumber": 2, "spans": [{"offset": 27, "length": 3}]}
    ],
    "paragraphs": [
      {"role": "title", "content": "Report", "boundingRegions": [{"pageNumber": 1}]},
      {"role": "sectionHeading", "content": "Revenue", "boundingRegions": [{"pageNumber": 1}]},
      {"role": "pageFooter", "content": "End", "boundingRegions": [{"pageNumber": 2}]},
      {"content": "plain", "boundingRegions": [{"pageNumber": 2}]}
    ],
    "tables": [{
      "rowCount": 2,
      "columnCount": 2,
      "cells": [
        {"kind": "columnHeader", "rowIndex": 0, "columnIndex": 0, "content": "Q1"},
        {"kind": "columnHeader", "rowIndex": 0, "columnIndex": 1, "content": "Q2"},
        {"rowIndex": 1, "columnIndex": 0, "rowSpan": 1, "columnSpan": 2, "content": "10 20"}
      ],
      "boundingRegions": [{"pageNumber": 1}],
      "spans": [{"offset": 15, "length": 12}]
    }]
  }
}`

func TestParseAnalysisResult_Envelope(t *testing.T) {
	res, err := ParseAnalysisResult([]byte(analyzerJSON))
	require.NoError(t, err)

	require.Len(t, res.Pages, 2)
	assert.Equal(t, Page{Index: 0, Span: Span{Offset: 0, Length: 27}}, res.Pages[0])
	assert.Equal(t, Page{Index: 1, Span: Span{Offset: 27, Length: 3}}, res.Pages[1])

	require.Len(t, res.Paragraphs, 4)
	assert.Equal(t, RoleTitle, res.Paragraphs[0].Role)
	assert.Equal(t, RoleSectionHeading, res.Paragraphs[1].Role)
	assert.Equal(t, RoleOther, res.Paragraphs[2].Role)
	assert.Equal(t, RoleNone, res.Paragraphs[3].Role)
	assert.Equal(t, 2, res.Paragraphs[3].PageNumber)

	require.Len(t, res.Tables, 1)
	table := res.Tables[0]
	assert.Equal(t, 1, table.PageNumber)
	assert.Equal(t, []Span{{Offset: 15, Length: 12}}, table.Spans)
	require.Len(t, table.Cells, 3)
	assert.Equal(t, CellColumnHeader, table.Cells[0].Kind)
	assert.Equal(t, CellData, table.Cells[2].Kind)
	assert.Equal(t, 1, table.Cells[0].RowSpan, "missing rowSpan defaults to 1")
	assert.Equal(t, 2, table.Cells[2].ColumnSpan)
}

func TestParseAnalysisResult_Bare(t *testing.T) {
	res, err := ParseAnalysisResult([]byte(`{"content":"abc","pages":[{"pageNumber":1,"spans":[{"offset":0,"length":3}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Content)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, 3, res.Pages[0].Span.Length)
}

func TestParseAnalysisResult_Invalid(t *testing.T) {
	_, err := ParseAnalysisResult([]byte(`not json`))
	assert.Error(t, err)
}

func TestAnalysisResult_RoundTrip(t *testing.T) {
	want, err := ParseAnalysisResult([]byte(analyzerJSON))
	require.NoError(t, err)

	data, err := json.Marshal(want)
	require.NoError(t, err)

	got, err := ParseAnalysisResult(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDocumentTitle(t *testing.T) {
	doc := &Document{SourceName: "report.pdf"}
	assert.Equal(t, "report.pdf", doc.Title())

	doc.Titles = []string{"Annual", "Report"}
	assert.Equal(t, "Annual Report", doc.Title())
}
