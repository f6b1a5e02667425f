package layout

import (
	"encoding/json"
	"fmt"
)

// Wire types follow the layout analyzer's JSON so its output can be decoded
// verbatim.

type wireSpan struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

type wireRegion struct {
	PageNumber int `json:"pageNumber"`
}

type wirePage struct {
	PageNumber int        `json:"pageNumber"`
	Spans      []wireSpan `json:"spans"`
}

type wireParagraph struct {
	Role            string       `json:"role,omitempty"`
	Content         string       `json:"content"`
	BoundingRegions []wireRegion `json:"boundingRegions,omitempty"`
}

type wireCell struct {
	Kind        string `json:"kind,omitempty"`
	RowIndex    int    `json:"rowIndex"`
	ColumnIndex int    `json:"columnIndex"`
	RowSpan     int    `json:"rowSpan,omitempty"`
	ColumnSpan  int    `json:"columnSpan,omitempty"`
	Content     string `json:"content"`
}

type wireTable struct {
	RowCount        int          `json:"rowCount"`
	ColumnCount     int          `json:"columnCount"`
	Cells           []wireCell   `json:"cells"`
	BoundingRegions []wireRegion `json:"boundingRegions,omitempty"`
	Spans           []wireSpan   `json:"spans"`
}

type wireResult struct {
	Content    string          `json:"content"`
	Pages      []wirePage      `json:"pages"`
	Paragraphs []wireParagraph `json:"paragraphs,omitempty"`
	Tables     []wireTable     `json:"tables,omitempty"`
}

// ParseAnalysisResult decodes analyzer JSON. The analyzer may wrap the
// result in {"analyzeResult": {...}}; both forms are accepted.
func ParseAnalysisResult(data []byte) (*AnalysisResult, error) {
	var envelope struct {
		AnalyzeResult json.RawMessage `json:"analyzeResult"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}
	if len(envelope.AnalyzeResult) > 0 {
		data = envelope.AnalyzeResult
	}
	var res AnalysisResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UnmarshalJSON decodes the analyzer's wire format.
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode analysis result: %w", err)
	}

	out := AnalysisResult{Content: w.Content}
	for i, p := range w.Pages {
		index := i
		if p.PageNumber > 0 {
			index = p.PageNumber - 1
		}
		page := Page{Index: index}
		if len(p.Spans) > 0 {
			page.Span = Span(p.Spans[0])
		}
		out.Pages = append(out.Pages, page)
	}
	for _, p := range w.Paragraphs {
		out.Paragraphs = append(out.Paragraphs, Paragraph{
			Content:    p.Content,
			Role:       ParseRole(p.Role),
			PageNumber: firstPage(p.BoundingRegions),
		})
	}
	for _, t := range w.Tables {
		table := Table{
			RowCount:    t.RowCount,
			ColumnCount: t.ColumnCount,
			PageNumber:  firstPage(t.BoundingRegions),
		}
		for _, c := range t.Cells {
			table.Cells = append(table.Cells, Cell{
				RowIndex:    c.RowIndex,
				ColumnIndex: c.ColumnIndex,
				RowSpan:     atLeastOne(c.RowSpan),
				ColumnSpan:  atLeastOne(c.ColumnSpan),
				Kind:        ParseCellKind(c.Kind),
				Content:     c.Content,
			})
		}
		for _, s := range t.Spans {
			table.Spans = append(table.Spans, Span(s))
		}
		out.Tables = append(out.Tables, table)
	}

	*r = out
	return nil
}

// MarshalJSON encodes the result in the analyzer's wire format.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	w := wireResult{
		Content: r.Content,
		Pages:   make([]wirePage, 0, len(r.Pages)),
	}
	for _, p := range r.Pages {
		w.Pages = append(w.Pages, wirePage{
			PageNumber: p.Number(),
			Spans:      []wireSpan{wireSpan(p.Span)},
		})
	}
	for _, p := range r.Paragraphs {
		w.Paragraphs = append(w.Paragraphs, wireParagraph{
			Role:            p.Role.String(),
			Content:         p.Content,
			BoundingRegions: []wireRegion{{PageNumber: p.PageNumber}},
		})
	}
	for _, t := range r.Tables {
		wt := wireTable{
			RowCount:        t.RowCount,
			ColumnCount:     t.ColumnCount,
			Cells:           make([]wireCell, 0, len(t.Cells)),
			BoundingRegions: []wireRegion{{PageNumber: t.PageNumber}},
		}
		for _, c := range t.Cells {
			wt.Cells = append(wt.Cells, wireCell{
				Kind:        c.Kind.String(),
				RowIndex:    c.RowIndex,
				ColumnIndex: c.ColumnIndex,
				RowSpan:     c.RowSpan,
				ColumnSpan:  c.ColumnSpan,
				Content:     c.Content,
			})
		}
		for _, s := range t.Spans {
			wt.Spans = append(wt.Spans, wireSpan(s))
		}
		w.Tables = append(w.Tables, wt)
	}
	return json.Marshal(w)
}

func firstPage(regions []wireRegion) int {
	if len(regions) == 0 {
		return 0
	}
	return regions[0].PageNumber
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
