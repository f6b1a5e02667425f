package layout

import "strings"

// Span is a contiguous slice of AnalysisResult.Content, counted in runes.
type Span struct {
	Offset int
	Length int
}

// End returns the offset one past the last rune of the span.
func (s Span) End() int {
	return s.Offset + s.Length
}

// Role is the semantic role the layout analyzer assigned to a paragraph.
type Role int

const (
	RoleNone Role = iota
	RoleTitle
	RoleSectionHeading
	RoleOther
)

func (r Role) String() string {
	switch r {
	case RoleTitle:
		return "title"
	case RoleSectionHeading:
		return "sectionHeading"
	case RoleOther:
		return "other"
	}
	return ""
}

// ParseRole maps an analyzer role string to a Role. Unknown roles are RoleOther.
func ParseRole(s string) Role {
	switch s {
	case "":
		return RoleNone
	case "title":
		return RoleTitle
	case "sectionHeading":
		return RoleSectionHeading
	}
	return RoleOther
}

// CellKind distinguishes header cells from data cells.
type CellKind int

const (
	CellData CellKind = iota
	CellColumnHeader
	CellRowHeader
)

func (k CellKind) String() string {
	switch k {
	case CellColumnHeader:
		return "columnHeader"
	case CellRowHeader:
		return "rowHeader"
	}
	return "content"
}

// IsHeader reports whether the cell renders as a header cell.
func (k CellKind) IsHeader() bool {
	return k == CellColumnHeader || k == CellRowHeader
}

// ParseCellKind maps an analyzer cell kind to a CellKind. Unknown kinds are CellData.
func ParseCellKind(s string) CellKind {
	switch s {
	case "columnHeader":
		return CellColumnHeader
	case "rowHeader":
		return CellRowHeader
	}
	return CellData
}

// AnalysisResult is the output of a layout analysis pass over one document.
type AnalysisResult struct {
	Content    string
	Pages      []Page
	Paragraphs []Paragraph
	Tables     []Table
}

// Page delimits one page's slice of Content. Index is 0-based.
type Page struct {
	Index int
	Span  Span
}

// Number returns the 1-based page number.
func (p Page) Number() int {
	return p.Index + 1
}

// Paragraph is a role-tagged block of text. PageNumber is 1-based.
type Paragraph struct {
	Content    string
	Role       Role
	PageNumber int
}

// Table is a grid of cells located on a single page.
type Table struct {
	RowCount    int
	ColumnCount int
	Cells       []Cell
	PageNumber  int
	Spans       []Span
}

// Cell is one table cell. RowSpan and ColumnSpan are at least 1.
type Cell struct {
	RowIndex    int
	ColumnIndex int
	RowSpan     int
	ColumnSpan  int
	Kind        CellKind
	Content     string
}

// PageRecord is the reconstructed text of one page.
type PageRecord struct {
	PageNumber     int    `json:"page_number"`
	StartOffset    int    `json:"start_offset"`
	Text           string `json:"text"`
	SectionHeading string `json:"section_heading"`
}

// Warning is a recoverable anomaly found while linearizing a page.
type Warning struct {
	PageNumber int    `json:"page_number"`
	Message    string `json:"message"`
}

// Document is the linearized form of an AnalysisResult.
type Document struct {
	SourceName string
	Titles     []string // title-role paragraphs across the whole document
	Pages      []PageRecord
	Warnings   []Warning
}

// Title returns the document's titles joined by a space, or the source name
// when the analyzer found none.
func (d *Document) Title() string {
	if len(d.Titles) == 0 {
		return d.SourceName
	}
	return strings.Join(d.Titles, " ")
}
