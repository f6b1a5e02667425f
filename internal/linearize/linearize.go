// Package linearize turns a layout analysis result into one text stream per
// page, with tables replaced by their HTML rendering.
package linearize

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/pagegest/internal/layout"
	"github.com/dgallion1/pagegest/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// PageSeparator is appended to every page's text.
const PageSeparator = " "

// Linearizer reconstructs page text from analysis results.
type Linearizer struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Linearizer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Linearizer{log: log}
}

// pageText is one page reconstructed without its corpus offset.
type pageText struct {
	number   int
	text     string
	length   int
	heading  string
	warnings []layout.Warning
}

// docIndex groups a result's tables and headings by page number.
type docIndex struct {
	content  []rune
	tables   map[int][]layout.Table
	headings map[int][]string
	titles   []string
}

func newDocIndex(res *layout.AnalysisResult) *docIndex {
	idx := &docIndex{
		content:  []rune(res.Content),
		tables:   make(map[int][]layout.Table),
		headings: make(map[int][]string),
	}
	for _, t := range res.Tables {
		idx.tables[t.PageNumber] = append(idx.tables[t.PageNumber], t)
	}
	for _, p := range res.Paragraphs {
		switch p.Role {
		case layout.RoleTitle:
			idx.titles = append(idx.titles, p.Content)
		case layout.RoleSectionHeading:
			idx.headings[p.PageNumber] = append(idx.headings[p.PageNumber], p.Content)
		}
	}
	return idx
}

// Linearize reconstructs every page in ascending page order.
func (l *Linearizer) Linearize(sourceName string, res *layout.AnalysisResult) *layout.Document {
	idx := newDocIndex(res)
	pages := sortedPages(res.Pages)

	texts := make([]pageText, len(pages))
	for i, p := range pages {
		texts[i] = idx.page(p)
	}
	return l.assemble(sourceName, idx, texts)
}

// LinearizeConcurrent reconstructs pages on up to workers goroutines, then
// assigns offsets in a sequential pass. The result equals Linearize.
func (l *Linearizer) LinearizeConcurrent(sourceName string, res *layout.AnalysisResult, workers int) *layout.Document {
	idx := newDocIndex(res)
	pages := sortedPages(res.Pages)

	texts := make([]pageText, len(pages))
	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, p := range pages {
		g.Go(func() error {
			texts[i] = idx.page(p)
			return nil
		})
	}
	_ = g.Wait()
	return l.assemble(sourceName, idx, texts)
}

// assemble threads the running corpus offset through the pages in order.
func (l *Linearizer) assemble(sourceName string, idx *docIndex, texts []pageText) *layout.Document {
	doc := &layout.Document{
		SourceName: sourceName,
		Titles:     idx.titles,
		Pages:      make([]layout.PageRecord, 0, len(texts)),
	}
	offset := 0
	for _, pt := range texts {
		doc.Pages = append(doc.Pages, layout.PageRecord{
			PageNumber:     pt.number,
			StartOffset:    offset,
			Text:           pt.text,
			SectionHeading: pt.heading,
		})
		offset += pt.length
		for _, w := range pt.warnings {
			l.log.Warn("page span anomaly", "source", sourceName, "page", w.PageNumber, "detail", w.Message)
			doc.Warnings = append(doc.Warnings, w)
			metrics.LinearizeWarnings.Inc()
		}
	}
	return doc
}

func (idx *docIndex) page(p layout.Page) pageText {
	number := p.Number()
	out := pageText{number: number}

	window := p.Span
	lo := max(window.Offset, 0)
	hi := min(window.End(), len(idx.content))
	if hi < lo {
		hi = lo
	}
	if lo != window.Offset || hi != window.End() {
		out.warnings = append(out.warnings, layout.Warning{
			PageNumber: number,
			Message: fmt.Sprintf("page span [%d,%d) clipped to [%d,%d) of %d-rune content",
				window.Offset, window.End(), lo, hi, len(idx.content)),
		})
		window = layout.Span{Offset: lo, Length: hi - lo}
	}

	tables := idx.tables[number]
	slots, clipped := resolveSpans(window, tables)
	if clipped > 0 {
		out.warnings = append(out.warnings, layout.Warning{
			PageNumber: number,
			Message:    fmt.Sprintf("%d table span(s) clipped to page window", clipped),
		})
	}

	var sb strings.Builder
	seen := make(map[int]bool, len(tables))
	for i, slot := range slots {
		if slot == NoTable {
			sb.WriteRune(idx.content[window.Offset+i])
			continue
		}
		if !seen[slot] {
			seen[slot] = true
			sb.WriteString(RenderTable(tables[slot]))
		}
	}
	sb.WriteString(PageSeparator)

	out.text = sb.String()
	out.length = utf8.RuneCountInString(out.text)
	out.heading = strings.Join(idx.headings[number], " ")
	return out
}

func sortedPages(pages []layout.Page) []layout.Page {
	out := make([]layout.Page, len(pages))
	copy(out, pages)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
