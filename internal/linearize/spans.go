package linearize

import "github.com/dgallion1/pagegest/internal/layout"

// NoTable marks a page slot not covered by any table.
const NoTable = -1

// ResolveSpans maps every rune of a page to the index (within tables) of the
// table covering it, or NoTable. Table spans are clipped to the page window.
// When tables overlap the later table wins.
func ResolveSpans(page layout.Span, tables []layout.Table) []int {
	slots, _ := resolveSpans(page, tables)
	return slots
}

// resolveSpans is ResolveSpans that also reports how many table spans had to
// be clipped to fit the page window.
func resolveSpans(page layout.Span, tables []layout.Table) ([]int, int) {
	slots := make([]int, max(page.Length, 0))
	for i := range slots {
		slots[i] = NoTable
	}

	clipped := 0
	for idx, t := range tables {
		for _, s := range t.Spans {
			start := s.Offset - page.Offset
			end := start + s.Length
			lo := max(start, 0)
			hi := min(end, len(slots))
			if s.Length < 0 || lo != start || hi != end {
				clipped++
			}
			for i := lo; i < hi; i++ {
				slots[i] = idx
			}
		}
	}
	return slots, clipped
}
