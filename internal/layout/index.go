package layout

import (
	"fmt"
	"sort"
)

// AvgBytesPerPage is the page size assumed when no index is available.
const AvgBytesPerPage = 2000

// DegenerateError reports a page on which not a single line fit. The index
// returned alongside it covers the pages before Offset.
type DegenerateError struct {
	Page   int
	Offset int
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("page %d at offset %d has no room for a line", e.Page, e.Offset)
}

// Index holds the start offset of every page. It is immutable once built.
type Index struct {
	offsets []int
}

// Build paginates the whole text. When a page cannot hold any line it stops
// and returns the pages found so far together with a *DegenerateError.
func (l *Layout) Build(text []byte) (*Index, error) {
	idx := &Index{}
	off := 0
	for off < len(text) {
		pg := l.Fit(text, off)
		if len(pg.Lines) == 0 || pg.Next <= off {
			return idx, &DegenerateError{Page: len(idx.offsets) + 1, Offset: off}
		}
		idx.offsets = append(idx.offsets, off)
		off = pg.Next
	}
	return idx, nil
}

// newIndex wraps a list of strictly increasing offsets starting at 0.
func newIndex(offsets []int) (*Index, error) {
	for i, o := range offsets {
		if i == 0 && o != 0 {
			return nil, fmt.Errorf("first page starts at %d, not 0", o)
		}
		if i > 0 && o <= offsets[i-1] {
			return nil, fmt.Errorf("offset %d at page %d is not after %d", o, i+1, offsets[i-1])
		}
	}
	return &Index{offsets: append([]int(nil), offsets...)}, nil
}

// Count is the number of indexed pages. A nil Index has none.
func (x *Index) Count() int {
	if x == nil {
		return 0
	}
	return len(x.offsets)
}

// Offset returns the start of page p (1-based).
func (x *Index) Offset(p int) (int, bool) {
	if p < 1 || p > x.Count() {
		return 0, false
	}
	return x.offsets[p-1], true
}

func (x *Index) Offsets() []int {
	if x == nil {
		return nil
	}
	return append([]int(nil), x.offsets...)
}

// Locate returns the 1-based page containing off. Without an index the page
// is estimated from AvgBytesPerPage.
func (x *Index) Locate(off int) int {
	n := x.Count()
	if n == 0 {
		return off/AvgBytesPerPage + 1
	}
	i := sort.Search(n, func(i int) bool { return x.offsets[i] > off })
	if i == 0 {
		return 1
	}
	return i
}

// Total is the page count for a text of textLen bytes.
func (x *Index) Total(textLen int) int {
	if n := x.Count(); n > 0 {
		return n
	}
	return textLen/AvgBytesPerPage + 1
}
