// Package pagination computes page windows and slice bounds for tables.
package pagination

import "fmt"

const (
	DefaultPageSize = 10
	WindowSize      = 5
)

// Page describes the visible slice of a collection and its navigation.
type Page struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalPages  int `json:"totalPages"`
	Count       int `json:"count"`

	// Start and End bound the slice [Start, End) of the collection.
	Start int `json:"start"`
	End   int `json:"end"`

	Buttons          []int `json:"buttons"`
	ShowFirst        bool  `json:"showFirst"`
	LeadingEllipsis  bool  `json:"leadingEllipsis"`
	ShowLast         bool  `json:"showLast"`
	TrailingEllipsis bool  `json:"trailingEllipsis"`
	HasPrev          bool  `json:"hasPrev"`
	HasNext          bool  `json:"hasNext"`
}

// TotalPages is ceil(count/pageSize), never less than one.
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	n := (count + pageSize - 1) / pageSize
	if n < 1 {
		return 1
	}
	return n
}

// Compute clamps page into range and derives slice bounds and the button window.
func Compute(count, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if count < 0 {
		count = 0
	}
	total := TotalPages(count, pageSize)
	page = clamp(page, 1, total)

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > count {
		end = count
	}
	if start > count {
		start = count
	}

	first, last := window(page, total)
	buttons := make([]int, 0, last-first+1)
	for i := first; i <= last; i++ {
		buttons = append(buttons, i)
	}

	return Page{
		CurrentPage:      page,
		PageSize:         pageSize,
		TotalPages:       total,
		Count:            count,
		Start:            start,
		End:              end,
		Buttons:          buttons,
		ShowFirst:        first > 1,
		LeadingEllipsis:  first > 2,
		ShowLast:         last < total,
		TrailingEllipsis: last < total-1,
		HasPrev:          page > 1,
		HasNext:          page < total,
	}
}

// window centers WindowSize buttons on page, shifted to stay inside [1, total].
func window(page, total int) (int, int) {
	first := page - WindowSize/2
	if first < 1 {
		first = 1
	}
	last := first + WindowSize - 1
	if last > total {
		last = total
	}
	if last-first < WindowSize-1 {
		first = last - WindowSize + 1
		if first < 1 {
			first = 1
		}
	}
	return first, last
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Summary is the "Showing a-b of n records" caption; empty when count is zero.
func (p Page) Summary() string {
	if p.Count == 0 {
		return ""
	}
	return fmt.Sprintf("Showing %d-%d of %d records", p.Start+1, p.End, p.Count)
}
