package domain

import "math"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageLimits bounds caller supplied page sizes.
type PageLimits struct {
	Default int
	Max     int
}

// DefaultPageLimits mirrors the limits used when nothing is configured.
var DefaultPageLimits = PageLimits{Default: DefaultPageSize, Max: MaxPageSize}

// Page is a 1-indexed, already clamped page request.
type Page struct {
	Number int
	Size   int
}

// PageMeta describes a page of results.
type PageMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPage clamps the raw page and size: page below 1 becomes 1, size below 1
// falls back to the default, size above the max is capped. The page number is
// capped so the offset always fits in an int.
func (l PageLimits) NewPage(number, size int) Page {
	def, limit := l.Default, l.Max
	if limit < 1 {
		limit = MaxPageSize
	}
	if def < 1 || def > limit {
		def = min(DefaultPageSize, limit)
	}
	if number < 1 {
		number = 1
	}
	switch {
	case size < 1:
		size = def
	case size > limit:
		size = limit
	}
	if maxNumber := math.MaxInt / size; number > maxNumber {
		number = maxNumber
	}
	return Page{Number: number, Size: size}
}

// Offset is the number of rows before the page; never negative.
func (p Page) Offset() int {
	if p.Number < 1 || p.Size < 1 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// Meta builds page metadata; total_pages is never below 1.
func (p Page) Meta(total int) PageMeta {
	pages := (total + p.Size - 1) / p.Size
	if pages < 1 {
		pages = 1
	}
	return PageMeta{
		Page:       p.Number,
		PerPage:    p.Size,
		Total:      total,
		TotalPages: pages,
	}
}
