package types

import "fmt"

// Direction is a sort direction. The zero value is Asc.
type Direction int

const (
	// Asc sorts smallest first.
	Asc Direction = iota
	// Desc sorts largest first.
	Desc
)

// String returns "asc" or "desc", the wire spelling used in queries and the
// header annotation.
func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// ParseDirection parses "asc" or "desc". An empty string means Asc.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	default:
		return Asc, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// Multiplier returns +1 for Asc and -1 for Desc. Comparators multiply their
// result by it so that equal elements keep their relative order either way.
func (d Direction) Multiplier() int {
	if d == Desc {
		return -1
	}
	return 1
}

// SortState is the active sort. An empty ColumnID means unsorted; a non-empty
// one always names a sortable column of the owning table.
type SortState struct {
	ColumnID  string
	Direction Direction
}

// IsSorted reports whether a sort column is set.
func (s SortState) IsSorted() bool {
	return s.ColumnID != ""
}

// PageState tracks the loaded page window. LoadedPages is 0 until the first
// page has been committed.
type PageState struct {
	PageSize    int
	LoadedPages int
}

// NextWindow returns the [start, end) row window of the page after the
// loaded ones.
func (p PageState) NextWindow() (start, end int) {
	return p.LoadedPages * p.PageSize, (p.LoadedPages + 1) * p.PageSize
}
