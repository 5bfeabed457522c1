package types

import (
	"fmt"
	"strings"
)

// SortMode says where sorting happens.
type SortMode int

const (
	// ModeRemote delegates sorting and paging to the data source.
	ModeRemote SortMode = iota
	// ModeLocal keeps every row in memory and sorts it in place.
	ModeLocal
)

// String returns "remote" or "local".
func (m SortMode) String() string {
	switch m {
	case ModeRemote:
		return "remote"
	case ModeLocal:
		return "local"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseSortMode parses "remote" or "local", case-insensitively.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(s) {
	case "", "remote":
		return ModeRemote, nil
	case "local":
		return ModeLocal, nil
	default:
		return ModeRemote, fmt.Errorf("%w: %q", ErrInvalidSortMode, s)
	}
}

// DefaultPageSize is the page size used when Options.PageSize is zero.
const DefaultPageSize = 30

// DefaultLinkPrefix prefixes row ids in detail links.
const DefaultLinkPrefix = "/products/"

// Options configure a table at construction.
type Options struct {
	PageSize    int        // Rows per remote page; 0 means DefaultPageSize.
	InitialSort *SortState // Optional; remote tables default to the first sortable column.
	Mode        SortMode
	LinkPrefix  string // Detail link prefix; empty means DefaultLinkPrefix.
}

// Validate checks the options that do not depend on the schema.
func (o Options) Validate() error {
	if o.PageSize < 0 {
		return ErrInvalidPageSize
	}
	if o.Mode != ModeRemote && o.Mode != ModeLocal {
		return ErrInvalidSortMode
	}
	return nil
}
