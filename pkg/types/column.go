package types

import "fmt"

// SortKind selects the comparator a column is sorted with. It is taken from
// the schema, never inferred from row data.
type SortKind int

const (
	// SortString compares values with locale collation, uppercase first on ties.
	SortString SortKind = iota
	// SortNumber compares values numerically.
	SortNumber
)

// String returns the schema spelling of the kind.
func (k SortKind) String() string {
	switch k {
	case SortString:
		return "string"
	case SortNumber:
		return "number"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ParseSortKind parses "string" or "number". An empty string means SortString.
func ParseSortKind(s string) (SortKind, error) {
	switch s {
	case "", "string":
		return SortString, nil
	case "number":
		return SortNumber, nil
	default:
		return SortString, fmt.Errorf("%w: %q", ErrInvalidSortKind, s)
	}
}

// RenderFunc turns a cell value into a render fragment.
type RenderFunc func(value any) *Node

// Column describes one table column. Columns are immutable once handed to a
// table.
type Column struct {
	ID       string     // Unique within a table; the row key the column reads.
	Title    string     // Header text.
	Sortable bool       // Whether header activation may sort by this column.
	SortKind SortKind   // Comparator used by local sorting.
	Render   RenderFunc // Optional; nil means the default boxed-value renderer.
}

// Row maps column ids to values. Only ids referenced by the schema are read;
// the "id" key, when present, builds the row's detail link.
type Row map[string]any

// RowIDKey is the row key used for detail links.
const RowIDKey = "id"

// ColumnSpec is the serialisable form of a Column, used by stored dataset
// schemas, schema files and the schema endpoint. Render names a registered
// renderer instead of holding a function.
type ColumnSpec struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Sortable bool   `json:"sortable" yaml:"sortable"`
	SortKind string `json:"sort_kind,omitempty" yaml:"sort_kind,omitempty"`
	Render   string `json:"render,omitempty" yaml:"render,omitempty"`
}
