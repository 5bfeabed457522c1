package table

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/tablekit/internal/collate"
	"github.com/mesh-intelligence/tablekit/internal/view"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Comparator returns the value comparator for a sort kind.
func Comparator(kind types.SortKind) func(a, b any) int {
	if kind == types.SortNumber {
		return compareNumbers
	}
	return compareStrings
}

// SortRows returns rows stably ordered by col. The direction multiplies the
// comparator result, so ties keep their input order both ways. The input
// slice is not modified.
func SortRows(rows []types.Row, col types.Column, dir types.Direction) []types.Row {
	out := slices.Clone(rows)
	cmp := Comparator(col.SortKind)
	m := dir.Multiplier()
	slices.SortStableFunc(out, func(a, b types.Row) int {
		return m * cmp(a[col.ID], b[col.ID])
	})
	return out
}

// SortLocally resolves columnID against the schema and sorts rows by it. An
// unknown or non-sortable column leaves the order unchanged.
func (s *Schema) SortLocally(rows []types.Row, columnID string, dir types.Direction) []types.Row {
	col, err := s.Sortable(columnID)
	if err != nil {
		return slices.Clone(rows)
	}
	return SortRows(rows, col, dir)
}

func compareStrings(a, b any) int {
	return collate.Compare(view.FormatValue(a), view.FormatValue(b))
}

func compareNumbers(a, b any) int {
	d := toFloat(a) - toFloat(b)
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	}
	return 0
}

// toFloat converts the numeric shapes rows arrive in. Anything else is 0.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if n {
			return 1
		}
	}
	return 0
}
