package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Import appends the JSONL rows of r to a dataset in one transaction and
// rewrites the dataset's rows file. Malformed lines are skipped.
func (s *Store) Import(name string, r io.Reader) (types.ImportResult, error) {
	records, skipped, err := scanJSONL(r)
	if err != nil {
		return types.ImportResult{}, fmt.Errorf("reading import: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return types.ImportResult{}, ErrDetached
	}
	if _, err := s.schemaLocked(name); err != nil {
		return types.ImportResult{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return types.ImportResult{}, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	inserted, bad, err := insertRows(tx, name, records)
	if err != nil {
		return types.ImportResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.ImportResult{}, fmt.Errorf("committing import: %w", err)
	}
	if err := s.persistRowsLocked(name); err != nil {
		return types.ImportResult{}, err
	}
	return types.ImportResult{Imported: inserted, Skipped: skipped + bad}, nil
}

// ImportFile imports a JSONL file; names ending in .lz4 are decompressed.
func (s *Store) ImportFile(name, path string) (types.ImportResult, error) {
	f, err := openImport(path)
	if err != nil {
		return types.ImportResult{}, err
	}
	defer f.Close()
	return s.Import(name, f)
}

func (s *Store) persistRowsLocked(name string) error {
	rows, err := s.db.Query(`SELECT data FROM rows WHERE dataset = ? ORDER BY seq`, name)
	if err != nil {
		return fmt.Errorf("reading rows of %s: %w", name, err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		records = append(records, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(rowsPath(s.config.DataDir, name), records)
}

// Page returns the rows of a dataset for one query window: ordered by the
// sort column (strings with the shared collation, numbers numerically),
// ties kept in import order, filtered by the from/to range params.
// Identical concurrent queries share one database read; callers must not
// modify the returned rows.
func (s *Store) Page(ctx context.Context, name string, q types.Query) ([]types.Row, error) {
	key := name + "?" + q.Values().Encode()
	v, err, _ := s.pages.Do(key, func() (any, error) {
		return s.page(ctx, name, q)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]types.Row)), nil
}

func (s *Store) page(ctx context.Context, name string, q types.Query) ([]types.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, ErrDetached
	}

	where, args, order, err := s.buildQueryLocked(name, q)
	if err != nil {
		return nil, err
	}

	query := "SELECT data FROM rows WHERE " + where + " ORDER BY " + order
	limit := q.Limit()
	query += " LIMIT " + strconv.Itoa(limit)
	if q.Start > 0 {
		query += " OFFSET " + strconv.Itoa(q.Start)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", name, err)
	}
	defer rows.Close()

	out := []types.Row{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		obj, err := decodeObject([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("decoding row: %w", err)
		}
		out = append(out, types.Row(obj))
	}
	return out, rows.Err()
}

// Count returns how many rows of a dataset pass the query's range filter.
func (s *Store) Count(ctx context.Context, name string, q types.Query) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return 0, ErrDetached
	}

	q.Sort = ""
	where, args, _, err := s.buildQueryLocked(name, q)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rows WHERE "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", name, err)
	}
	return n, nil
}

// buildQueryLocked validates q against the dataset schema and returns the
// WHERE clause, its args and the ORDER BY clause.
func (s *Store) buildQueryLocked(name string, q types.Query) (where string, args []any, order string, err error) {
	cols, err := s.schemaLocked(name)
	if err != nil {
		return "", nil, "", err
	}

	conds := []string{"dataset = ?"}
	args = append(args, name)
	rangePath := jsonPath(s.config.GetRangeColumn())
	if from := q.Params.Get(types.ParamFrom); from != "" {
		conds = append(conds, "json_extract(data, ?) >= ?")
		args = append(args, rangePath, from)
	}
	if to := q.Params.Get(types.ParamTo); to != "" {
		conds = append(conds, "json_extract(data, ?) <= ?")
		args = append(args, rangePath, to)
	}

	order = "seq ASC"
	if q.Sort != "" {
		col, ok := findColumn(cols, q.Sort)
		if !ok {
			return "", nil, "", fmt.Errorf("%w: %q", types.ErrUnknownColumn, q.Sort)
		}
		if !col.Sortable {
			return "", nil, "", fmt.Errorf("%w: %q", types.ErrNotSortable, q.Sort)
		}
		kind, _ := types.ParseSortKind(col.SortKind)
		expr := "json_extract(data, ?) COLLATE " + CollationName
		if kind == types.SortNumber {
			expr = "CAST(json_extract(data, ?) AS REAL)"
		}
		dir := "ASC"
		if q.Order == types.Desc {
			dir = "DESC"
		}
		order = expr + " " + dir + ", seq ASC"
		args = append(args, jsonPath(col.ID))
	}
	return strings.Join(conds, " AND "), args, order, nil
}

func findColumn(cols []types.ColumnSpec, id string) (types.ColumnSpec, bool) {
	for _, c := range cols {
		if c.ID == id {
			return c, true
		}
	}
	return types.ColumnSpec{}, false
}

// jsonPath quotes a field name as a JSON path.
func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
}

// DatasetSource serves one dataset's pages to an in-process table.
type DatasetSource struct {
	store *Store
	name  string
}

// Source returns a table source over a dataset.
func (s *Store) Source(name string) *DatasetSource {
	return &DatasetSource{store: s, name: name}
}

// Fetch implements table.Source.
func (d *DatasetSource) Fetch(ctx context.Context, q types.Query) ([]types.Row, error) {
	return d.store.Page(ctx, d.name, q)
}
