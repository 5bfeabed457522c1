package types

import (
	"context"
	"io"
	"time"
)

// Dataset describes a stored dataset.
type Dataset struct {
	Name      string       `json:"name"`
	Columns   []ColumnSpec `json:"columns"`
	CreatedAt time.Time    `json:"created_at"`
}

// ImportResult counts the outcome of a row import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// RowStore is the row server's storage: named datasets of schema-described
// rows answering sorted, windowed page queries. Attach opens it with a
// Config; Detach releases it and is idempotent.
type RowStore interface {
	Attach(config Config) error
	Detach() error

	CreateDataset(name string, columns []ColumnSpec) error
	DropDataset(name string) error
	Datasets() ([]Dataset, error)
	Schema(name string) ([]ColumnSpec, error)

	Import(name string, r io.Reader) (ImportResult, error)
	ImportFile(name, path string) (ImportResult, error)

	Page(ctx context.Context, name string, q Query) ([]Row, error)
	Count(ctx context.Context, name string, q Query) (int, error)
}
