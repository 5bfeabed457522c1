package types

import "errors"

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)

// Schema and option errors, returned when a table is constructed.
var (
	ErrEmptySchema     = errors.New("schema has no columns")
	ErrEmptyColumnID   = errors.New("column id must not be empty")
	ErrDuplicateColumn = errors.New("duplicate column id")
	ErrInvalidPageSize = errors.New("page size must not be negative")
	ErrInvalidSortMode = errors.New("invalid sort mode")
	ErrInvalidSortKind = errors.New("invalid sort kind")
)

// Sort request errors. A sort on an unknown or non-sortable column is a caller
// contract violation; the table ignores it without changing state.
var (
	ErrUnknownColumn    = errors.New("unknown column")
	ErrNotSortable      = errors.New("column is not sortable")
	ErrInvalidDirection = errors.New("invalid sort direction")
)

// Fetch errors.
var (
	ErrInvalidWindow  = errors.New("invalid row window")
	ErrStaleResponse  = errors.New("response belongs to a superseded request")
	ErrDisposed       = errors.New("table is disposed")
	ErrNoSource       = errors.New("remote table has no data source")
	ErrDatasetMissing = errors.New("dataset not found")
	ErrInvalidDataset = errors.New("invalid dataset name")
)
