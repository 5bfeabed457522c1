package types

// Config selects the row store backend and the directory its dataset files
// live in. RangeColumn names the row key that from/to filters compare.
type Config struct {
	Backend     string `json:"backend" yaml:"backend"`
	DataDir     string `json:"data_dir" yaml:"data_dir"`
	RangeColumn string `json:"range_column,omitempty" yaml:"range_column,omitempty"`
}

// Row store backends.
const (
	BackendSQLite = "sqlite"
)

// DefaultRangeColumn is the row key that from/to range filters apply to.
const DefaultRangeColumn = "createdAt"

var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate rejects a missing backend with ErrBackendEmpty and an unsupported
// one with ErrBackendUnknown. DataDir is not checked; the store resolves it.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return nil
}

// GetRangeColumn returns RangeColumn, or createdAt when unset.
func (c Config) GetRangeColumn() string {
	if c.RangeColumn == "" {
		return DefaultRangeColumn
	}
	return c.RangeColumn
}
