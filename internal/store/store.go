// Package store is the row server's storage layer. Datasets (a column schema
// plus rows) live in JSONL files under the data directory, which are the
// source of truth; SQLite is rebuilt from them on Attach and answers sorted,
// windowed page queries.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// DBFile is the SQLite file created inside the data directory.
const DBFile = "tablekit.db"

// Store lifecycle errors.
var (
	ErrAlreadyAttached = errors.New("store already attached")
	ErrDetached        = errors.New("store is detached")
)

var datasetName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	pages    singleflight.Group
}

var _ types.RowStore = (*Store)(nil)

// NewStore returns a detached store; call Attach to open it.
func NewStore() *Store {
	return &Store{}
}

// Attach validates config, creates the data directory, rebuilds the SQLite
// database and loads every dataset from JSONL.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
		config.DataDir = dataDir
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFile)
	// The database is derived state; JSONL is reloaded into a fresh file.
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	if err := loadAll(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("loading JSONL: %w", err)
	}

	s.db = db
	s.config = config
	s.attached = true
	return nil
}

// Detach closes the database. Idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	s.attached = false
	err := s.db.Close()
	s.db = nil
	return err
}

// Config returns the attached configuration.
func (s *Store) Config() types.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// CreateDataset creates a dataset or replaces its schema. Rows are kept.
func (s *Store) CreateDataset(name string, columns []types.ColumnSpec) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateColumns(columns); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return ErrDetached
	}

	cols, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("encoding columns: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(`INSERT INTO datasets (name, columns, created_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET columns = excluded.columns`, name, string(cols), now)
	if err != nil {
		return fmt.Errorf("saving dataset %s: %w", name, err)
	}
	return s.persistDatasetsLocked()
}

// DropDataset removes a dataset and its rows.
func (s *Store) DropDataset(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return ErrDetached
	}

	res, err := s.db.Exec(`DELETE FROM datasets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("dropping dataset %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", types.ErrDatasetMissing, name)
	}
	if err := os.Remove(rowsPath(s.config.DataDir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing rows file: %w", err)
	}
	return s.persistDatasetsLocked()
}

// Datasets lists every dataset by name.
func (s *Store) Datasets() ([]types.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, ErrDetached
	}
	return s.datasetsLocked()
}

// Schema returns a dataset's columns.
func (s *Store) Schema(name string) ([]types.ColumnSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, ErrDetached
	}
	return s.schemaLocked(name)
}

func (s *Store) schemaLocked(name string) ([]types.ColumnSpec, error) {
	var raw string
	err := s.db.QueryRow(`SELECT columns FROM datasets WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", types.ErrDatasetMissing, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading schema of %s: %w", name, err)
	}
	var cols []types.ColumnSpec
	if err := json.Unmarshal([]byte(raw), &cols); err != nil {
		return nil, fmt.Errorf("decoding schema of %s: %w", name, err)
	}
	return cols, nil
}

func (s *Store) datasetsLocked() ([]types.Dataset, error) {
	rows, err := s.db.Query(`SELECT name, columns, created_at FROM datasets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	defer rows.Close()

	out := []types.Dataset{}
	for rows.Next() {
		var d types.Dataset
		var cols, createdAt string
		if err := rows.Scan(&d.Name, &cols, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning dataset: %w", err)
		}
		if err := json.Unmarshal([]byte(cols), &d.Columns); err != nil {
			return nil, fmt.Errorf("decoding schema of %s: %w", d.Name, err)
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) persistDatasetsLocked() error {
	datasets, err := s.datasetsLocked()
	if err != nil {
		return err
	}
	records := make([]json.RawMessage, 0, len(datasets))
	for _, d := range datasets {
		b, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("encoding dataset %s: %w", d.Name, err)
		}
		records = append(records, b)
	}
	return writeJSONL(datasetsPath(s.config.DataDir), records)
}

func validateName(name string) error {
	if !datasetName.MatchString(name) {
		return fmt.Errorf("%w: %q", types.ErrInvalidDataset, name)
	}
	return nil
}

func validateColumns(columns []types.ColumnSpec) error {
	if len(columns) == 0 {
		return types.ErrEmptySchema
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c.ID == "" {
			return types.ErrEmptyColumnID
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: %q", types.ErrDuplicateColumn, c.ID)
		}
		seen[c.ID] = true
		if _, err := types.ParseSortKind(c.SortKind); err != nil {
			return fmt.Errorf("column %q: %w", c.ID, err)
		}
	}
	return nil
}

// newRowID generates a UUID v7 for rows imported without an id.
func newRowID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
