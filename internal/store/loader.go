package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// loadAll reads datasets.jsonl and each dataset's rows file into SQLite in
// one transaction: either everything loads or the database stays empty.
// Malformed lines and records are skipped; unknown fields are ignored.
func loadAll(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	records, err := readJSONL(datasetsPath(dataDir))
	if err != nil {
		return err
	}

	for _, rec := range records {
		var d types.Dataset
		if err := json.Unmarshal(rec, &d); err != nil || validateName(d.Name) != nil {
			continue
		}
		cols, err := json.Marshal(d.Columns)
		if err != nil {
			continue
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = time.Now().UTC()
		}
		if _, err := tx.Exec(`INSERT OR REPLACE INTO datasets (name, columns, created_at) VALUES (?, ?, ?)`,
			d.Name, string(cols), d.CreatedAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("loading dataset %s: %w", d.Name, err)
		}

		rows, err := readJSONL(rowsPath(dataDir, d.Name))
		if err != nil {
			return err
		}
		if _, _, err := insertRows(tx, d.Name, rows); err != nil {
			return fmt.Errorf("loading rows of %s: %w", d.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// insertRows appends records to a dataset after its current last sequence
// number. Records that are not JSON objects are skipped. Rows without an
// "id" get a generated one, which is written back into the stored document.
func insertRows(tx *sql.Tx, dataset string, records []json.RawMessage) (inserted, skipped int, err error) {
	var seq int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM rows WHERE dataset = ?`, dataset).Scan(&seq); err != nil {
		return 0, 0, fmt.Errorf("reading sequence: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO rows (dataset, seq, row_id, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		obj, err := decodeObject(rec)
		if err != nil || obj == nil {
			skipped++
			continue
		}
		id, ok := obj["id"]
		if !ok || id == nil || id == "" {
			obj["id"] = newRowID()
			if rec, err = json.Marshal(obj); err != nil {
				skipped++
				continue
			}
		}
		seq++
		if _, err := stmt.Exec(dataset, seq, fmt.Sprint(obj["id"]), string(rec)); err != nil {
			return inserted, skipped, fmt.Errorf("inserting row %d: %w", seq, err)
		}
		inserted++
	}
	return inserted, skipped, nil
}

// decodeObject decodes a JSON object keeping numbers as json.Number.
func decodeObject(rec []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(rec))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}
