package store

// Schema DDL. Rows keep their JSON document as-is; sorting and range
// filtering read fields with json_extract.
const (
	createDatasets = `CREATE TABLE datasets (
    name TEXT PRIMARY KEY,
    columns TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createRows = `CREATE TABLE rows (
    dataset TEXT NOT NULL,
    seq INTEGER NOT NULL,
    row_id TEXT NOT NULL,
    data TEXT NOT NULL,
    PRIMARY KEY (dataset, seq),
    FOREIGN KEY (dataset) REFERENCES datasets(name) ON DELETE CASCADE
);`

	idxRowsID = `CREATE INDEX idx_rows_id ON rows(dataset, row_id);`
)

var schemaDDL = []string{createDatasets, createRows, idxRowsID}
