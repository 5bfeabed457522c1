package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tablekit/internal/view"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// schemaFile is the YAML layout of a dataset schema:
//
//	columns:
//	  - id: title
//	    title: Name
//	    sortable: true
//	  - id: price
//	    title: Price
//	    sortable: true
//	    sort_kind: number
//	    render: money
type schemaFile struct {
	Columns []types.ColumnSpec `yaml:"columns"`
}

func readSchemaFile(path string) ([]types.ColumnSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	if len(sf.Columns) == 0 {
		return nil, fmt.Errorf("schema %s: %w", path, types.ErrEmptySchema)
	}
	// Renderer names are checked here; the store checks the rest.
	if _, err := view.Columns(sf.Columns); err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return sf.Columns, nil
}

func newImportCmd(a *app) *cobra.Command {
	var schemaPath string
	cmd := &cobra.Command{
		Use:   "import <dataset> <file>",
		Short: "Import JSONL rows into a dataset",
		Long: `Import appends the JSON objects of a JSONL file to a dataset. Files ending
in .lz4 are decompressed; "-" reads standard input. Malformed lines are skipped.

With --schema the dataset is created (or its schema replaced) from a YAML
schema file first. Without it the dataset must already exist.

Example:
  tablekit import products products.jsonl --schema products.yaml
  tablekit import products more.jsonl.lz4`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd, args[0], args[1], schemaPath)
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "YAML schema file creating the dataset")
	return cmd
}

func (a *app) runImport(cmd *cobra.Command, dataset, file, schemaPath string) error {
	rows, err := a.openStore()
	if err != nil {
		return err
	}
	defer rows.Detach()

	if schemaPath != "" {
		cols, err := readSchemaFile(schemaPath)
		if err != nil {
			return userError(err)
		}
		if err := rows.CreateDataset(dataset, cols); err != nil {
			return userError(fmt.Errorf("create dataset: %w", err))
		}
	}

	var res types.ImportResult
	if file == "-" {
		res, err = rows.Import(dataset, cmd.InOrStdin())
	} else {
		res, err = rows.ImportFile(dataset, file)
	}
	switch {
	case errors.Is(err, types.ErrDatasetMissing), errors.Is(err, os.ErrNotExist):
		return userError(err)
	case err != nil:
		return sysError(fmt.Errorf("import: %w", err))
	}

	if a.flags.jsonMode {
		return printJSON(cmd, res)
	}
	success(cmd, "imported %d rows into %s", res.Imported, dataset)
	if res.Skipped > 0 {
		warn(cmd, "skipped %d malformed lines", res.Skipped)
	}
	return nil
}
