package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/ll"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablekit/internal/table"
	"github.com/mesh-intelligence/tablekit/internal/view"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

type listFlags struct {
	sort  string
	desc  bool
	pages int
	from  string
	to    string
	dump  bool
}

func newListCmd(a *app) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "list [dataset]",
		Short: "List datasets or print a dataset as a sorted table",
		Long: `Without arguments list prints the stored datasets. With a dataset name it
loads the dataset into a table (sorted and paged by the row store, or locally
when table.sort_mode is local) and prints the loaded rows.

Example:
  tablekit list
  tablekit list products --sort price --desc --pages 2
  tablekit list orders --from 2026-01-01 --to 2026-01-31`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.runListDatasets(cmd)
			}
			return a.runListRows(cmd, args[0], lf)
		},
	}
	cmd.Flags().StringVar(&lf.sort, "sort", "", "column to sort by (default: first sortable column)")
	cmd.Flags().BoolVar(&lf.desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&lf.pages, "pages", 1, "number of pages to load")
	cmd.Flags().StringVar(&lf.from, "from", "", "range filter start, inclusive")
	cmd.Flags().StringVar(&lf.to, "to", "", "range filter end, inclusive")
	cmd.Flags().BoolVar(&lf.dump, "dump", false, "dump the rendered view tree")
	return cmd
}

func (a *app) runListDatasets(cmd *cobra.Command) error {
	rows, err := a.openStore()
	if err != nil {
		return err
	}
	defer rows.Detach()

	datasets, err := rows.Datasets()
	if err != nil {
		return sysError(fmt.Errorf("list datasets: %w", err))
	}
	if a.flags.jsonMode {
		return printJSON(cmd, datasets)
	}

	cells := make([][]string, 0, len(datasets))
	for _, d := range datasets {
		cells = append(cells, []string{d.Name, strconv.Itoa(len(d.Columns)), d.CreatedAt.Format("2006-01-02 15:04")})
	}
	return view.WriteTable(cmd.OutOrStdout(), []string{"NAME", "COLUMNS", "CREATED"}, cells)
}

func (a *app) runListRows(cmd *cobra.Command, dataset string, lf listFlags) error {
	rows, err := a.openStore()
	if err != nil {
		return err
	}
	defer rows.Detach()

	tbl, err := a.storeTable(rows, dataset, lf, a.logger(cmd, "table"))
	if err != nil {
		return err
	}
	defer tbl.Dispose()

	if err := loadPages(cmd.Context(), tbl, lf.pages); err != nil {
		return err
	}

	switch {
	case a.flags.jsonMode:
		return printJSON(cmd, tbl.Rows())
	case lf.dump:
		tbl.ReadView(func(v *view.View) { spew.Fdump(cmd.OutOrStdout(), v.Root()) })
		return nil
	}
	return writeTable(cmd, tbl)
}

// storeTable builds a table over one stored dataset.
func (a *app) storeTable(rows types.RowStore, dataset string, lf listFlags, logger *ll.Logger) (*table.Table, error) {
	specs, err := rows.Schema(dataset)
	if errors.Is(err, types.ErrDatasetMissing) {
		return nil, userError(err)
	}
	if err != nil {
		return nil, sysError(fmt.Errorf("read schema: %w", err))
	}
	cols, err := view.Columns(specs)
	if err != nil {
		return nil, userError(err)
	}
	opts, err := a.settings.tableOptions()
	if err != nil {
		return nil, userError(err)
	}
	if lf.sort != "" {
		dir := types.Asc
		if lf.desc {
			dir = types.Desc
		}
		opts.InitialSort = &types.SortState{ColumnID: lf.sort, Direction: dir}
	}

	params := url.Values{}
	if lf.from != "" {
		params.Set(types.ParamFrom, lf.from)
	}
	if lf.to != "" {
		params.Set(types.ParamTo, lf.to)
	}

	src := table.SourceFunc(func(ctx context.Context, q types.Query) ([]types.Row, error) {
		return rows.Page(ctx, dataset, q)
	})
	tbl, err := table.New(cols, opts, src, table.WithLogger(logger), table.WithParams(params))
	if err != nil {
		return nil, userError(err)
	}
	return tbl, nil
}

// loadPages loads the first page and then up to pages-1 more.
func loadPages(ctx context.Context, tbl *table.Table, pages int) error {
	if o := tbl.Load(ctx); o != table.Applied {
		return sysError(fmt.Errorf("load table: %s", o))
	}
	for i := 1; i < pages; i++ {
		if tbl.RequestNextPage(ctx) != table.Applied {
			break
		}
	}
	return nil
}

func writeTable(cmd *cobra.Command, tbl *table.Table) error {
	var err error
	tbl.ReadView(func(v *view.View) { err = v.WriteText(cmd.OutOrStdout()) })
	return err
}
