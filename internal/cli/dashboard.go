package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablekit/internal/dashboard"
	"github.com/mesh-intelligence/tablekit/internal/table"
	"github.com/mesh-intelligence/tablekit/internal/view"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

func newDashboardCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "dashboard <dataset>...",
		Short: "Print several datasets for one date range",
		Long: `Dashboard loads each dataset into a table and reloads all of them
concurrently for the selected range, each sorted by its first sortable column.
The range applies to the row store's range column (server.range_column).

Example:
  tablekit dashboard orders sales --from 2026-01-01 --to 2026-01-31`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRange(from, to)
			if err != nil {
				return userError(err)
			}
			return a.runDashboard(cmd, args, r)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "range start, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&to, "to", "", "range end, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func parseRange(from, to string) (dashboard.Range, error) {
	f, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return dashboard.Range{}, fmt.Errorf("--from: %w", err)
	}
	t, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return dashboard.Range{}, fmt.Errorf("--to: %w", err)
	}
	if t.Before(f) {
		return dashboard.Range{}, errors.New("--to is before --from")
	}
	return dashboard.Range{From: f, To: t}, nil
}

func (a *app) runDashboard(cmd *cobra.Command, datasets []string, r dashboard.Range) error {
	rows, err := a.openStore()
	if err != nil {
		return err
	}
	defer rows.Detach()

	d := dashboard.New(a.logger(cmd, "dashboard"))
	defer d.Dispose()

	tables := make(map[string]*table.Table, len(datasets))
	for _, name := range datasets {
		tbl, err := a.storeTable(rows, name, listFlags{}, a.logger(cmd, "table"))
		if err != nil {
			return err
		}
		tables[name] = tbl
		d.Add(name, tbl)
	}

	if _, err := d.SelectRange(cmd.Context(), r); err != nil {
		return sysError(err)
	}

	if a.flags.jsonMode {
		out := make(map[string][]types.Row, len(tables))
		for name, tbl := range tables {
			out[name] = tbl.Rows()
		}
		return printJSON(cmd, out)
	}
	for i, name := range d.Tables() {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "== %s ==\n", name)
		var werr error
		tables[name].ReadView(func(v *view.View) { werr = v.WriteText(cmd.OutOrStdout()) })
		if werr != nil {
			return werr
		}
	}
	return nil
}
