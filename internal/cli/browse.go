package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablekit/internal/remote"
	"github.com/mesh-intelligence/tablekit/internal/table"
	"github.com/mesh-intelligence/tablekit/internal/tui"
)

func newBrowseCmd(a *app) *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "browse <dataset>",
		Short: "Browse a served dataset as an interactive table",
		Long: `Browse fetches the dataset schema from a running "tablekit serve" and opens
a full-screen table: left/right pick a header, enter sorts by it, scrolling
down loads further pages. When output is not a terminal the first page is
printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				baseURL = a.settings.BaseURL
			}
			return a.runBrowse(cmd, args[0], baseURL)
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "row server URL (default: remote.base_url from config)")
	return cmd
}

func (a *app) runBrowse(cmd *cobra.Command, dataset, baseURL string) error {
	ctx := cmd.Context()
	client := &http.Client{Timeout: a.settings.Timeout}

	cols, err := remote.FetchSchema(ctx, client, baseURL, dataset)
	var httpErr *remote.HTTPError
	if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
		return userError(fmt.Errorf("dataset %q not found at %s", dataset, baseURL))
	}
	if err != nil {
		return sysError(fmt.Errorf("fetch schema: %w", err))
	}

	src, err := remote.NewSource(client, remote.DatasetEndpoint(baseURL, dataset))
	if err != nil {
		return userError(err)
	}
	opts, err := a.settings.tableOptions()
	if err != nil {
		return userError(err)
	}
	tbl, err := table.New(cols, opts, src, table.WithLogger(a.logger(cmd, "table")))
	if err != nil {
		return userError(err)
	}

	out := cmd.OutOrStdout()
	if !isTerminal(out) {
		defer tbl.Dispose()
		if err := loadPages(ctx, tbl, 1); err != nil {
			return err
		}
		if a.flags.jsonMode {
			return printJSON(cmd, tbl.Rows())
		}
		return writeTable(cmd, tbl)
	}

	return tui.Run(ctx, tbl, cmd.InOrStdin(), out,
		tui.WithTitle(dataset),
		tui.WithThreshold(a.settings.ScrollRows),
	)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
