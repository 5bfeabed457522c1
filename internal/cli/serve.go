package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablekit/internal/logging"
	"github.com/mesh-intelligence/tablekit/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored datasets over HTTP",
		Long: `Serve answers the remote row protocol for every stored dataset:

  GET /api/datasets
  GET /api/datasets/{name}/schema
  GET /api/datasets/{name}/rows?sort=&order=&start=&end=&from=&to=

It runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.settings.ServerAddr
			}
			return a.runServe(cmd, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from config)")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, addr string) error {
	rows, err := a.openStore()
	if err != nil {
		return err
	}
	defer rows.Detach()

	// Server errors and request lines are always shown.
	handler := server.Handler(rows, logging.New("server", cmd.ErrOrStderr(), true))
	ready := make(chan net.Addr, 1)
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(cmd.Context(), addr, handler, ready) }()

	select {
	case bound := <-ready:
		success(cmd, "serving on http://%s", bound)
	case err := <-errCh:
		return sysError(fmt.Errorf("serve: %w", err))
	}
	if err := <-errCh; err != nil {
		return sysError(fmt.Errorf("serve: %w", err))
	}
	return nil
}
