package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablekit/internal/paths"
	"github.com/mesh-intelligence/tablekit/pkg/store"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize tablekit storage",
		Long:  "Create the configuration and data directories, write a default config.yaml\nand initialize the row store.",
		Args:  cobra.NoArgs,
		RunE:  a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	dataDir, err := a.dataDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create config directory: %w", err))
	}
	// Only an explicit --data-dir is pinned in the written config.
	written, err := writeConfigIfMissing(paths.ConfigFile(a.configDir), a.flags.dataDir)
	if err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}

	rows, err := a.attachStore(dataDir)
	if err != nil {
		return err
	}
	if err := rows.Detach(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	if a.flags.jsonMode {
		return printJSON(cmd, map[string]any{
			"config_dir":     a.configDir,
			"data_dir":       dataDir,
			"config_written": written,
		})
	}
	success(cmd, "tablekit initialized in %s", dataDir)
	return nil
}

// attachStore opens the row store in dataDir. The caller must Detach it.
func (a *app) attachStore(dataDir string) (types.RowStore, error) {
	rows := store.NewStore()
	if err := rows.Attach(a.settings.storeConfig(dataDir)); err != nil {
		return nil, sysError(fmt.Errorf("attach store: %w", err))
	}
	return rows, nil
}

// openStore resolves the data directory and attaches the row store.
func (a *app) openStore() (types.RowStore, error) {
	dataDir, err := a.dataDir()
	if err != nil {
		return nil, err
	}
	return a.attachStore(dataDir)
}
