package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablekit/pkg/tablekit"
)

// newVersionCmd reports the release, the module path that pkg/store and
// pkg/types are imported from, and the Go toolchain the binary was built with.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tablekit version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tablekit v%s\nmodule: %s\ngo: %s\n",
				tablekit.Version, tablekit.ModulePath, runtime.Version())
			return nil
		},
	}
}
