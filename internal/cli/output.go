package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
)

func success(cmd *cobra.Command, format string, args ...any) {
	okColor.Fprintln(cmd.OutOrStdout(), fmt.Sprintf(format, args...))
}

func warn(cmd *cobra.Command, format string, args ...any) {
	warnColor.Fprintln(cmd.ErrOrStderr(), fmt.Sprintf(format, args...))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return sysError(fmt.Errorf("encode output: %w", err))
	}
	return nil
}
