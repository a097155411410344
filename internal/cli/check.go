package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	opts := syncOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fail when additional_dependencies differ from the lockfile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}
	bindSyncFlags(cmd, &opts)
	return cmd
}

func runCheck(cmd *cobra.Command, opts syncOptions) error {
	service := newAppService()
	result, err := service.Check(cmd.Context(), syncRequest(cmd, opts))
	printRewrites(cmd.OutOrStdout(), result)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "up to date: %s\n", result.ConfigPath)
	return nil
}
