package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"minapt/internal/app"
)

func newUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Download package indexes from every configured source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpdate(cmd)
		},
	}
}

func runUpdate(cmd *cobra.Command) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	result, err := service.Update(cmd.Context(), app.UpdateRequest{})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, fetched := range result.Fetched {
		fmt.Fprintf(out, "Get:%d %s [%s]\n", i+1, fetched.Source, formatBytes(uint64(fetched.Bytes)))
	}
	fmt.Fprintf(out, "Reading package lists... Done (%d packages)\n", result.Packages)
	if result.Upgradable == 0 {
		fmt.Fprintln(out, "All packages are up to date.")
		return nil
	}
	fmt.Fprintf(out, "%d packages can be upgraded. Run 'minapt list --upgradable' to see them.\n", result.Upgradable)
	return nil
}
