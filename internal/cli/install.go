package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"minapt/internal/app"
)

type installOptions struct {
	Yes     bool
	DryRun  bool
	PlanOut string
}

func newInstallCommand() *cobra.Command {
	opts := installOptions{}
	cmd := &cobra.Command{
		Use:   "install <package|file.deb>",
		Short: "Install a package and the dependencies it needs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, args[0], opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the plan without fetching or installing")
	cmd.Flags().StringVar(&opts.PlanOut, "plan-out", "", "Write the install plan as YAML")
	_ = viper.BindPFlag("assume_yes", cmd.Flags().Lookup("yes"))
	return cmd
}

func runInstall(cmd *cobra.Command, target string, opts installOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	yes := resolveBool(cmd, opts.Yes, "assume_yes", "yes")
	result, err := service.Install(cmd.Context(), app.InstallRequest{
		Target:  target,
		Yes:     yes,
		DryRun:  opts.DryRun,
		PlanOut: opts.PlanOut,
		Confirm: promptConfirm(cmd.InOrStdin(), out),
	})
	if err != nil {
		return err
	}
	switch {
	case result.AlreadyInstalled:
		fmt.Fprintf(out, "%s is already the newest version.\n", target)
	case result.Aborted:
		fmt.Fprintln(out, "Abort.")
	case opts.DryRun || yes:
		writePlan(out, result.Plan)
	}
	writeInstalled(out, result.Installed)
	return nil
}

func newUpgradeCommand() *cobra.Command {
	opts := installOptions{}
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade every installed package that is not held",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpgrade(cmd, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the plan without fetching or installing")
	cmd.Flags().StringVar(&opts.PlanOut, "plan-out", "", "Write the upgrade plan as YAML")
	return cmd
}

func runUpgrade(cmd *cobra.Command, opts installOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	yes := resolveBool(cmd, opts.Yes, "assume_yes", "yes")
	result, err := service.Upgrade(cmd.Context(), app.UpgradeRequest{
		Yes:     yes,
		DryRun:  opts.DryRun,
		PlanOut: opts.PlanOut,
		Confirm: promptConfirm(cmd.InOrStdin(), out),
	})
	if err != nil {
		return err
	}
	writeHeld(out, result.Held)
	switch {
	case result.Plan.Empty():
		fmt.Fprintln(out, "0 upgraded, 0 newly installed.")
	case result.Aborted:
		fmt.Fprintln(out, "Abort.")
	case opts.DryRun || yes:
		writePlan(out, result.Plan)
	}
	writeInstalled(out, result.Installed)
	return nil
}

func newCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove downloaded package archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, err := newAppService()
			if err != nil {
				return err
			}
			result, err := service.Clean(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d archives.\n", result.Removed)
			return nil
		},
	}
}
