package cli

import (
	"github.com/spf13/cobra"

	"minapt/internal/app"
)

type listOptions struct {
	Installed  bool
	Upgradable bool
	IgnoreCase bool
}

func newListCommand() *cobra.Command {
	opts := listOptions{}
	cmd := &cobra.Command{
		Use:   "list [glob]",
		Short: "List packages by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) > 0 {
				pattern = args[0]
			}
			return runList(cmd, pattern, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Installed, "installed", false, "List installed packages")
	cmd.Flags().BoolVar(&opts.Upgradable, "upgradable", false, "List packages with a newer version available")
	cmd.Flags().BoolVarP(&opts.IgnoreCase, "ignore-case", "i", false, "Match names case-insensitively")
	return cmd
}

func runList(cmd *cobra.Command, pattern string, opts listOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	entries, err := service.List(cmd.Context(), app.ListRequest{
		Pattern:    pattern,
		Installed:  opts.Installed,
		Upgradable: opts.Upgradable,
		IgnoreCase: opts.IgnoreCase,
	})
	if err != nil {
		return err
	}
	writeList(cmd.OutOrStdout(), entries)
	return nil
}

type searchOptions struct {
	Full       bool
	IgnoreCase bool
}

func newSearchCommand() *cobra.Command {
	opts := searchOptions{}
	cmd := &cobra.Command{
		Use:   "search <regex>",
		Short: "Search package names and descriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Full, "full", false, "Print full descriptions")
	cmd.Flags().BoolVarP(&opts.IgnoreCase, "ignore-case", "i", false, "Match case-insensitively")
	return cmd
}

func runSearch(cmd *cobra.Command, expression string, opts searchOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	entries, err := service.Search(cmd.Context(), app.SearchRequest{
		Expression: expression,
		IgnoreCase: opts.IgnoreCase,
	})
	if err != nil {
		return err
	}
	writeSearch(cmd.OutOrStdout(), entries, opts.Full)
	return nil
}

type showOptions struct {
	Installed  bool
	IgnoreCase bool
}

func newShowCommand() *cobra.Command {
	opts := showOptions{}
	cmd := &cobra.Command{
		Use:   "show <glob>",
		Short: "Show package details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Installed, "installed", false, "Show the installed record instead of the index record")
	cmd.Flags().BoolVarP(&opts.IgnoreCase, "ignore-case", "i", false, "Match names case-insensitively")
	return cmd
}

func runShow(cmd *cobra.Command, pattern string, opts showOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	records, err := service.Show(cmd.Context(), app.ShowRequest{
		Pattern:    pattern,
		Installed:  opts.Installed,
		IgnoreCase: opts.IgnoreCase,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, record := range records {
		writeRecord(out, record)
	}
	return nil
}
