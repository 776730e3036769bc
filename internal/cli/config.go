package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"minapt/internal/adapters"
	"minapt/internal/app"
	"minapt/internal/types"
)

func loadAppConfig() app.Config {
	return app.Config{
		RootDir:        viper.GetString("root_dir"),
		SourcesList:    viper.GetString("sources_list"),
		DpkgStatus:     viper.GetString("dpkg_status"),
		ExtendedStates: viper.GetStringSlice("extended_states"),
		Arch:           viper.GetString("arch"),
		FetchWorkers:   viper.GetInt("fetch_workers"),
		HTTP: adapters.HTTPConfig{
			TimeoutSec:   viper.GetInt("http_timeout_sec"),
			Retries:      viper.GetInt("http_retries"),
			RetryDelayMs: viper.GetInt("http_retry_delay_ms"),
		},
		VersionScheme: viper.GetString("version_scheme"),
		Hold:          viper.GetStringSlice("hold"),
		DpkgBinary:    viper.GetString("dpkg_binary"),
	}
}

func newAppService() (app.Service, error) {
	return app.NewService(loadAppConfig())
}

// promptConfirm prints the plan and reads a yes/no answer from in. An
// empty answer means yes.
func promptConfirm(in io.Reader, out io.Writer) app.ConfirmFunc {
	return func(plan types.InstallPlan) (bool, error) {
		writePlan(out, plan)
		fmt.Fprint(out, "Do you want to continue? [Y/n] ")
		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return false, err
			}
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "", "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
