package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"minapt/internal/shared"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "MINAPT"

type RootConfig struct {
	ConfigFile       string
	LogLevel         string
	RootDir          string
	SourcesList      string
	DpkgStatus       string
	ExtendedStates   []string
	Arch             string
	FetchWorkers     int
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
	VersionScheme    string
	Hold             []string
	DpkgBinary       string
}

func Execute() {
	root := newRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Debug().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "E: %s\n", displayError(err))
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:           "minapt",
		Short:         "Minimal Debian package manager client",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(log.Logger.WithContext(ctx))
			return nil
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	flags.StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	flags.StringVar(&cfg.RootDir, "root-dir", ".", "Directory holding lists/, archive/ and apt/extended_states")
	flags.StringVar(&cfg.SourcesList, "sources-list", "", "sources.list path (defaults to <root-dir>/sources.list)")
	flags.StringVar(&cfg.DpkgStatus, "dpkg-status", "/var/lib/dpkg/status", "dpkg status file")
	flags.StringSliceVar(&cfg.ExtendedStates, "extended-states", nil, "extended_states files (first one receives updates)")
	flags.StringVar(&cfg.Arch, "arch", "amd64", "Package architecture")
	flags.IntVar(&cfg.FetchWorkers, "fetch-workers", 4, "Concurrent downloads (0 = default)")
	flags.IntVar(&cfg.HTTPTimeoutSec, "http-timeout", 60, "HTTP timeout in seconds (0 = default)")
	flags.IntVar(&cfg.HTTPRetries, "http-retries", 3, "HTTP retries (0 = default)")
	flags.IntVar(&cfg.HTTPRetryDelayMs, "http-retry-delay-ms", 200, "HTTP retry base delay in ms (0 = default)")
	flags.StringVar(&cfg.VersionScheme, "version-scheme", "native", "Version ordering: native or strict")
	flags.StringSliceVar(&cfg.Hold, "hold", nil, "Package patterns never upgraded (name, prefix*, section:pattern)")
	flags.StringVar(&cfg.DpkgBinary, "dpkg-binary", "dpkg", "Installer binary invoked as <binary> -i <file>")

	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("root_dir", flags.Lookup("root-dir"))
	_ = viper.BindPFlag("sources_list", flags.Lookup("sources-list"))
	_ = viper.BindPFlag("dpkg_status", flags.Lookup("dpkg-status"))
	_ = viper.BindPFlag("extended_states", flags.Lookup("extended-states"))
	_ = viper.BindPFlag("arch", flags.Lookup("arch"))
	_ = viper.BindPFlag("fetch_workers", flags.Lookup("fetch-workers"))
	_ = viper.BindPFlag("http_timeout_sec", flags.Lookup("http-timeout"))
	_ = viper.BindPFlag("http_retries", flags.Lookup("http-retries"))
	_ = viper.BindPFlag("http_retry_delay_ms", flags.Lookup("http-retry-delay-ms"))
	_ = viper.BindPFlag("version_scheme", flags.Lookup("version-scheme"))
	_ = viper.BindPFlag("hold", flags.Lookup("hold"))
	_ = viper.BindPFlag("dpkg_binary", flags.Lookup("dpkg-binary"))

	cmd.AddCommand(newUpdateCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newSearchCommand())
	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newInstallCommand())
	cmd.AddCommand(newUpgradeCommand())
	cmd.AddCommand(newCleanCommand())
	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("minapt")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/minapt")
	// A missing default config file is fine.
	_ = viper.ReadInConfig()
	return nil
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func exitCodeForError(err error) int {
	switch shared.KindOf(err) {
	case shared.KindMalformedInput:
		return 2
	case shared.KindLockContention:
		return 3
	case shared.KindUnresolvedDependencies:
		return 4
	case shared.KindIOFailure:
		return 5
	default:
		return 1
	}
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}

// displayError is errorMessage followed by the wrapped cause, if any.
func displayError(err error) string {
	message := errorMessage(err)
	var builder *errbuilder.ErrBuilder
	if !errors.As(err, &builder) {
		return message
	}
	if cause := errors.Unwrap(builder); cause != nil && cause.Error() != message {
		return message + ": " + cause.Error()
	}
	return message
}
