package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hooksync/internal/types"
)

// version is set at build time via ldflags.
var version = "dev"

type RootConfig struct {
	SettingsFile string
	LogLevel     string
}

func Execute() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	opts := syncOptions{}
	cmd := &cobra.Command{
		Use:          "hooksync",
		Short:        "Pin pre-commit additional_dependencies to lockfile versions",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.SettingsFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, opts)
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.SettingsFile, "settings", "", "hooksync settings file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))

	bindSyncFlags(cmd, &opts)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report stale pins without writing")
	_ = viper.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run"))

	cmd.AddCommand(newCheckCommand())
	return cmd
}

// initConfig loads optional defaults from a settings file. Environment
// variables are not consulted.
func initConfig(settingsFile string) error {
	if settingsFile != "" {
		viper.SetConfigFile(settingsFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read settings file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName(".hooksync")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to read settings file").
			WithCause(err)
	}
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
	code := errbuilder.CodeOf(err)
	message := errorMessage(err)
	switch code {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeNotFound:
		if strings.HasPrefix(message, types.MsgLockfileRead) {
			return 4
		}
		if strings.HasPrefix(message, types.MsgConfigRead) {
			return 5
		}
		if code == errbuilder.CodeNotFound {
			return 5
		}
		return 2
	case errbuilder.CodeFailedPrecondition:
		if strings.HasPrefix(message, types.MsgOutOfSync) {
			return 1
		}
		return 3
	case errbuilder.CodeInternal:
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
