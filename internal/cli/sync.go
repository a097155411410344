package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hooksync/internal/app"
)

type syncOptions struct {
	ConfigFile     string
	Lockfile       string
	PackageManager string
	Hook           string
	Repo           string
	Exclude        []string
	DryRun         bool
}

func bindSyncFlags(cmd *cobra.Command, opts *syncOptions) {
	cmd.Flags().StringVar(&opts.ConfigFile, "config-file", app.DefaultConfigPath, "Hook configuration file")
	cmd.Flags().StringVar(&opts.Lockfile, "lockfile", "", "Lockfile path (default depends on --package-manager)")
	cmd.Flags().StringVar(&opts.PackageManager, "package-manager", "poetry", "Lockfile dialect: poetry, uv, pdm or pip-tools")
	cmd.Flags().StringVar(&opts.Hook, "hook", "", "Only update the hook with this id or alias")
	cmd.Flags().StringVar(&opts.Repo, "repo", "", "Only update hooks of this repo")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "Package names never re-pinned (suffix * for a prefix)")

	_ = viper.BindPFlag("config_file", cmd.Flags().Lookup("config-file"))
	_ = viper.BindPFlag("lockfile", cmd.Flags().Lookup("lockfile"))
	_ = viper.BindPFlag("package_manager", cmd.Flags().Lookup("package-manager"))
	_ = viper.BindPFlag("hook", cmd.Flags().Lookup("hook"))
	_ = viper.BindPFlag("repo", cmd.Flags().Lookup("repo"))
	_ = viper.BindPFlag("exclude", cmd.Flags().Lookup("exclude"))
}

func syncRequest(cmd *cobra.Command, opts syncOptions) app.SyncRequest {
	return app.SyncRequest{
		ConfigPath:     resolveString(cmd, opts.ConfigFile, "config_file", "config-file"),
		LockfilePath:   resolveString(cmd, opts.Lockfile, "lockfile", "lockfile"),
		PackageManager: resolveString(cmd, opts.PackageManager, "package_manager", "package-manager"),
		Hook:           resolveString(cmd, opts.Hook, "hook", "hook"),
		Repo:           resolveString(cmd, opts.Repo, "repo", "repo"),
		Exclude:        resolveStrings(cmd, opts.Exclude, "exclude", "exclude"),
		DryRun:         resolveBool(cmd, opts.DryRun, "dry_run", "dry-run"),
	}
}

func runSync(cmd *cobra.Command, opts syncOptions) error {
	service := newAppService()
	result, err := service.Sync(cmd.Context(), syncRequest(cmd, opts))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printRewrites(out, result)
	switch {
	case result.Written:
		fmt.Fprintf(out, "updated: %s\n", result.ConfigPath)
	case result.Report.Changed():
		fmt.Fprintf(out, "would update: %s\n", result.ConfigPath)
	default:
		fmt.Fprintf(out, "up to date: %s\n", result.ConfigPath)
	}
	return nil
}

func printRewrites(out io.Writer, result app.SyncResult) {
	for _, rewrite := range result.Report.Rewrites {
		fmt.Fprintf(out, "%s: %s -> %s\n", rewrite.HookID, rewrite.From, rewrite.To)
	}
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveStrings(cmd *cobra.Command, values []string, key string, flagName string) []string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return viper.GetStringSlice(key)
	}
	if flagChanged(cmd, flagName) {
		return values
	}
	return viper.GetStringSlice(key)
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
