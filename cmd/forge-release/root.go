package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	// Register the built-in validators and publishers.
	_ "github.com/input-output-hk/catalyst-forge-release/publish/builtin"
	_ "github.com/input-output-hk/catalyst-forge-release/validate/builtin"
)

// buildVersion is stamped at build time via -ldflags.
var buildVersion = "dev"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "forge-release",
		Short:         "Forge-release cuts, publishes, and rolls back project releases",
		Version:       buildVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			configureLogging(verbose)
		},
	}

	persistent := cmd.PersistentFlags()
	persistent.StringP("project", "C", "", "project root (default: current directory)")
	persistent.String("config", "", "configuration file relative to the project root")
	persistent.Bool("dry-run", false, "report every step without mutating anything")
	persistent.BoolP("verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newRollbackCmd())
	cmd.AddCommand(newPublishersCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// configureLogging routes package logs to stderr. Steps print their own
// progress, so the default level only surfaces warnings.
func configureLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
