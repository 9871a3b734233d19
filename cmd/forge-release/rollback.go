package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-release/errors"
	"github.com/input-output-hk/catalyst-forge-release/release"
	"github.com/input-output-hk/catalyst-forge-release/version"
)

func newRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <version>",
		Short: "Undo a released version: delete its tags and remove its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE:  runRollback,
	}
}

func runRollback(cmd *cobra.Command, args []string) error {
	ver, err := version.Parse(args[0])
	if err != nil {
		return err
	}

	p, err := loadProject(cmd)
	if err != nil {
		return err
	}
	if err := p.openRepo(cmd); err != nil {
		return err
	}

	rollback, err := release.NewRollback(ver.String(), &release.Options{
		FS:          p.fs,
		ProjectRoot: p.root,
		Config:      p.cfg,
		Repo:        p.repo,
		DryRun:      p.dryRun,
		Verbose:     p.verbose,
	})
	if err != nil {
		return err
	}

	report := rollback.Run(cmd.Context())

	out := cmd.OutOrStdout()
	printSteps(out, report.Steps)
	if report.Clean() {
		return nil
	}

	fmt.Fprintln(out, "\nManual follow-up required:")
	for _, step := range report.Manual {
		fmt.Fprintf(out, "  - %s\n", step)
	}
	return errors.Newf(errors.CodeRollback,
		"rollback incomplete: %d manual step(s) remain", len(report.Manual))
}
