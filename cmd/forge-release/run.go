package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-release/errors"
	"github.com/input-output-hk/catalyst-forge-release/release"
	"github.com/input-output-hk/catalyst-forge-release/validate"
	"github.com/input-output-hk/catalyst-forge-release/version"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [major|minor|patch]",
		Short: "Validate, version, tag, and publish a release",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRelease,
	}
	cmd.Flags().Bool("skip-validation", false, "run the release without the pre-release checks")
	return cmd
}

func runRelease(cmd *cobra.Command, args []string) error {
	bumpArg := "patch"
	if len(args) > 0 {
		bumpArg = args[0]
	}
	bump, err := version.ParseBumpType(bumpArg)
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

	out := cmd.OutOrStdout()
	skipValidation, _ := cmd.Flags().GetBool("skip-validation")
	if !skipValidation {
		results := validate.Default().RunAll(cmd.Context(), &validate.Context{
			ProjectRoot: p.root,
			FS:          p.fs,
			Repo:        p.repo,
			Config:      p.cfg,
			DryRun:      p.dryRun,
			Verbose:     p.verbose,
		})
		printValidation(out, results)
		if !validate.Passed(results) {
			return errors.New(errors.CodeValidationFailed, "pre-release validation failed").
				WithHint("fix the findings above or rerun with --skip-validation")
		}
	}

	workflow, err := release.NewWorkflow(&release.Options{
		FS:          p.fs,
		ProjectRoot: p.root,
		Config:      p.cfg,
		Repo:        p.repo,
		Bump:        bump,
		DryRun:      p.dryRun,
		Verbose:     p.verbose,
	})
	if err != nil {
		return err
	}

	steps, err := workflow.Run(cmd.Context())
	printSteps(out, steps)
	if err != nil {
		return err
	}

	if p.dryRun {
		fmt.Fprintln(out, "\nDry run: nothing was changed.")
	}
	return nil
}

func printSteps(out io.Writer, steps []release.StepResult) {
	for _, s := range steps {
		marker := "✓"
		if !s.Success {
			marker = "✗"
		}
		fmt.Fprintf(out, "%s %-20s %s\n", marker, s.Name, s.Message)
		for _, detail := range s.Details {
			fmt.Fprintf(out, "    %s\n", detail)
		}
	}
}
