package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-release/errors"
	"github.com/input-output-hk/catalyst-forge-release/git"
	"github.com/input-output-hk/catalyst-forge-release/validate"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [git|version|files|security]",
		Short: "Run the pre-release checks without releasing",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	p, err := loadProject(cmd)
	if err != nil {
		return err
	}

	// Validation still runs outside a checkout; the git-category checks
	// report the missing repository themselves.
	repo, err := git.Open(cmd.Context(), &git.Options{FS: p.fs})
	if err != nil {
		repo = nil
	}

	vctx := &validate.Context{
		ProjectRoot: p.root,
		FS:          p.fs,
		Repo:        repo,
		Config:      p.cfg,
		DryRun:      p.dryRun,
		Verbose:     p.verbose,
	}

	var results []validate.Result
	if len(args) > 0 {
		results = validate.Default().RunCategory(cmd.Context(), validate.Category(args[0]), vctx)
		if len(results) == 0 {
			return errors.Newf(errors.CodeNotFound, "no validators in category %q", args[0]).
				WithHint("categories: git, version, files, security")
		}
	} else {
		results = validate.Default().RunAll(cmd.Context(), vctx)
	}

	printValidation(cmd.OutOrStdout(), results)
	if !validate.Passed(results) {
		return errors.New(errors.CodeValidationFailed, "validation failed")
	}
	return nil
}

func printValidation(out io.Writer, results []validate.Result) {
	for _, r := range results {
		marker := "✓"
		switch {
		case !r.Passed && r.Severity == validate.SeverityError:
			marker = "✗"
		case !r.Passed:
			marker = "!"
		}
		fmt.Fprintf(out, "%s %-24s %s\n", marker, r.Name, r.Message)
		for _, detail := range r.Details {
			fmt.Fprintf(out, "    %s\n", detail)
		}
		if r.FixCommand != "" {
			fmt.Fprintf(out, "    fix: %s\n", r.FixCommand)
		}
	}
}
