// Package changelog generates release notes with a three-tier fallback:
// git-cliff when the tool is installed and produces output, otherwise a
// conventional-commit summary of the history since the last release tag,
// otherwise a minimal one-line note. Generation never fails a release.
package changelog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"

	"github.com/input-output-hk/catalyst-forge-release/executor"
	"github.com/input-output-hk/catalyst-forge-release/git"
)

// History is the slice of git the generator needs. *git.Repo implements it.
type History interface {
	CommitsSince(ctx context.Context, tag string) ([]git.Commit, error)
}

// Generator produces release notes for a version.
type Generator struct {
	history     History
	cliff       *executor.Tool
	cliffConfig string
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithCliff sets the git-cliff tool used as the preferred generation tier.
func WithCliff(tool *executor.Tool) Option {
	return func(g *Generator) {
		g.cliff = tool
	}
}

// WithConfigFile points git-cliff at an explicit configuration file instead
// of its own project-local lookup.
func WithConfigFile(path string) Option {
	return func(g *Generator) {
		g.cliffConfig = path
	}
}

// UserConfigFile returns the user-level git-cliff configuration from the
// XDG config directory, or "" when none exists. Callers that pass it via
// WithConfigFile should prefer a project-local cliff.toml when one is
// present, since an explicit --config overrides git-cliff's own lookup.
func UserConfigFile() string {
	path, err := xdg.SearchConfigFile(filepath.Join("git-cliff", "cliff.toml"))
	if err != nil {
		return ""
	}
	return path
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithNow sets the clock used for section dates. Tests inject a fixed time.
func WithNow(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a Generator over the given history source.
func NewGenerator(history History, opts ...Option) *Generator {
	g := &Generator{
		history: history,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the release notes for the new tag. previousTag is empty
// for a first release. The error return exists only for context
// cancellation; every generation failure falls through to the next tier.
func (g *Generator) Generate(ctx context.Context, tag, previousTag string) (string, error) {
	if notes := g.fromCliff(ctx, tag); notes != "" {
		return notes, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if notes := g.fromHistory(ctx, tag, previousTag); notes != "" {
		return notes, nil
	}

	return fmt.Sprintf("Release %s.\n", tag), nil
}

// fromCliff runs git-cliff for the unreleased range. Any failure or empty
// output returns "" so the caller falls through.
func (g *Generator) fromCliff(ctx context.Context, tag string) string {
	if g.cliff == nil {
		return ""
	}

	args := []string{"--unreleased", "--tag", tag, "--strip", "all"}
	if g.cliffConfig != "" {
		args = append(args, "--config", g.cliffConfig)
	}

	result, err := g.cliff.Run(ctx, args...)
	if err != nil {
		g.logger.Debug("git-cliff unavailable, falling back", "error", err)
		return ""
	}

	notes := strings.TrimSpace(result.Stdout)
	if notes == "" {
		g.logger.Debug("git-cliff produced no output, falling back")
		return ""
	}
	return notes + "\n"
}

// fromHistory summarizes the commits since the previous tag, grouped by
// conventional-commit type. Returns "" when history is unreadable or empty.
func (g *Generator) fromHistory(ctx context.Context, tag, previousTag string) string {
	commits, err := g.history.CommitsSince(ctx, previousTag)
	if err != nil {
		g.logger.Debug("commit summary unavailable, falling back", "error", err)
		return ""
	}
	if len(commits) == 0 {
		return ""
	}

	return renderSummary(tag, g.now(), commits)
}

// sectionTitles maps conventional-commit types to changelog headings.
// Types outside the map land under "Other Changes".
var sectionTitles = map[string]string{
	"feat":  "Features",
	"fix":   "Bug Fixes",
	"perf":  "Performance",
	"docs":  "Documentation",
	"chore": "Maintenance",
}

// sectionRank orders the headings in the rendered output.
var sectionRank = map[string]int{
	"Breaking Changes": 0,
	"Features":         1,
	"Bug Fixes":        2,
	"Performance":      3,
	"Documentation":    4,
	"Maintenance":      5,
	"Other Changes":    6,
}

func renderSummary(tag string, when time.Time, commits []git.Commit) string {
	machine := parser.NewMachine(conventionalcommits.WithTypes(conventionalcommits.TypesConventional))

	sections := make(map[string][]string)
	for _, commit := range commits {
		heading, line := classify(machine, commit)
		sections[heading] = append(sections[heading], line)
	}

	headings := make([]string, 0, len(sections))
	for heading := range sections {
		headings = append(headings, heading)
	}
	sort.Slice(headings, func(i, j int) bool {
		return sectionRank[headings[i]] < sectionRank[headings[j]]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "## %s - %s\n", tag, when.Format("2006-01-02"))
	for _, heading := range headings {
		fmt.Fprintf(&b, "\n### %s\n\n", heading)
		for _, line := range sections[heading] {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	return b.String()
}

// classify maps one commit to its changelog heading and rendered line.
func classify(machine conventionalcommits.Machine, commit git.Commit) (string, string) {
	msg, err := machine.Parse([]byte(commit.Subject))
	if err != nil {
		return "Other Changes", commit.Subject
	}

	cc, ok := msg.(*conventionalcommits.ConventionalCommit)
	if !ok {
		return "Other Changes", commit.Subject
	}

	line := cc.Description
	if cc.Scope != nil {
		line = fmt.Sprintf("**%s**: %s", *cc.Scope, cc.Description)
	}

	if cc.IsBreakingChange() || strings.Contains(commit.Body, "BREAKING CHANGE") {
		return "Breaking Changes", line
	}

	heading, known := sectionTitles[cc.Type]
	if !known {
		return "Other Changes", commit.Subject
	}
	return heading, line
}
