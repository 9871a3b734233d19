package ci

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-release/errors"
	"github.com/input-output-hk/catalyst-forge-release/executor"
)

const (
	// DefaultPollInterval is the wait between run-list queries.
	DefaultPollInterval = 15 * time.Second

	// DefaultTimeout bounds the total wait for one workflow run.
	DefaultTimeout = 15 * time.Minute

	// minShortHashLength is the shortest commit prefix accepted for run
	// matching. Anything shorter matches too loosely to trust.
	minShortHashLength = 7
)

// Monitor polls the GitHub CLI until the workflow run for a commit reaches a
// terminal status.
type Monitor struct {
	gh           *executor.Tool
	pollInterval time.Duration
	timeout      time.Duration
	allowSkipped bool
	logger       *slog.Logger
	now          func() time.Time
	sleep        func(time.Duration)
	progress     func(RunResult)
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithPollInterval overrides the poll interval.
func WithPollInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.pollInterval = d
	}
}

// WithTimeout overrides the total wait bound.
func WithTimeout(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.timeout = d
	}
}

// WithAllowSkipped sets whether a skipped run counts as success.
func WithAllowSkipped(allow bool) MonitorOption {
	return func(m *Monitor) {
		m.allowSkipped = allow
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithClock overrides the time source and sleep function. Tests drive the
// clock manually.
func WithClock(now func() time.Time, sleep func(time.Duration)) MonitorOption {
	return func(m *Monitor) {
		m.now = now
		m.sleep = sleep
	}
}

// WithProgress sets a callback invoked on every non-terminal observation.
func WithProgress(fn func(RunResult)) MonitorOption {
	return func(m *Monitor) {
		m.progress = fn
	}
}

// NewMonitor creates a Monitor that queries through the given runner.
func NewMonitor(runner executor.Runner, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		gh:           executor.NewTool(runner, "gh"),
		pollInterval: DefaultPollInterval,
		timeout:      DefaultTimeout,
		allowSkipped: true,
		logger:       slog.Default(),
		now:          time.Now,
		sleep:        time.Sleep,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// runRecord is the JSON shape of one gh run list entry.
type runRecord struct {
	DatabaseID int64  `json:"databaseId"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	HeadSha    string `json:"headSha"`
	URL        string `json:"url"`
}

// WaitForRun blocks until the run of the named workflow for the commit
// reaches a terminal status, the timeout elapses, or the context is
// cancelled. The commit may be a full hash or a prefix of at least seven
// characters.
//
// Context timeout/cancellation is honored between polls.
func (m *Monitor) WaitForRun(ctx context.Context, workflow, commit string) (RunResult, error) {
	if len(commit) < minShortHashLength {
		return RunResult{}, errors.Newf(errors.CodeInvalidInput,
			"commit %q is too short to match runs; need at least %d characters",
			commit, minShortHashLength)
	}

	start := m.now()
	for {
		elapsed := m.now().Sub(start)
		if elapsed > m.timeout {
			return RunResult{}, errors.Newf(errors.CodeTimeout,
				"workflow %q did not finish within %s (waited %s)",
				workflow, m.timeout, elapsed.Round(time.Second)).
				WithHint("raise ci.timeout or check the workflow on the hosting provider")
		}

		run, found, err := m.queryRun(ctx, workflow, commit)
		switch {
		case err != nil:
			// Transient: the next poll may succeed.
			m.logger.Warn("workflow query failed; will retry",
				"workflow", workflow, "error", err)
		case !found:
			m.logger.Debug("workflow run not started yet",
				"workflow", workflow, "commit", commit)
		default:
			run.Duration = elapsed
			if result, done, runErr := m.classify(workflow, run); done {
				return result, runErr
			}
			if m.progress != nil {
				m.progress(run)
			}
		}

		m.sleep(m.pollInterval)
		if ctx.Err() != nil {
			return RunResult{}, errors.Wrapf(ctx.Err(), errors.CodeCI,
				"wait for workflow %q interrupted", workflow)
		}
	}
}

// WaitForAll waits for each workflow in order, failing on the first error.
func (m *Monitor) WaitForAll(ctx context.Context, workflows []string, commit string) ([]RunResult, error) {
	results := make([]RunResult, 0, len(workflows))
	for _, workflow := range workflows {
		result, err := m.WaitForRun(ctx, workflow, commit)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// queryRun lists the workflow's recent runs and returns the one matching the
// commit, if any.
func (m *Monitor) queryRun(ctx context.Context, workflow, commit string) (RunResult, bool, error) {
	out, err := m.gh.Run(ctx, "run", "list",
		"--workflow", workflow,
		"--limit", "30",
		"--json", "databaseId,name,status,conclusion,headSha,url")
	if err != nil {
		return RunResult{}, false, err
	}

	var records []runRecord
	if err := json.Unmarshal([]byte(out.Stdout), &records); err != nil {
		return RunResult{}, false, fmt.Errorf("malformed run list: %w", err)
	}

	for _, record := range records {
		if !strings.HasPrefix(record.HeadSha, commit) {
			continue
		}
		return RunResult{
			Status:     refineStatus(record.Status, record.Conclusion),
			Name:       record.Name,
			Conclusion: record.Conclusion,
			RunID:      record.DatabaseID,
			URL:        record.URL,
		}, true, nil
	}
	return RunResult{}, false, nil
}

// classify decides whether an observed run ends the wait.
func (m *Monitor) classify(workflow string, run RunResult) (RunResult, bool, error) {
	switch run.Status {
	case StatusCompleted:
		return run, true, nil

	case StatusSkipped:
		if m.allowSkipped {
			return run, true, nil
		}
		return run, true, errors.Newf(errors.CodeCI,
			"workflow %q was skipped and ci.allow_skipped is disabled (run %d)",
			workflow, run.RunID).
			WithHint(runViewHint(run.RunID))

	case StatusFailed, StatusCancelled, StatusTimedOut:
		return run, true, errors.Newf(errors.CodeCI,
			"workflow %q finished with status %s (run %d)",
			workflow, run.Status, run.RunID).
			WithHint(runViewHint(run.RunID))

	default:
		return run, false, nil
	}
}

func runViewHint(runID int64) string {
	return fmt.Sprintf("inspect it with: gh run view %d --log", runID)
}
