// Package ci waits for hosted CI workflow runs to finish before a release
// proceeds, polling the GitHub CLI.
package ci

import (
	"time"
)

// RunStatus is the state of a workflow run.
type RunStatus string

const (
	// StatusQueued means the run is waiting for a runner.
	StatusQueued RunStatus = "QUEUED"

	// StatusInProgress means the run is executing.
	StatusInProgress RunStatus = "IN_PROGRESS"

	// StatusCompleted means the run finished successfully.
	StatusCompleted RunStatus = "COMPLETED"

	// StatusFailed means the run finished with a failure conclusion.
	StatusFailed RunStatus = "FAILED"

	// StatusCancelled means the run was cancelled.
	StatusCancelled RunStatus = "CANCELLED"

	// StatusSkipped means the run was skipped entirely.
	StatusSkipped RunStatus = "SKIPPED"

	// StatusTimedOut means the run hit the CI provider's own time limit.
	StatusTimedOut RunStatus = "TIMED_OUT"
)

// Finished reports whether the status is terminal.
func (s RunStatus) Finished() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusSkipped, StatusTimedOut:
		return true
	}
	return false
}

// refineStatus maps the provider's status/conclusion pair onto a RunStatus.
// The provider reports a bare "completed" for every terminal run and moves
// the real outcome into the conclusion field.
func refineStatus(status, conclusion string) RunStatus {
	switch status {
	case "queued", "waiting", "requested", "pending":
		return StatusQueued
	case "in_progress":
		return StatusInProgress
	case "completed":
		switch conclusion {
		case "failure", "startup_failure":
			return StatusFailed
		case "cancelled":
			return StatusCancelled
		case "skipped":
			return StatusSkipped
		case "timed_out":
			return StatusTimedOut
		default:
			return StatusCompleted
		}
	default:
		return StatusInProgress
	}
}

// RunResult describes one workflow run observation.
type RunResult struct {
	// Status is the refined run status.
	Status RunStatus

	// Name is the workflow name.
	Name string

	// Conclusion is the provider's raw conclusion field.
	Conclusion string

	// RunID is the provider's run identifier.
	RunID int64

	// URL links to the run.
	URL string

	// Duration is how long the monitor waited for this run so far.
	Duration time.Duration

	// Details carries extra context for error reporting.
	Details string
}
