// Package errors provides the error handling system for the release engine.
// It extends Go's standard error handling with structured error codes,
// context preservation, and fix hints surfaced to the operator.
package errors

// ErrorCode represents a specific error condition in the release engine.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Resource errors.

	// CodeNotFound indicates a requested resource does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a resource already exists and cannot be created again.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Input errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Release pipeline errors.

	// CodeValidationFailed indicates a blocking pre-release check failed.
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// CodeGit indicates a version control operation failed.
	CodeGit ErrorCode = "GIT_ERROR"

	// CodePublishFailed indicates a publish operation failed.
	CodePublishFailed ErrorCode = "PUBLISH_FAILED"

	// CodeCI indicates a required CI workflow failed, was cancelled, or could not be queried.
	CodeCI ErrorCode = "CI_ERROR"

	// CodeRollback indicates a cleanup or compensation operation failed.
	CodeRollback ErrorCode = "ROLLBACK_FAILED"

	// Infrastructure errors.

	// CodeNetwork indicates a network operation failed.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeExecutionFailed indicates an external command exited unsuccessfully.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)
