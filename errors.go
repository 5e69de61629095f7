package quorum

import (
	"errors"
	"fmt"
)

// Error codes for specific failure types
const (
	ErrCodePlanning         = "PLANNING_ERROR"
	ErrCodeGeneration       = "GENERATION_ERROR"
	ErrCodeAllSolversFailed = "ALL_SOLVERS_FAILED"
	ErrCodeNoCandidates     = "NO_CANDIDATES"
	ErrCodeVerification     = "VERIFICATION_ERROR"
	ErrCodeToolNotFound     = "TOOL_NOT_FOUND"
	ErrCodeToolExecution    = "TOOL_EXECUTION_ERROR"
	ErrCodeConfiguration    = "CONFIGURATION_ERROR"
	ErrCodeCancelled        = "EXECUTION_CANCELLED"
	ErrCodeTimeout          = "EXECUTION_TIMEOUT"
	ErrCodeCache            = "CACHE_ERROR"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// QuorumError is a custom error type for quorum specific errors.
type QuorumError struct {
	Code    string // A machine-readable error code (e.g., ErrCodeNoCandidates)
	Stage   string // The stage where the error occurred (e.g., "planning", "judging")
	Message string // A human-readable message
	Cause   error  // The underlying error, if any
}

// Error implements the error interface.
func (e *QuorumError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Stage, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Stage, e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error, allowing for error chaining.
func (e *QuorumError) Unwrap() error {
	return e.Cause
}

// NewError creates a new QuorumError.
func NewError(code, stage, message string, cause error) *QuorumError {
	return &QuorumError{
		Code:    code,
		Stage:   stage,
		Message: message,
		Cause:   cause,
	}
}

// IsQuorumError reports whether err is (or wraps) a QuorumError.
func IsQuorumError(err error) bool {
	var qe *QuorumError
	return errors.As(err, &qe)
}

// HasErrorCode reports whether err is a QuorumError carrying the given code.
func HasErrorCode(err error, code string) bool {
	var qe *QuorumError
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

// Specific error constructors

// NewPlanningError wraps a failed planner generation call. Fatal: the solve
// propagates it instead of guessing a fallback plan.
func NewPlanningError(cause error) *QuorumError {
	return NewError(ErrCodePlanning, "planning", "failed to generate execution plan", cause)
}

func NewGenerationError(stage string, cause error) *QuorumError {
	return NewError(ErrCodeGeneration, stage, "generation call failed", cause)
}

// NewAllSolversFailedError marks a round in which every solver attempt failed.
func NewAllSolversFailedError(round int) *QuorumError {
	return NewError(ErrCodeAllSolversFailed, "solving", fmt.Sprintf("all solvers failed in round %d", round), nil)
}

// NewNoCandidatesError is raised when the judge is given an empty pool.
func NewNoCandidatesError(stage string) *QuorumError {
	return NewError(ErrCodeNoCandidates, stage, "no candidate solutions to judge", nil)
}

func NewVerificationError(cause error) *QuorumError {
	return NewError(ErrCodeVerification, "verification", "verification call failed", cause)
}

func NewToolNotFoundError(stage, toolName string) *QuorumError {
	return NewError(ErrCodeToolNotFound, stage, fmt.Sprintf("tool '%s' not found", toolName), nil)
}

func NewToolExecutionError(stage, toolName string, cause error) *QuorumError {
	return NewError(ErrCodeToolExecution, stage, fmt.Sprintf("execution failed for tool '%s'", toolName), cause)
}

func NewConfigurationError(message string, cause error) *QuorumError {
	return NewError(ErrCodeConfiguration, "initialization", message, cause)
}

func NewCancelledError(stage string, cause error) *QuorumError {
	msg := "solve cancelled"
	if cause != nil && cause.Error() != "" && cause.Error() != "context canceled" {
		msg = fmt.Sprintf("solve cancelled: %v", cause)
	}
	return NewError(ErrCodeCancelled, stage, msg, cause)
}

func NewTimeoutError(stage string, cause error) *QuorumError {
	return NewError(ErrCodeTimeout, stage, "solve timed out", cause)
}

func NewCacheError(stage, operation string, cause error) *QuorumError {
	return NewError(ErrCodeCache, stage, fmt.Sprintf("cache operation '%s' failed", operation), cause)
}

func NewInternalError(stage, message string, cause error) *QuorumError {
	return NewError(ErrCodeInternal, stage, message, cause)
}
