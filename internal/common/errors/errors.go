// Package errors provides standardized error handling for the agent build pipeline.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfigurationInvalid ErrorCode = "CONFIGURATION_INVALID"
	ErrCodeAPIKeyMissing        ErrorCode = "API_KEY_MISSING"

	ErrCodeRequirementsInvalid  ErrorCode = "REQUIREMENTS_INVALID"
	ErrCodeResourceLimitReached ErrorCode = "RESOURCE_LIMIT_REACHED"

	ErrCodeRemoteConnectionFailed ErrorCode = "REMOTE_CONNECTION_FAILED"
	ErrCodeRemoteResultInvalid    ErrorCode = "REMOTE_RESULT_INVALID"
	ErrCodeCodeGenerationFailed   ErrorCode = "CODE_GENERATION_FAILED"
	ErrCodeBuildCancelled         ErrorCode = "BUILD_CANCELLED"

	ErrCodePersistenceFailed  ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeDeploymentFailed   ErrorCode = "DEPLOYMENT_FAILED"
	ErrCodeKnowledgeSource    ErrorCode = "KNOWLEDGE_SOURCE_ERROR"
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithCause attaches an underlying error to the chain.
func (e *StandardError) WithCause(err error) *StandardError {
	e.cause = err
	return e
}

// IsCode reports whether err is, or wraps, a StandardError with the given code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		if se, ok := err.(*StandardError); ok && se.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// NewConfigurationError creates a fatal configuration error; builds never start on it.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationInvalid,
		Message:   "Invalid or incomplete builder configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAPIKeyError creates a fatal missing-credentials error.
func NewAPIKeyError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAPIKeyMissing,
		Message:   "Missing or invalid API credentials",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequirementsInvalidError marks a requirements document that failed validation.
func NewRequirementsInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequirementsInvalid,
		Message:   "Agent requirements failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResourceLimitError marks requirements exceeding configured resource limits.
func NewResourceLimitError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceLimitReached,
		Message:   "Agent requirements exceed resource limits",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRemoteConnectionError marks a remote generation service that could not
// be reached. Recovered by template fallback, never surfaced as a build failure.
func NewRemoteConnectionError(err error) *StandardError {
	return (&StandardError{
		Code:      ErrCodeRemoteConnectionFailed,
		Message:   "Remote generation service unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}).WithCause(err)
}

// NewRemoteResultInvalidError marks a remote generation result that was empty
// or malformed. Recovered by template fallback.
func NewRemoteResultInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteResultInvalid,
		Message:   "Remote generation returned an unusable result",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCodeGenerationError marks the fatal case: both generation strategies failed.
func NewCodeGenerationError(details string, cause error) *StandardError {
	return (&StandardError{
		Code:      ErrCodeCodeGenerationFailed,
		Message:   "Code generation failed on both remote and template paths",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}).WithCause(cause)
}

// NewBuildCancelledError marks a build aborted by caller cancellation,
// distinct from a generation failure.
func NewBuildCancelledError(cause error) *StandardError {
	return (&StandardError{
		Code:      ErrCodeBuildCancelled,
		Message:   "Build cancelled by caller",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}).WithCause(cause)
}

// NewPersistenceError marks an I/O failure writing generated files.
func NewPersistenceError(dir string, err error) *StandardError {
	return (&StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Failed to persist generated files",
		Details:   fmt.Sprintf("directory: %s, error: %s", dir, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}).WithCause(err)
}

// NewDeploymentError marks a failed deployment attempt.
func NewDeploymentError(stage string, err error) *StandardError {
	return (&StandardError{
		Code:      ErrCodeDeploymentFailed,
		Message:   "Agent deployment failed",
		Details:   fmt.Sprintf("stage: %s, error: %s", stage, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}).WithCause(err)
}

// NewKnowledgeSourceError marks a knowledge search or indexing failure.
// Builds continue without context on it.
func NewKnowledgeSourceError(err error) *StandardError {
	return (&StandardError{
		Code:      ErrCodeKnowledgeSource,
		Message:   "Knowledge search failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}).WithCause(err)
}

// NewSessionStoreError marks a session persistence failure.
func NewSessionStoreError(err error) *StandardError {
	return (&StandardError{
		Code:      ErrCodeSessionStoreFailed,
		Message:   "Build session store error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}).WithCause(err)
}

// NewNotificationError marks a notification delivery failure.
func NewNotificationError(channel string, err error) *StandardError {
	return (&StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}).WithCause(err)
}
