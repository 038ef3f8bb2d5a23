package util

import (
	"errors"
	"fmt"
)

// Error codes for the pipeline taxonomy.
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeTransient     = "TRANSIENT"
	CodePersistence   = "PERSISTENCE"
	CodeConfigInvalid = "CONFIG_INVALID"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, Details: details}
}

// NewInputError marks input that failed the validity gate. The batch
// continues; the ticket is recorded with a zeroed, invalid analysis.
func NewInputError(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidInput, message, details)
}

// NewTransientError wraps a recoverable processing failure. The orchestrator
// retries the unit up to its retry bound.
func NewTransientError(message string, err error) error {
	return &DomainError{Code: CodeTransient, Message: message, Err: err}
}

// NewPersistenceError wraps a write failure; the unit's operation is rolled
// back and retried.
func NewPersistenceError(message string, err error) error {
	return &DomainError{Code: CodePersistence, Message: message, Err: err}
}

// NewConfigError marks invalid configuration. Config errors abort the whole
// run before any recommendation is written.
func NewConfigError(message string, details map[string]any) error {
	return NewDomainError(CodeConfigInvalid, message, details)
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{Code: CodeTransient, Message: "processing failed", Err: err}
}

// Retryable reports whether the orchestrator may re-dispatch the unit.
// Transient and persistence failures are retryable; invalid input and config
// errors are not.
func Retryable(err error) bool {
	de := ToDomainError(err)
	if de == nil {
		return false
	}
	return de.Code == CodeTransient || de.Code == CodePersistence
}

// IsFatalConfig reports whether the error must abort the run.
func IsFatalConfig(err error) bool {
	de := ToDomainError(err)
	return de != nil && de.Code == CodeConfigInvalid
}
