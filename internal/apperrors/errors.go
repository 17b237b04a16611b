package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the caller may not act on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized indicates rejected credentials.
var ErrUnauthorized = errors.New("invalid credentials")

// ErrInternal marks store or collaborator failures.
var ErrInternal = errors.New("internal error")

// ErrBusinessRule is the parent of every rule violation below.
var ErrBusinessRule = errors.New("business rule violation")

var (
	ErrInsufficientFunds = newRuleError("insufficient funds")
	ErrDuplicateUpload   = newRuleError("statement file already uploaded")
	ErrInvalidStatus     = newRuleError("statement is not in the required status")
	ErrNothingToImport   = newRuleError("no line items left to import")
)

// ruleError is a named business rule that also matches ErrBusinessRule.
type ruleError struct {
	msg string
}

func newRuleError(msg string) error {
	return &ruleError{msg: msg}
}

func (e *ruleError) Error() string { return e.msg }

func (e *ruleError) Is(target error) bool {
	return target == ErrBusinessRule
}

// AppError wraps an infrastructure failure with a status-like code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError. A nil err still matches ErrInternal.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) Is(target error) bool {
	return target == ErrInternal
}
