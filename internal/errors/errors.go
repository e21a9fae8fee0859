package errors

import (
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors shared across the world model packages.
var (
	ErrDimensionMismatch    = errors.New("dimension mismatch")
	ErrUnknownProperty      = errors.New("unknown rock property")
	ErrUnknownBoundaryClass = errors.New("unknown boundary class")
	ErrEmptyWorld           = errors.New("world has no boundaries")
)

// ErrorSeverity represents the severity of a validation problem
type ErrorSeverity int

const (
	ErrorSeverityWarning ErrorSeverity = iota
	ErrorSeverityError
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ValidationError describes a single problem found in a world description.
// Index is the 1-based boundary or layer number, or 0 when the problem is
// not tied to a particular layer.
type ValidationError struct {
	Field    string
	Index    int
	Message  string
	Severity ErrorSeverity
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	if ve.Index > 0 {
		return fmt.Sprintf("%s %d: %s", ve.Field, ve.Index, ve.Message)
	}
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// Mismatch wraps ErrDimensionMismatch with a description of the shapes involved.
func Mismatch(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDimensionMismatch, fmt.Sprintf(format, args...))
}

// ErrorCollector collects validation problems and general errors
type ErrorCollector struct {
	problems []ValidationError
	errors   []error
	mutex    sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		problems: make([]ValidationError, 0),
		errors:   make([]error, 0),
	}
}

// Add adds a validation problem to the collector
func (ec *ErrorCollector) Add(problem ValidationError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.problems = append(ec.problems, problem)
}

// Addf records an error-severity problem built from a format string.
func (ec *ErrorCollector) Addf(field string, index int, format string, args ...interface{}) {
	ec.Add(ValidationError{
		Field:    field,
		Index:    index,
		Message:  fmt.Sprintf(format, args...),
		Severity: ErrorSeverityError,
	})
}

// Warnf records a warning. Warnings never make Err return non-nil.
func (ec *ErrorCollector) Warnf(field string, index int, format string, args ...interface{}) {
	ec.Add(ValidationError{
		Field:    field,
		Index:    index,
		Message:  fmt.Sprintf(format, args...),
		Severity: ErrorSeverityWarning,
	})
}

// AddError adds a general error to the collector
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// Problems returns a copy of all collected validation problems
func (ec *ErrorCollector) Problems() []ValidationError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]ValidationError, len(ec.problems))
	copy(result, ec.problems)
	return result
}

// HasErrors returns true if any error-severity problem or general error was collected
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	if len(ec.errors) > 0 {
		return true
	}
	for _, p := range ec.problems {
		if p.Severity >= ErrorSeverityError {
			return true
		}
	}
	return false
}

// Err joins every error-severity problem and general error, or returns nil.
func (ec *ErrorCollector) Err() error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	all := make([]error, 0, len(ec.problems)+len(ec.errors))
	for i := range ec.problems {
		if ec.problems[i].Severity < ErrorSeverityError {
			continue
		}
		p := ec.problems[i]
		all = append(all, &p)
	}
	all = append(all, ec.errors...)
	if len(all) == 0 {
		return nil
	}
	return errors.Join(all...)
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.problems = ec.problems[:0]
	ec.errors = ec.errors[:0]
}

// ProblemsFor returns problems recorded against one field
func (ec *ErrorCollector) ProblemsFor(field string) []ValidationError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var out []ValidationError
	for _, p := range ec.problems {
		if p.Field == field {
			out = append(out, p)
		}
	}
	return out
}
