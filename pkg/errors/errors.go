// Package errors provides the error and warning system shared by the
// transformer framework and the model registry. Error types carry structured
// fields and marshal themselves into zerolog events; stack traces come from
// cockroachdb/errors.
package errors

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Warning handling
//
// ===========================================================================

var (
	warningMutex sync.Mutex
	// Set via SetWarningHandler; takes precedence over the zerolog sink.
	warningHandler func(w error)
	// zerolog hook, installed lazily to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the library-wide warning handler. Handlers
// receive warnings such as ColumnCollisionWarning emitted during fitting.
// Passing nil restores the default zerolog sink.
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs the zerolog warning sink (set by pkg/log).
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning. An explicitly set handler wins; otherwise the zerolog
// sink runs when installed, falling back to the standard logger.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	switch {
	case warningHandler != nil:
		warningHandler(w)
	case zerologWarnFunc != nil:
		zerologWarnFunc(w)
	default:
		log.Printf("advdgm-warning: %v\n", w)
	}
}

// ColumnCollisionWarning is emitted when a transformer's output column names
// already exist in the table and a '#' suffix is appended to disambiguate.
type ColumnCollisionWarning struct {
	Transformer string
	Columns     []string
	Prefix      string
}

func (w *ColumnCollisionWarning) Error() string {
	return fmt.Sprintf(
		"the output columns %v generated by the %s transformer already exist in the data; "+
			"appending '#' to the column prefix (now %q) to distinguish between them",
		w.Columns, w.Transformer, w.Prefix)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *ColumnCollisionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("transformer", w.Transformer).
		Strs("columns", w.Columns).
		Str("prefix", w.Prefix).
		Str("type", "ColumnCollisionWarning")
}

// ConvergenceWarning is emitted when an iterative fit stops before reaching
// its tolerance (e.g. mixture EM hitting the iteration cap).
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations", w.Algorithm, w.Iterations)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning creates a new ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// NotFittedError reports Transform/ReverseTransform/Predict calls on an
// object whose Fit has not run yet.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("advdgm: %s: this instance is not fitted yet; call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// MissingColumnsError reports input columns absent from the table at Fit or
// ReverseTransform time.
type MissingColumnsError struct {
	Op      string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	cols := append([]string(nil), e.Columns...)
	sort.Strings(cols)
	return fmt.Sprintf("advdgm: %s: columns [%s] were not present in the data", e.Op, strings.Join(cols, ", "))
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *MissingColumnsError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Strs("columns", e.Columns).
		Str("type", "MissingColumnsError")
}

// NewMissingColumnsError creates a MissingColumnsError with a stack trace.
func NewMissingColumnsError(op string, columns []string) error {
	err := &MissingColumnsError{Op: op, Columns: columns}
	return errors.WithStack(err)
}

// UnknownCategoryError reports a category seen at Transform time that the
// encoder never saw during Fit.
type UnknownCategoryError struct {
	Transformer string
	Column      string
	Category    string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("advdgm: %s: category %q in column %q was not seen during Fit", e.Transformer, e.Category, e.Column)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *UnknownCategoryError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("transformer", e.Transformer).
		Str("column", e.Column).
		Str("category", e.Category).
		Str("type", "UnknownCategoryError")
}

// NewUnknownCategoryError creates an UnknownCategoryError with a stack trace.
func NewUnknownCategoryError(transformer, column, category string) error {
	err := &UnknownCategoryError{Transformer: transformer, Column: column, Category: category}
	return errors.WithStack(err)
}

// DimensionError reports an input whose shape differs from what was learned
// during fitting.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("advdgm: %s: dimension mismatch on axis %d (%s): expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError reports a hyperparameter or configuration value that failed
// validation.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("advdgm: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace attached.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError reports an argument with an unusable value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("advdgm: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError is the general error wrapper for transformer and model failures.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("advdgm: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("advdgm: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace attached.
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Sentinel errors
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an operation receives no rows or columns.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a matrix inversion fails.
	ErrSingularMatrix = New("singular matrix")

	// ErrUnknownTransformer is returned by the registry for unregistered names.
	ErrUnknownTransformer = New("unknown transformer")

	// ErrUnknownModel is returned by the model registry for unregistered names.
	ErrUnknownModel = New("unknown model")
)
