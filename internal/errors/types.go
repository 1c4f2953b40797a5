package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeElement    ErrorType = "element"
	ErrorTypeCallback   ErrorType = "callback"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// FabError is a structured error type with context.
type FabError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Blueprint   string
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *FabError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Blueprint != "" {
		parts = append(parts, "blueprint:"+e.Blueprint)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *FabError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *FabError) Is(target error) bool {
	var t *FabError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *FabError) WithContext(key string, value interface{}) *FabError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithBlueprint adds blueprint context.
func (e *FabError) WithBlueprint(name string) *FabError {
	e.Blueprint = name

	return e
}

// WithFile adds file location information.
func (e *FabError) WithFile(filePath string) *FabError {
	e.FilePath = filePath

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *FabError {
	return &FabError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewNotFoundError creates a lookup error.
func NewNotFoundError(code, message string) *FabError {
	return &FabError{
		Type:        ErrorTypeNotFound,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewElementError creates an element resolution error.
func NewElementError(code, message string, cause error) *FabError {
	return &FabError{
		Type:        ErrorTypeElement,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewCallbackError wraps a failure raised by caller-supplied code.
func NewCallbackError(code, message string, cause error) *FabError {
	return &FabError{
		Type:        ErrorTypeCallback,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *FabError {
	return &FabError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	var fe *FabError
	if errors.As(err, &fe) {
		return fe.Type == ErrorTypeNotFound
	}

	return false
}

// IsCallbackError reports whether err was raised by an initializer or event handler.
func IsCallbackError(err error) bool {
	var fe *FabError
	if errors.As(err, &fe) {
		return fe.Type == ErrorTypeCallback
	}

	return false
}

// HasCode reports whether any FabError in the chain of err carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var fe *FabError
		if !errors.As(err, &fe) {
			return false
		}
		if fe.Code == code {
			return true
		}
		err = fe.Cause
	}

	return false
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level chosen from its type.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var fe *FabError
	if !errors.As(err, &fe) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch fe.Type {
	case ErrorTypeValidation, ErrorTypeNotFound:
		h.logger.Warn(ctx, err, "Request rejected",
			"type", fe.Type,
			"code", fe.Code,
			"blueprint", fe.Blueprint)
	case ErrorTypeCallback:
		h.logger.Error(ctx, err, "Controller callback failed",
			"type", fe.Type,
			"code", fe.Code,
			"blueprint", fe.Blueprint)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", fe.Type,
			"code", fe.Code,
			"blueprint", fe.Blueprint)
	}
}

// Common error codes.
const (
	ErrCodeBlueprintNotFound  = "ERR_BLUEPRINT_NOT_FOUND"
	ErrCodeControllerNotFound = "ERR_CONTROLLER_NOT_FOUND"
	ErrCodeAmbiguousElement   = "ERR_AMBIGUOUS_ELEMENT"
	ErrCodeElementNotFound    = "ERR_ELEMENT_NOT_FOUND"
	ErrCodeInvalidSelector    = "ERR_INVALID_SELECTOR"
	ErrCodeInitFailed         = "ERR_INIT_FAILED"
	ErrCodeCallbackFailed     = "ERR_CALLBACK_FAILED"
	ErrCodeManifestInvalid    = "ERR_MANIFEST_INVALID"
	ErrCodeConfigInvalid      = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound       = "ERR_FILE_NOT_FOUND"
	ErrCodeInternalError      = "ERR_INTERNAL"
	ErrCodeValidationFailed   = "ERR_VALIDATION_FAILED"
)

// ValidationError interface for field-specific validation errors.
type ValidationError interface {
	error
	Field() string
	Value() interface{}
	Suggestions() []string
}

// FieldValidationError implements ValidationError for specific field errors.
type FieldValidationError struct {
	FieldName    string
	FieldValue   interface{}
	ErrorMessage string
	HelpText     []string
}

// Error implements the error interface.
func (fve *FieldValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", fve.FieldName, fve.ErrorMessage)
}

// Field returns the field name that failed validation.
func (fve *FieldValidationError) Field() string {
	return fve.FieldName
}

// Value returns the invalid value.
func (fve *FieldValidationError) Value() interface{} {
	return fve.FieldValue
}

// Suggestions returns helpful suggestions for fixing the error.
func (fve *FieldValidationError) Suggestions() []string {
	return fve.HelpText
}

// NewFieldValidationError creates a new field validation error.
func NewFieldValidationError(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) *FieldValidationError {
	return &FieldValidationError{
		FieldName:    field,
		FieldValue:   value,
		ErrorMessage: message,
		HelpText:     suggestions,
	}
}

// ValidationErrorCollection represents a collection of validation errors.
type ValidationErrorCollection struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (vec *ValidationErrorCollection) Error() string {
	if len(vec.Errors) == 0 {
		return "no validation errors"
	}
	if len(vec.Errors) == 1 {
		return vec.Errors[0].Error()
	}

	return fmt.Sprintf("validation failed with %d errors", len(vec.Errors))
}

// Add adds a validation error to the collection.
func (vec *ValidationErrorCollection) Add(err ValidationError) {
	vec.Errors = append(vec.Errors, err)
}

// AddField adds a field validation error to the collection.
func (vec *ValidationErrorCollection) AddField(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) {
	vec.Add(NewFieldValidationError(field, value, message, suggestions...))
}

// HasErrors returns true if there are any validation errors.
func (vec *ValidationErrorCollection) HasErrors() bool {
	return len(vec.Errors) > 0
}

// ToFabError converts the validation collection to a FabError.
func (vec *ValidationErrorCollection) ToFabError(code string) *FabError {
	if !vec.HasErrors() {
		return nil
	}

	var messages []string
	context := make(map[string]interface{})

	for _, err := range vec.Errors {
		messages = append(messages, err.Error())
		context[err.Field()] = map[string]interface{}{
			"value":       err.Value(),
			"suggestions": err.Suggestions(),
		}
	}

	return &FabError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     strings.Join(messages, "; "),
		Context:     context,
		Recoverable: true,
	}
}

// Helper functions for common errors

// ErrBlueprintNotFound reports construction from a name nothing was registered under.
func ErrBlueprintNotFound(name string) *FabError {
	return NewNotFoundError(
		ErrCodeBlueprintNotFound,
		"blueprint not found: "+name,
	).WithBlueprint(name)
}

// ErrControllerNotFound reports a lookup of an unknown controller id.
func ErrControllerNotFound(id string) *FabError {
	return NewNotFoundError(
		ErrCodeControllerNotFound,
		"controller not found: "+id,
	)
}

// ErrAmbiguousElement reports an el value that is not absent, a selector or a selection.
func ErrAmbiguousElement(value interface{}) *FabError {
	return NewValidationError(
		ErrCodeAmbiguousElement,
		fmt.Sprintf("el must be absent, a selector or a selection, got %T", value),
	).WithContext("value", value)
}

// ErrElementNotFound reports a selector that matched nothing.
func ErrElementNotFound(selector string) *FabError {
	return NewElementError(
		ErrCodeElementNotFound,
		"no element matches selector: "+selector,
		nil,
	).WithContext("selector", selector)
}

// ErrInvalidSelector reports a selector that failed to compile.
func ErrInvalidSelector(selector string, cause error) *FabError {
	return NewElementError(
		ErrCodeInvalidSelector,
		"invalid selector: "+selector,
		cause,
	).WithContext("selector", selector)
}

// ErrInitFailed wraps an error returned by a blueprint initializer.
func ErrInitFailed(blueprint string, cause error) *FabError {
	return NewCallbackError(
		ErrCodeInitFailed,
		"initializer failed",
		cause,
	).WithBlueprint(blueprint)
}

// ErrCallbackFailed wraps an error returned by an event handler.
func ErrCallbackFailed(eventType string, cause error) *FabError {
	return NewCallbackError(
		ErrCodeCallbackFailed,
		"event handler failed for "+eventType,
		cause,
	).WithContext("event", eventType)
}

// ErrFileNotFound creates a missing file error.
func ErrFileNotFound(path string, cause error) *FabError {
	return NewIOError(ErrCodeFileNotFound, "file not found", cause).WithFile(path)
}
