package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating a FabError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *FabError {
	if err == nil {
		return nil
	}

	// Keep blueprint and file context from an inner FabError
	var fe *FabError
	if errors.As(err, &fe) {
		return &FabError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       fe,
			Context:     fe.Context,
			Blueprint:   fe.Blueprint,
			FilePath:    fe.FilePath,
			Recoverable: fe.Recoverable,
		}
	}

	return &FabError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeNotFound,
	}
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *FabError {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *FabError {
	return Wrap(err, ErrorTypeIO, code, message)
}

// GetErrorContext extracts context information from a FabError
func GetErrorContext(err error) map[string]interface{} {
	var fe *FabError
	if errors.As(err, &fe) {
		context := make(map[string]interface{})
		for k, v := range fe.Context {
			context[k] = v
		}
		if fe.Blueprint != "" {
			context["blueprint"] = fe.Blueprint
		}
		if fe.FilePath != "" {
			context["file"] = fe.FilePath
		}
		context["type"] = string(fe.Type)
		context["code"] = fe.Code
		context["recoverable"] = fe.Recoverable
		return context
	}

	return map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}
}

