package guard

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a user-input rejection. These are request defects,
// never retried; the HTTP boundary maps them to 4xx statuses.
type ErrorCode string

const (
	CodeEmptyPrompt           ErrorCode = "empty_prompt"
	CodeUnsupportedFileFormat ErrorCode = "unsupported_file_format"
	CodeSecurityRejected      ErrorCode = "security_rejected"
	CodeClassificationUnclear ErrorCode = "classification_unclear"
	CodeMissingFiles          ErrorCode = "missing_files"
)

// RequestError is a typed rejection of a user request. It carries no
// transport types; conversion to status codes happens at the boundary.
type RequestError struct {
	Code      ErrorCode
	Message   string
	RiskFlags []string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsRequestError unwraps err into a *RequestError if it is one.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}

func ErrEmptyPrompt() *RequestError {
	return &RequestError{
		Code:    CodeEmptyPrompt,
		Message: "Prompt cannot be empty.",
	}
}

func ErrUnsupportedFileFormat(filename string) *RequestError {
	return &RequestError{
		Code:    CodeUnsupportedFileFormat,
		Message: fmt.Sprintf("Unsupported or invalid file format: %s", filename),
	}
}

func ErrSecurityRejected(riskFlags []string) *RequestError {
	return &RequestError{
		Code:      CodeSecurityRejected,
		Message:   fmt.Sprintf("Security issue detected: %s", strings.Join(riskFlags, ", ")),
		RiskFlags: riskFlags,
	}
}

func ErrClassificationUnclear() *RequestError {
	return &RequestError{
		Code:    CodeClassificationUnclear,
		Message: "Task classification unclear. Please rephrase your request.",
	}
}

func ErrMissingFiles() *RequestError {
	return &RequestError{
		Code:    CodeMissingFiles,
		Message: "This task requires at least one uploaded file.",
	}
}
