package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes. The server and the MCP tools report them verbatim, so they
// are part of the wire format.
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeFileNotFound      = "FILE_NOT_FOUND"
	ErrCodeParseError        = "PARSE_ERROR"
	ErrCodeCellNotFound      = "CELL_NOT_FOUND"
	ErrCodeAnalysisError     = "ANALYSIS_ERROR"
	ErrCodeConfigError       = "CONFIG_ERROR"
	ErrCodeOutputError       = "OUTPUT_ERROR"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
)

// DomainError is an error with a stable code. Path is the source file or
// notebook the error concerns, if any.
type DomainError struct {
	Code    string
	Message string
	Path    string
	Cause   error
}

func (e DomainError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e DomainError) Unwrap() error {
	return e.Cause
}

// NewDomainError creates an error that concerns no particular file
func NewDomainError(code, message string, cause error) error {
	return DomainError{Code: code, Message: message, Cause: cause}
}

func newFileError(code, path, message string, cause error) error {
	return DomainError{Code: code, Message: message, Path: path, Cause: cause}
}

// NewInvalidInputError reports a request that cannot be served as given:
// bad seed lines, a cell selected in a plain Python file and the like
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

func NewFileNotFoundError(path string, cause error) error {
	return newFileError(ErrCodeFileNotFound, path, "file not found: "+path, cause)
}

// NewParseError reports Python source, a notebook document or a notebook
// cell that does not parse
func NewParseError(path string, cause error) error {
	return newFileError(ErrCodeParseError, path, "failed to parse file: "+path, cause)
}

// NewCellNotFoundError reports a notebook run that was never executed
func NewCellNotFoundError(path string, executionCount int, cause error) error {
	msg := fmt.Sprintf("no cell with execution count %d in %s", executionCount, path)
	return newFileError(ErrCodeCellNotFound, path, msg, cause)
}

func NewAnalysisError(message string, cause error) error {
	return NewDomainError(ErrCodeAnalysisError, message, cause)
}

func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewUnsupportedFormatError reports an output format the command cannot render
func NewUnsupportedFormatError(format string) error {
	return NewDomainError(ErrCodeUnsupportedFormat, "unsupported format: "+format, nil)
}

// ErrorCode returns the code of the outermost DomainError in err's chain,
// or "" when there is none
func ErrorCode(err error) string {
	var de DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ErrorPath returns the file named by the first DomainError in err's
// chain that has one
func ErrorPath(err error) string {
	for err != nil {
		var de DomainError
		if !errors.As(err, &de) {
			return ""
		}
		if de.Path != "" {
			return de.Path
		}
		err = de.Cause
	}
	return ""
}
