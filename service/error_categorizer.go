package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ludo-technologies/pygather/domain"
)

// ErrorCategory groups errors by what the user can do about them
type ErrorCategory string

const (
	ErrorCategoryInput      ErrorCategory = "input"
	ErrorCategoryConfig     ErrorCategory = "config"
	ErrorCategoryTimeout    ErrorCategory = "timeout"
	ErrorCategoryOutput     ErrorCategory = "output"
	ErrorCategoryProcessing ErrorCategory = "processing"
	ErrorCategoryUnknown    ErrorCategory = "unknown"
)

// CategorizedError is an error with a user facing summary
type CategorizedError struct {
	Category    ErrorCategory
	Message     string
	Suggestions []string
	Original    error
}

func (e *CategorizedError) Error() string { return e.Original.Error() }

func (e *CategorizedError) Unwrap() error { return e.Original }

// ErrorCategorizerImpl classifies errors by domain code, falling back to
// message patterns for errors from outside the domain layer
type ErrorCategorizerImpl struct {
	patterns []categoryPatterns
}

type categoryPatterns struct {
	category ErrorCategory
	patterns []string
}

var codeCategories = map[string]ErrorCategory{
	domain.ErrCodeInvalidInput:      ErrorCategoryInput,
	domain.ErrCodeFileNotFound:      ErrorCategoryInput,
	domain.ErrCodeCellNotFound:      ErrorCategoryInput,
	domain.ErrCodeConfigError:       ErrorCategoryConfig,
	domain.ErrCodeOutputError:       ErrorCategoryOutput,
	domain.ErrCodeUnsupportedFormat: ErrorCategoryOutput,
	domain.ErrCodeParseError:        ErrorCategoryProcessing,
	domain.ErrCodeAnalysisError:     ErrorCategoryProcessing,
}

// NewErrorCategorizer creates a new error categorizer
func NewErrorCategorizer() *ErrorCategorizerImpl {
	return &ErrorCategorizerImpl{
		patterns: []categoryPatterns{
			{ErrorCategoryTimeout, []string{"timeout", "deadline", "context canceled"}},
			{ErrorCategoryConfig, []string{"config", "toml", "yaml"}},
			{ErrorCategoryInput, []string{"no such file", "permission denied", "not a notebook"}},
			{ErrorCategoryOutput, []string{"write", "output"}},
			{ErrorCategoryProcessing, []string{"parse", "syntax"}},
		},
	}
}

// Categorize determines the category of an error
func (ec *ErrorCategorizerImpl) Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	category := ErrorCategoryUnknown
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		category = ErrorCategoryTimeout
	default:
		if c, ok := codeCategories[domain.ErrorCode(err)]; ok {
			category = c
		} else {
			msg := strings.ToLower(err.Error())
			for _, p := range ec.patterns {
				if containsAnyPattern(msg, p.patterns) {
					category = p.category
					break
				}
			}
		}
	}

	return &CategorizedError{
		Category:    category,
		Message:     categoryMessages[category],
		Suggestions: recoverySuggestions[category],
		Original:    err,
	}
}

var categoryMessages = map[ErrorCategory]string{
	ErrorCategoryInput:      "Failed to read the requested files or cells",
	ErrorCategoryConfig:     "Configuration file or settings error",
	ErrorCategoryTimeout:    "Analysis was cancelled or timed out",
	ErrorCategoryOutput:     "Failed to generate or write output",
	ErrorCategoryProcessing: "Error while analyzing the code",
	ErrorCategoryUnknown:    "An unexpected error occurred",
}

var recoverySuggestions = map[ErrorCategory][]string{
	ErrorCategoryInput: {
		"Check that the file exists and is a .py file or .ipynb notebook",
		"--cell takes an execution count, the number shown in the cell prompt",
		"--line numbers are 1-based; --cell-line numbers are 0-based within the cell",
	},
	ErrorCategoryConfig: {
		"Try: pygather init to generate a valid .pygather.toml",
		"Check the [tool.pygather] section of pyproject.toml",
		"Rule effects must be one of DEFINITION, GLOBAL_CONFIG, INITIALIZATION, UPDATE, USE",
	},
	ErrorCategoryTimeout: {
		"Slice fewer files at once or raise --workers",
	},
	ErrorCategoryOutput: {
		"Use one of --json, --yaml, --csv or --dot",
		"Ensure the output directory is writable",
	},
	ErrorCategoryProcessing: {
		"The file or one of its executed cells may have a syntax error",
		"Try: python -m py_compile on the file to locate it",
	},
	ErrorCategoryUnknown: {
		"Run with --verbose for detailed diagnostics",
	},
}

// containsAnyPattern checks if a string contains any of the given patterns
func containsAnyPattern(str string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(str, pattern) {
			return true
		}
	}
	return false
}
