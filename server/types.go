package server

import (
	"encoding/json"

	"github.com/ludo-technologies/pygather/domain"
)

// SourceInput carries one in-memory Python file or notebook. Exactly one
// of Source and Notebook is set.
type SourceInput struct {
	// Filename names the input in results; its extension picks the parser
	// when both forms could apply
	Filename string `json:"filename,omitempty"`

	// Source is Python source text
	Source string `json:"source,omitempty"`

	// Notebook is an nbformat 4 document
	Notebook json.RawMessage `json:"notebook,omitempty"`
}

// RuleOptions are the per request analysis settings
type RuleOptions struct {
	FunctionRules     []domain.FunctionRule `json:"function_rules,omitempty"`
	UseDefaultRules   *bool                 `json:"use_default_rules,omitempty"`
	LinkLoopVariables bool                  `json:"link_loop_variables,omitempty"`
}

// SliceRequest is the body of POST /v1/slice
type SliceRequest struct {
	SourceInput
	RuleOptions

	// Lines are 1-based program lines
	Lines []int `json:"lines,omitempty"`

	// Cell is a notebook execution count
	Cell int `json:"cell,omitempty"`

	// CellLines are 0-based lines within Cell
	CellLines []int `json:"cell_lines,omitempty"`
}

// SliceResponse is the body of a successful slice
type SliceResponse struct {
	RequestID string            `json:"request_id"`
	Slice     *domain.FileSlice `json:"slice"`
}

// DependenciesRequest is the body of POST /v1/dependencies
type DependenciesRequest struct {
	SourceInput
	RuleOptions
}

// DependenciesResponse is the body of a successful dependency analysis
type DependenciesResponse struct {
	RequestID    string                   `json:"request_id"`
	Dependencies *domain.FileDependencies `json:"dependencies"`
}

// HealthResponse is the body of GET /v1/health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a domain error code such as PARSE_ERROR
	Code string `json:"code,omitempty"`

	RequestID string `json:"request_id,omitempty"`
}
