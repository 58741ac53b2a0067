package domain

import (
	"context"
	"io"
)

// DependencyKind distinguishes data from control edges
type DependencyKind string

const (
	DependencyKindData    DependencyKind = "data"
	DependencyKindControl DependencyKind = "control"
)

// DependencyRequest represents input for dependency analysis
type DependencyRequest struct {
	// Input files or directories to analyze
	Paths []string

	AnalysisOptions

	// Output configuration (used by use case formatting)
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string

	// ConfigPath names an explicit configuration file
	ConfigPath string
}

// DependencyEdge is a directed dependency between two statements: To
// depends on the effect of From
type DependencyEdge struct {
	Kind     DependencyKind `json:"kind" yaml:"kind" msgpack:"kind"`
	From     LocationDTO    `json:"from" yaml:"from" msgpack:"from"`
	To       LocationDTO    `json:"to" yaml:"to" msgpack:"to"`
	FromText string         `json:"from_text" yaml:"from_text" msgpack:"from_text"`
	ToText   string         `json:"to_text" yaml:"to_text" msgpack:"to_text"`
}

// FileDependencies holds the edges of one file
type FileDependencies struct {
	FilePath   string           `json:"file_path" yaml:"file_path" msgpack:"file_path"`
	Statements int              `json:"statements" yaml:"statements" msgpack:"statements"`
	Edges      []DependencyEdge `json:"edges" yaml:"edges" msgpack:"edges"`
	Errors     []string         `json:"errors,omitempty" yaml:"errors,omitempty" msgpack:"errors"`
}

// DependencySummary contains aggregate stats
type DependencySummary struct {
	FilesAnalyzed int `json:"files_analyzed" yaml:"files_analyzed"`
	FilesFailed   int `json:"files_failed" yaml:"files_failed"`
	DataEdges     int `json:"data_edges" yaml:"data_edges"`
	ControlEdges  int `json:"control_edges" yaml:"control_edges"`
}

// DependencyResponse is the result of dependency analysis
type DependencyResponse struct {
	Files []FileDependencies `json:"files" yaml:"files"`

	// Metadata
	Summary     DependencySummary `json:"summary" yaml:"summary"`
	Warnings    []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	GeneratedAt string            `json:"generated_at" yaml:"generated_at"`
	Version     string            `json:"version" yaml:"version"`
}

// DependencyService defines the core business logic for dependency analysis
type DependencyService interface {
	Analyze(ctx context.Context, req DependencyRequest) (*DependencyResponse, error)

	// AnalyzeSource analyzes one in-memory Python file or notebook
	AnalyzeSource(ctx context.Context, name string, content []byte, req DependencyRequest) (*FileDependencies, error)
}

// DependencyOutputFormatter defines the interface for formatting dependency analysis results
type DependencyOutputFormatter interface {
	Write(response *DependencyResponse, format OutputFormat, writer io.Writer) error
}

// CFGRequest asks for the control flow graph of files
type CFGRequest struct {
	Paths []string

	// OutputFormat is text or dot
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string
}

// FileCFG is the rendered graph of one file
type FileCFG struct {
	FilePath string `json:"file_path" yaml:"file_path"`
	Blocks   int    `json:"blocks" yaml:"blocks"`
	Rendered string `json:"rendered" yaml:"rendered"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// CFGResponse holds one graph per file
type CFGResponse struct {
	Files []FileCFG `json:"files" yaml:"files"`
}

// CFGService renders control flow graphs
type CFGService interface {
	Render(ctx context.Context, req CFGRequest) (*CFGResponse, error)
}
