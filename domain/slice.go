package domain

import (
	"context"
	"io"
	"time"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatCSV  OutputFormat = "csv"
	OutputFormatDOT  OutputFormat = "dot"
)

// ParseOutputFormat validates a format name
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatCSV, OutputFormatDOT:
		return f, nil
	case "":
		return OutputFormatText, nil
	}
	return "", NewUnsupportedFormatError(s)
}

// LocationDTO is a source range. Lines are 1-based, columns 0-based.
type LocationDTO struct {
	StartLine int `json:"start_line" yaml:"start_line" msgpack:"start_line"`
	StartCol  int `json:"start_col" yaml:"start_col" msgpack:"start_col"`
	EndLine   int `json:"end_line" yaml:"end_line" msgpack:"end_line"`
	EndCol    int `json:"end_col" yaml:"end_col" msgpack:"end_col"`
}

// FunctionRule declares which parts of a matched call the call mutates.
// Effects are reference level names such as UPDATE or GLOBAL_CONFIG.
type FunctionRule struct {
	Function       string             `json:"function" yaml:"function" mapstructure:"function" toml:"function" msgpack:"function"`
	Instances      []string           `json:"instances,omitempty" yaml:"instances,omitempty" mapstructure:"instances" toml:"instances" msgpack:"instances"`
	InstanceEffect string             `json:"instance_effect,omitempty" yaml:"instance_effect,omitempty" mapstructure:"instance_effect" toml:"instance_effect" msgpack:"instance_effect"`
	Positional     []PositionalEffect `json:"positional,omitempty" yaml:"positional,omitempty" mapstructure:"positional" toml:"positional" msgpack:"positional"`
	Keywords       map[string]string  `json:"keywords,omitempty" yaml:"keywords,omitempty" mapstructure:"keywords" toml:"keywords" msgpack:"keywords"`
}

// PositionalEffect is the effect of a call on one positional argument
type PositionalEffect struct {
	Index  int    `json:"index" yaml:"index" mapstructure:"index" toml:"index" msgpack:"index"`
	Effect string `json:"effect" yaml:"effect" mapstructure:"effect" toml:"effect" msgpack:"effect"`
}

// AnalysisOptions are the settings shared by every analysis request
type AnalysisOptions struct {
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// FunctionRules are added to the built-in rules, or replace them when
	// UseDefaultRules is false
	FunctionRules     []FunctionRule
	UseDefaultRules   bool
	LinkLoopVariables bool

	// MaxWorkers bounds the files analyzed concurrently; 0 means one per CPU
	MaxWorkers int
}

// SliceRequest represents a request for program slicing
type SliceRequest struct {
	// Input files or directories to slice
	Paths []string

	AnalysisOptions

	// Lines are 1-based program lines to slice from. For notebooks they
	// index the concatenated program of executed cells.
	Lines []int

	// Cell selects a notebook cell by execution count; 0 means none
	Cell int

	// CellLines are 0-based lines within Cell; empty means the whole cell
	CellLines []int

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string

	// ConfigPath names an explicit configuration file
	ConfigPath string
}

// CellSlice is the part of one notebook cell a slice keeps
type CellSlice struct {
	CellID         string `json:"cell_id" yaml:"cell_id" msgpack:"cell_id"`
	ExecutionCount int    `json:"execution_count" yaml:"execution_count" msgpack:"execution_count"`
	// Lines are 0-based and relative to the cell
	Lines []int  `json:"lines" yaml:"lines" msgpack:"lines"`
	Code  string `json:"code" yaml:"code" msgpack:"code"`
}

// FileSlice is the slice of one file
type FileSlice struct {
	FilePath  string        `json:"file_path" yaml:"file_path" msgpack:"file_path"`
	Seeds     []LocationDTO `json:"seeds" yaml:"seeds" msgpack:"seeds"`
	Locations []LocationDTO `json:"locations" yaml:"locations" msgpack:"locations"`
	Lines     []int         `json:"lines" yaml:"lines" msgpack:"lines"`
	Code      string        `json:"code" yaml:"code" msgpack:"code"`
	Cells     []CellSlice   `json:"cells,omitempty" yaml:"cells,omitempty" msgpack:"cells"`
	Errors    []string      `json:"errors,omitempty" yaml:"errors,omitempty" msgpack:"errors"`
}

// HasErrors reports whether slicing the file failed
func (f *FileSlice) HasErrors() bool {
	return len(f.Errors) > 0
}

// SliceSummary aggregates a slice run
type SliceSummary struct {
	FilesAnalyzed int `json:"files_analyzed" yaml:"files_analyzed"`
	FilesFailed   int `json:"files_failed" yaml:"files_failed"`
	Statements    int `json:"statements" yaml:"statements"`
	Lines         int `json:"lines" yaml:"lines"`
}

// SliceResponse represents the result of a slice run
type SliceResponse struct {
	Files       []FileSlice  `json:"files" yaml:"files"`
	Summary     SliceSummary `json:"summary" yaml:"summary"`
	Warnings    []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	GeneratedAt string       `json:"generated_at" yaml:"generated_at"`
	Version     string       `json:"version" yaml:"version"`
}

// SliceService defines the core business logic for program slicing
type SliceService interface {
	// Slice slices every file of req.Paths; req.Paths must already be files
	Slice(ctx context.Context, req SliceRequest) (*SliceResponse, error)

	// SliceSource slices one in-memory Python file or notebook
	SliceSource(ctx context.Context, name string, content []byte, req SliceRequest) (*FileSlice, error)
}

// SliceOutputFormatter defines the interface for formatting slice results
type SliceOutputFormatter interface {
	Format(response *SliceResponse, format OutputFormat) (string, error)
	Write(response *SliceResponse, format OutputFormat, writer io.Writer) error
}

// GeneratedAt formats a report timestamp
func GeneratedAt(t time.Time) string {
	return t.Format(time.RFC3339)
}
