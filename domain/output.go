package domain

import (
	"io"
)

// ReportWriter abstracts writing reports to a destination (file or writer).
//
// Implementations live in the service layer.
type ReportWriter interface {
	// Write writes formatted content using the provided writeFunc.
	// - If outputPath is non-empty, implementations should create/truncate the file
	//   at that path and pass the file as the writer to writeFunc.
	// - If outputPath is empty, implementations should pass the provided writer to writeFunc.
	Write(writer io.Writer, outputPath string, format OutputFormat, writeFunc func(io.Writer) error) error
}

// ProgressManager manages progress tracking for analysis
type ProgressManager interface {
	// Initialize sets up progress tracking with the maximum value
	Initialize(maxValue int)

	// Increment advances the progress by one processed item
	Increment()

	// Complete marks the progress as completed
	Complete(success bool)

	// SetWriter sets the output writer for progress bars
	SetWriter(writer io.Writer)

	// IsInteractive returns true if progress bars should be shown
	IsInteractive() bool

	// Close cleans up any resources
	Close()
}

// FileReader defines the interface for reading source files
type FileReader interface {
	// CollectPythonFiles finds all Python files and notebooks in the given paths
	CollectPythonFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)

	// ReadFile reads the content of a file
	ReadFile(path string) ([]byte, error)

	// IsValidPythonFile checks if a file is a Python file or notebook
	IsValidPythonFile(path string) bool

	// FileExists checks if a file exists and returns an error if not
	FileExists(path string) (bool, error)
}

// ResultCache stores per-file results keyed by content and options
type ResultCache interface {
	// Get decodes the cached value for key into out and reports whether it was found
	Get(key string, out interface{}) bool

	// Put stores value under key
	Put(key string, value interface{}) error

	// Len returns the number of cached entries
	Len() int
}

// ProjectConfig is what a configuration file contributes to a request
type ProjectConfig struct {
	Options         AnalysisOptions
	OutputFormat    OutputFormat
	OutputDirectory string
}

// ConfigurationLoader defines the interface for loading configuration
type ConfigurationLoader interface {
	// LoadConfig reads path, or discovers a configuration file from
	// startDir upwards when path is empty
	LoadConfig(path, startDir string) (*ProjectConfig, error)

	// MergeConfig overlays the explicitly set command line values of
	// override on base
	MergeConfig(base *ProjectConfig, override *ProjectConfig) *ProjectConfig
}
