package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/pelletier/go-toml/v2"
)

const (
	// ConfigFileName is the dedicated configuration file
	ConfigFileName = ".pygather.toml"

	// PyprojectFileName carries configuration under [tool.pygather]
	PyprojectFileName = "pyproject.toml"
)

// PygatherTomlConfig represents the structure of .pygather.toml and of the
// [tool.pygather] table. Pointer and nil-slice fields detect unset values.
type PygatherTomlConfig struct {
	Output   TomlOutputConfig   `toml:"output"`
	Analysis TomlAnalysisConfig `toml:"analysis"`
	Slice    TomlSliceConfig    `toml:"slice"`
	Server   TomlServerConfig   `toml:"server"`
}

// TomlOutputConfig represents the [output] section
type TomlOutputConfig struct {
	Format    string `toml:"format"`
	Directory string `toml:"directory"`
}

// TomlAnalysisConfig represents the [analysis] section
type TomlAnalysisConfig struct {
	IncludePatterns []string `toml:"include_patterns"`
	ExcludePatterns []string `toml:"exclude_patterns"`
	Recursive       *bool    `toml:"recursive"` // pointer to detect unset
	MaxWorkers      *int     `toml:"max_workers"`
	CacheSize       *int     `toml:"cache_size"`
	CacheFile       string   `toml:"cache_file"`
}

// TomlSliceConfig represents the [slice] section
type TomlSliceConfig struct {
	LinkLoopVariables *bool                 `toml:"link_loop_variables"` // pointer to detect unset
	UseDefaultRules   *bool                 `toml:"use_default_rules"`   // pointer to detect unset
	FunctionRules     []domain.FunctionRule `toml:"function_rules"`
}

// TomlServerConfig represents the [server] section
type TomlServerConfig struct {
	Addr        string `toml:"addr"`
	ReadTimeout *int   `toml:"read_timeout"`
}

// TomlConfigLoader handles TOML-only configuration loading
type TomlConfigLoader struct{}

// NewTomlConfigLoader creates a new TOML configuration loader
func NewTomlConfigLoader() *TomlConfigLoader {
	return &TomlConfigLoader{}
}

// LoadConfig loads configuration from TOML files with ruff-like priority:
// 1. .pygather.toml (dedicated config file)
// 2. pyproject.toml (with [tool.pygather] section)
// 3. defaults
func (l *TomlConfigLoader) LoadConfig(startDir string) (*Config, error) {
	path := l.FindConfigFile(startDir)
	if path == "" {
		return DefaultConfig(), nil
	}
	return l.LoadFile(path)
}

// FindConfigFile returns the nearest supported config file at or above
// startDir, or "" when there is none. A dedicated file anywhere up the
// tree wins over pyproject.toml.
func (l *TomlConfigLoader) FindConfigFile(startDir string) string {
	if path, err := l.findPygatherToml(startDir); err == nil {
		return path
	}
	if path, err := findPyprojectToml(startDir); err == nil {
		return path
	}
	return ""
}

// LoadFile reads one TOML file and merges it over the defaults. A file
// named pyproject.toml is read from its [tool.pygather] table.
func (l *TomlConfigLoader) LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var section *PygatherTomlConfig
	if filepath.Base(path) == PyprojectFileName {
		var pyproject PyprojectToml
		if err := toml.Unmarshal(data, &pyproject); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		section = &pyproject.Tool.Pygather
	} else {
		var cfg PygatherTomlConfig
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		section = &cfg
	}

	defaults := DefaultConfig()
	l.mergeTomlConfig(defaults, section)
	return defaults, nil
}

// findPygatherToml walks up the directory tree to find .pygather.toml
func (l *TomlConfigLoader) findPygatherToml(startDir string) (string, error) {
	return walkUp(startDir, ConfigFileName)
}

// mergeTomlConfig merges a parsed file into defaults, leaving unset
// values alone
func (l *TomlConfigLoader) mergeTomlConfig(defaults *Config, file *PygatherTomlConfig) {
	if file.Output.Format != "" {
		defaults.Output.Format = file.Output.Format
	}
	if file.Output.Directory != "" {
		defaults.Output.Directory = file.Output.Directory
	}

	analysis := file.Analysis
	if analysis.IncludePatterns != nil {
		defaults.Analysis.IncludePatterns = analysis.IncludePatterns
	}
	if analysis.ExcludePatterns != nil {
		defaults.Analysis.ExcludePatterns = analysis.ExcludePatterns
	}
	if analysis.Recursive != nil {
		defaults.Analysis.Recursive = *analysis.Recursive
	}
	if analysis.MaxWorkers != nil {
		defaults.Analysis.MaxWorkers = *analysis.MaxWorkers
	}
	if analysis.CacheSize != nil {
		defaults.Analysis.CacheSize = *analysis.CacheSize
	}
	if analysis.CacheFile != "" {
		defaults.Analysis.CacheFile = analysis.CacheFile
	}

	slice := file.Slice
	if slice.LinkLoopVariables != nil {
		defaults.Slice.LinkLoopVariables = *slice.LinkLoopVariables
	}
	if slice.UseDefaultRules != nil {
		defaults.Slice.UseDefaultRules = *slice.UseDefaultRules
	}
	if len(slice.FunctionRules) > 0 {
		defaults.Slice.FunctionRules = slice.FunctionRules
	}

	if file.Server.Addr != "" {
		defaults.Server.Addr = file.Server.Addr
	}
	if file.Server.ReadTimeout != nil {
		defaults.Server.ReadTimeout = *file.Server.ReadTimeout
	}
}

// GetSupportedConfigFiles returns the list of supported TOML config files
// in order of precedence
func (l *TomlConfigLoader) GetSupportedConfigFiles() []string {
	return []string{
		ConfigFileName,    // dedicated config file (highest priority)
		PyprojectFileName, // with [tool.pygather] section
	}
}

// walkUp looks for name in startDir and each of its parents
func walkUp(startDir, name string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		dir = startDir
	}
	for {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}
