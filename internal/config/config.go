package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/spf13/viper"
)

// Default analysis settings
const (
	// DefaultOutputFormat is used when neither a flag nor a config file picks one
	DefaultOutputFormat = "text"

	// DefaultMaxWorkers of 0 means one worker per CPU
	DefaultMaxWorkers = 0

	// DefaultCacheSize is the number of analyzed files kept in memory
	DefaultCacheSize = 128

	// DefaultServerAddr is the listen address of "pygather serve"
	DefaultServerAddr = ":8080"

	// DefaultReadTimeout is the HTTP read timeout in seconds
	DefaultReadTimeout = 30
)

// Config represents the main configuration structure
type Config struct {
	// Output holds output formatting configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" toml:"output"`

	// Analysis holds file discovery and execution configuration
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis" toml:"analysis"`

	// Slice holds dependency analysis configuration
	Slice SliceConfig `mapstructure:"slice" yaml:"slice" toml:"slice"`

	// Server holds HTTP server configuration
	Server ServerConfig `mapstructure:"server" yaml:"server" toml:"server"`
}

// OutputConfig holds output formatting configuration
type OutputConfig struct {
	// Format is one of text, json, yaml, csv, dot
	Format string `mapstructure:"format" yaml:"format" toml:"format"`

	// Directory receives report files; empty means stdout
	Directory string `mapstructure:"directory" yaml:"directory" toml:"directory"`
}

// AnalysisConfig holds file discovery and execution configuration
type AnalysisConfig struct {
	IncludePatterns []string `mapstructure:"include_patterns" yaml:"include_patterns" toml:"include_patterns"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns" toml:"exclude_patterns"`
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" toml:"recursive"`

	// MaxWorkers bounds the files analyzed concurrently
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers" toml:"max_workers"`

	// CacheSize is the capacity of the result cache; 0 disables it
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size" toml:"cache_size"`

	// CacheFile persists the result cache between runs when set
	CacheFile string `mapstructure:"cache_file" yaml:"cache_file" toml:"cache_file"`
}

// SliceConfig holds dependency analysis configuration
type SliceConfig struct {
	LinkLoopVariables bool `mapstructure:"link_loop_variables" yaml:"link_loop_variables" toml:"link_loop_variables"`

	// UseDefaultRules keeps the built-in function rules alongside FunctionRules
	UseDefaultRules bool `mapstructure:"use_default_rules" yaml:"use_default_rules" toml:"use_default_rules"`

	FunctionRules []domain.FunctionRule `mapstructure:"function_rules" yaml:"function_rules" toml:"function_rules"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" toml:"addr"`

	// ReadTimeout is in seconds
	ReadTimeout int `mapstructure:"read_timeout" yaml:"read_timeout" toml:"read_timeout"`
}

var validOutputFormats = []string{"text", "json", "yaml", "csv", "dot"}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format: DefaultOutputFormat,
		},
		Analysis: AnalysisConfig{
			IncludePatterns: []string{"**/*.py", "**/*.ipynb"},
			ExcludePatterns: []string{"**/.venv/**", "**/venv/**", "**/.ipynb_checkpoints/**"},
			Recursive:       true,
			MaxWorkers:      DefaultMaxWorkers,
			CacheSize:       DefaultCacheSize,
		},
		Slice: SliceConfig{
			LinkLoopVariables: false,
			UseDefaultRules:   true,
		},
		Server: ServerConfig{
			Addr:        DefaultServerAddr,
			ReadTimeout: DefaultReadTimeout,
		},
	}
}

// Load resolves the configuration for a run. An explicit configPath is
// read with viper in whatever format its extension names; otherwise the
// TOML files are discovered from startDir upwards.
func Load(configPath, startDir string) (*Config, error) {
	if configPath != "" {
		return LoadConfig(configPath)
	}

	loader := NewTomlConfigLoader()
	if path := loader.FindConfigFile(startDir); path != "" {
		config, err := loader.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
		}
		return config, nil
	}

	return LoadConfig("")
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	// If no config path specified, try to find default config files
	if configPath == "" {
		configPath = findDefaultConfig()
	}

	// If still no config found, return default
	if configPath == "" {
		return config, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// findDefaultConfig looks for YAML or JSON configuration files in the
// current directory, then in the home directory
func findDefaultConfig() string {
	candidates := []string{
		"pygather.yaml",
		"pygather.yml",
		".pygather.yaml",
		".pygather.yml",
		"pygather.json",
		".pygather.json",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		for _, candidate := range candidates {
			path := filepath.Join(home, candidate)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	format := strings.ToLower(c.Output.Format)
	valid := false
	for _, f := range validOutputFormats {
		if f == format {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("output.format must be one of %s, got %q", strings.Join(validOutputFormats, ", "), c.Output.Format)
	}

	if len(c.Analysis.IncludePatterns) == 0 {
		return fmt.Errorf("analysis.include_patterns cannot be empty")
	}
	if c.Analysis.MaxWorkers < 0 {
		return fmt.Errorf("analysis.max_workers must be >= 0, got %d", c.Analysis.MaxWorkers)
	}
	if c.Analysis.CacheSize < 0 {
		return fmt.Errorf("analysis.cache_size must be >= 0, got %d", c.Analysis.CacheSize)
	}

	for i, rule := range c.Slice.FunctionRules {
		if _, err := ToFunctionRule(rule); err != nil {
			return fmt.Errorf("slice.function_rules[%d]: %w", i, err)
		}
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must be >= 0, got %d", c.Server.ReadTimeout)
	}

	return nil
}

// ToProjectConfig converts the file settings into their domain form
func (c *Config) ToProjectConfig() *domain.ProjectConfig {
	return &domain.ProjectConfig{
		Options: domain.AnalysisOptions{
			Recursive:         c.Analysis.Recursive,
			IncludePatterns:   c.Analysis.IncludePatterns,
			ExcludePatterns:   c.Analysis.ExcludePatterns,
			FunctionRules:     c.Slice.FunctionRules,
			UseDefaultRules:   c.Slice.UseDefaultRules,
			LinkLoopVariables: c.Slice.LinkLoopVariables,
			MaxWorkers:        c.Analysis.MaxWorkers,
		},
		OutputFormat:    domain.OutputFormat(strings.ToLower(c.Output.Format)),
		OutputDirectory: c.Output.Directory,
	}
}
