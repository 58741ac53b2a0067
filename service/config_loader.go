package service

import (
	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/config"
)

// Command line flag names that override configuration values
const (
	FlagRecursive      = "recursive"
	FlagInclude        = "include"
	FlagExclude        = "exclude"
	FlagLinkLoopVars   = "link-loop-vars"
	FlagWorkers        = "workers"
	FlagRules          = "rules"
	FlagNoDefaultRules = "no-default-rules"
)

var formatFlags = []string{"json", "yaml", "csv", "dot"}

// ConfigurationLoaderImpl implements the ConfigurationLoader interface.
// Only flags recorded in the tracker override file values.
type ConfigurationLoaderImpl struct {
	flags *config.FlagTracker
}

// NewConfigurationLoader creates a loader; flags may be nil when nothing
// was set on the command line
func NewConfigurationLoader(flags *config.FlagTracker) *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{flags: flags}
}

// LoadConfig loads path, or discovers a configuration file from startDir
func (c *ConfigurationLoaderImpl) LoadConfig(path, startDir string) (*domain.ProjectConfig, error) {
	cfg, err := config.Load(path, startDir)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration", err)
	}
	return cfg.ToProjectConfig(), nil
}

// MergeConfig overlays explicitly set flags of override on base
func (c *ConfigurationLoaderImpl) MergeConfig(base *domain.ProjectConfig, override *domain.ProjectConfig) *domain.ProjectConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	ft := c.flags
	b, o := base.Options, override.Options

	merged.Options.Recursive = config.Override(ft, FlagRecursive, b.Recursive, o.Recursive)
	merged.Options.IncludePatterns = config.Override(ft, FlagInclude, b.IncludePatterns, o.IncludePatterns)
	merged.Options.ExcludePatterns = config.Override(ft, FlagExclude, b.ExcludePatterns, o.ExcludePatterns)
	merged.Options.LinkLoopVariables = config.Override(ft, FlagLinkLoopVars, b.LinkLoopVariables, o.LinkLoopVariables)
	merged.Options.MaxWorkers = config.Override(ft, FlagWorkers, b.MaxWorkers, o.MaxWorkers)
	merged.Options.FunctionRules = config.Override(ft, FlagRules, b.FunctionRules, o.FunctionRules)
	merged.Options.UseDefaultRules = config.Override(ft, FlagNoDefaultRules, b.UseDefaultRules, o.UseDefaultRules)

	for _, name := range formatFlags {
		if ft.WasSet(name) {
			merged.OutputFormat = override.OutputFormat
			break
		}
	}
	if override.OutputDirectory != "" {
		merged.OutputDirectory = override.OutputDirectory
	}

	return &merged
}
