package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/config"
)

func TestConfigurationLoader_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, config.ConfigFileName, `
[output]
format = "json"

[analysis]
exclude_patterns = ["**/legacy/**"]
max_workers = 3

[slice]
link_loop_variables = true
use_default_rules = false

[[slice.function_rules]]
function = "fill"
instance_effect = "UPDATE"
`)

	loader := NewConfigurationLoader(nil)
	cfg, err := loader.LoadConfig("", dir)
	require.NoError(t, err)

	assert.Equal(t, domain.OutputFormatJSON, cfg.OutputFormat)
	assert.Equal(t, []string{"**/legacy/**"}, cfg.Options.ExcludePatterns)
	assert.Equal(t, 3, cfg.Options.MaxWorkers)
	assert.True(t, cfg.Options.LinkLoopVariables)
	assert.False(t, cfg.Options.UseDefaultRules)
	require.Len(t, cfg.Options.FunctionRules, 1)
	assert.Equal(t, "fill", cfg.Options.FunctionRules[0].Function)

	t.Run("InvalidFile", func(t *testing.T) {
		bad := t.TempDir()
		createTestFile(t, bad, config.ConfigFileName, "[analysis\n")
		_, err := loader.LoadConfig("", bad)
		assert.Equal(t, domain.ErrCodeConfigError, domain.ErrorCode(err))
	})
}

func TestConfigurationLoader_MergeConfig(t *testing.T) {
	base := &domain.ProjectConfig{
		Options: domain.AnalysisOptions{
			Recursive:       true,
			ExcludePatterns: []string{"**/legacy/**"},
			UseDefaultRules: true,
			MaxWorkers:      3,
		},
		OutputFormat: domain.OutputFormatJSON,
	}
	override := &domain.ProjectConfig{
		Options: domain.AnalysisOptions{
			Recursive:       false,
			MaxWorkers:      8,
			UseDefaultRules: false,
		},
		OutputFormat: domain.OutputFormatText,
	}

	t.Run("UnsetFlagsKeepFileValues", func(t *testing.T) {
		merged := NewConfigurationLoader(nil).MergeConfig(base, override)
		assert.Equal(t, base.Options, merged.Options)
		assert.Equal(t, domain.OutputFormatJSON, merged.OutputFormat)
	})

	t.Run("SetFlagsWin", func(t *testing.T) {
		flags := config.NewFlagTracker(FlagWorkers, FlagNoDefaultRules, "csv")
		override := *override
		override.OutputFormat = domain.OutputFormatCSV
		merged := NewConfigurationLoader(flags).MergeConfig(base, &override)

		assert.Equal(t, 8, merged.Options.MaxWorkers)
		assert.False(t, merged.Options.UseDefaultRules)
		assert.True(t, merged.Options.Recursive)
		assert.Equal(t, []string{"**/legacy/**"}, merged.Options.ExcludePatterns)
		assert.Equal(t, domain.OutputFormatCSV, merged.OutputFormat)
	})

	t.Run("NilSides", func(t *testing.T) {
		loader := NewConfigurationLoader(nil)
		assert.Same(t, override, loader.MergeConfig(nil, override))
		assert.Same(t, base, loader.MergeConfig(base, nil))
	})
}
