package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/analyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Output.Format != DefaultOutputFormat {
		t.Errorf("Expected output format %s, got %s", DefaultOutputFormat, config.Output.Format)
	}
	if !config.Analysis.Recursive {
		t.Error("Expected recursive analysis by default")
	}
	if !config.Slice.UseDefaultRules {
		t.Error("Expected default function rules to be enabled")
	}
	if config.Server.Addr != DefaultServerAddr {
		t.Errorf("Expected server addr %s, got %s", DefaultServerAddr, config.Server.Addr)
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"UnknownFormat", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"FormatIsCaseInsensitive", func(c *Config) { c.Output.Format = "JSON" }, ""},
		{"NoIncludePatterns", func(c *Config) { c.Analysis.IncludePatterns = nil }, "include_patterns"},
		{"NegativeWorkers", func(c *Config) { c.Analysis.MaxWorkers = -1 }, "max_workers"},
		{"NegativeCache", func(c *Config) { c.Analysis.CacheSize = -5 }, "cache_size"},
		{"EmptyAddr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"NegativeTimeout", func(c *Config) { c.Server.ReadTimeout = -1 }, "read_timeout"},
		{"BadRuleLevel", func(c *Config) {
			c.Slice.FunctionRules = []domain.FunctionRule{{Function: "fill", InstanceEffect: "MAYBE"}}
		}, "function_rules[0]"},
		{"RuleWithoutFunction", func(c *Config) {
			c.Slice.FunctionRules = []domain.FunctionRule{{InstanceEffect: "UPDATE"}}
		}, "function cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid config, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("LoadNonExistentConfig", func(t *testing.T) {
		config, err := LoadConfig("nonexistent.yaml")
		if err == nil {
			t.Error("Expected error for non-existent config file")
		}
		if config != nil {
			t.Error("Expected nil config for non-existent file")
		}
	})

	t.Run("LoadValidYAMLConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "pygather.yaml")
		yamlContent := `
output:
  format: json
analysis:
  include_patterns:
    - "src/**/*.py"
  recursive: false
  max_workers: 4
slice:
  link_loop_variables: true
  function_rules:
    - function: fill
      instance_effect: UPDATE
      keywords:
        out: UPDATE
`
		require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

		config, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, "json", config.Output.Format)
		assert.Equal(t, []string{"src/**/*.py"}, config.Analysis.IncludePatterns)
		assert.False(t, config.Analysis.Recursive)
		assert.Equal(t, 4, config.Analysis.MaxWorkers)
		assert.True(t, config.Slice.LinkLoopVariables)
		assert.True(t, config.Slice.UseDefaultRules, "unset keys keep their defaults")
		require.Len(t, config.Slice.FunctionRules, 1)
		assert.Equal(t, "UPDATE", config.Slice.FunctionRules[0].Keywords["out"])
		assert.Equal(t, DefaultServerAddr, config.Server.Addr)
	})

	t.Run("LoadInvalidConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "pygather.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("output:\n  format: xml\n"), 0644))

		_, err := LoadConfig(configPath)
		assert.ErrorContains(t, err, "invalid configuration")
	})
}

func TestLoad(t *testing.T) {
	t.Run("DiscoversDedicatedFile", func(t *testing.T) {
		root := t.TempDir()
		sub := filepath.Join(root, "notebooks", "2024")
		require.NoError(t, os.MkdirAll(sub, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("[output]\nformat = \"csv\"\n"), 0644))

		config, err := Load("", sub)
		require.NoError(t, err)
		assert.Equal(t, "csv", config.Output.Format)
	})

	t.Run("ExplicitPathWins", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("[output]\nformat = \"csv\"\n"), 0644))
		explicit := filepath.Join(root, "other.toml")
		require.NoError(t, os.WriteFile(explicit, []byte("[output]\nformat = \"yaml\"\n"), 0644))

		config, err := Load(explicit, root)
		require.NoError(t, err)
		assert.Equal(t, "yaml", config.Output.Format)
	})

	t.Run("RejectsInvalidDiscoveredFile", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("[analysis]\nmax_workers = -2\n"), 0644))

		_, err := Load("", root)
		assert.ErrorContains(t, err, "max_workers")
	})
}

func TestFunctionRules(t *testing.T) {
	t.Run("ConvertsLevels", func(t *testing.T) {
		rule, err := ToFunctionRule(domain.FunctionRule{
			Function:       "fill",
			Instances:      []string{"canvas"},
			InstanceEffect: "update",
			Positional:     []domain.PositionalEffect{{Index: 1, Effect: "INIT"}},
			Keywords:       map[string]string{"out": "GLOBAL_CONFIG"},
		})
		require.NoError(t, err)
		assert.Equal(t, "fill", rule.Pattern.FunctionName)
		assert.Equal(t, []string{"canvas"}, rule.Pattern.InstanceNames)
		assert.Equal(t, analyzer.LevelUpdate, rule.InstanceEffect)
		assert.Equal(t, analyzer.LevelInitialization, rule.PositionalArgumentEffects[1])
		assert.Equal(t, analyzer.LevelGlobalConfig, rule.KeywordArgumentEffects["out"])
	})

	t.Run("NegativeIndex", func(t *testing.T) {
		_, err := ToFunctionRule(domain.FunctionRule{
			Function:   "fill",
			Positional: []domain.PositionalEffect{{Index: -1, Effect: "UPDATE"}},
		})
		assert.Error(t, err)
	})

	t.Run("DefaultsThenCustom", func(t *testing.T) {
		rules, err := BuildFunctionRules(true, []domain.FunctionRule{{Function: "fill", InstanceEffect: "UPDATE"}})
		require.NoError(t, err)
		defaults := analyzer.DefaultFunctionRules()
		require.Len(t, rules, len(defaults)+1)
		assert.Equal(t, "fill", rules[len(rules)-1].Pattern.FunctionName)
	})

	t.Run("NoRulesIsEmptyNotNil", func(t *testing.T) {
		opts, err := SliceOptions(domain.AnalysisOptions{LinkLoopVariables: true})
		require.NoError(t, err)
		assert.NotNil(t, opts.FunctionRules)
		assert.Empty(t, opts.FunctionRules)
		assert.True(t, opts.LinkLoopVariables)
	})

	t.Run("RulesFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.toml")
		content := "[[function_rules]]\nfunction = \"fill\"\ninstance_effect = \"UPDATE\"\nkeywords = { out = \"UPDATE\" }\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		rules, err := LoadFunctionRules(path)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "fill", rules[0].Function)
		assert.Equal(t, "UPDATE", rules[0].Keywords["out"])
	})

	t.Run("InvalidRulesFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.toml")
		require.NoError(t, os.WriteFile(path, []byte("[[function_rules]]\ninstance_effect = \"UPDATE\"\n"), 0644))

		_, err := LoadFunctionRules(path)
		assert.ErrorContains(t, err, "function_rules[0]")
	})
}

func TestToProjectConfig(t *testing.T) {
	config := DefaultConfig()
	config.Output.Format = "JSON"
	config.Slice.LinkLoopVariables = true

	project := config.ToProjectConfig()
	assert.Equal(t, domain.OutputFormatJSON, project.OutputFormat)
	assert.True(t, project.Options.LinkLoopVariables)
	assert.True(t, project.Options.UseDefaultRules)
	assert.Equal(t, config.Analysis.IncludePatterns, project.Options.IncludePatterns)
}

func TestGenerateDefaultConfigTOML(t *testing.T) {
	content, err := GenerateDefaultConfigTOML()
	require.NoError(t, err)
	assert.Contains(t, content, "[slice]")
	assert.Contains(t, content, `include_patterns = ["**/*.py", "**/*.ipynb"]`)

	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	config, err := NewTomlConfigLoader().LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}
