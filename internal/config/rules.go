package config

import (
	"fmt"
	"os"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/analyzer"
	"github.com/pelletier/go-toml/v2"
)

// ToFunctionRule converts a configured rule into an analyzer rule. Effects
// are reference level names: DEFINITION, GLOBAL_CONFIG, INITIALIZATION, UPDATE.
func ToFunctionRule(r domain.FunctionRule) (analyzer.FunctionRule, error) {
	rule := analyzer.FunctionRule{}
	if r.Function == "" {
		return rule, fmt.Errorf("function cannot be empty")
	}
	rule.Pattern = analyzer.Pattern{
		FunctionName:  r.Function,
		InstanceNames: r.Instances,
	}

	level, err := analyzer.ParseReferenceLevel(r.InstanceEffect)
	if err != nil {
		return rule, fmt.Errorf("%s: instance_effect: %w", r.Function, err)
	}
	rule.InstanceEffect = level

	if len(r.Positional) > 0 {
		rule.PositionalArgumentEffects = make(map[int]analyzer.ReferenceLevel, len(r.Positional))
		for _, p := range r.Positional {
			if p.Index < 0 {
				return rule, fmt.Errorf("%s: positional index must be >= 0, got %d", r.Function, p.Index)
			}
			level, err := analyzer.ParseReferenceLevel(p.Effect)
			if err != nil {
				return rule, fmt.Errorf("%s: positional %d: %w", r.Function, p.Index, err)
			}
			rule.PositionalArgumentEffects[p.Index] = level
		}
	}

	if len(r.Keywords) > 0 {
		rule.KeywordArgumentEffects = make(map[string]analyzer.ReferenceLevel, len(r.Keywords))
		for name, effect := range r.Keywords {
			level, err := analyzer.ParseReferenceLevel(effect)
			if err != nil {
				return rule, fmt.Errorf("%s: keyword %s: %w", r.Function, name, err)
			}
			rule.KeywordArgumentEffects[name] = level
		}
	}

	return rule, nil
}

// BuildFunctionRules returns the rule set the analyzer should use: the
// built-in rules when useDefaults is set, followed by custom. The result
// is never nil so that an empty rule set stays empty.
func BuildFunctionRules(useDefaults bool, custom []domain.FunctionRule) ([]analyzer.FunctionRule, error) {
	rules := []analyzer.FunctionRule{}
	if useDefaults {
		rules = append(rules, analyzer.DefaultFunctionRules()...)
	}
	for i, cfg := range custom {
		rule, err := ToFunctionRule(cfg)
		if err != nil {
			return nil, fmt.Errorf("function rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// SliceOptions builds analyzer options from analysis options
func SliceOptions(opts domain.AnalysisOptions) (*analyzer.SliceOptions, error) {
	rules, err := BuildFunctionRules(opts.UseDefaultRules, opts.FunctionRules)
	if err != nil {
		return nil, err
	}
	return &analyzer.SliceOptions{
		FunctionRules:     rules,
		LinkLoopVariables: opts.LinkLoopVariables,
	}, nil
}

// rulesFile is the layout of a standalone rules file passed with --rules
type rulesFile struct {
	FunctionRules []domain.FunctionRule `toml:"function_rules"`
}

// LoadFunctionRules reads the [[function_rules]] tables of a TOML file
func LoadFunctionRules(path string) ([]domain.FunctionRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	var file rulesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	for i, r := range file.FunctionRules {
		if _, err := ToFunctionRule(r); err != nil {
			return nil, fmt.Errorf("%s: function_rules[%d]: %w", path, i, err)
		}
	}
	return file.FunctionRules, nil
}
