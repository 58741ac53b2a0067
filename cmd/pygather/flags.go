package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/config"
	"github.com/ludo-technologies/pygather/service"
	"github.com/spf13/pflag"
)

// analysisFlags are the flags shared by slice and deps
type analysisFlags struct {
	// Output format flags (only one should be true)
	json bool
	yaml bool
	csv  bool
	dot  bool

	output     string
	configFile string
	rulesFile  string

	linkLoopVars   bool
	noDefaultRules bool
	recursive      bool
	workers        int
	include        []string
	exclude        []string
}

func (f *analysisFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&f.json, "json", false, "Output JSON")
	fs.BoolVar(&f.yaml, "yaml", false, "Output YAML")
	fs.BoolVar(&f.csv, "csv", false, "Output CSV")
	fs.BoolVar(&f.dot, "dot", false, "Output a Graphviz DOT graph")
	fs.StringVarP(&f.output, "output", "o", "", "Write the report to this file instead of stdout")
	fs.StringVarP(&f.configFile, "config", "c", "", "Configuration file path (.pygather.toml, pyproject.toml, yaml or json)")
	fs.StringVar(&f.rulesFile, service.FlagRules, "", "TOML file of [[function_rules]] replacing the configured rules")
	fs.BoolVar(&f.linkLoopVars, service.FlagLinkLoopVars, false, "Make loop bodies depend on the loop header binding their variables")
	fs.BoolVar(&f.noDefaultRules, service.FlagNoDefaultRules, false, "Drop the built-in rules for append, fit, set_option, ...")
	fs.BoolVarP(&f.recursive, service.FlagRecursive, "r", true, "Recurse into directories")
	fs.IntVar(&f.workers, service.FlagWorkers, 0, "Files analyzed concurrently (0 = one per CPU)")
	fs.StringSliceVar(&f.include, service.FlagInclude, nil, "Glob patterns of files to include")
	fs.StringSliceVar(&f.exclude, service.FlagExclude, nil, "Glob patterns of files to exclude")
}

// options builds the analysis options the flags ask for; the use case
// keeps only those explicitly set
func (f *analysisFlags) options() (domain.AnalysisOptions, error) {
	opts := domain.AnalysisOptions{
		Recursive:         f.recursive,
		IncludePatterns:   f.include,
		ExcludePatterns:   f.exclude,
		UseDefaultRules:   !f.noDefaultRules,
		LinkLoopVariables: f.linkLoopVars,
		MaxWorkers:        f.workers,
	}
	if f.rulesFile != "" {
		rules, err := config.LoadFunctionRules(f.rulesFile)
		if err != nil {
			return opts, domain.NewConfigError(fmt.Sprintf("failed to load rules from %s", f.rulesFile), err)
		}
		opts.FunctionRules = rules
	}
	return opts, nil
}

// format resolves the output format from the flags, falling back to the
// configured format when no flag is set
func (f *analysisFlags) format(cfg *config.Config) (domain.OutputFormat, string, error) {
	format, ext, err := service.NewOutputFormatResolver().Determine(f.json, f.yaml, f.csv, f.dot)
	if err != nil {
		return "", "", domain.NewInvalidInputError(err.Error(), nil)
	}
	if f.json || f.yaml || f.csv || f.dot || cfg == nil {
		return format, ext, nil
	}
	configured, err := domain.ParseOutputFormat(strings.ToLower(cfg.Output.Format))
	if err != nil {
		return "", "", err
	}
	return configured, extensionFor(configured), nil
}

// outputPath is --output, or a timestamped file in the configured output
// directory for non-text formats
func (f *analysisFlags) outputPath(command, ext string, format domain.OutputFormat, cfg *config.Config) (string, error) {
	if f.output != "" {
		return f.output, nil
	}
	if format == domain.OutputFormatText || cfg == nil || cfg.Output.Directory == "" {
		return "", nil
	}
	return generateOutputFilePath(cfg.Output.Directory, command, ext)
}

func extensionFor(format domain.OutputFormat) string {
	if format == domain.OutputFormatText || format == "" {
		return "txt"
	}
	return string(format)
}

// expandAndValidatePaths makes args absolute and checks they exist
func expandAndValidatePaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		expanded, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", arg, err)
		}
		if _, err := os.Stat(expanded); err != nil {
			if os.IsNotExist(err) {
				return nil, domain.NewFileNotFoundError(arg, err)
			}
			return nil, fmt.Errorf("cannot access path %s: %w", arg, err)
		}
		paths = append(paths, expanded)
	}
	return paths, nil
}
