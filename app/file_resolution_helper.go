package app

import "github.com/ludo-technologies/pygather/domain"

// ResolveFilePaths resolves the Python files and notebooks to analyze.
// If every path is already a .py or .ipynb file it is returned as is;
// otherwise files are collected from the paths with the include and
// exclude filters of opts.
func ResolveFilePaths(fileReader domain.FileReader, paths []string, opts domain.AnalysisOptions) ([]string, error) {
	allFiles := len(paths) > 0
	for _, path := range paths {
		if !fileReader.IsValidPythonFile(path) {
			allFiles = false
			break
		}
		// FileExists returns true only for files, not directories
		exists, err := fileReader.FileExists(path)
		if err != nil || !exists {
			allFiles = false
			break
		}
	}
	if allFiles {
		return paths, nil
	}

	files, err := fileReader.CollectPythonFiles(paths, opts.Recursive, opts.IncludePatterns, opts.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no Python files or notebooks found in the specified paths", nil)
	}
	return files, nil
}

// configStartDir is where configuration discovery begins for paths
func configStartDir(paths []string) string {
	if len(paths) == 0 {
		return "."
	}
	return paths[0]
}

// mergeProjectConfig loads the project configuration and overlays the
// request values the caller set explicitly. A nil loader keeps the request
// as given.
func mergeProjectConfig(loader domain.ConfigurationLoader, configPath string, paths []string, opts domain.AnalysisOptions, format domain.OutputFormat) (domain.AnalysisOptions, domain.OutputFormat, error) {
	if loader == nil {
		return opts, format, nil
	}
	base, err := loader.LoadConfig(configPath, configStartDir(paths))
	if err != nil {
		return opts, format, err
	}
	merged := loader.MergeConfig(base, &domain.ProjectConfig{Options: opts, OutputFormat: format})
	if merged.OutputFormat == "" {
		merged.OutputFormat = domain.OutputFormatText
	}
	return merged.Options, merged.OutputFormat, nil
}

// passDomainError keeps an error that already carries a domain code and
// wraps anything else with wrap
func passDomainError(err error, wrap func(error) error) error {
	if domain.ErrorCode(err) != "" {
		return err
	}
	return wrap(err)
}
