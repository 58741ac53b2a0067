package mcp

import (
	"log/slog"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/config"
	"github.com/ludo-technologies/pygather/service"
)

// Dependencies aggregates the shared services required by MCP handlers.
type Dependencies struct {
	fileReader domain.FileReader
	config     *config.Config
	configPath string
	logger     *slog.Logger
}

// NewDependencies constructs the dependency set with sane defaults.
// A nil cfg makes every call discover configuration from its target path.
func NewDependencies(cfg *config.Config, configPath string, logger *slog.Logger) *Dependencies {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dependencies{
		fileReader: service.NewFileReader(),
		config:     cfg,
		configPath: configPath,
		logger:     logger,
	}
}

// Config exposes the loaded configuration snapshot, nil when discovery is per call.
func (d *Dependencies) Config() *config.Config {
	return d.config
}

// ConfigPath returns the configured config file path (may be empty to trigger discovery).
func (d *Dependencies) ConfigPath() string {
	return d.configPath
}

// Logger returns the handler logger.
func (d *Dependencies) Logger() *slog.Logger {
	return d.logger
}

// AnalysisOptions resolves the options for a call on target
func (d *Dependencies) AnalysisOptions(target string) (domain.AnalysisOptions, error) {
	cfg := d.config
	if cfg == nil {
		loaded, err := config.Load(d.configPath, target)
		if err != nil {
			return domain.AnalysisOptions{}, domain.NewConfigError("failed to load configuration", err)
		}
		cfg = loaded
	}
	return cfg.ToProjectConfig().Options, nil
}

// BuildSliceService assembles a fresh slice service.
func (d *Dependencies) BuildSliceService() domain.SliceService {
	return service.NewSliceService()
}

// BuildDependencyService assembles a fresh dependency service.
func (d *Dependencies) BuildDependencyService() domain.DependencyService {
	return service.NewDependencyService()
}
