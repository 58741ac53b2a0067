package main

import (
	"context"

	"github.com/ludo-technologies/pygather/app"
	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/config"
	"github.com/ludo-technologies/pygather/service"
	"github.com/spf13/cobra"
)

// DepsCommand represents the dependency edge command
type DepsCommand struct {
	analysisFlags
}

func NewDepsCommand() *DepsCommand { return &DepsCommand{} }

func NewDepsCmd() *cobra.Command {
	c := NewDepsCommand()

	cmd := &cobra.Command{
		Use:   "deps [paths...]",
		Short: "List the data and control dependencies between statements",
		Long: `Print every dependency edge the slicer follows. A data edge links a
statement to an earlier one whose effect on a variable it reads; a control
edge links a statement to the branch or loop header deciding whether it runs.

Examples:
  pygather deps script.py
  pygather deps --dot script.py > deps.dot
  pygather deps --json analysis.ipynb | jq '.files[0].edges'`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.run,
	}

	c.register(cmd.Flags())
	return cmd
}

func (c *DepsCommand) run(cmd *cobra.Command, args []string) error {
	paths, err := expandAndValidatePaths(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c.configFile, paths[0])
	if err != nil {
		return err
	}
	opts, err := c.options()
	if err != nil {
		return err
	}
	format, ext, err := c.format(cfg)
	if err != nil {
		return err
	}
	outputPath, err := c.outputPath("deps", ext, format, cfg)
	if err != nil {
		return err
	}

	depService := service.NewDependencyService()
	progress := service.NewProgressManager()
	progress.SetWriter(cmd.ErrOrStderr())
	depService.SetProgressManager(progress)
	if logger := newLogger(cmd); logger != nil {
		depService.SetLogger(logger)
	}

	useCase, err := app.NewDepsUseCaseBuilder().
		WithService(depService).
		WithFileReader(service.NewFileReader()).
		WithFormatter(service.NewDepsFormatter()).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		WithConfigLoader(service.NewConfigurationLoader(config.TrackFlagSet(cmd.Flags()))).
		Build()
	if err != nil {
		return err
	}

	req := domain.DependencyRequest{
		Paths:           paths,
		AnalysisOptions: opts,
		OutputFormat:    format,
		OutputWriter:    cmd.OutOrStdout(),
		OutputPath:      outputPath,
		ConfigPath:      c.configFile,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return useCase.Execute(ctx, req)
}
