package main

import (
	"context"

	"github.com/ludo-technologies/pygather/app"
	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/config"
	"github.com/ludo-technologies/pygather/service"
	"github.com/spf13/cobra"
)

// SliceCommand represents the slice command
type SliceCommand struct {
	analysisFlags

	lines     []int
	cell      int
	cellLines []int
}

// NewSliceCommand creates a new slice command
func NewSliceCommand() *SliceCommand {
	return &SliceCommand{}
}

// CreateCobraCommand creates the cobra command for slicing
func (c *SliceCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slice [flags] <paths...>",
		Short: "Extract the statements a line or notebook cell depends on",
		Long: `Compute a backward program slice: the statements that can affect the
selected lines, through data flow or control flow.

For a notebook, --cell picks a cell by execution count (the number in its
In [n] prompt). Without --cell-line the whole cell is sliced. Cells that
never ran are ignored, and a later run of a cell replaces nothing that ran
before it.

Examples:
  # Everything line 12 of train.py depends on
  pygather slice --line 12 train.py

  # Code needed to reproduce cell [7] of a notebook
  pygather slice --cell 7 analysis.ipynb

  # Only the second line of that cell, as JSON
  pygather slice --cell 7 --cell-line 1 --json analysis.ipynb

  # Use your own function rules
  pygather slice --rules rules.toml --line 30 pipeline.py`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.runSlice,
	}

	c.register(cmd.Flags())
	cmd.Flags().IntSliceVarP(&c.lines, "line", "l", nil, "1-based program line to slice from (repeatable)")
	cmd.Flags().IntVar(&c.cell, "cell", 0, "Notebook cell to slice, by execution count")
	cmd.Flags().IntSliceVar(&c.cellLines, "cell-line", nil, "0-based line within --cell (repeatable)")

	return cmd
}

// runSlice executes the slice command
func (c *SliceCommand) runSlice(cmd *cobra.Command, args []string) error {
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
	outputPath, err := c.outputPath("slice", ext, format, cfg)
	if err != nil {
		return err
	}

	sliceService := service.NewSliceService()
	progress := service.NewProgressManager()
	progress.SetWriter(cmd.ErrOrStderr())
	sliceService.SetProgressManager(progress)
	if logger := newLogger(cmd); logger != nil {
		sliceService.SetLogger(logger)
	}
	cache := openCache(cfg, cmd.ErrOrStderr())
	if cache != nil {
		sliceService.SetCache(cache)
	}

	useCase, err := app.NewSliceUseCaseBuilder().
		WithService(sliceService).
		WithFileReader(service.NewFileReader()).
		WithFormatter(service.NewSliceFormatter()).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		WithConfigLoader(service.NewConfigurationLoader(config.TrackFlagSet(cmd.Flags()))).
		Build()
	if err != nil {
		return err
	}

	req := domain.SliceRequest{
		Paths:           paths,
		AnalysisOptions: opts,
		Lines:           c.lines,
		Cell:            c.cell,
		CellLines:       c.cellLines,
		OutputFormat:    format,
		OutputWriter:    cmd.OutOrStdout(),
		OutputPath:      outputPath,
		ConfigPath:      c.configFile,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	err = useCase.Execute(ctx, req)
	persistCache(cache, cfg, cmd.ErrOrStderr())
	return err
}

// NewSliceCmd creates and returns the slice cobra command
func NewSliceCmd() *cobra.Command {
	return NewSliceCommand().CreateCobraCommand()
}
