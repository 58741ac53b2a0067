package main

import (
	"context"

	"github.com/ludo-technologies/pygather/app"
	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/service"
	"github.com/spf13/cobra"
)

// CFGCommand prints control flow graphs
type CFGCommand struct {
	dot        bool
	output     string
	configFile string
}

func NewCFGCmd() *cobra.Command {
	c := &CFGCommand{}

	cmd := &cobra.Command{
		Use:   "cfg [paths...]",
		Short: "Print the control flow graph of each file",
		Long: `Print the basic blocks of each file and the edges between them. Notebooks
are shown as the program their executed cells form.

Examples:
  pygather cfg script.py
  pygather cfg --dot script.py | dot -Tsvg > cfg.svg`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.run,
	}

	cmd.Flags().BoolVar(&c.dot, "dot", false, "Output a Graphviz DOT graph")
	cmd.Flags().StringVarP(&c.output, "output", "o", "", "Write the graph to this file instead of stdout")
	cmd.Flags().StringVarP(&c.configFile, "config", "c", "", "Configuration file path")
	return cmd
}

func (c *CFGCommand) run(cmd *cobra.Command, args []string) error {
	paths, err := expandAndValidatePaths(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c.configFile, paths[0])
	if err != nil {
		return err
	}

	format := domain.OutputFormatText
	if c.dot {
		format = domain.OutputFormatDOT
	}
	req := domain.CFGRequest{
		Paths:        paths,
		OutputFormat: format,
		OutputWriter: cmd.OutOrStdout(),
		OutputPath:   c.output,
	}

	useCase := app.NewCFGUseCase(service.NewCFGService(), service.NewFileReader(), service.NewFileOutputWriter(cmd.ErrOrStderr()))
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return useCase.Execute(ctx, req, cfg.ToProjectConfig().Options)
}
