package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ludo-technologies/pygather/internal/version"
	"github.com/ludo-technologies/pygather/service"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pygather",
		Short: "Program slicing for Python scripts and Jupyter notebooks",
		Long: `pygather finds the minimal set of statements that a line or a notebook cell
depends on. It builds a control flow graph of the program, computes data
dependencies by reaching definitions and control dependencies from
postdominators, and walks them backwards from the lines you select.

Notebook cells are replayed in execution order, so the slice of a cell
contains exactly the code that produced its result in the current kernel.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewSliceCmd())
	rootCmd.AddCommand(NewDepsCmd())
	rootCmd.AddCommand(NewCFGCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())
	return rootCmd
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}

// printError reports err with the category hints of the error categorizer
func printError(w io.Writer, err error) {
	categorized := service.NewErrorCategorizer().Categorize(err)
	fmt.Fprintf(w, "Error: %v\n", err)
	if categorized == nil || categorized.Category == service.ErrorCategoryUnknown && len(categorized.Suggestions) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", categorized.Message)
	for _, s := range categorized.Suggestions {
		fmt.Fprintf(w, "  • %s\n", s)
	}
}

// newLogger returns a stderr logger when --verbose is set, nil otherwise
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return nil
	}
	return log.New(cmd.ErrOrStderr(), "pygather: ", 0)
}
