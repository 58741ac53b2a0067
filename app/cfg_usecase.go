package app

import (
	"context"
	"fmt"
	"io"

	"github.com/ludo-technologies/pygather/domain"
	svc "github.com/ludo-technologies/pygather/service"
)

// CFGUseCase renders control flow graphs of the requested files
type CFGUseCase struct {
	service    domain.CFGService
	fileReader domain.FileReader
	output     domain.ReportWriter
}

// NewCFGUseCase creates a CFG use case; a nil output writes to stdout or
// files through a FileOutputWriter
func NewCFGUseCase(service domain.CFGService, fileReader domain.FileReader, output domain.ReportWriter) *CFGUseCase {
	if output == nil {
		output = svc.NewFileOutputWriter(nil)
	}
	return &CFGUseCase{service: service, fileReader: fileReader, output: output}
}

// Execute renders every file and writes the graphs in path order
func (uc *CFGUseCase) Execute(ctx context.Context, req domain.CFGRequest, opts domain.AnalysisOptions) error {
	if len(req.Paths) == 0 {
		return domain.NewInvalidInputError("invalid request", fmt.Errorf("no input paths specified"))
	}
	files, err := ResolveFilePaths(uc.fileReader, req.Paths, opts)
	if err != nil {
		return passDomainError(err, func(err error) error {
			return domain.NewDomainError(domain.ErrCodeFileNotFound, "failed to collect files", err)
		})
	}
	req.Paths = files

	resp, err := uc.service.Render(ctx, req)
	if err != nil {
		return err
	}

	var out io.Writer
	if req.OutputPath == "" {
		out = req.OutputWriter
	}
	format := req.OutputFormat
	if format == "" {
		format = domain.OutputFormatText
	}
	return uc.output.Write(out, req.OutputPath, format, func(w io.Writer) error {
		return svc.WriteCFG(resp, w)
	})
}
