package app

import (
	"context"
	"fmt"
	"io"

	"github.com/ludo-technologies/pygather/domain"
	svc "github.com/ludo-technologies/pygather/service"
)

// SliceUseCase orchestrates the slicing workflow
type SliceUseCase struct {
	service      domain.SliceService
	fileReader   domain.FileReader
	formatter    domain.SliceOutputFormatter
	output       domain.ReportWriter
	configLoader domain.ConfigurationLoader
}

// Execute slices the requested files and writes the formatted result
func (uc *SliceUseCase) Execute(ctx context.Context, req domain.SliceRequest) error {
	if _, err := uc.Run(ctx, req); err != nil {
		return err
	}
	return nil
}

// Run is Execute that also returns the response it wrote
func (uc *SliceUseCase) Run(ctx context.Context, req domain.SliceRequest) (*domain.SliceResponse, error) {
	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	opts, format, err := mergeProjectConfig(uc.configLoader, req.ConfigPath, req.Paths, req.AnalysisOptions, req.OutputFormat)
	if err != nil {
		return nil, passDomainError(err, func(err error) error {
			return domain.NewConfigError("failed to load configuration", err)
		})
	}
	req.AnalysisOptions = opts
	req.OutputFormat = format

	files, err := ResolveFilePaths(uc.fileReader, req.Paths, req.AnalysisOptions)
	if err != nil {
		return nil, passDomainError(err, func(err error) error {
			return domain.NewDomainError(domain.ErrCodeFileNotFound, "failed to collect files", err)
		})
	}
	if req.Cell > 0 && len(files) != 1 {
		return nil, domain.NewInvalidInputError("--cell needs exactly one notebook", nil)
	}
	req.Paths = files

	response, err := uc.service.Slice(ctx, req)
	if err != nil {
		return nil, passDomainError(err, func(err error) error {
			return domain.NewAnalysisError("slicing failed", err)
		})
	}

	var out io.Writer
	if req.OutputPath == "" {
		out = req.OutputWriter
	}
	if err := uc.output.Write(out, req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		return uc.formatter.Write(response, req.OutputFormat, w)
	}); err != nil {
		return nil, passDomainError(err, func(err error) error {
			return domain.NewOutputError("failed to write output", err)
		})
	}
	return response, nil
}

func (uc *SliceUseCase) validateRequest(req domain.SliceRequest) error {
	if len(req.Paths) == 0 {
		return fmt.Errorf("no input paths specified")
	}
	if req.OutputWriter == nil && req.OutputPath == "" {
		return fmt.Errorf("output writer or output path is required")
	}
	if req.Cell < 0 {
		return fmt.Errorf("cell execution count cannot be negative")
	}
	for _, l := range req.Lines {
		if l < 1 {
			return fmt.Errorf("line numbers start at 1, got %d", l)
		}
	}
	for _, l := range req.CellLines {
		if l < 0 {
			return fmt.Errorf("cell line numbers start at 0, got %d", l)
		}
	}
	if len(req.CellLines) > 0 && req.Cell == 0 {
		return fmt.Errorf("cell lines need a cell")
	}
	if req.OutputFormat != "" {
		if _, err := domain.ParseOutputFormat(string(req.OutputFormat)); err != nil {
			return err
		}
	}
	return nil
}

// SliceUseCaseBuilder provides a fluent builder for SliceUseCase
type SliceUseCaseBuilder struct {
	service      domain.SliceService
	fileReader   domain.FileReader
	formatter    domain.SliceOutputFormatter
	output       domain.ReportWriter
	configLoader domain.ConfigurationLoader
}

// NewSliceUseCaseBuilder creates a new builder
func NewSliceUseCaseBuilder() *SliceUseCaseBuilder { return &SliceUseCaseBuilder{} }

// WithService sets the slice service
func (b *SliceUseCaseBuilder) WithService(s domain.SliceService) *SliceUseCaseBuilder {
	b.service = s
	return b
}

// WithFileReader sets the file reader
func (b *SliceUseCaseBuilder) WithFileReader(fr domain.FileReader) *SliceUseCaseBuilder {
	b.fileReader = fr
	return b
}

// WithFormatter sets the output formatter
func (b *SliceUseCaseBuilder) WithFormatter(f domain.SliceOutputFormatter) *SliceUseCaseBuilder {
	b.formatter = f
	return b
}

// WithOutputWriter sets the report writer
func (b *SliceUseCaseBuilder) WithOutputWriter(w domain.ReportWriter) *SliceUseCaseBuilder {
	b.output = w
	return b
}

// WithConfigLoader sets the configuration loader; without one the request
// is used as given
func (b *SliceUseCaseBuilder) WithConfigLoader(l domain.ConfigurationLoader) *SliceUseCaseBuilder {
	b.configLoader = l
	return b
}

// Build creates the SliceUseCase
func (b *SliceUseCaseBuilder) Build() (*SliceUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("slice service is required")
	}
	if b.fileReader == nil {
		return nil, fmt.Errorf("file reader is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}
	uc := &SliceUseCase{
		service:      b.service,
		fileReader:   b.fileReader,
		formatter:    b.formatter,
		output:       b.output,
		configLoader: b.configLoader,
	}
	if uc.output == nil {
		uc.output = svc.NewFileOutputWriter(nil)
	}
	return uc, nil
}
