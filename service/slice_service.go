package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/analyzer"
	"github.com/ludo-technologies/pygather/internal/config"
	"github.com/ludo-technologies/pygather/internal/parser"
	"github.com/ludo-technologies/pygather/internal/version"
)

// SliceServiceImpl implements the SliceService interface
type SliceServiceImpl struct {
	fileReader domain.FileReader
	progress   domain.ProgressManager
	cache      domain.ResultCache
	logger     *log.Logger
	now        func() time.Time
}

// NewSliceService creates a new slice service
func NewSliceService() *SliceServiceImpl {
	return &SliceServiceImpl{
		fileReader: NewFileReader(),
		progress:   noopProgress{},
		now:        time.Now,
	}
}

// SetProgressManager reports per-file progress to pm
func (s *SliceServiceImpl) SetProgressManager(pm domain.ProgressManager) {
	if pm == nil {
		pm = noopProgress{}
	}
	s.progress = pm
}

// SetCache enables result caching
func (s *SliceServiceImpl) SetCache(cache domain.ResultCache) {
	s.cache = cache
}

// SetLogger sets the logger passed down to the analyzer
func (s *SliceServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// Slice slices every file of req.Paths concurrently. Per-file failures are
// reported in the file's Errors; when every file fails the first error is
// returned.
func (s *SliceServiceImpl) Slice(ctx context.Context, req domain.SliceRequest) (*domain.SliceResponse, error) {
	if len(req.Paths) == 0 {
		return nil, domain.NewInvalidInputError("no files to slice", nil)
	}
	opts, err := s.sliceOptions(req.AnalysisOptions)
	if err != nil {
		return nil, err
	}

	files := make([]domain.FileSlice, len(req.Paths))
	failures := make([]error, len(req.Paths))

	err = runPerFile(ctx, req.Paths, req.MaxWorkers, s.progress, func(ctx context.Context, p *parser.Parser, i int, path string) error {
		fs, err := s.sliceFile(ctx, p, path, req, opts)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures[i] = err
			files[i] = domain.FileSlice{FilePath: path, Errors: []string{err.Error()}}
			return nil
		}
		files[i] = *fs
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &domain.SliceResponse{
		Files:       files,
		GeneratedAt: domain.GeneratedAt(s.now()),
		Version:     version.Version,
	}
	for i := range files {
		f := &files[i]
		if f.HasErrors() {
			resp.Summary.FilesFailed++
			continue
		}
		resp.Summary.FilesAnalyzed++
		resp.Summary.Statements += len(f.Locations)
		resp.Summary.Lines += len(f.Lines)
		if len(f.Seeds) == 0 {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s: no statement on the requested lines", f.FilePath))
		}
	}

	if resp.Summary.FilesAnalyzed == 0 {
		return nil, failures[0]
	}
	return resp, nil
}

// SliceSource slices one in-memory file. The name's extension decides
// whether content is read as a notebook.
func (s *SliceServiceImpl) SliceSource(ctx context.Context, name string, content []byte, req domain.SliceRequest) (*domain.FileSlice, error) {
	opts, err := s.sliceOptions(req.AnalysisOptions)
	if err != nil {
		return nil, err
	}
	return s.sliceContent(ctx, parser.New(), name, content, req, opts)
}

func (s *SliceServiceImpl) sliceFile(ctx context.Context, p *parser.Parser, path string, req domain.SliceRequest, opts *analyzer.SliceOptions) (*domain.FileSlice, error) {
	content, err := s.fileReader.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.sliceContent(ctx, p, path, content, req, opts)
}

func (s *SliceServiceImpl) sliceContent(ctx context.Context, p *parser.Parser, path string, content []byte, req domain.SliceRequest, opts *analyzer.SliceOptions) (*domain.FileSlice, error) {
	key, keyErr := CacheKey(content, sliceCacheKey(path, req))
	if keyErr == nil && s.cache != nil {
		var cached domain.FileSlice
		if s.cache.Get(key, &cached) {
			cached.FilePath = path
			slicesTotal.WithLabelValues(statusOK).Inc()
			return &cached, nil
		}
	}

	start := time.Now()
	fs, err := s.compute(ctx, p, path, content, req, opts)
	sliceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		slicesTotal.WithLabelValues(statusError).Inc()
		return nil, err
	}
	slicesTotal.WithLabelValues(statusOK).Inc()

	if keyErr == nil && s.cache != nil {
		if err := s.cache.Put(key, fs); err != nil && s.logger != nil {
			s.logger.Printf("cache: %v", err)
		}
	}
	return fs, nil
}

func (s *SliceServiceImpl) compute(ctx context.Context, p *parser.Parser, path string, content []byte, req domain.SliceRequest, opts *analyzer.SliceOptions) (*domain.FileSlice, error) {
	unit, err := prepareUnit(path, content, opts)
	if err != nil {
		return nil, err
	}
	if unit.slicesCell(req.Lines, req.Cell) {
		return unit.sliceCell(ctx, p, req.Cell, req.CellLines)
	}
	lines, err := unit.programSeedLines(req.Lines, req.Cell, req.CellLines)
	if err != nil {
		return nil, err
	}

	deps, err := analyzeUnit(ctx, p, unit, opts)
	if err != nil {
		return nil, err
	}

	seeds := lineSeeds(lines)
	result, err := deps.Slice(ctx, seeds)
	if err != nil {
		return nil, err
	}
	return unit.fileSlice(deps.SeedStatements(seeds), result), nil
}

func (s *SliceServiceImpl) sliceOptions(opts domain.AnalysisOptions) (*analyzer.SliceOptions, error) {
	sliceOpts, err := config.SliceOptions(opts)
	if err != nil {
		return nil, domain.NewConfigError("invalid function rules", err)
	}
	sliceOpts.Logger = s.logger
	return sliceOpts, nil
}

// analyzeUnit parses a prepared unit and runs the dependency analyses
func analyzeUnit(ctx context.Context, p *parser.Parser, unit *analysisUnit, opts *analyzer.SliceOptions) (*analyzer.ProgramDependencies, error) {
	result, err := p.Parse(ctx, unit.code)
	if err != nil {
		return nil, domain.NewParseError(unit.path, err)
	}
	deps, err := analyzer.AnalyzeDependencies(result.AST, opts)
	if err != nil {
		return nil, domain.NewAnalysisError(fmt.Sprintf("dependency analysis failed for %s", unit.path), err)
	}
	return deps, nil
}

// sliceKey lists the request fields that change a file's slice
type sliceKey struct {
	Ext               string                `msgpack:"ext"`
	Lines             []int                 `msgpack:"lines"`
	Cell              int                   `msgpack:"cell"`
	CellLines         []int                 `msgpack:"cell_lines"`
	FunctionRules     []domain.FunctionRule `msgpack:"function_rules"`
	UseDefaultRules   bool                  `msgpack:"use_default_rules"`
	LinkLoopVariables bool                  `msgpack:"link_loop_variables"`
}

func sliceCacheKey(path string, req domain.SliceRequest) sliceKey {
	return sliceKey{
		Ext:               strings.ToLower(filepath.Ext(path)),
		Lines:             req.Lines,
		Cell:              req.Cell,
		CellLines:         req.CellLines,
		FunctionRules:     req.FunctionRules,
		UseDefaultRules:   req.UseDefaultRules,
		LinkLoopVariables: req.LinkLoopVariables,
	}
}

func workerCount(max int) int {
	if max <= 0 {
		return runtime.NumCPU()
	}
	return max
}
