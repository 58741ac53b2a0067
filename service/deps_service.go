package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/analyzer"
	"github.com/ludo-technologies/pygather/internal/config"
	"github.com/ludo-technologies/pygather/internal/parser"
	"github.com/ludo-technologies/pygather/internal/version"
)

// DependencyServiceImpl reports the statement-level data and control
// dependencies of Python files and notebooks
type DependencyServiceImpl struct {
	fileReader domain.FileReader
	progress   domain.ProgressManager
	logger     *log.Logger
	now        func() time.Time
}

// NewDependencyService creates a new dependency analysis service
func NewDependencyService() *DependencyServiceImpl {
	return &DependencyServiceImpl{
		fileReader: NewFileReader(),
		progress:   noopProgress{},
		now:        time.Now,
	}
}

// SetProgressManager reports per-file progress to pm
func (s *DependencyServiceImpl) SetProgressManager(pm domain.ProgressManager) {
	if pm == nil {
		pm = noopProgress{}
	}
	s.progress = pm
}

// SetLogger sets the logger passed down to the analyzer
func (s *DependencyServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// Analyze computes the dependency edges of every file in req.Paths
func (s *DependencyServiceImpl) Analyze(ctx context.Context, req domain.DependencyRequest) (*domain.DependencyResponse, error) {
	if len(req.Paths) == 0 {
		return nil, domain.NewInvalidInputError("no files to analyze", nil)
	}
	opts, err := s.sliceOptions(req.AnalysisOptions)
	if err != nil {
		return nil, err
	}

	files := make([]domain.FileDependencies, len(req.Paths))
	failures := make([]error, len(req.Paths))
	err = runPerFile(ctx, req.Paths, req.MaxWorkers, s.progress, func(ctx context.Context, p *parser.Parser, i int, path string) error {
		content, err := s.fileReader.ReadFile(path)
		if err == nil {
			var fd *domain.FileDependencies
			if fd, err = s.analyzeContent(ctx, p, path, content, opts); err == nil {
				files[i] = *fd
				return nil
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		failures[i] = err
		files[i] = domain.FileDependencies{FilePath: path, Errors: []string{err.Error()}}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &domain.DependencyResponse{
		Files:       files,
		GeneratedAt: domain.GeneratedAt(s.now()),
		Version:     version.Version,
	}
	for _, f := range files {
		if len(f.Errors) > 0 {
			resp.Summary.FilesFailed++
			continue
		}
		resp.Summary.FilesAnalyzed++
		for _, e := range f.Edges {
			if e.Kind == domain.DependencyKindData {
				resp.Summary.DataEdges++
			} else {
				resp.Summary.ControlEdges++
			}
		}
		if f.Statements == 0 {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s: no statements", f.FilePath))
		}
	}

	if resp.Summary.FilesAnalyzed == 0 {
		return nil, failures[0]
	}
	return resp, nil
}

// AnalyzeSource analyzes one in-memory file
func (s *DependencyServiceImpl) AnalyzeSource(ctx context.Context, name string, content []byte, req domain.DependencyRequest) (*domain.FileDependencies, error) {
	opts, err := s.sliceOptions(req.AnalysisOptions)
	if err != nil {
		return nil, err
	}
	return s.analyzeContent(ctx, parser.New(), name, content, opts)
}

func (s *DependencyServiceImpl) analyzeContent(ctx context.Context, p *parser.Parser, path string, content []byte, opts *analyzer.SliceOptions) (*domain.FileDependencies, error) {
	unit, err := prepareUnit(path, content, opts)
	if err != nil {
		return nil, err
	}
	deps, err := analyzeUnit(ctx, p, unit, opts)
	if err != nil {
		return nil, err
	}

	fd := &domain.FileDependencies{
		FilePath:   path,
		Statements: len(deps.Statements()),
		Edges:      []domain.DependencyEdge{},
	}
	for _, dep := range deps.All().Items() {
		kind := domain.DependencyKindData
		if dep.Kind == analyzer.DependencyControl {
			kind = domain.DependencyKindControl
		}
		fd.Edges = append(fd.Edges, domain.DependencyEdge{
			Kind:     kind,
			From:     toLocationDTO(dep.From.Location),
			To:       toLocationDTO(dep.To.Location),
			FromText: unit.statementText(dep.From),
			ToText:   unit.statementText(dep.To),
		})
		dependencyEdgesTotal.WithLabelValues(string(kind)).Inc()
	}
	return fd, nil
}

func (s *DependencyServiceImpl) sliceOptions(opts domain.AnalysisOptions) (*analyzer.SliceOptions, error) {
	sliceOpts, err := config.SliceOptions(opts)
	if err != nil {
		return nil, domain.NewConfigError("invalid function rules", err)
	}
	sliceOpts.Logger = s.logger
	return sliceOpts, nil
}
