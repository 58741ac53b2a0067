package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/analyzer"
	"github.com/ludo-technologies/pygather/internal/parser"
)

// CFGServiceImpl renders the module level control flow graph of files
type CFGServiceImpl struct {
	fileReader domain.FileReader
}

// NewCFGService creates a new CFG service
func NewCFGService() *CFGServiceImpl {
	return &CFGServiceImpl{fileReader: NewFileReader()}
}

// Render builds and renders one graph per file in text or DOT form
func (s *CFGServiceImpl) Render(ctx context.Context, req domain.CFGRequest) (*domain.CFGResponse, error) {
	if len(req.Paths) == 0 {
		return nil, domain.NewInvalidInputError("no files to render", nil)
	}
	switch req.OutputFormat {
	case "", domain.OutputFormatText, domain.OutputFormatDOT:
	default:
		return nil, domain.NewUnsupportedFormatError(string(req.OutputFormat))
	}

	files := make([]domain.FileCFG, len(req.Paths))
	err := runPerFile(ctx, req.Paths, 0, noopProgress{}, func(ctx context.Context, p *parser.Parser, i int, path string) error {
		files[i] = s.renderFile(ctx, p, path, req.OutputFormat)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &domain.CFGResponse{Files: files}, nil
}

func (s *CFGServiceImpl) renderFile(ctx context.Context, p *parser.Parser, path string, format domain.OutputFormat) domain.FileCFG {
	out := domain.FileCFG{FilePath: path}
	content, err := s.fileReader.ReadFile(path)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	unit, err := prepareUnit(path, content, nil)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	result, err := p.Parse(ctx, unit.code)
	if err != nil {
		out.Error = domain.NewParseError(path, err).Error()
		return out
	}
	cfg, err := analyzer.NewCFGBuilder().BuildModule(result.AST)
	if err != nil {
		out.Error = domain.NewAnalysisError(fmt.Sprintf("CFG construction failed for %s", path), err).Error()
		return out
	}

	out.Blocks = cfg.Size()
	if format == domain.OutputFormatDOT {
		out.Rendered = cfg.DOT()
	} else {
		out.Rendered = cfg.Text()
	}
	return out
}

// WriteCFG writes rendered graphs, each preceded by a comment naming its
// file
func WriteCFG(resp *domain.CFGResponse, w io.Writer) error {
	var b strings.Builder
	for _, f := range resp.Files {
		fmt.Fprintf(&b, "# %s\n", f.FilePath)
		if f.Error != "" {
			fmt.Fprintf(&b, "# error: %s\n", f.Error)
			continue
		}
		b.WriteString(f.Rendered)
		if !strings.HasSuffix(f.Rendered, "\n") {
			b.WriteString("\n")
		}
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return domain.NewOutputError("failed to write CFG", err)
	}
	return nil
}
