package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/pygather/domain"
)

type stubCFGService struct {
	lastReq domain.CFGRequest
}

func (s *stubCFGService) Render(ctx context.Context, req domain.CFGRequest) (*domain.CFGResponse, error) {
	s.lastReq = req
	files := make([]domain.FileCFG, 0, len(req.Paths))
	for _, p := range req.Paths {
		files = append(files, domain.FileCFG{FilePath: p, Rendered: "digraph cfg {\n}\n"})
	}
	return &domain.CFGResponse{Files: files}, nil
}

func TestCFGUseCase_Execute(t *testing.T) {
	service := &stubCFGService{}
	out := &mockReportWriter{}
	uc := NewCFGUseCase(service, &stubFileReader{files: []string{"a.py", "b.py"}}, out)

	var buf bytes.Buffer
	err := uc.Execute(context.Background(), domain.CFGRequest{Paths: []string{"."}, OutputFormat: domain.OutputFormatDOT, OutputWriter: &buf}, domain.AnalysisOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.py"}, service.lastReq.Paths)
	assert.Equal(t, "# a.py\ndigraph cfg {\n}\n# b.py\ndigraph cfg {\n}\n", buf.String())

	err = uc.Execute(context.Background(), domain.CFGRequest{}, domain.AnalysisOptions{})
	assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))
}
