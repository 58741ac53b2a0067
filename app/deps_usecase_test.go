package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ludo-technologies/pygather/domain"
)

type mockDepService struct {
	resp    *domain.DependencyResponse
	err     error
	lastReq domain.DependencyRequest
}

func (m *mockDepService) Analyze(ctx context.Context, req domain.DependencyRequest) (*domain.DependencyResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

func (m *mockDepService) AnalyzeSource(ctx context.Context, name string, content []byte, req domain.DependencyRequest) (*domain.FileDependencies, error) {
	return nil, m.err
}

type mockDepsFormatter struct {
	called     bool
	lastFormat domain.OutputFormat
}

func (m *mockDepsFormatter) Write(resp *domain.DependencyResponse, format domain.OutputFormat, w io.Writer) error {
	m.called = true
	m.lastFormat = format
	if w != nil {
		_, _ = w.Write([]byte("ok"))
	}
	return nil
}

func TestDepsUseCase_Execute_Success(t *testing.T) {
	svc := &mockDepService{resp: &domain.DependencyResponse{Summary: domain.DependencySummary{FilesAnalyzed: 1}}}
	fr := &stubFileReader{files: []string{"a.py"}}
	f := &mockDepsFormatter{}
	out := &mockReportWriter{}

	uc, err := NewDepsUseCaseBuilder().
		WithService(svc).
		WithFileReader(fr).
		WithFormatter(f).
		WithOutputWriter(out).
		Build()
	if err != nil {
		t.Fatalf("build usecase: %v", err)
	}

	req := domain.DependencyRequest{Paths: []string{"."}, OutputWriter: &bytes.Buffer{}, OutputFormat: domain.OutputFormatCSV}
	if err := uc.Execute(context.Background(), req); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !out.called || !f.called {
		t.Fatalf("expected formatter and report writer to be called")
	}
	if f.lastFormat != domain.OutputFormatCSV {
		t.Fatalf("expected csv format, got %s", f.lastFormat)
	}
	if len(svc.lastReq.Paths) != 1 || svc.lastReq.Paths[0] != "a.py" {
		t.Fatalf("expected collected paths, got %v", svc.lastReq.Paths)
	}
}

func TestDepsUseCase_Execute_InvalidRequest_NoPaths(t *testing.T) {
	uc := NewDepsUseCase(&mockDepService{}, &stubFileReader{}, &mockDepsFormatter{})
	err := uc.Execute(context.Background(), domain.DependencyRequest{Paths: []string{}, OutputWriter: &bytes.Buffer{}})
	if err == nil {
		t.Fatalf("expected error for empty paths")
	}
}

func TestDepsUseCase_Execute_FileReaderError(t *testing.T) {
	fr := &stubFileReader{err: errors.New("collect failed")}
	uc := NewDepsUseCase(&mockDepService{}, fr, &mockDepsFormatter{})
	err := uc.Execute(context.Background(), domain.DependencyRequest{Paths: []string{"."}, OutputWriter: &bytes.Buffer{}})
	if domain.ErrorCode(err) != domain.ErrCodeFileNotFound {
		t.Fatalf("expected file not found error, got %v", err)
	}
}

func TestDepsUseCase_Execute_ServiceError(t *testing.T) {
	svc := &mockDepService{err: errors.New("boom")}
	uc := NewDepsUseCase(svc, &stubFileReader{files: []string{"a.py"}}, &mockDepsFormatter{})
	err := uc.Execute(context.Background(), domain.DependencyRequest{Paths: []string{"."}, OutputWriter: &bytes.Buffer{}})
	if domain.ErrorCode(err) != domain.ErrCodeAnalysisError {
		t.Fatalf("expected analysis error, got %v", err)
	}
}

func TestDepsUseCaseBuilder_MissingDependencies(t *testing.T) {
	if _, err := NewDepsUseCaseBuilder().WithService(&mockDepService{}).Build(); err == nil {
		t.Fatalf("expected error for missing dependencies")
	}
}
