package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/pygather/domain"
)

const simpleSource = "a = 1\nb = 2\nc = a + 1\nprint(c)\n"

// testNotebook runs setup, other and use in that order; draft was never
// executed
const testNotebook = `{
  "nbformat": 4,
  "nbformat_minor": 5,
  "metadata": {},
  "cells": [
    {"cell_type": "markdown", "id": "title", "source": "# Analysis"},
    {"cell_type": "code", "id": "setup", "execution_count": 1,
     "source": ["x = 1\n", "%matplotlib inline"], "outputs": []},
    {"cell_type": "code", "id": "other", "execution_count": 2, "source": "y = 2", "outputs": []},
    {"cell_type": "code", "id": "use", "execution_count": 3,
     "source": ["z = x + 1\n", "print(z)"], "outputs": []},
    {"cell_type": "code", "id": "draft", "execution_count": null, "source": "w = y", "outputs": []}
  ]
}`

func defaultOptions() domain.AnalysisOptions {
	return domain.AnalysisOptions{UseDefaultRules: true, MaxWorkers: 2}
}

func newTestSliceService() *SliceServiceImpl {
	s := NewSliceService()
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func TestSliceService_PythonFile(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "simple.py", simpleSource)
	svc := newTestSliceService()

	t.Run("SlicesFromLine", func(t *testing.T) {
		resp, err := svc.Slice(context.Background(), domain.SliceRequest{
			Paths:           []string{path},
			AnalysisOptions: defaultOptions(),
			Lines:           []int{4},
		})
		require.NoError(t, err)
		require.Len(t, resp.Files, 1)

		file := resp.Files[0]
		assert.Equal(t, path, file.FilePath)
		assert.Equal(t, []int{1, 3, 4}, file.Lines)
		assert.Equal(t, "a = 1\nc = a + 1\nprint(c)\n", file.Code)
		require.Len(t, file.Seeds, 1)
		assert.Equal(t, 4, file.Seeds[0].StartLine)
		assert.Empty(t, file.Cells)

		assert.Equal(t, 1, resp.Summary.FilesAnalyzed)
		assert.Equal(t, 3, resp.Summary.Statements)
		assert.Equal(t, 3, resp.Summary.Lines)
		assert.Equal(t, "2026-01-02T03:04:05Z", resp.GeneratedAt)
	})

	t.Run("DuplicateLinesAreMerged", func(t *testing.T) {
		resp, err := svc.Slice(context.Background(), domain.SliceRequest{
			Paths:           []string{path},
			AnalysisOptions: defaultOptions(),
			Lines:           []int{3, 1, 3},
		})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3}, resp.Files[0].Lines)
	})

	t.Run("LineOutOfRange", func(t *testing.T) {
		_, err := svc.Slice(context.Background(), domain.SliceRequest{
			Paths:           []string{path},
			AnalysisOptions: defaultOptions(),
			Lines:           []int{40},
		})
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))
	})

	t.Run("NoLines", func(t *testing.T) {
		_, err := svc.Slice(context.Background(), domain.SliceRequest{Paths: []string{path}, AnalysisOptions: defaultOptions()})
		assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))
	})

	t.Run("CellOnPythonFile", func(t *testing.T) {
		_, err := svc.Slice(context.Background(), domain.SliceRequest{
			Paths:           []string{path},
			AnalysisOptions: defaultOptions(),
			Cell:            1,
		})
		assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))
	})

	t.Run("BlankLineWarns", func(t *testing.T) {
		blank := createTestFile(t, dir, "blank.py", "a = 1\n\nb = a\n")
		resp, err := svc.Slice(context.Background(), domain.SliceRequest{
			Paths:           []string{blank},
			AnalysisOptions: defaultOptions(),
			Lines:           []int{2},
		})
		require.NoError(t, err)
		assert.Empty(t, resp.Files[0].Lines)
		require.Len(t, resp.Warnings, 1)
		assert.Contains(t, resp.Warnings[0], "no statement")
	})

	t.Run("NoPaths", func(t *testing.T) {
		_, err := svc.Slice(context.Background(), domain.SliceRequest{Lines: []int{1}})
		assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))
	})

	t.Run("InvalidRule", func(t *testing.T) {
		opts := defaultOptions()
		opts.FunctionRules = []domain.FunctionRule{{Function: "f", InstanceEffect: "SOMETIMES"}}
		_, err := svc.Slice(context.Background(), domain.SliceRequest{Paths: []string{path}, AnalysisOptions: opts, Lines: []int{1}})
		assert.Equal(t, domain.ErrCodeConfigError, domain.ErrorCode(err))
	})
}

func TestSliceService_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	good := createTestFile(t, dir, "good.py", simpleSource)
	bad := createTestFile(t, dir, "bad.py", "def broken(:\n")
	svc := newTestSliceService()

	t.Run("FailuresAreReportedPerFile", func(t *testing.T) {
		resp, err := svc.Slice(context.Background(), domain.SliceRequest{
			Paths:           []string{bad, good},
			AnalysisOptions: defaultOptions(),
			Lines:           []int{1},
		})
		require.NoError(t, err)
		require.Len(t, resp.Files, 2)
		assert.Equal(t, bad, resp.Files[0].FilePath, "results keep input order")
		assert.True(t, resp.Files[0].HasErrors())
		assert.Contains(t, resp.Files[0].Errors[0], "PARSE_ERROR")
		assert.Equal(t, []int{1}, resp.Files[1].Lines)
		assert.Equal(t, 1, resp.Summary.FilesAnalyzed)
		assert.Equal(t, 1, resp.Summary.FilesFailed)
	})

	t.Run("AllFailedReturnsFirstError", func(t *testing.T) {
		_, err := svc.Slice(context.Background(), domain.SliceRequest{
			Paths:           []string{bad, filepath.Join(dir, "missing.py")},
			AnalysisOptions: defaultOptions(),
			Lines:           []int{1},
		})
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeParseError, domain.ErrorCode(err))
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.Slice(ctx, domain.SliceRequest{
			Paths:           []string{good},
			AnalysisOptions: defaultOptions(),
			Lines:           []int{1},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSliceService_Notebook(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "analysis.ipynb", testNotebook)
	svc := newTestSliceService()

	slice := func(t *testing.T, req domain.SliceRequest) domain.FileSlice {
		t.Helper()
		req.Paths = []string{path}
		req.AnalysisOptions = defaultOptions()
		resp, err := svc.Slice(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, resp.Files, 1)
		return resp.Files[0]
	}

	t.Run("WholeCell", func(t *testing.T) {
		file := slice(t, domain.SliceRequest{Cell: 3})
		assert.Equal(t, []int{1, 4, 5}, file.Lines)
		assert.Equal(t, "x = 1\nz = x + 1\nprint(z)\n", file.Code)
		require.Len(t, file.Cells, 2)

		assert.Equal(t, "setup", file.Cells[0].CellID)
		assert.Equal(t, 1, file.Cells[0].ExecutionCount)
		assert.Equal(t, []int{0}, file.Cells[0].Lines)
		assert.Equal(t, "x = 1\n", file.Cells[0].Code)

		assert.Equal(t, "use", file.Cells[1].CellID)
		assert.Equal(t, []int{0, 1}, file.Cells[1].Lines)
		assert.Equal(t, "z = x + 1\nprint(z)\n", file.Cells[1].Code)
	})

	t.Run("CellLine", func(t *testing.T) {
		file := slice(t, domain.SliceRequest{Cell: 3, CellLines: []int{0}})
		assert.Equal(t, []int{1, 4}, file.Lines)
	})

	t.Run("DefaultsToLatestCell", func(t *testing.T) {
		file := slice(t, domain.SliceRequest{})
		assert.Equal(t, []int{1, 4, 5}, file.Lines)
	})

	t.Run("EarlierCellStopsProgram", func(t *testing.T) {
		file := slice(t, domain.SliceRequest{Cell: 1})
		assert.Equal(t, []int{1}, file.Lines, "the magic line holds no statement")
		require.Len(t, file.Cells, 1)
		assert.Equal(t, "setup", file.Cells[0].CellID)
	})

	t.Run("ProgramLines", func(t *testing.T) {
		file := slice(t, domain.SliceRequest{Lines: []int{3}})
		assert.Equal(t, []int{3}, file.Lines)
		require.Len(t, file.Cells, 1)
		assert.Equal(t, "other", file.Cells[0].CellID)
	})

	t.Run("UnknownCell", func(t *testing.T) {
		_, err := svc.Slice(context.Background(), domain.SliceRequest{Paths: []string{path}, AnalysisOptions: defaultOptions(), Cell: 9})
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeCellNotFound, domain.ErrorCode(err))
	})

	t.Run("CellLineOutOfRange", func(t *testing.T) {
		_, err := svc.Slice(context.Background(), domain.SliceRequest{Paths: []string{path}, AnalysisOptions: defaultOptions(), Cell: 3, CellLines: []int{2}})
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))
	})

	t.Run("InvalidNotebook", func(t *testing.T) {
		broken := createTestFile(t, dir, "broken.ipynb", "{not json")
		_, err := svc.Slice(context.Background(), domain.SliceRequest{Paths: []string{broken}, AnalysisOptions: defaultOptions()})
		assert.Equal(t, domain.ErrCodeParseError, domain.ErrorCode(err))
	})

	t.Run("NothingExecuted", func(t *testing.T) {
		fresh := createTestFile(t, dir, "fresh.ipynb", `{"nbformat": 4, "cells": [{"cell_type": "code", "source": "a = 1", "outputs": []}]}`)
		_, err := svc.Slice(context.Background(), domain.SliceRequest{Paths: []string{fresh}, AnalysisOptions: defaultOptions()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no executed cells")
	})
}

// unparsableNotebook's latest cell does not parse
const unparsableNotebook = `{
  "nbformat": 4,
  "cells": [
    {"cell_type": "code", "id": "a", "execution_count": 1, "source": "x = 1", "outputs": []},
    {"cell_type": "code", "id": "b", "execution_count": 2, "source": "y = x", "outputs": []},
    {"cell_type": "code", "id": "c", "execution_count": 3, "source": "z = (", "outputs": []}
  ]
}`

func TestSliceService_UnparsableCell(t *testing.T) {
	svc := newTestSliceService()
	ctx := context.Background()

	t.Run("LatestCellIsParseError", func(t *testing.T) {
		file, err := svc.SliceSource(ctx, "broken.ipynb", []byte(unparsableNotebook), domain.SliceRequest{
			AnalysisOptions: defaultOptions(),
		})
		require.Error(t, err)
		assert.Nil(t, file)
		assert.Equal(t, domain.ErrCodeParseError, domain.ErrorCode(err))
	})

	t.Run("SelectedCellIsParseError", func(t *testing.T) {
		_, err := svc.SliceSource(ctx, "broken.ipynb", []byte(unparsableNotebook), domain.SliceRequest{
			AnalysisOptions: defaultOptions(),
			Cell:            3,
		})
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeParseError, domain.ErrorCode(err))
	})

	t.Run("EarlierCellStillSlices", func(t *testing.T) {
		file, err := svc.SliceSource(ctx, "broken.ipynb", []byte(unparsableNotebook), domain.SliceRequest{
			AnalysisOptions: defaultOptions(),
			Cell:            2,
		})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, file.Lines)
		require.Len(t, file.Cells, 2)
		assert.Equal(t, "b", file.Cells[1].CellID)
	})

	t.Run("ProgramLinesSkipDroppedCell", func(t *testing.T) {
		file, err := svc.SliceSource(ctx, "broken.ipynb", []byte(unparsableNotebook), domain.SliceRequest{
			AnalysisOptions: defaultOptions(),
			Lines:           []int{2},
		})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, file.Lines)
	})
}

func TestSliceService_SliceSource(t *testing.T) {
	svc := newTestSliceService()

	file, err := svc.SliceSource(context.Background(), "snippet.py", []byte(simpleSource), domain.SliceRequest{
		AnalysisOptions: defaultOptions(),
		Lines:           []int{3},
	})
	require.NoError(t, err)
	assert.Equal(t, "snippet.py", file.FilePath)
	assert.Equal(t, []int{1, 3}, file.Lines)

	nb, err := svc.SliceSource(context.Background(), "inline.ipynb", []byte(testNotebook), domain.SliceRequest{
		AnalysisOptions: defaultOptions(),
		Cell:            3,
	})
	require.NoError(t, err)
	assert.Len(t, nb.Cells, 2)
}

func TestSliceService_Cache(t *testing.T) {
	dir := t.TempDir()
	first := createTestFile(t, dir, "first.py", simpleSource)
	second := createTestFile(t, dir, "second.py", simpleSource)

	cache := NewResultCache(8)
	svc := newTestSliceService()
	svc.SetCache(cache)

	req := domain.SliceRequest{AnalysisOptions: defaultOptions(), Lines: []int{4}}
	req.Paths = []string{first}
	_, err := svc.Slice(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	req.Paths = []string{second}
	resp, err := svc.Slice(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len(), "same content and options share an entry")
	assert.Equal(t, second, resp.Files[0].FilePath)
	assert.Equal(t, []int{1, 3, 4}, resp.Files[0].Lines)

	hits, _ := cache.Stats()
	assert.Equal(t, 1, hits)

	req.Lines = []int{3}
	_, err = svc.Slice(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
}

type countingProgress struct {
	noopProgress
	initialized int
	increments  int
	completed   bool
}

func (p *countingProgress) Initialize(n int) { p.initialized = n }
func (p *countingProgress) Increment()       { p.increments++ }
func (p *countingProgress) Complete(bool)    { p.completed = true }

func TestSliceService_Progress(t *testing.T) {
	dir := t.TempDir()
	a := createTestFile(t, dir, "a.py", simpleSource)
	b := createTestFile(t, dir, "b.py", simpleSource)

	progress := &countingProgress{}
	svc := newTestSliceService()
	svc.SetProgressManager(progress)

	opts := defaultOptions()
	opts.MaxWorkers = 1 // countingProgress is not safe for concurrent use
	_, err := svc.Slice(context.Background(), domain.SliceRequest{Paths: []string{a, b}, AnalysisOptions: opts, Lines: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, 2, progress.initialized)
	assert.Equal(t, 2, progress.increments)
	assert.True(t, progress.completed)
}
