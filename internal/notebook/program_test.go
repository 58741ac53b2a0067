package notebook

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codeCell(id string, count int, source string) Cell {
	return Cell{ID: id, ExecutionCount: count, Source: source}
}

func TestProgramBuilder(t *testing.T) {
	t.Run("ExecutionOrder", func(t *testing.T) {
		b := NewProgramBuilder()
		b.Add(codeCell("id1", 2, "print(1)"))
		b.Add(codeCell("id2", 1, "print(2)"))
		program, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, "print(2)\nprint(1)\n", program.Code)
	})

	t.Run("StopsAtTargetCell", func(t *testing.T) {
		b := NewProgramBuilder()
		b.Add(codeCell("id1", 2, "print(1)"), codeCell("id2", 1, "print(2)"))
		program, err := b.BuildTo("id2", 0)
		require.NoError(t, err)
		assert.Equal(t, "print(2)\n", program.Code)
	})

	t.Run("LatestVersionOfCell", func(t *testing.T) {
		b := NewProgramBuilder()
		b.Add(codeCell("id1", 1, "print(1)"), codeCell("id2", 2, "print(2)"), codeCell("id1", 3, "print(3)"))
		program, err := b.BuildTo("id1", 0)
		require.NoError(t, err)
		assert.Equal(t, "print(1)\nprint(2)\nprint(3)\n", program.Code)
	})

	t.Run("EarlierVersionOfCell", func(t *testing.T) {
		b := NewProgramBuilder()
		b.Add(codeCell("id1", 1, "print(1)"), codeCell("id2", 2, "print(2)"), codeCell("id1", 3, "print(3)"))
		program, err := b.BuildTo("id1", 1)
		require.NoError(t, err)
		assert.Equal(t, "print(1)\n", program.Code)
	})

	t.Run("SkipsCellsWithErrors", func(t *testing.T) {
		b := NewProgramBuilder()
		bad := codeCell("idE", 2, "print(bad_name)")
		bad.HasError = true
		b.Add(codeCell("id1", 1, "print(1)"), bad, codeCell("id3", 3, "print(3)"))
		program, err := b.BuildTo("id3", 0)
		require.NoError(t, err)
		assert.Equal(t, "print(1)\nprint(3)\n", program.Code)
	})

	t.Run("TargetMayHaveError", func(t *testing.T) {
		b := NewProgramBuilder()
		bad := codeCell("idE", 2, "print(bad_name)")
		bad.HasError = true
		b.Add(codeCell("id1", 1, "print(1)"), bad)
		program, err := b.BuildTo("idE", 0)
		require.NoError(t, err)
		assert.Equal(t, "print(1)\nprint(bad_name)\n", program.Code)
	})

	t.Run("DropsUnparseableCells", func(t *testing.T) {
		var buf bytes.Buffer
		b := NewProgramBuilder()
		b.SetLogger(log.New(&buf, "", 0))
		b.Add(codeCell("ok", 1, "a = 1"), codeCell("broken", 2, "def ("))
		assert.Len(t, b.Cells(), 1)
		assert.Contains(t, buf.String(), "dropping cell broken")
	})

	t.Run("SkipsUnexecutedCells", func(t *testing.T) {
		b := NewProgramBuilder()
		b.Add(codeCell("id1", 1, "a = 1"), codeCell("never", 0, "b = 2"))
		program, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, "a = 1\n", program.Code)
	})

	t.Run("LineMaps", func(t *testing.T) {
		b := NewProgramBuilder()
		b.Add(codeCell("a", 1, "x = 1\ny = 2"), codeCell("b", 2, "%time z = x"))
		program, err := b.Build()
		require.NoError(t, err)

		assert.Equal(t, "x = 1\ny = 2\n\"  \"; z = x\n", program.Code)
		assert.Equal(t, []int{1, 2}, program.CellToLines[CellVersion{ID: "a", ExecutionCount: 1}])
		assert.Equal(t, []int{3}, program.CellToLines[CellVersion{ID: "b", ExecutionCount: 2}])
		assert.Equal(t, "b", program.LineToCell[3].ID)
		assert.Equal(t, 3, program.FirstLine(CellVersion{ID: "b", ExecutionCount: 2}))
		assert.Len(t, program.Cells, 2)
	})

	t.Run("UnknownCell", func(t *testing.T) {
		b := NewProgramBuilder()
		b.Add(codeCell("id1", 1, "a = 1"))
		_, err := b.BuildTo("nope", 0)
		assert.ErrorIs(t, err, ErrCellNotFound)
		_, err = b.BuildTo("id1", 7)
		assert.ErrorIs(t, err, ErrCellNotFound)
	})

	t.Run("NothingExecuted", func(t *testing.T) {
		_, err := NewProgramBuilder().Build()
		assert.ErrorIs(t, err, ErrCellNotFound)
	})
}
