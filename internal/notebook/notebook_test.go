package notebook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNotebook = `{
  "nbformat": 4,
  "nbformat_minor": 5,
  "metadata": {},
  "cells": [
    {"cell_type": "markdown", "id": "md", "source": "# Title"},
    {"cell_type": "code", "id": "load", "execution_count": 1,
     "source": ["import pandas as pd\n", "df = pd.read_csv('data.csv')\n"], "outputs": []},
    {"cell_type": "code", "id": "bad", "execution_count": 2,
     "source": "print(missing)", "outputs": [{"output_type": "error", "ename": "NameError"}]},
    {"cell_type": "code", "execution_count": null, "source": "x = 1", "outputs": []}
  ]
}`

func TestParse(t *testing.T) {
	nb, err := Parse([]byte(sampleNotebook))
	require.NoError(t, err)

	t.Run("KeepsCodeCells", func(t *testing.T) {
		require.Len(t, nb.Cells, 3)
		assert.Equal(t, 4, nb.NBFormat)
	})

	t.Run("JoinsSourceLines", func(t *testing.T) {
		cell := nb.Cells[0]
		assert.Equal(t, "load", cell.ID)
		assert.Equal(t, 1, cell.ExecutionCount)
		assert.Equal(t, "import pandas as pd\ndf = pd.read_csv('data.csv')", cell.Source)
		assert.Equal(t, 2, cell.LineCount())
	})

	t.Run("ErrorOutputs", func(t *testing.T) {
		assert.True(t, nb.Cells[1].HasError)
		assert.False(t, nb.Cells[0].HasError)
	})

	t.Run("UnexecutedCell", func(t *testing.T) {
		cell := nb.Cells[2]
		assert.False(t, cell.Executed())
		assert.Equal(t, "cell-3", cell.ID)
	})

	t.Run("Lookup", func(t *testing.T) {
		cell, ok := nb.CellByExecution(2)
		require.True(t, ok)
		assert.Equal(t, "bad", cell.ID)
		_, ok = nb.CellByExecution(9)
		assert.False(t, ok)

		latest, ok := nb.Latest()
		require.True(t, ok)
		assert.Equal(t, 2, latest.ExecutionCount)
	})
}

func TestParseErrors(t *testing.T) {
	t.Run("InvalidJSON", func(t *testing.T) {
		_, err := Parse([]byte("{"))
		assert.Error(t, err)
	})

	t.Run("OldFormat", func(t *testing.T) {
		_, err := Parse([]byte(`{"nbformat": 3, "cells": []}`))
		assert.Error(t, err)
	})

	t.Run("BadSource", func(t *testing.T) {
		_, err := Parse([]byte(`{"nbformat": 4, "cells": [{"cell_type": "code", "source": 5}]}`))
		assert.Error(t, err)
	})
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "analysis.ipynb")
	require.NoError(t, os.WriteFile(path, []byte(sampleNotebook), 0o644))

	nb, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, nb.Cells, 3)

	nb, err = Read(strings.NewReader(sampleNotebook))
	require.NoError(t, err)
	assert.Len(t, nb.Cells, 3)

	_, err = ReadFile(filepath.Join(dir, "missing.ipynb"))
	assert.Error(t, err)
}
