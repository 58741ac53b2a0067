package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/pygather/internal/parser"
)

func sliceLines(t *testing.T, source string, lines ...int) []int {
	t.Helper()
	seeds := NewLocationSet()
	for _, l := range lines {
		seeds.Add(LineLocation(l))
	}
	result, err := Slice(parseSource(t, source), seeds, nil)
	require.NoError(t, err)
	return result.Lines()
}

func TestSlice(t *testing.T) {
	t.Run("FollowsDataDependencies", func(t *testing.T) {
		assert.Equal(t, []int{1, 2, 3}, sliceLines(t, "a = 1\nb = a\nc = b\n", 3))
	})

	t.Run("OnlyBackward", func(t *testing.T) {
		assert.Equal(t, []int{1}, sliceLines(t, "a = 1\nb = a\nc = b\n", 1))
	})

	t.Run("ExcludesUnrelatedStatements", func(t *testing.T) {
		assert.Equal(t, []int{1, 3}, sliceLines(t, "a = 1\nb = 2\nc = a\n", 3))
	})

	t.Run("IncludesControllingCondition", func(t *testing.T) {
		assert.Equal(t, []int{1, 2, 3}, sliceLines(t, "if cond:\n    x = 1\nprint(x)\n", 3))
	})

	t.Run("LoopAccumulator", func(t *testing.T) {
		src := "total = 0\nfor x in xs:\n    total += x\nprint(total)\nother = 1\n"
		assert.Equal(t, []int{1, 2, 3, 4}, sliceLines(t, src, 4))
	})

	t.Run("FunctionDefinitionAndItsGlobals", func(t *testing.T) {
		src := "k = 2\ndef f(x):\n    return x * k\ny = f(3)\nz = 5\n"
		assert.Equal(t, []int{1, 2, 3, 4}, sliceLines(t, src, 4))
	})

	t.Run("MutationsAreIncluded", func(t *testing.T) {
		src := "xs = []\nxs.append(1)\nys = []\nprint(xs)\n"
		assert.Equal(t, []int{1, 2, 4}, sliceLines(t, src, 4))
	})

	t.Run("StatementGranularityWithinALine", func(t *testing.T) {
		module := parseSource(t, "a = 1; b = 2\nc = a\n")
		result, err := Slice(module, NewLocationSet(LineLocation(2)), nil)
		require.NoError(t, err)
		assert.Equal(t, []parser.Location{
			{StartLine: 1, StartCol: 0, EndLine: 1, EndCol: 5},
			{StartLine: 2, StartCol: 0, EndLine: 2, EndCol: 5},
		}, result.Items())
	})

	t.Run("EmptySeeds", func(t *testing.T) {
		result, err := Slice(parseSource(t, "a = 1\n"), NewLocationSet(), nil)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Len())
	})

	t.Run("SeedsOutsideTheProgram", func(t *testing.T) {
		assert.Empty(t, sliceLines(t, "a = 1\n", 40))
	})

	t.Run("Idempotent", func(t *testing.T) {
		module := parseSource(t, "a = 1\nb = 2\nif a:\n    c = b\nprint(c)\n")
		first, err := Slice(module, NewLocationSet(LineLocation(5)), nil)
		require.NoError(t, err)
		second, err := Slice(module, first, nil)
		require.NoError(t, err)
		assert.True(t, first.Equal(second))
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := SliceContext(ctx, parseSource(t, "a = 1\nb = a\n"), NewLocationSet(LineLocation(2)), nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("CustomRules", func(t *testing.T) {
		opts := &SliceOptions{FunctionRules: []FunctionRule{}}
		module := parseSource(t, "xs = []\nxs.append(1)\nprint(xs)\n")
		result, err := Slice(module, NewLocationSet(LineLocation(3)), opts)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3}, result.Lines())
	})

	t.Run("InvalidModule", func(t *testing.T) {
		_, err := Slice(nil, NewLocationSet(LineLocation(1)), nil)
		assert.Error(t, err)
	})
}

func TestProgramDependencies(t *testing.T) {
	deps, err := AnalyzeDependencies(parseSource(t, "if c:\n    a = 1\nprint(a)\n"), nil)
	require.NoError(t, err)

	t.Run("DataBeforeControl", func(t *testing.T) {
		all := deps.All().Items()
		require.Len(t, all, deps.Data.Len()+deps.Control.Len())
		assert.Equal(t, DependencyData, all[0].Kind)
		assert.Equal(t, DependencyControl, all[len(all)-1].Kind)
	})

	t.Run("SeedStatements", func(t *testing.T) {
		seeds := deps.SeedStatements(NewLocationSet(LineLocation(2)))
		require.Equal(t, 1, seeds.Len())
		assert.Equal(t, 2, seeds.Items()[0].StartLine)
	})

	t.Run("ReusableAcrossSlices", func(t *testing.T) {
		first, err := deps.Slice(context.Background(), NewLocationSet(LineLocation(3)))
		require.NoError(t, err)
		second, err := deps.Slice(context.Background(), NewLocationSet(LineLocation(2)))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, first.Lines())
		assert.Equal(t, []int{1, 2}, second.Lines())
	})
}

func TestLocations(t *testing.T) {
	loc := func(sl, sc, el, ec int) parser.Location {
		return parser.Location{StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec}
	}

	t.Run("Within", func(t *testing.T) {
		assert.True(t, Within(loc(1, 2, 1, 4), loc(1, 0, 1, 10)))
		assert.True(t, Within(loc(1, 0, 1, 10), loc(1, 0, 1, 10)))
		assert.True(t, Within(loc(2, 4, 2, 9), LineLocation(2)))
		assert.False(t, Within(loc(1, 0, 2, 3), LineLocation(1)))
	})

	t.Run("Intersects", func(t *testing.T) {
		assert.True(t, Intersects(loc(1, 0, 1, 5), loc(1, 5, 1, 9)))
		assert.True(t, Intersects(LineLocation(2), loc(1, 0, 3, 0)))
		assert.False(t, Intersects(loc(1, 0, 1, 5), loc(2, 0, 2, 5)))
		assert.False(t, Intersects(loc(1, 0, 1, 4), loc(1, 5, 1, 9)))
	})

	t.Run("Lines", func(t *testing.T) {
		set := NewLocationSet(loc(3, 0, 4, 2), loc(1, 0, 1, 5), loc(6, 0, 7, 0))
		assert.Equal(t, []int{1, 3, 4, 6}, set.Lines())
	})

	t.Run("SetOperations", func(t *testing.T) {
		a := NewLocationSet(loc(1, 0, 1, 5))
		assert.False(t, a.Add(loc(1, 0, 1, 5)))
		b := NewLocationSet(loc(2, 0, 2, 5))
		u := a.Union(b)
		assert.Equal(t, 2, u.Len())
		assert.True(t, u.Contains(loc(2, 0, 2, 5)))
		assert.False(t, a.Equal(u))
		assert.Equal(t, 0, (*LocationSet)(nil).Len())
	})
}
