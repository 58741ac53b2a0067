package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func controlLinePairs(t *testing.T, source string) [][2]int {
	t.Helper()
	return ControlDependencies(buildCFG(t, source)).LinePairs()
}

func TestPostdominators(t *testing.T) {
	t.Run("SelfAtDistanceZero", func(t *testing.T) {
		cfg := buildCFG(t, "a = 1\n")
		pdoms := ComputePostdominators(cfg)
		of := pdoms.Of(cfg.Entry)
		require.NotEmpty(t, of)
		assert.Equal(t, cfg.Entry, of[0].Postdominator)
		assert.Equal(t, 0, of[0].Distance)
		assert.True(t, pdoms.Postdominates(cfg.Exit, cfg.Entry))
		assert.Nil(t, pdoms.Immediate(cfg.Exit))
	})

	t.Run("JoinIsImmediatePostdominatorOfBranch", func(t *testing.T) {
		cfg := buildCFG(t, "if cond:\n    x = 1\ny = 2\n")
		pdoms := ComputePostdominators(cfg)
		cond := blocksWithLabel(cfg, LabelIfCond)[0]
		body := blocksWithLabel(cfg, LabelIfBody)[0]
		join := blocksWithLabel(cfg, LabelConditionalJoin)[0]

		assert.Equal(t, join, pdoms.Immediate(cond))
		assert.Equal(t, join, pdoms.Immediate(body))
		assert.False(t, pdoms.Postdominates(body, cond))
		assert.True(t, pdoms.Postdominates(join, cond))
	})

	t.Run("DistancesGrowAlongTheChain", func(t *testing.T) {
		cfg := buildCFG(t, "if cond:\n    x = 1\ny = 2\n")
		pdoms := ComputePostdominators(cfg)
		of := pdoms.Of(cfg.Entry)
		for i := 1; i < len(of); i++ {
			assert.LessOrEqual(t, of[i-1].Distance, of[i].Distance)
		}
		assert.Equal(t, cfg.Exit, of[len(of)-1].Postdominator)
	})

	t.Run("LoopHeadPostdominatesBody", func(t *testing.T) {
		cfg := buildCFG(t, "while c:\n    x = 1\n")
		pdoms := ComputePostdominators(cfg)
		head := blocksWithLabel(cfg, LabelWhileHead)[0]
		body := blocksWithLabel(cfg, LabelWhileBody)[0]
		assert.Equal(t, head, pdoms.Immediate(body))
		assert.Equal(t, blocksWithLabel(cfg, LabelWhileJoin)[0], pdoms.Immediate(head))
	})
}

func TestControlDependencies(t *testing.T) {
	t.Run("ToAnIfStatement", func(t *testing.T) {
		assert.Equal(t, [][2]int{{1, 2}}, controlLinePairs(t, "if cond:\n    print(a)\n"))
	})

	t.Run("ForMultipleStatementsInABlock", func(t *testing.T) {
		assert.ElementsMatch(t, [][2]int{{1, 2}, {1, 3}},
			controlLinePairs(t, "if cond:\n    print(a)\n    print(b)\n"))
	})

	t.Run("FromAnElseToAnIf", func(t *testing.T) {
		deps := controlLinePairs(t, "if cond:\n    print(a)\nelif cond2:\n    print(b)\nelse:\n    print(b)\n")
		assert.Contains(t, deps, [2]int{1, 3})
		assert.Contains(t, deps, [2]int{3, 5})
		assert.Contains(t, deps, [2]int{3, 6})
		assert.NotContains(t, deps, [2]int{1, 6})
	})

	t.Run("NotFromAJoinToAnIfCondition", func(t *testing.T) {
		assert.Equal(t, [][2]int{{1, 2}}, controlLinePairs(t, "if cond:\n    print(a)\nprint(b)\n"))
	})

	t.Run("NotFromAJoinToAForLoop", func(t *testing.T) {
		assert.Equal(t, [][2]int{{1, 2}}, controlLinePairs(t, "for i in range(10):\n    print(a)\nprint(b)\n"))
	})

	t.Run("ToAWhileLoop", func(t *testing.T) {
		assert.Contains(t, controlLinePairs(t, "while cond:\n    print(a)\n"), [2]int{1, 2})
	})

	t.Run("NestedBranches", func(t *testing.T) {
		deps := controlLinePairs(t, "if a:\n    if b:\n        x = 1\n    y = 2\nz = 3\n")
		assert.Contains(t, deps, [2]int{1, 2})
		assert.Contains(t, deps, [2]int{2, 3})
		assert.Contains(t, deps, [2]int{1, 4})
		assert.NotContains(t, deps, [2]int{2, 4})
		for _, d := range deps {
			assert.NotEqual(t, 5, d[1])
		}
	})

	t.Run("BreakMakesLoopHeadDependOnCondition", func(t *testing.T) {
		deps := controlLinePairs(t, "while c:\n    if x:\n        break\n    y()\n")
		assert.Contains(t, deps, [2]int{2, 4})
		assert.Contains(t, deps, [2]int{2, 1})
	})

	t.Run("SkippingNonDependencies", func(t *testing.T) {
		assert.Empty(t, controlLinePairs(t, "a = 1\nb = 2\n"))
	})

	t.Run("EmptyGraph", func(t *testing.T) {
		assert.Equal(t, 0, ControlDependencies(nil).Len())
	})

	t.Run("EdgesAreControlKind", func(t *testing.T) {
		deps := ControlDependencies(buildCFG(t, "if cond:\n    print(a)\n"))
		require.Equal(t, 1, deps.Len())
		assert.Equal(t, DependencyControl, deps.Items()[0].Kind)
		assert.Equal(t, "control", deps.Items()[0].Kind.String())
	})
}
