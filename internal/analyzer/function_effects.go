package analyzer

import (
	"sort"

	"github.com/ludo-technologies/pygather/internal/parser"
)

// Pattern selects the calls a FunctionRule applies to
type Pattern struct {
	// FunctionName is the called name, without receiver: "append" matches "x.append(1)"
	FunctionName string

	// InstanceNames restricts the rule to these receivers when non-empty.
	// A receiver matches by its dotted path ("np.random") or its root name ("np").
	InstanceNames []string
}

// FunctionRule declares which parts of a matched call the call mutates,
// and at which level
type FunctionRule struct {
	Pattern Pattern

	// InstanceEffect applies to the receiver of "recv.f(...)"
	InstanceEffect ReferenceLevel

	// PositionalArgumentEffects applies to positional arguments by index
	PositionalArgumentEffects map[int]ReferenceLevel

	// KeywordArgumentEffects applies to keyword arguments by name
	KeywordArgumentEffects map[string]ReferenceLevel
}

var inPlaceMethods = []string{
	"append", "extend", "insert", "pop", "remove", "clear", "sort",
	"reverse", "update", "add", "discard", "fit", "load",
}

// DefaultFunctionRules returns the built-in rule set: common in-place
// container and estimator methods, drawing into an image, and a few global
// configuration calls of the scientific stack
func DefaultFunctionRules() []FunctionRule {
	rules := make([]FunctionRule, 0, len(inPlaceMethods)+4)
	for _, name := range inPlaceMethods {
		rules = append(rules, FunctionRule{
			Pattern:        Pattern{FunctionName: name},
			InstanceEffect: LevelUpdate,
		})
	}
	rules = append(rules,
		FunctionRule{
			Pattern:                   Pattern{FunctionName: "rectangle"},
			PositionalArgumentEffects: map[int]ReferenceLevel{0: LevelUpdate},
			KeywordArgumentEffects:    map[string]ReferenceLevel{"img": LevelUpdate},
		},
		FunctionRule{
			Pattern:        Pattern{FunctionName: "set_option", InstanceNames: []string{"pd", "pandas"}},
			InstanceEffect: LevelGlobalConfig,
		},
		FunctionRule{
			Pattern:        Pattern{FunctionName: "seed", InstanceNames: []string{"np.random", "numpy.random", "random"}},
			InstanceEffect: LevelGlobalConfig,
		},
		FunctionRule{
			Pattern:        Pattern{FunctionName: "use", InstanceNames: []string{"plt.style", "matplotlib.style", "matplotlib"}},
			InstanceEffect: LevelGlobalConfig,
		},
	)
	return rules
}

// effect is one expression a call mutates, with the level it is mutated at
type effect struct {
	target *parser.Node
	level  ReferenceLevel
}

// callEffects matches call against rules and returns the mutated expressions
func callEffects(call *parser.Node, rules []FunctionRule, symbols *SymbolTable) []effect {
	fn := call.ValueNode()
	if fn == nil {
		return nil
	}

	var name string
	var receiver *parser.Node
	switch fn.Type {
	case parser.NodeAttribute:
		name = fn.Name
		receiver = fn.ValueNode()
	case parser.NodeName:
		name = fn.Name
	default:
		return nil
	}

	var effects []effect
	for _, rule := range rules {
		if rule.Pattern.FunctionName != name {
			continue
		}
		matched, instance := rule.matchReceiver(receiver, symbols)
		if !matched {
			continue
		}
		if instance && rule.InstanceEffect != LevelNone && receiver != nil {
			effects = append(effects, effect{target: receiver, level: rule.InstanceEffect})
		}
		positions := make([]int, 0, len(rule.PositionalArgumentEffects))
		for pos := range rule.PositionalArgumentEffects {
			positions = append(positions, pos)
		}
		sort.Ints(positions)
		for _, pos := range positions {
			level := rule.PositionalArgumentEffects[pos]
			if level == LevelNone || pos < 0 || pos >= len(call.Args) {
				continue
			}
			effects = append(effects, effect{target: call.Args[pos], level: level})
		}
		for _, kw := range call.Keywords {
			level, ok := rule.KeywordArgumentEffects[kw.Name]
			if !ok || level == LevelNone || kw.ValueNode() == nil {
				continue
			}
			effects = append(effects, effect{target: kw.ValueNode(), level: level})
		}
	}
	return effects
}

// matchReceiver applies InstanceNames. The second result is false when the
// receiver is an imported module the rule does not name, so the module is
// not treated as a mutated object.
func (r FunctionRule) matchReceiver(receiver *parser.Node, symbols *SymbolTable) (bool, bool) {
	path, root := receiverPath(receiver)
	if len(r.Pattern.InstanceNames) > 0 {
		for _, n := range r.Pattern.InstanceNames {
			if n == path || n == root {
				return true, true
			}
		}
		return false, false
	}
	if root != "" && symbols != nil && symbols.IsModule(root) {
		return true, false
	}
	return true, true
}

// receiverPath returns the dotted path and root name of a receiver built
// from names and attributes only
func receiverPath(node *parser.Node) (string, string) {
	if node == nil {
		return "", ""
	}
	switch node.Type {
	case parser.NodeName:
		return node.Name, node.Name
	case parser.NodeAttribute:
		path, root := receiverPath(node.ValueNode())
		if path == "" {
			return "", root
		}
		return path + "." + node.Name, root
	case parser.NodeCall, parser.NodeSubscript:
		_, root := receiverPath(node.ValueNode())
		return "", root
	}
	return "", ""
}
