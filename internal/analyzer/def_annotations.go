package analyzer

import (
	"encoding/json"
	"regexp"

	"github.com/ludo-technologies/pygather/internal/parser"
)

// defAnnotationPattern matches string literals of the form
//
//	"""defs: [{"name": "np", "pos": [[0, 0], [0, 11]]}]"""
//
// Each entry defines name at a position relative to the literal's first line.
var defAnnotationPattern = regexp.MustCompile(`^\s*defs:\s*(\[.*\])\s*$`)

type defAnnotation struct {
	Name string    `json:"name"`
	Pos  [2][2]int `json:"pos"`
}

// annotatedDefs returns the MAGIC definitions declared by def annotations
// anywhere inside stmt
func annotatedDefs(stmt *parser.Node) []Ref {
	var refs []Ref
	stmt.Walk(func(n *parser.Node) bool {
		if n.Type != parser.NodeConstant {
			return true
		}
		text := n.StringValue()
		if text == "" {
			return true
		}
		m := defAnnotationPattern.FindStringSubmatch(text)
		if m == nil {
			return true
		}
		var specs []defAnnotation
		if err := json.Unmarshal([]byte(m[1]), &specs); err != nil {
			return true
		}
		base := n.Location.StartLine
		for _, spec := range specs {
			if spec.Name == "" {
				continue
			}
			refs = append(refs, Ref{
				Type:  SymbolMagic,
				Level: LevelDefinition,
				Name:  spec.Name,
				Location: parser.Location{
					StartLine: base + spec.Pos[0][0],
					StartCol:  spec.Pos[0][1],
					EndLine:   base + spec.Pos[1][0],
					EndCol:    spec.Pos[1][1],
				},
				Statement: stmt,
			})
		}
		return true
	})
	return refs
}
