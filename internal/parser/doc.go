// Package parser provides Python code parsing capabilities using tree-sitter.
//
// The tree-sitter concrete syntax tree is converted into a smaller typed AST
// (Node) shaped for program slicing: expression statements are unwrapped
// into assignments, chained assignments are flattened, elif chains nest
// through Orelse, and compound statements record a Header location that
// ends at the colon opening their body.
//
// Basic usage:
//
//	p := parser.New()
//	result, err := p.Parse(ctx, []byte("a = 1\nb = a\n"))
//	if err != nil {
//	    // Handle parsing error
//	}
//	for _, stmt := range result.AST.Body {
//	    fmt.Println(stmt)
//	}
package parser
