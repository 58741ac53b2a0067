package analyzer

import (
	"fmt"
	"log"

	"github.com/ludo-technologies/pygather/internal/parser"
)

// Block label constants to avoid magic strings
const (
	LabelEntry           = "entry"
	LabelExit            = "exit"
	LabelExceptionalExit = "exceptional exit"
	LabelUnreachable     = "unreachable"
	LabelIfCond          = "if cond"
	LabelIfBody          = "if body"
	LabelElifCond        = "elif cond"
	LabelElifBody        = "elif body"
	LabelElseCond        = "else cond"
	LabelElseBody        = "else body"
	LabelConditionalJoin = "conditional join"
	LabelWhileHead       = "while loop head"
	LabelWhileBody       = "while body"
	LabelWhileElse       = "while else body"
	LabelWhileJoin       = "while loop join"
	LabelForHead         = "for loop head"
	LabelForBody         = "for body"
	LabelForElse         = "for else body"
	LabelForJoin         = "for loop join"
	LabelWith            = "with"
	LabelWithBody        = "with body"
	LabelTryBody         = "try body"
	LabelHandlers        = "handlers"
	LabelHandlerBody     = "handler body"
	LabelTryElse         = "try else body"
	LabelFinally         = "finally body"
	LabelTryJoin         = "try join"
	LabelMatchSubject    = "match subject"
	LabelCasePattern     = "case pattern"
	LabelCaseBody        = "case body"
	LabelMatchJoin       = "match join"
)

// cfgContext tells break, continue and raise where to jump. It is copied,
// never mutated, when entering a loop or a try body.
type cfgContext struct {
	loopHead       *BasicBlock
	loopExit       *BasicBlock
	exceptionBlock *BasicBlock
}

func (c cfgContext) forLoop(head, exit *BasicBlock) cfgContext {
	return cfgContext{loopHead: head, loopExit: exit, exceptionBlock: c.exceptionBlock}
}

func (c cfgContext) forExcepts(handlers *BasicBlock) cfgContext {
	return cfgContext{loopHead: c.loopHead, loopExit: c.loopExit, exceptionBlock: handlers}
}

// CFGBuilder builds control flow graphs from statement lists.
// Nested function and class bodies are not flattened into the graph: a
// definition is a single opaque statement of the enclosing block.
type CFGBuilder struct {
	// cfg is the control flow graph being built
	cfg *CFG

	// loopVariables is a stack of loop targets/conditions for enclosing loops
	loopVariables [][]*parser.Node

	// logger for error reporting (optional)
	logger *log.Logger
}

// NewCFGBuilder creates a new CFG builder
func NewCFGBuilder() *CFGBuilder {
	return &CFGBuilder{}
}

// SetLogger sets an optional logger for error reporting
func (b *CFGBuilder) SetLogger(logger *log.Logger) {
	b.logger = logger
}

// logError logs an error if a logger is set
func (b *CFGBuilder) logError(format string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Printf("CFGBuilder: "+format, args...)
	}
}

// BuildModule builds the CFG of a module's top-level statements
func (b *CFGBuilder) BuildModule(module *parser.Node) (*CFG, error) {
	if module == nil {
		return nil, fmt.Errorf("cannot build CFG from nil node")
	}
	if module.Type != parser.NodeModule {
		return nil, fmt.Errorf("cannot build CFG from %s node, expected %s", module.Type, parser.NodeModule)
	}
	return b.Build(module.Body), nil
}

// Build constructs a CFG from a statement list. The exceptional exit and
// the end of the list both flow into a single Exit block.
//
// Every statement must carry a source location; a statement without one
// is a caller bug and panics.
func (b *CFGBuilder) Build(statements []*parser.Node) *CFG {
	b.cfg = NewCFG()
	b.loopVariables = nil

	exceptional := b.cfg.CreateBlock(LabelExceptionalExit)
	entry, last := b.makeCFG(LabelEntry, statements, cfgContext{exceptionBlock: exceptional})

	exit := b.cfg.CreateBlock(LabelExit)
	b.cfg.ConnectBlocks(last, exit, EdgeNormal)
	b.cfg.ConnectBlocks(exceptional, exit, EdgeException)

	b.cfg.Entry = entry
	b.cfg.Exit = exit
	b.cfg.ExceptionalExit = exceptional
	return b.cfg
}

// newBlock creates a block tagged with the loop variables currently in scope
func (b *CFGBuilder) newBlock(label string) *BasicBlock {
	block := b.cfg.CreateBlock(label)
	for _, vars := range b.loopVariables {
		block.LoopVariables = append(block.LoopVariables, vars...)
	}
	return block
}

// makeCFG builds one statement list and returns its entry and exit blocks
func (b *CFGBuilder) makeCFG(label string, statements []*parser.Node, ctx cfgContext) (*BasicBlock, *BasicBlock) {
	entry := b.newBlock(label)
	last := entry

	for _, stmt := range statements {
		requireLocation(stmt)

		switch stmt.Type {
		case parser.NodeIf:
			last = b.handleIf(stmt, last, ctx)
		case parser.NodeWhile:
			last = b.handleWhile(stmt, last, ctx)
		case parser.NodeFor:
			last = b.handleFor(stmt, last, ctx)
		case parser.NodeWith:
			last = b.handleWith(stmt, last, ctx)
		case parser.NodeTry:
			last = b.handleTry(stmt, last, ctx)
		case parser.NodeMatch:
			last = b.handleMatch(stmt, last, ctx)
		case parser.NodeRaise:
			last.AddStatement(stmt)
			b.cfg.ConnectBlocks(last, ctx.exceptionBlock, EdgeException)
			last = b.cfg.CreateBlock(LabelUnreachable)
		case parser.NodeBreak:
			b.cfg.ConnectBlocks(last, b.jumpTarget(ctx.loopExit, ctx, stmt), EdgeBreak)
			last = b.cfg.CreateBlock(LabelUnreachable)
		case parser.NodeContinue:
			b.cfg.ConnectBlocks(last, b.jumpTarget(ctx.loopHead, ctx, stmt), EdgeContinue)
			last = b.cfg.CreateBlock(LabelUnreachable)
		default:
			last.AddStatement(stmt)
		}
	}

	return entry, last
}

// jumpTarget falls back to the exception block for break/continue outside a loop
func (b *CFGBuilder) jumpTarget(target *BasicBlock, ctx cfgContext, stmt *parser.Node) *BasicBlock {
	if target != nil {
		return target
	}
	b.logError("%s outside loop at %s", stmt.Type, stmt.Location)
	return ctx.exceptionBlock
}

func (b *CFGBuilder) handleIf(stmt *parser.Node, last *BasicBlock, ctx cfgContext) *BasicBlock {
	ifCond := b.newBlock(LabelIfCond)
	ifCond.AddStatement(stmt.Test)
	b.cfg.ConnectBlocks(last, ifCond, EdgeNormal)

	bodyEntry, bodyExit := b.makeCFG(LabelIfBody, stmt.Body, ctx)
	b.cfg.ConnectBlocks(ifCond, bodyEntry, EdgeCondTrue)

	join := b.newBlock(LabelConditionalJoin)
	b.cfg.ConnectBlocks(bodyExit, join, EdgeNormal)

	lastCond := ifCond
	hasElse := false
	clause := firstOrNil(stmt.Orelse)
	for clause != nil {
		switch clause.Type {
		case parser.NodeElifClause:
			cond := b.newBlock(LabelElifCond)
			cond.AddStatement(clause.Test)
			b.cfg.ConnectBlocks(lastCond, cond, EdgeCondFalse)
			entry, exit := b.makeCFG(LabelElifBody, clause.Body, ctx)
			b.cfg.ConnectBlocks(cond, entry, EdgeCondTrue)
			b.cfg.ConnectBlocks(exit, join, EdgeNormal)
			lastCond = cond
			clause = firstOrNil(clause.Orelse)
		case parser.NodeElseClause:
			cond := b.newBlock(LabelElseCond)
			cond.AddStatement(clauseMarker(clause))
			b.cfg.ConnectBlocks(lastCond, cond, EdgeCondFalse)
			entry, exit := b.makeCFG(LabelElseBody, clause.Body, ctx)
			b.cfg.ConnectBlocks(cond, entry, EdgeNormal)
			b.cfg.ConnectBlocks(exit, join, EdgeNormal)
			hasElse = true
			clause = nil
		default:
			b.logError("unexpected %s in if chain at %s", clause.Type, clause.Location)
			clause = nil
		}
	}

	if !hasElse {
		b.cfg.ConnectBlocks(lastCond, join, EdgeCondFalse)
	}
	return join
}

func (b *CFGBuilder) handleWhile(stmt *parser.Node, last *BasicBlock, ctx cfgContext) *BasicBlock {
	head := b.newBlock(LabelWhileHead)
	head.AddStatement(stmt.Test)
	b.cfg.ConnectBlocks(last, head, EdgeNormal)

	afterLoop := b.newBlock(LabelWhileJoin)
	b.pushLoopVariables(stmt.Test)
	bodyEntry, bodyExit := b.makeCFG(LabelWhileBody, stmt.Body, ctx.forLoop(head, afterLoop))
	b.popLoopVariables()

	b.cfg.ConnectBlocks(head, bodyEntry, EdgeCondTrue)
	b.cfg.ConnectBlocks(bodyExit, head, EdgeLoop)
	b.linkLoopExit(head, afterLoop, LabelWhileElse, stmt.Orelse, ctx)
	return afterLoop
}

func (b *CFGBuilder) handleFor(stmt *parser.Node, last *BasicBlock, ctx cfgContext) *BasicBlock {
	head := b.newBlock(LabelForHead)
	head.AddStatement(loopAssignment(stmt))
	b.cfg.ConnectBlocks(last, head, EdgeNormal)

	afterLoop := b.newBlock(LabelForJoin)
	b.pushLoopVariables(stmt.Targets...)
	bodyEntry, bodyExit := b.makeCFG(LabelForBody, stmt.Body, ctx.forLoop(head, afterLoop))
	b.popLoopVariables()

	b.cfg.ConnectBlocks(head, bodyEntry, EdgeCondTrue)
	b.cfg.ConnectBlocks(bodyExit, head, EdgeLoop)
	b.linkLoopExit(head, afterLoop, LabelForElse, stmt.Orelse, ctx)
	return afterLoop
}

// linkLoopExit routes loop exhaustion through the else body when there is
// one; break jumps straight to afterLoop and skips it
func (b *CFGBuilder) linkLoopExit(head, afterLoop *BasicBlock, label string, orelse []*parser.Node, ctx cfgContext) {
	if len(orelse) == 0 {
		b.cfg.ConnectBlocks(head, afterLoop, EdgeCondFalse)
		return
	}
	entry, exit := b.makeCFG(label, orelse, ctx)
	b.cfg.ConnectBlocks(head, entry, EdgeCondFalse)
	b.cfg.ConnectBlocks(exit, afterLoop, EdgeNormal)
}

func (b *CFGBuilder) handleWith(stmt *parser.Node, last *BasicBlock, ctx cfgContext) *BasicBlock {
	resource := b.newBlock(LabelWith)
	for _, item := range stmt.Children {
		if item.Type != parser.NodeWithItem {
			continue
		}
		resource.AddStatement(bindingStatement(item.Targets, item.ValueNode(), item.Location, stmt))
	}
	b.cfg.ConnectBlocks(last, resource, EdgeNormal)

	bodyEntry, bodyExit := b.makeCFG(LabelWithBody, stmt.Body, ctx)
	b.cfg.ConnectBlocks(resource, bodyEntry, EdgeNormal)
	return bodyExit
}

func (b *CFGBuilder) handleTry(stmt *parser.Node, last *BasicBlock, ctx cfgContext) *BasicBlock {
	afterTry := b.newBlock(LabelTryJoin)

	exnContext := ctx
	var handlerHead *BasicBlock
	var handlerExits []*BasicBlock
	if len(stmt.Handlers) > 0 {
		handlerHead = b.newBlock(LabelHandlers)
		for _, handler := range stmt.Handlers {
			entry, exit := b.makeCFG(LabelHandlerBody, handler.Body, ctx)
			if handler.Test != nil || len(handler.Targets) > 0 {
				binding := bindingStatement(handler.Targets, handler.Test, handler.Header, handler)
				entry.Statements = append([]*parser.Node{binding}, entry.Statements...)
			}
			b.cfg.ConnectBlocks(handlerHead, entry, EdgeException)
			handlerExits = append(handlerExits, exit)
		}
		exnContext = ctx.forExcepts(handlerHead)
	}

	bodyEntry, bodyExit := b.makeCFG(LabelTryBody, stmt.Body, exnContext)
	b.cfg.ConnectBlocks(last, bodyEntry, EdgeNormal)
	if handlerHead != nil {
		b.cfg.ConnectBlocks(bodyExit, handlerHead, EdgeException)
	}

	normalExit := bodyExit
	if len(stmt.Orelse) > 0 {
		elseEntry, elseExit := b.makeCFG(LabelTryElse, stmt.Orelse, ctx)
		b.cfg.ConnectBlocks(normalExit, elseEntry, EdgeNormal)
		normalExit = elseExit
	}

	if len(stmt.Finalbody) > 0 {
		finallyEntry, finallyExit := b.makeCFG(LabelFinally, stmt.Finalbody, ctx)
		b.cfg.ConnectBlocks(normalExit, finallyEntry, EdgeNormal)
		for _, exit := range handlerExits {
			b.cfg.ConnectBlocks(exit, finallyEntry, EdgeNormal)
		}
		b.cfg.ConnectBlocks(finallyExit, afterTry, EdgeNormal)
	} else {
		for _, exit := range handlerExits {
			b.cfg.ConnectBlocks(exit, afterTry, EdgeNormal)
		}
		b.cfg.ConnectBlocks(normalExit, afterTry, EdgeNormal)
	}
	return afterTry
}

// handleMatch treats cases like an elif chain without a final else
func (b *CFGBuilder) handleMatch(stmt *parser.Node, last *BasicBlock, ctx cfgContext) *BasicBlock {
	subject := b.newBlock(LabelMatchSubject)
	subject.AddStatement(stmt.Test)
	b.cfg.ConnectBlocks(last, subject, EdgeNormal)

	join := b.newBlock(LabelMatchJoin)
	prev := subject
	edge := EdgeNormal
	for _, c := range stmt.Handlers {
		pattern := b.newBlock(LabelCasePattern)
		pattern.AddStatement(clauseMarker(c))
		b.cfg.ConnectBlocks(prev, pattern, edge)
		entry, exit := b.makeCFG(LabelCaseBody, c.Body, ctx)
		b.cfg.ConnectBlocks(pattern, entry, EdgeCondTrue)
		b.cfg.ConnectBlocks(exit, join, EdgeNormal)
		prev = pattern
		edge = EdgeCondFalse
	}
	b.cfg.ConnectBlocks(prev, join, edge)
	return join
}

func (b *CFGBuilder) pushLoopVariables(vars ...*parser.Node) {
	b.loopVariables = append(b.loopVariables, vars)
}

func (b *CFGBuilder) popLoopVariables() {
	b.loopVariables = b.loopVariables[:len(b.loopVariables)-1]
}

// loopAssignment synthesizes "target := iter" located at the for header
func loopAssignment(stmt *parser.Node) *parser.Node {
	if stmt.Iter == nil {
		panic(fmt.Sprintf("analyzer: for statement at %s has no iterable", stmt.Location))
	}
	loc := stmt.Header
	if loc.IsZero() {
		loc = stmt.Location
	}
	return bindingStatement(stmt.Targets, stmt.Iter, loc, stmt)
}

// bindingStatement synthesizes an assignment of value to targets, or a bare
// expression statement when there are no targets
func bindingStatement(targets []*parser.Node, value *parser.Node, loc parser.Location, parent *parser.Node) *parser.Node {
	stmt := parser.NewNode(parser.NodeAssign)
	if len(targets) == 0 {
		stmt.Type = parser.NodeExpr
	}
	stmt.Targets = targets
	if value != nil {
		stmt.Value = value
	}
	stmt.Location = loc
	stmt.Parent = parent
	return stmt
}

// clauseMarker stands in for an else or case clause inside its condition
// block. It spans only the clause header so the clause body is not swept in.
func clauseMarker(clause *parser.Node) *parser.Node {
	marker := parser.NewNode(parser.NodeExpr)
	marker.Location = clause.Header
	if marker.Location.IsZero() {
		marker.Location = clause.Location
	}
	marker.Children = clause.Children
	marker.Parent = clause
	return marker
}

func firstOrNil(nodes []*parser.Node) *parser.Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func requireLocation(stmt *parser.Node) {
	if stmt == nil {
		panic("analyzer: nil statement")
	}
	if stmt.Location.IsZero() {
		panic(fmt.Sprintf("analyzer: %s statement has no source location", stmt.Type))
	}
}
