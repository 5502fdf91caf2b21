package parser

import (
	"fmt"
	"joosc/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler handles one node kind at the top level of a unit.
// Returns true if the handler consumed the node's children.
type NodeHandler func(ctx *BuildContext, node *sitter.Node) bool

// BuildContext carries the source and the unit under construction. The
// first error recorded wins; later ones are usually follow-on damage.
type BuildContext struct {
	Source []byte
	Unit   *ast.CompilationUnit
	err    error
}

// Walker dispatches node handlers by kind and descends into nodes no
// handler consumed.
type Walker struct {
	handlers map[string]NodeHandler
}

func NewWalker(handlers map[string]NodeHandler) *Walker {
	return &Walker{handlers: handlers}
}

func (w *Walker) Walk(ctx *BuildContext, node *sitter.Node) {
	if node == nil || ctx.err != nil {
		return
	}
	if handler, ok := w.handlers[node.Kind()]; ok && handler(ctx, node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		w.Walk(ctx, node.Child(i))
	}
}

func (c *BuildContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

func (c *BuildContext) Location(node *sitter.Node) ast.Location {
	return ast.Location{
		File:   c.Unit.Path,
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}

// Fail records a syntax error at node unless one is already recorded.
func (c *BuildContext) Fail(node *sitter.Node, format string, args ...any) {
	if c.err != nil {
		return
	}
	c.err = &SyntaxError{Loc: c.Location(node), Message: fmt.Sprintf(format, args...)}
}

func (c *BuildContext) Err() error { return c.err }

// childOfKind returns the first direct child with the given kind.
func childOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child.Kind() == kind {
			return child
		}
	}
	return nil
}

// namedChildren lists the named children, skipping comments.
func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if isComment(child) {
			continue
		}
		out = append(out, child)
	}
	return out
}

// childrenByField lists every direct child stored under field.
func childrenByField(node *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.FieldNameForChild(uint32(i)) == field {
			out = append(out, node.Child(i))
		}
	}
	return out
}

func isComment(node *sitter.Node) bool {
	kind := node.Kind()
	return kind == "line_comment" || kind == "block_comment"
}
