package parser

import (
	"joosc/internal/engine/ast"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Declarations

func (c *BuildContext) packageDecl(node *sitter.Node) bool {
	if c.Unit.Package != nil {
		c.Fail(node, "duplicate package declaration")
		return true
	}
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "identifier", "scoped_identifier":
			c.Unit.Package = c.name(child)
		default:
			c.Fail(child, "unsupported %s in package declaration", child.Kind())
		}
	}
	return true
}

func (c *BuildContext) importDecl(node *sitter.Node) bool {
	if childOfKind(node, "static") != nil {
		c.Fail(node, "static imports are not supported")
		return true
	}
	imp := &ast.Import{Kind: ast.ImportSingleType, Loc: c.Location(node)}
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "identifier", "scoped_identifier":
			imp.Path = c.name(child)
		case "asterisk":
			imp.Kind = ast.ImportOnDemand
		}
	}
	if imp.Path == nil {
		c.Fail(node, "import without a name")
		return true
	}
	c.Unit.Imports = append(c.Unit.Imports, imp)
	return true
}

func (c *BuildContext) classDecl(node *sitter.Node) bool {
	decl := c.typeDecl(node, ast.KindClass)
	if decl == nil {
		return true
	}
	if super := node.ChildByFieldName("superclass"); super != nil {
		for _, child := range namedChildren(super) {
			decl.Extends = append(decl.Extends, c.typeRef(child))
		}
	}
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		decl.Implements = c.typeList(childOfKind(ifaces, "type_list"))
	}

	body := node.ChildByFieldName("body")
	for _, member := range namedChildren(body) {
		switch member.Kind() {
		case "field_declaration":
			decl.Fields = append(decl.Fields, c.fields(member, decl)...)
		case "method_declaration":
			decl.Methods = append(decl.Methods, c.method(member, decl))
		case "constructor_declaration":
			decl.Constructors = append(decl.Constructors, c.constructor(member, decl))
		default:
			c.Fail(member, "unsupported class member %s", member.Kind())
		}
	}
	return true
}

func (c *BuildContext) interfaceDecl(node *sitter.Node) bool {
	decl := c.typeDecl(node, ast.KindInterface)
	if decl == nil {
		return true
	}
	if ext := childOfKind(node, "extends_interfaces"); ext != nil {
		decl.Extends = c.typeList(childOfKind(ext, "type_list"))
	}

	body := node.ChildByFieldName("body")
	for _, member := range namedChildren(body) {
		switch member.Kind() {
		case "method_declaration":
			m := c.method(member, decl)
			m.Modifiers |= ast.ModAbstract
			if m.Body != nil {
				c.Fail(member, "interface method %s has a body", m.Name)
			}
			decl.Methods = append(decl.Methods, m)
		case "constant_declaration":
			c.Fail(member, "interface fields are not supported")
		default:
			c.Fail(member, "unsupported interface member %s", member.Kind())
		}
	}
	return true
}

// typeDecl creates the unit's single top-level type.
func (c *BuildContext) typeDecl(node *sitter.Node, kind ast.TypeKind) *ast.TypeDecl {
	if c.Unit.Type != nil {
		c.Fail(node, "more than one type declared in %s", c.Unit.Path)
		return nil
	}
	if node.ChildByFieldName("type_parameters") != nil {
		c.Fail(node, "generic types are not supported")
		return nil
	}
	decl := &ast.TypeDecl{
		Kind:      kind,
		Name:      c.Text(node.ChildByFieldName("name")),
		Modifiers: c.modifiers(node),
		Unit:      c.Unit,
		Loc:       c.Location(node),
	}
	c.Unit.Type = decl
	return decl
}

func (c *BuildContext) fields(node *sitter.Node, owner *ast.TypeDecl) []*ast.FieldDecl {
	mods := c.modifiers(node)
	typ := node.ChildByFieldName("type")
	var out []*ast.FieldDecl
	for _, d := range childrenByField(node, "declarator") {
		out = append(out, &ast.FieldDecl{
			Modifiers: mods,
			Type:      c.declaratorType(typ, d),
			Name:      c.Text(d.ChildByFieldName("name")),
			Init:      c.optExpr(d.ChildByFieldName("value")),
			Owner:     owner,
			Loc:       c.Location(d),
		})
	}
	return out
}

func (c *BuildContext) method(node *sitter.Node, owner *ast.TypeDecl) *ast.MethodDecl {
	if node.ChildByFieldName("type_parameters") != nil {
		c.Fail(node, "generic methods are not supported")
	}
	m := &ast.MethodDecl{
		Modifiers: c.modifiers(node),
		Result:    c.typeRef(node.ChildByFieldName("type")),
		Name:      c.Text(node.ChildByFieldName("name")),
		Params:    c.params(node.ChildByFieldName("parameters")),
		Owner:     owner,
		Loc:       c.Location(node),
	}
	if dims := node.ChildByFieldName("dimensions"); dims != nil && m.Result != nil {
		m.Result.Dims += countDims(c.Text(dims))
	}
	if body := node.ChildByFieldName("body"); body != nil {
		m.Body = c.block(body)
	}
	return m
}

func (c *BuildContext) constructor(node *sitter.Node, owner *ast.TypeDecl) *ast.ConstructorDecl {
	ctor := &ast.ConstructorDecl{
		Modifiers: c.modifiers(node),
		Name:      c.Text(node.ChildByFieldName("name")),
		Params:    c.params(node.ChildByFieldName("parameters")),
		Owner:     owner,
		Loc:       c.Location(node),
	}
	if ctor.Name != owner.Name {
		c.Fail(node, "constructor %s does not match class %s", ctor.Name, owner.Name)
	}
	ctor.Body = c.block(node.ChildByFieldName("body"))
	return ctor
}

func (c *BuildContext) params(node *sitter.Node) []*ast.LocalVar {
	var out []*ast.LocalVar
	for _, p := range namedChildren(node) {
		if p.Kind() != "formal_parameter" {
			c.Fail(p, "unsupported parameter %s", p.Kind())
			continue
		}
		out = append(out, &ast.LocalVar{
			Name:  c.Text(p.ChildByFieldName("name")),
			Type:  c.declaratorType(p.ChildByFieldName("type"), p),
			Param: true,
			Loc:   c.Location(p),
		})
	}
	return out
}

func (c *BuildContext) modifiers(node *sitter.Node) ast.Modifiers {
	var mods ast.Modifiers
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() != "modifiers" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			kw := child.Child(j)
			flag := ast.ParseModifier(kw.Kind())
			if flag == 0 {
				c.Fail(kw, "unsupported modifier %s", c.Text(kw))
				continue
			}
			mods |= flag
		}
	}
	return mods
}

// Types

// typeRef converts a type node; void yields nil.
func (c *BuildContext) typeRef(node *sitter.Node) *ast.TypeRef {
	if node == nil {
		return nil
	}
	loc := c.Location(node)
	switch node.Kind() {
	case "void_type":
		return nil
	case "integral_type", "boolean_type":
		return &ast.TypeRef{Primitive: c.Text(node), Loc: loc}
	case "type_identifier":
		return &ast.TypeRef{Name: ast.NewName(loc, c.Text(node)), Loc: loc}
	case "scoped_type_identifier":
		return &ast.TypeRef{Name: ast.NewName(loc, c.typeParts(node)...), Loc: loc}
	case "array_type":
		elem := c.typeRef(node.ChildByFieldName("element"))
		if elem == nil {
			c.Fail(node, "array of void")
			return nil
		}
		elem.Dims += countDims(c.Text(node.ChildByFieldName("dimensions")))
		elem.Loc = loc
		return elem
	case "floating_point_type":
		c.Fail(node, "floating point types are not supported")
	case "generic_type":
		c.Fail(node, "generic types are not supported")
	default:
		c.Fail(node, "unsupported type %s", node.Kind())
	}
	return &ast.TypeRef{Primitive: "int", Loc: loc}
}

func (c *BuildContext) typeParts(node *sitter.Node) []string {
	var parts []string
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "type_identifier":
			parts = append(parts, c.Text(child))
		case "scoped_type_identifier":
			parts = append(parts, c.typeParts(child)...)
		default:
			c.Fail(child, "unsupported type %s", child.Kind())
		}
	}
	return parts
}

func (c *BuildContext) typeList(node *sitter.Node) []*ast.TypeRef {
	var out []*ast.TypeRef
	for _, child := range namedChildren(node) {
		out = append(out, c.typeRef(child))
	}
	return out
}

// declaratorType applies C-style dimensions on a declarator (`int xs[]`).
func (c *BuildContext) declaratorType(typ, declarator *sitter.Node) *ast.TypeRef {
	ref := c.typeRef(typ)
	if dims := declarator.ChildByFieldName("dimensions"); dims != nil && ref != nil {
		copied := *ref
		copied.Dims += countDims(c.Text(dims))
		return &copied
	}
	return ref
}

func countDims(text string) int { return strings.Count(text, "[") }

// name flattens identifier and scoped_identifier chains.
func (c *BuildContext) name(node *sitter.Node) *ast.Name {
	var parts []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Kind() == "scoped_identifier" {
			walk(n.ChildByFieldName("scope"))
			parts = append(parts, c.Text(n.ChildByFieldName("name")))
			return
		}
		parts = append(parts, c.Text(n))
	}
	walk(node)
	return ast.NewName(c.Location(node), parts...)
}

// Statements

func (c *BuildContext) block(node *sitter.Node) *ast.Block {
	b := &ast.Block{Loc: c.Location(node)}
	for _, child := range namedChildren(node) {
		b.Stmts = append(b.Stmts, c.stmts(child)...)
	}
	return b
}

// stmts converts one statement node; a declaration with several
// declarators yields one statement per variable in the same block.
func (c *BuildContext) stmts(node *sitter.Node) []ast.Stmt {
	if node.Kind() != "local_variable_declaration" {
		return []ast.Stmt{c.stmt(node)}
	}
	typ := node.ChildByFieldName("type")
	var out []ast.Stmt
	for _, d := range childrenByField(node, "declarator") {
		loc := c.Location(d)
		out = append(out, &ast.LocalVarStmt{
			Var: &ast.LocalVar{
				Name: c.Text(d.ChildByFieldName("name")),
				Type: c.declaratorType(typ, d),
				Loc:  loc,
			},
			Init: c.optExpr(d.ChildByFieldName("value")),
			Loc:  loc,
		})
	}
	return out
}

func (c *BuildContext) stmt(node *sitter.Node) ast.Stmt {
	loc := c.Location(node)
	switch node.Kind() {
	case ";":
		return &ast.EmptyStmt{Loc: loc}
	case "block":
		return c.block(node)
	case "local_variable_declaration":
		list := c.stmts(node)
		if len(list) != 1 {
			c.Fail(node, "declaration of several variables is not allowed here")
			return &ast.EmptyStmt{Loc: loc}
		}
		return list[0]
	case "expression_statement":
		return &ast.ExprStmt{X: c.expr(node.NamedChild(0)), Loc: loc}
	case "return_statement":
		ret := &ast.ReturnStmt{Loc: loc}
		if node.NamedChildCount() > 0 {
			ret.X = c.expr(node.NamedChild(0))
		}
		return ret
	case "if_statement":
		s := &ast.IfStmt{
			Cond: c.condition(node),
			Then: c.stmt(node.ChildByFieldName("consequence")),
			Loc:  loc,
		}
		if alt := node.ChildByFieldName("alternative"); alt != nil {
			s.Else = c.stmt(alt)
		}
		return s
	case "while_statement":
		return &ast.WhileStmt{Cond: c.condition(node), Body: c.stmt(node.ChildByFieldName("body")), Loc: loc}
	case "for_statement":
		return c.forStmt(node)
	case "explicit_constructor_invocation":
		return c.ctorCall(node)
	}
	c.Fail(node, "unsupported statement %s", node.Kind())
	return &ast.EmptyStmt{Loc: loc}
}

func (c *BuildContext) condition(node *sitter.Node) ast.Expr {
	cond := node.ChildByFieldName("condition")
	if cond != nil && cond.Kind() == "parenthesized_expression" {
		return c.expr(cond.NamedChild(0))
	}
	return c.expr(cond)
}

func (c *BuildContext) forStmt(node *sitter.Node) ast.Stmt {
	s := &ast.ForStmt{Loc: c.Location(node)}
	inits := childrenByField(node, "init")
	switch {
	case len(inits) > 1:
		c.Fail(node, "for loop with several initializers")
	case len(inits) == 1 && inits[0].Kind() == "local_variable_declaration":
		s.Init = c.stmt(inits[0])
	case len(inits) == 1:
		s.Init = &ast.ExprStmt{X: c.expr(inits[0]), Loc: c.Location(inits[0])}
	}
	s.Cond = c.optExpr(node.ChildByFieldName("condition"))
	updates := childrenByField(node, "update")
	if len(updates) > 1 {
		c.Fail(node, "for loop with several updates")
	}
	for _, u := range updates {
		s.Update = append(s.Update, c.expr(u))
	}
	s.Body = c.stmt(node.ChildByFieldName("body"))
	return s
}

func (c *BuildContext) ctorCall(node *sitter.Node) ast.Stmt {
	loc := c.Location(node)
	if node.ChildByFieldName("object") != nil {
		c.Fail(node, "qualified superclass constructor calls are not supported")
		return &ast.EmptyStmt{Loc: loc}
	}
	return &ast.ExplicitCtorCall{
		Super: node.ChildByFieldName("constructor").Kind() == "super",
		Args:  c.args(node.ChildByFieldName("arguments")),
		Loc:   loc,
	}
}

// Expressions

func (c *BuildContext) optExpr(node *sitter.Node) ast.Expr {
	if node == nil {
		return nil
	}
	return c.expr(node)
}

func (c *BuildContext) args(node *sitter.Node) []ast.Expr {
	var out []ast.Expr
	for _, child := range namedChildren(node) {
		out = append(out, c.expr(child))
	}
	return out
}

func (c *BuildContext) expr(node *sitter.Node) ast.Expr {
	if node == nil {
		return nil
	}
	loc := c.Location(node)
	switch node.Kind() {
	case "identifier":
		return &ast.NameExpr{Name: ast.NewName(loc, c.Text(node))}
	case "field_access":
		if parts, ok := c.nameChain(node); ok {
			return &ast.NameExpr{Name: ast.NewName(loc, parts...)}
		}
		field := node.ChildByFieldName("field")
		if field.Kind() != "identifier" || childOfKind(node, "super") != nil {
			c.Fail(node, "unsupported field access")
			return nil
		}
		return &ast.FieldAccess{
			X:     c.expr(node.ChildByFieldName("object")),
			Field: ast.NewName(c.Location(field), c.Text(field)),
			Loc:   loc,
		}
	case "method_invocation":
		return c.call(node)
	case "object_creation_expression":
		if node.Child(0).Kind() != "new" || childOfKind(node, "class_body") != nil {
			c.Fail(node, "only plain instance creation is supported")
			return nil
		}
		return &ast.NewExpr{
			Type: c.typeRef(node.ChildByFieldName("type")),
			Args: c.args(node.ChildByFieldName("arguments")),
			Loc:  loc,
		}
	case "array_creation_expression":
		dims := childrenByField(node, "dimensions")
		if len(dims) != 1 || dims[0].Kind() != "dimensions_expr" {
			c.Fail(node, "only one-dimensional array creation is supported")
			return nil
		}
		return &ast.NewArrayExpr{
			Type: c.typeRef(node.ChildByFieldName("type")),
			Size: c.expr(dims[0].NamedChild(0)),
			Loc:  loc,
		}
	case "array_access":
		return &ast.ArrayAccess{
			X:     c.expr(node.ChildByFieldName("array")),
			Index: c.expr(node.ChildByFieldName("index")),
			Loc:   loc,
		}
	case "assignment_expression":
		if op := node.ChildByFieldName("operator"); op.Kind() != "=" {
			c.Fail(op, "compound assignment %s is not supported", op.Kind())
		}
		return &ast.AssignExpr{
			L:   c.expr(node.ChildByFieldName("left")),
			R:   c.expr(node.ChildByFieldName("right")),
			Loc: loc,
		}
	case "binary_expression":
		op := node.ChildByFieldName("operator").Kind()
		switch op {
		case "<<", ">>", ">>>", "^":
			c.Fail(node, "operator %s is not supported", op)
		}
		return &ast.BinaryExpr{
			Op:  op,
			L:   c.expr(node.ChildByFieldName("left")),
			R:   c.expr(node.ChildByFieldName("right")),
			Loc: loc,
		}
	case "unary_expression":
		op := node.ChildByFieldName("operator").Kind()
		if op != "-" && op != "!" {
			c.Fail(node, "operator %s is not supported", op)
		}
		return &ast.UnaryExpr{Op: op, X: c.expr(node.ChildByFieldName("operand")), Loc: loc}
	case "cast_expression":
		if len(childrenByField(node, "type")) != 1 {
			c.Fail(node, "intersection casts are not supported")
		}
		return &ast.CastExpr{
			Type: c.typeRef(node.ChildByFieldName("type")),
			X:    c.expr(node.ChildByFieldName("value")),
			Loc:  loc,
		}
	case "instanceof_expression":
		if node.ChildByFieldName("right") == nil || node.ChildByFieldName("name") != nil {
			c.Fail(node, "instanceof patterns are not supported")
			return nil
		}
		return &ast.InstanceOfExpr{
			X:    c.expr(node.ChildByFieldName("left")),
			Type: c.typeRef(node.ChildByFieldName("right")),
			Loc:  loc,
		}
	case "parenthesized_expression":
		return &ast.ParenExpr{X: c.expr(node.NamedChild(0)), Loc: loc}
	case "this":
		return &ast.ThisExpr{Loc: loc}
	case "decimal_integer_literal":
		return &ast.Literal{Kind: ast.LitInt, Value: c.Text(node), Loc: loc}
	case "character_literal":
		return &ast.Literal{Kind: ast.LitChar, Value: c.Text(node), Loc: loc}
	case "string_literal":
		return &ast.Literal{Kind: ast.LitString, Value: c.Text(node), Loc: loc}
	case "true", "false":
		return &ast.Literal{Kind: ast.LitBool, Value: node.Kind(), Loc: loc}
	case "null_literal":
		return &ast.Literal{Kind: ast.LitNull, Value: "null", Loc: loc}
	}
	c.Fail(node, "unsupported expression %s", node.Kind())
	return nil
}

func (c *BuildContext) call(node *sitter.Node) ast.Expr {
	name := node.ChildByFieldName("name")
	call := &ast.CallExpr{
		Method: ast.NewName(c.Location(name), c.Text(name)),
		Loc:    c.Location(node),
	}
	if obj := node.ChildByFieldName("object"); obj != nil {
		if obj.Kind() == "super" || childOfKind(node, "super") != nil {
			c.Fail(node, "super method calls are not supported")
			return nil
		}
		call.Target = c.expr(obj)
	}
	call.Args = c.args(node.ChildByFieldName("arguments"))
	return call
}

// nameChain reports the identifiers of a.b.c when a field access is made
// only of simple names.
func (c *BuildContext) nameChain(node *sitter.Node) ([]string, bool) {
	switch node.Kind() {
	case "identifier":
		return []string{c.Text(node)}, true
	case "field_access":
		field := node.ChildByFieldName("field")
		if field == nil || field.Kind() != "identifier" || childOfKind(node, "super") != nil {
			return nil, false
		}
		parts, ok := c.nameChain(node.ChildByFieldName("object"))
		if !ok {
			return nil, false
		}
		return append(parts, c.Text(field)), true
	}
	return nil, false
}
