// Package parser is the tree-sitter frontend that turns Joos source files
// into ast compilation units.
package parser

import (
	"context"
	"fmt"
	"joosc/internal/core/errors"
	"joosc/internal/engine/ast"
	"joosc/internal/shared/observability"
	"joosc/internal/shared/util"
	"os"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// SyntaxError is the first construct of a file that could not be parsed or
// falls outside the Joos subset.
type SyntaxError struct {
	Loc     ast.Location
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Message)
}

type Parser struct {
	loader *GrammarLoader
	pool   *ParserPool
	walker *Walker
}

func NewParser(loader *GrammarLoader) (*Parser, error) {
	lang, ok := loader.Language(LanguageJava)
	if !ok {
		return nil, errors.New(errors.CodeInternal, "java grammar not registered")
	}
	p := &Parser{loader: loader, pool: NewParserPool(lang)}
	p.walker = NewWalker(map[string]NodeHandler{
		"package_declaration":   (*BuildContext).packageDecl,
		"import_declaration":    (*BuildContext).importDecl,
		"class_declaration":     (*BuildContext).classDecl,
		"interface_declaration": (*BuildContext).interfaceDecl,
		"line_comment":          skip,
		"block_comment":         skip,
	})
	return p, nil
}

func skip(*BuildContext, *sitter.Node) bool { return true }

// ParseFile parses one compilation unit. Failures are DomainErrors with code
// PARSE_ERROR wrapping a *SyntaxError.
func (p *Parser) ParseFile(path string, content []byte) (*ast.CompilationUnit, error) {
	start := time.Now()
	defer func() { observability.ParsingDuration.Observe(time.Since(start).Seconds()) }()

	if _, ok := p.loader.LanguageForPath(path); !ok {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "not a java source file"), errors.CtxPath, path)
	}

	if loc, ok := firstNonASCII(path, content); ok {
		err := &SyntaxError{Loc: loc, Message: "non-ASCII character in input"}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeParseError, "parse failed"), errors.CtxPath, path)
	}

	sp := p.pool.Get()
	defer p.pool.Put(sp)
	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeInternal, "parser returned no tree"), errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	ctx := &BuildContext{
		Source: content,
		Unit:   &ast.CompilationUnit{Path: path, Loc: ast.Location{File: path, Line: 1, Column: 1}},
	}
	if bad := firstError(root); bad != nil {
		if bad.IsMissing() {
			ctx.Fail(bad, "missing %s", bad.Kind())
		} else {
			ctx.Fail(bad, "syntax error near %q", firstLine(ctx.Text(bad)))
		}
	} else {
		p.walker.Walk(ctx, root)
		if ctx.Err() == nil && ctx.Unit.Type == nil {
			ctx.Fail(root, "no type declared in %s", path)
		}
		if t := ctx.Unit.Type; ctx.Err() == nil && t.Name != unitName(path) {
			ctx.Fail(root, "type %s must be declared in %s.java", t.Name, t.Name)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeParseError, "parse failed"), errors.CtxPath, path)
	}
	return ctx.Unit, nil
}

// ParseFiles reads and parses paths on at most workers goroutines. Units are
// returned in input order; the first failure in that order is returned.
func (p *Parser) ParseFiles(ctx context.Context, paths []string, workers int) ([]*ast.CompilationUnit, error) {
	units := make([]*ast.CompilationUnit, len(paths))
	errs := make([]error, len(paths))
	util.ForEach(ctx, len(paths), workers, func(i int) {
		content, err := os.ReadFile(paths[i])
		if err != nil {
			errs[i] = errors.AddContext(errors.Wrap(err, errors.CodeIO, "read source"), errors.CtxPath, paths[i])
			return
		}
		units[i], errs[i] = p.ParseFile(paths[i], content)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return units, nil
}

// firstError finds the earliest ERROR or missing node, or nil.
func firstError(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if bad := firstError(node.Child(i)); bad != nil {
			return bad
		}
	}
	return node
}

// unitName is the type name a file must declare: its base name without
// extension.
func unitName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func firstNonASCII(path string, content []byte) (ast.Location, bool) {
	line, col := 1, 1
	for _, b := range content {
		if b > 127 {
			return ast.Location{File: path, Line: line, Column: col}, true
		}
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return ast.Location{}, false
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
