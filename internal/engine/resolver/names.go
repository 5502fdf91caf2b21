package resolver

import (
	"errors"
	"joosc/internal/engine/ast"
	"joosc/internal/engine/diag"
	"joosc/internal/engine/imports"
	"strings"
)

// name resolves a simple or qualified name in expression position and binds
// the node to what its last segment denotes.
func (w *walker) name(n *ast.Name) value {
	if n == nil || len(n.Parts) == 0 {
		return value{}
	}
	if b := n.Binding(); b != nil {
		return valueOf(b)
	}
	if n.IsSimple() {
		v, b, ok := w.simple(n.Parts[0], n.Loc)
		if ok {
			n.Bind(b)
		}
		return v
	}

	// Package or type readings first, then the first segment as a local or
	// field with the rest as member accesses. The first reading that
	// resolves every segment wins.
	var fail *chainFailure
	if k, decl, ok := w.packageType(n.Parts); ok {
		if v, ok := w.chain(n, typeValue(decl), ast.Binding{Kind: ast.BindType, Type: decl}, k+1, &fail); ok {
			return v
		}
	}
	head := n.Parts[0]
	if decl, err := w.scope.LookupType(head); err == nil {
		if v, ok := w.chain(n, typeValue(decl), ast.Binding{Kind: ast.BindType, Type: decl}, 1, &fail); ok {
			return v
		}
	}
	if v, b, ok := w.lookupVariable(head); ok {
		if v, ok := w.chain(n, v, b, 1, &fail); ok {
			return v
		}
	}
	if fail != nil {
		w.diags.Add(diag.KindUnresolvedName, n.Loc, "cannot resolve %s in %s", fail.seg, fail.owner)
	} else {
		w.diags.Add(diag.KindUnresolvedName, n.Loc, "cannot resolve name %s", n)
	}
	return value{}
}

// chainFailure records where the first attempted reading of a qualified
// name stopped.
type chainFailure struct {
	seg, owner string
}

// packageType finds the longest prefix parts[:k] naming a package whose
// member parts[k] is a type.
func (w *walker) packageType(parts []string) (int, *ast.TypeDecl, bool) {
	table := w.r.table
	for k := len(parts) - 1; k >= 1; k-- {
		pkg := strings.Join(parts[:k], ".")
		if !table.IsPackage(pkg) {
			continue
		}
		if decl, ok := table.PackageMember(pkg, parts[k]); ok {
			return k, decl, true
		}
	}
	return 0, nil, false
}

// chain applies field accesses parts[from:] to v and binds n to the final
// step. On failure nothing is bound and *fail is set unless an earlier
// reading already failed.
func (w *walker) chain(n *ast.Name, v value, b ast.Binding, from int, fail **chainFailure) (value, bool) {
	for i := from; i < len(n.Parts); i++ {
		seg := n.Parts[i]
		next, nb, ok := w.step(v, seg)
		if !ok {
			if *fail == nil {
				*fail = &chainFailure{seg: seg, owner: strings.Join(n.Parts[:i], ".")}
			}
			return value{}, false
		}
		v, b = next, nb
		if nb.Kind == ast.BindDeferred {
			break
		}
	}
	n.Bind(b)
	return v, true
}

// member resolves a field access node whose receiver was already resolved.
func (w *walker) member(recv value, field *ast.Name, loc ast.Location) value {
	if b := field.Binding(); b != nil {
		return valueOf(b)
	}
	if recv.kind == valNone {
		return value{}
	}
	v, b, ok := w.step(recv, field.Last())
	if !ok {
		w.diags.Add(diag.KindUnresolvedName, loc, "cannot resolve field %s", field)
		return value{}
	}
	field.Bind(b)
	return v
}

// step accesses seg on v. A receiver whose type is not statically known
// yields a deferred binding.
func (w *walker) step(v value, seg string) (value, ast.Binding, bool) {
	switch v.kind {
	case valPackage:
		return value{}, ast.Binding{}, false
	case valExpr:
		if v.dims > 0 && seg == "length" {
			return primitive("int"), ast.Binding{Kind: ast.BindArrayLength}, true
		}
		if v.dims == 0 && v.prim != "" {
			return value{}, ast.Binding{}, false
		}
		if v.decl == nil && v.dims == 0 {
			return unknown(), ast.Binding{Kind: ast.BindDeferred}, true
		}
	}
	table := w.tableOf(v)
	if table == nil {
		return unknown(), ast.Binding{Kind: ast.BindDeferred}, true
	}
	f, ok := table.Field(seg)
	if !ok {
		return value{}, ast.Binding{}, false
	}
	return exprOf(f.Type), ast.Binding{Kind: ast.BindField, Field: f}, true
}

// simple resolves a lone simple name and reports a failure.
func (w *walker) simple(name string, loc ast.Location) (value, ast.Binding, bool) {
	v, b, ok := w.lookupSimple(name)
	if ok {
		return v, b, true
	}
	if _, err := w.scope.LookupType(name); errors.Is(err, imports.ErrAmbiguous) {
		w.diags.Add(diag.KindUnresolvedName, loc, "%s", imports.TypeNameMessage(ast.NewName(loc, name), err))
	} else {
		w.diags.Add(diag.KindUnresolvedName, loc, "cannot resolve name %s", name)
	}
	return value{}, ast.Binding{}, false
}

// lookupSimple applies the simple name order: local or parameter, field of
// the enclosing class, then a type visible through the import scope.
func (w *walker) lookupSimple(name string) (value, ast.Binding, bool) {
	if v, b, ok := w.lookupVariable(name); ok {
		return v, b, true
	}
	if decl, err := w.scope.LookupType(name); err == nil {
		return typeValue(decl), ast.Binding{Kind: ast.BindType, Type: decl}, true
	}
	return value{}, ast.Binding{}, false
}

// lookupVariable finds a local, parameter or field of the enclosing class.
func (w *walker) lookupVariable(name string) (value, ast.Binding, bool) {
	if v, ok := w.stack.LookupLocal(name); ok {
		return exprOf(v.Type), ast.Binding{Kind: ast.BindLocal, Local: v}, true
	}
	if f, ok := w.stack.LookupField(name); ok {
		return exprOf(f.Type), ast.Binding{Kind: ast.BindField, Field: f}, true
	}
	return value{}, ast.Binding{}, false
}
