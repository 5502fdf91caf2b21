package imports

import (
	"context"
	"joosc/internal/engine/ast"
	"joosc/internal/engine/diag"
	"joosc/internal/engine/symbols"
	"joosc/internal/shared/util"
)

// Scopes maps each compilation unit to its import scope.
type Scopes map[*ast.CompilationUnit]*Scope

// ForType returns the scope of the unit declaring decl.
func (s Scopes) ForType(decl *ast.TypeDecl) *Scope {
	if decl == nil || decl.Unit == nil {
		return nil
	}
	return s[decl.Unit]
}

// ResolveAll resolves every unit's imports, one task per unit. Each task
// only reads the table and writes its own scope.
func ResolveAll(ctx context.Context, units []*ast.CompilationUnit, table *symbols.Table, opts Options, workers int) (Scopes, diag.List) {
	scopes := make([]*Scope, len(units))
	results := make([]diag.List, len(units))

	util.ForEach(ctx, len(units), workers, func(i int) {
		if units[i] == nil {
			return
		}
		scopes[i], results[i] = Resolve(units[i], table, opts)
	})

	out := make(Scopes, len(units))
	var diags diag.List
	for i, unit := range units {
		if unit == nil {
			continue
		}
		out[unit] = scopes[i]
		diags.Merge(results[i])
	}
	return out, diags
}
