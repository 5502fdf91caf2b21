package hierarchy

import (
	"joosc/internal/engine/ast"
	"joosc/internal/engine/diag"
	"joosc/internal/engine/symbols"
	"sort"
	"strconv"
	"strings"
)

const (
	white uint8 = iota
	gray
	black
)

// detectCycles runs an iterative three-color DFS over the supertype edges.
// An edge into a gray node closes a cycle; each distinct member set is
// reported once. Finished nodes are appended to g.order, which yields
// supertypes before subtypes.
func (g *Graph) detectCycles() diag.List {
	n := len(g.supers)
	color := make([]uint8, n)
	next := make([]int, n)
	depth := make([]int, n)
	stack := make([]symbols.Handle, 0, 16)
	reported := make(map[string]bool)
	g.order = make([]symbols.Handle, 0, n)

	var diags diag.List
	for start := 0; start < n; start++ {
		if color[start] != white {
			continue
		}
		color[start] = gray
		depth[start] = 0
		stack = append(stack[:0], symbols.Handle(start))

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			edges := g.supers[top]
			if next[top] == len(edges) {
				color[top] = black
				g.order = append(g.order, top)
				stack = stack[:len(stack)-1]
				continue
			}
			to := edges[next[top]]
			next[top]++

			switch color[to] {
			case white:
				color[to] = gray
				depth[to] = len(stack)
				stack = append(stack, to)
			case gray:
				members := append([]symbols.Handle(nil), stack[depth[to]:]...)
				key := cycleKey(members)
				if reported[key] {
					continue
				}
				reported[key] = true
				g.reportCycle(&diags, members)
			}
		}
	}
	return diags
}

func (g *Graph) reportCycle(diags *diag.List, members []symbols.Handle) {
	decls := make([]*ast.TypeDecl, len(members))
	for i, h := range members {
		decls[i] = g.table.Decl(h)
	}
	related := make([]ast.Location, 0, len(decls)-1)
	for _, d := range decls[1:] {
		related = append(related, d.Loc)
	}
	path := joinNames(append(decls, decls[0]))
	if len(decls) == 1 {
		diags.AddRelated(diag.KindInheritanceCycle, decls[0].Loc, related,
			"type %s inherits from itself", decls[0].QualifiedName())
		return
	}
	diags.AddRelated(diag.KindInheritanceCycle, decls[0].Loc, related,
		"inheritance cycle %s", path)
}

func cycleKey(members []symbols.Handle) string {
	sorted := append([]symbols.Handle(nil), members...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var b strings.Builder
	for i, h := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(h)))
	}
	return b.String()
}
