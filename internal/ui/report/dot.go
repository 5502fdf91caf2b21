package report

import (
	"fmt"
	"joosc/internal/engine/ast"
	"joosc/internal/engine/hierarchy"
	"joosc/internal/engine/symbols"
	"joosc/internal/shared/util"
	"strings"
)

// GenerateDOT renders the inheritance graph for Graphviz: one cluster per
// package, solid edges for extends and dashed edges for implements.
func GenerateDOT(g *hierarchy.Graph) string {
	var buf strings.Builder

	buf.WriteString("digraph hierarchy {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2, arrowhead=empty];\n")
	buf.WriteString("  ranksep=1.0;\n")
	buf.WriteString("  nodesep=0.6;\n\n")

	table := g.Table()
	byPackage := make(map[string][]symbols.Handle)
	for _, h := range g.Order() {
		decl := table.Decl(h)
		byPackage[packageOf(decl)] = append(byPackage[packageOf(decl)], h)
	}

	for i, pkg := range util.SortedStringKeys(byPackage) {
		label := pkg
		if label == "" {
			label = "(default package)"
		}
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", label)
		buf.WriteString("    style=filled;\n")
		buf.WriteString("    color=\"whitesmoke\";\n")
		for _, h := range byPackage[pkg] {
			decl := table.Decl(h)
			switch {
			case decl.Synthetic:
				fmt.Fprintf(&buf, "    %q [label=%q, style=\"rounded,dashed\", color=\"grey\"];\n", decl.QualifiedName(), decl.Name)
			case decl.IsInterface():
				fmt.Fprintf(&buf, "    %q [label=%q, shape=ellipse, fontname=\"Helvetica-Oblique\", color=\"steelblue\"];\n", decl.QualifiedName(), decl.Name)
			default:
				fmt.Fprintf(&buf, "    %q [label=%q, color=\"darkslategrey\"];\n", decl.QualifiedName(), decl.Name)
			}
		}
		buf.WriteString("  }\n\n")
	}

	for _, h := range g.Order() {
		from := table.Decl(h).QualifiedName()
		if super := g.Superclass(h); super != symbols.NoHandle {
			fmt.Fprintf(&buf, "  %q -> %q;\n", from, table.Decl(super).QualifiedName())
		}
		for _, iface := range g.Interfaces(h) {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=\"steelblue\"];\n", from, table.Decl(iface).QualifiedName())
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func packageOf(decl *ast.TypeDecl) string {
	if decl.Unit != nil {
		return decl.Unit.PackageName()
	}
	qname := decl.QualifiedName()
	if idx := strings.LastIndex(qname, "."); idx >= 0 {
		return qname[:idx]
	}
	return ""
}
