// Package report renders resolution results for humans (lipgloss text) and
// for tools (SARIF).
package report

import (
	"fmt"
	"io"
	"joosc/internal/engine/ast"
	"joosc/internal/engine/diag"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Summary describes one resolution run.
type Summary struct {
	Files       int
	Types       int
	Duration    time.Duration
	Diagnostics diag.List
	// Failed marks a run stopped before resolution, e.g. by a syntax error.
	Failed bool
}

// Printer writes styled reports. Colors follow the terminal profile of the
// writer, so a plain buffer gets unstyled text.
type Printer struct {
	out  io.Writer
	root string

	title   lipgloss.Style
	file    lipgloss.Style
	loc     lipgloss.Style
	fatal   lipgloss.Style
	name    lipgloss.Style
	related lipgloss.Style
	success lipgloss.Style
	status  lipgloss.Style
}

// NewPrinter returns a printer for out. Paths under root are shown relative
// to it.
func NewPrinter(out io.Writer, root string) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:     out,
		root:    root,
		title:   r.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
		file:    r.NewStyle().Underline(true),
		loc:     r.NewStyle().Foreground(lipgloss.Color("#64748B")),
		fatal:   r.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
		name:    r.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true),
		related: r.NewStyle().Foreground(lipgloss.Color("#64748B")).Italic(true),
		success: r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		status:  r.NewStyle().Foreground(lipgloss.Color("#64748B")).Italic(true),
	}
}

// KindStyle picks the style a diagnostic kind is labelled with: structural
// errors in red, name errors in amber.
func (p *Printer) KindStyle(k diag.Kind) lipgloss.Style {
	if k.Fatal() {
		return p.fatal
	}
	return p.name
}

// Diagnostics prints list grouped by file in location order.
func (p *Printer) Diagnostics(list diag.List) {
	sorted := make(diag.List, len(list))
	copy(sorted, list)
	sorted.Sort()

	current := "\x00"
	for _, d := range sorted {
		if d.Primary.File != current {
			if current != "\x00" {
				fmt.Fprintln(p.out)
			}
			current = d.Primary.File
			name := p.relative(current)
			if name == "" {
				name = "<unknown file>"
			}
			fmt.Fprintln(p.out, p.file.Render(name))
		}
		fmt.Fprintf(p.out, "  %s %s %s\n",
			p.loc.Render(fmt.Sprintf("%d:%d", d.Primary.Line, d.Primary.Column)),
			p.KindStyle(d.Kind).Render(string(d.Kind)),
			d.Message)
		for _, rel := range d.Related {
			fmt.Fprintf(p.out, "      %s\n", p.related.Render("see "+p.Location(rel.File, rel.Line, rel.Column)))
		}
	}
}

// Failure prints an error that stopped the run before resolution, such as a
// syntax error.
func (p *Printer) Failure(label string, loc ast.Location, message string) {
	if loc.File == "" && loc.Line == 0 {
		fmt.Fprintf(p.out, "%s %s\n", p.fatal.Render(label), message)
		return
	}
	fmt.Fprintf(p.out, "%s %s %s\n",
		p.loc.Render(p.Location(loc.File, loc.Line, loc.Column)),
		p.fatal.Render(label),
		message)
}

// Summary prints the one-line run status followed by per-kind counts.
func (p *Printer) Summary(s Summary) {
	status := p.status.Render(fmt.Sprintf("%d files | %d types | %s",
		s.Files, s.Types, s.Duration.Round(time.Millisecond)))
	if s.Failed && len(s.Diagnostics) == 0 {
		fmt.Fprintf(p.out, "%s %s | %s\n", p.title.Render("joosc"), status, p.fatal.Render("failed"))
		return
	}
	if len(s.Diagnostics) == 0 {
		fmt.Fprintf(p.out, "%s %s | %s\n", p.title.Render("joosc"), status, p.success.Render("resolved"))
		return
	}
	parts := make([]string, 0, len(diag.Kinds))
	for _, k := range diag.Kinds {
		if n := s.Diagnostics.Count(k); n > 0 {
			parts = append(parts, p.KindStyle(k).Render(fmt.Sprintf("%d %s", n, k)))
		}
	}
	fmt.Fprintf(p.out, "%s %s | %s\n", p.title.Render("joosc"), status, strings.Join(parts, ", "))
}

// Location formats a position with the file relative to the printer root.
func (p *Printer) Location(file string, line, col int) string {
	if file == "" {
		return fmt.Sprintf("%d:%d", line, col)
	}
	return fmt.Sprintf("%s:%d:%d", p.relative(file), line, col)
}

func (p *Printer) relative(path string) string {
	if p.root == "" || !filepath.IsAbs(path) {
		return path
	}
	if rel, err := filepath.Rel(p.root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
