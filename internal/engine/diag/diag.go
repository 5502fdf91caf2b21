// Package diag defines the structured diagnostics produced by the resolution
// phases. Formatting for humans is left to the caller.
package diag

import (
	"errors"
	"fmt"
	"joosc/internal/engine/ast"
	"sort"
	"strings"
)

type Kind string

const (
	KindDuplicateDeclaration    Kind = "DuplicateDeclaration"
	KindUnresolvedImport        Kind = "UnresolvedImport"
	KindConflictingImport       Kind = "ConflictingImport"
	KindInheritanceCycle        Kind = "InheritanceCycle"
	KindIllegalInheritanceShape Kind = "IllegalInheritanceShape"
	KindIncompatibleInheritance Kind = "IncompatibleInheritance"
	KindUnresolvedName          Kind = "UnresolvedName"
)

// Kinds lists every diagnostic kind in a stable order.
var Kinds = []Kind{
	KindDuplicateDeclaration,
	KindUnresolvedImport,
	KindConflictingImport,
	KindInheritanceCycle,
	KindIllegalInheritanceShape,
	KindIncompatibleInheritance,
	KindUnresolvedName,
}

// Fatal reports whether a diagnostic of this kind stops later phases from
// running.
func (k Kind) Fatal() bool {
	switch k {
	case KindDuplicateDeclaration, KindUnresolvedImport, KindInheritanceCycle,
		KindIllegalInheritanceShape, KindIncompatibleInheritance:
		return true
	}
	return false
}

type Diagnostic struct {
	Kind    Kind
	Primary ast.Location
	Related []ast.Location
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Primary, d.Kind, d.Message)
}

type List []Diagnostic

func (l *List) Add(kind Kind, at ast.Location, format string, args ...any) {
	*l = append(*l, Diagnostic{Kind: kind, Primary: at, Message: fmt.Sprintf(format, args...)})
}

func (l *List) AddRelated(kind Kind, at ast.Location, related []ast.Location, format string, args ...any) {
	*l = append(*l, Diagnostic{
		Kind:    kind,
		Primary: at,
		Related: append([]ast.Location(nil), related...),
		Message: fmt.Sprintf(format, args...),
	})
}

func (l *List) Merge(other List) {
	*l = append(*l, other...)
}

func (l List) HasFatal() bool {
	for _, d := range l {
		if d.Kind.Fatal() {
			return true
		}
	}
	return false
}

// Count returns how many diagnostics of kind the list holds.
func (l List) Count(kind Kind) int {
	n := 0
	for _, d := range l {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Sort orders diagnostics by primary location, then kind, then message.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i], l[j]
		if a.Primary != b.Primary {
			return a.Primary.Before(b.Primary)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Message < b.Message
	})
}

// Err wraps a non-empty list into an *Error.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	out.Sort()
	return &Error{Diagnostics: out}
}

// Error carries the complete diagnostic set of a failed run.
type Error struct {
	Diagnostics List
}

func (e *Error) Error() string {
	if len(e.Diagnostics) == 1 {
		return e.Diagnostics[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d diagnostics", len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		b.WriteString("\n  ")
		b.WriteString(d.String())
	}
	return b.String()
}

// FromError extracts the diagnostics carried by err, if any.
func FromError(err error) (List, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Diagnostics, true
	}
	return nil, false
}
