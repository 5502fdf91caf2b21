package resolver

import (
	"joosc/internal/engine/ast"
	"joosc/internal/engine/members"
)

type FrameKind int

const (
	FrameClass FrameKind = iota
	FrameMethod
	FrameBlock
)

type frame struct {
	kind   FrameKind
	locals map[string]*ast.LocalVar
	fields *members.Table
}

// ScopeStack is the lexical frame stack of one body walk: a class frame,
// then a method or constructor frame for parameters, then block frames for
// locals. Lookup searches innermost first, so an inner local hides an outer
// local or a field.
type ScopeStack struct {
	frames   []frame
	nextSlot int
}

// PushClass opens the class frame; its fields come from the member table,
// inherited ones included.
func (s *ScopeStack) PushClass(fields *members.Table) {
	s.frames = append(s.frames, frame{kind: FrameClass, fields: fields})
}

// PushMethod opens a method or constructor frame and restarts slot
// numbering.
func (s *ScopeStack) PushMethod() {
	s.nextSlot = 0
	s.frames = append(s.frames, frame{kind: FrameMethod})
}

func (s *ScopeStack) PushBlock() {
	s.frames = append(s.frames, frame{kind: FrameBlock})
}

func (s *ScopeStack) Pop() {
	if len(s.frames) == 0 {
		panic("resolver: pop of empty scope stack")
	}
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *ScopeStack) Depth() int { return len(s.frames) }

// Declare adds v to the innermost frame and assigns its slot. Slots are
// unique within one method frame.
func (s *ScopeStack) Declare(v *ast.LocalVar) {
	top := &s.frames[len(s.frames)-1]
	if top.locals == nil {
		top.locals = make(map[string]*ast.LocalVar)
	}
	v.Slot = s.nextSlot
	s.nextSlot++
	top.locals[v.Name] = v
}

// LookupLocal finds a local or parameter, innermost frame first. The class
// frame holds no locals.
func (s *ScopeStack) LookupLocal(name string) (*ast.LocalVar, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].locals[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// LookupField searches the class frames.
func (s *ScopeStack) LookupField(name string) (*ast.FieldDecl, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if f.kind != FrameClass || f.fields == nil {
			continue
		}
		if fd, ok := f.fields.Field(name); ok {
			return fd, true
		}
	}
	return nil, false
}
