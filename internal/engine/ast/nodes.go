package ast

// Node is implemented by every statement and expression.
type Node interface {
	Pos() Location
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

type Block struct {
	Stmts []Stmt
	Loc   Location
}

type LocalVarStmt struct {
	Var  *LocalVar
	Init Expr
	Loc  Location
}

type ExprStmt struct {
	X   Expr
	Loc Location
}

type ReturnStmt struct {
	X   Expr // nil for a bare return
	Loc Location
}

type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt
	Loc  Location
}

type WhileStmt struct {
	Cond Expr
	Body Stmt
	Loc  Location
}

// ForStmt introduces its own scope for Init.
type ForStmt struct {
	Init   Stmt
	Cond   Expr
	Update []Expr
	Body   Stmt
	Loc    Location
}

type EmptyStmt struct {
	Loc Location
}

// ExplicitCtorCall is `this(...)` or `super(...)` as the first statement of
// a constructor body.
type ExplicitCtorCall struct {
	Super bool
	Args  []Expr
	Loc   Location
	Slot
}

func (s *Block) Pos() Location            { return s.Loc }
func (s *LocalVarStmt) Pos() Location     { return s.Loc }
func (s *ExprStmt) Pos() Location         { return s.Loc }
func (s *ReturnStmt) Pos() Location       { return s.Loc }
func (s *IfStmt) Pos() Location           { return s.Loc }
func (s *WhileStmt) Pos() Location        { return s.Loc }
func (s *ForStmt) Pos() Location          { return s.Loc }
func (s *EmptyStmt) Pos() Location        { return s.Loc }
func (s *ExplicitCtorCall) Pos() Location { return s.Loc }

func (*Block) stmtNode()            {}
func (*LocalVarStmt) stmtNode()     {}
func (*ExprStmt) stmtNode()         {}
func (*ReturnStmt) stmtNode()       {}
func (*IfStmt) stmtNode()           {}
func (*WhileStmt) stmtNode()        {}
func (*ForStmt) stmtNode()          {}
func (*EmptyStmt) stmtNode()        {}
func (*ExplicitCtorCall) stmtNode() {}

type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitChar
	LitString
	LitBool
	LitNull
)

// NameExpr is an expression made only of a (possibly dotted) name; whether
// the dots are package qualifiers or member accesses is decided during
// resolution.
type NameExpr struct {
	Name *Name
}

type Literal struct {
	Kind  LiteralKind
	Value string
	Loc   Location
}

type ThisExpr struct {
	Loc Location
}

// NewExpr is `new T(args)`; its slot receives the constructor candidates.
type NewExpr struct {
	Type *TypeRef
	Args []Expr
	Loc  Location
	Slot
}

// CallExpr is `m(args)` or `target.m(args)`. Method receives the candidate
// set binding.
type CallExpr struct {
	Target Expr // nil for an unqualified call
	Method *Name
	Args   []Expr
	Loc    Location
}

type FieldAccess struct {
	X     Expr
	Field *Name
	Loc   Location
}

type BinaryExpr struct {
	Op   string
	L, R Expr
	Loc  Location
}

type UnaryExpr struct {
	Op  string
	X   Expr
	Loc Location
}

type AssignExpr struct {
	L, R Expr
	Loc  Location
}

type CastExpr struct {
	Type *TypeRef
	X    Expr
	Loc  Location
}

type InstanceOfExpr struct {
	X    Expr
	Type *TypeRef
	Loc  Location
}

type ArrayAccess struct {
	X, Index Expr
	Loc      Location
}

type NewArrayExpr struct {
	Type *TypeRef // element type
	Size Expr
	Loc  Location
}

type ParenExpr struct {
	X   Expr
	Loc Location
}

func (e *NameExpr) Pos() Location       { return e.Name.Loc }
func (e *Literal) Pos() Location        { return e.Loc }
func (e *ThisExpr) Pos() Location       { return e.Loc }
func (e *NewExpr) Pos() Location        { return e.Loc }
func (e *CallExpr) Pos() Location       { return e.Loc }
func (e *FieldAccess) Pos() Location    { return e.Loc }
func (e *BinaryExpr) Pos() Location     { return e.Loc }
func (e *UnaryExpr) Pos() Location      { return e.Loc }
func (e *AssignExpr) Pos() Location     { return e.Loc }
func (e *CastExpr) Pos() Location       { return e.Loc }
func (e *InstanceOfExpr) Pos() Location { return e.Loc }
func (e *ArrayAccess) Pos() Location    { return e.Loc }
func (e *NewArrayExpr) Pos() Location   { return e.Loc }
func (e *ParenExpr) Pos() Location      { return e.Loc }

func (*NameExpr) exprNode()       {}
func (*Literal) exprNode()        {}
func (*ThisExpr) exprNode()       {}
func (*NewExpr) exprNode()        {}
func (*CallExpr) exprNode()       {}
func (*FieldAccess) exprNode()    {}
func (*BinaryExpr) exprNode()     {}
func (*UnaryExpr) exprNode()      {}
func (*AssignExpr) exprNode()     {}
func (*CastExpr) exprNode()       {}
func (*InstanceOfExpr) exprNode() {}
func (*ArrayAccess) exprNode()    {}
func (*NewArrayExpr) exprNode()   {}
func (*ParenExpr) exprNode()      {}
