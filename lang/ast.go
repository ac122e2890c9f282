package lang

// Node is any element of a parsed logical line.
type Node interface {
	Pos() Position
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

type (
	// Literal is a constant value.
	Literal struct {
		Value Value
		At    Position
	}

	// Name references a binding.
	Name struct {
		Name string
		At   Position
	}

	// ListExpr is a list display, or a parenthesized tuple.
	ListExpr struct {
		Elems []Expr
		At    Position
	}

	// MapExpr is a mapping display.
	MapExpr struct {
		Keys   []Expr
		Values []Expr
		At     Position
	}

	// UnaryExpr is a prefix arithmetic operator.
	UnaryExpr struct {
		Op string
		X  Expr
		At Position
	}

	// BinaryExpr is an infix arithmetic operator.
	BinaryExpr struct {
		Op   string
		X, Y Expr
		At   Position
	}

	// LogicalExpr is a short-circuit "and" or "or".
	LogicalExpr struct {
		Op   string
		X, Y Expr
		At   Position
	}

	// NotExpr is boolean negation.
	NotExpr struct {
		X  Expr
		At Position
	}

	// CompareExpr is a chain of comparisons: X op0 Y0 op1 Y1 ...
	CompareExpr struct {
		X   Expr
		Ops []string
		Ys  []Expr
		At  Position
	}

	// CondExpr is "Then if Cond else Else".
	CondExpr struct {
		Cond, Then, Else Expr
		At               Position
	}

	// CallExpr applies Fn to Args.
	CallExpr struct {
		Fn   Expr
		Args []Expr
		At   Position
	}

	// IndexExpr is X[Index].
	IndexExpr struct {
		X, Index Expr
		At       Position
	}

	// SliceExpr is X[Lo:Hi:Step]; any bound may be nil.
	SliceExpr struct {
		X, Lo, Hi, Step Expr
		At              Position
	}

	// AttrExpr is X.Name.
	AttrExpr struct {
		X    Expr
		Name string
		At   Position
	}

	// LambdaExpr is an anonymous function literal.
	LambdaExpr struct {
		Params []string
		Body   Expr
		At     Position
	}

	// ImportExpr is an inline "import NAME".
	ImportExpr struct {
		Module string
		At     Position
	}
)

type (
	// ExprStmt evaluates an expression for its effects.
	ExprStmt struct {
		X Expr
	}

	// AssignStmt binds Value to one or more comma-separated targets.
	AssignStmt struct {
		Targets []Expr
		Value   Expr
		At      Position
	}

	// AugAssignStmt is "Target Op= Value".
	AugAssignStmt struct {
		Target Expr
		Op     string
		Value  Expr
		At     Position
	}

	// PassStmt does nothing.
	PassStmt struct {
		At Position
	}

	// ReturnStmt leaves the current function.
	ReturnStmt struct {
		Value Expr // nil for a bare return
		At    Position
	}

	// BreakStmt leaves the innermost loop.
	BreakStmt struct {
		At Position
	}

	// DelStmt removes bindings, list elements or map entries.
	DelStmt struct {
		Targets []Expr
		At      Position
	}

	// ImportStmt is "import a, b" inside a statement sequence.
	ImportStmt struct {
		Modules []string
		At      Position
	}

	// FromStmt is "from m import a, b" inside a statement sequence.
	FromStmt struct {
		Module string
		Names  []string
		At     Position
	}

	// RawStmt is a block statement (for, while, if, try, def, class) kept as
	// source text and executed by re-entering the dispatcher.
	RawStmt struct {
		Keyword string
		Text    string
		At      Position
	}
)

// Program is a ';'-separated statement sequence.
type Program struct {
	Stmts []Stmt
}

func (n *Literal) Pos() Position     { return n.At }
func (n *Name) Pos() Position        { return n.At }
func (n *ListExpr) Pos() Position    { return n.At }
func (n *MapExpr) Pos() Position     { return n.At }
func (n *UnaryExpr) Pos() Position   { return n.At }
func (n *BinaryExpr) Pos() Position  { return n.At }
func (n *LogicalExpr) Pos() Position { return n.At }
func (n *NotExpr) Pos() Position     { return n.At }
func (n *CompareExpr) Pos() Position { return n.At }
func (n *CondExpr) Pos() Position    { return n.At }
func (n *CallExpr) Pos() Position    { return n.At }
func (n *IndexExpr) Pos() Position   { return n.At }
func (n *SliceExpr) Pos() Position   { return n.At }
func (n *AttrExpr) Pos() Position    { return n.At }
func (n *LambdaExpr) Pos() Position  { return n.At }
func (n *ImportExpr) Pos() Position  { return n.At }

func (*Literal) exprNode()     {}
func (*Name) exprNode()        {}
func (*ListExpr) exprNode()    {}
func (*MapExpr) exprNode()     {}
func (*UnaryExpr) exprNode()   {}
func (*BinaryExpr) exprNode()  {}
func (*LogicalExpr) exprNode() {}
func (*NotExpr) exprNode()     {}
func (*CompareExpr) exprNode() {}
func (*CondExpr) exprNode()    {}
func (*CallExpr) exprNode()    {}
func (*IndexExpr) exprNode()   {}
func (*SliceExpr) exprNode()   {}
func (*AttrExpr) exprNode()    {}
func (*LambdaExpr) exprNode()  {}
func (*ImportExpr) exprNode()  {}

func (n *ExprStmt) Pos() Position      { return n.X.Pos() }
func (n *AssignStmt) Pos() Position    { return n.At }
func (n *AugAssignStmt) Pos() Position { return n.At }
func (n *PassStmt) Pos() Position      { return n.At }
func (n *ReturnStmt) Pos() Position    { return n.At }
func (n *BreakStmt) Pos() Position     { return n.At }
func (n *DelStmt) Pos() Position       { return n.At }
func (n *ImportStmt) Pos() Position    { return n.At }
func (n *FromStmt) Pos() Position      { return n.At }
func (n *RawStmt) Pos() Position       { return n.At }

func (*ExprStmt) stmtNode()      {}
func (*AssignStmt) stmtNode()    {}
func (*AugAssignStmt) stmtNode() {}
func (*PassStmt) stmtNode()      {}
func (*ReturnStmt) stmtNode()    {}
func (*BreakStmt) stmtNode()     {}
func (*DelStmt) stmtNode()       {}
func (*ImportStmt) stmtNode()    {}
func (*FromStmt) stmtNode()      {}
func (*RawStmt) stmtNode()       {}

// Inspect traverses the tree rooted at n in depth-first order, calling fn
// for each node. Children are skipped when fn returns false.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	visit := func(children ...Node) {
		for _, c := range children {
			if c != nil {
				Inspect(c, fn)
			}
		}
	}

	switch n := n.(type) {
	case *ListExpr:
		for _, e := range n.Elems {
			visit(e)
		}
	case *MapExpr:
		for i := range n.Keys {
			visit(n.Keys[i], n.Values[i])
		}
	case *UnaryExpr:
		visit(n.X)
	case *BinaryExpr:
		visit(n.X, n.Y)
	case *LogicalExpr:
		visit(n.X, n.Y)
	case *NotExpr:
		visit(n.X)
	case *CompareExpr:
		visit(n.X)

		for _, y := range n.Ys {
			visit(y)
		}
	case *CondExpr:
		visit(n.Cond, n.Then, n.Else)
	case *CallExpr:
		visit(n.Fn)

		for _, a := range n.Args {
			visit(a)
		}
	case *IndexExpr:
		visit(n.X, n.Index)
	case *SliceExpr:
		visit(n.X)

		for _, b := range []Expr{n.Lo, n.Hi, n.Step} {
			if b != nil {
				visit(b)
			}
		}
	case *AttrExpr:
		visit(n.X)
	case *LambdaExpr:
		visit(n.Body)
	case *ExprStmt:
		visit(n.X)
	case *AssignStmt:
		for _, t := range n.Targets {
			visit(t)
		}

		visit(n.Value)
	case *AugAssignStmt:
		visit(n.Target, n.Value)
	case *ReturnStmt:
		if n.Value != nil {
			visit(n.Value)
		}
	case *DelStmt:
		for _, t := range n.Targets {
			visit(t)
		}
	case *Program:
		for _, s := range n.Stmts {
			visit(s)
		}
	}
}

// Pos returns the position of the first statement.
func (p *Program) Pos() Position {
	if len(p.Stmts) == 0 {
		return Position{Line: 1, Column: 1}
	}

	return p.Stmts[0].Pos()
}
