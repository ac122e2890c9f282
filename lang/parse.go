package lang

import (
	"log/slog"
	"strings"
)

// Words that open a block statement. Inside a statement sequence they
// capture the rest of the logical line.
var blockKeywords = map[string]bool{
	"for": true, "while": true, "if": true, "try": true,
	"def": true, "class": true,
	"elif": true, "else": true, "except": true, "finally": true,
}

var augOps = map[string]string{
	"+=": opAdd, "-=": opSub, "*=": opMul, "/=": opDiv, "//=": opFloorDiv,
	"%=": opMod,
}

var compareOps = map[string]bool{
	opEq: true, opNe: true, opLt: true, opLe: true, opGt: true, opGe: true,
}

// ParseExpr parses src as exactly one expression. A top-level comma list is
// parsed as a list display.
func ParseExpr(src string) (Expr, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}

	x, _, err := p.parseTuple()
	if err != nil {
		return nil, err
	}

	if !p.at(tokEOF, "") {
		return nil, p.unexpected("end of expression")
	}

	return x, nil
}

// ParseProgram parses src as a ';'-separated statement sequence.
func ParseProgram(src string) (*Program, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}

	prog := &Program{}

	for !p.at(tokEOF, "") {
		if p.accept(";") {
			continue
		}

		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}

		prog.Stmts = append(prog.Stmts, stmt)

		if _, raw := stmt.(*RawStmt); raw {
			break
		}

		if !p.at(tokEOF, "") && !p.at(tokOp, ";") {
			return nil, p.unexpected("';' or end of line")
		}
	}

	return prog, nil
}

// parser holds the parser state.
type parser struct {
	src  string
	toks []token
	pos  int
}

func newParser(src string) (*parser, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}

	return &parser{src: src, toks: toks}, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekN(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}

	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}

	return tok
}

// at reports whether the current token has the given kind and, if text is
// not empty, the given text.
func (p *parser) at(kind tokenKind, text string) bool {
	tok := p.peek()

	return tok.kind == kind && (text == "" || tok.text == text)
}

func (p *parser) atOp(op string) bool { return p.at(tokOp, op) }

func (p *parser) atKeyword(kw string) bool { return p.at(tokKeyword, kw) }

func (p *parser) accept(op string) bool {
	if p.atOp(op) {
		p.next()

		return true
	}

	return false
}

func (p *parser) expect(op string) error {
	if !p.accept(op) {
		return p.unexpected("'" + op + "'")
	}

	return nil
}

func (p *parser) expectName() (string, error) {
	if !p.at(tokName, "") {
		return "", p.unexpected("name")
	}

	return p.next().text, nil
}

func (p *parser) unexpected(expected string) error {
	tok := p.peek()

	found := tok.text
	if tok.kind == tokEOF || tok.kind == tokString {
		found = tok.kind.String()
	}

	return ErrSyntax.WithPosition(tok.pos).
		With(slog.String("expected", expected)).
		Wrapf("expected", expected, "but found", found)
}

// parseStmt parses one statement of a sequence.
func (p *parser) parseStmt() (Stmt, error) {
	tok := p.peek()

	word := ""
	if tok.kind == tokName || tok.kind == tokKeyword {
		word = tok.text
	}

	switch {
	case blockKeywords[word],
		word == "plugin" && p.peekN(1).kind == tokName:
		return &RawStmt{
			Keyword: word,
			Text:    strings.TrimSpace(p.src[tok.pos.Offset:]),
			At:      tok.pos,
		}, nil
	case word == "pass" && p.endsStmt(1):
		p.next()

		return &PassStmt{At: tok.pos}, nil
	case word == "break" && p.endsStmt(1):
		p.next()

		return &BreakStmt{At: tok.pos}, nil
	case word == "return" && !p.isAssignOp(1):
		p.next()

		if p.endsStmt(0) {
			return &ReturnStmt{At: tok.pos}, nil
		}

		x, _, err := p.parseTuple()
		if err != nil {
			return nil, err
		}

		return &ReturnStmt{Value: x, At: tok.pos}, nil
	case word == "del" && p.peekN(1).kind == tokName:
		p.next()

		var targets []Expr

		for {
			t, err := p.parsePostfix()
			if err != nil {
				return nil, err
			}

			targets = append(targets, t)

			if !p.accept(",") {
				return &DelStmt{Targets: targets, At: tok.pos}, nil
			}
		}
	case word == "import":
		return p.parseImportStmt()
	case word == "from":
		return p.parseFromStmt()
	}

	return p.parseSimpleStmt()
}

// endsStmt reports whether the token n ahead ends a statement.
func (p *parser) endsStmt(n int) bool {
	tok := p.peekN(n)

	return tok.kind == tokEOF || (tok.kind == tokOp && tok.text == ";")
}

func (p *parser) isAssignOp(n int) bool {
	tok := p.peekN(n)
	if tok.kind != tokOp {
		return false
	}

	_, aug := augOps[tok.text]

	return tok.text == "=" || aug
}

func (p *parser) parseImportStmt() (Stmt, error) {
	at := p.next().pos

	var mods []string

	for {
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}

		mods = append(mods, name)

		if !p.accept(",") {
			return &ImportStmt{Modules: mods, At: at}, nil
		}
	}
}

func (p *parser) parseFromStmt() (Stmt, error) {
	at := p.next().pos

	mod, err := p.expectName()
	if err != nil {
		return nil, err
	}

	if !p.atKeyword("import") {
		return nil, p.unexpected("'import'")
	}

	p.next()

	var names []string

	for {
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}

		names = append(names, name)

		if !p.accept(",") {
			return &FromStmt{Module: mod, Names: names, At: at}, nil
		}
	}
}

// parseSimpleStmt parses an assignment, augmented assignment or expression
// statement.
func (p *parser) parseSimpleStmt() (Stmt, error) {
	at := p.peek().pos

	x, _, err := p.parseTuple()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.kind == tokOp {
		if op, ok := augOps[tok.text]; ok {
			if err := checkTarget(x, false); err != nil {
				return nil, err
			}

			p.next()

			val, _, err := p.parseTuple()
			if err != nil {
				return nil, err
			}

			return &AugAssignStmt{Target: x, Op: op, Value: val, At: at}, nil
		}
	}

	if !p.atOp("=") {
		return &ExprStmt{X: x}, nil
	}

	targets := []Expr{x}

	var val Expr

	for p.accept("=") {
		val, _, err = p.parseTuple()
		if err != nil {
			return nil, err
		}

		targets = append(targets, val)
	}

	targets = targets[:len(targets)-1]
	for _, t := range targets {
		if err := checkTarget(t, true); err != nil {
			return nil, err
		}
	}

	return &AssignStmt{Targets: targets, Value: val, At: at}, nil
}

// checkTarget rejects expressions that cannot be assigned to.
func checkTarget(x Expr, unpack bool) error {
	switch x := x.(type) {
	case *Name, *IndexExpr, *AttrExpr:
		return nil
	case *ListExpr:
		if unpack {
			for _, e := range x.Elems {
				if err := checkTarget(e, true); err != nil {
					return err
				}
			}

			return nil
		}
	}

	return ErrSyntax.WithPosition(x.Pos()).Wrapf("cannot assign to expression")
}

// parseTuple parses expr (',' expr)* ','? and reports whether a bare comma
// list was seen.
func (p *parser) parseTuple() (Expr, bool, error) {
	at := p.peek().pos

	x, err := p.parseExpr()
	if err != nil {
		return nil, false, err
	}

	if !p.atOp(",") {
		return x, false, nil
	}

	elems := []Expr{x}

	for p.accept(",") {
		if p.endsExpr() {
			break
		}

		e, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}

		elems = append(elems, e)
	}

	return &ListExpr{Elems: elems, At: at}, true, nil
}

func (p *parser) endsExpr() bool {
	tok := p.peek()
	if tok.kind == tokEOF {
		return true
	}

	if tok.kind != tokOp {
		return false
	}

	switch tok.text {
	case ";", "=", ")", "]", "}", ":":
		return true
	}

	_, aug := augOps[tok.text]

	return aug
}

// parseExpr parses: lambda | ternary.
func (p *parser) parseExpr() (Expr, error) {
	if p.atKeyword("lambda") {
		return p.parseLambda()
	}

	return p.parseTernary()
}

func (p *parser) parseLambda() (Expr, error) {
	at := p.next().pos

	var params []string

	for !p.atOp(":") {
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}

		params = append(params, name)

		if !p.accept(",") {
			break
		}
	}

	if err := p.expect(":"); err != nil {
		return nil, err
	}

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &LambdaExpr{Params: params, Body: body, At: at}, nil
}

func (p *parser) parseTernary() (Expr, error) {
	x, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if !p.atKeyword("if") {
		return x, nil
	}

	at := p.next().pos

	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if !p.atKeyword("else") {
		return nil, p.unexpected("'else'")
	}

	p.next()

	alt, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &CondExpr{Cond: cond, Then: x, Else: alt, At: at}, nil
}

func (p *parser) parseOr() (Expr, error) {
	x, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.atKeyword("or") {
		at := p.next().pos

		y, err := p.parseAnd()
		if err != nil {
			return nil, err
		}

		x = &LogicalExpr{Op: "or", X: x, Y: y, At: at}
	}

	return x, nil
}

func (p *parser) parseAnd() (Expr, error) {
	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.atKeyword("and") {
		at := p.next().pos

		y, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		x = &LogicalExpr{Op: "and", X: x, Y: y, At: at}
	}

	return x, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.atKeyword("not") {
		at := p.next().pos

		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		return &NotExpr{X: x, At: at}, nil
	}

	return p.parseCompare()
}

// compareOp returns the comparison operator at the cursor, consuming it.
func (p *parser) compareOp() (string, bool) {
	tok := p.peek()

	switch {
	case tok.kind == tokOp && compareOps[tok.text]:
		p.next()

		return tok.text, true
	case tok.kind == tokKeyword && tok.text == "in":
		p.next()

		return opIn, true
	case tok.kind == tokKeyword && tok.text == "not" &&
		p.peekN(1).kind == tokKeyword && p.peekN(1).text == "in":
		p.next()
		p.next()

		return opNotIn, true
	case tok.kind == tokKeyword && tok.text == "is":
		p.next()

		if p.atKeyword("not") {
			p.next()

			return opIsNot, true
		}

		return opIs, true
	}

	return "", false
}

func (p *parser) parseCompare() (Expr, error) {
	at := p.peek().pos

	x, err := p.parseSum()
	if err != nil {
		return nil, err
	}

	var (
		ops []string
		ys  []Expr
	)

	for {
		op, ok := p.compareOp()
		if !ok {
			break
		}

		y, err := p.parseSum()
		if err != nil {
			return nil, err
		}

		ops = append(ops, op)
		ys = append(ys, y)
	}

	if len(ops) == 0 {
		return x, nil
	}

	return &CompareExpr{X: x, Ops: ops, Ys: ys, At: at}, nil
}

func (p *parser) parseSum() (Expr, error) {
	x, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for p.atOp(opAdd) || p.atOp(opSub) {
		tok := p.next()

		y, err := p.parseTerm()
		if err != nil {
			return nil, err
		}

		x = &BinaryExpr{Op: tok.text, X: x, Y: y, At: tok.pos}
	}

	return x, nil
}

func (p *parser) parseTerm() (Expr, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.atOp(opMul) || p.atOp(opDiv) || p.atOp(opFloorDiv) || p.atOp(opMod) {
		tok := p.next()

		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		x = &BinaryExpr{Op: tok.text, X: x, Y: y, At: tok.pos}
	}

	return x, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.atOp(opSub) || p.atOp(opAdd) {
		tok := p.next()

		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &UnaryExpr{Op: tok.text, X: x, At: tok.pos}, nil
	}

	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	x, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}

	if p.atOp(opPow) {
		tok := p.next()

		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &BinaryExpr{Op: opPow, X: x, Y: y, At: tok.pos}, nil
	}

	return x, nil
}

func (p *parser) parsePostfix() (Expr, error) {
	x, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()

		switch {
		case tok.kind == tokOp && tok.text == "(":
			p.next()

			args, err := p.parseExprList(")")
			if err != nil {
				return nil, err
			}

			x = &CallExpr{Fn: x, Args: args, At: tok.pos}
		case tok.kind == tokOp && tok.text == "[":
			p.next()

			x, err = p.parseSubscript(x, tok.pos)
			if err != nil {
				return nil, err
			}
		case tok.kind == tokOp && tok.text == ".":
			p.next()

			name, err := p.expectName()
			if err != nil {
				return nil, err
			}

			x = &AttrExpr{X: x, Name: name, At: tok.pos}
		default:
			return x, nil
		}
	}
}

func (p *parser) parseSubscript(x Expr, at Position) (Expr, error) {
	var (
		bounds [3]Expr
		colons int
	)

	for {
		if p.accept("]") {
			break
		}

		if p.accept(":") {
			colons++
			if colons > 2 {
				return nil, p.unexpected("']'")
			}

			continue
		}

		if bounds[colons] != nil {
			return nil, p.unexpected("':' or ']'")
		}

		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		bounds[colons] = e
	}

	if colons == 0 {
		if bounds[0] == nil {
			return nil, ErrSyntax.WithPosition(at).Wrapf("empty subscript")
		}

		return &IndexExpr{X: x, Index: bounds[0], At: at}, nil
	}

	return &SliceExpr{X: x, Lo: bounds[0], Hi: bounds[1], Step: bounds[2], At: at}, nil
}

// parseExprList parses a comma-separated list terminated by end.
func (p *parser) parseExprList(end string) ([]Expr, error) {
	var list []Expr

	for !p.accept(end) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		list = append(list, e)

		if !p.accept(",") {
			if err := p.expect(end); err != nil {
				return nil, err
			}

			break
		}
	}

	return list, nil
}

func (p *parser) parseAtom() (Expr, error) {
	tok := p.peek()

	switch tok.kind {
	case tokInt:
		p.next()

		return &Literal{Value: Int(tok.ival), At: tok.pos}, nil
	case tokFloat:
		p.next()

		return &Literal{Value: Float(tok.fval), At: tok.pos}, nil
	case tokString:
		var b strings.Builder
		for p.at(tokString, "") {
			b.WriteString(p.next().text)
		}

		return &Literal{Value: String(b.String()), At: tok.pos}, nil
	case tokName:
		p.next()

		return &Name{Name: tok.text, At: tok.pos}, nil
	case tokKeyword:
		switch tok.text {
		case "True":
			p.next()

			return &Literal{Value: True, At: tok.pos}, nil
		case "False":
			p.next()

			return &Literal{Value: False, At: tok.pos}, nil
		case "None":
			p.next()

			return &Literal{Value: None, At: tok.pos}, nil
		case "import":
			p.next()

			name, err := p.expectName()
			if err != nil {
				return nil, err
			}

			return &ImportExpr{Module: name, At: tok.pos}, nil
		}
	case tokOp:
		switch tok.text {
		case "(":
			return p.parseParen()
		case "[":
			p.next()

			elems, err := p.parseExprList("]")
			if err != nil {
				return nil, err
			}

			return &ListExpr{Elems: elems, At: tok.pos}, nil
		case "{":
			return p.parseMap()
		}
	}

	return nil, p.unexpected("expression")
}

func (p *parser) parseParen() (Expr, error) {
	at := p.next().pos

	if p.accept(")") {
		return &ListExpr{At: at}, nil
	}

	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.accept(")") {
		return x, nil
	}

	if err := p.expect(","); err != nil {
		return nil, err
	}

	rest, err := p.parseExprList(")")
	if err != nil {
		return nil, err
	}

	return &ListExpr{Elems: append([]Expr{x}, rest...), At: at}, nil
}

func (p *parser) parseMap() (Expr, error) {
	at := p.next().pos
	m := &MapExpr{At: at}

	for !p.accept("}") {
		k, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if err := p.expect(":"); err != nil {
			return nil, err
		}

		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		m.Keys = append(m.Keys, k)
		m.Values = append(m.Values, v)

		if !p.accept(",") {
			if err := p.expect("}"); err != nil {
				return nil, err
			}

			break
		}
	}

	return m, nil
}
