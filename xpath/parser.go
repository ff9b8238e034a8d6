package xpath

import (
	"strconv"
	"strings"
)

// parser turns a flat token list into a compiled expression tree,
// resolving axis names and detecting the AttrEquality/PositionLiteral
// fast-path predicate shapes as it goes (folding the "compiler" step of
// spec.md 4.6.3 into the same pass as parsing, as antchfx/xpath's builder
// does with its own node-querying grammar).
type parser struct {
	toks []Tok
	pos  int
}

func compile(src string) (exprNode, error) {
	lex, err := newLexer(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: lex.toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != XTokEOF {
		return nil, &CompileError{Message: "unexpected trailing input", Pos: p.pos}
	}
	return expr, nil
}

func (p *parser) peek() Tok  { return p.toks[p.pos] }
func (p *parser) peekAt(n int) Tok {
	if p.pos+n >= len(p.toks) {
		return Tok{Kind: XTokEOF}
	}
	return p.toks[p.pos+n]
}
func (p *parser) next() Tok {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}
func (p *parser) expect(k TokKind, what string) error {
	if p.peek().Kind != k {
		return &CompileError{Message: "expected " + what, Pos: p.pos}
	}
	p.next()
	return nil
}

// isOperatorName reports whether the current Name token, at this exact
// grammar position, is the keyword operator it spells rather than an
// ordinary NCName — decided purely by which parse function asks, which is
// how the real disambiguation rule plays out in a recursive-descent parser.
func isOperatorName(t Tok, kw string) bool {
	return t.Kind == XTokName && t.Text == kw
}

func (p *parser) parseOr() (exprNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for isOperatorName(p.peek(), "or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: opOr, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (exprNode, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for isOperatorName(p.peek(), "and") {
		p.next()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: opAnd, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseEquality() (exprNode, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		var op binOp
		switch p.peek().Kind {
		case XTokEq:
			op = opEq
		case XTokNe:
			op = opNe
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: op, left: left, right: right}
	}
}

func (p *parser) parseRelational() (exprNode, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op binOp
		switch p.peek().Kind {
		case XTokLt:
			op = opLt
		case XTokLe:
			op = opLe
		case XTokGt:
			op = opGt
		case XTokGe:
			op = opGe
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: op, left: left, right: right}
	}
}

func (p *parser) parseAdditive() (exprNode, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op binOp
		switch p.peek().Kind {
		case XTokPlus:
			op = opAdd
		case XTokMinus:
			op = opSub
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: op, left: left, right: right}
	}
}

func (p *parser) parseMultiplicative() (exprNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op binOp
		switch {
		case p.peek().Kind == XTokStar:
			op = opMul
		case isOperatorName(p.peek(), "div"):
			op = opDiv
		case isOperatorName(p.peek(), "mod"):
			op = opMod
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: op, left: left, right: right}
	}
}

func (p *parser) parseUnary() (exprNode, error) {
	if p.peek().Kind == XTokMinus {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryMinusExpr{operand: operand}, nil
	}
	return p.parseUnion()
}

func (p *parser) parseUnion() (exprNode, error) {
	left, err := p.parsePathExpr()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == XTokPipe {
		p.next()
		right, err := p.parsePathExpr()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: opUnion, left: left, right: right}
	}
	return left, nil
}

func (p *parser) looksLikeLocationPath() bool {
	switch p.peek().Kind {
	case XTokSlash, XTokSlashSlash, XTokDot, XTokDotDot, XTokAt, XTokStar:
		return true
	case XTokName:
		if p.peekAt(1).Kind == XTokColonColon {
			return true
		}
		if p.peekAt(1).Kind == XTokLParen {
			switch p.peek().Text {
			case "text", "node", "comment", "processing-instruction":
				return true
			}
			return false
		}
		return true
	}
	return false
}

func (p *parser) parsePathExpr() (exprNode, error) {
	if p.looksLikeLocationPath() {
		return p.parseLocationPath()
	}
	primary, err := p.parsePrimaryExpr()
	if err != nil {
		return nil, err
	}
	// The primary is returned on its own: predicates or a '/' / '//'
	// location path following it are not parsed here, so such input ends
	// in a compile error for the unconsumed tokens.
	return primary, nil
}

func (p *parser) parseLocationPath() (exprNode, error) {
	lp := LocationPath{}
	switch p.peek().Kind {
	case XTokSlash:
		p.next()
		lp.Root = true
		if !p.looksLikeStepStart() {
			return &pathExpr{path: lp}, nil
		}
	case XTokSlashSlash:
		p.next()
		lp.Root = true
		lp.Steps = append(lp.Steps, Step{Axis: DescendantOrSelfAxis, Test: NodeTest{Kind: TestNodeFn}})
	}
	steps, err := p.parseRelativeSteps()
	if err != nil {
		return nil, err
	}
	lp.Steps = append(lp.Steps, steps...)
	return &pathExpr{path: lp}, nil
}

func (p *parser) looksLikeStepStart() bool {
	switch p.peek().Kind {
	case XTokDot, XTokDotDot, XTokAt, XTokStar, XTokName:
		return true
	}
	return false
}

func (p *parser) parseRelativeSteps() ([]Step, error) {
	var steps []Step
	if !p.looksLikeStepStart() {
		return steps, nil
	}
	step, err := p.parseStep()
	if err != nil {
		return nil, err
	}
	steps = append(steps, step)
	for p.peek().Kind == XTokSlash || p.peek().Kind == XTokSlashSlash {
		if p.peek().Kind == XTokSlashSlash {
			p.next()
			steps = append(steps, Step{Axis: DescendantOrSelfAxis, Test: NodeTest{Kind: TestNodeFn}})
		} else {
			p.next()
		}
		step, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (p *parser) parseStep() (Step, error) {
	switch p.peek().Kind {
	case XTokDot:
		p.next()
		return Step{Axis: SelfAxis, Test: NodeTest{Kind: TestNodeFn}}, nil
	case XTokDotDot:
		p.next()
		return Step{Axis: ParentAxis, Test: NodeTest{Kind: TestNodeFn}}, nil
	case XTokAt:
		p.next()
		test, err := p.parseNodeTest()
		if err != nil {
			return Step{}, err
		}
		preds, err := p.parsePredicates()
		if err != nil {
			return Step{}, err
		}
		return Step{Axis: AttributeAxis, Test: test, Predicates: preds}, nil
	default:
		axis := ChildAxis
		if p.peek().Kind == XTokName && p.peekAt(1).Kind == XTokColonColon {
			name := p.next().Text
			p.next() // '::'
			a, ok := axisFromName(name)
			if !ok {
				return Step{}, &CompileError{Message: "unknown axis " + name, Pos: p.pos}
			}
			axis = a
		}
		test, err := p.parseNodeTest()
		if err != nil {
			return Step{}, err
		}
		preds, err := p.parsePredicates()
		if err != nil {
			return Step{}, err
		}
		return Step{Axis: axis, Test: test, Predicates: preds}, nil
	}
}

func axisFromName(name string) (Axis, bool) {
	switch name {
	case "child":
		return ChildAxis, true
	case "parent":
		return ParentAxis, true
	case "self":
		return SelfAxis, true
	case "descendant":
		return DescendantAxis, true
	case "descendant-or-self":
		return DescendantOrSelfAxis, true
	case "ancestor":
		return AncestorAxis, true
	case "ancestor-or-self":
		return AncestorOrSelfAxis, true
	case "following":
		return FollowingAxis, true
	case "following-sibling":
		return FollowingSiblingAxis, true
	case "preceding":
		return PrecedingAxis, true
	case "preceding-sibling":
		return PrecedingSiblingAxis, true
	case "attribute":
		return AttributeAxis, true
	case "namespace":
		return NamespaceAxis, true
	}
	return ChildAxis, false
}

func (p *parser) parseNodeTest() (NodeTest, error) {
	if p.peek().Kind == XTokStar {
		p.next()
		return NodeTest{Kind: TestAny}, nil
	}
	if p.peek().Kind != XTokName {
		return NodeTest{}, &CompileError{Message: "expected node test", Pos: p.pos}
	}
	tok := p.next()
	name := tok.Text
	if strings.HasSuffix(name, ":") && p.peek().Kind == XTokStar {
		p.next()
		return NodeTest{Kind: TestPrefixAny, Prefix: strings.TrimSuffix(name, ":")}, nil
	}
	if p.peek().Kind == XTokLParen {
		switch name {
		case "node":
			p.next()
			if err := p.expect(XTokRParen, "')'"); err != nil {
				return NodeTest{}, err
			}
			return NodeTest{Kind: TestNodeFn}, nil
		case "text":
			p.next()
			if err := p.expect(XTokRParen, "')'"); err != nil {
				return NodeTest{}, err
			}
			return NodeTest{Kind: TestTextFn}, nil
		case "comment":
			p.next()
			if err := p.expect(XTokRParen, "')'"); err != nil {
				return NodeTest{}, err
			}
			return NodeTest{Kind: TestCommentFn}, nil
		case "processing-instruction":
			p.next()
			arg := ""
			if p.peek().Kind == XTokLiteral {
				arg = p.next().Text
			}
			if err := p.expect(XTokRParen, "')'"); err != nil {
				return NodeTest{}, err
			}
			return NodeTest{Kind: TestPIFn, PIArg: arg}, nil
		}
	}
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return NodeTest{Kind: TestName, Prefix: name[:idx], Local: name[idx+1:]}, nil
	}
	return NodeTest{Kind: TestName, Local: name}, nil
}

func (p *parser) parsePredicates() ([]predicate, error) {
	var preds []predicate
	for p.peek().Kind == XTokLBracket {
		p.next()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(XTokRBracket, "']'"); err != nil {
			return nil, err
		}
		preds = append(preds, compilePredicate(expr))
	}
	return preds, nil
}

// compilePredicate detects the two fast-path predicate shapes described in
// spec.md 4.6.3, falling back to a boxed generic expression otherwise.
func compilePredicate(expr exprNode) predicate {
	if lit, ok := expr.(*literalExpr); ok && lit.isNumber {
		if n := lit.n; n == float64(int(n)) && n >= 1 {
			return &positionLiteralPredicate{position: int(n)}
		}
	}
	if bin, ok := expr.(*binaryExpr); ok && bin.op == opEq {
		if attr, lit, ok := attrEqualityShape(bin.left, bin.right); ok {
			return &attrEqualityPredicate{attrName: attr, literal: lit}
		}
		if attr, lit, ok := attrEqualityShape(bin.right, bin.left); ok {
			return &attrEqualityPredicate{attrName: attr, literal: lit}
		}
	}
	return &genericPredicate{expr: expr}
}

func attrEqualityShape(side, other exprNode) (attr string, literal string, ok bool) {
	pe, ok := side.(*pathExpr)
	if !ok || pe.path.Root || len(pe.path.Steps) != 1 {
		return "", "", false
	}
	step := pe.path.Steps[0]
	if step.Axis != AttributeAxis || step.Test.Kind != TestName || len(step.Predicates) != 0 {
		return "", "", false
	}
	lit, ok := other.(*literalExpr)
	if !ok || lit.isNumber {
		return "", "", false
	}
	return step.Test.Local, lit.str, true
}

func (p *parser) parsePrimaryExpr() (exprNode, error) {
	switch p.peek().Kind {
	case XTokLParen:
		p.next()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(XTokRParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	case XTokLiteral:
		tok := p.next()
		return &literalExpr{str: tok.Text}, nil
	case XTokNumber:
		tok := p.next()
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, &CompileError{Message: "invalid number " + tok.Text, Pos: p.pos}
		}
		return &literalExpr{isNumber: true, n: f}, nil
	case XTokDollarVar:
		tok := p.next()
		return &varRefExpr{name: tok.Text}, nil
	case XTokName:
		name := p.next().Text
		if err := p.expect(XTokLParen, "'('"); err != nil {
			return nil, err
		}
		var args []exprNode
		if p.peek().Kind != XTokRParen {
			for {
				arg, err := p.parseOr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.peek().Kind != XTokComma {
					break
				}
				p.next()
			}
		}
		if err := p.expect(XTokRParen, "')'"); err != nil {
			return nil, err
		}
		return &functionCallExpr{name: name, args: args}, nil
	}
	return nil, &CompileError{Message: "unexpected token in expression", Pos: p.pos}
}
