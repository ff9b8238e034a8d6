package xpath

// Axis identifies one of the thirteen XPath 1.0 axes.
type Axis int

const (
	ChildAxis Axis = iota
	ParentAxis
	SelfAxis
	DescendantAxis
	DescendantOrSelfAxis
	AncestorAxis
	AncestorOrSelfAxis
	FollowingAxis
	FollowingSiblingAxis
	PrecedingAxis
	PrecedingSiblingAxis
	AttributeAxis
	NamespaceAxis
)

// reverse reports whether an axis produces nodes in reverse document
// order, so position()/last() within its predicates must be computed
// against that reversed ordering.
func (a Axis) reverse() bool {
	switch a {
	case AncestorAxis, AncestorOrSelfAxis, PrecedingAxis, PrecedingSiblingAxis:
		return true
	}
	return false
}

// NodeTestKind classifies a step's node test.
type NodeTestKind int

const (
	TestName NodeTestKind = iota // a specific qualified name
	TestAny                      // '*'
	TestPrefixAny                // 'prefix:*'
	TestNodeFn                   // node()
	TestTextFn                   // text()
	TestCommentFn                // comment()
	TestPIFn                     // processing-instruction()
)

// NodeTest filters candidate axis nodes by name or node kind.
type NodeTest struct {
	Kind   NodeTestKind
	Prefix string
	Local  string
	PIArg  string // optional literal argument to processing-instruction('target')
}

// exprNode is any compiled expression node: a location path, a binary
// operator application, a function call, a literal, or a union.
type exprNode interface {
	eval(ctx *evalContext) Value
}

// LocationPath is a (possibly empty, meaning ".") sequence of compiled
// steps. Absolute paths start with Root=true.
type LocationPath struct {
	Root  bool
	Steps []Step
}

// Step is one compiled axis::node-test[predicates] component.
type Step struct {
	Axis       Axis
	Test       NodeTest
	Predicates []predicate
}

// predicate is a compiled predicate: either a fast-path specialization or a
// generic boxed expression evaluated per candidate node.
type predicate interface {
	// keep selects from candidates (already filtered by the node test) the
	// subset that satisfies this predicate, given the full candidate list
	// for position()/last() context.
	keep(doc NodeAccess, candidates []NodeId, ctx *evalContext) []NodeId
}

type genericPredicate struct {
	expr exprNode
}

// attrEqualityPredicate implements the AttrEquality fast path: [@name =
// 'literal'].
type attrEqualityPredicate struct {
	attrName string
	literal  string
}

// positionLiteralPredicate implements the PositionLiteral fast path: [n]
// for a positive integer literal n.
type positionLiteralPredicate struct {
	position int
}

// binaryExpr applies op to two sub-expressions: or/and/equality/relational/
// additive/multiplicative.
type binaryExpr struct {
	op    binOp
	left  exprNode
	right exprNode
}

type binOp int

const (
	opOr binOp = iota
	opAnd
	opEq
	opNe
	opLt
	opLe
	opGt
	opGe
	opAdd
	opSub
	opMul
	opDiv
	opMod
	opUnion
)

// unaryMinusExpr negates a numeric sub-expression.
type unaryMinusExpr struct {
	operand exprNode
}

// literalExpr wraps a string or number literal.
type literalExpr struct {
	isNumber bool
	str      string
	n        float64
}

// functionCallExpr is a call to one of the built-in XPath 1.0 functions.
type functionCallExpr struct {
	name string
	args []exprNode
}

// varRefExpr is a $variable reference; always an evaluation error, per
// spec.md 4.6.9.
type varRefExpr struct {
	name string
}

// pathExpr is a LocationPath wrapped to satisfy exprNode, letting a path
// appear as an operand of a binary/unary/function expression (e.g. inside
// a predicate or as a function argument).
type pathExpr struct {
	path LocationPath
}
