package xpath

// EvalError is returned for runtime failures that cannot be resolved by
// any value coercion: an unsupported $variable reference, an id() call, or
// an axis/function misuse the compiler could not catch statically.
type EvalError struct {
	Message string
}

func (e *EvalError) Error() string { return "xmlcore/xpath: " + e.Message }

// evalContext carries the XPath context triple (node, position, size)
// through evaluation, plus the document capability and a slot for
// propagating a runtime error out of the otherwise panic-free eval tree.
type evalContext struct {
	doc      NodeAccess
	node     NodeId
	position int
	size     int
	err      error
}

func (c *evalContext) fail(err error) Value {
	if c.err == nil {
		c.err = err
	}
	return Value{}
}

// Eval evaluates a compiled expression against a single context node,
// returning the result or the first runtime error encountered.
func Eval(doc NodeAccess, expr exprNode, context NodeId) (Value, error) {
	ctx := &evalContext{doc: doc, node: context, position: 1, size: 1}
	v := expr.eval(ctx)
	if ctx.err != nil {
		return Value{}, ctx.err
	}
	return v, nil
}

func (e *literalExpr) eval(ctx *evalContext) Value {
	if e.isNumber {
		return num(e.n)
	}
	return str(e.str)
}

func (e *varRefExpr) eval(ctx *evalContext) Value {
	return ctx.fail(&EvalError{Message: "variable references are not supported: $" + e.name})
}

func (e *unaryMinusExpr) eval(ctx *evalContext) Value {
	v := e.operand.eval(ctx)
	return num(-v.ToNumber(ctx.doc))
}

func (e *binaryExpr) eval(ctx *evalContext) Value {
	switch e.op {
	case opOr:
		l := e.left.eval(ctx)
		if l.ToBoolean() {
			return boolean(true)
		}
		r := e.right.eval(ctx)
		return boolean(r.ToBoolean())
	case opAnd:
		l := e.left.eval(ctx)
		if !l.ToBoolean() {
			return boolean(false)
		}
		r := e.right.eval(ctx)
		return boolean(r.ToBoolean())
	case opUnion:
		l := e.left.eval(ctx)
		r := e.right.eval(ctx)
		return nodeSet(unionNodes(ctx.doc, l.Nodes, r.Nodes))
	}
	l := e.left.eval(ctx)
	r := e.right.eval(ctx)
	switch e.op {
	case opEq:
		return boolean(compareEq(ctx.doc, l, r, true))
	case opNe:
		return boolean(compareEq(ctx.doc, l, r, false))
	case opLt:
		return boolean(compareRel(ctx.doc, l, r, func(a, b float64) bool { return a < b }))
	case opLe:
		return boolean(compareRel(ctx.doc, l, r, func(a, b float64) bool { return a <= b }))
	case opGt:
		return boolean(compareRel(ctx.doc, l, r, func(a, b float64) bool { return a > b }))
	case opGe:
		return boolean(compareRel(ctx.doc, l, r, func(a, b float64) bool { return a >= b }))
	case opAdd:
		return num(l.ToNumber(ctx.doc) + r.ToNumber(ctx.doc))
	case opSub:
		return num(l.ToNumber(ctx.doc) - r.ToNumber(ctx.doc))
	case opMul:
		return num(l.ToNumber(ctx.doc) * r.ToNumber(ctx.doc))
	case opDiv:
		return num(l.ToNumber(ctx.doc) / r.ToNumber(ctx.doc))
	case opMod:
		lf, rf := l.ToNumber(ctx.doc), r.ToNumber(ctx.doc)
		return num(float64(int64(lf) % int64(rf)))
	}
	return ctx.fail(&EvalError{Message: "unknown operator"})
}

// compareEq implements the XPath 1.0 equality-operator coercion table: if
// either side is a node-set, the other side is compared against every
// node's string-value (numeric if the other side is a number); otherwise
// values are compared after converting both to a common type (boolean >
// number > string, in that preference order).
func compareEq(doc NodeAccess, l, r Value, wantEqual bool) bool {
	if l.Kind == NodeSetValue || r.Kind == NodeSetValue {
		eq := nodeSetCompare(doc, l, r)
		if wantEqual {
			return eq
		}
		return !eq
	}
	var eq bool
	switch {
	case l.Kind == BooleanValue || r.Kind == BooleanValue:
		eq = l.ToBoolean() == r.ToBoolean()
	case l.Kind == NumberValue || r.Kind == NumberValue:
		eq = l.ToNumber(doc) == r.ToNumber(doc)
	default:
		eq = l.ToString(doc) == r.ToString(doc)
	}
	if wantEqual {
		return eq
	}
	return !eq
}

func nodeSetCompare(doc NodeAccess, l, r Value) bool {
	if l.Kind == NodeSetValue && r.Kind == NodeSetValue {
		for _, a := range l.Nodes {
			for _, b := range r.Nodes {
				if doc.StringValue(a) == doc.StringValue(b) {
					return true
				}
			}
		}
		return false
	}
	ns, other := l, r
	if other.Kind == NodeSetValue {
		ns, other = r, l
	}
	for _, n := range ns.Nodes {
		switch other.Kind {
		case NumberValue:
			if strToFloatEquals(doc.StringValue(n), other.Num) {
				return true
			}
		case BooleanValue:
			if (doc.StringValue(n) != "") == other.Boolean {
				return true
			}
		default:
			if doc.StringValue(n) == other.ToString(doc) {
				return true
			}
		}
	}
	return false
}

func strToFloatEquals(s string, f float64) bool {
	return Value{Kind: StringValue, Str: s}.ToNumber(nil) == f
}

func compareRel(doc NodeAccess, l, r Value, cmp func(a, b float64) bool) bool {
	if l.Kind == NodeSetValue || r.Kind == NodeSetValue {
		ls := valuesToNumbers(doc, l)
		rs := valuesToNumbers(doc, r)
		for _, a := range ls {
			for _, b := range rs {
				if cmp(a, b) {
					return true
				}
			}
		}
		return false
	}
	return cmp(l.ToNumber(doc), r.ToNumber(doc))
}

func valuesToNumbers(doc NodeAccess, v Value) []float64 {
	if v.Kind != NodeSetValue {
		return []float64{v.ToNumber(doc)}
	}
	out := make([]float64, len(v.Nodes))
	for i, n := range v.Nodes {
		out[i] = Value{Kind: StringValue, Str: doc.StringValue(n)}.ToNumber(doc)
	}
	return out
}

func unionNodes(doc NodeAccess, a, b []NodeId) []NodeId {
	seen := make(map[NodeId]bool, len(a)+len(b))
	out := make([]NodeId, 0, len(a)+len(b))
	for _, n := range a {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, n := range b {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sortByDocumentOrder(doc, out)
	return out
}

func sortByDocumentOrder(doc NodeAccess, nodes []NodeId) {
	// Small result sets in practice; a simple insertion sort keeps this
	// free of an extra sort.Interface adapter allocation.
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && doc.DocumentOrder(nodes[j], nodes[j-1]); j-- {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
		}
	}
}

func (e *pathExpr) eval(ctx *evalContext) Value {
	var seeds []NodeId
	if e.path.Root {
		// An absolute path starts at the document node: the topmost
		// ancestor of whatever the NodeAccess reports as its Root.
		top := ctx.doc.Root()
		for {
			p, ok := ctx.doc.Parent(top)
			if !ok {
				break
			}
			top = p
		}
		seeds = []NodeId{top}
	} else {
		seeds = []NodeId{ctx.node}
	}
	nodes := seeds
	for _, step := range e.path.Steps {
		nodes = evalStep(ctx, step, nodes)
	}
	return nodeSet(nodes)
}

func evalStep(ctx *evalContext, step Step, from []NodeId) []NodeId {
	doc := ctx.doc
	var union []NodeId
	for _, seed := range from {
		candidates := axisNodes(doc, step.Axis, seed)
		filtered := make([]NodeId, 0, len(candidates))
		for _, c := range candidates {
			if nodeTestMatches(doc, step.Test, c) {
				filtered = append(filtered, c)
			}
		}
		// Predicates (position(), last(), and positional shorthand like
		// [1]) depend on axis order, which for a reverse axis such as
		// ancestor/preceding/preceding-sibling is nearest-node-first, not
		// document order — so predicates run before any reordering here.
		for _, p := range step.Predicates {
			filtered = p.keep(doc, filtered, ctx)
		}
		// Per spec 4.6.7 point 3, a step's result is always in document
		// order regardless of the axis's natural traversal order, so sort
		// each seed's filtered set before merging across seeds.
		sortByDocumentOrder(doc, filtered)
		union = append(union, filtered...)
	}
	union = dedupe(doc, union)
	sortByDocumentOrder(doc, union)
	return union
}

func dedupe(doc NodeAccess, nodes []NodeId) []NodeId {
	seen := make(map[NodeId]bool, len(nodes))
	out := nodes[:0]
	for _, n := range nodes {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func nodeTestMatches(doc NodeAccess, test NodeTest, n NodeId) bool {
	kind := doc.Kind(n)
	switch test.Kind {
	case TestAny:
		return kind == ElementNodeKind || kind == AttributeNodeKind
	case TestPrefixAny:
		return (kind == ElementNodeKind || kind == AttributeNodeKind) && doc.Prefix(n) == test.Prefix
	case TestName:
		if kind != ElementNodeKind && kind != AttributeNodeKind {
			return false
		}
		if test.Prefix != "" {
			return doc.Prefix(n) == test.Prefix && doc.LocalName(n) == test.Local
		}
		return doc.LocalName(n) == test.Local && doc.Prefix(n) == ""
	case TestNodeFn:
		return true
	case TestTextFn:
		return kind == TextNodeKind
	case TestCommentFn:
		return kind == CommentNodeKind
	case TestPIFn:
		if kind != PINodeKind {
			return false
		}
		if test.PIArg != "" {
			return doc.Name(n) == test.PIArg
		}
		return true
	}
	return false
}

func (p *genericPredicate) keep(doc NodeAccess, candidates []NodeId, ctx *evalContext) []NodeId {
	out := make([]NodeId, 0, len(candidates))
	size := len(candidates)
	for i, n := range candidates {
		pctx := &evalContext{doc: doc, node: n, position: i + 1, size: size}
		v := p.expr.eval(pctx)
		if pctx.err != nil {
			ctx.fail(pctx.err)
			return nil
		}
		keep := v.ToBoolean()
		if v.Kind == NumberValue {
			keep = v.Num == float64(i+1)
		}
		if keep {
			out = append(out, n)
		}
	}
	return out
}

func (p *attrEqualityPredicate) keep(doc NodeAccess, candidates []NodeId, ctx *evalContext) []NodeId {
	out := make([]NodeId, 0, len(candidates))
	for _, n := range candidates {
		for _, a := range doc.Attributes(n) {
			if doc.LocalName(a) == p.attrName && doc.StringValue(a) == p.literal {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func (p *positionLiteralPredicate) keep(doc NodeAccess, candidates []NodeId, ctx *evalContext) []NodeId {
	if p.position < 1 || p.position > len(candidates) {
		return nil
	}
	return []NodeId{candidates[p.position-1]}
}
