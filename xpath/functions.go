package xpath

import (
	"math"
	"strings"
)

func (e *functionCallExpr) eval(ctx *evalContext) Value {
	fn, ok := builtins[e.name]
	if !ok {
		return ctx.fail(&EvalError{Message: "unknown function " + e.name + "()"})
	}
	return fn(ctx, e.args)
}

type builtinFn func(ctx *evalContext, args []exprNode) Value

var builtins map[string]builtinFn

func init() {
	builtins = map[string]builtinFn{
		"position":            fnPosition,
		"last":                fnLast,
		"count":                fnCount,
		"local-name":           fnLocalName,
		"namespace-uri":        fnNamespaceURI,
		"name":                 fnName,
		"id":                   fnId,
		"string":               fnString,
		"concat":               fnConcat,
		"starts-with":          fnStartsWith,
		"contains":             fnContains,
		"substring":            fnSubstring,
		"substring-before":     fnSubstringBefore,
		"substring-after":      fnSubstringAfter,
		"string-length":        fnStringLength,
		"normalize-space":      fnNormalizeSpace,
		"translate":            fnTranslate,
		"boolean":              fnBoolean,
		"not":                  fnNot,
		"true":                 fnTrue,
		"false":                fnFalse,
		"lang":                 fnLang,
		"number":               fnNumber,
		"sum":                  fnSum,
		"floor":                fnFloor,
		"ceiling":              fnCeiling,
		"round":                fnRound,
	}
}

func fnPosition(ctx *evalContext, args []exprNode) Value { return num(float64(ctx.position)) }
func fnLast(ctx *evalContext, args []exprNode) Value     { return num(float64(ctx.size)) }

func fnCount(ctx *evalContext, args []exprNode) Value {
	if len(args) != 1 {
		return ctx.fail(&EvalError{Message: "count() takes exactly one argument"})
	}
	v := args[0].eval(ctx)
	if v.Kind != NodeSetValue {
		return ctx.fail(&EvalError{Message: "count() requires a node-set argument"})
	}
	return num(float64(len(v.Nodes)))
}

// contextNodeArgOrSelf evaluates the optional single node-set argument a
// handful of node functions accept, defaulting to the context node when no
// argument is given, per the XPath 1.0 function definitions.
func contextNodeArgOrSelf(ctx *evalContext, args []exprNode) (NodeId, bool) {
	if len(args) == 0 {
		return ctx.node, true
	}
	v := args[0].eval(ctx)
	if v.Kind != NodeSetValue || len(v.Nodes) == 0 {
		return 0, false
	}
	first := v.Nodes[0]
	for _, n := range v.Nodes[1:] {
		if ctx.doc.DocumentOrder(n, first) {
			first = n
		}
	}
	return first, true
}

func fnLocalName(ctx *evalContext, args []exprNode) Value {
	n, ok := contextNodeArgOrSelf(ctx, args)
	if !ok {
		return str("")
	}
	return str(ctx.doc.LocalName(n))
}

func fnNamespaceURI(ctx *evalContext, args []exprNode) Value {
	n, ok := contextNodeArgOrSelf(ctx, args)
	if !ok {
		return str("")
	}
	return str(ctx.doc.NamespaceURI(n))
}

func fnName(ctx *evalContext, args []exprNode) Value {
	n, ok := contextNodeArgOrSelf(ctx, args)
	if !ok {
		return str("")
	}
	return str(ctx.doc.Name(n))
}

func fnId(ctx *evalContext, args []exprNode) Value {
	return ctx.fail(&EvalError{Message: "id() is unsupported: DTD processing is disabled"})
}

func fnString(ctx *evalContext, args []exprNode) Value {
	if len(args) == 0 {
		return str(Value{Kind: NodeSetValue, Nodes: []NodeId{ctx.node}}.ToString(ctx.doc))
	}
	return str(args[0].eval(ctx).ToString(ctx.doc))
}

func fnConcat(ctx *evalContext, args []exprNode) Value {
	if len(args) < 2 {
		return ctx.fail(&EvalError{Message: "concat() takes at least two arguments"})
	}
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.eval(ctx).ToString(ctx.doc))
	}
	return str(b.String())
}

func fnStartsWith(ctx *evalContext, args []exprNode) Value {
	if len(args) != 2 {
		return ctx.fail(&EvalError{Message: "starts-with() takes exactly two arguments"})
	}
	s := args[0].eval(ctx).ToString(ctx.doc)
	prefix := args[1].eval(ctx).ToString(ctx.doc)
	return boolean(strings.HasPrefix(s, prefix))
}

func fnContains(ctx *evalContext, args []exprNode) Value {
	if len(args) != 2 {
		return ctx.fail(&EvalError{Message: "contains() takes exactly two arguments"})
	}
	s := args[0].eval(ctx).ToString(ctx.doc)
	sub := args[1].eval(ctx).ToString(ctx.doc)
	return boolean(strings.Contains(s, sub))
}

func fnSubstring(ctx *evalContext, args []exprNode) Value {
	if len(args) != 2 && len(args) != 3 {
		return ctx.fail(&EvalError{Message: "substring() takes two or three arguments"})
	}
	s := []rune(args[0].eval(ctx).ToString(ctx.doc))
	start := round(args[1].eval(ctx).ToNumber(ctx.doc))
	length := math.Inf(1)
	if len(args) == 3 {
		length = round(args[2].eval(ctx).ToNumber(ctx.doc))
	}
	// XPath 1.0 substring() uses 1-based, possibly fractional-before-
	// rounding, possibly out-of-range start/length; this implements the
	// character-position semantics directly rather than clamping naively.
	first := start
	last := start + length
	if math.IsNaN(first) || math.IsNaN(last) {
		return str("")
	}
	lo := int(math.Max(1, first))
	hi := int(math.Min(float64(len(s)+1), last))
	if hi <= lo || lo > len(s) {
		return str("")
	}
	return str(string(s[lo-1 : hi-1]))
}

func round(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.Floor(f + 0.5)
}

func fnSubstringBefore(ctx *evalContext, args []exprNode) Value {
	if len(args) != 2 {
		return ctx.fail(&EvalError{Message: "substring-before() takes exactly two arguments"})
	}
	s := args[0].eval(ctx).ToString(ctx.doc)
	sep := args[1].eval(ctx).ToString(ctx.doc)
	idx := strings.Index(s, sep)
	if idx < 0 {
		return str("")
	}
	return str(s[:idx])
}

func fnSubstringAfter(ctx *evalContext, args []exprNode) Value {
	if len(args) != 2 {
		return ctx.fail(&EvalError{Message: "substring-after() takes exactly two arguments"})
	}
	s := args[0].eval(ctx).ToString(ctx.doc)
	sep := args[1].eval(ctx).ToString(ctx.doc)
	idx := strings.Index(s, sep)
	if idx < 0 {
		return str("")
	}
	return str(s[idx+len(sep):])
}

func fnStringLength(ctx *evalContext, args []exprNode) Value {
	var s string
	if len(args) == 0 {
		s = Value{Kind: NodeSetValue, Nodes: []NodeId{ctx.node}}.ToString(ctx.doc)
	} else {
		s = args[0].eval(ctx).ToString(ctx.doc)
	}
	return num(float64(len([]rune(s))))
}

func fnNormalizeSpace(ctx *evalContext, args []exprNode) Value {
	var s string
	if len(args) == 0 {
		s = Value{Kind: NodeSetValue, Nodes: []NodeId{ctx.node}}.ToString(ctx.doc)
	} else {
		s = args[0].eval(ctx).ToString(ctx.doc)
	}
	return str(strings.Join(strings.Fields(s), " "))
}

func fnTranslate(ctx *evalContext, args []exprNode) Value {
	if len(args) != 3 {
		return ctx.fail(&EvalError{Message: "translate() takes exactly three arguments"})
	}
	s := args[0].eval(ctx).ToString(ctx.doc)
	from := []rune(args[1].eval(ctx).ToString(ctx.doc))
	to := []rune(args[2].eval(ctx).ToString(ctx.doc))
	var b strings.Builder
	for _, r := range s {
		idx := -1
		for i, f := range from {
			if f == r {
				idx = i
				break
			}
		}
		if idx < 0 {
			b.WriteRune(r)
			continue
		}
		if idx < len(to) {
			b.WriteRune(to[idx])
		}
	}
	return str(b.String())
}

func fnBoolean(ctx *evalContext, args []exprNode) Value {
	if len(args) != 1 {
		return ctx.fail(&EvalError{Message: "boolean() takes exactly one argument"})
	}
	return boolean(args[0].eval(ctx).ToBoolean())
}

func fnNot(ctx *evalContext, args []exprNode) Value {
	if len(args) != 1 {
		return ctx.fail(&EvalError{Message: "not() takes exactly one argument"})
	}
	return boolean(!args[0].eval(ctx).ToBoolean())
}

func fnTrue(ctx *evalContext, args []exprNode) Value  { return boolean(true) }
func fnFalse(ctx *evalContext, args []exprNode) Value { return boolean(false) }

// fnLang walks the ancestor-or-self axis for the nearest xml:lang attribute
// and reports whether it equals or is a sub-language of the argument.
func fnLang(ctx *evalContext, args []exprNode) Value {
	if len(args) != 1 {
		return ctx.fail(&EvalError{Message: "lang() takes exactly one argument"})
	}
	want := strings.ToLower(args[0].eval(ctx).ToString(ctx.doc))
	n := ctx.node
	for {
		for _, a := range ctx.doc.Attributes(n) {
			if ctx.doc.Name(a) == "xml:lang" {
				got := strings.ToLower(ctx.doc.StringValue(a))
				return boolean(got == want || strings.HasPrefix(got, want+"-"))
			}
		}
		p, ok := ctx.doc.Parent(n)
		if !ok {
			return boolean(false)
		}
		n = p
	}
}

func fnNumber(ctx *evalContext, args []exprNode) Value {
	if len(args) == 0 {
		return num(Value{Kind: NodeSetValue, Nodes: []NodeId{ctx.node}}.ToNumber(ctx.doc))
	}
	return num(args[0].eval(ctx).ToNumber(ctx.doc))
}

func fnSum(ctx *evalContext, args []exprNode) Value {
	if len(args) != 1 {
		return ctx.fail(&EvalError{Message: "sum() takes exactly one argument"})
	}
	v := args[0].eval(ctx)
	if v.Kind != NodeSetValue {
		return ctx.fail(&EvalError{Message: "sum() requires a node-set argument"})
	}
	total := 0.0
	for _, n := range v.Nodes {
		total += Value{Kind: StringValue, Str: ctx.doc.StringValue(n)}.ToNumber(ctx.doc)
	}
	return num(total)
}

func fnFloor(ctx *evalContext, args []exprNode) Value {
	if len(args) != 1 {
		return ctx.fail(&EvalError{Message: "floor() takes exactly one argument"})
	}
	return num(math.Floor(args[0].eval(ctx).ToNumber(ctx.doc)))
}

func fnCeiling(ctx *evalContext, args []exprNode) Value {
	if len(args) != 1 {
		return ctx.fail(&EvalError{Message: "ceiling() takes exactly one argument"})
	}
	return num(math.Ceil(args[0].eval(ctx).ToNumber(ctx.doc)))
}

func fnRound(ctx *evalContext, args []exprNode) Value {
	if len(args) != 1 {
		return ctx.fail(&EvalError{Message: "round() takes exactly one argument"})
	}
	return num(round(args[0].eval(ctx).ToNumber(ctx.doc)))
}
