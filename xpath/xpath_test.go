package xpath_test

import (
	"testing"

	"github.com/jeffhuen/xmlcore/xpath"
	"github.com/jeffhuen/xmlcore/xpath/xpathtest"
)

// buildLibrary constructs:
//   <library>
//     <book id="1" lang="en"><title>Go in Action</title><price>30</price></book>
//     <book id="2" lang="fr"><title>Les Miserables</title><price>12</price></book>
//     <!-- a note -->
//   </library>
func buildLibrary() (*xpathtest.Tree, xpath.NodeId) {
	t := xpathtest.New()
	root := t.Root()
	lib := t.AddElement(root, "library")

	b1 := t.AddElement(lib, "book")
	t.AddAttr(b1, "id", "1")
	t.AddAttr(b1, "lang", "en")
	title1 := t.AddElement(b1, "title")
	t.AddText(title1, "Go in Action")
	price1 := t.AddElement(b1, "price")
	t.AddText(price1, "30")

	b2 := t.AddElement(lib, "book")
	t.AddAttr(b2, "id", "2")
	t.AddAttr(b2, "lang", "fr")
	title2 := t.AddElement(b2, "title")
	t.AddText(title2, "Les Miserables")
	price2 := t.AddElement(b2, "price")
	t.AddText(price2, "12")

	t.AddComment(lib, "a note")
	return t, lib
}

func evalBool(t *testing.T, tree *xpathtest.Tree, ctx xpath.NodeId, expr string) bool {
	t.Helper()
	eng := xpath.NewEngine()
	v, err := eng.Eval(tree, expr, ctx)
	if err != nil {
		t.Fatalf("eval %q: %v", expr, err)
	}
	return v.ToBoolean()
}

func evalNodes(t *testing.T, tree *xpathtest.Tree, ctx xpath.NodeId, expr string) []xpath.NodeId {
	t.Helper()
	eng := xpath.NewEngine()
	v, err := eng.Eval(tree, expr, ctx)
	if err != nil {
		t.Fatalf("eval %q: %v", expr, err)
	}
	if v.Kind != xpath.NodeSetValue {
		t.Fatalf("eval %q: expected node-set, got kind %v", expr, v.Kind)
	}
	return v.Nodes
}

func TestChildAndDescendantSteps(t *testing.T) {
	tree, lib := buildLibrary()
	books := evalNodes(t, tree, lib, "child::book")
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}
	titles := evalNodes(t, tree, lib, "descendant::title")
	if len(titles) != 2 {
		t.Fatalf("expected 2 titles via descendant, got %d", len(titles))
	}
}

func TestAttrEqualityFastPath(t *testing.T) {
	tree, lib := buildLibrary()
	got := evalNodes(t, tree, lib, `book[@lang='fr']`)
	if len(got) != 1 {
		t.Fatalf("expected 1 matching book, got %d", len(got))
	}
	if tree.StringValue(got[0]) != "Les Miserables12" {
		t.Fatalf("unexpected string-value for matched book: %q", tree.StringValue(got[0]))
	}
}

func TestPositionLiteralFastPath(t *testing.T) {
	tree, lib := buildLibrary()
	first := evalNodes(t, tree, lib, "book[1]")
	if len(first) != 1 {
		t.Fatalf("expected exactly 1 node from book[1], got %d", len(first))
	}
	second := evalNodes(t, tree, lib, "book[2]")
	if len(second) != 1 || first[0] == second[0] {
		t.Fatalf("book[1] and book[2] should select distinct nodes")
	}
}

func TestAbsolutePathFromAnyContext(t *testing.T) {
	tree, lib := buildLibrary()
	title1 := tree.Children(tree.Children(lib)[0])[0]
	nodes := evalNodes(t, tree, title1, "/library/book")
	if len(nodes) != 2 {
		t.Fatalf("absolute path should ignore context node position, got %d books", len(nodes))
	}
}

func TestStringFunctions(t *testing.T) {
	tree, lib := buildLibrary()
	if !evalBool(t, tree, lib, `starts-with(book[1]/title, 'Go')`) {
		t.Fatal("starts-with should match")
	}
	if !evalBool(t, tree, lib, `contains(book[2]/title, 'Miserables')`) {
		t.Fatal("contains should match")
	}
	if !evalBool(t, tree, lib, `string-length(book[1]/title) = 12`) {
		t.Fatal("string-length mismatch")
	}
}

func TestNumericFunctionsAndCoercion(t *testing.T) {
	tree, lib := buildLibrary()
	if !evalBool(t, tree, lib, "sum(book/price) = 42") {
		t.Fatal("sum(book/price) should be 42")
	}
	if !evalBool(t, tree, lib, "count(book) = 2") {
		t.Fatal("count(book) should be 2")
	}
}

func TestPredicateNumericComparesNodeSet(t *testing.T) {
	tree, lib := buildLibrary()
	if !evalBool(t, tree, lib, "book[price > 20]/@id = '1'") {
		t.Fatal("numeric node-set comparison should select book 1")
	}
}

func TestNamespaceAxisAlwaysEmpty(t *testing.T) {
	tree, lib := buildLibrary()
	nodes := evalNodes(t, tree, lib, "book[1]/namespace::*")
	if len(nodes) != 0 {
		t.Fatalf("namespace axis must be empty, got %d nodes", len(nodes))
	}
}

func TestIdFunctionIsAlwaysAnError(t *testing.T) {
	tree, lib := buildLibrary()
	eng := xpath.NewEngine()
	_, err := eng.Eval(tree, `id('1')`, lib)
	if err == nil {
		t.Fatal("id() must always return an error")
	}
}

func TestCommentAndUnionOperator(t *testing.T) {
	tree, lib := buildLibrary()
	nodes := evalNodes(t, tree, lib, "book | comment()")
	if len(nodes) != 3 {
		t.Fatalf("union of book and comment() should yield 3 nodes, got %d", len(nodes))
	}
}

func TestFollowingSiblingAndPrecedingSibling(t *testing.T) {
	tree, lib := buildLibrary()
	books := tree.Children(lib)
	following := evalNodes(t, tree, books[0], "following-sibling::book")
	if len(following) != 1 {
		t.Fatalf("expected 1 following sibling book, got %d", len(following))
	}
	preceding := evalNodes(t, tree, books[1], "preceding-sibling::book")
	if len(preceding) != 1 {
		t.Fatalf("expected 1 preceding sibling book, got %d", len(preceding))
	}
}

func TestEngineCachesCompiledExpressions(t *testing.T) {
	tree, lib := buildLibrary()
	eng := xpath.NewEngine()
	for i := 0; i < 3; i++ {
		v, err := eng.Eval(tree, "count(book)", lib)
		if err != nil {
			t.Fatalf("eval: %v", err)
		}
		if v.ToNumber(tree) != 2 {
			t.Fatalf("expected 2 books on repeated eval, got %v", v.ToNumber(tree))
		}
	}
}

func TestLangFunctionWalksAncestors(t *testing.T) {
	tree := xpathtest.New()
	root := tree.Root()
	doc := tree.AddElement(root, "doc")
	tree.AddAttr(doc, "xml:lang", "en-US")
	section := tree.AddElement(doc, "section")
	para := tree.AddElement(section, "para")

	if !evalBool(t, tree, para, "lang('en')") {
		t.Fatal("lang('en') should match an inherited en-US xml:lang")
	}
	if evalBool(t, tree, para, "lang('fr')") {
		t.Fatal("lang('fr') should not match an en-US xml:lang")
	}
}
