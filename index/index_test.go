package index

import (
	"testing"

	"github.com/jeffhuen/xmlcore/scanner"
	"github.com/jeffhuen/xmlcore/xpath"
)

func buildDoc(t *testing.T, xml string, mode scanner.Mode) *Document {
	t.Helper()
	buf := []byte(xml)
	b := NewBuilder(buf)
	s := scanner.New(buf, mode)
	if err := s.Run(b); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	return NewDocument(b.Build())
}

func TestBuilderSimpleTree(t *testing.T) {
	doc := buildDoc(t, `<root><a>hi</a><b/></root>`, scanner.Strict)
	root, ok := doc.RootElement()
	if !ok {
		t.Fatal("expected root element")
	}
	if doc.ElementName(root) != "root" {
		t.Fatalf("got root name %q", doc.ElementName(root))
	}
	ix := doc.Index()
	children := ix.Children(ix.Element(root).Children)
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	if children[0].Kind() != ChildElement || children[1].Kind() != ChildElement {
		t.Fatalf("expected both children to be elements")
	}
	a := ix.Element(children[0].Index())
	if doc.ElementName(children[0].Index()) != "a" {
		t.Fatalf("got %q", doc.ElementName(children[0].Index()))
	}
	aChildren := ix.Children(a.Children)
	if len(aChildren) != 1 || aChildren[0].Kind() != ChildText {
		t.Fatalf("expected a single text child, got %+v", aChildren)
	}
	if doc.TextContent(aChildren[0].Index()) != "hi" {
		t.Fatalf("got text %q", doc.TextContent(aChildren[0].Index()))
	}
}

func TestTextCoalescing(t *testing.T) {
	doc := buildDoc(t, `<root>a<![CDATA[X]]>b<!--skip-->c</root>`, scanner.Strict)
	root, _ := doc.RootElement()
	ix := doc.Index()
	children := ix.Children(ix.Element(root).Children)
	// "a", CDATA "X", "b", then "c". The comment is not indexed, but it sits
	// between "b" and "c" in the buffer, so the two runs' spans are not
	// contiguous and they stay separate text entries.
	if len(children) != 4 {
		t.Fatalf("expected 4 children (text, cdata, text, text), got %d: %+v", len(children), children)
	}
	if children[0].Kind() != ChildText || children[1].Kind() != ChildCData || children[2].Kind() != ChildText || children[3].Kind() != ChildText {
		t.Fatalf("unexpected child kinds: %+v", children)
	}
	if doc.TextContent(children[2].Index()) != "b" || doc.TextContent(children[3].Index()) != "c" {
		t.Fatalf("expected separate 'b' and 'c' runs, got %q and %q", doc.TextContent(children[2].Index()), doc.TextContent(children[3].Index()))
	}
}

func TestAttributesAndEntityDecoding(t *testing.T) {
	doc := buildDoc(t, `<root x="1" y="a&amp;b"/>`, scanner.Strict)
	root, _ := doc.RootElement()
	ix := doc.Index()
	attrs := ix.ElementAttrs(ix.Element(root).Attrs)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attrs, got %d", len(attrs))
	}
	if doc.AttrValue(ix.Element(root).Attrs.Start+1) != "a&b" {
		t.Fatalf("got %q", doc.AttrValue(ix.Element(root).Attrs.Start+1))
	}
}

func TestNamespacePrefixSplit(t *testing.T) {
	doc := buildDoc(t, `<ns:root xmlns:ns="urn:x"><ns:child/></ns:root>`, scanner.Strict)
	root, _ := doc.RootElement()
	if doc.ElementPrefix(root) != "ns" || doc.ElementLocalName(root) != "root" {
		t.Fatalf("got prefix=%q local=%q", doc.ElementPrefix(root), doc.ElementLocalName(root))
	}
}

func TestStringValueDescendsIntoChildren(t *testing.T) {
	doc := buildDoc(t, `<root><a>one</a><b>two</b></root>`, scanner.Strict)
	root, _ := doc.RootElement()
	if got := doc.StringValue(root); got != "onetwo" {
		t.Fatalf("got %q", got)
	}
}

func TestDoctypeAndEncodingMetadata(t *testing.T) {
	doc := buildDoc(t, `<!DOCTYPE root><root/>`, scanner.Strict)
	if !doc.HasDoctype() {
		t.Fatal("expected HasDoctype true")
	}
	if doc.Encoding() != "" {
		t.Fatalf("expected empty encoding by default, got %q", doc.Encoding())
	}
}

func TestNavigatorChildrenAndStringValue(t *testing.T) {
	doc := buildDoc(t, `<root a="v"><child>text</child></root>`, scanner.Strict)
	nav := NewNavigator(doc)
	rootID := nav.Root()
	if nav.Kind(rootID) != xpath.ElementNodeKind {
		t.Fatalf("expected root navigator id to resolve to the element, got kind %v", nav.Kind(rootID))
	}
	children := nav.Children(rootID)
	if len(children) != 1 {
		t.Fatalf("expected 1 element child, got %d", len(children))
	}
	attrs := nav.Attributes(rootID)
	if len(attrs) != 1 || nav.Name(attrs[0]) != "a" {
		t.Fatalf("expected attribute 'a', got %+v", attrs)
	}
	if nav.StringValue(children[0]) != "text" {
		t.Fatalf("got %q", nav.StringValue(children[0]))
	}
}
