package xmlcore_test

import (
	"testing"

	"github.com/jeffhuen/xmlcore"
	"github.com/jeffhuen/xmlcore/index"
	"github.com/jeffhuen/xmlcore/scanner"
	"github.com/jeffhuen/xmlcore/xpath"
)

func mustParseStrict(t *testing.T, xml string) *index.Document {
	t.Helper()
	doc, err := xmlcore.ParseStrict([]byte(xml))
	if err != nil {
		t.Fatalf("ParseStrict: %v", err)
	}
	return doc
}

func TestScenarioS1CountDescendantElements(t *testing.T) {
	doc := mustParseStrict(t, `<root><a/><a/><a/></root>`)
	v, err := xmlcore.XPath(doc, "count(//a)")
	if err != nil {
		t.Fatalf("XPath: %v", err)
	}
	if v.ToNumber(nil) != 3 {
		t.Fatalf("expected count(//a) = 3, got %v", v.ToNumber(nil))
	}
}

func TestScenarioS2AttributeValuesInDocumentOrder(t *testing.T) {
	doc := mustParseStrict(t, `<root><item id="1">A</item><item id="2">B</item></root>`)
	got, err := xmlcore.XPathTextList(doc, "//item/@id")
	if err != nil {
		t.Fatalf("XPathTextList: %v", err)
	}
	want := []string{"1", "2"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestScenarioS3SumOfChildValues(t *testing.T) {
	doc := mustParseStrict(t, `<r><x>1</x><x>2</x><x>3</x></r>`)
	v, err := xmlcore.XPath(doc, "sum(/r/x)")
	if err != nil {
		t.Fatalf("XPath: %v", err)
	}
	if v.ToNumber(nil) != 6 {
		t.Fatalf("expected sum = 6, got %v", v.ToNumber(nil))
	}
}

func TestScenarioS4AncestorAxisInDocumentOrder(t *testing.T) {
	doc := mustParseStrict(t, `<r><a><b><c/></b></a></r>`)
	v, err := xmlcore.XPath(doc, "//c/ancestor::*")
	if err != nil {
		t.Fatalf("XPath: %v", err)
	}
	if v.Kind != xpath.NodeSetValue || len(v.Nodes) != 3 {
		t.Fatalf("expected 3 ancestors, got %#v", v)
	}
	nav := index.NewNavigator(doc)
	want := []string{"r", "a", "b"}
	for i, n := range v.Nodes {
		if got := nav.Name(n); got != want[i] {
			t.Fatalf("expected ancestor %d to be %q, got %q", i, want[i], got)
		}
	}
}

func TestScenarioS5CDataStringValueNotReparsedAsMarkup(t *testing.T) {
	doc := mustParseStrict(t, `<?xml version="1.0"?><!-- hi --><root><![CDATA[<not a tag>]]></root>`)
	v, err := xmlcore.XPath(doc, "string(/root)")
	if err != nil {
		t.Fatalf("XPath: %v", err)
	}
	if v.ToString(nil) != "<not a tag>" {
		t.Fatalf("expected CDATA string-value %q, got %q", "<not a tag>", v.ToString(nil))
	}
}

func TestScenarioS6StreamingTakeFiveOfTenThousandSiblings(t *testing.T) {
	st := xmlcore.StreamingNew("item", scanner.Strict)
	st.Feed([]byte("<root>"))
	for i := 0; i < 10000; i++ {
		st.Feed([]byte("<item/>"))
	}
	st.Feed([]byte("</root>"))

	got := st.Take(5)
	if len(got) != 5 {
		t.Fatalf("expected exactly 5 byte ranges, got %d", len(got))
	}
	for _, r := range got {
		if string(r) != "<item/>" {
			t.Fatalf("expected each range to be <item/>, got %q", r)
		}
	}
}

func TestScenarioS7StrictRejectsLenientRecovers(t *testing.T) {
	if _, err := xmlcore.ParseStrict([]byte(`<1invalid/>`)); err == nil {
		t.Fatal("expected parse_strict to reject a name starting with a digit")
	}
	if _, err := xmlcore.ParseLenient([]byte(`<1invalid/>`)); err != nil {
		t.Fatalf("expected parse_lenient to succeed without panicking, got error: %v", err)
	}
}

func TestScenarioS8PredefinedEntitiesDecodedInStringValue(t *testing.T) {
	doc := mustParseStrict(t, `<root><a>&amp;&lt;&gt;&apos;&quot;</a></root>`)
	v, err := xmlcore.XPath(doc, "string(/root/a)")
	if err != nil {
		t.Fatalf("XPath: %v", err)
	}
	want := `&<>'"`
	if v.ToString(nil) != want {
		t.Fatalf("expected %q, got %q", want, v.ToString(nil))
	}
}

func TestXPathQueryRawReserializesMatchedElements(t *testing.T) {
	doc := mustParseStrict(t, `<root><item id="1">A</item><item id="2">B</item></root>`)
	raw, err := xmlcore.XPathQueryRaw(doc, "//item")
	if err != nil {
		t.Fatalf("XPathQueryRaw: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("expected 2 serialized items, got %d", len(raw))
	}
	if raw[0] != `<item id="1">A</item>` {
		t.Fatalf("unexpected serialization: %q", raw[0])
	}
}

func TestSAXParseEmitsFlatEventSequence(t *testing.T) {
	events, err := xmlcore.SAXParse([]byte(`<root><a/>text</root>`), scanner.Strict)
	if err != nil {
		t.Fatalf("SAXParse: %v", err)
	}
	// start root, start a, end a (empty element), characters "text", end root.
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d: %#v", len(events), events)
	}
}
