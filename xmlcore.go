// Package xmlcore is the thin façade a host binding wires against: it ties
// xmlenc decoding, the scanner, the structural index, the streaming parser,
// the SAX collector, and the XPath engine into the operations spec.md §6.2
// names. Each sub-package stays independently usable; this file only
// sequences them the way a caller typically wants them sequenced.
package xmlcore

import (
	"fmt"

	"github.com/jeffhuen/xmlcore/index"
	"github.com/jeffhuen/xmlcore/sax"
	"github.com/jeffhuen/xmlcore/scanner"
	"github.com/jeffhuen/xmlcore/streaming"
	"github.com/jeffhuen/xmlcore/xmlenc"
	"github.com/jeffhuen/xmlcore/xpath"
)

// defaultEngine is package-level so repeated XPath calls across a process
// share one bounded compiled-expression cache, the same way the
// pack's antchfx/xmlquery keeps one package-level compiled-selector cache.
var defaultEngine = xpath.NewEngine()

// ParseStrict decodes raw (BOM/declared-encoding sniffing, line-ending
// normalization via xmlenc), then builds a StructuralIndex in strict mode,
// rejecting any well-formedness violation.
func ParseStrict(raw []byte) (*index.Document, error) {
	return parse(raw, scanner.Strict)
}

// ParseLenient is ParseStrict but recovers from the well-formedness issues
// scanner.Lenient mode tolerates instead of failing.
func ParseLenient(raw []byte) (*index.Document, error) {
	return parse(raw, scanner.Lenient)
}

func parse(raw []byte, mode scanner.Mode) (*index.Document, error) {
	norm, err := xmlenc.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("xmlcore: %w", err)
	}
	s := scanner.New(norm.Data, mode)
	b := index.NewBuilder(norm.Data)
	b.SetEncoding(norm.Encoding)
	if err := s.Run(b); err != nil {
		return nil, err
	}
	return index.NewDocument(b.Build()), nil
}

// Root returns doc's XPath root node as seen through its Navigator.
func Root(doc *index.Document) xpath.NodeId {
	return index.NewNavigator(doc).Root()
}

// XPath evaluates expr with doc's root element (the Navigator's Root) as the
// context node, using the package-level compiled-expression cache. Absolute
// paths such as "/root" start at the document node above it; XPathContext
// takes an explicit context node instead.
func XPath(doc *index.Document, expr string) (xpath.Value, error) {
	nav := index.NewNavigator(doc)
	return defaultEngine.Eval(nav, expr, nav.Root())
}

// XPathContext evaluates expr with an explicit context node, for predicate
// and relative-path queries scoped under a prior result.
func XPathContext(doc *index.Document, expr string, ctx xpath.NodeId) (xpath.Value, error) {
	return defaultEngine.Eval(index.NewNavigator(doc), expr, ctx)
}

// XPathTextList evaluates expr, which must select a node-set, and returns
// the string-value of each matched node in document order.
func XPathTextList(doc *index.Document, expr string) ([]string, error) {
	v, err := XPath(doc, expr)
	if err != nil {
		return nil, err
	}
	if v.Kind != xpath.NodeSetValue {
		return nil, fmt.Errorf("xmlcore: XPathTextList requires a node-set result, got a %v", v.Kind)
	}
	nav := index.NewNavigator(doc)
	out := make([]string, len(v.Nodes))
	for i, n := range v.Nodes {
		out[i] = nav.StringValue(n)
	}
	return out, nil
}

// XPathQueryRaw evaluates expr, which must select a node-set of elements,
// and returns each matched element's serialized outer XML (including its
// own start/end tags) without entity-decoding, for a host that wants to
// re-parse a matched sub-tree independently.
func XPathQueryRaw(doc *index.Document, expr string) ([]string, error) {
	v, err := XPath(doc, expr)
	if err != nil {
		return nil, err
	}
	if v.Kind != xpath.NodeSetValue {
		return nil, fmt.Errorf("xmlcore: XPathQueryRaw requires a node-set result, got a %v", v.Kind)
	}
	out := make([]string, 0, len(v.Nodes))
	for _, n := range v.Nodes {
		raw, ok := serializeOuterXML(doc, n)
		if !ok {
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

// StreamingNew opens a new streaming parser matching elements named
// filter (the streaming_new operation). mode controls how malformed input
// is handled mid-feed. The returned State's Feed, Take and Finalize are the
// feed, take-elements and finalize operations.
func StreamingNew(filter string, mode scanner.Mode) *streaming.State {
	return streaming.New(filter, mode)
}

// SAXParse decodes raw with xmlenc and runs a one-shot SAX collection over
// it, returning the flat ordered event sequence.
func SAXParse(raw []byte, mode scanner.Mode) ([]sax.Event, error) {
	norm, err := xmlenc.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("xmlcore: %w", err)
	}
	s := scanner.New(norm.Data, mode)
	c := sax.NewCollector(norm.Data)
	if err := s.Run(c); err != nil {
		return nil, err
	}
	return c.Events, nil
}
