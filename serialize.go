package xmlcore

import (
	"strings"

	"github.com/jeffhuen/xmlcore/index"
	"github.com/jeffhuen/xmlcore/scanner"
	"github.com/jeffhuen/xmlcore/xpath"
)

// serializeOuterXML rebuilds the outer XML text of the element node
// identified by nodeID (root, text, and attribute nodes are rejected),
// re-escaping attribute and text content on the way out. It walks the tree
// with an explicit work stack rather than host-language recursion, per the
// streaming parser's own explicit-stack convention, so serializing a very
// deep sub-tree can't blow the Go call stack.
func serializeOuterXML(doc *index.Document, nodeID xpath.NodeId) (string, bool) {
	nav := index.NewNavigator(doc)
	elemIdx, ok := nav.ElementIndex(nodeID)
	if !ok {
		return "", false
	}
	ix := doc.Index()
	buf := doc.Bytes()

	var b strings.Builder
	type frame struct {
		elemIdx uint32
		closing bool
		leaf    bool
		ref     index.ChildRef
	}
	stack := []frame{{elemIdx: elemIdx}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.leaf {
			switch top.ref.Kind() {
			case index.ChildText:
				b.WriteString(escapeText(doc.TextContent(top.ref.Index())))
			case index.ChildCData:
				b.WriteString("<![CDATA[")
				b.WriteString(doc.TextContent(top.ref.Index()))
				b.WriteString("]]>")
			}
			continue
		}

		if top.closing {
			b.WriteString("</")
			b.WriteString(doc.ElementName(top.elemIdx))
			b.WriteByte('>')
			continue
		}

		e := ix.Element(top.elemIdx)
		children := ix.Children(e.Children)

		b.WriteByte('<')
		b.WriteString(doc.ElementName(top.elemIdx))
		for _, a := range ix.ElementAttrs(e.Attrs) {
			b.WriteByte(' ')
			b.WriteString(string(a.Name.Slice(buf)))
			b.WriteString(`="`)
			b.WriteString(escapeAttrValue(decodeAttrValue(buf, a)))
			b.WriteString(`"`)
		}
		if len(children) == 0 {
			b.WriteString("/>")
			continue
		}
		b.WriteByte('>')
		stack = append(stack, frame{elemIdx: top.elemIdx, closing: true})
		for i := len(children) - 1; i >= 0; i-- {
			c := children[i]
			if c.Kind() == index.ChildElement {
				stack = append(stack, frame{elemIdx: c.Index()})
			} else {
				stack = append(stack, frame{leaf: true, ref: c})
			}
		}
	}
	return b.String(), true
}

func decodeAttrValue(buf []byte, a index.IndexAttribute) string {
	raw := a.Value.Slice(buf)
	if !a.NeedsEntityDecode {
		return string(raw)
	}
	out, err := scanner.DecodeEntities(nil, raw, false)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func escapeAttrValue(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;")
	return r.Replace(s)
}
