package index

import "github.com/jeffhuen/xmlcore/scanner"

// Document owns a StructuralIndex together with the input buffer it
// references and a few pieces of parse metadata. It is the long-lived
// handle a caller keeps after parsing; spans into it remain valid for the
// Document's whole lifetime.
type Document struct {
	ix *StructuralIndex
}

// NewDocument wraps a built StructuralIndex.
func NewDocument(ix *StructuralIndex) *Document { return &Document{ix: ix} }

// Index returns the underlying StructuralIndex.
func (d *Document) Index() *StructuralIndex { return d.ix }

// RootElement returns the index of the root element, if any.
func (d *Document) RootElement() (uint32, bool) { return d.ix.RootElement() }

// Bytes returns the owned input buffer, read-only, so callers outside this
// package (such as the root package's outer-XML serializer) can resolve
// spans without a second copy.
func (d *Document) Bytes() []byte { return d.ix.buf }

// HasDoctype reports whether a DOCTYPE declaration was present.
func (d *Document) HasDoctype() bool { return d.ix.hasDoctype }

// Encoding returns the detected/declared source encoding recorded by
// xmlenc during decoding, or "" if unknown.
func (d *Document) Encoding() string { return d.ix.encoding }

// ElementName returns the element's decoded qualified name.
func (d *Document) ElementName(idx uint32) string {
	return string(d.ix.elements[idx].Name.Slice(d.ix.buf))
}

// ElementLocalName strips any namespace prefix from the element's name.
func (d *Document) ElementLocalName(idx uint32) string {
	e := &d.ix.elements[idx]
	if e.Prefix.IsEmpty() {
		return string(e.Name.Slice(d.ix.buf))
	}
	name := e.Name.Slice(d.ix.buf)
	return string(name[len(e.Prefix.Slice(d.ix.buf))+1:])
}

// ElementPrefix returns the element's namespace prefix, or "" if unprefixed.
func (d *Document) ElementPrefix(idx uint32) string {
	e := &d.ix.elements[idx]
	if e.Prefix.IsEmpty() {
		return ""
	}
	return string(e.Prefix.Slice(d.ix.buf))
}

// AttrName and AttrValue decode an attribute's name/value, entity-decoding
// the value on demand when NeedsEntityDecode is set.
func (d *Document) AttrName(idx uint32) string {
	return string(d.ix.attrs[idx].Name.Slice(d.ix.buf))
}

func (d *Document) AttrValue(idx uint32) string {
	a := &d.ix.attrs[idx]
	raw := a.Value.Slice(d.ix.buf)
	if !a.NeedsEntityDecode {
		return string(raw)
	}
	out, err := scanner.DecodeEntities(make([]byte, 0, len(raw)), raw, false)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// TextContent decodes a text/CDATA run, entity-decoding on demand. CDATA
// runs never need decoding.
func (d *Document) TextContent(idx uint32) string {
	t := &d.ix.texts[idx]
	raw := t.Span.Slice(d.ix.buf)
	if t.IsCData || !t.NeedsEntityDecode {
		return string(raw)
	}
	out, err := scanner.DecodeEntities(make([]byte, 0, len(raw)), raw, false)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// StringValue concatenates the text content of idx and all of its
// descendant elements, in document order, per the XPath string-value of a
// node definition.
func (d *Document) StringValue(idx uint32) string {
	var buf []byte
	d.collectText(idx, &buf)
	return string(buf)
}

func (d *Document) collectText(idx uint32, out *[]byte) {
	e := &d.ix.elements[idx]
	for _, ref := range d.ix.Children(e.Children) {
		switch ref.Kind() {
		case ChildText, ChildCData:
			t := &d.ix.texts[ref.Index()]
			raw := t.Span.Slice(d.ix.buf)
			if !t.IsCData && t.NeedsEntityDecode {
				decoded, err := scanner.DecodeEntities(nil, raw, false)
				if err == nil {
					*out = append(*out, decoded...)
					continue
				}
			}
			*out = append(*out, raw...)
		case ChildElement:
			d.collectText(ref.Index(), out)
		}
	}
}
