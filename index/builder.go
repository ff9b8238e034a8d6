package index

import (
	"sync"

	"github.com/jeffhuen/xmlcore/scanner"
)

// childScratchPool reuses the per-element "children so far" slices that
// exist only during construction, the same way the teacher's element.go
// pools *XMLElement/*XMLContentNode values across a single parse: here the
// pooled unit is a []ChildRef scratch buffer rather than a node, since the
// index itself has no per-node allocations to pool.
var childScratchPool = sync.Pool{
	New: func() any {
		s := make([]ChildRef, 0, 8)
		return &s
	},
}

func getScratch() *[]ChildRef {
	return childScratchPool.Get().(*[]ChildRef)
}

func putScratch(s *[]ChildRef) {
	*s = (*s)[:0]
	childScratchPool.Put(s)
}

type openElement struct {
	idx         uint32
	children    *[]ChildRef
	lastTextIdx int // index into texts[] of the last appended text child, or -1
	lastWasText bool
}

// Builder implements scanner.Handler to construct a StructuralIndex from a
// single well-formed (or lenient) scan. A Builder is single-use: call
// Build once per input buffer.
type Builder struct {
	buf          []byte
	elements     []IndexElement
	texts        []IndexText
	attrs        []IndexAttribute
	childrenData []ChildRef
	stack        []openElement
	hasDoctype   bool
	encoding     string
}

// NewBuilder creates a Builder over buf, reserving flat-array capacity by
// the same rough size heuristics (bytes-per-node) the teacher's gosax-based
// parser uses to size its initial slices.
func NewBuilder(buf []byte) *Builder {
	n := len(buf)
	return &Builder{
		buf:      buf,
		elements: make([]IndexElement, 0, n/50+8),
		texts:    make([]IndexText, 0, n/40+8),
		attrs:    make([]IndexAttribute, 0, n/60+8),
	}
}

// SetEncoding records the detected/declared encoding for the resulting
// Document; called by the caller (xmlcore.go) after xmlenc sniffing.
func (b *Builder) SetEncoding(enc string) { b.encoding = enc }

func (b *Builder) topChildren() *openElement {
	if len(b.stack) == 0 {
		return nil
	}
	return &b.stack[len(b.stack)-1]
}

func (b *Builder) StartElement(name, prefix scanner.Span, attrs []scanner.Attr, isEmpty bool) error {
	idx := uint32(len(b.elements))
	attrStart := uint32(len(b.attrs))
	for _, a := range attrs {
		b.attrs = append(b.attrs, IndexAttribute{
			Name:              a.Name,
			Prefix:            a.Prefix,
			Value:             a.Value,
			NeedsEntityDecode: a.NeedsDecode,
		})
	}
	attrEnd := uint32(len(b.attrs))

	parent := NoParent
	if top := b.topChildren(); top != nil {
		parent = top.idx
		*top.children = append(*top.children, newChildRef(ChildElement, int(idx)))
		top.lastWasText = false
	}

	b.elements = append(b.elements, IndexElement{
		Name:   name,
		Prefix: prefix,
		Parent: parent,
		Attrs:  attrRange{Start: attrStart, End: attrEnd},
	})

	if !isEmpty {
		b.stack = append(b.stack, openElement{idx: idx, children: getScratch(), lastTextIdx: -1})
	} else {
		b.elements[idx].Children = childRange{}
	}
	return nil
}

func (b *Builder) EndElement(name, prefix scanner.Span) error {
	top := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]

	start := uint32(0)
	end := uint32(0)
	if len(*top.children) > 0 {
		// children_data is append-only and grows monotonically; we flush this
		// element's scratch list directly onto the shared flat array.
		start = b.flushChildren(*top.children)
		end = start + uint32(len(*top.children))
	}
	b.elements[top.idx].Children = childRange{Start: start, End: end}
	putScratch(top.children)
	return nil
}

// childrenData accumulates the flattened children_data[] array; flushChildren
// appends one element's scratch list and returns its start offset.
func (b *Builder) flushChildren(refs []ChildRef) uint32 {
	start := uint32(len(b.childrenData))
	b.childrenData = append(b.childrenData, refs...)
	return start
}

func (b *Builder) Text(span scanner.Span, needsDecode bool) error {
	if span.IsEmpty() {
		return nil
	}
	top := b.topChildren()
	if top == nil {
		return nil // text outside the root element is ignored
	}
	if top.lastWasText && top.lastTextIdx >= 0 {
		prev := &b.texts[top.lastTextIdx]
		// Only coalesce when the new run picks up exactly where the previous
		// one left off in the buffer. An intervening comment or processing
		// instruction doesn't reset lastWasText (those events are SAX-only,
		// per spec 4.3), but it does open a gap between the two runs' spans,
		// so bridging them with a length-only extension would silently pull
		// in the skipped bytes. Start a fresh IndexText entry instead.
		if prev.Span.Offset+uint32(prev.Span.Length) == span.Offset {
			prev.Span.Length += span.Length
			prev.NeedsEntityDecode = prev.NeedsEntityDecode || needsDecode
			return nil
		}
	}
	idx := len(b.texts)
	b.texts = append(b.texts, IndexText{
		Span:              span,
		Parent:            top.idx,
		NeedsEntityDecode: needsDecode,
	})
	*top.children = append(*top.children, newChildRef(ChildText, idx))
	top.lastTextIdx = idx
	top.lastWasText = true
	return nil
}

func (b *Builder) CData(span scanner.Span) error {
	top := b.topChildren()
	if top == nil {
		return nil
	}
	idx := len(b.texts)
	b.texts = append(b.texts, IndexText{
		Span:    span,
		Parent:  top.idx,
		IsCData: true,
	})
	*top.children = append(*top.children, newChildRef(ChildCData, idx))
	top.lastWasText = false
	return nil
}

// Comment and ProcessingInstruction are ignored for the index: those
// events are for SAX consumers only, per spec 4.3.
func (b *Builder) Comment(span scanner.Span) error { return nil }
func (b *Builder) ProcessingInstruction(target, data scanner.Span, hasData bool) error {
	return nil
}
func (b *Builder) XMLDeclaration(attrs []scanner.Attr) error { return nil }

func (b *Builder) DoctypeSeen() error {
	b.hasDoctype = true
	return nil
}

// Build finalizes the StructuralIndex. Call after a scanner.Scanner.Run
// that used this Builder as its Handler has returned nil.
func (b *Builder) Build() *StructuralIndex {
	root := NoParent
	for i := range b.elements {
		if b.elements[i].Parent == NoParent {
			root = uint32(i)
			break
		}
	}
	return &StructuralIndex{
		buf:          b.buf,
		elements:     b.elements,
		texts:        b.texts,
		attrs:        b.attrs,
		childrenData: b.childrenData,
		root:         root,
		hasDoctype:   b.hasDoctype,
		encoding:     b.encoding,
	}
}
