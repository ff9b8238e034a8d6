// Package index implements the Index Builder: it consumes scanner events
// and constructs a StructuralIndex, a flat-array representation of the
// document tree (no pointers, no per-node heap allocation) that is
// immutable and safely shared across concurrent readers once built.
package index

import "github.com/jeffhuen/xmlcore/scanner"

// ChildRefKind tags the low-level kind of a ChildRef without needing a
// separate array lookup.
type ChildRefKind uint32

const (
	ChildElement ChildRefKind = iota
	ChildText
	ChildCData
)

const childKindShift = 30
const childIndexMask = (1 << childKindShift) - 1

// ChildRef is a tagged 32-bit reference into elements[] or texts[]: the top
// two bits carry the kind, the low 30 bits the array index. This keeps
// child-list iteration branch-free and avoids a discriminated-union
// allocation per entry.
type ChildRef uint32

func newChildRef(kind ChildRefKind, idx int) ChildRef {
	return ChildRef(uint32(kind)<<childKindShift | uint32(idx)&childIndexMask)
}

// Kind reports which flat array this reference points into.
func (c ChildRef) Kind() ChildRefKind { return ChildRefKind(uint32(c) >> childKindShift) }

// Index reports the offset into the array Kind identifies.
func (c ChildRef) Index() uint32 { return uint32(c) & childIndexMask }

// NoParent is the sentinel parent index used by the root element.
const NoParent uint32 = ^uint32(0)

// IndexElement is one element in document order.
type IndexElement struct {
	Name     scanner.Span
	Prefix   scanner.Span // empty if unprefixed
	Parent   uint32       // NoParent for the root
	Children childRange   // into children_data[]
	Attrs    attrRange    // into attrs[]
}

// IndexText is one text or CDATA run.
type IndexText struct {
	Span              scanner.Span
	Parent            uint32
	NeedsEntityDecode bool
	IsCData           bool
}

// IndexAttribute is one attribute in document order.
type IndexAttribute struct {
	Name              scanner.Span
	Prefix            scanner.Span
	Value             scanner.Span
	NeedsEntityDecode bool
}

type childRange struct {
	Start, End uint32
}

type attrRange struct {
	Start, End uint32
}

// StructuralIndex is the immutable flat-array document representation
// built by a single Builder pass. Once built, it is safe for concurrent
// read-only traversal and XPath evaluation.
type StructuralIndex struct {
	buf          []byte
	elements     []IndexElement
	texts        []IndexText
	attrs        []IndexAttribute
	childrenData []ChildRef
	root         uint32 // index into elements[], or NoParent if empty document
	hasDoctype   bool
	encoding     string
}

// RootElement returns the index of the document's root element, or false
// if the document had no element content.
func (ix *StructuralIndex) RootElement() (uint32, bool) {
	if ix.root == NoParent {
		return 0, false
	}
	return ix.root, true
}

// Element returns the element at idx.
func (ix *StructuralIndex) Element(idx uint32) *IndexElement { return &ix.elements[idx] }

// Text returns the text run at idx.
func (ix *StructuralIndex) Text(idx uint32) *IndexText { return &ix.texts[idx] }

// Attr returns the attribute at idx.
func (ix *StructuralIndex) Attr(idx uint32) *IndexAttribute { return &ix.attrs[idx] }

// Children returns the ChildRef slice belonging to an element's Children range.
func (ix *StructuralIndex) Children(r childRange) []ChildRef {
	return ix.childrenData[r.Start:r.End]
}

// ElementAttrs returns the IndexAttribute slice belonging to an element's
// Attrs range.
func (ix *StructuralIndex) ElementAttrs(r attrRange) []IndexAttribute {
	return ix.attrs[r.Start:r.End]
}

// ElementCount, TextCount, AttrCount report the size of each flat array,
// mainly useful for diagnostics and capacity-aware callers.
func (ix *StructuralIndex) ElementCount() int { return len(ix.elements) }
func (ix *StructuralIndex) TextCount() int    { return len(ix.texts) }
func (ix *StructuralIndex) AttrCount() int    { return len(ix.attrs) }
