package index

import "github.com/jeffhuen/xmlcore/xpath"

// nodeKindShift/nodeIndexMask pack a NodeId the same way ChildRef packs a
// child reference: a small kind tag in the high bits, a flat-array index in
// the low bits, so the two stay consistent across the package.
const nodeKindShift = 29
const nodeIndexMask = (1 << nodeKindShift) - 1

type navKind uint32

const (
	navRoot navKind = iota
	navElement
	navText
	navAttribute
)

func makeNodeID(k navKind, idx uint32) xpath.NodeId {
	return xpath.NodeId(uint32(k)<<nodeKindShift | idx&nodeIndexMask)
}

func splitNodeID(id xpath.NodeId) (navKind, uint32) {
	v := uint32(id)
	return navKind(v >> nodeKindShift), v & nodeIndexMask
}

// Navigator implements xpath.NodeAccess over a Document. An attribute's
// NodeId carries only its absolute attrs[] index; the owning element is
// recovered when needed (Parent, DocumentOrder) by ownerOfAttr, a linear
// scan of the elements' attribute ranges.
type Navigator struct {
	doc *Document
}

// NewNavigator creates an xpath.NodeAccess view over doc.
func NewNavigator(doc *Document) *Navigator { return &Navigator{doc: doc} }

// ElementIndex reports the StructuralIndex element slot a NodeId refers to,
// for callers (such as a raw-XML serializer) that need to drop back down to
// the flat-array representation instead of going through NodeAccess.
func (n *Navigator) ElementIndex(id xpath.NodeId) (uint32, bool) {
	kind, idx := splitNodeID(id)
	if kind != navElement {
		return 0, false
	}
	return idx, true
}

func (n *Navigator) Root() xpath.NodeId {
	root, ok := n.doc.RootElement()
	if !ok {
		return makeNodeID(navRoot, 0)
	}
	return makeNodeID(navElement, root)
}

func (n *Navigator) Parent(id xpath.NodeId) (xpath.NodeId, bool) {
	kind, idx := splitNodeID(id)
	switch kind {
	case navRoot:
		return 0, false
	case navElement:
		p := n.doc.ix.elements[idx].Parent
		if p == NoParent {
			return makeNodeID(navRoot, 0), true
		}
		return makeNodeID(navElement, p), true
	case navText:
		return makeNodeID(navElement, n.doc.ix.texts[idx].Parent), true
	case navAttribute:
		owner, ok := n.ownerOfAttr(idx)
		if !ok {
			return 0, false
		}
		return makeNodeID(navElement, owner), true
	}
	return 0, false
}

func (n *Navigator) ownerOfAttr(attrIdx uint32) (uint32, bool) {
	for i := range n.doc.ix.elements {
		r := n.doc.ix.elements[i].Attrs
		if attrIdx >= r.Start && attrIdx < r.End {
			return uint32(i), true
		}
	}
	return 0, false
}

func (n *Navigator) Children(id xpath.NodeId) []xpath.NodeId {
	kind, idx := splitNodeID(id)
	var elemIdx uint32
	switch kind {
	case navRoot:
		root, ok := n.doc.RootElement()
		if !ok {
			return nil
		}
		return []xpath.NodeId{makeNodeID(navElement, root)}
	case navElement:
		elemIdx = idx
	default:
		return nil
	}
	e := &n.doc.ix.elements[elemIdx]
	refs := n.doc.ix.Children(e.Children)
	out := make([]xpath.NodeId, 0, len(refs))
	for _, r := range refs {
		switch r.Kind() {
		case ChildElement:
			out = append(out, makeNodeID(navElement, r.Index()))
		case ChildText, ChildCData:
			out = append(out, makeNodeID(navText, r.Index()))
		}
	}
	return out
}

func (n *Navigator) Attributes(id xpath.NodeId) []xpath.NodeId {
	kind, idx := splitNodeID(id)
	if kind != navElement {
		return nil
	}
	r := n.doc.ix.elements[idx].Attrs
	out := make([]xpath.NodeId, 0, r.End-r.Start)
	for i := r.Start; i < r.End; i++ {
		out = append(out, makeNodeID(navAttribute, i))
	}
	return out
}

func (n *Navigator) Kind(id xpath.NodeId) xpath.NodeKind {
	kind, _ := splitNodeID(id)
	switch kind {
	case navRoot:
		return xpath.RootNodeKind
	case navElement:
		return xpath.ElementNodeKind
	case navText:
		return xpath.TextNodeKind
	case navAttribute:
		return xpath.AttributeNodeKind
	}
	return xpath.ElementNodeKind
}

func (n *Navigator) Name(id xpath.NodeId) string {
	kind, idx := splitNodeID(id)
	switch kind {
	case navElement:
		return n.doc.ElementName(idx)
	case navAttribute:
		return n.doc.AttrName(idx)
	}
	return ""
}

func (n *Navigator) LocalName(id xpath.NodeId) string {
	kind, idx := splitNodeID(id)
	switch kind {
	case navElement:
		return n.doc.ElementLocalName(idx)
	case navAttribute:
		name := n.doc.AttrName(idx)
		for i := len(name) - 1; i >= 0; i-- {
			if name[i] == ':' {
				return name[i+1:]
			}
		}
		return name
	}
	return ""
}

func (n *Navigator) Prefix(id xpath.NodeId) string {
	kind, idx := splitNodeID(id)
	switch kind {
	case navElement:
		return n.doc.ElementPrefix(idx)
	case navAttribute:
		name := n.doc.AttrName(idx)
		for i := 0; i < len(name); i++ {
			if name[i] == ':' {
				return name[:i]
			}
		}
	}
	return ""
}

// NamespaceURI is left unresolved (namespace-URI resolution is out of
// scope per spec 1's Non-goals on full namespace processing); it always
// reports the empty string.
func (n *Navigator) NamespaceURI(id xpath.NodeId) string { return "" }

func (n *Navigator) StringValue(id xpath.NodeId) string {
	kind, idx := splitNodeID(id)
	switch kind {
	case navRoot:
		root, ok := n.doc.RootElement()
		if !ok {
			return ""
		}
		return n.doc.StringValue(root)
	case navElement:
		return n.doc.StringValue(idx)
	case navText:
		return n.doc.TextContent(idx)
	case navAttribute:
		return n.doc.AttrValue(idx)
	}
	return ""
}

// DocumentOrder reports whether a precedes b. Attributes are first
// normalized to their owning element, the document node precedes every
// other node, and the remaining element/text nodes are compared by their
// depth-first preorder rank (globalPosition).
func (n *Navigator) DocumentOrder(a, b xpath.NodeId) bool {
	ak, ai := splitNodeID(a)
	bk, bi := splitNodeID(b)
	if ak == navAttribute {
		if owner, ok := n.ownerOfAttr(ai); ok {
			ak, ai = navElement, owner
		}
	}
	if bk == navAttribute {
		if owner, ok := n.ownerOfAttr(bi); ok {
			bk, bi = navElement, owner
		}
	}
	if ak == navRoot {
		return bk != navRoot
	}
	if bk == navRoot {
		return false
	}
	// Both elements and texts were appended during a single left-to-right
	// scan, but the two arrays are independent, so compare by each node's
	// position in its parent's children list instead of raw array index.
	return n.globalPosition(ak, ai) < n.globalPosition(bk, bi)
}

// globalPosition computes a depth-first preorder rank by walking from the
// root; used only by DocumentOrder, which is not on any hot path (called
// solely to order or deduplicate small node-sets).
func (n *Navigator) globalPosition(kind navKind, idx uint32) int {
	target := makeNodeID(kind, idx)
	pos := 0
	found := -1
	var walk func(xpath.NodeId)
	walk = func(id xpath.NodeId) {
		if found >= 0 {
			return
		}
		if id == target {
			found = pos
		}
		pos++
		for _, c := range n.Children(id) {
			walk(c)
			if found >= 0 {
				return
			}
		}
	}
	walk(n.Root())
	return found
}
