// Package xpathtest provides a minimal in-memory xpath.NodeAccess
// implementation used only by the xpath package's own tests, so those
// tests don't need to depend on the structural index builder.
package xpathtest

import "github.com/jeffhuen/xmlcore/xpath"

type nodeData struct {
	kind     xpath.NodeKind
	name     string // qualified name, e.g. "ns:tag"
	local    string
	prefix   string
	nsURI    string
	text     string // for text/comment/PI nodes
	parent   xpath.NodeId
	hasParent bool
	children []xpath.NodeId
	attrs    []xpath.NodeId
	order    int
}

// Tree is a hand-built document used to exercise the evaluator against
// known shapes without going through the scanner or structural index.
type Tree struct {
	nodes []nodeData
}

// New returns an empty tree with only a root node (id 0).
func New() *Tree {
	return &Tree{nodes: []nodeData{{kind: xpath.RootNodeKind, hasParent: false}}}
}

func (t *Tree) add(n nodeData) xpath.NodeId {
	n.order = len(t.nodes)
	t.nodes = append(t.nodes, n)
	return xpath.NodeId(len(t.nodes) - 1)
}

// Root returns the document's root node id.
func (t *Tree) Root() xpath.NodeId { return 0 }

// AddElement appends a new element child of parent and returns its id.
// name may be "prefix:local" or a bare local name.
func (t *Tree) AddElement(parent xpath.NodeId, name string) xpath.NodeId {
	prefix, local := splitName(name)
	id := t.add(nodeData{kind: xpath.ElementNodeKind, name: name, local: local, prefix: prefix, parent: parent, hasParent: true})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id
}

// AddText appends a text node child of parent.
func (t *Tree) AddText(parent xpath.NodeId, text string) xpath.NodeId {
	id := t.add(nodeData{kind: xpath.TextNodeKind, text: text, parent: parent, hasParent: true})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id
}

// AddComment appends a comment node child of parent.
func (t *Tree) AddComment(parent xpath.NodeId, text string) xpath.NodeId {
	id := t.add(nodeData{kind: xpath.CommentNodeKind, text: text, parent: parent, hasParent: true})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id
}

// AddPI appends a processing-instruction node child of parent.
func (t *Tree) AddPI(parent xpath.NodeId, target, text string) xpath.NodeId {
	id := t.add(nodeData{kind: xpath.PINodeKind, name: target, local: target, text: text, parent: parent, hasParent: true})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id
}

// AddAttr attaches an attribute to owner and returns its id.
func (t *Tree) AddAttr(owner xpath.NodeId, name, value string) xpath.NodeId {
	prefix, local := splitName(name)
	id := t.add(nodeData{kind: xpath.AttributeNodeKind, name: name, local: local, prefix: prefix, text: value, parent: owner, hasParent: true})
	t.nodes[owner].attrs = append(t.nodes[owner].attrs, id)
	return id
}

func splitName(name string) (prefix, local string) {
	for i := 0; i < len(name); i++ {
		if name[i] == ':' {
			return name[:i], name[i+1:]
		}
	}
	return "", name
}

func (t *Tree) Parent(id xpath.NodeId) (xpath.NodeId, bool) {
	n := t.nodes[id]
	return n.parent, n.hasParent
}

func (t *Tree) Children(id xpath.NodeId) []xpath.NodeId {
	return t.nodes[id].children
}

func (t *Tree) Attributes(id xpath.NodeId) []xpath.NodeId {
	return t.nodes[id].attrs
}

func (t *Tree) Kind(id xpath.NodeId) xpath.NodeKind {
	return t.nodes[id].kind
}

func (t *Tree) Name(id xpath.NodeId) string {
	n := t.nodes[id]
	if n.kind == xpath.PINodeKind {
		return n.name
	}
	return n.name
}

func (t *Tree) LocalName(id xpath.NodeId) string { return t.nodes[id].local }
func (t *Tree) Prefix(id xpath.NodeId) string    { return t.nodes[id].prefix }
func (t *Tree) NamespaceURI(id xpath.NodeId) string { return t.nodes[id].nsURI }

func (t *Tree) StringValue(id xpath.NodeId) string {
	n := t.nodes[id]
	switch n.kind {
	case xpath.TextNodeKind, xpath.CommentNodeKind, xpath.PINodeKind, xpath.AttributeNodeKind:
		return n.text
	default:
		var b []byte
		t.collectText(id, &b)
		return string(b)
	}
}

func (t *Tree) collectText(id xpath.NodeId, out *[]byte) {
	for _, c := range t.nodes[id].children {
		child := t.nodes[c]
		switch child.kind {
		case xpath.TextNodeKind:
			*out = append(*out, child.text...)
		case xpath.ElementNodeKind:
			t.collectText(c, out)
		}
	}
}

func (t *Tree) DocumentOrder(a, b xpath.NodeId) bool {
	return t.nodes[a].order < t.nodes[b].order
}
