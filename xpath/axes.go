package xpath

// axisNodes produces the candidate nodes for axis starting at ctx, in the
// axis's natural order (document order for forward axes, reverse document
// order for reverse axes, per spec.md 4.6.4).
func axisNodes(doc NodeAccess, axis Axis, ctxNode NodeId) []NodeId {
	switch axis {
	case ChildAxis:
		return doc.Children(ctxNode)
	case ParentAxis:
		if p, ok := doc.Parent(ctxNode); ok {
			return []NodeId{p}
		}
		return nil
	case SelfAxis:
		return []NodeId{ctxNode}
	case AttributeAxis:
		return doc.Attributes(ctxNode)
	case NamespaceAxis:
		// Reduced-support semantics: the capability has no namespace-node
		// representation, so this axis is always empty.
		return nil
	case DescendantAxis:
		var out []NodeId
		collectDescendants(doc, ctxNode, &out)
		return out
	case DescendantOrSelfAxis:
		out := []NodeId{ctxNode}
		collectDescendants(doc, ctxNode, &out)
		return out
	case AncestorAxis:
		var out []NodeId
		n := ctxNode
		for {
			p, ok := doc.Parent(n)
			if !ok {
				break
			}
			out = append(out, p)
			n = p
		}
		return out
	case AncestorOrSelfAxis:
		out := []NodeId{ctxNode}
		n := ctxNode
		for {
			p, ok := doc.Parent(n)
			if !ok {
				break
			}
			out = append(out, p)
			n = p
		}
		return out
	case FollowingSiblingAxis:
		return siblingsAfter(doc, ctxNode)
	case PrecedingSiblingAxis:
		return siblingsBefore(doc, ctxNode)
	case FollowingAxis:
		return followingNodes(doc, ctxNode)
	case PrecedingAxis:
		return precedingNodes(doc, ctxNode)
	}
	return nil
}

func collectDescendants(doc NodeAccess, n NodeId, out *[]NodeId) {
	for _, c := range doc.Children(n) {
		*out = append(*out, c)
		collectDescendants(doc, c, out)
	}
}

func siblingsAfter(doc NodeAccess, n NodeId) []NodeId {
	p, ok := doc.Parent(n)
	if !ok {
		return nil
	}
	children := doc.Children(p)
	idx := indexOf(children, n)
	if idx < 0 || idx+1 >= len(children) {
		return nil
	}
	out := make([]NodeId, len(children)-idx-1)
	copy(out, children[idx+1:])
	return out
}

func siblingsBefore(doc NodeAccess, n NodeId) []NodeId {
	p, ok := doc.Parent(n)
	if !ok {
		return nil
	}
	children := doc.Children(p)
	idx := indexOf(children, n)
	if idx <= 0 {
		return nil
	}
	out := make([]NodeId, idx)
	for i := 0; i < idx; i++ {
		out[i] = children[idx-1-i] // reverse document order
	}
	return out
}

func indexOf(nodes []NodeId, target NodeId) int {
	for i, n := range nodes {
		if n == target {
			return i
		}
	}
	return -1
}

// allNodesInOrder returns every element/text node in the document in
// document order. following/preceding are rare in practice and never on a
// hot path, so both are implemented directly against this full traversal
// rather than the more intricate sibling-stepping recursion a streaming
// axis implementation would use.
func allNodesInOrder(doc NodeAccess) []NodeId {
	var out []NodeId
	var walk func(NodeId)
	walk = func(n NodeId) {
		out = append(out, n)
		for _, c := range doc.Children(n) {
			walk(c)
		}
	}
	walk(doc.Root())
	return out
}

// followingNodes collects every node after ctxNode in document order,
// excluding ctxNode's own descendants.
func followingNodes(doc NodeAccess, ctxNode NodeId) []NodeId {
	all := allNodesInOrder(doc)
	idx := indexOf(all, ctxNode)
	if idx < 0 {
		return nil
	}
	descendants := map[NodeId]bool{}
	var descSlice []NodeId
	collectDescendants(doc, ctxNode, &descSlice)
	for _, d := range descSlice {
		descendants[d] = true
	}
	var out []NodeId
	for i := idx + 1; i < len(all); i++ {
		if !descendants[all[i]] {
			out = append(out, all[i])
		}
	}
	return out
}

// precedingNodes collects every node before ctxNode in reverse document
// order, excluding ctxNode's ancestors.
func precedingNodes(doc NodeAccess, ctxNode NodeId) []NodeId {
	all := allNodesInOrder(doc)
	idx := indexOf(all, ctxNode)
	if idx < 0 {
		return nil
	}
	ancestors := map[NodeId]bool{}
	n := ctxNode
	for {
		p, ok := doc.Parent(n)
		if !ok {
			break
		}
		ancestors[p] = true
		n = p
	}
	var out []NodeId
	for i := idx - 1; i >= 0; i-- {
		if !ancestors[all[i]] {
			out = append(out, all[i])
		}
	}
	return out
}
