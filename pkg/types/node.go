package types

// Node is one element of a rendered view tree. Render functions return Nodes
// and the view layer assembles them into header and body regions.
type Node struct {
	Tag      string
	Text     string
	Attrs    map[string]string
	Children []*Node

	parent *Node
}

// NewNode returns a node with the given tag and text.
func NewNode(tag, text string) *Node {
	return &Node{Tag: tag, Text: text, Attrs: map[string]string{}}
}

// Parent returns the node this one was appended to, or nil.
func (n *Node) Parent() *Node {
	return n.parent
}

// Attr returns the attribute value and whether it is set.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.Attrs[key]
	return v, ok
}

// SetAttr sets an attribute and returns the node for chaining.
func (n *Node) SetAttr(key, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = map[string]string{}
	}
	n.Attrs[key] = value
	return n
}

// RemoveAttr deletes an attribute.
func (n *Node) RemoveAttr(key string) {
	delete(n.Attrs, key)
}

// Append adds children and links them to n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Clear removes all children.
func (n *Node) Clear() {
	for _, c := range n.Children {
		c.parent = nil
	}
	n.Children = nil
}

// Closest walks from n up through its ancestors and returns the first node
// carrying attribute key, or nil.
func (n *Node) Closest(key string) *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if _, ok := cur.Attrs[key]; ok {
			return cur
		}
	}
	return nil
}

// Walk visits n and its descendants depth-first until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// TextContent concatenates the text of n and its descendants.
func (n *Node) TextContent() string {
	s := n.Text
	for _, c := range n.Children {
		s += c.TextContent()
	}
	return s
}
