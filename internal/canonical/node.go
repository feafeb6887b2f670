package canonical

import "strconv"

// Attr is a single named attribute on a node. Attribute order is document
// order. Absence is represented by the entry not existing at all; an attribute
// explicitly set to "false" keeps its entry. Default marks an attribute that
// was explicitly present carrying its declared default value; it is provenance
// metadata and never participates in value comparison.
type Attr struct {
	Name    string
	Value   string
	Default bool
}

// Node is one element of a canonical document tree.
type Node struct {
	Tag      string
	Attrs    []Attr
	Children []*Node
	Text     string
	Path     string
}

// NewNode constructs a node with the given tag.
func NewNode(tag string) *Node {
	return &Node{Tag: tag}
}

// Attr returns the named attribute and whether it exists.
func (n *Node) Attr(name string) (Attr, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

// AttrValue returns the named attribute's value, or "" when absent.
func (n *Node) AttrValue(name string) string {
	a, _ := n.Attr(name)
	return a.Value
}

// SetAttr appends or replaces an attribute, preserving insertion order for
// new names.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// SetDefaultAttr appends or replaces an attribute flagged as an explicit
// default.
func (n *Node) SetDefaultAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			n.Attrs[i].Default = true
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value, Default: true})
}

// AppendChild adds a child node, keeping document order.
func (n *Node) AppendChild(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// ElementCount returns the number of nodes in the subtree rooted at n,
// including n itself.
func (n *Node) ElementCount() int {
	if n == nil {
		return 0
	}
	count := 1
	for _, child := range n.Children {
		count += child.ElementCount()
	}
	return count
}

// AttributeCount returns the number of attributes across the subtree.
func (n *Node) AttributeCount() int {
	if n == nil {
		return 0
	}
	count := len(n.Attrs)
	for _, child := range n.Children {
		count += child.AttributeCount()
	}
	return count
}

// ValueBearingCount returns the number of nodes in the subtree carrying a
// non-empty text payload.
func (n *Node) ValueBearingCount() int {
	if n == nil {
		return 0
	}
	count := 0
	if n.Text != "" {
		count = 1
	}
	for _, child := range n.Children {
		count += child.ValueBearingCount()
	}
	return count
}

// AssignPaths computes source paths for every node in the subtree. Paths use
// dotted segments with bracketed positional indices for repeated same-tag
// siblings (e.g. "DeviceProfile.Parameter[2].RecordItem[0]"). A tag that
// appears only once among its siblings carries no index.
func (n *Node) AssignPaths() {
	if n == nil {
		return
	}
	n.Path = n.Tag
	assignChildPaths(n)
}

func assignChildPaths(parent *Node) {
	tagTotals := make(map[string]int, len(parent.Children))
	for _, child := range parent.Children {
		tagTotals[child.Tag]++
	}
	tagSeen := make(map[string]int, len(tagTotals))
	for _, child := range parent.Children {
		segment := child.Tag
		if tagTotals[child.Tag] > 1 {
			segment += "[" + strconv.Itoa(tagSeen[child.Tag]) + "]"
		}
		tagSeen[child.Tag]++
		child.Path = parent.Path + "." + segment
		assignChildPaths(child)
	}
}
