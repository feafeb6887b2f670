package diff

import (
	"fmt"

	"retrace/internal/canonical"
)

// Differ compares canonical trees under a fixed policy. It never fails on
// well-formed trees; the worst case is a long discrepancy list.
type Differ struct {
	policy Policy
}

// New constructs a differ with the given policy.
func New(policy Policy) *Differ {
	return &Differ{policy: policy}
}

// Diff aligns original against reconstructed and returns every discrepancy in
// a deterministic order: a pre-order walk of the original tree, attributes
// before children, with reconstruction-only constructs appended at each level
// in reconstruction order. Both trees must have had AssignPaths called.
func (d *Differ) Diff(original, reconstructed *canonical.Node) []Discrepancy {
	out := []Discrepancy{}
	if original == nil && reconstructed == nil {
		return out
	}
	if original == nil {
		out = append(out, d.extraElement(reconstructed))
		return out
	}
	if reconstructed == nil || original.Tag != reconstructed.Tag {
		out = append(out, d.missingElement(original))
		if reconstructed != nil {
			out = append(out, d.extraElement(reconstructed))
		}
		return out
	}
	d.compareNodes(original, reconstructed, &out)
	return out
}

func (d *Differ) compareNodes(original, reconstructed *canonical.Node, out *[]Discrepancy) {
	d.compareAttrs(original, reconstructed, out)

	if original.Text != reconstructed.Text {
		*out = append(*out, Discrepancy{
			Kind:        ValueMismatch,
			Location:    original.Path,
			Severity:    d.policy.severityFor(original.Tag, "#text"),
			Description: fmt.Sprintf("text: expected %q, got %q", original.Text, reconstructed.Text),
		})
	}

	pairs, missing, extra := d.alignChildren(original, reconstructed)

	// Walk original children in document order, recursing into pairs and
	// reporting the unpaired; reconstruction-only children follow.
	for _, child := range original.Children {
		if partner, ok := pairs[child]; ok {
			d.compareNodes(child, partner, out)
			continue
		}
		if missing[child] {
			*out = append(*out, d.missingElement(child))
		}
	}
	for _, child := range reconstructed.Children {
		if extra[child] {
			*out = append(*out, d.extraElement(child))
		}
	}
}

func (d *Differ) compareAttrs(original, reconstructed *canonical.Node, out *[]Discrepancy) {
	for _, attr := range original.Attrs {
		got, ok := reconstructed.Attr(attr.Name)
		if !ok {
			*out = append(*out, Discrepancy{
				Kind:        MissingAttribute,
				Location:    original.Path,
				Severity:    d.policy.severityFor(original.Tag, attr.Name),
				Description: fmt.Sprintf("attribute %q missing (original value %q)", attr.Name, attr.Value),
			})
			continue
		}
		if got.Value != attr.Value {
			*out = append(*out, Discrepancy{
				Kind:        IncorrectAttribute,
				Location:    original.Path,
				Severity:    d.policy.severityFor(original.Tag, attr.Name),
				Description: fmt.Sprintf("attribute %q: expected %q, got %q", attr.Name, attr.Value, got.Value),
			})
		}
	}
	for _, attr := range reconstructed.Attrs {
		if _, ok := original.Attr(attr.Name); !ok {
			*out = append(*out, Discrepancy{
				Kind:        ExtraAttribute,
				Location:    original.Path,
				Severity:    d.policy.severityFor(original.Tag, attr.Name),
				Description: fmt.Sprintf("attribute %q not present in original (reconstructed value %q)", attr.Name, attr.Value),
			})
		}
	}
}

// alignChildren pairs the children of both nodes tag group by tag group.
// Within a group the policy decides: natural-key pairing (with positional
// fallback for elements missing the key) or strictly positional pairing.
func (d *Differ) alignChildren(original, reconstructed *canonical.Node) (map[*canonical.Node]*canonical.Node, map[*canonical.Node]bool, map[*canonical.Node]bool) {
	pairs := make(map[*canonical.Node]*canonical.Node)
	missing := make(map[*canonical.Node]bool)
	extra := make(map[*canonical.Node]bool)

	tags := []string{}
	seen := map[string]bool{}
	for _, child := range original.Children {
		if !seen[child.Tag] {
			seen[child.Tag] = true
			tags = append(tags, child.Tag)
		}
	}
	for _, child := range reconstructed.Children {
		if !seen[child.Tag] {
			seen[child.Tag] = true
			tags = append(tags, child.Tag)
		}
	}

	for _, tag := range tags {
		origGroup := childrenWithTag(original, tag)
		reconGroup := childrenWithTag(reconstructed, tag)
		rule := d.policy.matchRule(tag)

		unpairedOrig := origGroup
		unpairedRecon := reconGroup
		if rule.Strategy == MatchKey {
			unpairedOrig, unpairedRecon = pairByKey(origGroup, reconGroup, rule.Keys, pairs, missing, extra)
		}

		n := len(unpairedOrig)
		if len(unpairedRecon) < n {
			n = len(unpairedRecon)
		}
		for i := 0; i < n; i++ {
			pairs[unpairedOrig[i]] = unpairedRecon[i]
		}
		for _, child := range unpairedOrig[n:] {
			missing[child] = true
		}
		for _, child := range unpairedRecon[n:] {
			extra[child] = true
		}
	}

	return pairs, missing, extra
}

// pairByKey matches elements whose key attribute values are equal. Keyed
// elements that find no partner are decided here (missing or extra); only
// elements lacking every key attribute are returned for positional pairing
// among the leftovers. Duplicate keys keep only their first occurrence as
// pairable; later duplicates join the keyless leftovers.
func pairByKey(origGroup, reconGroup []*canonical.Node, keys []string, pairs map[*canonical.Node]*canonical.Node, missing, extra map[*canonical.Node]bool) ([]*canonical.Node, []*canonical.Node) {
	reconByKey := make(map[string]*canonical.Node, len(reconGroup))
	reconDup := make(map[*canonical.Node]bool)
	for _, node := range reconGroup {
		key, ok := nodeKey(node, keys)
		if !ok {
			continue
		}
		if _, dup := reconByKey[key]; dup {
			reconDup[node] = true
			continue
		}
		reconByKey[key] = node
	}

	paired := make(map[*canonical.Node]bool)
	var leftOrig, leftRecon []*canonical.Node
	for _, node := range origGroup {
		key, ok := nodeKey(node, keys)
		if !ok {
			leftOrig = append(leftOrig, node)
			continue
		}
		partner, found := reconByKey[key]
		if !found || paired[partner] {
			missing[node] = true
			continue
		}
		pairs[node] = partner
		paired[node] = true
		paired[partner] = true
	}
	for _, node := range reconGroup {
		if paired[node] {
			continue
		}
		if _, ok := nodeKey(node, keys); !ok || reconDup[node] {
			leftRecon = append(leftRecon, node)
			continue
		}
		extra[node] = true
	}
	return leftOrig, leftRecon
}

func nodeKey(node *canonical.Node, keys []string) (string, bool) {
	for _, key := range keys {
		if attr, ok := node.Attr(key); ok {
			return key + "=" + attr.Value, true
		}
	}
	return "", false
}

func childrenWithTag(parent *canonical.Node, tag string) []*canonical.Node {
	var out []*canonical.Node
	for _, child := range parent.Children {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}

func (d *Differ) missingElement(node *canonical.Node) Discrepancy {
	return Discrepancy{
		Kind:        MissingElement,
		Location:    node.Path,
		Severity:    d.policy.severityFor(node.Tag, ""),
		Description: fmt.Sprintf("element %s missing from reconstruction", node.Tag),
	}
}

func (d *Differ) extraElement(node *canonical.Node) Discrepancy {
	return Discrepancy{
		Kind:        ExtraElement,
		Location:    node.Path,
		Severity:    d.policy.severityFor(node.Tag, ""),
		Description: fmt.Sprintf("element %s not present in original", node.Tag),
	}
}
