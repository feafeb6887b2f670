package reconstruct

import (
	"fmt"
	"sort"

	"retrace/internal/canonical"
	"retrace/internal/canonicalize"
	"retrace/internal/profile"
)

// InvariantError reports a device profile that violates an internal invariant
// the reconstructor depends on. Absent optional data never raises it.
type InvariantError struct {
	DeviceID string
	Reason   error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("profile invariant violated for device %s: %v", e.DeviceID, e.Reason)
}

func (e *InvariantError) Unwrap() error { return e.Reason }

// Reconstruct builds the canonical tree for a device profile in the given
// dialect. Source paths are assigned on the returned tree.
func Reconstruct(p *profile.DeviceProfile, dialect canonicalize.Dialect) (*canonical.Node, error) {
	if err := p.Validate(); err != nil {
		deviceID := ""
		if p != nil {
			deviceID = p.DeviceID
		}
		return nil, &InvariantError{DeviceID: deviceID, Reason: err}
	}

	var root *canonical.Node
	switch dialect {
	case canonicalize.DialectXML:
		root = shapeXML(p)
	case canonicalize.DialectKeyword:
		root = shapeKeyword(p)
	default:
		return nil, fmt.Errorf("unknown dialect %q", dialect)
	}
	root.AssignPaths()
	return root, nil
}

// orderedIndices returns the emission order for a collection of n entities.
// Entities carrying a stored order index come first, sorted by it; the rest
// follow in natural-key order. Ties break on the natural key so the result is
// a pure function of the profile.
func orderedIndices(n int, orderOf func(int) profile.Option[int], keyLess func(a, b int) bool) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	sort.SliceStable(out, func(a, b int) bool {
		ia, ib := out[a], out[b]
		oa, hasA := orderOf(ia).Value()
		ob, hasB := orderOf(ib).Value()
		switch {
		case hasA && hasB:
			if oa != ob {
				return oa < ob
			}
			return keyLess(ia, ib)
		case hasA:
			return true
		case hasB:
			return false
		default:
			return keyLess(ia, ib)
		}
	})
	return out
}

func boolLabel(value bool, trueLabel, falseLabel string) string {
	if value {
		return trueLabel
	}
	return falseLabel
}
