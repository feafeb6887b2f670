package canonicalize

import (
	"errors"
	"fmt"

	"retrace/internal/canonical"
)

// ErrMalformed marks input that does not conform to its dialect grammar.
// Callers treat it as "analysis skipped", never as a zero score.
var ErrMalformed = errors.New("malformed document")

// Canonicalize parses raw original bytes into a canonical tree using the
// named dialect's grammar. Source paths are assigned on the returned tree.
func Canonicalize(dialect Dialect, raw []byte) (*canonical.Node, error) {
	var (
		root *canonical.Node
		err  error
	)
	switch dialect {
	case DialectXML:
		root, err = canonicalizeXML(raw)
	case DialectKeyword:
		root, err = canonicalizeKeyword(raw)
	default:
		return nil, fmt.Errorf("unknown dialect %q", dialect)
	}
	if err != nil {
		return nil, err
	}
	root.AssignPaths()
	return root, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}
