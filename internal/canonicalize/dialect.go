package canonicalize

import "strings"

// Dialect identifies a supported device description file format.
type Dialect string

const (
	// DialectXML is the schema-driven descriptor XML dialect.
	DialectXML Dialect = "descriptor"
	// DialectKeyword is the legacy section/keyword text dialect.
	DialectKeyword Dialect = "legacy"
)

var allDialects = []Dialect{DialectXML, DialectKeyword}

// AllDialects returns the ordered list of supported dialects.
func AllDialects() []Dialect {
	cp := make([]Dialect, len(allDialects))
	copy(cp, allDialects)
	return cp
}

// ParseDialect converts a string into a known Dialect.
func ParseDialect(value string) (Dialect, bool) {
	normalized := Dialect(strings.ToLower(strings.TrimSpace(value)))
	for _, d := range allDialects {
		if d == normalized {
			return d, true
		}
	}
	return "", false
}
