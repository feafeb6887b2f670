// Package diff aligns two canonical trees node-by-node and
// attribute-by-attribute, producing an ordered list of typed, located,
// severity-tagged discrepancies. Alignment strategy and severity assignment
// are policy, not algorithm: both come from an externally configurable YAML
// table with an embedded default.
package diff
