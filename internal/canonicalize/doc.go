// Package canonicalize parses raw archived device description bytes directly
// into canonical trees, one canonicalizer per supported dialect. The trees it
// produces are the ground-truth side of a fidelity comparison, so parsing is
// all-or-nothing: malformed input yields an error, never a partial tree.
package canonicalize
