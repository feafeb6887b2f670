// Package canonical defines the format-neutral document tree shared by the
// canonicalizers, the reconstructor, and the structural differ. Both sides of
// a comparison are expressed as canonical nodes so the differ never needs to
// know which dialect produced them.
package canonical
