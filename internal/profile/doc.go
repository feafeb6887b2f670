// Package profile defines the typed relational object model the reconstructor
// consumes. Every field that can legitimately be absent in an original
// document is an Option, so "not present in source" stays distinguishable from
// any valid value, including explicit false. Loosely-typed upstream
// discriminators are decoded once at the storage boundary into the MenuItem
// tagged union.
package profile
