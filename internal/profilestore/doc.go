// Package profilestore persists parsed device profiles relationally in
// SQLite. Optional scalar fields round trip through nullable columns so the
// absent, explicit-false, and explicit-true states survive storage intact;
// composite optionals carry an explicit presence flag.
package profilestore
