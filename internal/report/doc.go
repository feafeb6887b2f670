// Package report persists quality reports in SQLite. Reports are append-only
// records keyed by run id; later runs supersede but never modify earlier ones,
// so score history per device stays queryable.
package report
