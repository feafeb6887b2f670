// Package analysis orchestrates one full fidelity analysis per (device, file)
// pair: fetch archived original bytes and the relational profile, canonicalize,
// reconstruct, diff, score, and persist the resulting QualityReport.
//
// Analyses are independent and retryable. Re-running an analysis appends a new
// report; it never mutates a previous one. RunBatch fans analyses out on a
// worker pool and captures per-device outcomes so one device's failure never
// aborts its siblings.
package analysis
