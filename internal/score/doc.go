// Package score turns discrepancy counts and tree statistics into the four
// fidelity scores. The scorer is a pure function: same inputs, same report,
// run over run.
package score
