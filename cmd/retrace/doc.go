// Command retrace is the round-trip fidelity CLI: it archives original
// device description files, loads parser-produced profiles, runs analyses,
// and reports quality scores.
package main
