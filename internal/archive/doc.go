// Package archive persists the raw original device description bytes per
// (device, file type) pair. The archived bytes are the ground truth side of
// every fidelity comparison; they are stored verbatim and checksummed.
package archive
