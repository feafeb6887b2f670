// Package reconstruct synthesizes a canonical tree from the relational device
// profile, as the inverse of parsing. Each dialect has its own shaper
// following the shaping rules a hand-written serializer for that dialect would
// use, driven entirely by stored metadata: an optional field is emitted if and
// only if its Option is present, ordering follows stored order indices, and
// variant elements appear only when their parse-time presence flag says so.
package reconstruct
