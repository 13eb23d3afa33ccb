/* ============================================================= *\
   priority.go

   Packed lexicographic comparison key: (relationship class,
   255-path-length), packed so a single uint64 compare resolves
   Gao-Rexford best-path selection. Grounded on the original
   Priority struct (include/Priority.h), which packs relationship
   into byte 5 and (255 - path_length) into byte 2 of a little-endian
   uint64 with several reserved bytes in between. We keep only the
   two bytes the spec requires and drop the reserved ones.
\* ============================================================= */

package announcement

const (
	relationshipShift = 16
	pathLengthShift   = 0
	maxPathLength     = 255
)

// Priority packs relationship and path length into a single uint64 key.
// A larger Priority is always the better route.
func Priority(rel Relationship, pathLength int) uint64 {
	if pathLength > maxPathLength {
		pathLength = maxPathLength
	}
	if pathLength < 0 {
		pathLength = 0
	}
	inv := uint64(maxPathLength - pathLength)
	return (uint64(rel) << relationshipShift) | (inv << pathLengthShift)
}

// SplitPriority decodes a Priority back into its relationship and path
// length components; used only by diagnostics and tests.
func SplitPriority(p uint64) (rel Relationship, pathLength int) {
	rel = Relationship((p >> relationshipShift) & 0xFF)
	inv := (p >> pathLengthShift) & 0xFF
	pathLength = maxPathLength - int(inv)
	return
}
