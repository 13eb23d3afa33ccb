/* ============================================================= *\
   pathtree.go

   Diagnostic: render the tree of AS-paths observed while seeding
   from MRT data, so an operator can see where paths toward a given
   origin converge or diverge. Grounded on the teacher's
   tree/tree.go (an ASCII tree originally used in BGP_heuristics.go's
   build_tree to visualize traceroute-derived routing entries);
   repurposed here from routing-entry as_paths to MRT as_paths.
\* ============================================================= */

package graph

import (
	"io"
	"strconv"

	"github.com/Emeline-1/bgp_extrapolator/tree"
)

// PathTree accumulates observed AS-paths for later rendering.
type PathTree struct {
	t     *tree.Tree
	count map[string]int
}

// NewPathTree constructs an empty PathTree.
func NewPathTree() *PathTree {
	return &PathTree{
		t:     &tree.Tree{},
		count: make(map[string]int),
	}
}

// Add records one observed AS-path (monitor-to-origin order, as
// produced by propagation's MRT seeding).
func (pt *PathTree) Add(path []uint32) {
	strPath := make([]string, len(path))
	for i, asn := range path {
		strPath[i] = strconv.FormatUint(uint64(asn), 10)
	}
	ifAbsent := func(key string, arg interface{}) {
		pt.count[key]++
	}
	ifPresent := func(key string, arg interface{}) {
		pt.count[key]++
	}
	pt.t.Add(strPath, ifAbsent, ifPresent, nil)
}

// Fprint renders the accumulated tree as nested ASCII box-drawing,
// the same format tree.Tree.Fprint has always produced.
func (pt *PathTree) Fprint(w io.Writer) {
	pt.t.Fprint(w, true, "")
}
