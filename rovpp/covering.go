/* ============================================================= *\
   covering.go

   Alternate-route search: given an attacker announcement, find the
   best covering (or equal) route among ribs_in that still passes ROV
   and was not sent by a neighbor that also sent a failed-ROV route for
   an overlapping prefix. Grounded on ROVppAS.cpp's
   best_alternative_route, indexed with github.com/Emeline-1/radix the
   same way the teacher's overlays_processing.go builds and walks a
   radix tree of prefixes to find aggregate/more-specific relations --
   repurposed here from overlay detection to covering-prefix lookup.
\* ============================================================= */

package rovpp

import (
	"github.com/Emeline-1/bgp_extrapolator/announcement"
	radix "github.com/Emeline-1/radix"
)

// coveringIndex maps a candidate's radix key to the set of candidates
// that cover it (its ancestors in the trie, i.e. every inserted
// announcement whose prefix contains this one).
type coveringIndex struct {
	byKey     map[string]announcement.Announcement
	ancestors map[string][]announcement.Announcement
}

// buildCoveringIndex inserts every candidate (and the query
// announcement itself, so it too can be found as a "child") into a
// radix tree keyed by the prefix's binary string, then walks it
// post-order the way generate_walk_radix_tree does: each call reports
// one aggregate (parent) and the more-specific entries nested beneath
// it (children), which is exactly the covering relation ROV++ needs.
func buildCoveringIndex(query announcement.Announcement, candidates []announcement.Announcement) *coveringIndex {
	idx := &coveringIndex{
		byKey:     make(map[string]announcement.Announcement, len(candidates)+1),
		ancestors: make(map[string][]announcement.Announcement),
	}

	tree := radix.New()
	queryKey := query.Prefix.BinaryString()
	idx.byKey[queryKey] = query
	tree.Insert(queryKey, query)

	for _, c := range candidates {
		key := c.Prefix.BinaryString()
		idx.byKey[key] = c
		tree.Insert(key, c)
	}

	tree.Walk_post(func(parent *radix.LeafNode, children []*radix.LeafNode) {
		parentAnn, ok := idx.byKey[parent.Key]
		if !ok {
			return
		}
		for _, child := range children {
			if child.Key == parent.Key {
				continue
			}
			idx.ancestors[child.Key] = append(idx.ancestors[child.Key], parentAnn)
		}
	})

	return idx
}

// Covering returns every indexed candidate whose prefix strictly
// contains query's prefix (the radix tree collapses equal-key
// insertions onto one node, so same-prefix candidates never appear as
// query's own ancestor here -- BestAlternativeRoute folds those back
// in separately).
func (idx *coveringIndex) Covering(query announcement.Announcement) []announcement.Announcement {
	return idx.ancestors[query.Prefix.BinaryString()]
}

// BestAlternativeRoute returns the highest-priority safe covering
// route for ann among ribs_in, or ann unchanged if none exists.
// Grounded on ROVppAS::best_alternative_route: a candidate is safe
// unless some failed-ROV entry from the same neighbor has a prefix
// that overlaps it (covers it or is covered by it).
func (as *AS) BestAlternativeRoute(ann announcement.Announcement) announcement.Announcement {
	var candidates []announcement.Announcement
	baddies := make([]announcement.Announcement, len(as.FailedROV))
	copy(baddies, as.FailedROV)

	for _, c := range as.RibsIn {
		if as.PassROV(c) && !c.Withdraw && c.Alt != announcement.AttackerOnRoute {
			candidates = append(candidates, c)
		} else {
			baddies = append(baddies, c)
		}
	}

	idx := buildCoveringIndex(ann, candidates)
	pool := idx.Covering(ann)
	for _, c := range candidates {
		if c.Prefix.Equal(ann.Prefix) {
			pool = append(pool, c)
		}
	}

	best := ann
	for _, candidate := range pool {
		safe := true
		for _, bad := range baddies {
			overlaps := bad.Prefix.Contains(candidate.Prefix) || candidate.Prefix.Contains(bad.Prefix)
			if overlaps && bad.ReceivedFromASN == candidate.ReceivedFromASN {
				safe = false
				break
			}
		}
		if !safe {
			continue
		}
		if best.Equal(ann) {
			best = candidate
		} else if best.Priority < candidate.Priority {
			best = candidate
		}
	}
	return best
}
