/* ============================================================= *\
   seed.go

   MRT seeding: turn an observed AS path into announcements staged at
   every AS the path passes through, with loop detection and
   monitor-conflict tiebreaking. Grounded on original Extrapolator.cpp's
   give_ann_to_as_path and spec.md §4.3.
\* ============================================================= */

package propagation

import (
	"github.com/Emeline-1/bgp_extrapolator/announcement"
	"github.com/Emeline-1/bgp_extrapolator/asnode"
	"github.com/Emeline-1/bgp_extrapolator/graph"
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

// MRTAnnouncement is one row from the announcement feed: an observed
// AS path (monitor to origin, right-to-left as the feed stores it)
// plus the prefix it was seen carrying.
type MRTAnnouncement struct {
	Prefix    bgpprefix.Prefix
	ASPath    []uint32 // monitor ... origin, left to right
	Origin    uint32
	Timestamp int64
}

// seenKey identifies the (AS, prefix) whose monitor report currently
// wins the timestamp/path-length tiebreak during seeding.
type seenKey struct {
	asn    uint32
	prefix bgpprefix.Prefix
}

// Seeder accumulates MRT announcements and, once every path has been
// offered, delivers the winning one at each AS-hop into the graph.
type Seeder struct {
	g    *graph.Graph
	best map[seenKey]seedWinner
}

type seedWinner struct {
	ann       announcement.Announcement
	timestamp int64
	pathLen   int
}

// NewSeeder constructs a Seeder bound to g.
func NewSeeder(g *graph.Graph) *Seeder {
	return &Seeder{g: g, best: make(map[seenKey]seedWinner)}
}

// Offer stages one observed path. Loops are detected and the whole
// path discarded (spec.md §4.3 rule 1, §7 "cycle in path"); ASNs are
// translated through the graph's supernode table before the loop
// check and before delivery, so collapsed members count as one node.
func (s *Seeder) Offer(mrt MRTAnnouncement) {
	translated := make([]uint32, len(mrt.ASPath))
	for i, asn := range mrt.ASPath {
		translated[i] = s.g.Translate(asn)
	}

	if hasNonAdjacentRepeat(translated) {
		return
	}

	// Walk origin -> monitor (translated[0] is the monitor hop,
	// translated[len-1] the origin), delivering an announcement to
	// each receiving hop with priority computed from the relationship
	// of the sender to the receiver and remaining path length.
	for i := len(translated) - 1; i > 0; i-- {
		recvFrom := translated[i]
		recvTo := translated[i-1]
		pathLen := len(translated) - i

		as := s.g.AS(recvTo)
		if as == nil {
			// Unknown ASN mid-path: skip this hop, continue along the
			// remainder that is known (spec.md §7).
			continue
		}

		rel := relationshipOf(as, recvFrom)
		ann := announcement.Announcement{
			Origin:          s.g.Translate(mrt.Origin),
			Prefix:          mrt.Prefix,
			ReceivedFromASN: recvFrom,
			Priority:        announcement.Priority(rel, pathLen),
			ASPath:          append([]uint32(nil), translated[i-1:]...),
			Tstamp:          mrt.Timestamp,
			FromMonitor:     true,
		}

		key := seenKey{asn: recvTo, prefix: mrt.Prefix}
		candidate := seedWinner{ann: ann, timestamp: mrt.Timestamp, pathLen: pathLen}
		if cur, ok := s.best[key]; !ok || wins(candidate, cur) {
			s.best[key] = candidate
		}
	}
}

// wins reports whether a should replace b as the winning monitor
// report at this (AS, prefix): smaller timestamp wins, shorter path
// breaks a timestamp tie (spec.md §4.3 rule 3). A residual tie (same
// timestamp, same path length) falls back to the same tiny_hash
// comparison process_announcement uses for an ordinary priority tie
// (equal hashes: lower received-from ASN), so the outcome stays
// deterministic rather than arbitrary insertion order.
func wins(a, b seedWinner) bool {
	if a.timestamp != b.timestamp {
		return a.timestamp < b.timestamp
	}
	if a.pathLen != b.pathLen {
		return a.pathLen < b.pathLen
	}
	ha, hb := announcement.TinyHash(a.ann.ReceivedFromASN), announcement.TinyHash(b.ann.ReceivedFromASN)
	if ha != hb {
		return ha < hb
	}
	return a.ann.ReceivedFromASN < b.ann.ReceivedFromASN
}

// Flush delivers every surviving winner into its AS's incoming queue.
// Call once after every Offer for this block.
func (s *Seeder) Flush() {
	for key, w := range s.best {
		as := s.g.AS(key.asn)
		if as == nil {
			continue
		}
		as.Enqueue(w.ann)
	}
	s.best = make(map[seenKey]seedWinner)
}

// hasNonAdjacentRepeat reports whether path contains the same ASN at
// two non-adjacent positions (adjacent duplicates, i.e. AS-path
// prepending, are allowed).
func hasNonAdjacentRepeat(path []uint32) bool {
	lastSeenAt := make(map[uint32]int, len(path))
	for i, asn := range path {
		if prev, ok := lastSeenAt[asn]; ok && prev != i-1 {
			return true
		}
		lastSeenAt[asn] = i
	}
	return false
}

// relationshipOf reports how recvFrom relates to as, defaulting to
// Peer if the relationship is unknown (conservative: peer priority is
// neither the best nor the worst class).
func relationshipOf(as *asnode.AS, recvFrom uint32) announcement.Relationship {
	if _, ok := as.Providers[recvFrom]; ok {
		return announcement.Provider
	}
	if _, ok := as.Customers[recvFrom]; ok {
		return announcement.Customer
	}
	return announcement.Peer
}
