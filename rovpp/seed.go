/* ============================================================= *\
   seed.go

   MRT seeding for the ROV++ variant: the same winner-picking rules
   propagation.Seeder uses (spec.md §4.3), retargeted at a
   map[uint32]*AS built by FromGraph instead of a *graph.Graph's own
   *asnode.AS nodes.
\* ============================================================= */

package rovpp

import (
	"github.com/Emeline-1/bgp_extrapolator/announcement"
	"github.com/Emeline-1/bgp_extrapolator/graph"
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

// MRTAnnouncement mirrors propagation.MRTAnnouncement: one observed
// row from the announcement feed.
type MRTAnnouncement struct {
	Prefix    bgpprefix.Prefix
	ASPath    []uint32 // monitor ... origin, left to right
	Origin    uint32
	Timestamp int64
}

type seenKey struct {
	asn    uint32
	prefix bgpprefix.Prefix
}

type seedWinner struct {
	ann       announcement.Announcement
	timestamp int64
	pathLen   int
}

// Seeder accumulates MRT announcements for a fixed map[uint32]*AS /
// *graph.Graph pair and, once every path has been offered, delivers
// the winning report at each AS-hop into ribs_in.
type Seeder struct {
	g     *graph.Graph
	nodes map[uint32]*AS
	best  map[seenKey]seedWinner
}

// NewSeeder constructs a Seeder bound to nodes, using g for ASN
// translation and relationship lookups (nodes must have been built
// from g by FromGraph).
func NewSeeder(g *graph.Graph, nodes map[uint32]*AS) *Seeder {
	return &Seeder{g: g, nodes: nodes, best: make(map[seenKey]seedWinner)}
}

// Offer stages one observed path, same loop-detection and translation
// rules as propagation.Seeder.Offer.
func (s *Seeder) Offer(mrt MRTAnnouncement) {
	translated := make([]uint32, len(mrt.ASPath))
	for i, asn := range mrt.ASPath {
		translated[i] = s.g.Translate(asn)
	}

	if hasNonAdjacentRepeat(translated) {
		return
	}

	for i := len(translated) - 1; i > 0; i-- {
		recvFrom := translated[i]
		recvTo := translated[i-1]
		pathLen := len(translated) - i

		node := s.nodes[recvTo]
		if node == nil {
			continue
		}

		rel := relationshipOf(node, recvFrom)
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

// wins is identical to propagation.wins: smaller timestamp wins,
// shorter path breaks a tie, tiny_hash breaks a residual tie, and the
// lower received-from ASN breaks a tiny_hash tie.
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

// Flush delivers every surviving winner into its AS's ribs_in. Call
// once after every Offer for this block.
func (s *Seeder) Flush() {
	for key, w := range s.best {
		node := s.nodes[key.asn]
		if node == nil {
			continue
		}
		node.Enqueue(w.ann)
	}
	s.best = make(map[seenKey]seedWinner)
}

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

// relationshipOf reports how recvFrom relates to node, defaulting to
// Peer if the relationship is unknown.
func relationshipOf(node *AS, recvFrom uint32) announcement.Relationship {
	if _, ok := node.Providers[recvFrom]; ok {
		return announcement.Provider
	}
	if _, ok := node.Customers[recvFrom]; ok {
		return announcement.Customer
	}
	return announcement.Peer
}
