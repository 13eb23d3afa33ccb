/* ============================================================= *\
   sweep.go

   The rank-ordered propagation sweep: up to providers, across to
   peers, down to customers, under the Gao-Rexford export policy.
   Grounded on spec.md §4.3 (no direct original C++ text for the sweep
   internals was retrieved for this pack; the up/peer/down ordering
   follows spec.md's prose exactly).
\* ============================================================= */

package propagation

import (
	"github.com/Emeline-1/bgp_extrapolator/announcement"
	"github.com/Emeline-1/bgp_extrapolator/asnode"
	"github.com/Emeline-1/bgp_extrapolator/graph"
)

// learnedFrom classifies how as learned ann, for Gao-Rexford export
// filtering: an entry with no tracked class (e.g. locally originated)
// is treated as customer-learned, the most exportable case.
func learnedFrom(as *asnode.AS, ann announcement.Announcement) announcement.Relationship {
	if _, ok := as.Providers[ann.ReceivedFromASN]; ok {
		return announcement.Provider
	}
	if _, ok := as.Peers[ann.ReceivedFromASN]; ok {
		return announcement.Peer
	}
	return announcement.Customer
}

// Sweep runs one full up/peer/down propagation pass over g, which
// must already be condensed and ranked (graph.Condense). randomTiebreak
// is forwarded to every AS's ProcessAnnouncements.
func Sweep(g *graph.Graph, randomTiebreak bool) {
	maxRank := g.MaxRank()

	for r := 0; r <= maxRank; r++ {
		for asn := range g.AsesByRank(r) {
			as := g.AS(asn)
			if as == nil {
				continue
			}
			as.ProcessAnnouncements(randomTiebreak)
			exportUp(g, as)
			exportToPeers(g, as)
		}
	}

	// A customer must integrate what its provider staged before it can
	// itself export further down, so each rank processes its queue
	// first and only then exports down to the next rank -- in the same
	// loop, not a separate pass, or a route only moves one customer-hop
	// per Sweep (spec.md §4.3).
	for r := maxRank; r >= 0; r-- {
		for asn := range g.AsesByRank(r) {
			as := g.AS(asn)
			if as == nil {
				continue
			}
			as.ProcessAnnouncements(randomTiebreak)
			exportDown(g, as)
		}
	}
}

// exportUp sends customer-learned and self-originated routes in as's
// loc_rib to each provider; provider- and peer-learned routes are not
// sent up, since re-exporting them upward would violate valley-free
// routing.
func exportUp(g *graph.Graph, as *asnode.AS) {
	for _, ann := range as.LocRIB {
		if ann.Origin != as.ASN {
			class := learnedFrom(as, ann)
			if class != announcement.Customer {
				continue
			}
		}
		for providerASN := range as.Providers {
			deliver(g, providerASN, as.ASN, ann, announcement.Provider)
		}
	}
}

// exportToPeers sends provider- and customer-learned routes (and
// self-originated routes) to peers; peer-learned routes are never
// re-exported to peers or providers (spec.md §4.3).
func exportToPeers(g *graph.Graph, as *asnode.AS) {
	for _, ann := range as.LocRIB {
		if ann.Origin != as.ASN && learnedFrom(as, ann) == announcement.Peer {
			continue
		}
		for peerASN := range as.Peers {
			deliver(g, peerASN, as.ASN, ann, announcement.Peer)
		}
	}
}

// exportDown sends as's entire loc_rib to every customer: customer-
// learned and self-originated routes may be re-exported anywhere,
// peer- and provider-learned routes are exportable to customers only,
// which this direction always satisfies (spec.md §4.3).
func exportDown(g *graph.Graph, as *asnode.AS) {
	for _, ann := range as.LocRIB {
		for customerASN := range as.Customers {
			deliver(g, customerASN, as.ASN, ann, announcement.Customer)
		}
	}
}

// deliver recomputes priority for the receiver (relationship class at
// the receiver plus one extra path hop) and stages the announcement
// in the receiver's incoming queue.
func deliver(g *graph.Graph, receiverASN, senderASN uint32, ann announcement.Announcement, classAtReceiver announcement.Relationship) {
	receiver := g.AS(receiverASN)
	if receiver == nil {
		return
	}
	_, pathLen := announcement.SplitPriority(ann.Priority)
	out := ann
	out.ReceivedFromASN = senderASN
	out.Priority = announcement.Priority(classAtReceiver, pathLen+1)
	receiver.Enqueue(out)
}
