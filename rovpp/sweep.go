/* ============================================================= *\
   sweep.go

   ROV++ propagation driver: builds one rovpp.AS per node in an
   already-condensed graph.Graph, mirroring its neighbor sets, then
   runs the same rank-ordered up/peer/down sweep propagation.Sweep
   runs for the base variant, but calling through each node's policy
   dispatch instead of plain process_announcement. Grounded on
   original Extrapolator.cpp, which drives both the base and ROV++ AS
   types through the identical rank-ordered loop.
\* ============================================================= */

package rovpp

import (
	"github.com/Emeline-1/bgp_extrapolator/announcement"
	"github.com/Emeline-1/bgp_extrapolator/graph"
)

// FromGraph builds one rovpp.AS per ASN surviving g's condensation,
// copying its neighbor sets, and assigns policy to every node whose
// ASN is not in exempt (exempt ASes keep BGP, e.g. a deliberately
// non-adopting control group for an adoption-rate experiment).
func FromGraph(g *graph.Graph, policy Policy, attackers map[uint32]struct{}, exempt map[uint32]struct{}) map[uint32]*AS {
	nodes := make(map[uint32]*AS, len(g.AllASes()))
	for asn, base := range g.AllASes() {
		node := New(asn, attackers, g)
		for n := range base.Providers {
			node.AddNeighbor(n, announcement.Provider)
		}
		for n := range base.Peers {
			node.AddNeighbor(n, announcement.Peer)
		}
		for n := range base.Customers {
			node.AddNeighbor(n, announcement.Customer)
		}
		if _, skip := exempt[asn]; !skip {
			node.Policy = policy
		}
		nodes[asn] = node
	}
	return nodes
}

// learnedFrom classifies how node learned ann, for Gao-Rexford export
// filtering (identical rule to propagation.learnedFrom, duplicated
// here because it reads rovpp.AS's neighbor maps instead of
// asnode.AS's).
func learnedFrom(node *AS, ann announcement.Announcement) announcement.Relationship {
	if _, ok := node.Providers[ann.ReceivedFromASN]; ok {
		return announcement.Provider
	}
	if _, ok := node.Peers[ann.ReceivedFromASN]; ok {
		return announcement.Peer
	}
	return announcement.Customer
}

// Sweep runs one full up/peer/down propagation pass over nodes, rank
// order taken from g (which must be the same graph FromGraph built
// nodes from).
func Sweep(g *graph.Graph, nodes map[uint32]*AS, randomTiebreak bool) {
	maxRank := g.MaxRank()

	for r := 0; r <= maxRank; r++ {
		for asn := range g.AsesByRank(r) {
			node := nodes[asn]
			if node == nil {
				continue
			}
			node.ProcessAnnouncements(randomTiebreak)
			exportUp(nodes, node)
			exportToPeers(nodes, node)
		}
	}

	// A customer must integrate what its provider staged before it can
	// itself export further down, so each rank processes its queue
	// first and only then exports down to the next rank -- in the same
	// loop, not a separate pass, or a route only moves one customer-hop
	// per Sweep.
	for r := maxRank; r >= 0; r-- {
		for asn := range g.AsesByRank(r) {
			node := nodes[asn]
			if node == nil {
				continue
			}
			node.ProcessAnnouncements(randomTiebreak)
			exportDown(nodes, node)
		}
	}
}

func exportUp(nodes map[uint32]*AS, node *AS) {
	for _, ann := range node.LocRIB {
		if ann.Origin != node.ASN && learnedFrom(node, ann) != announcement.Customer {
			continue
		}
		for providerASN := range node.Providers {
			deliver(nodes, providerASN, node.ASN, ann, announcement.Provider)
		}
	}
}

func exportToPeers(nodes map[uint32]*AS, node *AS) {
	for _, ann := range node.LocRIB {
		if ann.Origin != node.ASN && learnedFrom(node, ann) == announcement.Peer {
			continue
		}
		for peerASN := range node.Peers {
			deliver(nodes, peerASN, node.ASN, ann, announcement.Peer)
		}
	}
}

func exportDown(nodes map[uint32]*AS, node *AS) {
	for _, ann := range node.LocRIB {
		for customerASN := range node.Customers {
			deliver(nodes, customerASN, node.ASN, ann, announcement.Customer)
		}
	}
}

func deliver(nodes map[uint32]*AS, receiverASN, senderASN uint32, ann announcement.Announcement, classAtReceiver announcement.Relationship) {
	receiver := nodes[receiverASN]
	if receiver == nil {
		return
	}
	_, pathLen := announcement.SplitPriority(ann.Priority)
	out := ann
	out.ReceivedFromASN = senderASN
	out.Priority = announcement.Priority(classAtReceiver, pathLen+1)
	receiver.Enqueue(out)
}
