/* ============================================================= *\
   collapse.go

   SCC collapse: every component of size > 1 is folded into a single
   supernode identified by the minimum member ASN. Grounded on the
   original BaseGraph::combine_components, including its rule that a
   provider/customer relationship to an external neighbor supersedes
   any peer relationship to that same neighbor (spec.md §4.1).
\* ============================================================= */

package graph

import (
	"github.com/Emeline-1/bgp_extrapolator/announcement"
	"github.com/Emeline-1/bgp_extrapolator/asnode"
)

// CombineComponents folds every multi-member SCC found by the last
// Tarjan run into a supernode, and records member->supernode in
// componentTranslation. Must run after Tarjan.
func (g *Graph) CombineComponents() {
	for _, component := range g.components {
		if len(component) <= 1 {
			continue
		}
		g.combineOne(component)
	}
}

func (g *Graph) combineOne(component []uint32) {
	inComponent := make(map[uint32]struct{}, len(component))
	combinedASN := component[0]
	for _, asn := range component {
		inComponent[asn] = struct{}{}
		if asn < combinedASN {
			combinedASN = asn
		}
	}

	combined := asnode.New(combinedASN, g)
	combined.MemberASes = combined.MemberASes[:0]

	for _, memberASN := range component {
		combined.MemberASes = append(combined.MemberASes, memberASN)
		member := g.ases[memberASN]
		if member == nil {
			continue
		}

		for providerASN := range member.Providers {
			if _, internal := inComponent[providerASN]; internal {
				continue
			}
			providerAS := g.ases[providerASN]
			combined.AddNeighbor(providerASN, announcement.Provider)
			if providerAS != nil {
				providerAS.RemoveNeighbor(memberASN, announcement.Customer)
				providerAS.RemoveNeighbor(memberASN, announcement.Peer)
				providerAS.AddNeighbor(combinedASN, announcement.Customer)
			}
			combined.RemoveNeighbor(providerASN, announcement.Peer)
		}

		for customerASN := range member.Customers {
			if _, internal := inComponent[customerASN]; internal {
				continue
			}
			customerAS := g.ases[customerASN]
			combined.AddNeighbor(customerASN, announcement.Customer)
			if customerAS != nil {
				customerAS.RemoveNeighbor(memberASN, announcement.Provider)
				customerAS.RemoveNeighbor(memberASN, announcement.Peer)
				customerAS.AddNeighbor(combinedASN, announcement.Provider)
			}
			combined.RemoveNeighbor(customerASN, announcement.Peer)
		}

		for peerASN := range member.Peers {
			if _, internal := inComponent[peerASN]; internal {
				continue
			}
			peerAS := g.ases[peerASN]
			_, hasProvider := combined.Providers[peerASN]
			_, hasCustomer := combined.Customers[peerASN]
			if !hasProvider && !hasCustomer {
				combined.AddNeighbor(peerASN, announcement.Peer)
				if peerAS != nil {
					peerAS.RemoveNeighbor(memberASN, announcement.Peer)
					peerAS.AddNeighbor(combinedASN, announcement.Peer)
				}
			} else if peerAS != nil {
				// A provider/customer relation to this neighbor already
				// supersedes peer; drop the stale subnode peer edge.
				peerAS.RemoveNeighbor(memberASN, announcement.Peer)
			}
		}

		g.componentTranslation[memberASN] = combinedASN
	}

	for _, memberASN := range component {
		delete(g.ases, memberASN)
	}
	g.ases[combinedASN] = combined
}
