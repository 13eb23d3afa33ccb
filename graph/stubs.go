/* ============================================================= *\
   stubs.go

   Stub removal: an AS with no customers, no peers, and exactly one
   provider carries no new routing decision. Grounded on the
   original BaseGraph::remove_stubs, which also persists the
   (stub -> provider) and non-stub rosters for the downstream DB
   loader (here exposed via StubsToParents/NonStubs).
\* ============================================================= */

package graph

// RemoveStubs deletes every stub AS from the graph, recording
// (stub -> provider) so the stub's route can be inherited later, and
// records the surviving roster (spec.md §4.1, §9 supplement).
func (g *Graph) RemoveStubs() {
	var toRemove []uint32
	for asn, as := range g.ases {
		if as.IsStub() {
			toRemove = append(toRemove, asn)
		} else {
			g.nonStubs = append(g.nonStubs, asn)
		}
	}

	for _, asn := range toRemove {
		as := g.ases[asn]
		for provider := range as.Providers {
			if prov, ok := g.ases[provider]; ok {
				delete(prov.Customers, asn)
			}
			g.stubsToParents[asn] = provider
		}
		delete(g.ases, asn)
	}
}
