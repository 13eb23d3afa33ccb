/* ============================================================= *\
   condense.go

   Top-level condensation driver, grounded on the original
   BaseGraph::process: remove_stubs, tarjan, combine_components,
   decide_ranks, in that order, then the graph is frozen.
\* ============================================================= */

package graph

// Condense runs the full condensation pipeline: stub removal, SCC
// detection, SCC collapse, and rank assignment, then freezes the
// graph against further relationship adds (spec.md §3 Lifecycle).
func (g *Graph) Condense() {
	g.RemoveStubs()
	g.Tarjan()
	g.CombineComponents()
	g.DecideRanks()
	g.Freeze()
}

// Supernodes returns the (member_asn, supernode_asn) pairs for every
// collapsed component, in the External Interfaces §6 table shape.
func (g *Graph) Supernodes() map[uint32]uint32 {
	out := make(map[uint32]uint32, len(g.componentTranslation))
	for member, super := range g.componentTranslation {
		out[member] = super
	}
	return out
}
