/* ============================================================= *\
   rank.go

   Customer-to-provider rank assignment that drives propagation
   order. Grounded on the original BaseGraph::decide_ranks: rank 0
   is every AS with no customers; an AS's rank is one more than the
   maximum rank of anything below it in the customer-provider DAG.
\* ============================================================= */

package graph

// DecideRanks assigns a rank to every AS: leaves (no customers) are
// rank 0, and a provider's rank is always strictly greater than every
// one of its customers' ranks. Must run after condensation, which
// guarantees the provider graph is a DAG (spec.md §4.1).
func (g *Graph) DecideRanks() {
	for _, as := range g.ases {
		as.Rank = -1
	}
	g.asesByRank = g.asesByRank[:0]

	rank0 := make(map[uint32]struct{})
	for asn, as := range g.ases {
		if len(as.Customers) == 0 {
			rank0[asn] = struct{}{}
			as.Rank = 0
		}
	}
	g.asesByRank = append(g.asesByRank, rank0)

	for i := 0; len(g.asesByRank[i]) > 0; i++ {
		next := make(map[uint32]struct{})
		for asn := range g.asesByRank[i] {
			as := g.ases[asn]
			for providerASN := range as.Providers {
				translated := g.Translate(providerASN)
				provider := g.ases[translated]
				if provider == nil {
					continue
				}
				if provider.Rank < i+1 {
					oldRank := provider.Rank
					provider.Rank = i + 1
					next[translated] = struct{}{}
					if oldRank >= 0 {
						delete(g.asesByRank[oldRank], translated)
					}
				}
			}
		}
		g.asesByRank = append(g.asesByRank, next)
	}
}

// AsesByRank returns the ASNs at rank r, or nil if r is out of range.
func (g *Graph) AsesByRank(r int) map[uint32]struct{} {
	if r < 0 || r >= len(g.asesByRank) {
		return nil
	}
	return g.asesByRank[r]
}

// MaxRank returns the highest rank assigned. decide_ranks always
// leaves one trailing empty bucket (the one that failed its
// termination check), which is excluded here.
func (g *Graph) MaxRank() int {
	n := len(g.asesByRank)
	if n > 0 && len(g.asesByRank[n-1]) == 0 {
		return n - 2
	}
	return n - 1
}
