/* ============================================================= *\
   islands.go

   Data-quality diagnostic: ASes disconnected from the rest of the
   relationship graph (almost certainly a malformed or incomplete
   as-rel feed). Built on github.com/Emeline-1/basic_graph, the same
   package the teacher already uses in overlays_processing.go to
   compute the transitive closure of prefix overlays via connected
   components -- repurposed here from prefix aggregates to AS
   relationship edges.
\* ============================================================= */

package graph

import (
	"strconv"

	basicgraph "github.com/Emeline-1/basic_graph"
)

// Islands returns every connected component of the undirected
// relationship graph except the largest one -- ASes that are
// routable in isolation from the bulk of the topology, which usually
// indicates a data-quality problem in the relationship feed rather
// than a real routing island.
func (g *Graph) Islands() [][]uint32 {
	bg := basicgraph.New()
	seen := make(map[uint32]struct{})

	for asn, as := range g.ases {
		seen[asn] = struct{}{}
		for n := range as.Providers {
			bg.Add_edge(strconv.FormatUint(uint64(asn), 10), strconv.FormatUint(uint64(n), 10))
		}
		for n := range as.Peers {
			bg.Add_edge(strconv.FormatUint(uint64(asn), 10), strconv.FormatUint(uint64(n), 10))
		}
		for n := range as.Customers {
			bg.Add_edge(strconv.FormatUint(uint64(asn), 10), strconv.FormatUint(uint64(n), 10))
		}
	}

	var components [][]uint32
	bg.Set_iterator()
	for bg.Next_connected_component() {
		strs := bg.Connected_component()
		comp := make([]uint32, 0, len(strs))
		for _, s := range strs {
			v, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				continue
			}
			comp = append(comp, uint32(v))
		}
		components = append(components, comp)
	}

	if len(components) <= 1 {
		return nil
	}

	largest := 0
	for i, c := range components {
		if len(c) > len(components[largest]) {
			largest = i
		}
		_ = i
	}

	islands := make([][]uint32, 0, len(components)-1)
	for i, c := range components {
		if i == largest {
			continue
		}
		islands = append(islands, c)
	}
	return islands
}
