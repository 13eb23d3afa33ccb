/* ============================================================= *\
   tarjan.go

   Iterative Tarjan's strongly connected components algorithm,
   following provider edges only (a customer cycle would already be
   a routing anomaly per Gao-Rexford; spec.md §4.1). The original
   BaseGraph::tarjan_helper is recursive; spec.md requires an
   explicit-stack iterative form to bound recursion depth on
   realistic graphs (>60k ASes), so the call stack itself is
   simulated with a slice of frames.
\* ============================================================= */

package graph

type tarjanFrame struct {
	asn       uint32
	providers []uint32
	next      int
}

// Tarjan runs strongly connected component detection over the
// provider-edge graph and records every component found (including
// singletons) in g.components. Scratch fields are reset first.
func (g *Graph) Tarjan() {
	for _, as := range g.ases {
		as.ResetTarjanScratch()
	}
	g.components = nil

	index := 0
	var onStack []uint32

	for start, as := range g.ases {
		if as.Index != -1 {
			continue
		}
		g.tarjanFrom(start, &index, &onStack)
	}
}

func (g *Graph) tarjanFrom(start uint32, index *int, onStack *[]uint32) {
	var work []*tarjanFrame

	push := func(asn uint32) {
		as := g.ases[asn]
		as.Index = *index
		as.Lowlink = *index
		*index++
		*onStack = append(*onStack, asn)
		as.OnStack = true

		providers := make([]uint32, 0, len(as.Providers))
		for p := range as.Providers {
			providers = append(providers, p)
		}
		work = append(work, &tarjanFrame{asn: asn, providers: providers})
	}

	push(start)

	for len(work) > 0 {
		frame := work[len(work)-1]
		as := g.ases[frame.asn]

		if frame.next < len(frame.providers) {
			neighbor := frame.providers[frame.next]
			frame.next++

			nas, ok := g.ases[neighbor]
			if !ok {
				// Unknown provider ASN; condensation only ever sees
				// ASNs that were added as neighbors too, so this
				// shouldn't happen, but skip rather than crash on
				// malformed input.
				continue
			}
			switch {
			case nas.Index == -1:
				push(neighbor)
			case nas.OnStack:
				if nas.Index < as.Lowlink {
					as.Lowlink = nas.Index
				}
			}
			continue
		}

		// All providers visited: pop this frame.
		work = work[:len(work)-1]

		if as.Lowlink == as.Index {
			var component []uint32
			for {
				n := len(*onStack) - 1
				top := (*onStack)[n]
				*onStack = (*onStack)[:n]
				g.ases[top].OnStack = false
				component = append(component, top)
				if top == frame.asn {
					break
				}
			}
			g.components = append(g.components, component)
		}

		if len(work) > 0 {
			parent := g.ases[work[len(work)-1].asn]
			if as.Lowlink < parent.Lowlink {
				parent.Lowlink = as.Lowlink
			}
		}
	}
}

// Components returns every SCC discovered by the last Tarjan run,
// including singletons.
func (g *Graph) Components() [][]uint32 {
	return g.components
}
