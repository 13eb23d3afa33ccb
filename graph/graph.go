/* ============================================================= *\
   graph.go

   Relationship ingest and AS-node ownership. Grounded on the
   original BaseGraph.cpp (add_relationship, create_graph_from_db,
   translate_asn) and on the teacher's caida_file_readers.go, which
   already parses this exact CAIDA as-rel line format.
\* ============================================================= */

package graph

import (
	"github.com/Emeline-1/bgp_extrapolator/announcement"
	"github.com/Emeline-1/bgp_extrapolator/asnode"
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

// inverseKey is the (prefix, origin) key of the inverse-results index.
type inverseKey struct {
	prefix bgpprefix.Prefix
	origin uint32
}

// Graph owns every AS node keyed by ASN, the rank buckets, the SCC
// condensation bookkeeping, and the inverse-results index.
type Graph struct {
	ases map[uint32]*asnode.AS

	// asesByRank[i] is the set of ASNs at rank i.
	asesByRank []map[uint32]struct{}

	// componentTranslation maps a collapsed member ASN to its supernode.
	componentTranslation map[uint32]uint32

	// components holds every SCC discovered by Tarjan, including
	// singletons (size 1 components are not collapsed).
	components [][]uint32

	// stubsToParents remembers (stub -> provider) so results can be
	// inherited after the stub is removed from the graph.
	stubsToParents map[uint32]uint32

	// nonStubs is the roster of ASes that survived stub removal
	// (spec.md §9 supplement: SQLQuerier's non_stubs table).
	nonStubs []uint32

	// inverseResults maps (prefix, origin) to the set of ASNs that have
	// not yet adopted that route. nil entries mean tracking is disabled.
	inverseResults map[inverseKey]map[uint32]struct{}
	trackInverse   bool

	frozen bool
}

// New constructs an empty Graph. trackInverse enables the
// inverse-results index (expensive: one entry per (prefix, origin)
// pair seen, O(|ASes|) per entry before adoption starts).
func New(trackInverse bool) *Graph {
	return &Graph{
		ases:                 make(map[uint32]*asnode.AS),
		componentTranslation: make(map[uint32]uint32),
		stubsToParents:       make(map[uint32]uint32),
		inverseResults:       make(map[inverseKey]map[uint32]struct{}),
		trackInverse:         trackInverse,
	}
}

// getOrCreate returns the AS node for asn, creating it lazily on first
// mention, per spec.md §3 Lifecycle.
func (g *Graph) getOrCreate(asn uint32) *asnode.AS {
	as, ok := g.ases[asn]
	if !ok {
		as = asnode.New(asn, g)
		g.ases[asn] = as
	}
	return as
}

// AS returns the node for asn (after translation through
// component_translation), or nil if unknown.
func (g *Graph) AS(asn uint32) *asnode.AS {
	return g.ases[g.Translate(asn)]
}

// AllASes exposes every AS node currently owned by the graph, keyed by
// ASN (post-condensation, member ASNs are not present as separate keys).
func (g *Graph) AllASes() map[uint32]*asnode.AS {
	return g.ases
}

// AddRelationship records that neighborASN stands in relation rel to
// asn; both nodes are created lazily if they don't exist yet.
func (g *Graph) AddRelationship(asn, neighborASN uint32, rel announcement.Relationship) {
	if g.frozen {
		return
	}
	g.getOrCreate(asn).AddNeighbor(neighborASN, rel)
	g.getOrCreate(neighborASN)
}

// IngestPeers records a bidirectional peer relationship between a and b.
func (g *Graph) IngestPeers(a, b uint32) {
	g.AddRelationship(a, b, announcement.Peer)
	g.AddRelationship(b, a, announcement.Peer)
}

// IngestCustomerProvider records customer's provider relationship:
// provider provides to customer, customer is a customer of provider.
func (g *Graph) IngestCustomerProvider(customer, provider uint32) {
	g.AddRelationship(customer, provider, announcement.Provider)
	g.AddRelationship(provider, customer, announcement.Customer)
}

// Translate resolves asn through component_translation, or returns asn
// unchanged if it was never folded into a supernode.
func (g *Graph) Translate(asn uint32) uint32 {
	if t, ok := g.componentTranslation[asn]; ok {
		return t
	}
	return asn
}

// MarkAdopted implements asnode.InverseResults: asn has now adopted
// the best route for (p, origin).
func (g *Graph) MarkAdopted(p bgpprefix.Prefix, origin uint32, asn uint32) {
	if !g.trackInverse {
		return
	}
	key := inverseKey{prefix: p, origin: origin}
	if set, ok := g.inverseResults[key]; ok {
		delete(set, asn)
	}
}

// SeedPending registers every known ASN as not-yet-adopted for
// (p, origin); called once per prefix/origin before seeding so
// MarkAdopted has something to shrink.
func (g *Graph) SeedPending(p bgpprefix.Prefix, origin uint32) {
	if !g.trackInverse {
		return
	}
	key := inverseKey{prefix: p, origin: origin}
	if _, ok := g.inverseResults[key]; ok {
		return
	}
	set := make(map[uint32]struct{}, len(g.ases))
	for asn := range g.ases {
		set[asn] = struct{}{}
	}
	g.inverseResults[key] = set
}

// PendingASes returns the ASNs that have not yet adopted (p, origin).
func (g *Graph) PendingASes(p bgpprefix.Prefix, origin uint32) map[uint32]struct{} {
	return g.inverseResults[inverseKey{prefix: p, origin: origin}]
}

// NonStubs is the roster of ASes that survived RemoveStubs.
func (g *Graph) NonStubs() []uint32 {
	return g.nonStubs
}

// StubsToParents is the (stub -> provider) side table persisted by
// RemoveStubs, used to attribute a result route to each removed stub.
func (g *Graph) StubsToParents() map[uint32]uint32 {
	return g.stubsToParents
}

// ClearAnnouncements empties every AS's RIBs and the inverse-results
// index between propagation iterations, preserving graph structure
// (spec.md §3 Lifecycle).
func (g *Graph) ClearAnnouncements() {
	for _, as := range g.ases {
		as.ClearAnnouncements()
	}
	g.inverseResults = make(map[inverseKey]map[uint32]struct{})
}

// Freeze forbids further AddRelationship calls; called once
// condensation has run (spec.md §3 Lifecycle).
func (g *Graph) Freeze() {
	g.frozen = true
}
