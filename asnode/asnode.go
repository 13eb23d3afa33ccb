/* ============================================================= *\
   asnode.go

   Per-AS routing information base and local best-path selection
   (base BGP variant, no ROV). Grounded on the original AS.cpp /
   BaseAS decision procedure, generalized to Go's map/slice idioms
   the way the teacher repo generalizes its own C-ish sources (e.g.
   safeset.go's protected map).
\* ============================================================= */

package asnode

import (
	"math/rand"

	"github.com/Emeline-1/bgp_extrapolator/announcement"
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

// InverseResults is the write side of the graph-owned index from
// (prefix, origin) to the set of ASNs that have not yet adopted that
// route. AS nodes report adoption through it; they never own it.
type InverseResults interface {
	MarkAdopted(p bgpprefix.Prefix, origin uint32, asn uint32)
}

// AS is a single node (or, post-condensation, a supernode) in the
// AS-relationship graph. For an ordinary AS, MemberASes has length 1;
// for a supernode it lists every collapsed member.
type AS struct {
	ASN        uint32
	MemberASes []uint32

	Providers map[uint32]struct{}
	Peers     map[uint32]struct{}
	Customers map[uint32]struct{}

	LocRIB     map[bgpprefix.Prefix]announcement.Announcement
	DeprefAnns map[bgpprefix.Prefix]announcement.Announcement

	Incoming []announcement.Announcement

	// Tarjan scratch space, reset per condensation run.
	Index   int
	Lowlink int
	OnStack bool

	// Rank, assigned by decide_ranks; leaves (no customers) are rank 0.
	Rank int

	inverse InverseResults
	rng     *rand.Rand
}

// New constructs an AS node. inv may be nil when the caller does not
// need inverse-results tracking (e.g. ad hoc tests).
func New(asn uint32, inv InverseResults) *AS {
	return &AS{
		ASN:        asn,
		MemberASes: []uint32{asn},
		Providers:  make(map[uint32]struct{}),
		Peers:      make(map[uint32]struct{}),
		Customers:  make(map[uint32]struct{}),
		LocRIB:     make(map[bgpprefix.Prefix]announcement.Announcement),
		DeprefAnns: make(map[bgpprefix.Prefix]announcement.Announcement),
		Index:      -1,
		Lowlink:    -1,
		Rank:       -1,
		inverse:    inv,
		rng:        rand.New(rand.NewSource(int64(asn))),
	}
}

// AddNeighbor records a relationship from this AS's point of view.
func (as *AS) AddNeighbor(neighborASN uint32, rel announcement.Relationship) {
	switch rel {
	case announcement.Provider:
		as.Providers[neighborASN] = struct{}{}
	case announcement.Peer:
		as.Peers[neighborASN] = struct{}{}
	case announcement.Customer:
		as.Customers[neighborASN] = struct{}{}
	}
}

// RemoveNeighbor drops a relationship, used during SCC collapse when a
// peer relation is superseded by provider/customer.
func (as *AS) RemoveNeighbor(neighborASN uint32, rel announcement.Relationship) {
	switch rel {
	case announcement.Provider:
		delete(as.Providers, neighborASN)
	case announcement.Peer:
		delete(as.Peers, neighborASN)
	case announcement.Customer:
		delete(as.Customers, neighborASN)
	}
}

// IsStub reports whether this AS has no customers, no peers, and
// exactly one provider (spec.md §4.1).
func (as *AS) IsStub() bool {
	return len(as.Peers) == 0 && len(as.Customers) == 0 && len(as.Providers) == 1
}

// Enqueue stages an inbound announcement for the next ProcessAnnouncements.
func (as *AS) Enqueue(ann announcement.Announcement) {
	as.Incoming = append(as.Incoming, ann)
}

// ProcessAnnouncements drains Incoming through ProcessAnnouncement in
// arrival order, then clears the queue (spec.md §4.2).
func (as *AS) ProcessAnnouncements(randomTiebreak bool) {
	for _, ann := range as.Incoming {
		as.ProcessAnnouncement(ann, randomTiebreak)
	}
	as.Incoming = as.Incoming[:0]
}

// ProcessAnnouncement integrates a single candidate route into the
// RIB, implementing the four-case decision procedure of spec.md §4.2.
func (as *AS) ProcessAnnouncement(ann announcement.Announcement, randomTiebreak bool) {
	// Local-origin routes are immutable: an AS drops an announcement
	// whose origin is itself when a neighbor sent it. A route with no
	// received-from ASN (0) is the AS's own origination and is installed.
	if ann.Origin == as.ASN && ann.ReceivedFromASN != 0 {
		return
	}
	// Neutralise announcements for a prefix contained in or equal to
	// one this AS itself originates, so it cannot propagate further as
	// a genuine neighbor route.
	for _, own := range as.LocRIB {
		if own.Origin == as.ASN && own.Prefix.Contains(ann.Prefix) {
			ann.ReceivedFromASN = announcement.OverriddenLocalOriginASN
			break
		}
	}

	best, exists := as.LocRIB[ann.Prefix]

	// Case 1: no existing best route for this prefix.
	if !exists {
		as.LocRIB[ann.Prefix] = ann
		as.markAdopted(ann)
		return
	}

	// Monitor-seeded routes are immutable: incoming only contends for
	// the depref slot.
	if best.FromMonitor {
		as.considerDepref(ann, ann.Prefix)
		return
	}

	switch {
	case ann.Priority > best.Priority:
		// Case 2: strictly better route.
		as.DeprefAnns[ann.Prefix] = best
		as.LocRIB[ann.Prefix] = ann
		as.markAdopted(ann)

	case ann.Priority < best.Priority:
		// Case 3: strictly worse route, contends for depref only.
		as.considerDepref(ann, ann.Prefix)

	default:
		// Case 4: equal priority. No-op if byte-identical to best.
		if ann.Equal(best) {
			return
		}
		if as.tiebreakWins(ann, best, randomTiebreak) {
			as.DeprefAnns[ann.Prefix] = best
			as.LocRIB[ann.Prefix] = ann
			as.markAdopted(ann)
		} else {
			as.considerDepref(ann, ann.Prefix)
		}
	}
}

// considerDepref installs ann as the depref entry for p if no depref
// entry exists yet, or if ann outranks the current depref entry.
func (as *AS) considerDepref(ann announcement.Announcement, p bgpprefix.Prefix) {
	cur, ok := as.DeprefAnns[p]
	if !ok || ann.Priority > cur.Priority {
		as.DeprefAnns[p] = ann
	}
}

// tiebreakWins breaks a priority tie deterministically: lower tiny_hash
// of received-from wins, and equal hashes fall back to the lower
// received-from ASN, so the outcome does not depend on arrival order.
// With randomTiebreak it is instead a per-AS pseudo-random bit seeded
// from the AS's own ASN, so the choice stays reproducible.
func (as *AS) tiebreakWins(a, b announcement.Announcement, randomTiebreak bool) bool {
	if randomTiebreak {
		return as.rng.Intn(2) == 0
	}
	ha, hb := announcement.TinyHash(a.ReceivedFromASN), announcement.TinyHash(b.ReceivedFromASN)
	if ha != hb {
		return ha < hb
	}
	return a.ReceivedFromASN < b.ReceivedFromASN
}

func (as *AS) markAdopted(ann announcement.Announcement) {
	if as.inverse != nil {
		as.inverse.MarkAdopted(ann.Prefix, ann.Origin, as.ASN)
	}
}

// ClearAnnouncements empties loc_rib, depref_anns, and the incoming
// queue, preserving graph structure (spec.md §3 Lifecycle).
func (as *AS) ClearAnnouncements() {
	as.LocRIB = make(map[bgpprefix.Prefix]announcement.Announcement)
	as.DeprefAnns = make(map[bgpprefix.Prefix]announcement.Announcement)
	as.Incoming = nil
}

// ResetTarjanScratch resets the per-run Tarjan bookkeeping.
func (as *AS) ResetTarjanScratch() {
	as.Index = -1
	as.Lowlink = -1
	as.OnStack = false
}
