/* ============================================================= *\
   rovpp.go

   The ROV++ AS variant: same RIB shell as the base asnode.AS, but
   process_announcements runs a withdrawal-reconciliation pass and
   dispatches each surviving announcement through one of the ROV++
   policy variants. Grounded directly on original ROVAS.cpp /
   ROVppAS.cpp.
\* ============================================================= */

package rovpp

import (
	"math/rand"

	"github.com/Emeline-1/bgp_extrapolator/announcement"
	"github.com/Emeline-1/bgp_extrapolator/asnode"
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

// Policy selects which ROV++ variant an AS runs. The zero value is
// plain BGP (no filtering at all), matching the original's "no policy
// adopted" fallthrough.
type Policy int

const (
	BGP Policy = iota
	ROV
	ROVPP0
	ROVPP
	ROVPPB
	// ROVPPBIS is v0.2bis. The source also carries a commented-out
	// earlier variant of v0.2bis with different semantics (it does not
	// special-case customer-received attacker routes); this
	// implementation only ever runs the uncommented
	// silently-drop-from-customer behavior below.
	ROVPPBIS
	ROVPPBP
)

func (p Policy) String() string {
	switch p {
	case BGP:
		return "bgp"
	case ROV:
		return "rov"
	case ROVPP0:
		return "rovpp0"
	case ROVPP:
		return "rovpp"
	case ROVPPB:
		return "rovppb"
	case ROVPPBIS:
		return "rovppbis"
	case ROVPPBP:
		return "rovppbp"
	default:
		return "unknown"
	}
}

// PreventivePair records a preventive announcement alongside the
// alternate-route announcement it was cloned from, mirroring the
// original's preventive_anns set of pairs.
type PreventivePair struct {
	Preventive announcement.Announcement
	Alternate  announcement.Announcement
}

// AS is the ROV++ variant of a routing AS node: same neighbor sets and
// RIB shell as asnode.AS, but with ribs_in staging, withdrawal
// bookkeeping, and policy-driven ROV filtering.
type AS struct {
	ASN        uint32
	MemberASes []uint32

	Providers map[uint32]struct{}
	Peers     map[uint32]struct{}
	Customers map[uint32]struct{}

	LocRIB     map[bgpprefix.Prefix]announcement.Announcement
	DeprefAnns map[bgpprefix.Prefix]announcement.Announcement

	RibsIn      []announcement.Announcement
	Withdrawals []announcement.Announcement

	Blackholes     []announcement.Announcement
	PassedROV      []announcement.Announcement
	FailedROV      []announcement.Announcement
	PreventiveAnns []PreventivePair
	BadNeighbors   map[uint32]struct{}

	Policy Policy
	// PreventiveMaskBits is the aggregation length (one value for both
	// address families) used when
	// checking whether an announcement is already a preventive (spec.md
	// §9: the original hard-codes IPv4's /24 as 0xffffff00; here it is a
	// parameter instead so IPv6 callers can supply their own width).
	PreventiveMaskBits uint8

	// GraphChanged is set whenever a withdrawal causes a loc_rib entry
	// to change during this AS's processing and cleared by
	// ClearAnnouncements; Sweep does not read it.
	GraphChanged bool

	attackers map[uint32]struct{}
	inverse   asnode.InverseResults
	rng       *rand.Rand
}

// New constructs a ROV++ AS node. attackers is a read-only reference
// to the shared attacker-ASN set; inv may be nil.
func New(asn uint32, attackers map[uint32]struct{}, inv asnode.InverseResults) *AS {
	return &AS{
		ASN:                asn,
		MemberASes:         []uint32{asn},
		Providers:          make(map[uint32]struct{}),
		Peers:              make(map[uint32]struct{}),
		Customers:          make(map[uint32]struct{}),
		LocRIB:             make(map[bgpprefix.Prefix]announcement.Announcement),
		DeprefAnns:         make(map[bgpprefix.Prefix]announcement.Announcement),
		BadNeighbors:       make(map[uint32]struct{}),
		PreventiveMaskBits: 24,
		attackers:          attackers,
		inverse:            inv,
		rng:                rand.New(rand.NewSource(int64(asn))),
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

// RemoveNeighbor drops a relationship, used during SCC collapse.
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

// Enqueue stages an inbound announcement into ribs_in for the next
// ProcessAnnouncements.
func (as *AS) Enqueue(ann announcement.Announcement) {
	as.RibsIn = append(as.RibsIn, ann)
}

// IsAttacker reports whether this AS's own ASN is in the attacker set.
func (as *AS) IsAttacker() bool {
	_, ok := as.attackers[as.ASN]
	return ok
}

// PassROV reports whether ann's origin is not a known attacker. A
// blackhole's sentinel origin always fails ROV, matching the
// original's explicit UNUSED_ASN_FLAG_FOR_BLACKHOLES check.
func (as *AS) PassROV(ann announcement.Announcement) bool {
	if ann.Origin == announcement.UnusedASNFlagForBlackholes {
		return false
	}
	if as.attackers == nil {
		return true
	}
	_, bad := as.attackers[ann.Origin]
	return !bad
}

func (as *AS) markAdopted(ann announcement.Announcement) {
	if as.inverse != nil {
		as.inverse.MarkAdopted(ann.Prefix, ann.Origin, as.ASN)
	}
}

// ClearAnnouncements empties every RIB and ledger, preserving graph
// structure (spec.md §3 Lifecycle).
func (as *AS) ClearAnnouncements() {
	as.LocRIB = make(map[bgpprefix.Prefix]announcement.Announcement)
	as.DeprefAnns = make(map[bgpprefix.Prefix]announcement.Announcement)
	as.RibsIn = nil
	as.Withdrawals = nil
	as.Blackholes = nil
	as.PassedROV = nil
	as.FailedROV = nil
	as.PreventiveAnns = nil
	as.BadNeighbors = make(map[uint32]struct{})
	as.GraphChanged = false
}
