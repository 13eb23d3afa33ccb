/* ============================================================= *\
   dispatch.go

   The batch driver: loop filtering, withdrawal reconciliation,
   bad-neighbor inference, then policy dispatch per surviving
   announcement. Grounded on ROVppAS.cpp's process_announcements.
\* ============================================================= */

package rovpp

import (
	"github.com/Emeline-1/bgp_extrapolator/announcement"
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

// ProcessAnnouncements drains ribs_in: filters self-loops, reconciles
// withdrawals to a fixed point, infers bad neighbors, then dispatches
// every surviving (non-withdrawal) announcement through this AS's
// policy (spec.md §4.4).
func (as *AS) ProcessAnnouncements(randomTiebreak bool) {
	as.filterLoops()
	as.reconcileWithdrawals()

	for _, ann := range as.RibsIn {
		if !as.PassROV(ann) {
			as.BadNeighbors[ann.ReceivedFromASN] = struct{}{}
		}
	}

	for _, ann := range as.RibsIn {
		if ann.Withdraw {
			continue
		}
		as.integrate(ann, randomTiebreak)
	}

	as.RibsIn = nil
}

// integrate applies local-origin neutralization, then dispatches ann
// through this AS's policy, unless loc_rib already holds a
// monitor-seeded entry for the prefix (those never re-derive policy
// outcomes for fresh arrivals).
func (as *AS) integrate(ann announcement.Announcement, randomTiebreak bool) {
	if best, ok := as.LocRIB[ann.Prefix]; ok && best.FromMonitor {
		as.considerDepref(ann, ann.Prefix)
		return
	}

	if ann.Origin == as.ASN && ann.ReceivedFromASN != 0 && !as.IsAttacker() {
		return
	}
	for _, own := range as.LocRIB {
		if own.Origin == as.ASN && own.Prefix.Contains(ann.Prefix) && !as.IsAttacker() {
			ann.ReceivedFromASN = announcement.OverriddenLocalOriginASN
		}
	}

	switch as.Policy {
	case ROV:
		as.dispatchROV(ann, randomTiebreak)
	case ROVPP0:
		as.dispatchROVPP0(ann, randomTiebreak)
	case ROVPP:
		as.dispatchROVPP(ann, randomTiebreak)
	case ROVPPB:
		as.dispatchROVPPB(ann, randomTiebreak)
	case ROVPPBIS:
		as.dispatchROVPPBIS(ann, randomTiebreak)
	case ROVPPBP:
		as.dispatchROVPPBP(ann, randomTiebreak)
	default: // BGP
		as.ProcessAnnouncement(ann, randomTiebreak, false)
	}
}

func (as *AS) markBadNeighborAlt(ann *announcement.Announcement) {
	if _, bad := as.BadNeighbors[ann.ReceivedFromASN]; bad {
		ann.Alt = announcement.AttackerOnRoute
	}
}

// dispatchROV: drop attacker-origin routes, process everything else.
func (as *AS) dispatchROV(ann announcement.Announcement, randomTiebreak bool) {
	if as.PassROV(ann) {
		as.PassedROV = append(as.PassedROV, ann)
		as.ProcessAnnouncement(ann, randomTiebreak, false)
	}
}

// dispatchROVPP0: like ROV, but an attacker route with an alternate
// still gets processed via the alternate instead of simply dropped.
// Without an alternate the attacker route is dropped; no blackhole is
// synthesized.
func (as *AS) dispatchROVPP0(ann announcement.Announcement, randomTiebreak bool) {
	if as.PassROV(ann) {
		as.PassedROV = append(as.PassedROV, ann)
		as.ProcessAnnouncement(ann, randomTiebreak, false)
		return
	}
	as.FailedROV = append(as.FailedROV, ann)
	alt := as.BestAlternativeRoute(ann)
	if alt.Equal(ann) {
		return
	}
	as.ProcessAnnouncement(alt, randomTiebreak, false)
}

// dispatchROVPP: v0.1. On no alternate, synthesize a blackhole instead
// of accepting the raw attacker route.
func (as *AS) dispatchROVPP(ann announcement.Announcement, randomTiebreak bool) {
	if as.PassROV(ann) {
		as.PassedROV = append(as.PassedROV, ann)
		as.markBadNeighborAlt(&ann)
		as.ProcessAnnouncement(ann, randomTiebreak, false)
		return
	}
	as.FailedROV = append(as.FailedROV, ann)
	alt := as.BestAlternativeRoute(ann)
	if alt.Equal(ann) {
		as.synthesizeBlackhole(ann)
	} else {
		as.ProcessAnnouncement(alt, randomTiebreak, false)
	}
}

// dispatchROVPPB: v0.2. Same as v0.1; the blackhole is additionally
// eligible for export (export policy lives in the propagation
// engine, not here).
func (as *AS) dispatchROVPPB(ann announcement.Announcement, randomTiebreak bool) {
	as.dispatchROVPP(ann, randomTiebreak)
}

// dispatchROVPPBIS: v0.2bis. Attacker routes received from a customer
// are silently dropped instead of blackholed -- this is the spec's
// chosen uncommented variant; do not reintroduce the commented-out
// unconditional-blackhole behavior the source also carries.
func (as *AS) dispatchROVPPBIS(ann announcement.Announcement, randomTiebreak bool) {
	if as.PassROV(ann) {
		as.PassedROV = append(as.PassedROV, ann)
		as.markBadNeighborAlt(&ann)
		as.ProcessAnnouncement(ann, randomTiebreak, false)
		return
	}
	if _, fromCustomer := as.Customers[ann.ReceivedFromASN]; fromCustomer {
		return
	}
	as.FailedROV = append(as.FailedROV, ann)
	alt := as.BestAlternativeRoute(ann)
	if alt.Equal(ann) {
		as.synthesizeBlackhole(ann)
	} else {
		as.ProcessAnnouncement(alt, randomTiebreak, false)
	}
}

// dispatchROVPPBP: v0.3 / preventive. As v0.2bis, but when an
// alternate exists, move the whole prefix onto it and emit a
// preventive announcement at the narrower attacker prefix so
// downstream ASes stay on the same alternate path.
func (as *AS) dispatchROVPPBP(ann announcement.Announcement, randomTiebreak bool) {
	if as.PassROV(ann) {
		as.PassedROV = append(as.PassedROV, ann)
		as.markBadNeighborAlt(&ann)
		as.ProcessAnnouncement(ann, randomTiebreak, false)
		return
	}
	if _, fromCustomer := as.Customers[ann.ReceivedFromASN]; fromCustomer {
		return
	}
	as.FailedROV = append(as.FailedROV, ann)
	alt := as.BestAlternativeRoute(ann)
	if alt.Equal(ann) {
		as.synthesizeBlackhole(ann)
		return
	}
	as.ProcessAnnouncement(alt, randomTiebreak, true)
	as.emitPreventive(alt, ann.Prefix)
}

// synthesizeBlackhole records ann in blackholes and installs a
// synthetic route whose origin/received-from is the reserved
// sentinel ASN, processed normally so it still propagates per policy.
func (as *AS) synthesizeBlackhole(ann announcement.Announcement) {
	as.Blackholes = append(as.Blackholes, ann)
	ann.Origin = announcement.UnusedASNFlagForBlackholes
	ann.ReceivedFromASN = announcement.UnusedASNFlagForBlackholes
	as.ProcessAnnouncement(ann, false, false)
}

// emitPreventive clones alt, narrows its prefix to attackerPrefix, and
// marks alt = the alternate neighbor's ASN, preserving the original's
// invariant that preventive and attacker-protected prefixes propagate
// together (spec.md §4.4).
func (as *AS) emitPreventive(alt announcement.Announcement, attackerPrefix bgpprefix.Prefix) {
	preventive := alt
	preventive.Prefix = attackerPrefix
	preventive.Alt = announcement.NeighborAlt(alt.ReceivedFromASN)
	if preventive.Origin == as.ASN {
		preventive.ReceivedFromASN = announcement.OverriddenLocalOriginASN
	}
	as.PreventiveAnns = append(as.PreventiveAnns, PreventivePair{Preventive: preventive, Alternate: alt})
	as.ProcessAnnouncement(preventive, false, false)
}
