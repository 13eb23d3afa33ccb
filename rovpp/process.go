/* ============================================================= *\
   process.go

   Per-announcement integration and the policy-dispatch batch pass.
   Grounded on ROVppAS.cpp's process_announcement/process_announcements.
\* ============================================================= */

package rovpp

import (
	"github.com/Emeline-1/bgp_extrapolator/announcement"
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

// ProcessAnnouncement integrates a single candidate route, largely as
// asnode.AS.ProcessAnnouncement does, plus an override flag: when set,
// ann replaces whatever is currently best regardless of priority (used
// by v0.3's "move entire prefix to alternative" step).
func (as *AS) ProcessAnnouncement(ann announcement.Announcement, randomTiebreak, override bool) {
	best, exists := as.LocRIB[ann.Prefix]

	if !exists {
		as.LocRIB[ann.Prefix] = ann
		as.markAdopted(ann)
		as.checkPreventives(ann)
		return
	}

	if override {
		as.promote(ann, best)
		return
	}

	if best.FromMonitor {
		as.considerDepref(ann, ann.Prefix)
		return
	}

	switch {
	case ann.Priority == best.Priority && !ann.Equal(best):
		if as.tiebreakWins(ann, best, randomTiebreak) {
			as.promote(ann, best)
		} else {
			as.considerDepref(ann, ann.Prefix)
		}

	case ann.Priority > best.Priority:
		as.promote(ann, best)

	default:
		as.considerDepref(ann, ann.Prefix)
	}
}

// promote installs ann as best, evicting the previous best to depref
// and recording its withdrawal, the way every winning branch of
// ROVppAS::process_announcement does.
func (as *AS) promote(ann, evicted announcement.Announcement) {
	as.DeprefAnns[ann.Prefix] = evicted
	as.Withdrawals = append(as.Withdrawals, evicted.WithdrawalOf())
	as.LocRIB[ann.Prefix] = ann
	as.markAdopted(ann)
	as.checkPreventives(ann)
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
// received-from ASN; with randomTiebreak, a per-AS pseudo-random bit.
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

// checkPreventives re-evaluates any standing preventive announcement
// at the aggregated prefix when ann changes loc_rib, since a
// preventive's chosen alternate may no longer be best (spec.md §4.4,
// v0.3 only). PreventiveMaskBits is this AS's aggregation width (one
// value for both address families), avoiding the original's hardcoded IPv4 /24 check (spec.md §9).
func (as *AS) checkPreventives(ann announcement.Announcement) {
	if as.Policy != ROVPPBP {
		return
	}
	if int(ann.Prefix.MaskLen()) == int(as.PreventiveMaskBits) {
		// Already an aggregate at the preventive width; nothing to widen.
		return
	}

	aggregate, ok := widen(ann.Prefix, as.PreventiveMaskBits)
	if !ok {
		return
	}

	search, ok := as.LocRIB[aggregate]
	if !ok || search.ReceivedFromASN != ann.ReceivedFromASN {
		return
	}

	as.Withdrawals = append(as.Withdrawals, search.WithdrawalOf())
	delete(as.LocRIB, aggregate)

	replacement := search
	replacement.Prefix = aggregate
	replacement.Withdraw = false

	alt := as.BestAlternativeRoute(replacement)
	if alt.Equal(replacement) {
		as.synthesizeBlackhole(replacement)
		return
	}
	as.emitPreventive(alt, aggregate)
}

// widen returns the covering prefix of p at bits width, or false if p
// is already no narrower than that width.
func widen(p bgpprefix.Prefix, bits uint8) (bgpprefix.Prefix, bool) {
	if int(p.MaskLen()) <= int(bits) {
		return bgpprefix.Prefix{}, false
	}
	binary := p.BinaryString()
	if len(binary) < int(bits) {
		return bgpprefix.Prefix{}, false
	}
	aggregate, err := bgpprefix.FromBinaryString(binary[:bits], p.IsIPv4())
	if err != nil {
		return bgpprefix.Prefix{}, false
	}
	return aggregate, true
}
