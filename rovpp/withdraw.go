/* ============================================================= *\
   withdraw.go

   Withdrawal-reconciliation pass, run to a fixed point before
   integration each batch. Grounded on ROVppAS.cpp's withdraw() and
   the withdrawal-cancellation loop at the top of process_announcements.
\* ============================================================= */

package rovpp

import "github.com/Emeline-1/bgp_extrapolator/announcement"

// Withdraw records best as withdrawn and flags that another
// propagation iteration is required, as ROVppAS::withdraw does.
func (as *AS) Withdraw(best announcement.Announcement) {
	as.Withdrawals = append(as.Withdrawals, best.WithdrawalOf())
	as.GraphChanged = true
}

// reconcileWithdrawals removes every withdrawal from ribs_in together
// with the real announcement it cancels, reinstating the best
// alternative route in loc_rib when the withdrawn route was the
// current best. Iterates to a fixed point because removing one pair
// can expose another that was shadowed behind it.
func (as *AS) reconcileWithdrawals() {
	for {
		changed := false
		kept := as.RibsIn[:0:0]
		canceled := make(map[int]bool)

		for i, w := range as.RibsIn {
			if !w.Withdraw || canceled[i] {
				continue
			}
			for j, real := range as.RibsIn {
				if j == i || real.Withdraw || canceled[j] {
					continue
				}
				if !real.Equal(w) {
					continue
				}
				if best, ok := as.LocRIB[w.Prefix]; ok && best.Equal(w) {
					as.Withdraw(best)
					alt := as.BestAlternativeRoute(best)
					if alt.Equal(best) {
						delete(as.LocRIB, w.Prefix)
					} else {
						as.LocRIB[w.Prefix] = alt
					}
					as.GraphChanged = true
				}
				canceled[i] = true
				canceled[j] = true
				changed = true
				break
			}
		}

		if !changed {
			return
		}
		for i, ann := range as.RibsIn {
			if !canceled[i] {
				kept = append(kept, ann)
			}
		}
		as.RibsIn = kept
	}
}

// filterLoops drops any ribs_in entry whose as_path contains this
// AS's own ASN anywhere past the head (seeding sets as_path[0] to the
// receiving AS; a repeat further along means the route looped back
// through here before; Sweep forwards as_path unchanged, so on a
// forwarded route the head is the AS it was seeded at), the defensive per-batch loop check
// ROVppAS::process_announcements runs before anything else.
func (as *AS) filterLoops() {
	kept := as.RibsIn[:0:0]
	for _, ann := range as.RibsIn {
		loop := false
		rest := ann.ASPath
		if len(rest) > 0 {
			rest = rest[1:]
		}
		for _, hop := range rest {
			if hop == as.ASN && ann.Origin != as.ASN {
				loop = true
				break
			}
		}
		if !loop {
			kept = append(kept, ann)
		}
	}
	as.RibsIn = kept
}
