package announcement

import (
	"testing"

	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

func TestPriorityOrdering(t *testing.T) {
	customerShort := Priority(Customer, 1)
	customerLong := Priority(Customer, 10)
	peerShort := Priority(Peer, 1)

	if !(customerShort > customerLong) {
		t.Fatal("shorter path should outrank longer path at same relationship")
	}
	if !(customerLong > peerShort) {
		t.Fatal("customer relationship should always outrank peer, regardless of path length")
	}
}

func TestPriorityOriginHighest(t *testing.T) {
	origin := Priority(Origin, 0)
	customer := Priority(Customer, 0)
	if !(origin > customer) {
		t.Fatal("origin relationship should outrank customer")
	}
}

func TestSplitPriorityRoundTrip(t *testing.T) {
	p := Priority(Peer, 7)
	rel, plen := SplitPriority(p)
	if rel != Peer || plen != 7 {
		t.Fatalf("round trip mismatch: got rel=%v plen=%d", rel, plen)
	}
}

func TestWithdrawalOf(t *testing.T) {
	pfx := bgpprefix.MustNew("10.0.0.0/24")
	a := Announcement{Prefix: pfx, Origin: 1, ReceivedFromASN: 2}
	w := a.WithdrawalOf()
	if !w.Withdraw {
		t.Fatal("expected withdraw flag set")
	}
	if a.Withdraw {
		t.Fatal("original announcement must not be mutated")
	}
}

func TestIsBlackhole(t *testing.T) {
	a := Announcement{Origin: UnusedASNFlagForBlackholes, ReceivedFromASN: UnusedASNFlagForBlackholes}
	if !a.IsBlackhole() {
		t.Fatal("expected blackhole detection")
	}
	b := Announcement{Origin: 1, ReceivedFromASN: 2}
	if b.IsBlackhole() {
		t.Fatal("ordinary announcement must not be a blackhole")
	}
}
