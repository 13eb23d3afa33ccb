package rovpp

import (
	"testing"

	"github.com/Emeline-1/bgp_extrapolator/announcement"
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

func mustPrefix(t *testing.T, cidr string) bgpprefix.Prefix {
	t.Helper()
	p, err := bgpprefix.New(cidr)
	if err != nil {
		t.Fatalf("mustPrefix(%q): %v", cidr, err)
	}
	return p
}

func TestROVDropsAttackerOrigin(t *testing.T) {
	attackers := map[uint32]struct{}{666: {}}
	as := New(100, attackers, nil)
	as.Policy = ROV
	p := mustPrefix(t, "10.0.0.0/24")

	as.Enqueue(announcement.Announcement{
		Origin: 666, Prefix: p, ReceivedFromASN: 50,
		Priority: announcement.Priority(announcement.Customer, 3),
		ASPath:   []uint32{100, 50, 666},
	})
	as.ProcessAnnouncements(false)

	if _, ok := as.LocRIB[p]; ok {
		t.Fatal("attacker-origin route should have been dropped under plain ROV")
	}
}

func TestROVPPBlackholeNoAlternate(t *testing.T) {
	attackers := map[uint32]struct{}{666: {}}
	as := New(100, attackers, nil)
	as.Policy = ROVPP
	p := mustPrefix(t, "10.0.0.0/24")

	as.Enqueue(announcement.Announcement{
		Origin: 666, Prefix: p, ReceivedFromASN: 50,
		Priority: announcement.Priority(announcement.Customer, 3),
		ASPath:   []uint32{100, 50, 666},
	})
	as.ProcessAnnouncements(false)

	best, ok := as.LocRIB[p]
	if !ok {
		t.Fatal("expected a blackhole route installed at P")
	}
	if !best.IsBlackhole() {
		t.Fatalf("expected blackhole sentinel origin/received-from, got %+v", best)
	}
	if len(as.Blackholes) != 1 {
		t.Fatalf("expected exactly one recorded blackhole, got %d", len(as.Blackholes))
	}
}

func TestROVPPBPPreventiveWithAlternate(t *testing.T) {
	attackers := map[uint32]struct{}{666: {}}
	as := New(100, attackers, nil)
	as.Policy = ROVPPBP
	as.Providers[50] = struct{}{}
	as.Providers[60] = struct{}{}

	attackerPrefix := mustPrefix(t, "10.0.1.0/24")
	coveringPrefix := mustPrefix(t, "10.0.0.0/16")

	// Legitimate covering route from N2, arrives first.
	as.Enqueue(announcement.Announcement{
		Origin: 7, Prefix: coveringPrefix, ReceivedFromASN: 60,
		Priority: announcement.Priority(announcement.Customer, 4),
		ASPath:   []uint32{100, 60, 7},
	})
	// Attacker announcement for the narrower prefix from N1.
	as.Enqueue(announcement.Announcement{
		Origin: 666, Prefix: attackerPrefix, ReceivedFromASN: 50,
		Priority: announcement.Priority(announcement.Customer, 3),
		ASPath:   []uint32{100, 50, 666},
	})
	as.ProcessAnnouncements(false)

	preventive, ok := as.LocRIB[attackerPrefix]
	if !ok {
		t.Fatal("expected a preventive route installed at the attacker's prefix")
	}
	if preventive.Origin != 7 {
		t.Fatalf("expected preventive route to carry the alternate's origin 7, got %d", preventive.Origin)
	}
	if preventive.Alt != announcement.NeighborAlt(60) {
		t.Fatalf("expected alt=60, got %v", preventive.Alt)
	}
	if len(as.PreventiveAnns) != 1 {
		t.Fatalf("expected one preventive pair recorded, got %d", len(as.PreventiveAnns))
	}
}

// TestROVPPBPPreventiveWithEqualPrefixAlternate is the maintainer's
// regression case: an alternate route at exactly the attacker's
// prefix (not a strictly covering aggregate) must still be found and
// preferred over a blackhole.
func TestROVPPBPPreventiveWithEqualPrefixAlternate(t *testing.T) {
	attackers := map[uint32]struct{}{666: {}}
	as := New(100, attackers, nil)
	as.Policy = ROVPPBP
	as.Providers[50] = struct{}{}
	as.Providers[60] = struct{}{}

	p := mustPrefix(t, "10.0.0.0/24")

	// Legitimate route at the SAME prefix as the attacker's, from N2.
	as.Enqueue(announcement.Announcement{
		Origin: 7, Prefix: p, ReceivedFromASN: 60,
		Priority: announcement.Priority(announcement.Customer, 4),
		ASPath:   []uint32{100, 60, 7},
	})
	// Attacker announcement for that same prefix from N1.
	as.Enqueue(announcement.Announcement{
		Origin: 666, Prefix: p, ReceivedFromASN: 50,
		Priority: announcement.Priority(announcement.Customer, 3),
		ASPath:   []uint32{100, 50, 666},
	})
	as.ProcessAnnouncements(false)

	preventive, ok := as.LocRIB[p]
	if !ok {
		t.Fatal("expected a preventive route installed at the shared prefix")
	}
	if preventive.IsBlackhole() {
		t.Fatal("an equal-prefix alternate was available, should not have blackholed")
	}
	if preventive.Origin != 7 {
		t.Fatalf("expected preventive route to carry the alternate's origin 7, got %d", preventive.Origin)
	}
}

func TestROVPPBISSilentlyDropsFromCustomer(t *testing.T) {
	attackers := map[uint32]struct{}{666: {}}
	as := New(100, attackers, nil)
	as.Policy = ROVPPBIS
	as.Customers[50] = struct{}{}

	p := mustPrefix(t, "10.0.0.0/24")
	as.Enqueue(announcement.Announcement{
		Origin: 666, Prefix: p, ReceivedFromASN: 50,
		Priority: announcement.Priority(announcement.Customer, 3),
		ASPath:   []uint32{100, 50, 666},
	})
	as.ProcessAnnouncements(false)

	if _, ok := as.LocRIB[p]; ok {
		t.Fatal("expected silent drop, no blackhole, for an attacker route from a customer")
	}
	if len(as.Blackholes) != 0 {
		t.Fatalf("expected no blackhole synthesized, got %d", len(as.Blackholes))
	}
}

func TestWithdrawalWithoutAlternateClearsLocRIB(t *testing.T) {
	as := New(100, nil, nil)
	as.Policy = BGP
	p := mustPrefix(t, "10.0.0.0/24")

	// Same class; the shorter path gives "better" the higher priority.
	good := announcement.Announcement{
		Origin: 5, Prefix: p, ReceivedFromASN: 50,
		Priority: announcement.Priority(announcement.Customer, 4),
	}
	better := announcement.Announcement{
		Origin: 6, Prefix: p, ReceivedFromASN: 60,
		Priority: announcement.Priority(announcement.Customer, 3),
	}
	as.Enqueue(good)
	as.Enqueue(better)
	as.ProcessAnnouncements(false)

	if as.LocRIB[p].ReceivedFromASN != 60 {
		t.Fatalf("expected route from 60 installed as best, got %+v", as.LocRIB[p])
	}

	as.Enqueue(better.WithdrawalOf())
	as.Enqueue(better)
	as.ProcessAnnouncements(false)

	if _, stillThere := as.LocRIB[p]; stillThere {
		t.Fatalf("expected no alternate (the route from 50 is no longer in ribs_in), got %+v", as.LocRIB[p])
	}
}
