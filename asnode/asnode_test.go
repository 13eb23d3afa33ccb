package asnode

import (
	"testing"

	"github.com/Emeline-1/bgp_extrapolator/announcement"
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

func TestProcessAnnouncementCase1NoExisting(t *testing.T) {
	as := New(1, nil)
	p := bgpprefix.MustNew("10.0.0.0/24")
	ann := announcement.Announcement{Prefix: p, Origin: 99, ReceivedFromASN: 2, Priority: announcement.Priority(announcement.Customer, 2)}

	as.ProcessAnnouncement(ann, false)

	got, ok := as.LocRIB[p]
	if !ok || got.ReceivedFromASN != 2 {
		t.Fatalf("expected announcement installed as best, got %+v ok=%v", got, ok)
	}
}

func TestProcessAnnouncementCase2Better(t *testing.T) {
	as := New(1, nil)
	p := bgpprefix.MustNew("10.0.0.0/24")
	low := announcement.Announcement{Prefix: p, Origin: 99, ReceivedFromASN: 2, Priority: announcement.Priority(announcement.Peer, 5)}
	high := announcement.Announcement{Prefix: p, Origin: 99, ReceivedFromASN: 3, Priority: announcement.Priority(announcement.Customer, 5)}

	as.ProcessAnnouncement(low, false)
	as.ProcessAnnouncement(high, false)

	if as.LocRIB[p].ReceivedFromASN != 3 {
		t.Fatalf("expected higher priority route to win, got %+v", as.LocRIB[p])
	}
	if as.DeprefAnns[p].ReceivedFromASN != 2 {
		t.Fatalf("expected displaced route in depref, got %+v", as.DeprefAnns[p])
	}
}

func TestProcessAnnouncementCase3Worse(t *testing.T) {
	as := New(1, nil)
	p := bgpprefix.MustNew("10.0.0.0/24")
	high := announcement.Announcement{Prefix: p, Origin: 99, ReceivedFromASN: 3, Priority: announcement.Priority(announcement.Customer, 5)}
	low := announcement.Announcement{Prefix: p, Origin: 99, ReceivedFromASN: 2, Priority: announcement.Priority(announcement.Peer, 5)}

	as.ProcessAnnouncement(high, false)
	as.ProcessAnnouncement(low, false)

	if as.LocRIB[p].ReceivedFromASN != 3 {
		t.Fatalf("expected best route unchanged, got %+v", as.LocRIB[p])
	}
	if as.DeprefAnns[p].ReceivedFromASN != 2 {
		t.Fatalf("expected worse route stored as depref, got %+v", as.DeprefAnns[p])
	}
}

func TestMonitorSeededImmutable(t *testing.T) {
	as := New(1, nil)
	p := bgpprefix.MustNew("10.0.0.0/24")
	monitor := announcement.Announcement{Prefix: p, Origin: 99, ReceivedFromASN: 4, Priority: announcement.Priority(announcement.Provider, 0), FromMonitor: true}
	better := announcement.Announcement{Prefix: p, Origin: 99, ReceivedFromASN: 3, Priority: announcement.Priority(announcement.Customer, 0)}

	as.ProcessAnnouncement(monitor, false)
	as.ProcessAnnouncement(better, false)

	if as.LocRIB[p].ReceivedFromASN != 4 {
		t.Fatalf("monitor-seeded route must not be overridden, got %+v", as.LocRIB[p])
	}
	if as.DeprefAnns[p].ReceivedFromASN != 3 {
		t.Fatalf("better route should still land in depref, got %+v", as.DeprefAnns[p])
	}
}

func TestTiebreakDeterministic(t *testing.T) {
	p := bgpprefix.MustNew("10.0.0.0/24")
	prio := announcement.Priority(announcement.Customer, 3)

	a := announcement.Announcement{Prefix: p, Origin: 99, ReceivedFromASN: 111, Priority: prio}
	b := announcement.Announcement{Prefix: p, Origin: 99, ReceivedFromASN: 222, Priority: prio}

	as1 := New(10, nil)
	as1.ProcessAnnouncement(a, false)
	as1.ProcessAnnouncement(b, false)
	winner1 := as1.LocRIB[p].ReceivedFromASN

	as2 := New(10, nil)
	as2.ProcessAnnouncement(b, false)
	as2.ProcessAnnouncement(a, false)
	winner2 := as2.LocRIB[p].ReceivedFromASN

	if winner1 != winner2 {
		t.Fatalf("tiebreak must be order-independent: got %d vs %d", winner1, winner2)
	}

	want := uint32(111)
	if announcement.TinyHash(222) < announcement.TinyHash(111) {
		want = 222
	}
	if winner1 != want {
		t.Fatalf("tiebreak should follow tiny_hash ordering: got %d want %d", winner1, want)
	}
}

func TestLocalOriginDropped(t *testing.T) {
	as := New(7, nil)
	p := bgpprefix.MustNew("10.0.0.0/24")
	ann := announcement.Announcement{Prefix: p, Origin: 7, ReceivedFromASN: 2, Priority: announcement.Priority(announcement.Customer, 1)}

	as.ProcessAnnouncement(ann, false)

	if _, ok := as.LocRIB[p]; ok {
		t.Fatal("announcement originated by this AS must be dropped")
	}
}

func TestLocalOriginNeutralisesCoveredPrefix(t *testing.T) {
	as := New(7, nil)
	wide := bgpprefix.MustNew("10.0.0.0/16")
	narrow := bgpprefix.MustNew("10.0.1.0/24")

	own := announcement.Announcement{Prefix: wide, Origin: 7, ReceivedFromASN: 0, Priority: announcement.Priority(announcement.Origin, 0)}
	as.ProcessAnnouncement(own, false)

	incoming := announcement.Announcement{Prefix: narrow, Origin: 99, ReceivedFromASN: 5, Priority: announcement.Priority(announcement.Customer, 2)}
	as.ProcessAnnouncement(incoming, false)

	got, ok := as.LocRIB[narrow]
	if !ok {
		t.Fatal("narrower announcement should still be installed")
	}
	if got.ReceivedFromASN != announcement.OverriddenLocalOriginASN {
		t.Fatalf("expected received-from overwritten with sentinel, got %d", got.ReceivedFromASN)
	}
}

type recordingInverse struct {
	removed []uint32
}

func (r *recordingInverse) MarkAdopted(p bgpprefix.Prefix, origin uint32, asn uint32) {
	r.removed = append(r.removed, asn)
}

func TestInverseResultsNotified(t *testing.T) {
	inv := &recordingInverse{}
	as := New(1, inv)
	p := bgpprefix.MustNew("10.0.0.0/24")
	ann := announcement.Announcement{Prefix: p, Origin: 99, ReceivedFromASN: 2, Priority: announcement.Priority(announcement.Customer, 1)}

	as.ProcessAnnouncement(ann, false)

	if len(inv.removed) != 1 || inv.removed[0] != 1 {
		t.Fatalf("expected inverse results notified of adoption by AS 1, got %+v", inv.removed)
	}
}

func TestProcessAnnouncementsDrainsQueueInOrder(t *testing.T) {
	as := New(1, nil)
	p := bgpprefix.MustNew("10.0.0.0/24")
	as.Enqueue(announcement.Announcement{Prefix: p, Origin: 99, ReceivedFromASN: 2, Priority: announcement.Priority(announcement.Peer, 1)})
	as.Enqueue(announcement.Announcement{Prefix: p, Origin: 99, ReceivedFromASN: 3, Priority: announcement.Priority(announcement.Customer, 1)})

	as.ProcessAnnouncements(false)

	if len(as.Incoming) != 0 {
		t.Fatal("incoming queue should be drained")
	}
	if as.LocRIB[p].ReceivedFromASN != 3 {
		t.Fatalf("expected customer route to win, got %+v", as.LocRIB[p])
	}
}

func TestIsStub(t *testing.T) {
	as := New(1, nil)
	as.AddNeighbor(2, announcement.Provider)
	if !as.IsStub() {
		t.Fatal("AS with single provider and no peers/customers should be a stub")
	}
	as.AddNeighbor(3, announcement.Customer)
	if as.IsStub() {
		t.Fatal("AS with a customer should not be a stub")
	}
}
