package blocks

import (
	"testing"

	"github.com/Emeline-1/bgp_extrapolator/announcement"
	"github.com/Emeline-1/bgp_extrapolator/feed"
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

// fakeRelationFeed is the diamond topology from spec.md §8 scenario 1.
type fakeRelationFeed struct{}

func (fakeRelationFeed) Relations() ([]feed.Relation, error) {
	return []feed.Relation{
		{ASN1: 2, ASN2: 1, Rel: announcement.Provider},
		{ASN1: 3, ASN2: 1, Rel: announcement.Provider},
		{ASN1: 4, ASN2: 2, Rel: announcement.Provider},
		{ASN1: 4, ASN2: 3, Rel: announcement.Provider},
		{ASN1: 2, ASN2: 3, Rel: announcement.Peer},
	}, nil
}

type fakeAnnouncementFeed struct {
	blocks map[uint32][]feed.AnnouncementRow
}

func (f fakeAnnouncementFeed) BlockIDs() ([]uint32, error) {
	ids := make([]uint32, 0, len(f.blocks))
	for id := range f.blocks {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f fakeAnnouncementFeed) Block(blockID uint32) ([]feed.AnnouncementRow, error) {
	return f.blocks[blockID], nil
}

type fakeSink struct {
	best, depref []feed.ResultRow
	supernodes   []feed.SupernodeRow
	closed       bool
}

func (s *fakeSink) WriteBest(rows []feed.ResultRow) error {
	s.best = append(s.best, rows...)
	return nil
}
func (s *fakeSink) WriteDeprefered(rows []feed.ResultRow) error {
	s.depref = append(s.depref, rows...)
	return nil
}
func (s *fakeSink) WriteSupernodes(rows []feed.SupernodeRow) error {
	s.supernodes = append(s.supernodes, rows...)
	return nil
}
func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

func mustPrefix(t *testing.T, cidr string) bgpprefix.Prefix {
	t.Helper()
	p, err := bgpprefix.New(cidr)
	if err != nil {
		t.Fatalf("mustPrefix(%q): %v", cidr, err)
	}
	return p
}

func TestRunSequentialEmitsBestRowForEveryAS(t *testing.T) {
	p := mustPrefix(t, "10.0.0.0/24")
	annFeed := fakeAnnouncementFeed{blocks: map[uint32][]feed.AnnouncementRow{
		0: {
			{Prefix: p, ASPath: []uint32{1, 2, 4}, Origin: 4, Timestamp: 1, BlockID: 0},
			{Prefix: p, ASPath: []uint32{1, 3, 4}, Origin: 4, Timestamp: 1, BlockID: 0},
		},
	}}
	sink := &fakeSink{}

	stats, err := Run(Options{
		Relations:     fakeRelationFeed{},
		Announcements: annFeed,
		Sink:          sink,
		Workers:       0,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.best) == 0 {
		t.Fatal("expected at least one best-result row")
	}
	if stats.Counters.Get("rows_seeded") != 2 {
		t.Fatalf("expected 2 rows_seeded, got %d", stats.Counters.Get("rows_seeded"))
	}

	seen := make(map[uint32]bool)
	for _, row := range sink.best {
		seen[row.ASN] = true
	}
	for _, asn := range []uint32{1, 2, 3} {
		if !seen[asn] {
			t.Fatalf("expected a best-result row for AS %d, got rows %+v", asn, sink.best)
		}
	}
}

func TestRunWithWorkersProducesSameRowCount(t *testing.T) {
	p1 := mustPrefix(t, "10.0.0.0/24")
	p2 := mustPrefix(t, "10.0.1.0/24")
	annFeed := fakeAnnouncementFeed{blocks: map[uint32][]feed.AnnouncementRow{
		0: {{Prefix: p1, ASPath: []uint32{1, 2, 4}, Origin: 4, Timestamp: 1, BlockID: 0}},
		1: {{Prefix: p2, ASPath: []uint32{1, 3, 4}, Origin: 4, Timestamp: 1, BlockID: 1}},
	}}

	seqSink := &fakeSink{}
	_, err := Run(Options{Relations: fakeRelationFeed{}, Announcements: annFeed, Sink: seqSink, Workers: 0})
	if err != nil {
		t.Fatalf("Run (sequential): %v", err)
	}

	parSink := &fakeSink{}
	_, err = Run(Options{Relations: fakeRelationFeed{}, Announcements: annFeed, Sink: parSink, Workers: 4})
	if err != nil {
		t.Fatalf("Run (parallel): %v", err)
	}

	if len(seqSink.best) != len(parSink.best) {
		t.Fatalf("expected matching row counts, got %d sequential vs %d parallel", len(seqSink.best), len(parSink.best))
	}
}
