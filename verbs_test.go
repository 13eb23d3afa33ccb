package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Emeline-1/bgp_extrapolator/feed"
	"github.com/Emeline-1/bgp_extrapolator/rovpp"
)

func resetArgs() {
	g_args = Args{}
}

func TestParsePolicyRoundTripsEveryConstant(t *testing.T) {
	cases := map[string]rovpp.Policy{
		"bgp": rovpp.BGP, "rov": rovpp.ROV, "rovpp0": rovpp.ROVPP0,
		"rovpp": rovpp.ROVPP, "rovppb": rovpp.ROVPPB,
		"rovppbis": rovpp.ROVPPBIS, "rovppbp": rovpp.ROVPPBP,
	}
	for name, want := range cases {
		got, err := parsePolicy(name)
		if err != nil {
			t.Fatalf("parsePolicy(%q): %v", name, err)
		}
		if got != want {
			t.Fatalf("parsePolicy(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestParsePolicyRejectsUnknownName(t *testing.T) {
	if _, err := parsePolicy("ovrppv2"); err == nil {
		t.Fatal("expected an error for an unknown policy name")
	}
}

func TestReadASNFileParsesOneASNPerLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "attackers.txt")
	if err := os.WriteFile(path, []byte("# comment\n666\n\n700\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	set, err := readASNFile(path)
	if err != nil {
		t.Fatalf("readASNFile: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(set), set)
	}
	if _, ok := set[666]; !ok {
		t.Fatal("expected 666 in the set")
	}
	if _, ok := set[700]; !ok {
		t.Fatal("expected 700 in the set")
	}
}

func TestReadASNFileEmptyNameReturnsEmptySet(t *testing.T) {
	set, err := readASNFile("")
	if err != nil {
		t.Fatalf("readASNFile(\"\"): %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected an empty set, got %+v", set)
	}
}

func TestBuildRelationFeedPrefersSQLiteWhenSet(t *testing.T) {
	defer resetArgs()
	g_args.as_rel_sqlite = "relations.db"
	g_args.as_rel_table = "rels"
	f := buildRelationFeed()
	sqliteFeed, ok := f.(feed.SQLiteRelationFeed)
	if !ok {
		t.Fatalf("expected a SQLiteRelationFeed, got %T", f)
	}
	if sqliteFeed.Filename != "relations.db" || sqliteFeed.Table != "rels" {
		t.Fatalf("unexpected feed contents: %+v", sqliteFeed)
	}
}

func TestBuildRelationFeedFallsBackToCSV(t *testing.T) {
	defer resetArgs()
	g_args.as_rel_file = "relations.txt"
	f := buildRelationFeed()
	csvFeed, ok := f.(feed.CSVRelationFeed)
	if !ok {
		t.Fatalf("expected a CSVRelationFeed, got %T", f)
	}
	if csvFeed.Filename != "relations.txt" {
		t.Fatalf("unexpected feed contents: %+v", csvFeed)
	}
}

func TestBuildAnnouncementFeedPrefersSQLiteWhenSet(t *testing.T) {
	defer resetArgs()
	g_args.ann_sqlite = "anns.db"
	g_args.ann_table = "mrt"
	f := buildAnnouncementFeed()
	if _, ok := f.(feed.SQLiteAnnouncementFeed); !ok {
		t.Fatalf("expected a SQLiteAnnouncementFeed, got %T", f)
	}
}

func TestBuildAnnouncementFeedFallsBackToCSV(t *testing.T) {
	defer resetArgs()
	g_args.ann_file = "anns.txt"
	f := buildAnnouncementFeed()
	if _, ok := f.(*feed.CSVAnnouncementFeed); !ok {
		t.Fatalf("expected a *CSVAnnouncementFeed, got %T", f)
	}
}

func TestBuildSinkReturnsNilWithoutAnyOutputFlag(t *testing.T) {
	defer resetArgs()
	sink, err := buildSink()
	if err != nil {
		t.Fatalf("buildSink: %v", err)
	}
	if sink != nil {
		t.Fatalf("expected a nil sink, got %+v", sink)
	}
}

func TestBuildSinkReturnsCSVSinkWhenOutBestSet(t *testing.T) {
	defer resetArgs()
	dir := t.TempDir()
	g_args.out_best = filepath.Join(dir, "best.csv")
	sink, err := buildSink()
	if err != nil {
		t.Fatalf("buildSink: %v", err)
	}
	if _, ok := sink.(*feed.CSVResultSink); !ok {
		t.Fatalf("expected a *CSVResultSink, got %T", sink)
	}
}
