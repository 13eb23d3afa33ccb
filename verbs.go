package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Emeline-1/bgp_extrapolator/announcement"
	"github.com/Emeline-1/bgp_extrapolator/blocks"
	"github.com/Emeline-1/bgp_extrapolator/feed"
	"github.com/Emeline-1/bgp_extrapolator/graph"
	"github.com/Emeline-1/bgp_extrapolator/propagation"
	"github.com/Emeline-1/bgp_extrapolator/rovpp"
	"github.com/Emeline-1/bgp_extrapolator/stage"
)

/* ============================================================= *\
   verbs.go

   Execution for each of the five verbs, run once args.go has
   populated g_args. Feed/sink selection mirrors the teacher's
   readers.go choice between a flat file and a sqlite3 source.
\* ============================================================= */

func buildRelationFeed() feed.RelationFeed {
	if g_args.as_rel_sqlite != "" {
		return feed.SQLiteRelationFeed{Filename: g_args.as_rel_sqlite, Table: g_args.as_rel_table}
	}
	return feed.CSVRelationFeed{Filename: g_args.as_rel_file}
}

func buildAnnouncementFeed() feed.AnnouncementFeed {
	if g_args.ann_sqlite != "" {
		return feed.SQLiteAnnouncementFeed{Filename: g_args.ann_sqlite, Table: g_args.ann_table}
	}
	return &feed.CSVAnnouncementFeed{Filename: g_args.ann_file}
}

// buildSink returns nil (and no error) when the verb was given no
// -out-* flag at all, meaning the caller only wants the printed
// diagnostics counters, not a materialized result set.
func buildSink() (feed.ResultSink, error) {
	if g_args.out_sqlite != "" {
		dir, err := stage.New(g_args.stage_dir)
		if err != nil {
			return nil, fmt.Errorf("staging dir: %w", err)
		}
		return feed.NewSQLiteResultSink(g_args.out_sqlite, dir, g_args.full_path), nil
	}
	if g_args.out_best == "" && g_args.out_depref == "" && g_args.out_supernodes == "" {
		return nil, nil
	}
	return &feed.CSVResultSink{
		BestFile:      g_args.out_best,
		DeprefFile:    g_args.out_depref,
		SupernodeFile: g_args.out_supernodes,
		FullPath:      g_args.full_path,
	}, nil
}

func buildCondensedGraph() (*graph.Graph, error) {
	rows, err := buildRelationFeed().Relations()
	if err != nil {
		return nil, fmt.Errorf("loading relationships: %w", err)
	}
	g := graph.New(g_args.track_inverse)
	for _, row := range rows {
		switch row.Rel {
		case announcement.Peer:
			g.IngestPeers(row.ASN1, row.ASN2)
		case announcement.Provider:
			g.IngestCustomerProvider(row.ASN1, row.ASN2)
		}
	}
	g.Condense()
	return g, nil
}

func readASNFile(filename string) (map[uint32]struct{}, error) {
	out := make(map[uint32]struct{})
	if filename == "" {
		return out, nil
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		asn, err := strconv.ParseUint(line, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%s: bad asn %q: %w", filename, line, err)
		}
		out[uint32(asn)] = struct{}{}
	}
	return out, scanner.Err()
}

func parsePolicy(name string) (rovpp.Policy, error) {
	for _, p := range []rovpp.Policy{rovpp.BGP, rovpp.ROV, rovpp.ROVPP0, rovpp.ROVPP, rovpp.ROVPPB, rovpp.ROVPPBIS, rovpp.ROVPPBP} {
		if p.String() == name {
			return p, nil
		}
	}
	return rovpp.BGP, fmt.Errorf("unknown policy %q", name)
}

func runCondense() {
	g, err := buildCondensedGraph()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("ases_after_condensation %d\n", len(g.AllASes()))
	fmt.Printf("stubs_removed %d\n", len(g.StubsToParents()))
	fmt.Printf("supernodes %d\n", len(g.Supernodes()))
	fmt.Printf("max_rank %d\n", g.MaxRank())
}

func runSeed() {
	g, err := buildCondensedGraph()
	if err != nil {
		log.Fatal(err)
	}
	annRows, err := loadAllAnnouncementRows()
	if err != nil {
		log.Fatal(err)
	}

	seeder := propagation.NewSeeder(g)
	for _, row := range annRows {
		g.SeedPending(row.Prefix, row.Origin)
		seeder.Offer(propagation.MRTAnnouncement{
			Prefix:    row.Prefix,
			ASPath:    row.ASPath,
			Origin:    row.Origin,
			Timestamp: row.Timestamp,
		})
	}
	seeder.Flush()

	seededEntries := 0
	for _, as := range g.AllASes() {
		seededEntries += len(as.Incoming)
	}
	fmt.Printf("rows_offered %d\n", len(annRows))
	fmt.Printf("ribs_in_entries %d\n", seededEntries)
}

func loadAllAnnouncementRows() ([]feed.AnnouncementRow, error) {
	annFeed := buildAnnouncementFeed()
	blockIDs, err := annFeed.BlockIDs()
	if err != nil {
		return nil, fmt.Errorf("loading block ids: %w", err)
	}
	var all []feed.AnnouncementRow
	for _, id := range blockIDs {
		rows, err := annFeed.Block(id)
		if err != nil {
			return nil, fmt.Errorf("loading block %d: %w", id, err)
		}
		all = append(all, rows...)
	}
	return all, nil
}

func runPropagate() {
	sink, err := buildSink()
	if err != nil {
		log.Fatal(err)
	}
	if sink != nil {
		defer sink.Close()
	}

	stats, err := blocks.Run(blocks.Options{
		Relations:      buildRelationFeed(),
		Announcements:  buildAnnouncementFeed(),
		Sink:           sink,
		Workers:        g_args.workers,
		RandomTiebreak: g_args.random_tiebreak,
		TrackInverse:   g_args.track_inverse,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(stats.Counters.String())
}

func runROVPP() {
	policy, err := parsePolicy(g_args.policy)
	if err != nil {
		log.Fatal(err)
	}
	attackers, err := readASNFile(g_args.attackers_file)
	if err != nil {
		log.Fatal(err)
	}
	exempt, err := readASNFile(g_args.exempt_file)
	if err != nil {
		log.Fatal(err)
	}
	sink, err := buildSink()
	if err != nil {
		log.Fatal(err)
	}
	if sink != nil {
		defer sink.Close()
	}

	stats, err := rovpp.Run(rovpp.RunOptions{
		Relations:      buildRelationFeed(),
		Announcements:  buildAnnouncementFeed(),
		Sink:           sink,
		Policy:         policy,
		Attackers:      attackers,
		Exempt:         exempt,
		Workers:        g_args.workers,
		RandomTiebreak: g_args.random_tiebreak,
		TrackInverse:   g_args.track_inverse,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(stats.Counters.String())
}

func runReport() {
	g, err := buildCondensedGraph()
	if err != nil {
		log.Fatal(err)
	}

	islands := g.Islands()
	fmt.Printf("islands %d\n", len(islands))
	for i, island := range islands {
		fmt.Printf("  island %d: %d ases\n", i, len(island))
	}

	supernodes := g.Supernodes()
	bySuper := make(map[uint32][]uint32)
	for member, super := range supernodes {
		bySuper[super] = append(bySuper[super], member)
	}
	fmt.Printf("supernodes %d\n", len(bySuper))
	for super, members := range bySuper {
		fmt.Printf("  supernode %d: %d members\n", super, len(members))
	}
}
