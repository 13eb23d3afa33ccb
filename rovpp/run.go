/* ============================================================= *\
   run.go

   Per-prefix-block driver for the ROV++ variant, structurally the
   same shape as blocks.Run (fresh topology per block, optional
   github.com/Emeline-1/pool fan-out, mutex-serialized emit into a
   shared feed.ResultSink) but building map[uint32]*AS nodes through
   FromGraph instead of letting graph.Graph own *asnode.AS directly.
\* ============================================================= */

package rovpp

import (
	"fmt"
	"log"
	"strconv"
	"sync"

	pool "github.com/Emeline-1/pool"

	"github.com/Emeline-1/bgp_extrapolator/announcement"
	"github.com/Emeline-1/bgp_extrapolator/feed"
	"github.com/Emeline-1/bgp_extrapolator/graph"
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
	"github.com/Emeline-1/bgp_extrapolator/safeset"
)

// RunOptions configures one Run invocation.
type RunOptions struct {
	Relations     feed.RelationFeed
	Announcements feed.AnnouncementFeed
	Sink          feed.ResultSink
	Policy        Policy
	Attackers     map[uint32]struct{}
	// Exempt ASNs keep policy BGP instead of Policy (a non-adopting
	// control group for an adoption-rate experiment).
	Exempt         map[uint32]struct{}
	Workers        int
	RandomTiebreak bool
	TrackInverse   bool
}

// Stats accumulates diagnostics across every block processed by Run.
type Stats struct {
	Counters *safeset.Counters
}

// NewStats returns an empty Stats.
func NewStats() *Stats {
	return &Stats{Counters: safeset.NewCounters()}
}

func buildCondensedGraph(rel feed.RelationFeed, trackInverse bool) (*graph.Graph, error) {
	rows, err := rel.Relations()
	if err != nil {
		return nil, fmt.Errorf("[rovpp.buildCondensedGraph]: %w", err)
	}
	g := graph.New(trackInverse)
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

func prefixIDOf(p bgpprefix.Prefix) uint32 {
	id, _ := p.ID()
	return id
}

// Run processes every block in opts.Announcements, against the
// topology in opts.Relations, running the ROV++ variant and emitting
// results through opts.Sink.
func Run(opts RunOptions) (*Stats, error) {
	stats := NewStats()

	blockIDs, err := opts.Announcements.BlockIDs()
	if err != nil {
		return stats, fmt.Errorf("[rovpp.Run]: %w", err)
	}

	var sinkMux sync.Mutex

	process := func(blockID uint32) {
		if err := runBlock(opts, blockID, stats, &sinkMux); err != nil {
			log.Print("[rovpp.Run]: block " + strconv.FormatUint(uint64(blockID), 10) + ": " + err.Error())
		}
	}

	if opts.Workers <= 1 {
		for _, id := range blockIDs {
			process(id)
		}
		return stats, nil
	}

	items := make([]string, len(blockIDs))
	for i, id := range blockIDs {
		items[i] = strconv.FormatUint(uint64(id), 10)
	}
	pool.Launch_pool(opts.Workers, items, func(item string) {
		id, err := strconv.ParseUint(item, 10, 32)
		if err != nil {
			log.Print("[rovpp.Run]: bad block id " + item)
			return
		}
		process(uint32(id))
	})

	return stats, nil
}

func runBlock(opts RunOptions, blockID uint32, stats *Stats, sinkMux *sync.Mutex) error {
	g, err := buildCondensedGraph(opts.Relations, opts.TrackInverse)
	if err != nil {
		return err
	}

	nodes := FromGraph(g, opts.Policy, opts.Attackers, opts.Exempt)

	rows, err := opts.Announcements.Block(blockID)
	if err != nil {
		return fmt.Errorf("fetching block %d: %w", blockID, err)
	}

	seeder := NewSeeder(g, nodes)
	for _, row := range rows {
		g.SeedPending(row.Prefix, row.Origin)
		seeder.Offer(MRTAnnouncement{
			Prefix:    row.Prefix,
			ASPath:    row.ASPath,
			Origin:    row.Origin,
			Timestamp: row.Timestamp,
		})
	}
	seeder.Flush()
	stats.Counters.Add("rows_seeded", int64(len(rows)))

	Sweep(g, nodes, opts.RandomTiebreak)

	sinkMux.Lock()
	defer sinkMux.Unlock()
	return emitResults(g, nodes, opts.Sink, stats)
}

func emitResults(g *graph.Graph, nodes map[uint32]*AS, sink feed.ResultSink, stats *Stats) error {
	if sink == nil {
		return nil
	}

	var best, depref []feed.ResultRow
	for asn, node := range nodes {
		for prefix, ann := range node.LocRIB {
			best = append(best, feed.ResultRow{
				ASN: asn, Prefix: prefix, Origin: ann.Origin,
				ReceivedFromASN: ann.ReceivedFromASN, Timestamp: ann.Tstamp,
				PrefixID: prefixIDOf(prefix), ASPath: ann.ASPath,
			})
		}
		for prefix, ann := range node.DeprefAnns {
			depref = append(depref, feed.ResultRow{
				ASN: asn, Prefix: prefix, Origin: ann.Origin,
				ReceivedFromASN: ann.ReceivedFromASN, Timestamp: ann.Tstamp,
				PrefixID: prefixIDOf(prefix), ASPath: ann.ASPath,
			})
		}
	}

	for stub, parent := range g.StubsToParents() {
		parentNode := nodes[parent]
		if parentNode == nil {
			continue
		}
		for prefix, ann := range parentNode.LocRIB {
			best = append(best, feed.ResultRow{
				ASN: stub, Prefix: prefix, Origin: ann.Origin,
				ReceivedFromASN: ann.ReceivedFromASN, Timestamp: ann.Tstamp,
				PrefixID: prefixIDOf(prefix), ASPath: ann.ASPath,
			})
		}
	}

	stats.Counters.Add("best_rows", int64(len(best)))
	stats.Counters.Add("depref_rows", int64(len(depref)))

	var blackholes, preventives int64
	for _, node := range nodes {
		blackholes += int64(len(node.Blackholes))
		preventives += int64(len(node.PreventiveAnns))
	}
	stats.Counters.Add("blackholes", blackholes)
	stats.Counters.Add("preventive_anns", preventives)

	if err := sink.WriteBest(best); err != nil {
		return err
	}
	if err := sink.WriteDeprefered(depref); err != nil {
		return err
	}

	supernodes := g.Supernodes()
	rows := make([]feed.SupernodeRow, 0, len(supernodes))
	for member, super := range supernodes {
		rows = append(rows, feed.SupernodeRow{MemberASN: member, SupernodeASN: super})
	}
	return sink.WriteSupernodes(rows)
}
