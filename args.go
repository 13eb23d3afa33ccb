package main

import (
	"flag"
	"log"
	"os"
)

/* ============================================================= *\
   args.go

   Per-verb flag parsing, following the teacher's handle_args_*
   shape: one flag.NewFlagSet(args[0], flag.ExitOnError) per verb,
   populating the single g_args struct that the matching run
   function (verbs.go) reads from.
\* ============================================================= */

func registerFeedFlags(cmd *flag.FlagSet) {
	cmd.StringVar(&g_args.as_rel_file, "as-rel", "", "CAIDA as-rel(-pfx2as) file (plain, .gz or .bz2)")
	cmd.StringVar(&g_args.as_rel_sqlite, "as-rel-sqlite", "", "sqlite3 db file holding the relationship table")
	cmd.StringVar(&g_args.as_rel_table, "as-rel-table", "relationships", "relationship table name in -as-rel-sqlite")
}

func registerAnnouncementFlags(cmd *flag.FlagSet) {
	cmd.StringVar(&g_args.ann_file, "mrt", "", "announcement feed file (plain, .gz or .bz2)")
	cmd.StringVar(&g_args.ann_sqlite, "mrt-sqlite", "", "sqlite3 db file holding the announcement table")
	cmd.StringVar(&g_args.ann_table, "mrt-table", "announcements", "announcement table name in -mrt-sqlite")
}

func registerSinkFlags(cmd *flag.FlagSet) {
	cmd.StringVar(&g_args.out_best, "out-best", "", "CSV file to write winning routes to")
	cmd.StringVar(&g_args.out_depref, "out-depref", "", "CSV file to write deprefered routes to")
	cmd.StringVar(&g_args.out_supernodes, "out-supernodes", "", "CSV file to write supernode membership to")
	cmd.StringVar(&g_args.out_sqlite, "out-sqlite", "", "sqlite3 db file to write results to instead of CSV")
	cmd.StringVar(&g_args.stage_dir, "stage-dir", "", "staging directory for sqlite bulk load (default /dev/shm/bgp)")
	cmd.BoolVar(&g_args.full_path, "full-path", false, "store the full as_path alongside each result row")
}

func registerRunFlags(cmd *flag.FlagSet) {
	cmd.IntVar(&g_args.workers, "workers", 1, "number of prefix blocks to process concurrently")
	cmd.BoolVar(&g_args.random_tiebreak, "random-tiebreak", false, "break remaining gao-rexford ties with a per-AS pseudo-random bit instead of tiny_hash of the neighbor ASN")
	cmd.BoolVar(&g_args.track_inverse, "track-inverse", false, "build the (prefix,origin)->pending-AS inverse index")
}

func handle_args_condense(args []string) {
	cmd := flag.NewFlagSet(args[0], flag.ExitOnError)
	registerFeedFlags(cmd)
	cmd.Parse(args[1:])
	requireRelationFeed()
}

func handle_args_seed(args []string) {
	cmd := flag.NewFlagSet(args[0], flag.ExitOnError)
	registerFeedFlags(cmd)
	registerAnnouncementFlags(cmd)
	registerRunFlags(cmd)
	cmd.Parse(args[1:])
	requireRelationFeed()
	requireAnnouncementFeed()
}

func handle_args_propagate(args []string) {
	cmd := flag.NewFlagSet(args[0], flag.ExitOnError)
	registerFeedFlags(cmd)
	registerAnnouncementFlags(cmd)
	registerSinkFlags(cmd)
	registerRunFlags(cmd)
	cmd.Parse(args[1:])
	requireRelationFeed()
	requireAnnouncementFeed()
}

func handle_args_rovpp(args []string) {
	cmd := flag.NewFlagSet(args[0], flag.ExitOnError)
	registerFeedFlags(cmd)
	registerAnnouncementFlags(cmd)
	registerSinkFlags(cmd)
	registerRunFlags(cmd)
	cmd.StringVar(&g_args.policy, "policy", "rov", "bgp|rov|rovpp0|rovpp|rovppb|rovppbis|rovppbp")
	cmd.StringVar(&g_args.attackers_file, "attackers", "", "file of attacker ASNs, one per line")
	cmd.StringVar(&g_args.exempt_file, "exempt", "", "file of ASNs that keep plain bgp policy, one per line")
	cmd.Parse(args[1:])
	requireRelationFeed()
	requireAnnouncementFeed()
}

func handle_args_report(args []string) {
	cmd := flag.NewFlagSet(args[0], flag.ExitOnError)
	registerFeedFlags(cmd)
	cmd.Parse(args[1:])
	requireRelationFeed()
}

func requireRelationFeed() {
	if g_args.as_rel_file == "" && g_args.as_rel_sqlite == "" {
		log.Println("one of -as-rel or -as-rel-sqlite is required")
		os.Exit(-1)
	}
}

func requireAnnouncementFeed() {
	if g_args.ann_file == "" && g_args.ann_sqlite == "" {
		log.Println("one of -mrt or -mrt-sqlite is required")
		os.Exit(-1)
	}
}
