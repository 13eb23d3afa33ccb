package main

import (
	"log"
	"os"
)

// Global structure holding every flag value the five verbs read from.
// Mirrors the teacher's single g_args pattern (main.go/args.go): one
// struct, populated per-verb by its own FlagSet, read directly by the
// verb's run function instead of threaded through as parameters.
type Args struct {
	/* relationship feed */
	as_rel_file    string
	as_rel_sqlite  string
	as_rel_table   string
	/* announcement feed */
	ann_file   string
	ann_sqlite string
	ann_table  string
	/* result sink */
	out_best       string
	out_depref     string
	out_supernodes string
	out_sqlite     string
	stage_dir      string
	full_path      bool
	/* run parameters */
	workers         int
	random_tiebreak bool
	track_inverse   bool
	/* rovpp-only */
	policy         string
	attackers_file string
	exempt_file    string
}

var ( // Global Parameters
	g_args Args
)

func usage() {
	println("\nUsage of bgp_extrapolator:\n")
	println("bgp_extrapolator has several modes:")
	println("  - condense:  ingest a relationship feed and report condensation diagnostics.")
	println("  - seed:      condense, then seed from an announcement feed and report seeding diagnostics.")
	println("  - propagate: run the full base-variant pipeline (condense, seed, sweep, emit).")
	println("  - rovpp:     run the full ROV++-variant pipeline under a chosen policy.")
	println("  - report:    print topology diagnostics (islands, supernodes) for a relationship feed.\n")
	println("Type")
	println("  ./bgp_extrapolator [mode] -h")
	println("for further information on each mode.\n")
}

func main() {
	log.SetFlags(0)
	if len(os.Args) == 1 {
		usage()
		return
	}
	switch command := os.Args[1]; command {
	case "condense":
		handle_args_condense(os.Args[1:])
		runCondense()
	case "seed":
		handle_args_seed(os.Args[1:])
		runSeed()
	case "propagate":
		handle_args_propagate(os.Args[1:])
		runPropagate()
	case "rovpp":
		handle_args_rovpp(os.Args[1:])
		runROVPP()
	case "report":
		handle_args_report(os.Args[1:])
		runReport()
	case "-h":
		usage()
	case "--help":
		usage()
	default:
		log.Println("Unknown command:", command)
		log.Println("Type './bgp_extrapolator -h' for help:")
	}
}
