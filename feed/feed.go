/* ============================================================= *\
   feed.go

   External interfaces for relationship, announcement, and result
   data (spec.md §6). Concrete implementations live in csv.go and
   sqlite.go; callers (propagation, blocks, the root CLI) depend only
   on these interfaces, the way the original SQLQuerier is the single
   seam between the extrapolation engine and persistent storage.
\* ============================================================= */

package feed

import (
	"github.com/Emeline-1/bgp_extrapolator/announcement"
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

// Relation is one row of the relationship feed: either a peer pair or
// a customer-provider pair, distinguished by Rel.
type Relation struct {
	ASN1, ASN2 uint32
	// Rel is announcement.Peer for a peer row, announcement.Provider
	// when ASN2 is ASN1's provider (customer -> provider).
	Rel announcement.Relationship
}

// RelationFeed yields every relationship row once.
type RelationFeed interface {
	Relations() ([]Relation, error)
}

// AnnouncementRow is one row of the announcement feed (spec.md §6):
// an observed path plus the block it belongs to.
type AnnouncementRow struct {
	Prefix     bgpprefix.Prefix
	ASPath     []uint32 // observed right-to-left, origin last
	Origin     uint32
	MonitorASN uint32
	Timestamp  int64
	PrefixID   uint32
	BlockID    uint32
}

// AnnouncementFeed yields announcement rows one block at a time, for
// memory-bounded iteration (spec.md §5/§6).
type AnnouncementFeed interface {
	// BlockIDs returns every distinct block_id present in the feed, in
	// the order blocks should be processed.
	BlockIDs() ([]uint32, error)
	// Block returns every row belonging to blockID.
	Block(blockID uint32) ([]AnnouncementRow, error)
}

// ResultRow is one row of the best/deprefered results table
// (spec.md §6).
type ResultRow struct {
	ASN             uint32
	Prefix          bgpprefix.Prefix
	Origin          uint32
	ReceivedFromASN uint32
	Timestamp       int64
	PrefixID        uint32
	// ASPath is written out by a sink only when it was constructed
	// with full-path recording enabled (spec.md §9 supplement).
	ASPath []uint32
}

// SupernodeRow is one row of the supernode table (spec.md §6),
// emitted once per condensation.
type SupernodeRow struct {
	MemberASN    uint32
	SupernodeASN uint32
}

// ResultSink receives propagation output. WriteBest and
// WriteDeprefered may be called many times (once per block); Close
// finalizes any buffered writes (e.g. a staged bulk load).
type ResultSink interface {
	WriteBest(rows []ResultRow) error
	WriteDeprefered(rows []ResultRow) error
	WriteSupernodes(rows []SupernodeRow) error
	Close() error
}
