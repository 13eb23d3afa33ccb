/* ============================================================= *\
   announcement.go

   The central value type: a candidate route for a prefix, as it
   flows between RIBs. Grounded on the original Announcement.cpp
   field set, generalized with the ROV++ fields (as_path, withdraw,
   alt) the ROVppAnnouncement subclass adds there.
\* ============================================================= */

package announcement

import (
	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

// Reserved sentinel ASNs (spec.md §6). Neither is a routable ASN.
const (
	// UnusedASNFlagForBlackholes marks a synthetic blackhole route's
	// origin and received-from fields.
	UnusedASNFlagForBlackholes uint32 = 64514
	// OverriddenLocalOriginASN marks a route whose received-from was
	// neutralised because it covers a prefix this AS itself originates.
	OverriddenLocalOriginASN uint32 = 64513
)

// AltFlag annotates a ROV++ announcement with policy-controlled
// meaning: absent, "attacker seen on this route", or the ASN of the
// alternate neighbor a preventive announcement was cloned from.
type AltFlag int64

const (
	NoAlt           AltFlag = -1
	AttackerOnRoute AltFlag = -2
)

// NeighborAlt wraps a neighbor ASN as an AltFlag value.
func NeighborAlt(asn uint32) AltFlag {
	return AltFlag(asn)
}

// IsNeighbor reports whether a is a neighbor-ASN annotation (as opposed
// to NoAlt or AttackerOnRoute).
func (a AltFlag) IsNeighbor() bool {
	return a >= 0
}

// Announcement is the candidate route a neighbor sent, or an AS
// originated, for a single prefix.
type Announcement struct {
	Origin          uint32
	Prefix          bgpprefix.Prefix
	ReceivedFromASN uint32
	Priority        uint64
	// ASPath is populated during MRT seeding and consulted by the
	// ROV++ variant for loop detection; the base variant only needs
	// ReceivedFromASN + Priority once seeding has happened (spec.md §3).
	ASPath     []uint32
	Tstamp     int64
	FromMonitor bool

	// ROV++-only fields. Zero value (false / NoAlt) for the base variant.
	Withdraw bool
	Alt      AltFlag
}

// SamePrefixOrigin reports whether two announcements carry the same
// (prefix, origin) pair — the key the inverse-results index uses.
func (a Announcement) SamePrefixOrigin(b Announcement) bool {
	return a.Prefix.Equal(b.Prefix) && a.Origin == b.Origin
}

// Equal is value equality over the fields that identify a route (used
// by ROV++'s withdrawal matching, which must find the real
// announcement a withdrawal cancels — so Withdraw itself is
// deliberately excluded: a withdrawal and the real route it cancels
// are Equal despite differing in that one field).
func (a Announcement) Equal(b Announcement) bool {
	if !a.Prefix.Equal(b.Prefix) ||
		a.Origin != b.Origin ||
		a.ReceivedFromASN != b.ReceivedFromASN ||
		a.Priority != b.Priority {
		return false
	}
	return true
}

// IsBlackhole reports whether this announcement is a synthetic
// blackhole route (spec.md §4.4).
func (a Announcement) IsBlackhole() bool {
	return a.Origin == UnusedASNFlagForBlackholes && a.ReceivedFromASN == UnusedASNFlagForBlackholes
}

// WithdrawalOf returns a copy of a marked as a withdrawal, as
// ROVppAS::withdraw does in the original implementation.
func (a Announcement) WithdrawalOf() Announcement {
	a.Withdraw = true
	return a
}
