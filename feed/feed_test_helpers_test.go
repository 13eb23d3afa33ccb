package feed

import (
	"testing"

	bgpprefix "github.com/Emeline-1/bgp_extrapolator/prefix"
)

func mustPrefixForTest(t *testing.T, cidr string) bgpprefix.Prefix {
	t.Helper()
	p, err := bgpprefix.New(cidr)
	if err != nil {
		t.Fatalf("mustPrefixForTest(%q): %v", cidr, err)
	}
	return p
}
