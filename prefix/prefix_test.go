package prefix

import "testing"

func TestContainsSelf(t *testing.T) {
	p := MustNew("10.0.0.0/24")
	if !p.Contains(p) {
		t.Fatal("a prefix must be contained in itself")
	}
}

func TestContainsNarrower(t *testing.T) {
	broad := MustNew("10.0.0.0/16")
	narrow := MustNew("10.0.1.0/24")
	if !broad.Contains(narrow) {
		t.Fatal("10.0.0.0/16 should contain 10.0.1.0/24")
	}
	if narrow.Contains(broad) {
		t.Fatal("10.0.1.0/24 should not contain 10.0.0.0/16")
	}
}

func TestContainsDisjoint(t *testing.T) {
	a := MustNew("10.0.0.0/24")
	b := MustNew("11.0.0.0/24")
	if a.Contains(b) || b.Contains(a) {
		t.Fatal("disjoint prefixes must not contain each other")
	}
}

func TestEqual(t *testing.T) {
	a := MustNew("192.168.0.0/24")
	b := MustNew("192.168.0.0/24")
	if !a.Equal(b) {
		t.Fatal("identical CIDRs must compare equal")
	}
}

func TestBinaryStringRoundTrip(t *testing.T) {
	p := MustNew("10.0.0.0/24")
	bin := p.BinaryString()
	if len(bin) != 24 {
		t.Fatalf("expected 24 bits, got %d", len(bin))
	}
	back, err := FromBinaryString(bin, true)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(p) {
		t.Fatalf("round trip mismatch: got %v want %v", back, p)
	}
}

func TestWithID(t *testing.T) {
	p := MustNew("1.2.3.0/24").WithID(42)
	id, ok := p.ID()
	if !ok || id != 42 {
		t.Fatalf("expected id 42, got %d ok=%v", id, ok)
	}
}
