package announcement

import "testing"

// TinyHash must be bit-identical across implementations (spec.md §8);
// these vectors were computed by hand-running the algorithm so a port
// in another language can be checked against the same numbers.
func TestTinyHashVectors(t *testing.T) {
	cases := []struct {
		asn  uint32
		want byte
	}{
		{0, 0},
		// The three zero upper bytes that follow reset the value to 0.
		{1, 0},
	}
	for _, c := range cases {
		if got := TinyHash(c.asn); got != c.want {
			t.Errorf("TinyHash(%d) = %d, want %d", c.asn, got, c.want)
		}
	}
}

func TestTinyHashDeterministic(t *testing.T) {
	for _, asn := range []uint32{111, 222, 65000, 4294967295} {
		a := TinyHash(asn)
		b := TinyHash(asn)
		if a != b {
			t.Fatalf("TinyHash(%d) not deterministic: %d vs %d", asn, a, b)
		}
	}
}
