package checksum

import (
	"math/rand"
	"strings"
	"testing"
)

func TestSumDeterministic(t *testing.T) {
	input := []byte(`{"decision_id":"d1","sequence":1}`)
	first := Sum(input)
	for i := 0; i < 10; i++ {
		if got := Sum(input); got != first {
			t.Fatalf("digest not deterministic: %s != %s", got, first)
		}
	}
}

func TestSumFormat(t *testing.T) {
	digest := Sum([]byte("hello"))
	if len(digest) != 64 {
		t.Fatalf("digest length = %d, want 64", len(digest))
	}
	if strings.ToLower(digest) != digest {
		t.Fatalf("digest not lowercase: %s", digest)
	}
	for _, r := range digest {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("non-hex rune %q in digest %s", r, digest)
		}
	}
}

func TestSumEmptyAndDistinct(t *testing.T) {
	if Sum(nil) != Sum([]byte{}) {
		t.Fatalf("nil and empty inputs should agree")
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Fatalf("distinct inputs collided")
	}
	// Length must matter even when bytes are a prefix.
	if Sum([]byte("ab")) == Sum([]byte("ab\x00")) {
		t.Fatalf("trailing zero byte collided")
	}
}

func TestSumAvalanche(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		input := make([]byte, 16+rng.Intn(128))
		rng.Read(input)
		base := Sum(input)

		mutated := make([]byte, len(input))
		copy(mutated, input)
		bit := rng.Intn(len(mutated) * 8)
		mutated[bit/8] ^= 1 << (bit % 8)

		perturbed := Sum(mutated)
		if perturbed == base {
			t.Fatalf("single-bit flip at %d did not change digest", bit)
		}
		if diff := hexDiff(base, perturbed); diff < 8 {
			t.Fatalf("weak avalanche: only %d hex chars changed", diff)
		}
	}
}

func hexDiff(a, b string) int {
	n := 0
	for i := range a {
		if a[i] != b[i] {
			n++
		}
	}
	return n
}
