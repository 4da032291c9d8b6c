package worldtest

import (
	"testing"
)

func TestDeterminism_SameInputsSameDigests(t *testing.T) {
	h1 := NewHarness(t, DefaultConfig())
	h2 := NewHarness(t, DefaultConfig())
	runScenario(h1, 200)
	runScenario(h2, 200)

	if len(h1.Digests) != len(h2.Digests) {
		t.Fatalf("digest count mismatch: %d vs %d", len(h1.Digests), len(h2.Digests))
	}
	for i := range h1.Digests {
		if h1.Digests[i] != h2.Digests[i] {
			t.Fatalf("digest mismatch at step %d: %s vs %s", i, h1.Digests[i], h2.Digests[i])
		}
	}
	if h1.W.StateDigest() != h1.Digests[len(h1.Digests)-1] {
		t.Fatalf("StateDigest does not match the last tick digest")
	}
}

func TestDeterminism_DigestCoversState(t *testing.T) {
	h1 := NewHarness(t, DefaultConfig())
	h2 := NewHarness(t, DefaultConfig())
	h1.Enter("alice")
	h2.Enter("bob")
	if h1.Digests[0] == h2.Digests[0] {
		t.Fatalf("different identities produced the same digest")
	}
}
