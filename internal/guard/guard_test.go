package guard_test

import (
	"errors"
	"slices"
	"testing"

	"vidbits/internal/guard"
)

func TestSimilarityIdentities(t *testing.T) {
	a := []byte{1, 2, 3, 4}
	if got := guard.Similarity(a, a); got != 100 {
		t.Fatalf("similarity(a,a) = %v, want 100", got)
	}
	if got := guard.Similarity(a, []byte{1, 2, 3}); got != 0 {
		t.Fatalf("length mismatch similarity = %v, want 0", got)
	}
	if got := guard.Similarity(nil, []byte{}); got != 100 {
		t.Fatalf("empty similarity = %v, want 100", got)
	}
	if got := guard.Similarity(a, []byte{1, 2, 0, 0}); got != 50 {
		t.Fatalf("half similarity = %v, want 50", got)
	}
}

func TestGateSkipsIdenticalSecondFrame(t *testing.T) {
	gate := guard.NewGate(guard.DefaultSimilarityThreshold)
	block := []byte{0xAA, 0xBB, 0xCC}

	if skip, _ := gate.Check(block); skip {
		t.Fatal("first frame must never be skipped")
	}
	skip, similarity := gate.Check(append([]byte(nil), block...))
	if !skip {
		t.Fatal("expected identical second frame to be skipped")
	}
	if similarity != 100 {
		t.Fatalf("expected 100%% similarity, got %v", similarity)
	}
}

func TestGateComparesAgainstLastAcceptedFrame(t *testing.T) {
	gate := guard.NewGate(90)
	first := make([]byte, 10)
	nearDup := make([]byte, 10)
	nearDup[0] = 1 // 90% similar to first

	if skip, _ := gate.Check(first); skip {
		t.Fatal("first frame skipped")
	}
	if skip, _ := gate.Check(nearDup); !skip {
		t.Fatal("expected 90% similar frame to be skipped")
	}
	// Reference must still be `first`, so a block 80% similar to first is kept.
	different := make([]byte, 10)
	different[0], different[1] = 1, 1
	if skip, sim := gate.Check(different); skip {
		t.Fatalf("expected frame at %v%% to be accepted", sim)
	}
	// The reference advanced to `different`, so repeating it is skipped.
	if skip, sim := gate.Check(different); !skip || sim != 100 {
		t.Fatalf("expected reference to advance to accepted frame, got skip=%v sim=%v", skip, sim)
	}
}

func TestGateLengthMismatchIsZeroSimilarity(t *testing.T) {
	gate := guard.NewGate(0)
	gate.Check([]byte{1, 2})
	if skip, sim := gate.Check([]byte{1, 2, 3}); !skip || sim != 0 {
		// Threshold 0 means even 0% similarity skips.
		t.Fatalf("threshold 0: expected skip at 0%%, got skip=%v sim=%v", skip, sim)
	}

	strict := guard.NewGate(50)
	strict.Check([]byte{1, 2})
	if skip, _ := strict.Check([]byte{1, 2, 3}); skip {
		t.Fatal("expected length mismatch to be treated as 0% similar")
	}
}

func TestGateReset(t *testing.T) {
	gate := guard.NewGate(90)
	gate.Check([]byte{1})
	gate.Reset()
	if skip, _ := gate.Check([]byte{1}); skip {
		t.Fatal("expected first frame after reset to be accepted")
	}
}

func TestHoldRepeatsLastGood(t *testing.T) {
	hold := guard.NewHold()
	errBad := errors.New("corrupt")
	decode := func(payload []byte) ([]int16, error) {
		if payload[0] == 0 {
			return nil, errBad
		}
		return []int16{int16(payload[0]), int16(payload[0])}, nil
	}

	out, held, err := hold.Decode([]byte{0}, decode)
	if !errors.Is(err, errBad) || held || out != nil {
		t.Fatalf("first failure: expected nothing held, got out=%v held=%v err=%v", out, held, err)
	}

	out, held, err = hold.Decode([]byte{4}, decode)
	if err != nil || held || !slices.Equal(out, []int16{4, 4}) {
		t.Fatalf("frame 4: unexpected out=%v held=%v err=%v", out, held, err)
	}

	out, held, err = hold.Decode([]byte{0}, decode)
	if !errors.Is(err, errBad) || !held || !slices.Equal(out, []int16{4, 4}) {
		t.Fatalf("frame 5: expected frame 4 output held, got out=%v held=%v err=%v", out, held, err)
	}

	out, held, err = hold.Decode([]byte{6}, decode)
	if err != nil || held || !slices.Equal(out, []int16{6, 6}) {
		t.Fatalf("frame 6: unexpected out=%v held=%v err=%v", out, held, err)
	}
}

func TestHoldCopiesSamples(t *testing.T) {
	hold := guard.NewHold()
	shared := []int16{1, 2, 3}
	if _, _, err := hold.Decode(nil, func([]byte) ([]int16, error) { return shared, nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	shared[0] = 99
	last, held, _ := hold.Decode(nil, func([]byte) ([]int16, error) { return nil, errors.New("corrupt") })
	if !held || !slices.Equal(last, []int16{1, 2, 3}) {
		t.Fatalf("expected hold to keep its own copy, got %v", last)
	}
}

func TestHeldOutputSurvivesLaterDecode(t *testing.T) {
	hold := guard.NewHold()
	errBad := errors.New("corrupt")
	ok := func(samples ...int16) guard.DecodeFunc {
		return func([]byte) ([]int16, error) { return samples, nil }
	}
	fail := func([]byte) ([]int16, error) { return nil, errBad }

	if _, _, err := hold.Decode(nil, ok(1, 2, 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	held, isHeld, err := hold.Decode(nil, fail)
	if !isHeld || !errors.Is(err, errBad) {
		t.Fatalf("expected held output, got held=%v err=%v", isHeld, err)
	}
	if _, _, err := hold.Decode(nil, ok(7, 8, 9)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(held, []int16{1, 2, 3}) {
		t.Fatalf("held output changed after a later decode: %v", held)
	}

	// Mutating a held chunk must not leak into the next hold.
	held[0] = 42
	again, _, _ := hold.Decode(nil, fail)
	if !slices.Equal(again, []int16{7, 8, 9}) {
		t.Fatalf("expected latest good chunk, got %v", again)
	}
}
