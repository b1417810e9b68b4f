package bitgrid_test

import (
	"bytes"
	"math/rand"
	"testing"

	"vidbits/internal/bitgrid"
)

func TestBytesToBitsIsMSBFirst(t *testing.T) {
	bits := bitgrid.BytesToBits([]byte{0xFF, 0x00})
	if len(bits) != 16 {
		t.Fatalf("expected 16 bits, got %d", len(bits))
	}
	for i := 0; i < 8; i++ {
		if !bits[i] {
			t.Fatalf("bit %d: expected true", i)
		}
	}
	for i := 8; i < 16; i++ {
		if bits[i] {
			t.Fatalf("bit %d: expected false", i)
		}
	}

	bits = bitgrid.BytesToBits([]byte{0x81})
	if !bits[0] || !bits[7] || bits[1] {
		t.Fatalf("unexpected bit order for 0x81: %v", bits)
	}
}

func TestBitsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for size := 0; size < 64; size++ {
		buf := make([]byte, size)
		rng.Read(buf)
		got := bitgrid.BitsToBytes(bitgrid.BytesToBits(buf))
		if !bytes.Equal(got, buf) {
			t.Fatalf("size %d: round trip mismatch: got %x want %x", size, got, buf)
		}
	}
}

func TestBitsToBytesPadsPartialByte(t *testing.T) {
	got := bitgrid.BitsToBytes([]bool{true, false, true})
	if len(got) != 1 || got[0] != 0xA0 {
		t.Fatalf("expected [0xA0], got %x", got)
	}
}

func TestFitToCapacity(t *testing.T) {
	cases := []struct {
		name     string
		bits     []bool
		capacity int
	}{
		{name: "pad", bits: []bool{true}, capacity: 9},
		{name: "truncate", bits: []bool{true, true, true, true}, capacity: 2},
		{name: "exact", bits: []bool{false, true}, capacity: 2},
		{name: "empty input", bits: nil, capacity: 5},
		{name: "zero capacity", bits: []bool{true}, capacity: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := bitgrid.FitToCapacity(tc.bits, tc.capacity)
			if len(got) != tc.capacity {
				t.Fatalf("expected length %d, got %d", tc.capacity, len(got))
			}
			for i := range got {
				var expected bool
				if i < len(tc.bits) {
					expected = tc.bits[i]
				}
				if got[i] != expected {
					t.Fatalf("index %d: expected %v", i, expected)
				}
			}
		})
	}
}

func TestNewExactCapacityReconstructs(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	grid, err := bitgrid.New(payload, 4, 8)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if grid.Capacity() != len(payload)*8 {
		t.Fatalf("unexpected capacity %d", grid.Capacity())
	}
	if !bytes.Equal(grid.Bytes(), payload) {
		t.Fatalf("expected %x, got %x", payload, grid.Bytes())
	}
}

func TestNewPadsShortPayload(t *testing.T) {
	grid, err := bitgrid.New([]byte{0xFF}, 4, 4)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if !bytes.Equal(grid.Bytes(), []byte{0xFF, 0x00}) {
		t.Fatalf("unexpected bytes %x", grid.Bytes())
	}
	if !grid.At(3, 1) || grid.At(0, 2) {
		t.Fatalf("unexpected cell values: %v", grid.Bits)
	}
}

func TestNewRejectsInvalidDimensions(t *testing.T) {
	if _, err := bitgrid.New([]byte{1}, 0, 4); err == nil {
		t.Fatal("expected error for zero width")
	}
}
