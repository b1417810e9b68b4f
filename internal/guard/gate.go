package guard

// DefaultSimilarityThreshold is the percentage at or above which a frame is
// treated as a duplicate of the previously accepted one.
const DefaultSimilarityThreshold = 90.0

// Similarity returns the percentage of positions at which a and b hold the
// same byte. Blocks of different length are 0% similar; two empty blocks are
// 100% similar.
func Similarity(a, b []byte) float64 {
	if len(a) != len(b) {
		return 0
	}
	if len(a) == 0 {
		return 100
	}
	matching := 0
	for i := range a {
		if a[i] == b[i] {
			matching++
		}
	}
	return float64(matching) / float64(len(a)) * 100
}

// Gate decides whether a frame's bit block duplicates the last accepted one.
type Gate struct {
	threshold float64
	previous  []byte
	primed    bool
}

// NewGate returns a gate skipping frames whose similarity to the previous
// accepted frame is >= threshold. A threshold above 100 disables skipping.
func NewGate(threshold float64) *Gate {
	return &Gate{threshold: threshold}
}

// Check compares block with the previously accepted block. When the frame is
// not skipped, block becomes the new reference; skipped frames leave the
// reference untouched. The first block is always accepted.
func (g *Gate) Check(block []byte) (skip bool, similarity float64) {
	if g.primed {
		similarity = Similarity(block, g.previous)
		if similarity >= g.threshold {
			return true, similarity
		}
	}
	g.previous = append(g.previous[:0], block...)
	g.primed = true
	return false, similarity
}

// Reset forgets the reference block.
func (g *Gate) Reset() {
	g.previous = g.previous[:0]
	g.primed = false
}
