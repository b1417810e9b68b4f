package guard

import "slices"

// DecodeFunc turns one payload unit into PCM samples.
type DecodeFunc func(payload []byte) ([]int16, error)

// Hold remembers the last successfully decoded unit so it can be repeated
// when a later frame fails to decode.
type Hold struct {
	lastGood []int16
	has      bool
}

// NewHold returns an empty hold.
func NewHold() *Hold {
	return &Hold{}
}

// Decode runs decode on payload. On success the result is remembered and
// returned. On failure the last good unit is returned with held set, or nil
// when nothing has decoded yet; err carries the decode failure so the caller
// can report it, and is never a reason to stop the run.
func (h *Hold) Decode(payload []byte, decode DecodeFunc) (out []int16, held bool, err error) {
	samples, err := decode(payload)
	if err != nil {
		if !h.has {
			return nil, false, err
		}
		return slices.Clone(h.lastGood), true, err
	}
	h.lastGood = append(h.lastGood[:0], samples...)
	h.has = true
	return samples, false, nil
}

// Reset forgets the remembered unit.
func (h *Hold) Reset() {
	h.lastGood = h.lastGood[:0]
	h.has = false
}
