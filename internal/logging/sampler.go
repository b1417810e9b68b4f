package logging

// FrameSampler throttles per-frame progress logging to one line per step
// percent of a known total, or one line per Every frames when the total is
// unknown. The final frame of a known total always logs.
type FrameSampler struct {
	step  float64
	every int
	next  float64
}

// NewFrameSampler returns a sampler logging every step percent. Non-positive
// step falls back to 10.
func NewFrameSampler(step float64) *FrameSampler {
	if step <= 0 {
		step = 10
	}
	return &FrameSampler{step: step, every: 250}
}

// Due reports whether frame index (zero based) of total should be logged.
// A nil sampler logs everything.
func (s *FrameSampler) Due(index, total int) bool {
	if s == nil {
		return true
	}
	if index < 0 {
		return false
	}
	if total <= 0 {
		return (index+1)%s.every == 0
	}
	done := index + 1
	if done >= total {
		if s.next > 100 {
			return false
		}
		s.next = 101
		return true
	}
	pct := float64(done) / float64(total) * 100
	if pct < s.next {
		return false
	}
	for s.next <= pct {
		s.next += s.step
	}
	return true
}
