package anomaly

import (
	"math/rand/v2"
	"sync"
)

// Sampler thins high-volume kinds before they reach a broker.
type Sampler struct {
	mu          sync.RWMutex
	defaultRate float64
	rateByKind  map[Kind]float64
}

// NewSampler keeps each event with probability defaultRate, clamped to [0,1].
func NewSampler(defaultRate float64) *Sampler {
	return &Sampler{
		defaultRate: clampRate(defaultRate),
		rateByKind:  make(map[Kind]float64),
	}
}

// NewSamplerWithRates is NewSampler plus per-kind overrides.
func NewSamplerWithRates(defaultRate float64, rates map[string]float64) *Sampler {
	s := NewSampler(defaultRate)
	for kind, rate := range rates {
		s.SetRate(Kind(kind), rate)
	}
	return s
}

// SetRate overrides the rate for one kind.
func (s *Sampler) SetRate(kind Kind, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateByKind[kind] = clampRate(rate)
}

// Keep reports whether an event of kind should be kept.
func (s *Sampler) Keep(kind Kind) bool {
	rate := s.rateFor(kind)
	switch rate {
	case 0:
		return false
	case 1:
		return true
	}
	return rand.Float64() < rate //nolint:gosec // sampling doesn't need crypto rand
}

func (s *Sampler) rateFor(kind Kind) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rate, ok := s.rateByKind[kind]; ok {
		return rate
	}
	return s.defaultRate
}

func clampRate(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
