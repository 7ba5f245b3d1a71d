package service

import (
	"math/rand"
	"sync"

	"leadrouter_backend/internal/distribution/repository"
)

// Picker draws an operator from a candidate set with probability
// proportional to assignment weight: P(i) = weight_i / sum(weights).
// A cumulative-weight table and one uniform draw is all that is needed;
// equal weights resolve by the draw alone, never by candidate order.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker creates a picker seeded for reproducible draws in tests.
func NewPicker(seed int64) *Picker {
	return &Picker{rng: rand.New(rand.NewSource(seed))}
}

// Pick returns the selected candidate and true, or false when the candidate
// set is empty or carries no positive weight.
func (p *Picker) Pick(candidates []repository.Candidate) (repository.Candidate, bool) {
	total := 0
	for _, cand := range candidates {
		if cand.Weight > 0 {
			total += cand.Weight
		}
	}
	if total == 0 {
		return repository.Candidate{}, false
	}

	p.mu.Lock()
	draw := p.rng.Intn(total)
	p.mu.Unlock()

	cumulative := 0
	for _, cand := range candidates {
		if cand.Weight <= 0 {
			continue
		}
		cumulative += cand.Weight
		if draw < cumulative {
			return cand, true
		}
	}

	// Unreachable with a consistent table; guard anyway.
	return candidates[len(candidates)-1], true
}
