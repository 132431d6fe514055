// Package sampler provides weighted random sampling and occurrence counting
// primitives used by the dungeon generator.
//
// The central type is [Weighted], an alias-method sampler (Vose's variant)
// that draws items in O(1) after an O(n) table build. The package also
// provides [Multiset], a counter with an O(1) aggregate total used for
// category occurrence tracking.
//
// # Alias Method
//
// Construction normalizes each weight against the mean, then repeatedly pairs
// an overfull entry (scaled weight > 1) with an underfull one (<= 1),
// recording an alias index and a residual probability for the underfull slot.
// Sampling picks a uniform slot and a uniform [0,1) value: the slot's own item
// is returned when the value falls below the slot probability, the alias item
// otherwise.
//
// # Usage
//
//	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
//	s, err := sampler.NewWeighted([]string{"a", "b"}, []float64{1, 3}, rng)
//	if err != nil {
//	    return err
//	}
//	item := s.Sample() // "b" three times as often as "a"
package sampler

import (
	"math/rand/v2"

	"github.com/modulab/dungen/pkg/errors"
)

// Weighted is an O(1) weighted random sampler over a fixed item set.
//
// The table is immutable after construction. Sampling mutates only the
// injected random source, so a Weighted is not safe for concurrent use unless
// the caller serializes access to that source.
type Weighted[T any] struct {
	items []T
	prob  []float64
	alias []int
	rng   *rand.Rand
}

// NewWeighted builds an alias table over items with the given weights.
//
// It returns an INVALID_CONFIGURATION error when items is empty, when the two
// slices differ in length, when any weight is negative, or when all weights
// are zero. A nil rng is rejected for the same reason: the sampler has no
// meaningful fallback source.
func NewWeighted[T any](items []T, weights []float64, rng *rand.Rand) (*Weighted[T], error) {
	if len(items) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "sampler requires at least one item")
	}
	if len(items) != len(weights) {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"items and weights differ in length: %d vs %d", len(items), len(weights))
	}
	if rng == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "sampler requires a random source")
	}

	var sum float64
	for i, w := range weights {
		if w < 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig,
				"weight at index %d is negative: %v", i, w)
		}
		sum += w
	}
	if sum == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "all weights are zero")
	}

	n := len(items)
	s := &Weighted[T]{
		items: items,
		prob:  make([]float64, n),
		alias: make([]int, n),
		rng:   rng,
	}

	// Scale weights so the mean is 1, then split entries into worklists.
	mean := sum / float64(n)
	scaled := make([]float64, n)
	var small, large []int
	for i, w := range weights {
		scaled[i] = w / mean
		if scaled[i] > 1 {
			large = append(large, i)
		} else {
			small = append(small, i)
		}
	}

	// Pair each underfull slot with an overfull donor. The donor's surplus
	// shrinks by what the underfull slot lacked; it migrates lists when it
	// drops to 1 or below.
	for len(small) > 0 && len(large) > 0 {
		smallIdx := small[len(small)-1]
		small = small[:len(small)-1]
		largeIdx := large[len(large)-1]
		large = large[:len(large)-1]

		s.prob[smallIdx] = scaled[smallIdx]
		s.alias[smallIdx] = largeIdx

		scaled[largeIdx] -= 1 - scaled[smallIdx]
		if scaled[largeIdx] > 1 {
			large = append(large, largeIdx)
		} else {
			small = append(small, largeIdx)
		}
	}

	// Leftovers are exactly full up to rounding; they never alias.
	for _, i := range large {
		s.prob[i] = 1
		s.alias[i] = i
	}
	for _, i := range small {
		s.prob[i] = 1
		s.alias[i] = i
	}

	return s, nil
}

// Sample draws one item according to the construction weights.
func (s *Weighted[T]) Sample() T {
	i := s.rng.IntN(len(s.items))
	if s.rng.Float64() < s.prob[i] {
		return s.items[i]
	}
	return s.items[s.alias[i]]
}

// Len returns the number of items in the sampler.
func (s *Weighted[T]) Len() int {
	return len(s.items)
}
