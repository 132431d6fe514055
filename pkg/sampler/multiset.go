package sampler

// Multiset tracks per-key occurrence counts with an O(1) aggregate total.
//
// It backs two pieces of generator bookkeeping: how many modules of each
// category have been placed, and how many required (asset, category) pairs
// remain to be placed. Keys are retained after their count drops to zero so
// uniform key selection can observe exhausted entries.
//
// The zero value is not usable; use NewMultiset.
type Multiset[K comparable] struct {
	counts map[K]int
	keys   []K
	total  int
}

// NewMultiset creates an empty multiset.
func NewMultiset[K comparable]() *Multiset[K] {
	return &Multiset[K]{counts: make(map[K]int)}
}

// Add increments the count for key by one.
func (m *Multiset[K]) Add(key K) {
	m.AddN(key, 1)
}

// AddN increments the count for key by n. Non-positive n is a no-op.
func (m *Multiset[K]) AddN(key K, n int) {
	if n <= 0 {
		return
	}
	if _, seen := m.counts[key]; !seen {
		m.keys = append(m.keys, key)
	}
	m.counts[key] += n
	m.total += n
}

// Remove decrements the count for key by one. The count never drops below
// zero; removing an absent or exhausted key is a no-op. The key itself stays
// registered so Keys continues to report it.
func (m *Multiset[K]) Remove(key K) {
	if m.counts[key] <= 0 {
		return
	}
	m.counts[key]--
	m.total--
}

// Count returns the current count for key (zero for unknown keys).
func (m *Multiset[K]) Count(key K) int {
	return m.counts[key]
}

// Total returns the sum of all counts.
func (m *Multiset[K]) Total() int {
	return m.total
}

// Keys returns every key ever added, including keys whose count has dropped
// to zero, in insertion order. The returned slice is shared; callers must not
// modify it.
func (m *Multiset[K]) Keys() []K {
	return m.keys
}

// Len returns the number of distinct keys ever added.
func (m *Multiset[K]) Len() int {
	return len(m.keys)
}
