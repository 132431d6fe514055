package dungeon

import (
	"math/rand/v2"

	"github.com/modulab/dungen/pkg/errors"
	"github.com/modulab/dungen/pkg/sampler"
	"github.com/modulab/dungen/pkg/theme"
)

// requiredSampleAttempts bounds how often required-pool population retries a
// draw that was rejected by the spawn-once rule before giving up on the
// category.
const requiredSampleAttempts = 16

// RequiredKey identifies one required (asset, category) pair in the pool of
// placements a run still owes.
type RequiredKey struct {
	Asset    string
	Category string
}

// Tracker owns the sampling tables and combinatorial bookkeeping for one
// generation run: a weighted sampler over non-required categories, one
// weighted sampler per category over its assets, per-category placement
// counts, the multiset of still-owed required pairs, and the set of
// spawn-once assets that have already been drawn.
//
// The tracker decides *what* to place; the engine decides *where* and calls
// back into NotePlaced/NoteRemoved as placements commit and unwind.
type Tracker struct {
	theme *theme.Theme
	rng   *rand.Rand

	categories *sampler.Weighted[*theme.Category] // non-required only; nil when all are required
	assets     map[string]*sampler.Weighted[*theme.Asset]

	placed   *sampler.Multiset[string] // committed instances per category
	required *sampler.Multiset[RequiredKey]
	once     map[string]bool // spawn-once assets already drawn this run
}

// NewTracker builds sampling tables for th. The theme must already have
// passed validation; sampler construction errors (for example a category
// whose asset weights are all zero) surface as INVALID_CONFIGURATION.
func NewTracker(th *theme.Theme, rng *rand.Rand) (*Tracker, error) {
	t := &Tracker{
		theme:    th,
		rng:      rng,
		assets:   make(map[string]*sampler.Weighted[*theme.Asset]),
		placed:   sampler.NewMultiset[string](),
		required: sampler.NewMultiset[RequiredKey](),
		once:     make(map[string]bool),
	}

	var free []*theme.Category
	var freeWeights []float64
	for i := range th.Categories {
		c := &th.Categories[i]

		items := make([]*theme.Asset, len(c.Assets))
		weights := make([]float64, len(c.Assets))
		for j := range c.Assets {
			items[j] = &c.Assets[j]
			weights[j] = c.Assets[j].Weight
		}
		s, err := sampler.NewWeighted(items, weights, rng)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err,
				"build asset sampler for category %q", c.ID)
		}
		t.assets[c.ID] = s

		// Required categories are force-placed from the required pool and
		// ignore their weight.
		if !c.Required {
			free = append(free, c)
			freeWeights = append(freeWeights, c.Weight)
		}
	}

	if len(free) > 0 {
		s, err := sampler.NewWeighted(free, freeWeights, rng)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "build category sampler")
		}
		t.categories = s
	}

	return t, nil
}

// PopulateRequired fills the required pool for a run with openSlots module
// slots available. Limited required categories draw a random target within
// [min, max] clipped to the remaining slots; unlimited required categories
// claim exactly one.
//
// Returns INSUFFICIENT_REQUIRED_SPACE when a still-unprocessed required
// category finds no room, or when clipping would push a category below its
// configured minimum.
func (t *Tracker) PopulateRequired(openSlots int) error {
	for i := range t.theme.Categories {
		c := &t.theme.Categories[i]
		if !c.Required {
			continue
		}
		if openSlots < 1 {
			return errors.New(errors.ErrCodeInsufficientRequiredSpace,
				"no slots left for required category %q", c.ID)
		}

		target := 1
		if c.Limited() {
			upper := min(c.Limits.Max, openSlots)
			if upper < c.Limits.Min {
				return errors.New(errors.ErrCodeInsufficientRequiredSpace,
					"required category %q needs at least %d modules, only %d slot(s) remain",
					c.ID, c.Limits.Min, openSlots)
			}
			target = t.randBetween(c.Limits.Min, upper)
		}

		for placed := 0; placed < target; {
			asset, ok := t.sampleWithRetry(c)
			if !ok {
				return errors.New(errors.ErrCodeInsufficientRequiredSpace,
					"required category %q has no drawable assets left for %d more instance(s)",
					c.ID, target-placed)
			}
			t.required.Add(RequiredKey{Asset: asset.ID, Category: c.ID})
			placed++
		}
		openSlots -= target
	}
	return nil
}

// SampleCategory draws one non-required category. ok is false when the theme
// has no non-required categories at all.
func (t *Tracker) SampleCategory() (*theme.Category, bool) {
	if t.categories == nil {
		return nil, false
	}
	return t.categories.Sample(), true
}

// SampleAsset draws one asset from cat's sampler. A drawn spawn-once asset
// that was already drawn this run is rejected: ok is false and the caller
// should simply continue its loop. Accepted spawn-once assets are recorded
// immediately, before any spatial placement is attempted.
func (t *Tracker) SampleAsset(cat *theme.Category) (*theme.Asset, bool) {
	s, found := t.assets[cat.ID]
	if !found {
		return nil, false
	}
	asset := s.Sample()
	if asset.SpawnOnce {
		if t.once[asset.ID] {
			return nil, false
		}
		t.once[asset.ID] = true
	}
	return asset, true
}

// SampleRequired picks one still-owed required pair, uniformly among all keys
// ever added to the pool. A key whose remaining count has dropped to zero is
// a rejection: ok is false and the caller retries on its next iteration.
func (t *Tracker) SampleRequired() (RequiredKey, bool) {
	keys := t.required.Keys()
	if len(keys) == 0 {
		return RequiredKey{}, false
	}
	key := keys[t.rng.IntN(len(keys))]
	if t.required.Count(key) == 0 {
		return RequiredKey{}, false
	}
	return key, true
}

// ConsumeRequired removes one owed instance of key after a successful
// placement.
func (t *Tracker) ConsumeRequired(key RequiredKey) {
	t.required.Remove(key)
}

// RecreditRequired re-adds one owed instance of key when its placement is
// unwound by backtracking.
func (t *Tracker) RecreditRequired(key RequiredKey) {
	t.required.Add(key)
}

// RemainingRequired returns how many required placements the run still owes.
func (t *Tracker) RemainingRequired() int {
	return t.required.Total()
}

// NotePlaced records one committed instance of category id.
func (t *Tracker) NotePlaced(categoryID string) {
	t.placed.Add(categoryID)
}

// NoteRemoved unwinds one committed instance of category id.
func (t *Tracker) NoteRemoved(categoryID string) {
	t.placed.Remove(categoryID)
}

// PlacedCount returns how many instances of category id are committed.
func (t *Tracker) PlacedCount(categoryID string) int {
	return t.placed.Count(categoryID)
}

// TotalPlaced returns the number of committed instances across categories.
func (t *Tracker) TotalPlaced() int {
	return t.placed.Total()
}

// sampleWithRetry draws from cat, retrying past spawn-once rejections a
// bounded number of times.
func (t *Tracker) sampleWithRetry(cat *theme.Category) (*theme.Asset, bool) {
	for range requiredSampleAttempts {
		if asset, ok := t.SampleAsset(cat); ok {
			return asset, true
		}
	}
	return nil, false
}

// randBetween returns a uniform integer in [lo, hi].
func (t *Tracker) randBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + t.rng.IntN(hi-lo+1)
}
