// Package theme defines the module catalog consumed by the dungeon generator.
//
// A Theme is a named, immutable bundle of categories, each grouping a set of
// placeable module assets, plus global bounds on how many modules one
// generation run may place. Themes are authored as TOML files (see Load) or
// constructed in code; either way they are validated once, up front, by
// [Validate] before a run starts.
//
// The generator core reads only spawn bookkeeping from a theme (weights,
// required/limit/once flags, bounds). Footprint geometry (Size, Doors) is
// consumed exclusively by the spatial oracle and is opaque to the search.
package theme

// Door is an attachment point on a module footprint.
//
// Pos is the door's position in the module's local frame, relative to the
// footprint center. Facing is the outward direction of the door in degrees,
// counterclockwise from +X. Two modules attach by making their doors
// coincide with opposite facings.
type Door struct {
	Pos    [2]float64 `toml:"pos" json:"pos" bson:"pos"`
	Facing float64    `toml:"facing" json:"facing" bson:"facing"`
}

// Asset is one placeable module definition.
//
// Weight is the relative spawn probability within its category (0-1).
// SpawnOnce marks the asset as unique: at most one instance per run.
// Size is the footprint (width, depth); Doors lists every attachment point.
// Assets are identity-comparable by ID within a theme and immutable after
// authoring.
type Asset struct {
	ID        string     `toml:"id" json:"id" bson:"id"`
	Weight    float64    `toml:"weight" json:"weight" bson:"weight"`
	SpawnOnce bool       `toml:"spawn_once" json:"spawn_once,omitempty" bson:"spawn_once,omitempty"`
	Size      [2]float64 `toml:"size" json:"size" bson:"size"`
	Doors     []Door     `toml:"doors" json:"doors" bson:"doors"`
}

// Limits bounds how many instances of a category a single run may place.
type Limits struct {
	Min int `toml:"min" json:"min" bson:"min"`
	Max int `toml:"max" json:"max" bson:"max"`
}

// Category groups interchangeable assets under shared spawn rules.
//
// Weight is the category's relative probability among non-required
// categories. Required guarantees at least one instance per run and makes
// the weight irrelevant. Limits, when non-nil, bounds the per-run instance
// count; a nil Limits means unlimited.
type Category struct {
	ID       string  `toml:"id" json:"id" bson:"id"`
	Weight   float64 `toml:"weight" json:"weight" bson:"weight"`
	Required bool    `toml:"required" json:"required,omitempty" bson:"required,omitempty"`
	Limits   *Limits `toml:"limits" json:"limits,omitempty" bson:"limits,omitempty"`
	Assets   []Asset `toml:"assets" json:"assets" bson:"assets"`
}

// Limited reports whether the category carries count limits.
func (c *Category) Limited() bool {
	return c.Limits != nil
}

// Theme is a named catalog of categories plus global module-count bounds.
// Exactly one theme is active per generation run.
type Theme struct {
	Name       string     `toml:"name" json:"name" bson:"name"`
	MinModules int        `toml:"min_modules" json:"min_modules" bson:"min_modules"`
	MaxModules int        `toml:"max_modules" json:"max_modules" bson:"max_modules"`
	Categories []Category `toml:"categories" json:"categories" bson:"categories"`
}

// Category returns the category with the given ID, or nil.
func (t *Theme) Category(id string) *Category {
	for i := range t.Categories {
		if t.Categories[i].ID == id {
			return &t.Categories[i]
		}
	}
	return nil
}

// Asset returns the asset with the given ID across all categories, or nil.
func (t *Theme) Asset(id string) *Asset {
	for i := range t.Categories {
		for j := range t.Categories[i].Assets {
			if t.Categories[i].Assets[j].ID == id {
				return &t.Categories[i].Assets[j]
			}
		}
	}
	return nil
}

// RequiredMinimum returns the least number of module slots the theme's
// required categories will claim: the configured minimum for limited
// required categories, one for unlimited required categories.
func (t *Theme) RequiredMinimum() int {
	total := 0
	for i := range t.Categories {
		c := &t.Categories[i]
		if !c.Required {
			continue
		}
		if c.Limited() {
			total += c.Limits.Min
		} else {
			total++
		}
	}
	return total
}
