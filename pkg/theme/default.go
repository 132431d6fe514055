package theme

// fourDoors returns doors centered on each edge of a w-by-h footprint,
// facing outward.
func fourDoors(w, h float64) []Door {
	return []Door{
		{Pos: [2]float64{w / 2, 0}, Facing: 0},
		{Pos: [2]float64{0, h / 2}, Facing: 90},
		{Pos: [2]float64{-w / 2, 0}, Facing: 180},
		{Pos: [2]float64{0, -h / 2}, Facing: 270},
	}
}

// Default returns the built-in "catacomb" theme. It doubles as a working
// example of the catalog schema and as a fixture for tests and the demo
// commands: grid-friendly square rooms, a limited hall category, and one
// required vault that may appear at most twice with a unique centerpiece.
func Default() *Theme {
	return &Theme{
		Name:       "catacomb",
		MinModules: 8,
		MaxModules: 14,
		Categories: []Category{
			{
				ID:     "passages",
				Weight: 0.55,
				Assets: []Asset{
					{ID: "crossing", Weight: 0.6, Size: [2]float64{4, 4}, Doors: fourDoors(4, 4)},
					{ID: "junction", Weight: 0.4, Size: [2]float64{4, 4}, Doors: fourDoors(4, 4)},
				},
			},
			{
				ID:     "chambers",
				Weight: 0.45,
				Limits: &Limits{Min: 1, Max: 6},
				Assets: []Asset{
					{ID: "cell", Weight: 0.7, Size: [2]float64{4, 4}, Doors: fourDoors(4, 4)},
					{ID: "ossuary", Weight: 0.3, Size: [2]float64{4, 4}, Doors: fourDoors(4, 4)},
				},
			},
			{
				ID:       "vaults",
				Weight:   0.1,
				Required: true,
				Limits:   &Limits{Min: 1, Max: 2},
				Assets: []Asset{
					{
						ID:     "reliquary",
						Weight: 0.5,
						Size:   [2]float64{4, 4},
						// Single door: vaults terminate a branch.
						Doors: []Door{{Pos: [2]float64{-2, 0}, Facing: 180}},
					},
					{
						ID:        "sanctum",
						Weight:    0.5,
						SpawnOnce: true,
						Size:      [2]float64{4, 4},
						Doors:     []Door{{Pos: [2]float64{-2, 0}, Facing: 180}},
					},
				},
			},
		},
	}
}
