package dungeon_test

import (
	"context"
	"testing"

	"github.com/modulab/dungen/pkg/dungeon"
	"github.com/modulab/dungen/pkg/errors"
	"github.com/modulab/dungen/pkg/geom"
	"github.com/modulab/dungen/pkg/theme"
)

// fourDoorAsset is a 4x4 room with doors centered on all four edges, the
// simplest shape that tiles without collisions in every direction.
func fourDoorAsset(id string, weight float64, once bool) theme.Asset {
	return theme.Asset{
		ID:        id,
		Weight:    weight,
		SpawnOnce: once,
		Size:      [2]float64{4, 4},
		Doors: []theme.Door{
			{Pos: [2]float64{2, 0}, Facing: 0},
			{Pos: [2]float64{0, 2}, Facing: 90},
			{Pos: [2]float64{-2, 0}, Facing: 180},
			{Pos: [2]float64{0, -2}, Facing: 270},
		},
	}
}

func simpleTheme(minMod, maxMod int) *theme.Theme {
	return &theme.Theme{
		Name:       "engine-fixture",
		MinModules: minMod,
		MaxModules: maxMod,
		Categories: []theme.Category{
			{
				ID:     "rooms",
				Weight: 1,
				Assets: []theme.Asset{fourDoorAsset("room", 1, false)},
			},
		},
	}
}

func requiredTheme(minMod, maxMod int) *theme.Theme {
	th := simpleTheme(minMod, maxMod)
	th.Categories = append(th.Categories, theme.Category{
		ID:       "vaults",
		Weight:   0.2,
		Required: true,
		Assets:   []theme.Asset{fourDoorAsset("vault", 1, true)},
	})
	return th
}

func TestGenerateSimpleTheme(t *testing.T) {
	world := geom.NewWorld(geom.DefaultConfig())
	var successes int
	gen, err := dungeon.NewGenerator(simpleTheme(3, 3), world, dungeon.Options{
		Seed:      42,
		OnSuccess: func() { successes++ },
		OnFailure: func(error) { t.Error("OnFailure fired on a solvable theme") },
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	res, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	defer gen.Reset()

	if successes != 1 {
		t.Errorf("OnSuccess fired %d times, want 1", successes)
	}
	if res.Seed != 42 {
		t.Errorf("Seed = %d, want 42", res.Seed)
	}
	if res.Target != 3 {
		t.Errorf("Target = %d, want 3", res.Target)
	}
	if len(res.Placed) != 3 {
		t.Fatalf("placed %d modules, want 3", len(res.Placed))
	}
	if world.Count() != 3 {
		t.Errorf("world holds %d instances, want 3", world.Count())
	}
	assertConnected(t, res)
	assertNoOverlap(t, world)
}

func TestGenerateWithinBounds(t *testing.T) {
	world := geom.NewWorld(geom.DefaultConfig())
	gen, err := dungeon.NewGenerator(simpleTheme(2, 5), world, dungeon.Options{Seed: 7})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	res, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	defer gen.Reset()

	if res.Target < 2 || res.Target > 5 {
		t.Fatalf("Target = %d, want within [2, 5]", res.Target)
	}
	if len(res.Placed) != res.Target {
		t.Fatalf("placed %d modules, want target %d", len(res.Placed), res.Target)
	}
}

func TestGenerateRequiredSpawnOnce(t *testing.T) {
	world := geom.NewWorld(geom.DefaultConfig())
	gen, err := dungeon.NewGenerator(requiredTheme(4, 4), world, dungeon.Options{Seed: 99})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	res, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	defer gen.Reset()

	vaults := 0
	for _, p := range res.Placed {
		if p.Category == "vaults" {
			vaults++
			if p.Asset != "vault" {
				t.Errorf("vault placement used asset %q", p.Asset)
			}
		}
	}
	if vaults != 1 {
		t.Fatalf("placed %d vaults, want exactly 1", vaults)
	}
	assertConnected(t, res)
}

func TestGenerateRequiredOnlyTheme(t *testing.T) {
	// Every slot is claimed by the required pool, so each iteration takes
	// the force-place path and the category sampler is never consulted.
	th := &theme.Theme{
		Name:       "engine-fixture",
		MinModules: 2,
		MaxModules: 2,
		Categories: []theme.Category{
			{
				ID:       "vaults",
				Weight:   0.2,
				Required: true,
				Limits:   &theme.Limits{Min: 2, Max: 2},
				Assets:   []theme.Asset{fourDoorAsset("vault", 1, false)},
			},
		},
	}

	world := geom.NewWorld(geom.DefaultConfig())
	var successes int
	gen, err := dungeon.NewGenerator(th, world, dungeon.Options{
		Seed:      21,
		OnSuccess: func() { successes++ },
		OnFailure: func(error) { t.Error("OnFailure fired on a solvable theme") },
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	res, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	defer gen.Reset()

	if successes != 1 {
		t.Errorf("OnSuccess fired %d times, want 1", successes)
	}
	if len(res.Placed) != 2 {
		t.Fatalf("placed %d modules, want exactly 2", len(res.Placed))
	}
	for _, p := range res.Placed {
		if p.Category != "vaults" {
			t.Errorf("placement came from category %q, want vaults", p.Category)
		}
	}
	assertConnected(t, res)
}

func TestGenerateRequiresReset(t *testing.T) {
	world := geom.NewWorld(geom.DefaultConfig())
	gen, err := dungeon.NewGenerator(simpleTheme(2, 2), world, dungeon.Options{Seed: 5})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	if _, err := gen.Generate(context.Background()); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	_, err = gen.Generate(context.Background())
	if errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Fatalf("second Generate err = %v, want %s", err, errors.ErrCodeInvalidInput)
	}

	gen.Reset()
	if world.Count() != 0 {
		t.Fatalf("world holds %d instances after Reset, want 0", world.Count())
	}
	if _, err := gen.Generate(context.Background()); err != nil {
		t.Fatalf("Generate after Reset: %v", err)
	}
	gen.Reset()
}

func TestGenerateInsufficientRequiredSpace(t *testing.T) {
	th := simpleTheme(2, 2)
	th.Categories = append(th.Categories, theme.Category{
		ID:       "crypts",
		Weight:   0.2,
		Required: true,
		Limits:   &theme.Limits{Min: 3, Max: 4},
		Assets:   []theme.Asset{fourDoorAsset("crypt", 1, false)},
	})

	world := geom.NewWorld(geom.DefaultConfig())
	var failures int
	gen, err := dungeon.NewGenerator(th, world, dungeon.Options{
		Seed:      3,
		OnFailure: func(error) { failures++ },
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	_, err = gen.Generate(context.Background())
	if errors.GetCode(err) != errors.ErrCodeInsufficientRequiredSpace {
		t.Fatalf("err = %v, want %s", err, errors.ErrCodeInsufficientRequiredSpace)
	}
	if failures != 1 {
		t.Errorf("OnFailure fired %d times, want 1", failures)
	}
}

func TestGenerateInvalidHistory(t *testing.T) {
	// An oracle that rejects every placement forces a backtrack with empty
	// history on the very first module.
	oracle := &stubOracle{alwaysIntersect: true}
	gen, err := dungeon.NewGenerator(simpleTheme(2, 2), oracle, dungeon.Options{Seed: 1})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	_, err = gen.Generate(context.Background())
	if errors.GetCode(err) != errors.ErrCodeInvalidHistory {
		t.Fatalf("err = %v, want %s", err, errors.ErrCodeInvalidHistory)
	}
}

func TestGenerateBacktrackLimit(t *testing.T) {
	// Exactly one module fits; every extension collides. The engine unwinds
	// and retries until the backtrack budget runs out.
	oracle := &stubOracle{maxAlive: 1}
	gen, err := dungeon.NewGenerator(simpleTheme(3, 3), oracle, dungeon.Options{Seed: 1})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	_, err = gen.Generate(context.Background())
	if errors.GetCode(err) != errors.ErrCodeBacktrackLimit {
		t.Fatalf("err = %v, want %s", err, errors.ErrCodeBacktrackLimit)
	}
}

func TestGenerateCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	world := geom.NewWorld(geom.DefaultConfig())
	gen, err := dungeon.NewGenerator(simpleTheme(3, 3), world, dungeon.Options{Seed: 1})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if _, err := gen.Generate(ctx); err == nil {
		t.Fatal("Generate should fail on a canceled context")
	}
}

// assertConnected walks the link graph and checks every placed module is
// reachable from the first one.
func assertConnected(t *testing.T, res *dungeon.Result) {
	t.Helper()
	if len(res.Placed) == 0 {
		return
	}

	adj := map[dungeon.InstanceID][]dungeon.InstanceID{}
	for _, l := range res.Links {
		adj[l.From] = append(adj[l.From], l.To)
		adj[l.To] = append(adj[l.To], l.From)
	}

	seen := map[dungeon.InstanceID]bool{res.Placed[0].Instance: true}
	queue := []dungeon.InstanceID{res.Placed[0].Instance}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, p := range res.Placed {
		if !seen[p.Instance] {
			t.Errorf("module %d (%s) unreachable from the root", p.Instance, p.Asset)
		}
	}
}

// assertNoOverlap re-checks every committed instance against the world.
func assertNoOverlap(t *testing.T, world *geom.World) {
	t.Helper()
	for _, p := range world.Placements() {
		hit, err := world.Intersects(p.ID)
		if err != nil {
			t.Fatalf("Intersects(%d): %v", p.ID, err)
		}
		if hit {
			t.Errorf("committed module %d overlaps another", p.ID)
		}
	}
}

// stubOracle is a minimal in-memory oracle for failure-path tests. It
// spawns doorless geometry bookkeeping only: alwaysIntersect rejects every
// placement, maxAlive rejects placements beyond a population cap.
type stubOracle struct {
	alwaysIntersect bool
	maxAlive        int

	nextInst dungeon.InstanceID
	nextConn dungeon.ConnectionID
	alive    map[dungeon.InstanceID]bool
}

func (s *stubOracle) Spawn(asset *theme.Asset) (dungeon.Spawned, error) {
	if s.alive == nil {
		s.alive = map[dungeon.InstanceID]bool{}
	}
	inst := s.nextInst
	s.nextInst++
	conns := make([]dungeon.ConnectionID, len(asset.Doors))
	for i := range conns {
		conns[i] = s.nextConn
		s.nextConn++
	}
	s.alive[inst] = true
	return dungeon.Spawned{Instance: inst, Connections: conns}, nil
}

func (s *stubOracle) AlignAndAttach(inst dungeon.InstanceID, door, target dungeon.ConnectionID) error {
	return nil
}

func (s *stubOracle) Intersects(inst dungeon.InstanceID) (bool, error) {
	if s.alwaysIntersect {
		return true, nil
	}
	return s.maxAlive > 0 && len(s.alive) > s.maxAlive, nil
}

func (s *stubOracle) Destroy(inst dungeon.InstanceID) error {
	delete(s.alive, inst)
	return nil
}

func (s *stubOracle) ProbeOppositeConnection(door dungeon.ConnectionID) (dungeon.ConnectionID, bool) {
	return dungeon.NoConnection, false
}

func (s *stubOracle) SetConnectionState(door dungeon.ConnectionID, open bool) {}
