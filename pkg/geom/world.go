package geom

import (
	"math"
	"slices"

	"github.com/modulab/dungen/pkg/dungeon"
	"github.com/modulab/dungen/pkg/errors"
	"github.com/modulab/dungen/pkg/theme"
)

// Config tunes the spatial world.
type Config struct {
	// ContactEpsilon is the per-side shrink applied before overlap tests so
	// flush-touching modules do not register as intersecting.
	ContactEpsilon float64

	// ProbeDistance is how far ProbeOppositeConnection looks along a door's
	// facing for a partner door.
	ProbeDistance float64

	// AngleTolerance is the maximum facing misalignment, in radians, for a
	// probe to accept a partner door.
	AngleTolerance float64
}

// DefaultConfig returns the world tuning used by the CLI.
func DefaultConfig() Config {
	return Config{
		ContactEpsilon: 0.01,
		ProbeDistance:  0.5,
		AngleTolerance: Radians(5),
	}
}

type worldInstance struct {
	asset *theme.Asset
	pose  Pose
	doors []dungeon.ConnectionID
}

type worldDoor struct {
	owner dungeon.InstanceID
	def   theme.Door
	open  bool
}

// World is the reference placement oracle: an arena of posed module
// instances indexed by integer ID, with doors in a parallel table. It
// implements [dungeon.Oracle].
//
// World is not safe for concurrent use; the engine drives it from a single
// goroutine per run.
type World struct {
	cfg       Config
	instances map[dungeon.InstanceID]*worldInstance
	doors     map[dungeon.ConnectionID]*worldDoor
	nextInst  dungeon.InstanceID
	nextDoor  dungeon.ConnectionID
}

// NewWorld creates an empty world. Zero config fields fall back to
// DefaultConfig values.
func NewWorld(cfg Config) *World {
	def := DefaultConfig()
	if cfg.ContactEpsilon <= 0 {
		cfg.ContactEpsilon = def.ContactEpsilon
	}
	if cfg.ProbeDistance <= 0 {
		cfg.ProbeDistance = def.ProbeDistance
	}
	if cfg.AngleTolerance <= 0 {
		cfg.AngleTolerance = def.AngleTolerance
	}
	return &World{
		cfg:       cfg,
		instances: make(map[dungeon.InstanceID]*worldInstance),
		doors:     make(map[dungeon.ConnectionID]*worldDoor),
	}
}

var _ dungeon.Oracle = (*World)(nil)

// Spawn creates an instance of asset at the origin with all doors open.
func (w *World) Spawn(asset *theme.Asset) (dungeon.Spawned, error) {
	if asset == nil {
		return dungeon.Spawned{}, errors.New(errors.ErrCodeInvalidInput, "spawn requires an asset")
	}

	id := w.nextInst
	w.nextInst++

	inst := &worldInstance{asset: asset}
	for _, d := range asset.Doors {
		did := w.nextDoor
		w.nextDoor++
		w.doors[did] = &worldDoor{owner: id, def: d, open: true}
		inst.doors = append(inst.doors, did)
	}
	w.instances[id] = inst

	return dungeon.Spawned{Instance: id, Connections: slices.Clone(inst.doors)}, nil
}

// AlignAndAttach poses inst so that door coincides with target, facing
// oppositely.
func (w *World) AlignAndAttach(inst dungeon.InstanceID, door, target dungeon.ConnectionID) error {
	in, ok := w.instances[inst]
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "unknown instance %d", inst)
	}
	d, ok := w.doors[door]
	if !ok || d.owner != inst {
		return errors.New(errors.ErrCodeInvalidInput, "door %d does not belong to instance %d", door, inst)
	}
	t, ok := w.doors[target]
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "unknown target door %d", target)
	}
	host, ok := w.instances[t.owner]
	if !ok {
		return errors.New(errors.ErrCodeInternal, "target door %d has no live owner", target)
	}

	targetPos := host.pose.Apply(Vec{t.def.Pos[0], t.def.Pos[1]})
	targetFacing := host.pose.Angle + Radians(t.def.Facing)

	// Rotate so this door faces exactly opposite the target, then translate
	// so the two door points coincide.
	angle := NormalizeAngle(targetFacing + math.Pi - Radians(d.def.Facing))
	local := Vec{d.def.Pos[0], d.def.Pos[1]}
	in.pose = Pose{Angle: angle, Pos: targetPos.Sub(local.Rotate(angle))}
	return nil
}

// Intersects reports whether inst overlaps any other live instance.
func (w *World) Intersects(inst dungeon.InstanceID) (bool, error) {
	in, ok := w.instances[inst]
	if !ok {
		return false, errors.New(errors.ErrCodeInvalidInput, "unknown instance %d", inst)
	}
	box := w.box(in)
	for id, other := range w.instances {
		if id == inst {
			continue
		}
		if Overlaps(box, w.box(other), w.cfg.ContactEpsilon) {
			return true, nil
		}
	}
	return false, nil
}

// Destroy removes inst and its doors, reversing Spawn.
func (w *World) Destroy(inst dungeon.InstanceID) error {
	in, ok := w.instances[inst]
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "unknown instance %d", inst)
	}
	for _, did := range in.doors {
		delete(w.doors, did)
	}
	delete(w.instances, inst)
	return nil
}

// ProbeOppositeConnection looks for an open door on another instance that
// sits within ProbeDistance of door and faces the opposite way.
func (w *World) ProbeOppositeConnection(door dungeon.ConnectionID) (dungeon.ConnectionID, bool) {
	d, ok := w.doors[door]
	if !ok {
		return dungeon.NoConnection, false
	}
	pos, facing := w.doorWorld(d)

	best := dungeon.NoConnection
	bestDist := math.Inf(1)
	for id, cand := range w.doors {
		if id == door || cand.owner == d.owner || !cand.open {
			continue
		}
		cpos, cfacing := w.doorWorld(cand)
		if dist := pos.Dist(cpos); dist <= w.cfg.ProbeDistance && dist < bestDist {
			if math.Abs(NormalizeAngle(cfacing-facing-math.Pi)) <= w.cfg.AngleTolerance {
				best = id
				bestDist = dist
			}
		}
	}
	return best, best != dungeon.NoConnection
}

// SetConnectionState marks a door open or closed. Closed doors are skipped
// by probes; rendering layers use the flag to pick door visuals.
func (w *World) SetConnectionState(door dungeon.ConnectionID, open bool) {
	if d, ok := w.doors[door]; ok {
		d.open = open
	}
}

// Placement is a read-only snapshot of one live instance for export.
type Placement struct {
	ID    dungeon.InstanceID
	Asset string
	Pos   Vec
	Angle float64 // degrees, for authoring-friendly output
	Size  [2]float64
}

// Placements returns a snapshot of all live instances, ordered by ID.
func (w *World) Placements() []Placement {
	out := make([]Placement, 0, len(w.instances))
	for id, in := range w.instances {
		out = append(out, Placement{
			ID:    id,
			Asset: in.asset.ID,
			Pos:   in.pose.Pos,
			Angle: Degrees(in.pose.Angle),
			Size:  in.asset.Size,
		})
	}
	slices.SortFunc(out, func(a, b Placement) int { return int(a.ID) - int(b.ID) })
	return out
}

// Count returns the number of live instances.
func (w *World) Count() int {
	return len(w.instances)
}

// DoorOpen reports the open flag of a door; unknown doors read as closed.
func (w *World) DoorOpen(door dungeon.ConnectionID) bool {
	d, ok := w.doors[door]
	return ok && d.open
}

// Reset removes every instance and door, returning the world to its initial
// state. Idempotent.
func (w *World) Reset() {
	w.instances = make(map[dungeon.InstanceID]*worldInstance)
	w.doors = make(map[dungeon.ConnectionID]*worldDoor)
}

func (w *World) box(in *worldInstance) Box {
	return Box{
		Center: in.pose.Pos,
		Half:   Vec{in.asset.Size[0] / 2, in.asset.Size[1] / 2},
		Angle:  in.pose.Angle,
	}
}

func (w *World) doorWorld(d *worldDoor) (Vec, float64) {
	owner := w.instances[d.owner]
	pos := owner.pose.Apply(Vec{d.def.Pos[0], d.def.Pos[1]})
	return pos, owner.pose.Angle + Radians(d.def.Facing)
}
