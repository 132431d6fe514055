package dungeon

import "github.com/modulab/dungen/pkg/theme"

// InstanceID identifies one module instance inside the oracle's arena.
// IDs are plain integers so instances and connections never hold owning
// pointers to each other.
type InstanceID int

// ConnectionID identifies one door on one module instance. A connection
// belongs to exactly one instance for its whole lifetime.
type ConnectionID int

// NoConnection marks the absence of a connection, e.g. the root module's
// attachment point.
const NoConnection ConnectionID = -1

// Spawned describes a freshly instantiated module: its arena ID and the
// full set of its connections, all initially open.
type Spawned struct {
	Instance    InstanceID
	Connections []ConnectionID
}

// Oracle is the spatial collaborator the placement engine drives. The engine
// treats spatial placement as a black box: it only ever consumes the boolean
// result of Intersects and the identity results of the other calls.
//
// All methods are synchronous. An instance handed out by Spawn is exclusively
// owned by the engine until it is either committed (survives the run) or
// destroyed (collision discard or backtrack).
type Oracle interface {
	// Spawn creates a new module instance from asset, positioned at the
	// origin with all of its doors open.
	Spawn(asset *theme.Asset) (Spawned, error)

	// AlignAndAttach rigidly repositions inst so that its door coincides
	// with target, facing oppositely. Pure geometric transform.
	AlignAndAttach(inst InstanceID, door, target ConnectionID) error

	// Intersects reports whether inst overlaps any other currently live
	// instance.
	Intersects(inst InstanceID) (bool, error)

	// Destroy removes inst and all of its connections from the arena,
	// reversing Spawn.
	Destroy(inst InstanceID) error

	// ProbeOppositeConnection searches a short distance along door's facing
	// for an open, opposite-facing connection on another instance. Used for
	// loop resolution; ok is false when nothing aligned is nearby.
	ProbeOppositeConnection(door ConnectionID) (partner ConnectionID, ok bool)

	// SetConnectionState records a door as open or closed. Cosmetic from the
	// engine's point of view; the oracle may also use it to filter probes.
	SetConnectionState(door ConnectionID, open bool)
}
