package dungeon

import "math/rand/v2"

// connectionIndex tracks which placed instances still expose at least one
// open connection, supporting O(1) random instance picks via a dense order
// slice maintained with swap-removal.
type connectionIndex struct {
	open  map[InstanceID][]ConnectionID
	order []InstanceID
	pos   map[InstanceID]int
}

func newConnectionIndex() *connectionIndex {
	return &connectionIndex{
		open: make(map[InstanceID][]ConnectionID),
		pos:  make(map[InstanceID]int),
	}
}

// Add registers an instance with its currently open connections. Instances
// with no open connections are not indexed.
func (x *connectionIndex) Add(inst InstanceID, conns []ConnectionID) {
	if len(conns) == 0 {
		return
	}
	x.open[inst] = append([]ConnectionID(nil), conns...)
	x.track(inst)
}

// RandomInstance picks a uniformly random connectable instance.
func (x *connectionIndex) RandomInstance(rng *rand.Rand) (InstanceID, bool) {
	if len(x.order) == 0 {
		return 0, false
	}
	return x.order[rng.IntN(len(x.order))], true
}

// RandomConnection picks a uniformly random open connection of inst.
func (x *connectionIndex) RandomConnection(rng *rand.Rand, inst InstanceID) (ConnectionID, bool) {
	conns := x.open[inst]
	if len(conns) == 0 {
		return NoConnection, false
	}
	return conns[rng.IntN(len(conns))], true
}

// Close marks conn consumed on inst. When the last open connection of inst
// closes, the instance leaves the connectable set.
func (x *connectionIndex) Close(inst InstanceID, conn ConnectionID) {
	conns := x.open[inst]
	for i, c := range conns {
		if c == conn {
			conns[i] = conns[len(conns)-1]
			conns = conns[:len(conns)-1]
			break
		}
	}
	if len(conns) == 0 {
		delete(x.open, inst)
		x.untrack(inst)
		return
	}
	x.open[inst] = conns
}

// Reopen restores a previously consumed connection on inst, re-adding the
// instance to the connectable set if it had left it.
func (x *connectionIndex) Reopen(inst InstanceID, conn ConnectionID) {
	x.open[inst] = append(x.open[inst], conn)
	x.track(inst)
}

// Remove drops an instance entirely (its module was destroyed).
func (x *connectionIndex) Remove(inst InstanceID) {
	delete(x.open, inst)
	x.untrack(inst)
}

// OpenCount returns how many open connections inst currently exposes.
func (x *connectionIndex) OpenCount(inst InstanceID) int {
	return len(x.open[inst])
}

// Connectable returns the number of instances with at least one open
// connection.
func (x *connectionIndex) Connectable() int {
	return len(x.order)
}

// OpenConnections returns a copy of the open connections of inst.
func (x *connectionIndex) OpenConnections(inst InstanceID) []ConnectionID {
	return append([]ConnectionID(nil), x.open[inst]...)
}

// AllOpen returns every open connection across all indexed instances.
func (x *connectionIndex) AllOpen() []ConnectionID {
	var out []ConnectionID
	for _, inst := range x.order {
		out = append(out, x.open[inst]...)
	}
	return out
}

func (x *connectionIndex) track(inst InstanceID) {
	if _, ok := x.pos[inst]; ok {
		return
	}
	x.pos[inst] = len(x.order)
	x.order = append(x.order, inst)
}

func (x *connectionIndex) untrack(inst InstanceID) {
	i, ok := x.pos[inst]
	if !ok {
		return
	}
	last := len(x.order) - 1
	moved := x.order[last]
	x.order[i] = moved
	x.pos[moved] = i
	x.order = x.order[:last]
	delete(x.pos, inst)
}
