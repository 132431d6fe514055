// Package dungeon implements the core generation algorithm: weighted
// constraint-aware module selection and a backtracking placement search that
// grows a connected module graph until a target count is reached.
//
// # Architecture
//
// The search is greedy with local retries, not an exhaustive solver. Each
// iteration selects what to place next (honoring required categories,
// per-category count limits, and spawn-once uniqueness), asks the injected
// spatial [Oracle] to attach a fresh module instance to a random open
// connection, and tests for overlap. Collisions are retried up to a fixed
// per-placement ceiling; when the ceiling is exhausted the most recent
// placement is unwound. The whole run self-bounds through the placement
// ceiling and a backtrack budget, so it always terminates.
//
// Only four conditions abort a run, all surfaced as structured errors and
// through the OnFailure callback: INSUFFICIENT_REQUIRED_SPACE,
// INSUFFICIENT_SPACE, INVALID_HISTORY, and BACKTRACK_LIMIT_EXCEEDED.
// Collision retries and spawn-once rejections are ordinary control flow.
//
// # Usage
//
//	world := geom.NewWorld(geom.DefaultConfig())
//	gen, err := dungeon.NewGenerator(th, world, dungeon.Options{Seed: 42})
//	if err != nil {
//	    return err
//	}
//	result, err := gen.Generate(ctx)
//	if err != nil {
//	    return err
//	}
//	// result.Placed, result.Links describe the committed module graph.
//	gen.Reset() // destroy instances before the next run
package dungeon

import (
	"context"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/modulab/dungen/pkg/errors"
	"github.com/modulab/dungen/pkg/observability"
	"github.com/modulab/dungen/pkg/theme"
)

// Default tuning for the search loop.
const (
	// DefaultPlacementAttempts is the per-placement collision retry ceiling.
	DefaultPlacementAttempts = 25

	// DefaultRetryFactor scales the backtrack budget: a run may unwind at
	// most targetCount * DefaultRetryFactor placements.
	DefaultRetryFactor = 25

	// DefaultRequiredBias is the base probability of forcing a required
	// placement while required items remain. It blends linearly toward 1 as
	// urgency (remaining required / open slots) grows.
	DefaultRequiredBias = 0.5

	// maxConsecutiveSkips bounds iterations that neither place nor backtrack
	// (maxed-out limited categories, spawn-once rejections). Exceeding it
	// means the remaining slots cannot be filled.
	maxConsecutiveSkips = 1000
)

// Options configures a Generator.
type Options struct {
	// Seed for the run's random source. Zero derives a seed from the
	// global source, making every run distinct.
	Seed uint64

	// PlacementAttempts is the collision retry ceiling per placement.
	PlacementAttempts int

	// RetryFactor scales the backtrack budget (targetCount * RetryFactor).
	RetryFactor int

	// RequiredBias is the base probability of forcing a required placement.
	RequiredBias float64

	// Logger receives debug-level placement traces. Defaults to a silent
	// logger.
	Logger *log.Logger

	// OnSuccess and OnFailure are invoked exactly once at run completion.
	// Either may be nil.
	OnSuccess func()
	OnFailure func(error)
}

func (o *Options) setDefaults() {
	if o.Seed == 0 {
		o.Seed = rand.Uint64()
	}
	if o.PlacementAttempts <= 0 {
		o.PlacementAttempts = DefaultPlacementAttempts
	}
	if o.RetryFactor <= 0 {
		o.RetryFactor = DefaultRetryFactor
	}
	if o.RequiredBias <= 0 || o.RequiredBias > 1 {
		o.RequiredBias = DefaultRequiredBias
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Placed describes one committed module, in placement order.
type Placed struct {
	Instance InstanceID
	Asset    string
	Category string
}

// Link is one consumed connection pair in the committed module graph. Loop
// links join two already-placed modules instead of extending the frontier.
type Link struct {
	From     InstanceID
	To       InstanceID
	FromDoor ConnectionID
	ToDoor   ConnectionID
	Loop     bool
}

// Result is the outcome of a successful generation run.
type Result struct {
	Seed       uint64
	Target     int
	Placed     []Placed
	Links      []Link
	Backtracks int
	Duration   time.Duration
}

// loopEdge records a bonus connection closed at commit time so backtracking
// can reopen the partner side.
type loopEdge struct {
	door        ConnectionID
	partner     InstanceID
	partnerDoor ConnectionID
}

// record is one frame of generation history. The stack's length always
// equals the number of committed modules.
type record struct {
	asset    *theme.Asset
	category *theme.Category
	instance InstanceID

	door     ConnectionID // consumed on the new module; NoConnection for the root
	hostInst InstanceID   // module the new one attached to; undefined for the root
	hostDoor ConnectionID // consumed on the host; NoConnection for the root

	fromRequired bool
	requiredKey  RequiredKey

	loops []loopEdge
}

// Generator runs the placement search against an injected oracle. It owns
// the history stack, the connection index, and all counters for the duration
// of a run. Not safe for concurrent use.
type Generator struct {
	theme  *theme.Theme
	oracle Oracle
	opts   Options
	rng    *rand.Rand

	tracker *trackerState
	dirty   bool // instances committed since the last Reset
}

// trackerState bundles the per-run mutable aggregates.
type trackerState struct {
	tracker    *Tracker
	index      *connectionIndex
	history    []record
	target     int
	backtracks int
}

// NewGenerator validates the theme and prepares a generator. The theme is
// treated as immutable for the generator's lifetime.
func NewGenerator(th *theme.Theme, oracle Oracle, opts Options) (*Generator, error) {
	if th == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "generator requires a theme")
	}
	if oracle == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "generator requires an oracle")
	}
	if err := theme.ValidateStrict(th); err != nil {
		return nil, err
	}
	opts.setDefaults()
	return &Generator{
		theme:  th,
		oracle: oracle,
		opts:   opts,
		rng:    rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Seed returns the seed the generator runs with.
func (g *Generator) Seed() uint64 {
	return g.opts.Seed
}

// Generate runs the full algorithm once. The environment must be fresh:
// after any previous run, call Reset first. On success the committed
// instances stay alive in the oracle for the caller to export; on failure
// any committed instances likewise remain until Reset.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	if g.dirty {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"environment not reset: call Reset before generating again")
	}
	g.dirty = true

	start := time.Now()
	target := g.randBetween(g.theme.MinModules, g.theme.MaxModules)
	st := &trackerState{
		index:  newConnectionIndex(),
		target: target,
	}
	g.tracker = st

	logger := g.opts.Logger
	logger.Debug("starting run", "theme", g.theme.Name, "seed", g.opts.Seed, "target", target)
	observability.Generator().OnRunStart(g.theme.Name, g.opts.Seed, target)

	result, err := g.run(ctx, st)
	duration := time.Since(start)

	// Remaining open connections are closed on success and failure alike;
	// only their visual state is at stake here.
	for _, conn := range st.index.AllOpen() {
		g.oracle.SetConnectionState(conn, false)
	}

	observability.Generator().OnRunComplete(len(st.history), st.backtracks, duration, err)
	if err != nil {
		logger.Debug("run failed", "placed", len(st.history), "backtracks", st.backtracks, "err", err)
		if g.opts.OnFailure != nil {
			g.opts.OnFailure(err)
		}
		return nil, err
	}

	result.Duration = duration
	logger.Debug("run complete", "placed", len(result.Placed), "links", len(result.Links),
		"backtracks", result.Backtracks, "duration", duration)
	if g.opts.OnSuccess != nil {
		g.opts.OnSuccess()
	}
	return result, nil
}

// Reset destroys every committed instance and clears run state, returning
// the generator to a fresh environment. Idempotent.
func (g *Generator) Reset() {
	if g.tracker != nil {
		for _, rec := range g.tracker.history {
			_ = g.oracle.Destroy(rec.instance)
		}
		g.tracker = nil
	}
	g.dirty = false
}

// run executes the main selection/placement loop.
func (g *Generator) run(ctx context.Context, st *trackerState) (*Result, error) {
	tracker, err := NewTracker(g.theme, g.rng)
	if err != nil {
		return nil, err
	}
	st.tracker = tracker

	if err := tracker.PopulateRequired(st.target); err != nil {
		return nil, err
	}

	skips := 0
	for len(st.history) < st.target {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "generation canceled")
		}
		if skips > maxConsecutiveSkips {
			return nil, errors.New(errors.ErrCodeInsufficientSpace,
				"no category can fill the remaining %d slot(s)", st.target-len(st.history))
		}

		openSlots := st.target - len(st.history)
		required := tracker.RemainingRequired()
		if openSlots < required {
			return nil, errors.New(errors.ErrCodeInsufficientSpace,
				"%d slot(s) left but %d required placement(s) remain", openSlots, required)
		}

		force := openSlots == required
		if !force && required > 0 {
			// Blend the base bias toward certainty as urgency grows.
			urgency := float64(required) / float64(openSlots)
			p := g.opts.RequiredBias + (1-g.opts.RequiredBias)*urgency
			force = g.rng.Float64() < p
		}

		if force {
			placed, err := g.placeRequired(st)
			if err != nil {
				return nil, err
			}
			if placed {
				skips = 0
			} else {
				skips++
			}
			continue
		}

		placed, err := g.placeSampled(st)
		if err != nil {
			return nil, err
		}
		if placed {
			skips = 0
		} else {
			skips++
		}
	}

	return g.buildResult(st), nil
}

// placeRequired draws one owed required pair and attempts to place it.
func (g *Generator) placeRequired(st *trackerState) (bool, error) {
	key, ok := st.tracker.SampleRequired()
	if !ok {
		return false, nil
	}
	cat := g.theme.Category(key.Category)
	asset := g.theme.Asset(key.Asset)
	if cat == nil || asset == nil {
		return false, errors.New(errors.ErrCodeInternal,
			"required pair (%s, %s) not in theme", key.Asset, key.Category)
	}
	return g.placeWithRetry(st, asset, cat, true, key)
}

// placeSampled draws a non-required category and attempts one placement, or
// a randomized batch for count-limited categories.
func (g *Generator) placeSampled(st *trackerState) (bool, error) {
	cat, ok := st.tracker.SampleCategory()
	if !ok {
		// Every category is required and none remain owed: the remaining
		// slots cannot be filled by sampling.
		return false, errors.New(errors.ErrCodeInsufficientSpace,
			"no non-required categories to fill %d remaining slot(s)", st.target-len(st.history))
	}

	if !cat.Limited() {
		asset, ok := st.tracker.SampleAsset(cat)
		if !ok {
			return false, nil // spawn-once rejection, try again next iteration
		}
		return g.placeWithRetry(st, asset, cat, false, RequiredKey{})
	}

	headroom := cat.Limits.Max - st.tracker.PlacedCount(cat.ID)
	if headroom <= 0 {
		return false, nil // category already at max
	}
	openSlots := st.target - len(st.history)
	batch := g.randBetween(cat.Limits.Min, cat.Limits.Max)
	batch = min(batch, headroom, openSlots)

	any := false
	for range batch {
		if len(st.history) >= st.target {
			break
		}
		asset, ok := st.tracker.SampleAsset(cat)
		if !ok {
			continue
		}
		placed, err := g.placeWithRetry(st, asset, cat, false, RequiredKey{})
		if err != nil {
			return any, err
		}
		if !placed {
			break
		}
		any = true
	}
	return any, nil
}

// placeWithRetry attempts to spatially place one instance of asset, retrying
// collisions up to the attempt ceiling and backtracking when it is
// exhausted. Returns whether a placement committed; a false return with nil
// error means the engine backtracked and the caller should re-enter the
// main loop.
func (g *Generator) placeWithRetry(st *trackerState, asset *theme.Asset, cat *theme.Category, fromRequired bool, key RequiredKey) (bool, error) {
	for attempt := 0; attempt < g.opts.PlacementAttempts; attempt++ {
		committed, err := g.tryPlace(st, asset, cat, fromRequired, key)
		if err != nil {
			return false, err
		}
		if committed {
			return true, nil
		}
	}
	g.opts.Logger.Debug("placement attempts exhausted", "asset", asset.ID, "category", cat.ID)
	// The owed pair survives untouched; SampleRequired does not decrement.
	if err := g.backtrack(st); err != nil {
		return false, err
	}
	return false, nil
}

// tryPlace runs a single spawn/align/intersect attempt. A false return with
// nil error is a collision discard.
func (g *Generator) tryPlace(st *trackerState, asset *theme.Asset, cat *theme.Category, fromRequired bool, key RequiredKey) (bool, error) {
	sp, err := g.oracle.Spawn(asset)
	if err != nil {
		return false, err
	}

	rec := record{
		asset:        asset,
		category:     cat,
		instance:     sp.Instance,
		door:         NoConnection,
		hostDoor:     NoConnection,
		fromRequired: fromRequired,
		requiredKey:  key,
	}

	if len(st.history) > 0 {
		host, ok := st.index.RandomInstance(g.rng)
		if !ok {
			// Every committed module is sealed; this attempt cannot attach.
			_ = g.oracle.Destroy(sp.Instance)
			return false, nil
		}
		hostDoor, _ := st.index.RandomConnection(g.rng, host)
		door := sp.Connections[g.rng.IntN(len(sp.Connections))]

		if err := g.oracle.AlignAndAttach(sp.Instance, door, hostDoor); err != nil {
			_ = g.oracle.Destroy(sp.Instance)
			return false, err
		}
		rec.door = door
		rec.hostInst = host
		rec.hostDoor = hostDoor
	}

	hit, err := g.oracle.Intersects(sp.Instance)
	if err != nil {
		_ = g.oracle.Destroy(sp.Instance)
		return false, err
	}
	if hit {
		_ = g.oracle.Destroy(sp.Instance)
		return false, nil
	}

	g.commit(st, &rec, sp)
	if fromRequired {
		st.tracker.ConsumeRequired(key)
	}
	return true, nil
}

// commit finalizes a collision-free placement: consume the attachment doors,
// resolve loop connections, update the connectable index, and push history.
func (g *Generator) commit(st *trackerState, rec *record, sp Spawned) {
	open := make([]ConnectionID, 0, len(sp.Connections))
	for _, c := range sp.Connections {
		if c != rec.door {
			open = append(open, c)
		}
	}

	if rec.hostDoor != NoConnection {
		st.index.Close(rec.hostInst, rec.hostDoor)
		g.oracle.SetConnectionState(rec.hostDoor, false)
		g.oracle.SetConnectionState(rec.door, false)
	}

	// Loop resolution runs before the new module enters the connectable
	// index: scan its remaining open doors for coincident opposite-facing
	// doors on other committed modules and close both ends as bonus links.
	remaining := open[:0]
	for _, c := range open {
		partner, ok := g.oracle.ProbeOppositeConnection(c)
		if !ok {
			remaining = append(remaining, c)
			continue
		}
		owner, found := g.findOpenOwner(st, partner)
		if !found {
			remaining = append(remaining, c)
			continue
		}
		st.index.Close(owner, partner)
		g.oracle.SetConnectionState(partner, false)
		g.oracle.SetConnectionState(c, false)
		rec.loops = append(rec.loops, loopEdge{door: c, partner: owner, partnerDoor: partner})
		g.opts.Logger.Debug("closed loop", "instance", rec.instance, "partner", owner)
	}

	st.index.Add(rec.instance, remaining)
	st.tracker.NotePlaced(rec.category.ID)
	st.history = append(st.history, *rec)

	g.opts.Logger.Debug("placed module", "asset", rec.asset.ID, "category", rec.category.ID,
		"instance", rec.instance, "placed", len(st.history), "target", st.target)
	observability.Generator().OnPlacement(rec.category.ID, rec.asset.ID, len(st.history))
}

// findOpenOwner locates the committed instance currently exposing door as an
// open connection.
func (g *Generator) findOpenOwner(st *trackerState, door ConnectionID) (InstanceID, bool) {
	for i := len(st.history) - 1; i >= 0; i-- {
		inst := st.history[i].instance
		for _, c := range st.index.OpenConnections(inst) {
			if c == door {
				return inst, true
			}
		}
	}
	return 0, false
}

// backtrack pops the most recent placement: reopen the doors it consumed,
// re-credit its required pair, destroy its instance, and charge the budget.
func (g *Generator) backtrack(st *trackerState) error {
	if len(st.history) == 0 {
		return errors.New(errors.ErrCodeInvalidHistory,
			"backtrack requested with empty history: first module cannot be placed")
	}

	rec := st.history[len(st.history)-1]
	st.history = st.history[:len(st.history)-1]

	// Reopen loop partners first; their doors belong to modules that stay.
	for _, l := range rec.loops {
		st.index.Reopen(l.partner, l.partnerDoor)
		g.oracle.SetConnectionState(l.partnerDoor, true)
	}
	if rec.hostDoor != NoConnection {
		st.index.Reopen(rec.hostInst, rec.hostDoor)
		g.oracle.SetConnectionState(rec.hostDoor, true)
	}

	st.index.Remove(rec.instance)
	st.tracker.NoteRemoved(rec.category.ID)
	if rec.fromRequired {
		st.tracker.RecreditRequired(rec.requiredKey)
	}
	_ = g.oracle.Destroy(rec.instance)

	st.backtracks++
	g.opts.Logger.Debug("backtracked", "asset", rec.asset.ID, "placed", len(st.history),
		"backtracks", st.backtracks)
	observability.Generator().OnBacktrack(len(st.history), st.backtracks)

	if st.backtracks > st.target*g.opts.RetryFactor {
		return errors.New(errors.ErrCodeBacktrackLimit,
			"backtrack budget exhausted after %d unwinds (target %d x factor %d)",
			st.backtracks, st.target, g.opts.RetryFactor)
	}
	return nil
}

func (g *Generator) buildResult(st *trackerState) *Result {
	res := &Result{
		Seed:       g.opts.Seed,
		Target:     st.target,
		Backtracks: st.backtracks,
	}
	for _, rec := range st.history {
		res.Placed = append(res.Placed, Placed{
			Instance: rec.instance,
			Asset:    rec.asset.ID,
			Category: rec.category.ID,
		})
		if rec.hostDoor != NoConnection {
			res.Links = append(res.Links, Link{
				From:     rec.hostInst,
				To:       rec.instance,
				FromDoor: rec.hostDoor,
				ToDoor:   rec.door,
			})
		}
		for _, l := range rec.loops {
			res.Links = append(res.Links, Link{
				From:     rec.instance,
				To:       l.partner,
				FromDoor: l.door,
				ToDoor:   l.partnerDoor,
				Loop:     true,
			})
		}
	}
	return res
}

// randBetween returns a uniform integer in [lo, hi].
func (g *Generator) randBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.IntN(hi-lo+1)
}
