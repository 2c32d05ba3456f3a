// Package engine provides the colony simulation orchestrator: it owns the
// grid and the ant roster, drives the fixed-timestep tick order, and exposes
// the command/query surface external collaborators run against.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/nantestudio/antworld/internal/ants"
	"github.com/nantestudio/antworld/internal/config"
	"github.com/nantestudio/antworld/internal/entropy"
	"github.com/nantestudio/antworld/internal/world"
)

// raiderColonyID marks ants spawned by enemy raids. They own no pheromone
// layer or registry entry; their Task field carries the nest they target.
const raiderColonyID = 0

// Simulation is the orchestrator. It assumes exclusive, non-reentrant access
// during a tick: Update must never run concurrently with itself or with any
// mutator. External collaborators queue terrain edits, which are flushed at
// the top of the next tick.
type Simulation struct {
	cfg  *config.Config
	grid *world.Grid
	seed int64

	ants     []*ants.Ant
	nextID   uint64
	colonies []*Colony

	rngAnts   *rand.Rand
	rngCombat *rand.Rand
	rngColony *rand.Rand

	tick    uint64
	simTime float64
	paused  bool

	// Effective per-tick pheromone decay factor, derived from config and
	// grid size.
	decayFactor float64

	events *EventLog
	edits  []Edit
	hash   spatialHash

	births uint64
	deaths uint64
}

// NewRandom generates a fresh world from a seed and populates each colony
// with its starting roster.
func NewRandom(cfg *config.Config, seed int64) (*Simulation, error) {
	return newFromSeed(cfg, seed, cfg.World.Cols, cfg.World.Rows, cfg.World.ColonyCount)
}

func newFromSeed(cfg *config.Config, seed int64, cols, rows, colonyCount int) (*Simulation, error) {
	gen := world.DefaultGenConfig(cols, rows, colonyCount, seed)
	grid, nests, err := world.Generate(gen)
	if err != nil {
		return nil, fmt.Errorf("generate world: %w", err)
	}

	src := entropy.NewSource(seed)
	s := &Simulation{
		cfg:       cfg,
		grid:      grid,
		seed:      seed,
		nextID:    1,
		rngAnts:   src.Stream("ants"),
		rngCombat: src.Stream("combat"),
		rngColony: src.Stream("colony"),
		events:    NewEventLog(1000),
	}
	s.decayFactor = cfg.EffectiveDecayFactor(cols, rows)

	for i, nest := range nests {
		c := s.foundColony(i+1, nest)
		s.colonies = append(s.colonies, c)
		s.populateColony(c)
	}
	s.refreshCasteCounts()

	slog.Info("simulation created",
		"seed", seed, "cols", cols, "rows", rows,
		"colonies", colonyCount, "ants", len(s.ants))
	return s, nil
}

// foundColony builds the colony record and carves its starter chambers.
func (s *Simulation) foundColony(id int, nest world.Point) *Colony {
	c := &Colony{
		ID:        id,
		Nest:      nest,
		RaidTimer: s.rollRaidInterval(1),
		RoomTimer: s.cfg.Colony.RoomCheckIntervalSec,
	}

	for _, spec := range []struct {
		kind    RoomKind
		dx, dy  int
		radius  int
		cap     int
	}{
		{RoomHome, 0, 0, 2, 30},
		{RoomNursery, 5, 0, 2, 10},
		{RoomFoodStorage, 0, 5, 2, 40},
		{RoomBarracks, -5, 0, 2, 8},
	} {
		center := world.Point{X: nest.X + spec.dx, Y: nest.Y + spec.dy}
		center.X = clampI(center.X, 2, s.grid.Cols-3)
		center.Y = clampI(center.Y, 2, s.grid.Rows-3)
		s.carveRoom(nest, center, spec.radius)
		c.Rooms = append(c.Rooms, Room{
			Kind: spec.kind, Center: center, Radius: spec.radius, Capacity: spec.cap,
		})
	}
	return c
}

// carveRoom opens a chamber and a connecting corridor back to the nest.
func (s *Simulation) carveRoom(nest, center world.Point, radius int) {
	x, y := nest.X, nest.Y
	for x != center.X {
		s.grid.SetCell(x, y, world.CellAir)
		if x < center.X {
			x++
		} else {
			x--
		}
	}
	for y != center.Y {
		s.grid.SetCell(x, y, world.CellAir)
		if y < center.Y {
			y++
		} else {
			y--
		}
	}
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			cx, cy := center.X+dx, center.Y+dy
			if dx*dx+dy*dy <= radius*radius && s.grid.InBounds(cx, cy) {
				s.grid.SetCell(cx, cy, world.CellAir)
			}
		}
	}
}

// populateColony spawns the starting roster: one queen plus the configured
// mix of workers, soldiers, nurses, and builders.
func (s *Simulation) populateColony(c *Colony) {
	pop := s.cfg.Population
	s.spawnAt(c.ID, ants.CasteQueen, c.Nest)

	for i := 0; i < pop.InitialAnts; i++ {
		caste := ants.CasteWorker
		r := s.rngAnts.Float64()
		switch {
		case r < pop.SoldierRatio:
			caste = ants.CasteSoldier
		case r < pop.SoldierRatio+pop.NurseRatio:
			caste = ants.CasteNurse
		case r < pop.SoldierRatio+pop.NurseRatio+pop.BuilderRatio:
			caste = ants.CasteBuilder
		}
		s.spawnAt(c.ID, caste, c.Nest)
	}
}

// spawnAt creates one ant near a nest cell and adds it to the roster.
func (s *Simulation) spawnAt(colonyID int, caste ants.Caste, at world.Point) *ants.Ant {
	x := float64(at.X) + 0.5 + (s.rngAnts.Float64()-0.5)
	y := float64(at.Y) + 0.5 + (s.rngAnts.Float64()-0.5)
	angle := s.rngAnts.Float64() * 2 * math.Pi

	a := ants.New(s.nextID, colonyID, caste, x, y, angle, s.cfg.Energy.Capacity)
	s.nextID++

	if caste == ants.CasteWorker {
		a.Explorer = s.rngAnts.Float64() < s.cfg.Sensors.ExplorerRatio
	}
	if caste == ants.CasteQueen {
		a.LayTimer = s.cfg.Lifecycle.QueenLayIntervalSec
		a.GuideTimer = 5
		if c := s.colony(colonyID); c != nil && c.QueenID == 0 {
			c.QueenID = a.ID
		}
	}
	if caste == ants.CasteSoldier {
		a.PatrolPhase = s.rngAnts.Float64() * 2 * math.Pi
	}

	s.ants = append(s.ants, a)
	return a
}

// colony resolves a colony id, returning nil for raiders or stale ids.
func (s *Simulation) colony(id int) *Colony {
	if id < 1 || id > len(s.colonies) {
		return nil
	}
	return s.colonies[id-1]
}

// Update advances the simulation by dt seconds. This is the sole driver of
// simulated time. dt is clamped to the configured safety ceiling; a paused
// simulation ignores the call entirely.
func (s *Simulation) Update(dt float64) {
	if s.paused || dt <= 0 {
		return
	}
	if dt > s.cfg.World.MaxDT {
		dt = s.cfg.World.MaxDT
	}

	// (a) externally queued terrain edits flush at the tick boundary.
	s.applyEdits()

	// (b) pheromone decay across every layer.
	s.grid.Decay(s.decayFactor, s.cfg.Pheromone.DecayThreshold)

	// (c) periodic scent propagation from food.
	if s.cfg.Scent.Enabled && s.tick%uint64(s.cfg.Scent.IntervalTicks) == 0 && s.grid.ScentDirty() {
		s.grid.PropagateScent(s.cfg.Scent.Strength, s.cfg.Scent.Falloff, s.cfg.Scent.MaxRadius)
	}

	// (d) per-ant updates, in stable roster order.
	s.updateAnts(dt)

	// (e) combat over the rebuilt spatial hash.
	s.hash.rebuild(s.grid.Cols, s.grid.Rows, s.ants)
	s.resolveCombat()

	// (f) colony-level timers: raids, alerts, rooms, breeding, succession.
	s.advanceColonies(dt)

	// (g) derived caches for O(1) external queries.
	s.refreshCasteCounts()

	s.tick++
	s.simTime += dt
}

// updateAnts runs the per-ant contract and applies the resulting side
// effects. Ants spawned this tick first update next tick.
func (s *Simulation) updateAnts(dt float64) {
	var stuck map[uint64]bool

	n := len(s.ants)
	env := ants.Env{
		Cfg:        s.cfg,
		Grid:       s.grid,
		Rng:        s.rngAnts,
		DT:         dt,
		NestRadius: s.cfg.Colony.NestRadius,
	}

	for i := 0; i < n; i++ {
		a := s.ants[i]
		if !a.Alive() {
			continue
		}

		if c := s.colony(a.ColonyID); c != nil {
			env.Nest = c.Nest
			env.AlertActive = c.AlertActive() && a.Caste == ants.CasteSoldier
			env.AlertX, env.AlertY = c.AlertX, c.AlertY
		} else {
			// Raider: charge the nest recorded in its task.
			env.Nest = a.Task
			env.AlertActive = true
			env.AlertX = float64(a.Task.X) + 0.5
			env.AlertY = float64(a.Task.Y) + 0.5
		}

		out := ants.Update(a, &env)

		if out.DeliveredFood {
			s.onDelivery(a)
		}
		if out.LaidEgg {
			egg := s.spawnAt(a.ColonyID, ants.CasteEgg, a.Cell())
			egg.X, egg.Y = a.X, a.Y
			s.births++
		}
		if out.Matured {
			s.promoteLarva(a)
		}
		if out.TaskComplete {
			s.events.Add(Event{Tick: s.tick, Category: "construction",
				Description: fmt.Sprintf("builder #%d opened a chamber cell", a.ID)})
		}
		if out.Stuck {
			if stuck == nil {
				stuck = make(map[uint64]bool)
			}
			stuck[a.ID] = true
		}
	}

	if stuck != nil {
		kept := s.ants[:0]
		for _, a := range s.ants {
			if stuck[a.ID] {
				s.events.Add(Event{Tick: s.tick, Category: "death",
					Description: fmt.Sprintf("%s #%d removed after making no progress", a.Caste, a.ID)})
				s.deaths++
				continue
			}
			kept = append(kept, a)
		}
		s.ants = kept
	}
}

// onDelivery credits the colony and spawns a bonus worker when the food
// threshold rolls over.
func (s *Simulation) onDelivery(a *ants.Ant) {
	c := s.colony(a.ColonyID)
	if c == nil {
		return
	}
	c.Food++
	c.FoodSinceSpawn++
	if c.FoodSinceSpawn >= s.cfg.Lifecycle.FoodPerSpawn {
		c.FoodSinceSpawn -= s.cfg.Lifecycle.FoodPerSpawn
		s.spawnAt(c.ID, ants.CasteWorker, c.Nest)
		s.births++
		s.events.Add(Event{Tick: s.tick, Category: "birth",
			Description: fmt.Sprintf("colony %d raised a new worker", c.ID)})
	}
}

// promoteLarva turns a mature larva into the adult caste its colony most
// lacks relative to the configured ratios.
func (s *Simulation) promoteLarva(a *ants.Ant) {
	c := s.colony(a.ColonyID)
	caste := ants.CasteWorker
	if c != nil {
		adults := c.Adults()
		if adults > 0 {
			pop := s.cfg.Population
			switch {
			case float64(c.CasteCounts[ants.CasteSoldier]) < pop.SoldierRatio*float64(adults):
				caste = ants.CasteSoldier
			case float64(c.CasteCounts[ants.CasteNurse]) < pop.NurseRatio*float64(adults):
				caste = ants.CasteNurse
			case float64(c.CasteCounts[ants.CasteBuilder]) < pop.BuilderRatio*float64(adults):
				caste = ants.CasteBuilder
			}
		}
	}
	a.Promote(caste, s.cfg.Energy.Capacity)
	if caste == ants.CasteWorker {
		a.Explorer = s.rngAnts.Float64() < s.cfg.Sensors.ExplorerRatio
	}
	s.births++
	s.events.Add(Event{Tick: s.tick, Category: "birth",
		Description: fmt.Sprintf("larva #%d matured into a %s in colony %d", a.ID, caste, a.ColonyID)})
}

// refreshCasteCounts rebuilds every colony's cached per-caste population.
func (s *Simulation) refreshCasteCounts() {
	for _, c := range s.colonies {
		c.CasteCounts = [ants.NumCastes]int{}
	}
	for _, a := range s.ants {
		if c := s.colony(a.ColonyID); c != nil {
			c.CasteCounts[a.Caste]++
		}
	}
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
