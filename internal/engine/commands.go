// Public command and query surface: everything external collaborators (UI,
// editing tools, persistence, the HTTP API) may call between ticks.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/nantestudio/antworld/internal/ants"
	"github.com/nantestudio/antworld/internal/config"
	"github.com/nantestudio/antworld/internal/world"
)

// EditKind enumerates brush-style terrain edits.
type EditKind uint8

const (
	EditDig EditKind = iota
	EditPlaceFood
	EditPlaceRock
)

// Edit is a queued brush edit, applied at the next tick boundary.
type Edit struct {
	Kind   EditKind `json:"kind"`
	X      int      `json:"x"`
	Y      int      `json:"y"`
	Radius int      `json:"radius"`
}

// QueueEdit buffers a terrain edit for the next tick. Out-of-range centers
// are dropped at apply time; radius is clamped to a sane brush size.
func (s *Simulation) QueueEdit(e Edit) {
	if e.Radius < 0 {
		e.Radius = 0
	}
	if e.Radius > 10 {
		e.Radius = 10
	}
	s.edits = append(s.edits, e)
}

// applyEdits flushes the queued brush edits.
func (s *Simulation) applyEdits() {
	for _, e := range s.edits {
		for dy := -e.Radius; dy <= e.Radius; dy++ {
			for dx := -e.Radius; dx <= e.Radius; dx++ {
				if dx*dx+dy*dy > e.Radius*e.Radius {
					continue
				}
				x, y := e.X+dx, e.Y+dy
				if !s.grid.InBounds(x, y) {
					continue
				}
				switch e.Kind {
				case EditDig:
					s.grid.SetCell(x, y, world.CellAir)
				case EditPlaceFood:
					s.grid.SetCell(x, y, world.CellFood)
				case EditPlaceRock:
					s.grid.SetCell(x, y, world.CellRock)
				}
			}
		}
	}
	s.edits = s.edits[:0]
}

// AddAnts spawns n workers, round-robin across colonies at their nests.
func (s *Simulation) AddAnts(n int) {
	if len(s.colonies) == 0 {
		return
	}
	for i := 0; i < n; i++ {
		c := s.colonies[i%len(s.colonies)]
		s.spawnAt(c.ID, ants.CasteWorker, c.Nest)
	}
	s.refreshCasteCounts()
}

// RemoveAnts removes up to n ants from the tail of the roster, sparing
// queens.
func (s *Simulation) RemoveAnts(n int) {
	for i := len(s.ants) - 1; i >= 0 && n > 0; i-- {
		if s.ants[i].Caste == ants.CasteQueen {
			continue
		}
		s.ants = append(s.ants[:i], s.ants[i+1:]...)
		n--
	}
	s.refreshCasteCounts()
}

// ScatterFood drops food patches on random open cells.
func (s *Simulation) ScatterFood(clusters, radius int) {
	if radius < 1 {
		radius = 1
	}
	for c := 0; c < clusters; c++ {
		x := s.rngColony.Intn(s.grid.Cols)
		y := s.rngColony.Intn(s.grid.Rows)
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				if dx*dx+dy*dy > radius*radius {
					continue
				}
				cx, cy := x+dx, y+dy
				if !s.grid.InBounds(cx, cy) || s.grid.CellTypeAt(cx, cy) != world.CellAir {
					continue
				}
				if s.rngColony.Float64() < 0.5 {
					s.grid.SetCell(cx, cy, world.CellFood)
				}
			}
		}
	}
}

// GenerateRandomWorld discards the current state and builds a fresh world.
// On generation failure the previous world remains intact. Must not be
// called while a tick is in flight.
func (s *Simulation) GenerateRandomWorld(seed int64, cols, rows, colonyCount int) error {
	fresh, err := newFromSeed(s.cfg, seed, cols, rows, colonyCount)
	if err != nil {
		return fmt.Errorf("generate random world: %w", err)
	}
	*s = *fresh
	return nil
}

// ResizeWorld regenerates the world at new dimensions with the current seed
// and colony count, invalidating all prior state. Fails fast on bad sizes,
// leaving the prior world intact.
func (s *Simulation) ResizeWorld(cols, rows int) error {
	return s.GenerateRandomWorld(s.seed, cols, rows, len(s.colonies))
}

// TogglePause flips the paused flag and returns the new value.
func (s *Simulation) TogglePause() bool {
	s.paused = !s.paused
	return s.paused
}

// Paused reports whether ticking is suspended.
func (s *Simulation) Paused() bool {
	return s.paused
}

// Tune applies a config mutation, re-clamps every value, and refreshes the
// derived decay factor. All tunables take effect on the next tick without a
// restart.
func (s *Simulation) Tune(fn func(*config.Config)) {
	fn(s.cfg)
	s.cfg.Clamp()
	s.decayFactor = s.cfg.EffectiveDecayFactor(s.grid.Cols, s.grid.Rows)
}

// SetSpeedMultiplier adjusts the global speed multiplier.
func (s *Simulation) SetSpeedMultiplier(v float64) {
	s.Tune(func(c *config.Config) { c.Movement.SpeedMultiplier = v })
}

// SetDecay adjusts the pheromone decay factor and removal threshold.
func (s *Simulation) SetDecay(factor, threshold float64) {
	s.Tune(func(c *config.Config) {
		c.Pheromone.DecayFactor = factor
		c.Pheromone.DecayThreshold = threshold
	})
}

// SetSensorGeometry adjusts the sensing rays.
func (s *Simulation) SetSensorGeometry(angle float64, distance int) {
	s.Tune(func(c *config.Config) {
		c.Sensors.Angle = angle
		c.Sensors.Distance = distance
	})
}

// SetDepositStrengths adjusts the pheromone deposit amounts.
func (s *Simulation) SetDepositStrengths(home, food, trail float64) {
	s.Tune(func(c *config.Config) {
		c.Pheromone.DepositHome = home
		c.Pheromone.DepositFood = food
		c.Pheromone.DepositTrail = trail
	})
}

// SetExplorerRatio adjusts the explorer fraction and re-rolls every worker's
// explorer flag against the new ratio.
func (s *Simulation) SetExplorerRatio(ratio float64) {
	s.Tune(func(c *config.Config) { c.Sensors.ExplorerRatio = ratio })
	for _, a := range s.ants {
		if a.Caste == ants.CasteWorker {
			a.Explorer = s.rngAnts.Float64() < s.cfg.Sensors.ExplorerRatio
		}
	}
	slog.Debug("explorer ratio applied", "ratio", s.cfg.Sensors.ExplorerRatio)
}

// ── Read-only queries ─────────────────────────────────────────────────────

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() uint64 { return s.tick }

// SimTime returns accumulated simulated seconds.
func (s *Simulation) SimTime() float64 { return s.simTime }

// Seed returns the seed the current world was generated from.
func (s *Simulation) Seed() int64 { return s.seed }

// Config returns a copy of the live configuration.
func (s *Simulation) Config() config.Config { return *s.cfg }

// Grid exposes the world grid for read-only observers (rendering, trail
// visualization). Mutating it outside the tick contract is a caller bug.
func (s *Simulation) Grid() *world.Grid { return s.grid }

// AntCount returns the live roster size.
func (s *Simulation) AntCount() int { return len(s.ants) }

// Ants returns a copy of the roster slice for rendering. The pointed-to ants
// are live; observers must not mutate them.
func (s *Simulation) Ants() []*ants.Ant {
	out := make([]*ants.Ant, len(s.ants))
	copy(out, s.ants)
	return out
}

// Colonies returns value copies of every colony's current state.
func (s *Simulation) Colonies() []Colony {
	out := make([]Colony, len(s.colonies))
	for i, c := range s.colonies {
		out[i] = *c
	}
	return out
}

// Events returns up to n recent events, newest last.
func (s *Simulation) Events(n int) []Event {
	return s.events.Recent(n)
}

// Births and Deaths return lifetime counters.
func (s *Simulation) Births() uint64 { return s.births }
func (s *Simulation) Deaths() uint64 { return s.deaths }
