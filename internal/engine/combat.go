package engine

import (
	"fmt"
	"math"

	"github.com/nantestudio/antworld/internal/ants"
)

// spatialHash buckets ant indices by grid cell so neighbor lookups for combat
// stay O(n) per tick instead of O(n²). Rebuilt from scratch every tick.
type spatialHash struct {
	cols, rows int
	buckets    map[int][]int
}

func (h *spatialHash) rebuild(cols, rows int, roster []*ants.Ant) {
	h.cols, h.rows = cols, rows
	h.buckets = make(map[int][]int, len(roster))
	for i, a := range roster {
		if !a.Alive() {
			continue
		}
		key := h.key(a.X, a.Y)
		h.buckets[key] = append(h.buckets[key], i)
	}
}

func (h *spatialHash) key(x, y float64) int {
	cx := int(x)
	cy := int(y)
	if cx < 0 {
		cx = 0
	} else if cx >= h.cols {
		cx = h.cols - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= h.rows {
		cy = h.rows - 1
	}
	return cy*h.cols + cx
}

// neighbors appends the roster indices in the 3×3 cell block around (x, y) in
// deterministic bucket-then-insertion order.
func (h *spatialHash) neighbors(x, y float64, out []int) []int {
	cx := int(x)
	cy := int(y)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := cx+dx, cy+dy
			if nx < 0 || nx >= h.cols || ny < 0 || ny >= h.rows {
				continue
			}
			out = append(out, h.buckets[ny*h.cols+nx]...)
		}
	}
	return out
}

// resolveCombat runs cross-colony engagements for this tick. For every enemy
// pair inside the engagement radius each side rolls its caste engagement
// chance independently; a committed side deals
// attack × variance − defense × mitigation. Deaths are queued and applied
// once after the scan.
func (s *Simulation) resolveCombat() {
	cfg := s.cfg
	radius := cfg.Combat.EngagementRadius
	scratch := make([]int, 0, 16)

	for i, a := range s.ants {
		if !a.Alive() {
			continue
		}
		scratch = s.hash.neighbors(a.X, a.Y, scratch[:0])
		for _, j := range scratch {
			if j <= i {
				continue
			}
			b := s.ants[j]
			if !b.Alive() || a.ColonyID == b.ColonyID {
				continue
			}
			if math.Hypot(a.X-b.X, a.Y-b.Y) > radius {
				continue
			}
			s.engage(a, b)
			s.engage(b, a)
		}
	}

	s.reapDead()
}

// engage rolls one side's commitment and applies its strike.
func (s *Simulation) engage(attacker, defender *ants.Ant) {
	if !attacker.Alive() || !defender.Alive() {
		return
	}
	atkStats := ants.StatsFor(attacker.Caste)
	defStats := ants.StatsFor(defender.Caste)
	if s.rngCombat.Float64() >= atkStats.EngageChance {
		return
	}

	attack := atkStats.Attack
	defense := defStats.Defense

	// Soldiers fighting under an active defense alert strike and absorb
	// harder.
	if attacker.Caste == ants.CasteSoldier && s.alertFor(attacker.ColonyID) {
		attack *= 1.3
	}
	if defender.Caste == ants.CasteSoldier && s.alertFor(defender.ColonyID) {
		defense *= 1.2
	}

	cfg := s.cfg
	variance := cfg.Combat.VarianceMin + s.rngCombat.Float64()*(cfg.Combat.VarianceMax-cfg.Combat.VarianceMin)
	dmg := attack*variance - defense*cfg.Combat.Mitigation
	if dmg <= 0 {
		return
	}
	defender.HP -= dmg
}

// alertFor reports whether a colony id has an active defense alert.
func (s *Simulation) alertFor(colonyID int) bool {
	if c := s.colony(colonyID); c != nil {
		return c.AlertActive()
	}
	return false
}

// reapDead removes every ant at or below zero HP, emitting exactly one death
// event each.
func (s *Simulation) reapDead() {
	kept := s.ants[:0]
	for _, a := range s.ants {
		if a.Alive() {
			kept = append(kept, a)
			continue
		}
		s.events.Add(Event{
			Tick:        s.tick,
			Description: fmt.Sprintf("%s #%d of colony %d was slain", a.Caste, a.ID, a.ColonyID),
			Category:    "death",
		})
		s.deaths++
	}
	s.ants = kept
}
