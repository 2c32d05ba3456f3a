// Package ants provides the single-agent model: caste stats, the
// forage/return/rest state machine, pheromone sensing, and movement.
package ants

// Caste is an ant's functional role. It determines combat stats, speed, and
// which behavior branch runs each tick.
type Caste uint8

const (
	CasteWorker Caste = iota
	CasteSoldier
	CasteNurse
	CasteQueen
	CastePrincess
	CasteDrone
	CasteBuilder
	CasteEgg
	CasteLarva

	casteCount
)

// NumCastes is the number of caste variants, for sizing count tables.
const NumCastes = int(casteCount)

// Stats is the static per-caste stat block. Engagement chance is the
// probability the caste commits to combat when an enemy is in range.
type Stats struct {
	MaxHP        float64
	Attack       float64
	Defense      float64
	SpeedScale   float64 // Multiplier on the configured base speed
	EngageChance float64
}

// casteStats is the fixed caste stat table.
var casteStats = [casteCount]Stats{
	CasteWorker:   {MaxHP: 10, Attack: 2, Defense: 1, SpeedScale: 1.0, EngageChance: 0.2},
	CasteSoldier:  {MaxHP: 25, Attack: 6, Defense: 3, SpeedScale: 0.9, EngageChance: 0.9},
	CasteNurse:    {MaxHP: 8, Attack: 1, Defense: 1, SpeedScale: 0.9, EngageChance: 0.1},
	CasteQueen:    {MaxHP: 60, Attack: 4, Defense: 4, SpeedScale: 0.35, EngageChance: 0.5},
	CastePrincess: {MaxHP: 40, Attack: 3, Defense: 3, SpeedScale: 0.5, EngageChance: 0.3},
	CasteDrone:    {MaxHP: 12, Attack: 1, Defense: 1, SpeedScale: 0.8, EngageChance: 0.1},
	CasteBuilder:  {MaxHP: 12, Attack: 2, Defense: 2, SpeedScale: 0.9, EngageChance: 0.2},
	CasteEgg:      {MaxHP: 3},
	CasteLarva:    {MaxHP: 4},
}

// StatsFor returns the stat block for a caste.
func StatsFor(c Caste) Stats {
	if c >= casteCount {
		return Stats{}
	}
	return casteStats[c]
}

// Mobile reports whether the caste moves under its own power.
func (c Caste) Mobile() bool {
	return c != CasteEgg && c != CasteLarva
}

// Forages reports whether the caste participates in the food pickup cycle.
func (c Caste) Forages() bool {
	return c == CasteWorker
}

// String returns the caste display name.
func (c Caste) String() string {
	switch c {
	case CasteWorker:
		return "worker"
	case CasteSoldier:
		return "soldier"
	case CasteNurse:
		return "nurse"
	case CasteQueen:
		return "queen"
	case CastePrincess:
		return "princess"
	case CasteDrone:
		return "drone"
	case CasteBuilder:
		return "builder"
	case CasteEgg:
		return "egg"
	case CasteLarva:
		return "larva"
	default:
		return "unknown"
	}
}
