package ants

import (
	"github.com/nantestudio/antworld/internal/world"
)

// State is the ant's top-level behavioral state.
type State uint8

const (
	StateForage State = iota
	StateReturnHome
	StateRest
)

// String returns the state display name.
func (s State) String() string {
	switch s {
	case StateForage:
		return "forage"
	case StateReturnHome:
		return "returnHome"
	case StateRest:
		return "rest"
	default:
		return "unknown"
	}
}

// Ant is a single agent. Colony association is an opaque id resolved through
// the orchestrator's registry; an ant never holds a reference to its colony.
type Ant struct {
	ID       uint64 `json:"id"`
	ColonyID int    `json:"colony_id"`
	Caste    Caste  `json:"caste"`

	// Continuous position in cell units and heading in radians (unnormalized).
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`

	Energy   float64 `json:"energy"`
	HP       float64 `json:"hp"`
	State    State   `json:"state"`
	Carrying bool    `json:"carrying"`
	Age      float64 `json:"age"` // Seconds alive
	Explorer bool    `json:"explorer"`

	// prevState is where a resting ant returns once energy recovers.
	PrevState State `json:"prev_state"`

	// Caste-specific timers. Growth is egg/larva maturation progress in
	// seconds; LayTimer counts down to the queen's next egg; GuideTimer
	// counts down to the queen's next worker-guidance pass; PatrolPhase
	// parameterizes the soldier patrol ring.
	Growth      float64 `json:"growth,omitempty"`
	LayTimer    float64 `json:"lay_timer,omitempty"`
	GuideTimer  float64 `json:"guide_timer,omitempty"`
	PatrolPhase float64 `json:"patrol_phase,omitempty"`

	// Builder task: target cell of the blueprint under construction.
	// Valid only while HasTask is true.
	HasTask bool        `json:"has_task,omitempty"`
	Task    world.Point `json:"task,omitempty"`

	// Stuck detection: anchor of the last confirmed net progress and seconds
	// spent without it.
	AnchorX   float64 `json:"anchor_x"`
	AnchorY   float64 `json:"anchor_y"`
	StuckTime float64 `json:"stuck_time"`
}

// New creates an adult ant of the given caste at a position, fully rested.
func New(id uint64, colonyID int, caste Caste, x, y, angle, energyCapacity float64) *Ant {
	return &Ant{
		ID:       id,
		ColonyID: colonyID,
		Caste:    caste,
		X:        x,
		Y:        y,
		Angle:    angle,
		Energy:   energyCapacity,
		HP:       StatsFor(caste).MaxHP,
		State:    StateForage,
		AnchorX:  x,
		AnchorY:  y,
	}
}

// Alive reports whether the ant is still in play.
func (a *Ant) Alive() bool {
	return a.HP > 0
}

// Cell returns the grid cell the ant currently occupies.
func (a *Ant) Cell() world.Point {
	return world.Point{X: int(a.X), Y: int(a.Y)}
}

// Promote rebuilds the ant as a new caste in place, keeping its identity and
// position. Used for egg→larva and larva→adult transitions and for princess
// succession.
func (a *Ant) Promote(to Caste, energyCapacity float64) {
	a.Caste = to
	a.HP = StatsFor(to).MaxHP
	a.Energy = energyCapacity
	a.State = StateForage
	a.Growth = 0
	a.StuckTime = 0
	a.AnchorX, a.AnchorY = a.X, a.Y
}
