package engine

import (
	"github.com/nantestudio/antworld/internal/ants"
	"github.com/nantestudio/antworld/internal/world"
)

// RoomKind classifies a colony chamber.
type RoomKind uint8

const (
	RoomHome RoomKind = iota
	RoomNursery
	RoomFoodStorage
	RoomBarracks
)

// String returns the room display name.
func (k RoomKind) String() string {
	switch k {
	case RoomHome:
		return "home"
	case RoomNursery:
		return "nursery"
	case RoomFoodStorage:
		return "foodStorage"
	case RoomBarracks:
		return "barracks"
	default:
		return "unknown"
	}
}

// Room is a chamber with a capacity; occupancy above capacity queues
// expansion blueprints for builders.
type Room struct {
	Kind     RoomKind    `json:"kind"`
	Center   world.Point `json:"center"`
	Radius   int         `json:"radius"`
	Capacity int         `json:"capacity"`
}

// Contains reports whether a position lies inside the room.
func (r *Room) Contains(x, y float64) bool {
	dx := x - (float64(r.Center.X) + 0.5)
	dy := y - (float64(r.Center.Y) + 0.5)
	rad := float64(r.Radius)
	return dx*dx+dy*dy <= rad*rad
}

// Blueprint is a queued room construction target: a chamber footprint whose
// dirt cells builders dig out. Once every cell is open the room goes live.
type Blueprint struct {
	Kind   RoomKind    `json:"kind"`
	Center world.Point `json:"center"`
	Radius int         `json:"radius"`
}

// Colony is the aggregate state for one colony. Ants reference it only by ID.
type Colony struct {
	ID   int         `json:"id"`
	Nest world.Point `json:"nest"`

	// Food delivered and banked. FoodSinceSpawn accumulates toward the
	// per-ant spawn threshold.
	Food           float64 `json:"food"`
	FoodSinceSpawn float64 `json:"food_since_spawn"`

	QueenID uint64 `json:"queen_id"` // 0 = no queen (degraded colony)

	// Timers, all in simulation seconds counting down.
	RaidTimer  float64 `json:"raid_timer"`
	RoomTimer  float64 `json:"room_timer"`
	AlertTimer float64 `json:"alert_timer"`

	// Defense alert broadcast to soldiers while AlertTimer > 0.
	AlertX float64 `json:"alert_x"`
	AlertY float64 `json:"alert_y"`

	Rooms      []Room      `json:"rooms"`
	Blueprints []Blueprint `json:"blueprints"` // Chambers awaiting excavation

	// Cached per-caste population, refreshed at the end of every tick.
	CasteCounts [ants.NumCastes]int `json:"caste_counts"`
}

// AlertActive reports whether the colony is broadcasting a defense target.
func (c *Colony) AlertActive() bool {
	return c.AlertTimer > 0
}

// Population returns the colony's total live ants including brood.
func (c *Colony) Population() int {
	n := 0
	for _, v := range c.CasteCounts {
		n += v
	}
	return n
}

// Adults returns the mobile population.
func (c *Colony) Adults() int {
	return c.Population() - c.CasteCounts[ants.CasteEgg] - c.CasteCounts[ants.CasteLarva]
}

// roomOfKind returns the first room of a kind, or nil.
func (c *Colony) roomOfKind(k RoomKind) *Room {
	for i := range c.Rooms {
		if c.Rooms[i].Kind == k {
			return &c.Rooms[i]
		}
	}
	return nil
}
