package engine

import (
	"fmt"
	"math"

	"github.com/nantestudio/antworld/internal/ants"
	"github.com/nantestudio/antworld/internal/world"
)

// droneEscortSize is how many drones accompany each new princess.
const droneEscortSize = 2

// advanceColonies runs the colony-level bookkeeping for one tick: defense
// alerts, raid countdowns, breeding and succession, room capacity checks,
// and builder/nurse task assignment.
func (s *Simulation) advanceColonies(dt float64) {
	for _, c := range s.colonies {
		s.updateDefenseAlert(c, dt)
		s.updateRaidTimer(c, dt)
		s.updateBreeding(c)
		s.updateSuccession(c)
		s.updateRooms(c, dt)
		s.assignBuilders(c)
		s.assignNurses(c)
	}
}

// updateDefenseAlert scans for enemies near the nest and broadcasts the
// first one found as the attack target for soldiers.
func (s *Simulation) updateDefenseAlert(c *Colony, dt float64) {
	wasActive := c.AlertActive()
	c.AlertTimer -= dt

	radius := s.cfg.Colony.DefenseAlertRadius
	nx := float64(c.Nest.X) + 0.5
	ny := float64(c.Nest.Y) + 0.5

	for _, a := range s.ants {
		if a.ColonyID == c.ID || !a.Alive() {
			continue
		}
		if math.Hypot(a.X-nx, a.Y-ny) <= radius {
			c.AlertTimer = s.cfg.Colony.DefenseAlertSec
			c.AlertX, c.AlertY = a.X, a.Y
			if !wasActive {
				s.events.Add(Event{Tick: s.tick, Category: "raid",
					Description: fmt.Sprintf("colony %d is under attack", c.ID)})
			}
			return
		}
	}
}

// updateRaidTimer counts down to the next enemy raid against this colony.
func (s *Simulation) updateRaidTimer(c *Colony, dt float64) {
	c.RaidTimer -= dt
	if c.RaidTimer > 0 {
		return
	}
	c.RaidTimer = s.rollRaidInterval(c.Adults())
	s.spawnRaid(c)
}

// rollRaidInterval draws the next raid delay. Larger colonies attract raids
// more often.
func (s *Simulation) rollRaidInterval(adults int) float64 {
	cfg := s.cfg.Colony
	base := cfg.RaidMinSec + s.rngColony.Float64()*(cfg.RaidMaxSec-cfg.RaidMinSec)
	return base / (1 + float64(adults)/50)
}

// spawnRaid drops a party of hostile soldiers on a walkable cell far from
// the target nest. Raiders carry colony id 0 and home on the nest.
func (s *Simulation) spawnRaid(c *Colony) {
	at, ok := s.raidEntryPoint(c.Nest)
	if !ok {
		return
	}

	size := s.cfg.Colony.RaidSizeBase + c.Adults()/15
	for i := 0; i < size; i++ {
		r := s.spawnAt(raiderColonyID, ants.CasteSoldier, at)
		r.HasTask = true
		r.Task = c.Nest
	}
	s.events.Add(Event{Tick: s.tick, Category: "raid",
		Description: fmt.Sprintf("%d raiders approach colony %d", size, c.ID)})
}

// raidEntryPoint picks the walkable cell furthest from the nest, preferring
// map-edge tunnels. Deterministic scan order.
func (s *Simulation) raidEntryPoint(nest world.Point) (world.Point, bool) {
	best := world.Point{}
	bestDist := -1.0
	for y := 0; y < s.grid.Rows; y++ {
		for x := 0; x < s.grid.Cols; x++ {
			if !s.grid.Walkable(x, y) {
				continue
			}
			d := math.Hypot(float64(x-nest.X), float64(y-nest.Y))
			if d > bestDist {
				bestDist = d
				best = world.Point{X: x, Y: y}
			}
		}
	}
	return best, bestDist >= 0
}

// updateBreeding spawns a princess, escorted by drones, once the colony has
// banked enough food. Production costs half the threshold.
func (s *Simulation) updateBreeding(c *Colony) {
	if c.QueenID == 0 || c.CasteCounts[ants.CastePrincess] > 0 {
		return
	}
	threshold := s.cfg.Lifecycle.PrincessFoodThreshold
	if c.Food < threshold {
		return
	}
	c.Food -= threshold / 2
	s.spawnAt(c.ID, ants.CastePrincess, c.Nest)
	s.births++
	for i := 0; i < droneEscortSize; i++ {
		s.spawnAt(c.ID, ants.CasteDrone, c.Nest)
		s.births++
	}
	s.events.Add(Event{Tick: s.tick, Category: "birth",
		Description: fmt.Sprintf("colony %d raised a princess and %d drones", c.ID, droneEscortSize)})
}

// updateSuccession promotes a princess when the queen has died. Without a
// princess the colony degrades: it keeps ticking but lays no more eggs.
func (s *Simulation) updateSuccession(c *Colony) {
	if c.QueenID != 0 && s.antByID(c.QueenID) != nil {
		return
	}
	c.QueenID = 0

	for _, a := range s.ants {
		if a.ColonyID != c.ID || a.Caste != ants.CastePrincess || !a.Alive() {
			continue
		}
		a.Promote(ants.CasteQueen, s.cfg.Energy.Capacity)
		a.LayTimer = s.cfg.Lifecycle.QueenLayIntervalSec
		a.GuideTimer = 5
		c.QueenID = a.ID
		s.events.Add(Event{Tick: s.tick, Category: "succession",
			Description: fmt.Sprintf("princess #%d ascended as queen of colony %d", a.ID, c.ID)})
		return
	}
}

// antByID finds a live ant by id. Linear scan; used only on the rare
// succession path.
func (s *Simulation) antByID(id uint64) *ants.Ant {
	for _, a := range s.ants {
		if a.ID == id && a.Alive() {
			return a
		}
	}
	return nil
}

// updateRooms periodically checks room occupancy and queues expansion
// blueprints for crowded chambers.
func (s *Simulation) updateRooms(c *Colony, dt float64) {
	c.RoomTimer -= dt
	if c.RoomTimer > 0 {
		s.completeBlueprints(c)
		return
	}
	c.RoomTimer = s.cfg.Colony.RoomCheckIntervalSec

	for i := range c.Rooms {
		room := &c.Rooms[i]
		if s.roomOccupancy(c, room) <= room.Capacity {
			continue
		}
		if c.hasBlueprint(room.Kind) {
			continue
		}
		bp, ok := s.planRoom(c, room.Kind)
		if !ok {
			continue
		}
		c.Blueprints = append(c.Blueprints, bp)
		s.events.Add(Event{Tick: s.tick, Category: "construction",
			Description: fmt.Sprintf("colony %d planned a new %s chamber", c.ID, bp.Kind)})
	}
	s.completeBlueprints(c)
}

// roomOccupancy counts the population a room kind is responsible for.
func (s *Simulation) roomOccupancy(c *Colony, room *Room) int {
	switch room.Kind {
	case RoomFoodStorage:
		return int(c.Food)
	case RoomNursery:
		return c.CasteCounts[ants.CasteEgg] + c.CasteCounts[ants.CasteLarva]
	case RoomBarracks:
		return c.CasteCounts[ants.CasteSoldier]
	default:
		return c.Adults()
	}
}

func (c *Colony) hasBlueprint(k RoomKind) bool {
	for _, bp := range c.Blueprints {
		if bp.Kind == k {
			return true
		}
	}
	return false
}

// planRoom picks a chamber footprint in the dirt near the nest.
func (s *Simulation) planRoom(c *Colony, kind RoomKind) (Blueprint, bool) {
	for attempt := 0; attempt < 20; attempt++ {
		ang := s.rngColony.Float64() * 2 * math.Pi
		dist := 7 + s.rngColony.Float64()*5
		x := c.Nest.X + int(math.Cos(ang)*dist)
		y := c.Nest.Y + int(math.Sin(ang)*dist)
		if !s.grid.InBounds(x-2, y-2) || !s.grid.InBounds(x+2, y+2) {
			continue
		}
		return Blueprint{Kind: kind, Center: world.Point{X: x, Y: y}, Radius: 2}, true
	}
	return Blueprint{}, false
}

// completeBlueprints promotes fully dug blueprints into live rooms.
func (s *Simulation) completeBlueprints(c *Colony) {
	kept := c.Blueprints[:0]
	for _, bp := range c.Blueprints {
		if _, pending := s.blueprintDirtCell(bp); pending {
			kept = append(kept, bp)
			continue
		}
		c.Rooms = append(c.Rooms, Room{
			Kind: bp.Kind, Center: bp.Center, Radius: bp.Radius,
			Capacity: defaultRoomCapacity(bp.Kind),
		})
		s.events.Add(Event{Tick: s.tick, Category: "construction",
			Description: fmt.Sprintf("colony %d opened a new %s chamber", c.ID, bp.Kind)})
	}
	c.Blueprints = kept
}

// blueprintDirtCell returns the first still-solid dirt cell of a blueprint
// footprint, scanning in fixed order.
func (s *Simulation) blueprintDirtCell(bp Blueprint) (world.Point, bool) {
	r := bp.Radius
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			x, y := bp.Center.X+dx, bp.Center.Y+dy
			if !s.grid.InBounds(x, y) {
				continue
			}
			if s.grid.CellTypeAt(x, y) == world.CellDirt {
				return world.Point{X: x, Y: y}, true
			}
		}
	}
	return world.Point{}, false
}

func defaultRoomCapacity(k RoomKind) int {
	switch k {
	case RoomNursery:
		return 10
	case RoomBarracks:
		return 8
	case RoomFoodStorage:
		return 40
	default:
		return 30
	}
}

// assignBuilders hands idle builders the next dirt cell of the colony's
// oldest blueprint.
func (s *Simulation) assignBuilders(c *Colony) {
	if len(c.Blueprints) == 0 {
		return
	}
	cell, pending := s.blueprintDirtCell(c.Blueprints[0])
	if !pending {
		return
	}
	for _, a := range s.ants {
		if a.ColonyID != c.ID || a.Caste != ants.CasteBuilder || a.HasTask || !a.Alive() {
			continue
		}
		a.HasTask = true
		a.Task = cell
	}
}

// assignNurses sends idle nurses to brood lying outside the nursery and
// completes the hand-off when a tasked nurse reaches its charge.
func (s *Simulation) assignNurses(c *Colony) {
	nursery := c.roomOfKind(RoomNursery)
	if nursery == nil {
		return
	}

	// Complete deliveries first: a nurse standing on its task cell moves the
	// nearest stray brood item into the nursery.
	for _, nurse := range s.ants {
		if nurse.ColonyID != c.ID || nurse.Caste != ants.CasteNurse || !nurse.HasTask || !nurse.Alive() {
			continue
		}
		tx := float64(nurse.Task.X) + 0.5
		ty := float64(nurse.Task.Y) + 0.5
		if math.Hypot(nurse.X-tx, nurse.Y-ty) > 1.2 {
			continue
		}
		for _, brood := range s.ants {
			if brood.ColonyID != c.ID || brood.Caste.Mobile() || !brood.Alive() {
				continue
			}
			if nursery.Contains(brood.X, brood.Y) {
				continue
			}
			if math.Hypot(brood.X-tx, brood.Y-ty) <= 1.5 {
				if spot, ok := s.nurserySpot(nursery); ok {
					brood.X = float64(spot.X) + 0.5
					brood.Y = float64(spot.Y) + 0.5
				}
				break
			}
		}
		nurse.HasTask = false
	}

	// Then issue new tasks for brood still outside the nursery.
	for _, brood := range s.ants {
		if brood.ColonyID != c.ID || brood.Caste.Mobile() || !brood.Alive() {
			continue
		}
		if nursery.Contains(brood.X, brood.Y) {
			continue
		}
		nurse := s.idleNurse(c)
		if nurse == nil {
			return
		}
		nurse.HasTask = true
		nurse.Task = brood.Cell()
	}
}

// nurserySpot finds a walkable cell inside the nursery, scanning outward from
// the center.
func (s *Simulation) nurserySpot(nursery *Room) (world.Point, bool) {
	r := nursery.Radius
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			x, y := nursery.Center.X+dx, nursery.Center.Y+dy
			if s.grid.InBounds(x, y) && s.grid.Walkable(x, y) {
				return world.Point{X: x, Y: y}, true
			}
		}
	}
	return world.Point{}, false
}

func (s *Simulation) idleNurse(c *Colony) *ants.Ant {
	for _, a := range s.ants {
		if a.ColonyID == c.ID && a.Caste == ants.CasteNurse && !a.HasTask && a.Alive() && a.State != ants.StateRest {
			return a
		}
	}
	return nil
}
