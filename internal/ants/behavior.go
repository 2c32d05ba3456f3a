// Per-tick ant behavior: sensing, steering, movement with digging, food
// interaction, and caste-specific overrides, per the update contract the
// orchestrator drives.
package ants

import (
	"math"
	"math/rand"

	"github.com/nantestudio/antworld/internal/config"
	"github.com/nantestudio/antworld/internal/world"
)

// Sensor signal bonus when a ray lands on an actual food or nest cell, large
// enough to dominate any accumulated pheromone.
const goalBonus = 10.0

// Queen worker-guidance pacing.
const (
	queenGuideIntervalSec = 15.0
	queenGuideRadius      = 40
)

// Env is the read-mostly context one ant update runs against. The grid is
// shared and mutated through deposits and digging; everything else is owned
// by the caller.
type Env struct {
	Cfg  *config.Config
	Grid *world.Grid
	Rng  *rand.Rand
	DT   float64

	// Nest is the home (or, for raiders, the target) nest center.
	Nest       world.Point
	NestRadius float64

	// Defense alert broadcast to soldiers.
	AlertActive bool
	AlertX      float64
	AlertY      float64
}

// Outcome reports the side effects the orchestrator must apply after one ant
// update.
type Outcome struct {
	PickedUpFood  bool
	DeliveredFood bool
	LaidEgg       bool // Queen: spawn an egg at her position
	Matured       bool // Larva: ready for adult promotion
	TaskComplete  bool // Builder: assigned blueprint cell is open
	Stuck         bool // Trapped-agent safeguard: remove this ant
}

// Update advances a single ant by dt, mutating the ant and depositing into /
// digging at the shared grid. It never fails; blocked ants fall back to
// random wander so every tick attempts motion.
func Update(a *Ant, env *Env) Outcome {
	var out Outcome
	cfg := env.Cfg
	a.Age += env.DT

	// Transitional castes only accumulate growth.
	if !a.Caste.Mobile() {
		a.Growth += env.DT
		switch a.Caste {
		case CasteEgg:
			if a.Growth >= cfg.Lifecycle.EggGrowthSec {
				a.Promote(CasteLarva, cfg.Energy.Capacity)
			}
		case CasteLarva:
			if a.Growth >= cfg.Lifecycle.LarvaGrowthSec {
				out.Matured = true
			}
		}
		return out
	}

	// Resting: recover until the wake threshold, then resume.
	if a.State == StateRest {
		a.Energy += cfg.Energy.RestPerSec * env.DT
		if a.Energy > cfg.Energy.Capacity {
			a.Energy = cfg.Energy.Capacity
		}
		if a.Energy >= cfg.Energy.WakeFraction*cfg.Energy.Capacity {
			a.State = a.PrevState
		}
		return out
	}
	if a.Energy <= 0 && cfg.Energy.RestingEnabled {
		a.PrevState = a.State
		a.State = StateRest
		return out
	}

	// Steering: caste overrides first, pheromone-driven foraging for the rest.
	steer(a, env)

	// Movement with collision sweep; digs through dirt, bounces off rock and
	// the world boundary.
	move(a, env)

	// Pheromone deposit at the resulting position: home trail while heading
	// out, food trail while carrying, plus a weak always-on traffic deposit
	// on the home channel.
	depositTrail(a, env)

	// Food pickup / nest delivery.
	if a.Caste.Forages() {
		forageInteract(a, env, &out)
	}

	// Caste timers that run after movement.
	switch a.Caste {
	case CasteQueen:
		queenTimers(a, env, &out)
	case CasteBuilder:
		builderWork(a, env, &out)
	}

	// Trapped-agent safeguard: no net progress for too long means removal.
	if d := math.Hypot(a.X-a.AnchorX, a.Y-a.AnchorY); d >= cfg.Stuck.MinProgress {
		a.AnchorX, a.AnchorY = a.X, a.Y
		a.StuckTime = 0
	} else {
		a.StuckTime += env.DT
		if a.StuckTime >= cfg.Stuck.TimeoutSec {
			out.Stuck = true
		}
	}

	return out
}

// steer updates the ant's heading for this tick.
func steer(a *Ant, env *Env) {
	cfg := env.Cfg

	switch a.Caste {
	case CasteSoldier:
		if env.AlertActive {
			turnToward(a, env.AlertX, env.AlertY, 1.0)
			return
		}
		patrol(a, env)
		return
	case CasteQueen, CastePrincess:
		keepNear(a, env, 2.0)
		return
	case CasteDrone:
		keepNear(a, env, 3.5)
		return
	case CasteNurse:
		if a.HasTask {
			turnToward(a, float64(a.Task.X)+0.5, float64(a.Task.Y)+0.5, 1.0)
			return
		}
		keepNear(a, env, 4.0)
		return
	case CasteBuilder:
		if a.HasTask {
			turnToward(a, float64(a.Task.X)+0.5, float64(a.Task.Y)+0.5, 1.0)
			return
		}
		keepNear(a, env, 4.0)
		return
	}

	// Workers: three-ray pheromone sensing.
	left := senseRay(a, env, -cfg.Sensors.Angle)
	front := senseRay(a, env, 0)
	right := senseRay(a, env, cfg.Sensors.Angle)

	floor := cfg.Sensors.NoiseFloor
	wander := cfg.Movement.WanderJitter

	// Explorers ignore trails far more often, trading efficiency for
	// discovery.
	if a.Explorer && env.Rng.Float64() < cfg.Sensors.ExplorerWanderChance {
		a.Angle += (env.Rng.Float64()*2 - 1) * wander
		return
	}

	switch {
	case front > floor && front >= left && front >= right:
		a.Angle += (env.Rng.Float64()*2 - 1) * wander * 0.4
	case left > floor || right > floor:
		turn := cfg.Movement.TurnMin + env.Rng.Float64()*(cfg.Movement.TurnMax-cfg.Movement.TurnMin)
		if left > right {
			a.Angle -= turn
		} else {
			a.Angle += turn
		}
	default:
		// No usable signal.
		if a.State == StateForage {
			if biasTowardFood(a, env) {
				return
			}
		} else if a.State == StateReturnHome {
			if biasTowardNest(a, env) {
				return
			}
		}
		a.Angle += (env.Rng.Float64()*2 - 1) * wander
	}

	// Returning ants always keep a weak pull toward the home-distance
	// gradient so homing works even on broken trails.
	if a.State == StateReturnHome {
		c := a.Cell()
		if env.Grid.InBounds(c.X, c.Y) && validLayer(env, a.ColonyID) {
			if dx, dy, ok := env.Grid.DirectionToNest(c.X, c.Y, a.ColonyID); ok && (dx != 0 || dy != 0) {
				blendToward(a, math.Atan2(dy, dx), 0.25)
			}
		}
	}
}

// senseRay samples the relevant pheromone along one sensor ray and applies
// perceptual noise. Rays stop at solid cells; landing on an actual goal cell
// adds a large fixed bonus.
func senseRay(a *Ant, env *Env, offset float64) float64 {
	cfg := env.Cfg
	ang := a.Angle + offset
	dx, dy := math.Cos(ang), math.Sin(ang)

	sum := 0.0
	for i := 1; i <= cfg.Sensors.Distance; i++ {
		cx := int(a.X + dx*float64(i))
		cy := int(a.Y + dy*float64(i))
		if !env.Grid.InBounds(cx, cy) || env.Grid.Solid(cx, cy) {
			break
		}

		if a.State == StateReturnHome {
			if validLayer(env, a.ColonyID) {
				sum += env.Grid.HomePheromoneAt(cx, cy, a.ColonyID)
			}
			if near(float64(cx)+0.5, float64(cy)+0.5, env.Nest, env.NestRadius) {
				sum += goalBonus
				break
			}
		} else {
			if validLayer(env, a.ColonyID) {
				sum += env.Grid.FoodPheromoneAt(cx, cy, a.ColonyID)
			}
			if cfg.Scent.Enabled {
				sum += env.Grid.ScentAt(cx, cy)
			}
			if env.Grid.CellTypeAt(cx, cy) == world.CellFood {
				sum += goalBonus
				break
			}
		}
	}

	// Perceptual noise keeps trails spread over a corridor instead of
	// collapsing to a single line.
	sum *= 1 + (env.Rng.Float64()*2-1)*cfg.Sensors.Noise
	return sum
}

// biasTowardFood points the ant at the nearest food cell within the direct
// sensing radius. Returns false when none is in range.
func biasTowardFood(a *Ant, env *Env) bool {
	c := a.Cell()
	p, ok := env.Grid.NearestFood(c.X, c.Y, env.Cfg.Sensors.FoodSenseRadius)
	if !ok {
		return false
	}
	turnToward(a, float64(p.X)+0.5, float64(p.Y)+0.5, 1.0)
	a.Angle += (env.Rng.Float64()*2 - 1) * 0.1
	return true
}

// biasTowardNest points the ant down the home-distance gradient.
func biasTowardNest(a *Ant, env *Env) bool {
	if !validLayer(env, a.ColonyID) {
		// Raiders home on the target nest directly.
		turnToward(a, float64(env.Nest.X)+0.5, float64(env.Nest.Y)+0.5, 1.0)
		return true
	}
	c := a.Cell()
	if !env.Grid.InBounds(c.X, c.Y) {
		return false
	}
	dx, dy, ok := env.Grid.DirectionToNest(c.X, c.Y, a.ColonyID)
	if !ok || (dx == 0 && dy == 0) {
		return false
	}
	a.Angle = math.Atan2(dy, dx) + (env.Rng.Float64()*2-1)*0.1
	return true
}

// patrol keeps a soldier circling a ring around the nest.
func patrol(a *Ant, env *Env) {
	r := env.Cfg.Colony.SoldierPatrolRadius
	a.PatrolPhase += env.DT * 0.4
	tx := float64(env.Nest.X) + 0.5 + r*math.Cos(a.PatrolPhase)
	ty := float64(env.Nest.Y) + 0.5 + r*math.Sin(a.PatrolPhase)
	turnToward(a, tx, ty, 0.6)
}

// keepNear wanders inside a tether radius of the nest, steering back when
// outside it.
func keepNear(a *Ant, env *Env, radius float64) {
	nx := float64(env.Nest.X) + 0.5
	ny := float64(env.Nest.Y) + 0.5
	if math.Hypot(a.X-nx, a.Y-ny) > radius {
		turnToward(a, nx, ny, 0.8)
		return
	}
	a.Angle += (env.Rng.Float64()*2 - 1) * env.Cfg.Movement.WanderJitter
}

// move sweeps the candidate displacement and commits the result, digging or
// bouncing as the terrain dictates.
func move(a *Ant, env *Env) {
	cfg := env.Cfg
	speed := cfg.Movement.BaseSpeed * cfg.Movement.SpeedMultiplier * StatsFor(a.Caste).SpeedScale
	step := speed * env.DT
	if step <= 0 {
		return
	}

	// Moving costs energy regardless of whether the step lands.
	a.Energy -= cfg.Energy.DrainPerSec * env.DT
	if a.Energy < 0 {
		a.Energy = 0
	}

	tx := a.X + math.Cos(a.Angle)*step
	ty := a.Y + math.Sin(a.Angle)*step
	res := env.Grid.Trace(a.X, a.Y, tx, ty)

	switch {
	case res.OutOfBounds:
		a.X, a.Y = res.X, res.Y
		a.Angle += math.Pi
	case res.HitSolid:
		a.X, a.Y = res.X, res.Y
		if env.Grid.CellTypeAt(res.Cell.X, res.Cell.Y) == world.CellDirt {
			dig(a, env, res.Cell)
		}
		a.Angle += math.Pi + (env.Rng.Float64()*2-1)*0.6
	default:
		a.X, a.Y = res.X, res.Y
	}
}

// dig spends energy on a dirt cell; damage scales with the energy actually
// spent so an exhausted ant digs slowly instead of for free.
func dig(a *Ant, env *Env, cell world.Point) {
	cfg := env.Cfg
	spend := cfg.Energy.DigCost
	if spend > a.Energy {
		spend = a.Energy
	}
	frac := 1.0
	if cfg.Energy.DigCost > 0 {
		frac = spend / cfg.Energy.DigCost
	}
	a.Energy -= spend
	env.Grid.DigDamage(cell.X, cell.Y, float32(cfg.Digging.Strength*frac))
}

// depositTrail drops the state-appropriate pheromone at the ant's position.
func depositTrail(a *Ant, env *Env) {
	if !validLayer(env, a.ColonyID) {
		return
	}
	c := a.Cell()
	if !env.Grid.InBounds(c.X, c.Y) {
		return
	}
	cfg := env.Cfg
	limit := cfg.Pheromone.Cap
	if a.Carrying {
		env.Grid.DepositFoodPheromone(c.X, c.Y, cfg.Pheromone.DepositFood, limit, a.ColonyID)
	} else {
		env.Grid.DepositHomePheromone(c.X, c.Y, cfg.Pheromone.DepositHome, limit, a.ColonyID)
	}
	// Traffic reinforcement: corridors used by many ants read as home trail.
	if cfg.Pheromone.DepositTrail > 0 {
		env.Grid.DepositHomePheromone(c.X, c.Y, cfg.Pheromone.DepositTrail, limit, a.ColonyID)
	}
}

// forageInteract handles landing on food and arriving home with it.
func forageInteract(a *Ant, env *Env, out *Outcome) {
	c := a.Cell()
	if !env.Grid.InBounds(c.X, c.Y) {
		return
	}

	if !a.Carrying && env.Grid.CellTypeAt(c.X, c.Y) == world.CellFood {
		env.Grid.SetCell(c.X, c.Y, world.CellAir)
		a.Carrying = true
		a.State = StateReturnHome
		a.Angle += math.Pi
		out.PickedUpFood = true
		return
	}

	if a.Carrying && near(a.X, a.Y, env.Nest, env.NestRadius) {
		a.Carrying = false
		a.State = StateForage
		a.Angle += math.Pi
		out.DeliveredFood = true
	}
}

// queenTimers advances egg laying and periodic worker guidance.
func queenTimers(a *Ant, env *Env, out *Outcome) {
	cfg := env.Cfg

	a.LayTimer -= env.DT
	if a.LayTimer <= 0 {
		a.LayTimer = cfg.Lifecycle.QueenLayIntervalSec
		out.LaidEgg = true
	}

	a.GuideTimer -= env.DT
	if a.GuideTimer <= 0 {
		a.GuideTimer = queenGuideIntervalSec
		guideWorkers(a, env)
	}
}

// guideWorkers lays a food-pheromone breadcrumb along the shortest walkable
// path from the queen to nearby food, steering foragers proactively.
func guideWorkers(a *Ant, env *Env) {
	if !validLayer(env, a.ColonyID) {
		return
	}
	c := a.Cell()
	if !env.Grid.InBounds(c.X, c.Y) {
		return
	}
	path := env.Grid.PathToFood(c, queenGuideRadius)
	cfg := env.Cfg
	for _, p := range path {
		env.Grid.DepositFoodPheromone(p.X, p.Y, cfg.Pheromone.DepositFood*0.5, cfg.Pheromone.Cap, a.ColonyID)
	}
}

// builderWork digs the assigned blueprint cell once the builder is adjacent.
func builderWork(a *Ant, env *Env, out *Outcome) {
	if !a.HasTask {
		return
	}
	if !env.Grid.InBounds(a.Task.X, a.Task.Y) {
		a.HasTask = false
		return
	}
	if env.Grid.CellTypeAt(a.Task.X, a.Task.Y) != world.CellDirt {
		a.HasTask = false
		out.TaskComplete = true
		return
	}
	tx := float64(a.Task.X) + 0.5
	ty := float64(a.Task.Y) + 0.5
	if math.Hypot(a.X-tx, a.Y-ty) <= 1.5 {
		dig(a, env, a.Task)
	}
}

// ── Heading helpers ───────────────────────────────────────────────────────

// turnToward rotates the heading toward a target point. weight 1 snaps to it;
// lower weights blend.
func turnToward(a *Ant, tx, ty, weight float64) {
	blendToward(a, math.Atan2(ty-a.Y, tx-a.X), weight)
}

func blendToward(a *Ant, target, weight float64) {
	a.Angle += angleDiff(target, a.Angle) * weight
}

// angleDiff returns the signed smallest rotation from `from` to `to`.
func angleDiff(to, from float64) float64 {
	d := math.Mod(to-from, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

func near(x, y float64, p world.Point, radius float64) bool {
	return math.Hypot(x-(float64(p.X)+0.5), y-(float64(p.Y)+0.5)) <= radius
}

// validLayer reports whether the colony id owns a pheromone layer. Raider
// ants carry colony id 0 and have none.
func validLayer(env *Env, colonyID int) bool {
	return colonyID >= 1 && colonyID <= env.Grid.Colonies()
}
