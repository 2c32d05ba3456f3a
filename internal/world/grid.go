package world

import (
	"fmt"
)

// Infinity is the sentinel distance for cells unreachable from a nest.
const Infinity int32 = 1<<31 - 1

// Grid holds the complete terrain state: cell types, dirt health, per-colony
// pheromone layers, per-colony home-distance fields, the food index, and the
// scent overlay. The grid never references ants.
type Grid struct {
	Cols int
	Rows int

	cells  []CellType
	dirt   []DirtType
	health []float32

	// Index of every cell currently holding food, for O(1) existence checks
	// and O(k) enumeration instead of full-grid scans.
	food map[int]struct{}

	layers []*PheromoneLayer // One per colony, index colonyID-1
	dist   []*DistanceField  // One per colony
	nests  [][]Point         // Nest anchor cells per colony

	scent *ScentField
}

// NewGrid creates an all-air grid with pheromone and distance structures for
// the given number of colonies (1–4).
func NewGrid(cols, rows, colonies int) *Grid {
	if cols <= 0 || rows <= 0 {
		panic(fmt.Sprintf("world: invalid grid size %dx%d", cols, rows))
	}
	if colonies < 1 || colonies > 4 {
		panic(fmt.Sprintf("world: invalid colony count %d", colonies))
	}
	n := cols * rows
	g := &Grid{
		Cols:   cols,
		Rows:   rows,
		cells:  make([]CellType, n),
		dirt:   make([]DirtType, n),
		health: make([]float32, n),
		food:   make(map[int]struct{}),
		layers: make([]*PheromoneLayer, colonies),
		dist:   make([]*DistanceField, colonies),
		nests:  make([][]Point, colonies),
		scent:  newScentField(n),
	}
	for i := range g.layers {
		g.layers[i] = newPheromoneLayer(n)
		g.dist[i] = newDistanceField(n)
	}
	return g
}

// Colonies returns the number of pheromone/distance layers.
func (g *Grid) Colonies() int {
	return len(g.layers)
}

// Index converts a coordinate to a flat array index. The coordinate must be
// in bounds.
func (g *Grid) Index(x, y int) int {
	return y*g.Cols + x
}

// InBounds reports whether (x, y) lies inside the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Cols && y >= 0 && y < g.Rows
}

// mustIndex returns the flat index for (x, y), panicking on out-of-bounds.
// Callers are contractually required to pre-check with InBounds; a violation
// is an integration bug, not a runtime condition.
func (g *Grid) mustIndex(x, y int) int {
	if !g.InBounds(x, y) {
		panic(fmt.Sprintf("world: coordinate (%d,%d) outside %dx%d grid", x, y, g.Cols, g.Rows))
	}
	return y*g.Cols + x
}

func (g *Grid) mustColony(colonyID int) int {
	if colonyID < 1 || colonyID > len(g.layers) {
		panic(fmt.Sprintf("world: colony %d outside 1..%d", colonyID, len(g.layers)))
	}
	return colonyID - 1
}

// CellTypeAt returns the terrain type at (x, y).
func (g *Grid) CellTypeAt(x, y int) CellType {
	return g.cells[g.mustIndex(x, y)]
}

// DirtTypeAt returns the dirt hardness at (x, y). Meaningful only for dirt cells.
func (g *Grid) DirtTypeAt(x, y int) DirtType {
	return g.dirt[g.mustIndex(x, y)]
}

// HealthAt returns the remaining dig health at (x, y). Zero for non-dirt.
func (g *Grid) HealthAt(x, y int) float32 {
	return g.health[g.mustIndex(x, y)]
}

// Walkable reports whether ants can occupy (x, y).
func (g *Grid) Walkable(x, y int) bool {
	t := g.cells[g.mustIndex(x, y)]
	return t == CellAir || t == CellFood
}

// Solid reports whether (x, y) blocks movement.
func (g *Grid) Solid(x, y int) bool {
	t := g.cells[g.mustIndex(x, y)]
	return t == CellDirt || t == CellRock
}

// SetCell mutates the terrain at (x, y). Dirt cells restart at full health for
// their current hardness (use SetDirt to change hardness). Any transition
// to or from food keeps the food index current; any transition to non-dirt
// clears pheromone deposited at the cell. Every mutation marks all
// home-distance fields dirty in the same operation.
func (g *Grid) SetCell(x, y int, t CellType) {
	idx := g.mustIndex(x, y)
	prev := g.cells[idx]
	if prev == t && t != CellDirt {
		return
	}

	g.cells[idx] = t
	switch t {
	case CellDirt:
		g.health[idx] = g.dirt[idx].MaxHealth()
	default:
		g.health[idx] = 0
		for _, l := range g.layers {
			l.clear(idx)
		}
	}

	if prev == CellFood {
		delete(g.food, idx)
	}
	if t == CellFood {
		g.food[idx] = struct{}{}
	}

	g.markDistanceDirty()
	g.scent.markDirty()
}

// SetDirt places a dirt cell of the given hardness at full health.
func (g *Grid) SetDirt(x, y int, d DirtType) {
	idx := g.mustIndex(x, y)
	g.dirt[idx] = d
	g.SetCell(x, y, CellDirt)
}

// DigDamage applies dig damage to the dirt at (x, y) and reports whether the
// cell broke through to air. Damage against non-dirt cells has no effect.
func (g *Grid) DigDamage(x, y int, amount float32) bool {
	idx := g.mustIndex(x, y)
	if g.cells[idx] != CellDirt {
		return false
	}
	g.health[idx] -= amount
	if g.health[idx] > 0 {
		return false
	}
	g.SetCell(x, y, CellAir)
	return true
}

// markDistanceDirty invalidates every colony's home-distance field. Called
// inside the same operation as the terrain mutation so consumers can never
// observe a stale field as valid.
func (g *Grid) markDistanceDirty() {
	for _, d := range g.dist {
		d.dirty = true
	}
}

// ── Food index ────────────────────────────────────────────────────────────

// FoodCount returns the number of food cells currently in the world.
func (g *Grid) FoodCount() int {
	return len(g.food)
}

// FoodCells returns the coordinates of every food cell, in unspecified order.
func (g *Grid) FoodCells() []Point {
	out := make([]Point, 0, len(g.food))
	for idx := range g.food {
		out = append(out, Point{X: idx % g.Cols, Y: idx / g.Cols})
	}
	return out
}

// NearestFood returns the closest food cell to (x, y) within radius cells,
// by squared euclidean distance. Ties break on the lower flat index so the
// result is deterministic regardless of map iteration order.
func (g *Grid) NearestFood(x, y, radius int) (Point, bool) {
	bestIdx := -1
	bestDist := radius*radius + 1
	for idx := range g.food {
		fx, fy := idx%g.Cols, idx/g.Cols
		dx, dy := fx-x, fy-y
		d := dx*dx + dy*dy
		if d < bestDist || (d == bestDist && (bestIdx == -1 || idx < bestIdx)) {
			bestDist = d
			bestIdx = idx
		}
	}
	if bestIdx < 0 {
		return Point{}, false
	}
	return Point{X: bestIdx % g.Cols, Y: bestIdx / g.Cols}, true
}

// ── Pheromones ────────────────────────────────────────────────────────────

// DepositFoodPheromone adds food pheromone for a colony at (x, y), saturating
// at the cap.
func (g *Grid) DepositFoodPheromone(x, y int, amount, cap float64, colonyID int) {
	idx := g.mustIndex(x, y)
	g.layers[g.mustColony(colonyID)].depositFood(idx, float32(amount), float32(cap))
}

// DepositHomePheromone adds home pheromone for a colony at (x, y), saturating
// at the cap.
func (g *Grid) DepositHomePheromone(x, y int, amount, cap float64, colonyID int) {
	idx := g.mustIndex(x, y)
	g.layers[g.mustColony(colonyID)].depositHome(idx, float32(amount), float32(cap))
}

// FoodPheromoneAt returns a colony's food pheromone at (x, y).
func (g *Grid) FoodPheromoneAt(x, y, colonyID int) float64 {
	idx := g.mustIndex(x, y)
	return float64(g.layers[g.mustColony(colonyID)].food[idx])
}

// HomePheromoneAt returns a colony's home pheromone at (x, y).
func (g *Grid) HomePheromoneAt(x, y, colonyID int) float64 {
	idx := g.mustIndex(x, y)
	return float64(g.layers[g.mustColony(colonyID)].home[idx])
}

// Decay multiplies every tracked pheromone value in every layer by factor and
// removes values that fall below threshold. Cost is proportional to the number
// of active trail cells, not the grid size.
func (g *Grid) Decay(factor, threshold float64) {
	for _, l := range g.layers {
		l.decay(float32(factor), float32(threshold))
	}
}

// ActivePheromoneCells returns the number of tracked trail cells across all
// layers and channels.
func (g *Grid) ActivePheromoneCells() int {
	n := 0
	for _, l := range g.layers {
		n += len(l.activeFood) + len(l.activeHome)
	}
	return n
}

// CopyFoodPheromone returns a copy of a colony's food pheromone array.
func (g *Grid) CopyFoodPheromone(colonyID int) []float32 {
	src := g.layers[g.mustColony(colonyID)].food
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst
}

// CopyHomePheromone returns a copy of a colony's home pheromone array.
func (g *Grid) CopyHomePheromone(colonyID int) []float32 {
	src := g.layers[g.mustColony(colonyID)].home
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst
}

// RestorePheromone overwrites a colony's pheromone arrays, rebuilding the
// active-tracking sets. Used by snapshot restoration.
func (g *Grid) RestorePheromone(colonyID int, food, home []float32) error {
	l := g.layers[g.mustColony(colonyID)]
	n := g.Cols * g.Rows
	if len(food) != n || len(home) != n {
		return fmt.Errorf("world: pheromone array length %d/%d, want %d", len(food), len(home), n)
	}
	copy(l.food, food)
	copy(l.home, home)
	l.rebuildActive()
	return nil
}

// RestoreCells overwrites the terrain arrays, rebuilding the food index and
// invalidating derived fields. Used by snapshot restoration.
func (g *Grid) RestoreCells(cells []CellType, dirt []DirtType, health []float32) error {
	n := g.Cols * g.Rows
	if len(cells) != n || len(dirt) != n || len(health) != n {
		return fmt.Errorf("world: cell array length %d, want %d", len(cells), n)
	}
	copy(g.cells, cells)
	copy(g.dirt, dirt)
	copy(g.health, health)
	g.food = make(map[int]struct{})
	for idx, t := range g.cells {
		if t == CellFood {
			g.food[idx] = struct{}{}
		}
	}
	g.markDistanceDirty()
	g.scent.markDirty()
	return nil
}

// CopyCells returns copies of the terrain arrays for snapshotting.
func (g *Grid) CopyCells() (cells []CellType, dirt []DirtType, health []float32) {
	cells = make([]CellType, len(g.cells))
	dirt = make([]DirtType, len(g.dirt))
	health = make([]float32, len(g.health))
	copy(cells, g.cells)
	copy(dirt, g.dirt)
	copy(health, g.health)
	return cells, dirt, health
}

// ── Nests ─────────────────────────────────────────────────────────────────

// SetNest registers a colony's nest anchor cells and invalidates its
// home-distance field.
func (g *Grid) SetNest(colonyID int, cells []Point) {
	i := g.mustColony(colonyID)
	g.nests[i] = append([]Point(nil), cells...)
	g.dist[i].dirty = true
}

// Nest returns a colony's nest anchor cells.
func (g *Grid) Nest(colonyID int) []Point {
	return g.nests[g.mustColony(colonyID)]
}

// PheromoneLayer holds the two scalar trail channels for one colony, plus the
// active-cell sets that bound per-tick decay work.
type PheromoneLayer struct {
	food []float32
	home []float32

	activeFood map[int]struct{}
	activeHome map[int]struct{}
}

func newPheromoneLayer(n int) *PheromoneLayer {
	return &PheromoneLayer{
		food:       make([]float32, n),
		home:       make([]float32, n),
		activeFood: make(map[int]struct{}),
		activeHome: make(map[int]struct{}),
	}
}

func (l *PheromoneLayer) depositFood(idx int, amount, cap float32) {
	v := l.food[idx] + amount
	if v > cap {
		v = cap
	}
	l.food[idx] = v
	if v > 0 {
		l.activeFood[idx] = struct{}{}
	}
}

func (l *PheromoneLayer) depositHome(idx int, amount, cap float32) {
	v := l.home[idx] + amount
	if v > cap {
		v = cap
	}
	l.home[idx] = v
	if v > 0 {
		l.activeHome[idx] = struct{}{}
	}
}

func (l *PheromoneLayer) decay(factor, threshold float32) {
	for idx := range l.activeFood {
		v := l.food[idx] * factor
		if v < threshold {
			l.food[idx] = 0
			delete(l.activeFood, idx)
			continue
		}
		l.food[idx] = v
	}
	for idx := range l.activeHome {
		v := l.home[idx] * factor
		if v < threshold {
			l.home[idx] = 0
			delete(l.activeHome, idx)
			continue
		}
		l.home[idx] = v
	}
}

func (l *PheromoneLayer) clear(idx int) {
	l.food[idx] = 0
	l.home[idx] = 0
	delete(l.activeFood, idx)
	delete(l.activeHome, idx)
}

func (l *PheromoneLayer) rebuildActive() {
	l.activeFood = make(map[int]struct{})
	l.activeHome = make(map[int]struct{})
	for idx, v := range l.food {
		if v > 0 {
			l.activeFood[idx] = struct{}{}
		}
	}
	for idx, v := range l.home {
		if v > 0 {
			l.activeHome[idx] = struct{}{}
		}
	}
}
