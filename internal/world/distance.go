package world

import "math"

// DistanceField is a lazily computed BFS shortest-path-to-nest map for one
// colony. It is only valid while dirty is false; terrain mutation marks it
// dirty and the next consumer recomputes it.
type DistanceField struct {
	values []int32
	dirty  bool
}

func newDistanceField(n int) *DistanceField {
	f := &DistanceField{
		values: make([]int32, n),
		dirty:  true,
	}
	return f
}

// neighbor offsets, 4-connected. Homing uses cardinal steps only so the
// field never routes ants diagonally between two solid cells.
var cardinal = [4]Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// recompute runs the BFS from the colony's nest cells over walkable terrain.
func (f *DistanceField) recompute(g *Grid, nests []Point) {
	for i := range f.values {
		f.values[i] = Infinity
	}

	queue := make([]int, 0, len(nests))
	for _, p := range nests {
		if !g.InBounds(p.X, p.Y) || !g.Walkable(p.X, p.Y) {
			continue
		}
		idx := g.Index(p.X, p.Y)
		if f.values[idx] == 0 {
			continue
		}
		f.values[idx] = 0
		queue = append(queue, idx)
	}

	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		d := f.values[idx]
		x, y := idx%g.Cols, idx/g.Cols

		for _, n := range cardinal {
			nx, ny := x+n.X, y+n.Y
			if !g.InBounds(nx, ny) || !g.Walkable(nx, ny) {
				continue
			}
			nidx := g.Index(nx, ny)
			if f.values[nidx] <= d+1 {
				continue
			}
			f.values[nidx] = d + 1
			queue = append(queue, nidx)
		}
	}

	f.dirty = false
}

// DistanceToNest returns the BFS distance from (x, y) to the colony's nest,
// or Infinity if unreachable. Recomputes the field first if dirty.
func (g *Grid) DistanceToNest(x, y, colonyID int) int32 {
	idx := g.mustIndex(x, y)
	i := g.mustColony(colonyID)
	if g.dist[i].dirty {
		g.dist[i].recompute(g, g.nests[i])
	}
	return g.dist[i].values[idx]
}

// DirectionToNest returns a unit vector from (x, y) toward the neighbor cell
// with the smallest home distance for the colony. Returns ok=false when the
// cell has no reachable path to the nest.
func (g *Grid) DirectionToNest(x, y, colonyID int) (dx, dy float64, ok bool) {
	i := g.mustColony(colonyID)
	if g.dist[i].dirty {
		g.dist[i].recompute(g, g.nests[i])
	}
	idx := g.mustIndex(x, y)
	f := g.dist[i]
	if f.values[idx] == Infinity {
		return 0, 0, false
	}
	if f.values[idx] == 0 {
		return 0, 0, true
	}

	best := f.values[idx]
	var bx, by int
	found := false
	for _, n := range cardinal {
		nx, ny := x+n.X, y+n.Y
		if !g.InBounds(nx, ny) {
			continue
		}
		nidx := g.Index(nx, ny)
		if f.values[nidx] < best {
			best = f.values[nidx]
			bx, by = n.X, n.Y
			found = true
		}
	}
	if !found {
		return 0, 0, false
	}
	mag := math.Hypot(float64(bx), float64(by))
	return float64(bx) / mag, float64(by) / mag, true
}

// PathToFood runs a bounded BFS from (from) to the nearest reachable food
// cell within maxRadius steps, returning the walkable cell sequence from
// start to food (inclusive), or nil if none is reachable.
func (g *Grid) PathToFood(from Point, maxRadius int) []Point {
	if !g.InBounds(from.X, from.Y) || !g.Walkable(from.X, from.Y) {
		return nil
	}

	start := g.Index(from.X, from.Y)
	if g.cells[start] == CellFood {
		return []Point{from}
	}

	prev := map[int]int{start: start}
	depth := map[int]int{start: 0}
	queue := []int{start}
	goal := -1

	for len(queue) > 0 && goal < 0 {
		idx := queue[0]
		queue = queue[1:]
		if depth[idx] >= maxRadius {
			continue
		}
		x, y := idx%g.Cols, idx/g.Cols
		for _, n := range cardinal {
			nx, ny := x+n.X, y+n.Y
			if !g.InBounds(nx, ny) || !g.Walkable(nx, ny) {
				continue
			}
			nidx := g.Index(nx, ny)
			if _, seen := prev[nidx]; seen {
				continue
			}
			prev[nidx] = idx
			depth[nidx] = depth[idx] + 1
			if g.cells[nidx] == CellFood {
				goal = nidx
				break
			}
			queue = append(queue, nidx)
		}
	}

	if goal < 0 {
		return nil
	}

	// Walk the predecessor chain back to the start.
	var rev []Point
	for idx := goal; ; idx = prev[idx] {
		rev = append(rev, Point{X: idx % g.Cols, Y: idx / g.Cols})
		if idx == start {
			break
		}
	}
	path := make([]Point, len(rev))
	for i, p := range rev {
		path[len(rev)-1-i] = p
	}
	return path
}
