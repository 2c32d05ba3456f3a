package world

// ScentField is an optional overlay holding a decaying scent value propagated
// outward from food cells. It is refreshed periodically (every N ticks, driven
// by the orchestrator) rather than every tick, and tracks its own active set
// so clearing the previous propagation is proportional to scent extent.
type ScentField struct {
	values []float32
	active map[int]struct{}
	dirty  bool
}

func newScentField(n int) *ScentField {
	return &ScentField{
		values: make([]float32, n),
		active: make(map[int]struct{}),
		dirty:  true,
	}
}

func (s *ScentField) markDirty() {
	s.dirty = true
}

// ScentAt returns the food scent at (x, y).
func (g *Grid) ScentAt(x, y int) float64 {
	return float64(g.scent.values[g.mustIndex(x, y)])
}

// ScentDirty reports whether terrain or food changed since the last
// propagation.
func (g *Grid) ScentDirty() bool {
	return g.scent.dirty
}

// PropagateScent rebuilds the scent overlay: a breadth-first sweep outward
// from every food cell through walkable terrain, assigning
// strength × falloff^distance and keeping the maximum where sweeps overlap.
func (g *Grid) PropagateScent(strength, falloff float64, maxRadius int) {
	s := g.scent

	for idx := range s.active {
		s.values[idx] = 0
	}
	s.active = make(map[int]struct{})
	s.dirty = false

	if len(g.food) == 0 {
		return
	}

	// Multi-source BFS: all food cells start at distance 0, so each cell ends
	// up with the scent of its closest source.
	depth := make(map[int]int, len(g.food))
	queue := make([]int, 0, len(g.food))
	for idx := range g.food {
		depth[idx] = 0
		queue = append(queue, idx)
		s.values[idx] = float32(strength)
		s.active[idx] = struct{}{}
	}

	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		d := depth[idx]
		if d >= maxRadius {
			continue
		}
		x, y := idx%g.Cols, idx/g.Cols
		v := float32(strength)
		for i := 0; i <= d; i++ {
			v *= float32(falloff)
		}
		for _, n := range cardinal {
			nx, ny := x+n.X, y+n.Y
			if !g.InBounds(nx, ny) || !g.Walkable(nx, ny) {
				continue
			}
			nidx := g.Index(nx, ny)
			if _, seen := depth[nidx]; seen {
				continue
			}
			depth[nidx] = d + 1
			queue = append(queue, nidx)
			s.values[nidx] = v
			s.active[nidx] = struct{}{}
		}
	}
}
