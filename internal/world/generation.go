// Procedural world generation: seeded tunnel carving, rooms, food clusters,
// and noise-driven dirt hardness. Deterministic for a given config and seed.
package world

import (
	"fmt"
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Cols        int
	Rows        int
	ColonyCount int
	Seed        int64

	TunnelsPerNest int     // Random carving walks started at each nest
	TunnelSteps    int     // Steps per carving walk
	RoomCount      int     // Extra chambers carved off existing tunnels
	RoomRadiusMin  int
	RoomRadiusMax  int
	FoodClusters   int     // Food patches scattered on carved space
	FoodPatchSize  int     // Cells per patch
	RockThreshold  float64 // Noise value above which dirt becomes rock
	NestSpacing    float64 // Minimum distance between nests, fraction of min dimension
}

// DefaultGenConfig returns a reasonable starting configuration for the given
// grid size.
func DefaultGenConfig(cols, rows, colonies int, seed int64) GenConfig {
	return GenConfig{
		Cols:           cols,
		Rows:           rows,
		ColonyCount:    colonies,
		Seed:           seed,
		TunnelsPerNest: 4,
		TunnelSteps:    cols * rows / 60,
		RoomCount:      3 * colonies,
		RoomRadiusMin:  2,
		RoomRadiusMax:  4,
		FoodClusters:   4 * colonies,
		FoodPatchSize:  7,
		RockThreshold:  0.82,
		NestSpacing:    0.35,
	}
}

// Generate creates a complete world grid plus the nest center per colony.
// It is a pure function of its inputs: identical config and seed reproduce an
// identical grid. Returns an error when the required nests cannot be placed.
func Generate(cfg GenConfig) (*Grid, []Point, error) {
	if cfg.Cols < 20 || cfg.Rows < 20 {
		return nil, nil, fmt.Errorf("generate: grid %dx%d too small", cfg.Cols, cfg.Rows)
	}
	if cfg.ColonyCount < 1 || cfg.ColonyCount > 4 {
		return nil, nil, fmt.Errorf("generate: colony count %d outside 1..4", cfg.ColonyCount)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	hardNoise := opensimplex.NewNormalized(cfg.Seed)
	rockNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	g := NewGrid(cfg.Cols, cfg.Rows, cfg.ColonyCount)

	// Base terrain: all dirt, hardness from layered noise, rock veins where
	// the second noise field peaks.
	for y := 0; y < cfg.Rows; y++ {
		for x := 0; x < cfg.Cols; x++ {
			h := octaveNoise(hardNoise, float64(x), float64(y), 3, 0.06, 0.5)
			g.dirt[g.Index(x, y)] = hardnessFor(h)
			g.SetCell(x, y, CellDirt)
			if octaveNoise(rockNoise, float64(x), float64(y), 2, 0.09, 0.5) > cfg.RockThreshold {
				g.SetCell(x, y, CellRock)
			}
		}
	}

	// Nest placement: rejection-sample centers keeping them apart from each
	// other and off the map border.
	nests, err := placeNests(cfg, rng)
	if err != nil {
		return nil, nil, err
	}

	// Nest chambers.
	for i, c := range nests {
		carveDisc(g, c.X, c.Y, 2)
		g.SetNest(i+1, discPoints(g, c.X, c.Y, 1))
	}

	// Tunnels: drunkard walks out of each nest, then a guaranteed corridor
	// linking every nest to the first so the network is one component.
	for _, c := range nests {
		for t := 0; t < cfg.TunnelsPerNest; t++ {
			carveWalk(g, rng, c.X, c.Y, cfg.TunnelSteps)
		}
	}
	for _, c := range nests[1:] {
		carveCorridor(g, rng, c, nests[0])
	}

	// Rooms: chambers budded off existing open space via a short walk, so
	// they stay connected to the network.
	open := openCells(g)
	for r := 0; r < cfg.RoomCount && len(open) > 0; r++ {
		at := open[rng.Intn(len(open))]
		end := carveWalk(g, rng, at.X, at.Y, 12)
		radius := cfg.RoomRadiusMin + rng.Intn(cfg.RoomRadiusMax-cfg.RoomRadiusMin+1)
		carveDisc(g, end.X, end.Y, radius)
	}

	// Food: patches on open cells away from nests.
	open = openCells(g)
	placed := 0
	for attempt := 0; attempt < cfg.FoodClusters*20 && placed < cfg.FoodClusters; attempt++ {
		at := open[rng.Intn(len(open))]
		if nearestNestDist(nests, at) < 6 {
			continue
		}
		scatterFoodPatch(g, rng, at, cfg.FoodPatchSize)
		placed++
	}

	// Seal orphaned walkable pockets (rock veins can pinch a walk off the
	// network). Every surviving walkable cell ends up with a finite home
	// distance from at least one nest.
	sealOrphans(g, nests)

	return g, nests, nil
}

// placeNests rejection-samples colony nest centers.
func placeNests(cfg GenConfig, rng *rand.Rand) ([]Point, error) {
	minDim := cfg.Rows
	if cfg.Cols < minDim {
		minDim = cfg.Cols
	}
	minSep := cfg.NestSpacing * float64(minDim)
	margin := 5

	nests := make([]Point, 0, cfg.ColonyCount)
	const maxAttempts = 500
	for attempt := 0; attempt < maxAttempts && len(nests) < cfg.ColonyCount; attempt++ {
		p := Point{
			X: margin + rng.Intn(cfg.Cols-2*margin),
			Y: margin + rng.Intn(cfg.Rows-2*margin),
		}
		ok := true
		for _, q := range nests {
			if dist(p, q) < minSep {
				ok = false
				break
			}
		}
		if ok {
			nests = append(nests, p)
		}
	}
	if len(nests) < cfg.ColonyCount {
		return nil, fmt.Errorf("generate: placed %d of %d nests with spacing %.1f",
			len(nests), cfg.ColonyCount, minSep)
	}
	return nests, nil
}

// carveWalk performs a biased random walk from (x, y), converting cells to
// air, and returns the end point.
func carveWalk(g *Grid, rng *rand.Rand, x, y, steps int) Point {
	dir := rng.Intn(4)
	for i := 0; i < steps; i++ {
		g.SetCell(x, y, CellAir)
		// Mostly keep heading; occasionally turn. Straightish tunnels read
		// better than pure noise and cover more ground.
		if rng.Float64() < 0.3 {
			dir = rng.Intn(4)
		}
		nx, ny := x+cardinal[dir].X, y+cardinal[dir].Y
		if !g.InBounds(nx, ny) || nx == 0 || ny == 0 || nx == g.Cols-1 || ny == g.Rows-1 {
			dir = rng.Intn(4)
			continue
		}
		x, y = nx, ny
	}
	g.SetCell(x, y, CellAir)
	return Point{X: x, Y: y}
}

// carveCorridor digs an L-shaped path between two points, randomizing which
// leg goes first.
func carveCorridor(g *Grid, rng *rand.Rand, from, to Point) {
	x, y := from.X, from.Y
	horizFirst := rng.Intn(2) == 0

	step := func(dx, dy int) {
		g.SetCell(x, y, CellAir)
		x += dx
		y += dy
	}
	horiz := func() {
		for x != to.X {
			if x < to.X {
				step(1, 0)
			} else {
				step(-1, 0)
			}
		}
	}
	vert := func() {
		for y != to.Y {
			if y < to.Y {
				step(0, 1)
			} else {
				step(0, -1)
			}
		}
	}

	if horizFirst {
		horiz()
		vert()
	} else {
		vert()
		horiz()
	}
	g.SetCell(x, y, CellAir)
}

// carveDisc opens a filled disc of air.
func carveDisc(g *Grid, cx, cy, radius int) {
	for _, p := range discPoints(g, cx, cy, radius) {
		g.SetCell(p.X, p.Y, CellAir)
	}
}

// discPoints returns the in-bounds cells within radius of a center.
func discPoints(g *Grid, cx, cy, radius int) []Point {
	var out []Point
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			if !g.InBounds(x, y) {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				out = append(out, Point{X: x, Y: y})
			}
		}
	}
	return out
}

// scatterFoodPatch converts up to n open cells around a center into food.
func scatterFoodPatch(g *Grid, rng *rand.Rand, at Point, n int) {
	placed := 0
	for attempt := 0; attempt < n*6 && placed < n; attempt++ {
		x := at.X + rng.Intn(5) - 2
		y := at.Y + rng.Intn(5) - 2
		if !g.InBounds(x, y) || g.CellTypeAt(x, y) != CellAir {
			continue
		}
		g.SetCell(x, y, CellFood)
		placed++
	}
}

// openCells returns every walkable cell in scan order.
func openCells(g *Grid) []Point {
	var out []Point
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			if g.Walkable(x, y) {
				out = append(out, Point{X: x, Y: y})
			}
		}
	}
	return out
}

// sealOrphans fills walkable cells unreachable from every nest back to dirt.
func sealOrphans(g *Grid, nests []Point) {
	reached := make([]bool, g.Cols*g.Rows)
	var queue []int
	for _, p := range nests {
		idx := g.Index(p.X, p.Y)
		if !reached[idx] && g.Walkable(p.X, p.Y) {
			reached[idx] = true
			queue = append(queue, idx)
		}
	}
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		x, y := idx%g.Cols, idx/g.Cols
		for _, n := range cardinal {
			nx, ny := x+n.X, y+n.Y
			if !g.InBounds(nx, ny) || !g.Walkable(nx, ny) {
				continue
			}
			nidx := g.Index(nx, ny)
			if !reached[nidx] {
				reached[nidx] = true
				queue = append(queue, nidx)
			}
		}
	}
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			idx := g.Index(x, y)
			if g.Walkable(x, y) && !reached[idx] {
				g.dirt[idx] = DirtPackedEarth
				g.SetCell(x, y, CellDirt)
			}
		}
	}
}

// hardnessFor maps a normalized noise value to a dirt type.
func hardnessFor(h float64) DirtType {
	switch {
	case h < 0.30:
		return DirtSoftSand
	case h < 0.55:
		return DirtSand
	case h < 0.78:
		return DirtPackedEarth
	case h < 0.95:
		return DirtClay
	default:
		return DirtBedrock
	}
}

// octaveNoise samples layered simplex noise normalized back to [0, 1].
func octaveNoise(n opensimplex.Noise, x, y float64, octaves int, freq, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxValue := 0.0
	for i := 0; i < octaves; i++ {
		total += n.Eval2(x*freq, y*freq) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		freq *= 2
	}
	return total / maxValue
}

func dist(a, b Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

func nearestNestDist(nests []Point, p Point) float64 {
	best := math.Inf(1)
	for _, n := range nests {
		if d := dist(n, p); d < best {
			best = d
		}
	}
	return best
}
