package world

import "testing"

// wallOff fills a vertical dirt wall at column x, leaving a gap at gapY (-1
// for no gap).
func wallOff(g *Grid, x, gapY int) {
	for y := 0; y < g.Rows; y++ {
		if y == gapY {
			continue
		}
		g.SetDirt(x, y, DirtClay)
	}
}

func TestDistanceToNest_TracksWalls(t *testing.T) {
	g := NewGrid(20, 10, 1)
	g.SetNest(1, []Point{{X: 2, Y: 5}})

	if d := g.DistanceToNest(2, 5, 1); d != 0 {
		t.Errorf("nest cell distance = %d, want 0", d)
	}
	if d := g.DistanceToNest(6, 5, 1); d != 4 {
		t.Errorf("open-field distance = %d, want 4", d)
	}

	// Wall with a gap at the top forces a detour.
	wallOff(g, 4, 0)
	direct := g.DistanceToNest(6, 5, 1)
	if direct <= 4 {
		t.Errorf("distance through wall = %d, want a detour longer than 4", direct)
	}

	// Sealing the gap makes the far side unreachable.
	g.SetDirt(4, 0, DirtClay)
	if d := g.DistanceToNest(6, 5, 1); d != Infinity {
		t.Errorf("sealed-off distance = %d, want Infinity", d)
	}
}

func TestDistanceField_InvalidatedBySetCell(t *testing.T) {
	g := NewGrid(20, 10, 1)
	g.SetNest(1, []Point{{X: 2, Y: 5}})
	wallOff(g, 4, -1)

	if d := g.DistanceToNest(6, 5, 1); d != Infinity {
		t.Fatalf("expected unreachable before breach, got %d", d)
	}

	// Digging through the wall must be visible to the next query.
	g.SetCell(4, 5, CellAir)
	if d := g.DistanceToNest(6, 5, 1); d != 4 {
		t.Errorf("post-breach distance = %d, want 4", d)
	}
}

func TestDirectionToNest_DescendsGradient(t *testing.T) {
	g := NewGrid(20, 10, 1)
	g.SetNest(1, []Point{{X: 2, Y: 5}})

	dx, dy, ok := g.DirectionToNest(6, 5, 1)
	if !ok {
		t.Fatal("expected a direction on reachable terrain")
	}
	if dx != -1 || dy != 0 {
		t.Errorf("direction = (%f,%f), want (-1,0)", dx, dy)
	}

	// On the nest cell itself the zero vector with ok=true means "already home".
	dx, dy, ok = g.DirectionToNest(2, 5, 1)
	if !ok || dx != 0 || dy != 0 {
		t.Errorf("nest cell direction = (%f,%f,%v), want (0,0,true)", dx, dy, ok)
	}

	// Unreachable cells report no direction.
	wallOff(g, 10, -1)
	if _, _, ok := g.DirectionToNest(15, 5, 1); ok {
		t.Error("expected ok=false beyond a sealed wall")
	}
}

func TestPathToFood_ShortestAndBounded(t *testing.T) {
	g := NewGrid(20, 10, 1)
	g.SetCell(8, 5, CellFood)

	path := g.PathToFood(Point{X: 2, Y: 5}, 10)
	if path == nil {
		t.Fatal("expected a path to food")
	}
	if path[0] != (Point{X: 2, Y: 5}) {
		t.Errorf("path starts at %v, want the query cell", path[0])
	}
	if last := path[len(path)-1]; last != (Point{X: 8, Y: 5}) {
		t.Errorf("path ends at %v, want the food cell", last)
	}
	if len(path) != 7 {
		t.Errorf("path length %d, want 7 (6 steps inclusive)", len(path))
	}

	if got := g.PathToFood(Point{X: 2, Y: 5}, 3); got != nil {
		t.Errorf("food beyond the radius must yield nil, got %v", got)
	}
}
