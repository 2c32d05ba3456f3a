package world

import (
	"math"
	"testing"
)

func TestTrace_OpenPathArrives(t *testing.T) {
	g := NewGrid(20, 20, 1)

	res := g.Trace(2.5, 2.5, 10.5, 6.5)
	if res.HitSolid || res.OutOfBounds {
		t.Fatalf("unexpected obstruction: %+v", res)
	}
	if res.X != 10.5 || res.Y != 6.5 {
		t.Errorf("arrived at (%f,%f), want (10.5,6.5)", res.X, res.Y)
	}
}

func TestTrace_StopsAtWall(t *testing.T) {
	g := NewGrid(20, 20, 1)
	g.SetDirt(8, 2, DirtSand)

	res := g.Trace(2.5, 2.5, 14.5, 2.5)
	if !res.HitSolid {
		t.Fatal("expected a wall hit")
	}
	if res.Cell != (Point{X: 8, Y: 2}) {
		t.Errorf("hit cell %v, want (8,2)", res.Cell)
	}
	if res.X >= 8.0 {
		t.Errorf("stop position %f reached into the wall cell", res.X)
	}
	if res.X < 7.0 {
		t.Errorf("stop position %f backed off more than one cell", res.X)
	}
}

func TestTrace_NeverReportsStartCell(t *testing.T) {
	g := NewGrid(20, 20, 1)
	g.SetDirt(5, 5, DirtSand)

	// An ant standing inside a dirt cell (mid-dig) must be able to leave it.
	res := g.Trace(5.5, 5.5, 3.5, 5.5)
	if res.HitSolid && res.Cell == (Point{X: 5, Y: 5}) {
		t.Error("trace reported its own starting cell as a hit")
	}
}

func TestTrace_OutOfBounds(t *testing.T) {
	g := NewGrid(10, 10, 1)

	res := g.Trace(8.5, 5.5, 12.5, 5.5)
	if !res.OutOfBounds {
		t.Fatal("expected out-of-bounds result")
	}
	if res.X > 10.0 {
		t.Errorf("stop position %f is outside the grid", res.X)
	}
}

func TestTrace_ZeroLength(t *testing.T) {
	g := NewGrid(10, 10, 1)
	res := g.Trace(4.5, 4.5, 4.5, 4.5)
	if res.HitSolid || res.OutOfBounds || res.X != 4.5 || res.Y != 4.5 {
		t.Errorf("zero-length trace mutated position: %+v", res)
	}
}

func TestTrace_DiagonalHugsCorner(t *testing.T) {
	g := NewGrid(20, 20, 1)
	// A solid cell adjacent to, but not on, the swept row.
	g.SetCell(6, 5, CellRock)

	res := g.Trace(4.5, 6.5, 8.5, 6.1)
	if res.HitSolid {
		t.Errorf("diagonal above the block should be clear, hit %v", res.Cell)
	}
	if math.Abs(res.X-8.5) > 1e-9 || math.Abs(res.Y-6.1) > 1e-9 {
		t.Errorf("arrived at (%f,%f), want (8.5,6.1)", res.X, res.Y)
	}
}
