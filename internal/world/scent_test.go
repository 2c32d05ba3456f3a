package world

import (
	"math"
	"testing"
)

func TestPropagateScent_FalloffByDistance(t *testing.T) {
	g := NewGrid(11, 11, 1)
	g.SetCell(5, 5, CellFood)

	g.PropagateScent(1.0, 0.5, 6)

	cases := []struct {
		x, y int
		want float64
	}{
		{5, 5, 1.0},
		{6, 5, 0.5},
		{5, 3, 0.25},
		{8, 5, 0.125},
	}
	for _, tc := range cases {
		got := g.ScentAt(tc.x, tc.y)
		if math.Abs(got-tc.want) > 1e-6 {
			t.Errorf("scent at (%d,%d) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestPropagateScent_StopsAtWalls(t *testing.T) {
	g := NewGrid(11, 11, 1)
	// Solid column sealing the right half.
	for y := 0; y < g.Rows; y++ {
		g.SetCell(7, y, CellRock)
	}
	g.SetCell(5, 5, CellFood)

	g.PropagateScent(1.0, 0.5, 10)

	if got := g.ScentAt(9, 5); got != 0 {
		t.Errorf("scent leaked past wall: got %v, want 0", got)
	}
	if got := g.ScentAt(6, 5); got == 0 {
		t.Error("scent missing on the open side of the wall")
	}
}

func TestPropagateScent_RespectsRadius(t *testing.T) {
	g := NewGrid(21, 3, 1)
	g.SetCell(0, 1, CellFood)

	g.PropagateScent(1.0, 0.9, 4)

	if got := g.ScentAt(4, 1); got == 0 {
		t.Error("expected scent at the radius boundary")
	}
	if got := g.ScentAt(5, 1); got != 0 {
		t.Errorf("scent at (5,1) beyond radius = %v, want 0", got)
	}
}

func TestPropagateScent_RepropagationClearsStale(t *testing.T) {
	g := NewGrid(11, 11, 1)
	g.SetCell(2, 2, CellFood)
	g.PropagateScent(1.0, 0.5, 6)

	if got := g.ScentAt(2, 2); got != 1.0 {
		t.Fatalf("initial scent = %v, want 1.0", got)
	}

	// Move the food. The old plume must vanish entirely.
	g.SetCell(2, 2, CellAir)
	g.SetCell(8, 8, CellFood)
	g.PropagateScent(1.0, 0.5, 6)

	if got := g.ScentAt(2, 2); got != 0 {
		t.Errorf("stale scent at old food cell = %v, want 0", got)
	}
	if got := g.ScentAt(2, 3); got != 0 {
		t.Errorf("stale scent near old food cell = %v, want 0", got)
	}
	if got := g.ScentAt(8, 8); got != 1.0 {
		t.Errorf("scent at new food cell = %v, want 1.0", got)
	}
}

func TestPropagateScent_NoFoodClearsField(t *testing.T) {
	g := NewGrid(9, 9, 1)
	g.SetCell(4, 4, CellFood)
	g.PropagateScent(1.0, 0.5, 6)
	g.SetCell(4, 4, CellAir)
	g.PropagateScent(1.0, 0.5, 6)

	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			if got := g.ScentAt(x, y); got != 0 {
				t.Fatalf("residual scent at (%d,%d) = %v", x, y, got)
			}
		}
	}
}

func TestScentDirty_TerrainChangesInvalidate(t *testing.T) {
	g := NewGrid(9, 9, 1)
	g.SetCell(4, 4, CellFood)
	g.PropagateScent(1.0, 0.5, 6)

	if g.ScentDirty() {
		t.Fatal("field still dirty immediately after propagation")
	}
	g.SetCell(1, 1, CellRock)
	if !g.ScentDirty() {
		t.Error("terrain edit did not mark the scent field dirty")
	}
}

func TestPropagateScent_DeterministicAcrossRebuilds(t *testing.T) {
	build := func() []float64 {
		g := NewGrid(15, 15, 1)
		g.SetCell(3, 3, CellFood)
		g.SetCell(11, 11, CellFood)
		g.SetCell(3, 11, CellFood)
		g.PropagateScent(0.8, 0.85, 12)
		out := make([]float64, 0, g.Cols*g.Rows)
		for y := 0; y < g.Rows; y++ {
			for x := 0; x < g.Cols; x++ {
				out = append(out, g.ScentAt(x, y))
			}
		}
		return out
	}

	a, b := build(), build()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("scent diverges at index %d: %v vs %v", i, a[i], b[i])
		}
	}
}
