package world

import "testing"

func TestGenerate_DeterministicForSeed(t *testing.T) {
	cfg := DefaultGenConfig(80, 60, 2, 1234)

	a, nestsA, err := Generate(cfg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, nestsB, err := Generate(cfg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(nestsA) != len(nestsB) {
		t.Fatalf("nest counts differ: %d vs %d", len(nestsA), len(nestsB))
	}
	for i := range nestsA {
		if nestsA[i] != nestsB[i] {
			t.Errorf("nest %d differs: %v vs %v", i, nestsA[i], nestsB[i])
		}
	}

	cellsA, dirtA, healthA := a.CopyCells()
	cellsB, dirtB, healthB := b.CopyCells()
	for i := range cellsA {
		if cellsA[i] != cellsB[i] || dirtA[i] != dirtB[i] || healthA[i] != healthB[i] {
			t.Fatalf("grids diverge at flat index %d", i)
		}
	}
}

func TestGenerate_DifferentSeedsDiffer(t *testing.T) {
	a, _, err := Generate(DefaultGenConfig(80, 60, 2, 1))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _, err := Generate(DefaultGenConfig(80, 60, 2, 2))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	cellsA, _, _ := a.CopyCells()
	cellsB, _, _ := b.CopyCells()
	for i := range cellsA {
		if cellsA[i] != cellsB[i] {
			return
		}
	}
	t.Error("different seeds produced identical terrain")
}

// Every walkable cell must reach a nest; orphaned pockets are sealed during
// generation.
func TestGenerate_AllWalkableReachable(t *testing.T) {
	g, nests, err := Generate(DefaultGenConfig(120, 90, 3, 99))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i, n := range nests {
		g.SetNest(i+1, []Point{n})
	}

	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			if !g.Walkable(x, y) {
				continue
			}
			reachable := false
			for c := 1; c <= len(nests); c++ {
				if g.DistanceToNest(x, y, c) != Infinity {
					reachable = true
					break
				}
			}
			if !reachable {
				t.Fatalf("walkable cell (%d,%d) unreachable from every nest", x, y)
			}
		}
	}
}

func TestGenerate_PlacesFood(t *testing.T) {
	g, _, err := Generate(DefaultGenConfig(100, 80, 2, 7))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if g.FoodCount() == 0 {
		t.Error("expected at least one food cell in a generated world")
	}
}

func TestGenerate_RejectsBadConfig(t *testing.T) {
	if _, _, err := Generate(DefaultGenConfig(10, 10, 1, 1)); err == nil {
		t.Error("expected error for a grid below the minimum size")
	}
	if _, _, err := Generate(DefaultGenConfig(100, 80, 5, 1)); err == nil {
		t.Error("expected error for colony count above 4")
	}
}
