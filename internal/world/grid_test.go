package world

import (
	"math"
	"testing"
)

// ---------- Pheromone deposit and decay ----------

func TestDeposit_SaturatesAtCap(t *testing.T) {
	g := NewGrid(10, 10, 1)

	for i := 0; i < 20; i++ {
		g.DepositFoodPheromone(4, 4, 0.3, 1.0, 1)
	}
	if v := g.FoodPheromoneAt(4, 4, 1); v != 1.0 {
		t.Errorf("expected food pheromone saturated at 1.0, got %f", v)
	}

	for i := 0; i < 20; i++ {
		g.DepositHomePheromone(4, 4, 0.3, 0.5, 1)
	}
	if v := g.HomePheromoneAt(4, 4, 1); v != 0.5 {
		t.Errorf("expected home pheromone saturated at 0.5, got %f", v)
	}
}

func TestDecay_MonotonicUntilZero(t *testing.T) {
	g := NewGrid(10, 10, 1)
	g.DepositFoodPheromone(3, 3, 1.0, 1.0, 1)

	prev := g.FoodPheromoneAt(3, 3, 1)
	for i := 0; i < 400; i++ {
		g.Decay(0.985, 0.01)
		v := g.FoodPheromoneAt(3, 3, 1)
		if v > prev {
			t.Fatalf("decay increased value at step %d: %f -> %f", i, prev, v)
		}
		prev = v
	}
	if prev != 0 {
		t.Errorf("expected value to reach exact zero, got %g", prev)
	}
	if n := g.ActivePheromoneCells(); n != 0 {
		t.Errorf("expected no active cells after decay to silence, got %d", n)
	}
}

// A full-strength deposit under factor f reaches threshold th after
// ceil(ln(th)/ln(f)) steps and is removed as exact zero on that step.
func TestDecay_SilenceTickMatchesClosedForm(t *testing.T) {
	const factor, threshold = 0.985, 0.01
	expected := int(math.Ceil(math.Log(threshold) / math.Log(factor)))

	g := NewGrid(4, 4, 1)
	g.DepositHomePheromone(1, 1, 1.0, 1.0, 1)

	step := 0
	for g.HomePheromoneAt(1, 1, 1) > 0 {
		g.Decay(factor, threshold)
		step++
		if step > expected+1 {
			t.Fatalf("still nonzero after %d steps, expected silence at %d", step, expected)
		}
	}
	if step != expected {
		t.Errorf("reached silence at step %d, expected %d", step, expected)
	}
}

func TestDecay_CostBoundedByActiveCells(t *testing.T) {
	g := NewGrid(100, 100, 2)
	g.DepositFoodPheromone(10, 10, 0.5, 1.0, 1)
	g.DepositHomePheromone(20, 20, 0.5, 1.0, 2)

	if n := g.ActivePheromoneCells(); n != 2 {
		t.Errorf("expected 2 active cells, got %d", n)
	}
	g.Decay(0.5, 0.01)
	if n := g.ActivePheromoneCells(); n != 2 {
		t.Errorf("expected 2 active cells after mild decay, got %d", n)
	}
	g.Decay(0.001, 0.01)
	if n := g.ActivePheromoneCells(); n != 0 {
		t.Errorf("expected 0 active cells after harsh decay, got %d", n)
	}
}

func TestSetCell_NonDirtClearsPheromone(t *testing.T) {
	g := NewGrid(10, 10, 1)
	g.DepositFoodPheromone(5, 5, 0.8, 1.0, 1)
	g.SetCell(5, 5, CellRock)

	if v := g.FoodPheromoneAt(5, 5, 1); v != 0 {
		t.Errorf("expected pheromone cleared when cell became rock, got %f", v)
	}
}

// ---------- Digging ----------

func TestDigDamage_BreaksThroughExactlyOnce(t *testing.T) {
	g := NewGrid(10, 10, 1)
	g.SetDirt(2, 2, DirtSoftSand)

	hp := g.HealthAt(2, 2)
	if hp <= 0 {
		t.Fatalf("fresh dirt should have positive health, got %f", hp)
	}

	broke := 0
	for i := 0; i < 10; i++ {
		if g.DigDamage(2, 2, hp/2+1) {
			broke++
		}
	}
	if broke != 1 {
		t.Errorf("expected exactly one breakthrough, got %d", broke)
	}
	if got := g.CellTypeAt(2, 2); got != CellAir {
		t.Errorf("expected air after breakthrough, got %v", got)
	}
	if g.HealthAt(2, 2) != 0 {
		t.Errorf("expected zero health after breakthrough, got %f", g.HealthAt(2, 2))
	}
}

func TestDigDamage_HarderDirtSurvivesLonger(t *testing.T) {
	g := NewGrid(10, 10, 1)
	g.SetDirt(1, 1, DirtSoftSand)
	g.SetDirt(2, 1, DirtClay)

	if g.HealthAt(1, 1) >= g.HealthAt(2, 1) {
		t.Errorf("clay (%f) should out-last soft sand (%f)", g.HealthAt(2, 1), g.HealthAt(1, 1))
	}
}

func TestDigDamage_NoEffectOnRock(t *testing.T) {
	g := NewGrid(10, 10, 1)
	g.SetCell(3, 3, CellRock)

	if g.DigDamage(3, 3, 1e9) {
		t.Error("rock must never break from digging")
	}
	if got := g.CellTypeAt(3, 3); got != CellRock {
		t.Errorf("expected rock to remain, got %v", got)
	}
}

// ---------- Food index ----------

func TestFoodIndex_TracksSetCell(t *testing.T) {
	g := NewGrid(10, 10, 1)
	g.SetCell(1, 1, CellFood)
	g.SetCell(8, 8, CellFood)
	if got := g.FoodCount(); got != 2 {
		t.Fatalf("expected 2 food cells, got %d", got)
	}

	g.SetCell(1, 1, CellAir)
	if got := g.FoodCount(); got != 1 {
		t.Errorf("expected 1 food cell after pickup, got %d", got)
	}

	p, ok := g.NearestFood(0, 0, 20)
	if !ok || p.X != 8 || p.Y != 8 {
		t.Errorf("expected nearest food (8,8), got %v ok=%v", p, ok)
	}
}

func TestNearestFood_DeterministicTieBreak(t *testing.T) {
	g := NewGrid(10, 10, 1)
	// Equidistant from (5,5): same squared distance, lower flat index wins.
	g.SetCell(5, 3, CellFood) // idx 35
	g.SetCell(5, 7, CellFood) // idx 75

	for i := 0; i < 50; i++ {
		p, ok := g.NearestFood(5, 5, 5)
		if !ok {
			t.Fatal("expected food in range")
		}
		if p.X != 5 || p.Y != 3 {
			t.Fatalf("tie-break not deterministic: got %v on iteration %d", p, i)
		}
	}
}

func TestNearestFood_RespectsRadius(t *testing.T) {
	g := NewGrid(20, 20, 1)
	g.SetCell(15, 15, CellFood)

	if _, ok := g.NearestFood(0, 0, 5); ok {
		t.Error("food beyond radius must not be found")
	}
	if _, ok := g.NearestFood(14, 14, 5); !ok {
		t.Error("food within radius must be found")
	}
}

// ---------- Bounds contract ----------

func TestOutOfBounds_Panics(t *testing.T) {
	g := NewGrid(10, 10, 1)

	assertPanics(t, "CellTypeAt", func() { g.CellTypeAt(-1, 0) })
	assertPanics(t, "SetCell", func() { g.SetCell(10, 0, CellAir) })
	assertPanics(t, "Deposit", func() { g.DepositFoodPheromone(0, 10, 0.1, 1.0, 1) })
	assertPanics(t, "badColony", func() { g.FoodPheromoneAt(0, 0, 2) })
}

func assertPanics(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

// ---------- Snapshot helpers ----------

func TestRestoreCells_RebuildsFoodIndex(t *testing.T) {
	g := NewGrid(10, 10, 1)
	g.SetCell(3, 3, CellFood)
	g.SetDirt(4, 4, DirtClay)
	cells, dirt, health := g.CopyCells()

	h := NewGrid(10, 10, 1)
	if err := h.RestoreCells(cells, dirt, health); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if h.FoodCount() != 1 {
		t.Errorf("expected food index rebuilt with 1 entry, got %d", h.FoodCount())
	}
	if h.CellTypeAt(4, 4) != CellDirt || h.HealthAt(4, 4) != g.HealthAt(4, 4) {
		t.Error("dirt cell not restored faithfully")
	}
}

func TestRestorePheromone_RebuildsActiveSets(t *testing.T) {
	g := NewGrid(10, 10, 1)
	g.DepositFoodPheromone(2, 2, 0.7, 1.0, 1)
	food := g.CopyFoodPheromone(1)
	home := g.CopyHomePheromone(1)

	h := NewGrid(10, 10, 1)
	if err := h.RestorePheromone(1, food, home); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if n := h.ActivePheromoneCells(); n != 1 {
		t.Errorf("expected 1 active cell after restore, got %d", n)
	}
	h.Decay(0.5, 0.01)
	if v := h.FoodPheromoneAt(2, 2, 1); math.Abs(v-0.35) > 1e-6 {
		t.Errorf("restored pheromone must keep decaying: got %f, want 0.35", v)
	}

	if err := h.RestorePheromone(1, food[:10], home); err == nil {
		t.Error("expected length mismatch error")
	}
}
