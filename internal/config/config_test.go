package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_ParsesEmbeddedYAML(t *testing.T) {
	cfg := Default()
	if cfg.World.Cols != 200 || cfg.World.Rows != 150 {
		t.Errorf("default world %dx%d, want 200x150", cfg.World.Cols, cfg.World.Rows)
	}
	if cfg.World.TicksPerSecond != 60 {
		t.Errorf("ticks per second = %v, want 60", cfg.World.TicksPerSecond)
	}
	if cfg.Pheromone.DecayFactor != 0.985 {
		t.Errorf("decay factor = %v, want 0.985", cfg.Pheromone.DecayFactor)
	}
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	data := []byte("world:\n  cols: 80\n  rows: 60\nenergy:\n  capacity: 50\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.World.Cols != 80 || cfg.World.Rows != 60 {
		t.Errorf("world %dx%d, want override 80x60", cfg.World.Cols, cfg.World.Rows)
	}
	if cfg.Energy.Capacity != 50 {
		t.Errorf("capacity = %v, want 50", cfg.Energy.Capacity)
	}
	// Untouched keys keep their defaults.
	if cfg.Movement.BaseSpeed != 3.0 {
		t.Errorf("base speed = %v, want default 3.0", cfg.Movement.BaseSpeed)
	}
}

func TestLoad_ErrorsOnMissingOrMalformedFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file did not error")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("world: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed file did not error")
	}
}

func TestClamp_RepairsOutOfRangeValues(t *testing.T) {
	cfg := Default()
	cfg.World.Cols = 5
	cfg.World.ColonyCount = 99
	cfg.Movement.SpeedMultiplier = -4
	cfg.Pheromone.DecayFactor = 1.5
	cfg.Energy.WakeFraction = 0
	cfg.Sensors.Noise = 7

	cfg.Clamp()

	if cfg.World.Cols != 20 {
		t.Errorf("cols = %d, want floor 20", cfg.World.Cols)
	}
	if cfg.World.ColonyCount != 4 {
		t.Errorf("colony count = %d, want cap 4", cfg.World.ColonyCount)
	}
	if cfg.Movement.SpeedMultiplier != 0.05 {
		t.Errorf("speed multiplier = %v, want floor 0.05", cfg.Movement.SpeedMultiplier)
	}
	if cfg.Pheromone.DecayFactor >= 1 || cfg.Pheromone.DecayFactor <= 0 {
		t.Errorf("decay factor = %v, want strictly inside (0,1)", cfg.Pheromone.DecayFactor)
	}
	if cfg.Energy.WakeFraction != 0.05 {
		t.Errorf("wake fraction = %v, want floor 0.05", cfg.Energy.WakeFraction)
	}
	if cfg.Sensors.Noise != 1 {
		t.Errorf("noise = %v, want cap 1", cfg.Sensors.Noise)
	}
}

func TestClamp_NaNFallsToMinimum(t *testing.T) {
	cfg := Default()
	cfg.Movement.BaseSpeed = math.NaN()
	cfg.Clamp()
	if cfg.Movement.BaseSpeed != 0.1 {
		t.Errorf("NaN base speed = %v, want minimum 0.1", cfg.Movement.BaseSpeed)
	}
}

func TestClamp_OrderedPairsStayOrdered(t *testing.T) {
	cfg := Default()
	cfg.Movement.TurnMin = 0.8
	cfg.Movement.TurnMax = 0.2
	cfg.Combat.VarianceMin = 1.5
	cfg.Combat.VarianceMax = 0.5
	cfg.Clamp()

	if cfg.Movement.TurnMax < cfg.Movement.TurnMin {
		t.Errorf("turn range inverted: [%v, %v]", cfg.Movement.TurnMin, cfg.Movement.TurnMax)
	}
	if cfg.Combat.VarianceMax < cfg.Combat.VarianceMin {
		t.Errorf("variance range inverted: [%v, %v]", cfg.Combat.VarianceMin, cfg.Combat.VarianceMax)
	}
}

func TestEffectiveDecayFactor_FixedWhenAutoTuneOff(t *testing.T) {
	cfg := Default()
	cfg.Pheromone.AutoTuneDecay = false
	cfg.Pheromone.DecayFactor = 0.97
	if got := cfg.EffectiveDecayFactor(200, 150); got != 0.97 {
		t.Errorf("factor = %v, want configured 0.97", got)
	}
}

func TestEffectiveDecayFactor_AutoTuneTracksPersistence(t *testing.T) {
	cfg := Default()
	cfg.Pheromone.AutoTuneDecay = true
	cfg.Clamp()

	got := cfg.EffectiveDecayFactor(200, 150)
	if got <= 0 || got >= 1 {
		t.Fatalf("factor = %v, want inside (0,1)", got)
	}

	// A deposit decayed for the target persistence window lands on the
	// removal threshold.
	diag := math.Hypot(200, 150)
	speed := cfg.Movement.BaseSpeed * cfg.Movement.SpeedMultiplier
	persist := cfg.Pheromone.RoundTripMultiple * 2 * diag / speed
	if persist < cfg.Pheromone.PersistFloorSec {
		persist = cfg.Pheromone.PersistFloorSec
	}
	ticks := persist * cfg.World.TicksPerSecond
	if end := math.Pow(got, ticks); math.Abs(end-cfg.Pheromone.DecayThreshold) > 1e-9 {
		t.Errorf("value after %v ticks = %v, want threshold %v", ticks, end, cfg.Pheromone.DecayThreshold)
	}

	// Larger worlds keep trails longer, so the factor sits closer to 1.
	if bigger := cfg.EffectiveDecayFactor(800, 600); bigger <= got {
		t.Errorf("factor for larger world %v not above %v", bigger, got)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	cfg := Default()
	dup := cfg.Clone()
	dup.World.Cols = 77
	if cfg.World.Cols == 77 {
		t.Error("mutating the clone changed the original")
	}
}
