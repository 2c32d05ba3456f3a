// Package config provides configuration loading and access for the simulation.
// Defaults are embedded; an optional user file is merged over them. Every value
// is live-tunable at runtime, so validation clamps rather than rejects.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Movement   MovementConfig   `yaml:"movement"`
	Sensors    SensorsConfig    `yaml:"sensors"`
	Pheromone  PheromoneConfig  `yaml:"pheromone"`
	Scent      ScentConfig      `yaml:"scent"`
	Energy     EnergyConfig     `yaml:"energy"`
	Digging    DiggingConfig    `yaml:"digging"`
	Combat     CombatConfig     `yaml:"combat"`
	Lifecycle  LifecycleConfig  `yaml:"lifecycle"`
	Colony     ColonyConfig     `yaml:"colony"`
	Stuck      StuckConfig      `yaml:"stuck"`
	Population PopulationConfig `yaml:"population"`
	Server     ServerConfig     `yaml:"server"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Autosave   AutosaveConfig   `yaml:"autosave"`
}

// WorldConfig holds grid dimensions and tick pacing.
type WorldConfig struct {
	Cols           int     `yaml:"cols"`
	Rows           int     `yaml:"rows"`
	ColonyCount    int     `yaml:"colony_count"`
	MaxDT          float64 `yaml:"max_dt"`           // Safety ceiling for update(dt)
	TicksPerSecond float64 `yaml:"ticks_per_second"` // Target tick rate for the runner
}

// MovementConfig holds steering and locomotion parameters.
type MovementConfig struct {
	BaseSpeed       float64 `yaml:"base_speed"`       // Cells per second
	SpeedMultiplier float64 `yaml:"speed_multiplier"` // Global live-tunable multiplier
	TurnMin         float64 `yaml:"turn_min"`         // Radians, steering toward a side sensor
	TurnMax         float64 `yaml:"turn_max"`
	WanderJitter    float64 `yaml:"wander_jitter"` // Random heading wiggle per tick
}

// SensorsConfig holds the pheromone sensing geometry.
type SensorsConfig struct {
	Angle                float64 `yaml:"angle"`    // Side sensor offset from heading, radians
	Distance             int     `yaml:"distance"` // Ray length in cells
	Noise                float64 `yaml:"noise"`    // Multiplicative perceptual noise (±fraction)
	NoiseFloor           float64 `yaml:"noise_floor"`
	ExplorerRatio        float64 `yaml:"explorer_ratio"`
	ExplorerWanderChance float64 `yaml:"explorer_wander_chance"`
	FoodSenseRadius      int     `yaml:"food_sense_radius"` // Direct food scan radius, cells
}

// PheromoneConfig holds deposit and decay parameters.
type PheromoneConfig struct {
	DepositHome       float64 `yaml:"deposit_home"`
	DepositFood       float64 `yaml:"deposit_food"`
	DepositTrail      float64 `yaml:"deposit_trail"` // Always-on traffic reinforcement
	Cap               float64 `yaml:"cap"`
	DecayFactor       float64 `yaml:"decay_factor"`
	DecayThreshold    float64 `yaml:"decay_threshold"`
	AutoTuneDecay     bool    `yaml:"auto_tune_decay"`
	RoundTripMultiple float64 `yaml:"round_trip_multiple"` // Trail persistence vs. nest round trip
	PersistFloorSec   float64 `yaml:"persist_floor_sec"`
}

// ScentConfig holds the periodic food-scent diffusion overlay.
type ScentConfig struct {
	Enabled       bool    `yaml:"enabled"`
	IntervalTicks int     `yaml:"interval_ticks"`
	Strength      float64 `yaml:"strength"`
	Falloff       float64 `yaml:"falloff"` // Per-cell multiplicative falloff
	MaxRadius     int     `yaml:"max_radius"`
}

// EnergyConfig holds the energy/rest model.
type EnergyConfig struct {
	Capacity       float64 `yaml:"capacity"`
	DrainPerSec    float64 `yaml:"drain_per_sec"`
	RestPerSec     float64 `yaml:"rest_per_sec"`
	DigCost        float64 `yaml:"dig_cost"` // Extra energy per dig attempt
	WakeFraction   float64 `yaml:"wake_fraction"`
	RestingEnabled bool    `yaml:"resting_enabled"`
}

// DiggingConfig holds terrain excavation parameters.
type DiggingConfig struct {
	Strength float64 `yaml:"strength"` // Dig damage per attempt at full energy
}

// CombatConfig holds inter-colony combat resolution parameters.
type CombatConfig struct {
	EngagementRadius float64 `yaml:"engagement_radius"` // Cells
	Mitigation       float64 `yaml:"mitigation"`        // Defense effectiveness factor
	VarianceMin      float64 `yaml:"variance_min"`
	VarianceMax      float64 `yaml:"variance_max"`
}

// LifecycleConfig holds caste lifecycle timing.
type LifecycleConfig struct {
	EggGrowthSec          float64 `yaml:"egg_growth_sec"`
	LarvaGrowthSec        float64 `yaml:"larva_growth_sec"`
	QueenLayIntervalSec   float64 `yaml:"queen_lay_interval_sec"`
	FoodPerSpawn          float64 `yaml:"food_per_spawn"` // Delivered food per bonus spawn
	PrincessFoodThreshold float64 `yaml:"princess_food_threshold"`
}

// ColonyConfig holds colony-level timers and geometry.
type ColonyConfig struct {
	NestRadius           float64 `yaml:"nest_radius"` // Delivery capture radius, cells
	RaidMinSec           float64 `yaml:"raid_min_sec"`
	RaidMaxSec           float64 `yaml:"raid_max_sec"`
	RaidSizeBase         int     `yaml:"raid_size_base"`
	DefenseAlertRadius   float64 `yaml:"defense_alert_radius"`
	DefenseAlertSec      float64 `yaml:"defense_alert_sec"`
	RoomCheckIntervalSec float64 `yaml:"room_check_interval_sec"`
	SoldierPatrolRadius  float64 `yaml:"soldier_patrol_radius"`
}

// StuckConfig holds the trapped-agent safeguard.
type StuckConfig struct {
	TimeoutSec  float64 `yaml:"timeout_sec"`
	MinProgress float64 `yaml:"min_progress"` // Cells of net movement that reset the timer
}

// PopulationConfig holds initial spawn composition.
type PopulationConfig struct {
	InitialAnts  int     `yaml:"initial_ants"`
	SoldierRatio float64 `yaml:"soldier_ratio"`
	NurseRatio   float64 `yaml:"nurse_ratio"`
	BuilderRatio float64 `yaml:"builder_ratio"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// TelemetryConfig holds stats collection settings.
type TelemetryConfig struct {
	IntervalSec float64 `yaml:"interval_sec"`
	CSVDir      string  `yaml:"csv_dir"` // Empty = CSV output disabled
}

// AutosaveConfig holds snapshot persistence settings.
type AutosaveConfig struct {
	IntervalSec float64 `yaml:"interval_sec"`
	DBPath      string  `yaml:"db_path"`
}

// Default returns the embedded default configuration.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// The embedded defaults are part of the build; failing to parse them
		// is a broken binary, not a runtime condition.
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return &cfg
}

// Load reads configuration from a YAML file merged over the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		cfg.Clamp()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Clamp()
	return cfg, nil
}

// Clamp forces every parameter into its sane range, logging each correction.
// Configuration is interactively tuned, so out-of-range values are repaired
// rather than rejected.
func (c *Config) Clamp() {
	clampInt(&c.World.Cols, 20, 1000, "world.cols")
	clampInt(&c.World.Rows, 20, 1000, "world.rows")
	clampInt(&c.World.ColonyCount, 1, 4, "world.colony_count")
	clampFloat(&c.World.MaxDT, 0.001, 0.25, "world.max_dt")
	clampFloat(&c.World.TicksPerSecond, 1, 240, "world.ticks_per_second")

	clampFloat(&c.Movement.BaseSpeed, 0.1, 30, "movement.base_speed")
	clampFloat(&c.Movement.SpeedMultiplier, 0.05, 20, "movement.speed_multiplier")
	clampFloat(&c.Movement.TurnMin, 0, math.Pi, "movement.turn_min")
	clampFloat(&c.Movement.TurnMax, c.Movement.TurnMin, math.Pi, "movement.turn_max")
	clampFloat(&c.Movement.WanderJitter, 0, math.Pi, "movement.wander_jitter")

	clampFloat(&c.Sensors.Angle, 0.05, math.Pi/2, "sensors.angle")
	clampInt(&c.Sensors.Distance, 1, 30, "sensors.distance")
	clampFloat(&c.Sensors.Noise, 0, 1, "sensors.noise")
	clampFloat(&c.Sensors.NoiseFloor, 0, 1, "sensors.noise_floor")
	clampFloat(&c.Sensors.ExplorerRatio, 0, 1, "sensors.explorer_ratio")
	clampFloat(&c.Sensors.ExplorerWanderChance, 0, 1, "sensors.explorer_wander_chance")
	clampInt(&c.Sensors.FoodSenseRadius, 0, 50, "sensors.food_sense_radius")

	clampFloat(&c.Pheromone.DepositHome, 0, 5, "pheromone.deposit_home")
	clampFloat(&c.Pheromone.DepositFood, 0, 5, "pheromone.deposit_food")
	clampFloat(&c.Pheromone.DepositTrail, 0, 5, "pheromone.deposit_trail")
	clampFloat(&c.Pheromone.Cap, 0.1, 10, "pheromone.cap")
	clampOpenUnit(&c.Pheromone.DecayFactor, "pheromone.decay_factor")
	clampFloat(&c.Pheromone.DecayThreshold, 1e-6, 0.5, "pheromone.decay_threshold")
	clampFloat(&c.Pheromone.RoundTripMultiple, 0.5, 20, "pheromone.round_trip_multiple")
	clampFloat(&c.Pheromone.PersistFloorSec, 1, 600, "pheromone.persist_floor_sec")

	clampInt(&c.Scent.IntervalTicks, 1, 600, "scent.interval_ticks")
	clampFloat(&c.Scent.Strength, 0, 10, "scent.strength")
	clampOpenUnit(&c.Scent.Falloff, "scent.falloff")
	clampInt(&c.Scent.MaxRadius, 1, 100, "scent.max_radius")

	clampFloat(&c.Energy.Capacity, 1, 10000, "energy.capacity")
	clampFloat(&c.Energy.DrainPerSec, 0, 1000, "energy.drain_per_sec")
	clampFloat(&c.Energy.RestPerSec, 0, 1000, "energy.rest_per_sec")
	clampFloat(&c.Energy.DigCost, 0, 1000, "energy.dig_cost")
	clampFloat(&c.Energy.WakeFraction, 0.05, 1, "energy.wake_fraction")

	clampFloat(&c.Digging.Strength, 0.1, 10000, "digging.strength")

	clampFloat(&c.Combat.EngagementRadius, 0.1, 5, "combat.engagement_radius")
	clampFloat(&c.Combat.Mitigation, 0, 1, "combat.mitigation")
	clampFloat(&c.Combat.VarianceMin, 0.1, 2, "combat.variance_min")
	clampFloat(&c.Combat.VarianceMax, c.Combat.VarianceMin, 3, "combat.variance_max")

	clampFloat(&c.Lifecycle.EggGrowthSec, 1, 3600, "lifecycle.egg_growth_sec")
	clampFloat(&c.Lifecycle.LarvaGrowthSec, 1, 3600, "lifecycle.larva_growth_sec")
	clampFloat(&c.Lifecycle.QueenLayIntervalSec, 1, 3600, "lifecycle.queen_lay_interval_sec")
	clampFloat(&c.Lifecycle.FoodPerSpawn, 0.5, 1000, "lifecycle.food_per_spawn")
	clampFloat(&c.Lifecycle.PrincessFoodThreshold, 1, 100000, "lifecycle.princess_food_threshold")

	clampFloat(&c.Colony.NestRadius, 0.5, 10, "colony.nest_radius")
	clampFloat(&c.Colony.RaidMinSec, 5, 3600, "colony.raid_min_sec")
	clampFloat(&c.Colony.RaidMaxSec, c.Colony.RaidMinSec, 7200, "colony.raid_max_sec")
	clampInt(&c.Colony.RaidSizeBase, 1, 100, "colony.raid_size_base")
	clampFloat(&c.Colony.DefenseAlertRadius, 1, 100, "colony.defense_alert_radius")
	clampFloat(&c.Colony.DefenseAlertSec, 1, 600, "colony.defense_alert_sec")
	clampFloat(&c.Colony.RoomCheckIntervalSec, 1, 3600, "colony.room_check_interval_sec")
	clampFloat(&c.Colony.SoldierPatrolRadius, 1, 100, "colony.soldier_patrol_radius")

	clampFloat(&c.Stuck.TimeoutSec, 1, 3600, "stuck.timeout_sec")
	clampFloat(&c.Stuck.MinProgress, 0.05, 50, "stuck.min_progress")

	clampInt(&c.Population.InitialAnts, 0, 100000, "population.initial_ants")
	clampFloat(&c.Population.SoldierRatio, 0, 1, "population.soldier_ratio")
	clampFloat(&c.Population.NurseRatio, 0, 1, "population.nurse_ratio")
	clampFloat(&c.Population.BuilderRatio, 0, 1, "population.builder_ratio")

	clampInt(&c.Server.Port, 0, 65535, "server.port")
	clampFloat(&c.Telemetry.IntervalSec, 0.1, 3600, "telemetry.interval_sec")
	clampFloat(&c.Autosave.IntervalSec, 1, 86400, "autosave.interval_sec")
}

// EffectiveDecayFactor returns the per-tick pheromone decay factor, applying
// the diagonal auto-tuning heuristic when enabled: trails persist for
// RoundTripMultiple nest round trips across the map diagonal, with a floor.
func (c *Config) EffectiveDecayFactor(cols, rows int) float64 {
	if !c.Pheromone.AutoTuneDecay {
		return c.Pheromone.DecayFactor
	}
	diag := math.Hypot(float64(cols), float64(rows))
	speed := c.Movement.BaseSpeed * c.Movement.SpeedMultiplier
	persist := c.Pheromone.RoundTripMultiple * 2 * diag / speed
	if persist < c.Pheromone.PersistFloorSec {
		persist = c.Pheromone.PersistFloorSec
	}
	ticks := persist * c.World.TicksPerSecond
	// Factor such that a full-strength deposit reaches the removal threshold
	// after `ticks` decay steps.
	return math.Pow(c.Pheromone.DecayThreshold, 1/ticks)
}

// Clone returns a deep copy (the struct is flat value types throughout).
func (c *Config) Clone() *Config {
	dup := *c
	return &dup
}

func clampFloat(v *float64, lo, hi float64, name string) {
	if math.IsNaN(*v) {
		slog.Warn("config value not a number, using minimum", "key", name, "min", lo)
		*v = lo
		return
	}
	if *v < lo {
		slog.Warn("config value clamped", "key", name, "value", *v, "min", lo)
		*v = lo
	} else if *v > hi {
		slog.Warn("config value clamped", "key", name, "value", *v, "max", hi)
		*v = hi
	}
}

func clampInt(v *int, lo, hi int, name string) {
	if *v < lo {
		slog.Warn("config value clamped", "key", name, "value", *v, "min", lo)
		*v = lo
	} else if *v > hi {
		slog.Warn("config value clamped", "key", name, "value", *v, "max", hi)
		*v = hi
	}
}

// clampOpenUnit keeps a factor strictly inside (0, 1).
func clampOpenUnit(v *float64, name string) {
	clampFloat(v, 1e-6, 1-1e-6, name)
}
