// Snapshot and restore: the persistence boundary. A snapshot is a plain
// structured value serializable as JSON; the bulk grid arrays travel as
// base64-encoded typed byte buffers to keep envelopes compact.
package engine

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/nantestudio/antworld/internal/ants"
	"github.com/nantestudio/antworld/internal/config"
	"github.com/nantestudio/antworld/internal/entropy"
	"github.com/nantestudio/antworld/internal/world"
)

// SnapshotVersion guards against restoring envelopes from an incompatible
// build.
const SnapshotVersion = 1

// Snapshot captures everything needed to reconstruct an equivalent live
// simulation.
type Snapshot struct {
	Version int    `json:"version"`
	ID      string `json:"id"` // Random identity per capture
	Seed    int64  `json:"seed"`
	Tick    uint64 `json:"tick"`
	SimTime float64 `json:"sim_time"`
	Paused  bool   `json:"paused"`
	NextID  uint64 `json:"next_id"`
	Births  uint64 `json:"births"`
	Deaths  uint64 `json:"deaths"`

	Cols int `json:"cols"`
	Rows int `json:"rows"`

	Config config.Config `json:"config"`

	// Grid arrays, base64 of little-endian typed buffers.
	Cells  string `json:"cells"`
	Dirt   string `json:"dirt"`
	Health string `json:"health"`

	Layers []LayerSnapshot `json:"layers"`
	Nests  [][]world.Point `json:"nests"`

	Ants     []*ants.Ant `json:"ants"`
	Colonies []*Colony   `json:"colonies"`
}

// LayerSnapshot is one colony's pheromone state.
type LayerSnapshot struct {
	Colony int    `json:"colony"`
	Food   string `json:"food"`
	Home   string `json:"home"`
}

// ToSnapshot captures the full simulation state. Must not run while a tick
// is in flight.
func (s *Simulation) ToSnapshot() *Snapshot {
	cells, dirt, health := s.grid.CopyCells()

	snap := &Snapshot{
		Version: SnapshotVersion,
		ID:      uuid.NewString(),
		Seed:    s.seed,
		Tick:    s.tick,
		SimTime: s.simTime,
		Paused:  s.paused,
		NextID:  s.nextID,
		Births:  s.births,
		Deaths:  s.deaths,
		Cols:    s.grid.Cols,
		Rows:    s.grid.Rows,
		Config:  *s.cfg,
		Cells:   encodeBytes(cellBytes(cells)),
		Dirt:    encodeBytes(dirtBytes(dirt)),
		Health:  encodeBytes(f32Bytes(health)),
	}

	for i := 1; i <= s.grid.Colonies(); i++ {
		snap.Layers = append(snap.Layers, LayerSnapshot{
			Colony: i,
			Food:   encodeBytes(f32Bytes(s.grid.CopyFoodPheromone(i))),
			Home:   encodeBytes(f32Bytes(s.grid.CopyHomePheromone(i))),
		})
		snap.Nests = append(snap.Nests, s.grid.Nest(i))
	}

	snap.Ants = make([]*ants.Ant, len(s.ants))
	for i, a := range s.ants {
		dup := *a
		snap.Ants[i] = &dup
	}
	snap.Colonies = make([]*Colony, len(s.colonies))
	for i, c := range s.colonies {
		dup := *c
		dup.Rooms = append([]Room(nil), c.Rooms...)
		dup.Blueprints = append([]Blueprint(nil), c.Blueprints...)
		snap.Colonies[i] = &dup
	}
	return snap
}

// FromSnapshot reconstructs a live simulation. The result ticks forward with
// no special-cased restored behavior.
func FromSnapshot(snap *Snapshot) (*Simulation, error) {
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("restore: snapshot version %d, want %d", snap.Version, SnapshotVersion)
	}
	if snap.Cols <= 0 || snap.Rows <= 0 || len(snap.Layers) < 1 || len(snap.Layers) > 4 {
		return nil, fmt.Errorf("restore: malformed snapshot %dx%d, %d layers",
			snap.Cols, snap.Rows, len(snap.Layers))
	}

	cfg := snap.Config
	cfg.Clamp()

	grid := world.NewGrid(snap.Cols, snap.Rows, len(snap.Layers))

	cellsRaw, err := decodeBytes(snap.Cells)
	if err != nil {
		return nil, fmt.Errorf("restore cells: %w", err)
	}
	dirtRaw, err := decodeBytes(snap.Dirt)
	if err != nil {
		return nil, fmt.Errorf("restore dirt: %w", err)
	}
	healthRaw, err := decodeBytes(snap.Health)
	if err != nil {
		return nil, fmt.Errorf("restore health: %w", err)
	}
	health, err := bytesF32(healthRaw)
	if err != nil {
		return nil, fmt.Errorf("restore health: %w", err)
	}
	if err := grid.RestoreCells(bytesCells(cellsRaw), bytesDirt(dirtRaw), health); err != nil {
		return nil, fmt.Errorf("restore cells: %w", err)
	}

	for i, l := range snap.Layers {
		if l.Colony < 1 || l.Colony > len(snap.Layers) {
			return nil, fmt.Errorf("restore: layer colony %d outside 1..%d", l.Colony, len(snap.Layers))
		}
		foodRaw, err := decodeBytes(l.Food)
		if err != nil {
			return nil, fmt.Errorf("restore layer %d: %w", l.Colony, err)
		}
		homeRaw, err := decodeBytes(l.Home)
		if err != nil {
			return nil, fmt.Errorf("restore layer %d: %w", l.Colony, err)
		}
		food, err := bytesF32(foodRaw)
		if err != nil {
			return nil, fmt.Errorf("restore layer %d: %w", l.Colony, err)
		}
		home, err := bytesF32(homeRaw)
		if err != nil {
			return nil, fmt.Errorf("restore layer %d: %w", l.Colony, err)
		}
		if err := grid.RestorePheromone(l.Colony, food, home); err != nil {
			return nil, fmt.Errorf("restore layer %d: %w", l.Colony, err)
		}
		if i < len(snap.Nests) {
			grid.SetNest(l.Colony, snap.Nests[i])
		}
	}

	src := entropy.NewSource(snap.Seed)
	s := &Simulation{
		cfg:       &cfg,
		grid:      grid,
		seed:      snap.Seed,
		nextID:    snap.NextID,
		rngAnts:   src.Stream("ants"),
		rngCombat: src.Stream("combat"),
		rngColony: src.Stream("colony"),
		tick:      snap.Tick,
		simTime:   snap.SimTime,
		paused:    snap.Paused,
		births:    snap.Births,
		deaths:    snap.Deaths,
		events:    NewEventLog(1000),
	}
	s.decayFactor = cfg.EffectiveDecayFactor(snap.Cols, snap.Rows)

	s.ants = make([]*ants.Ant, len(snap.Ants))
	for i, a := range snap.Ants {
		dup := *a
		s.ants[i] = &dup
	}
	s.colonies = make([]*Colony, len(snap.Colonies))
	for i, c := range snap.Colonies {
		dup := *c
		dup.Rooms = append([]Room(nil), c.Rooms...)
		dup.Blueprints = append([]Blueprint(nil), c.Blueprints...)
		s.colonies[i] = &dup
	}
	s.refreshCasteCounts()
	return s, nil
}

// ── Buffer codecs ─────────────────────────────────────────────────────────

func encodeBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func decodeBytes(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

func cellBytes(cells []world.CellType) []byte {
	out := make([]byte, len(cells))
	for i, c := range cells {
		out[i] = byte(c)
	}
	return out
}

func bytesCells(b []byte) []world.CellType {
	out := make([]world.CellType, len(b))
	for i, v := range b {
		out[i] = world.CellType(v)
	}
	return out
}

func dirtBytes(dirt []world.DirtType) []byte {
	out := make([]byte, len(dirt))
	for i, d := range dirt {
		out[i] = byte(d)
	}
	return out
}

func bytesDirt(b []byte) []world.DirtType {
	out := make([]world.DirtType, len(b))
	for i, v := range b {
		out[i] = world.DirtType(v)
	}
	return out
}

func f32Bytes(vals []float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func bytesF32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("float32 buffer length %d not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}
