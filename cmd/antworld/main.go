// Command antworld runs the headless ant colony simulation with an HTTP
// observation API, periodic snapshots, and optional CSV telemetry.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/nantestudio/antworld/internal/api"
	"github.com/nantestudio/antworld/internal/config"
	"github.com/nantestudio/antworld/internal/engine"
	"github.com/nantestudio/antworld/internal/persistence"
	"github.com/nantestudio/antworld/internal/telemetry"
)

const keepSnapshots = 10

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (empty = built-in defaults)")
		seed       = flag.Int64("seed", 0, "world seed (0 = time-based)")
		fresh      = flag.Bool("fresh", false, "ignore saved snapshots and generate a new world")
		port       = flag.Int("port", 0, "HTTP API port override")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", *configPath)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	// ── Database ──────────────────────────────────────────────────────
	dbPath := cfg.Autosave.DBPath
	os.MkdirAll(filepath.Dir(dbPath), 0755)
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	// ── Load or Generate ──────────────────────────────────────────────
	var sim *engine.Simulation
	if !*fresh {
		snap, err := db.LoadLatestSnapshot()
		switch {
		case errors.Is(err, persistence.ErrNoSnapshot):
			slog.Info("no saved snapshot found, generating new world")
		case err != nil:
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		default:
			sim, err = engine.FromSnapshot(snap)
			if err != nil {
				slog.Error("failed to restore snapshot", "error", err, "id", snap.ID)
				os.Exit(1)
			}
			slog.Info("world restored",
				"snapshot", snap.ID,
				"tick", sim.Tick(),
				"ants", sim.AntCount(),
			)
		}
	}
	if sim == nil {
		sim, err = engine.NewRandom(cfg, *seed)
		if err != nil {
			slog.Error("world generation failed", "error", err)
			os.Exit(1)
		}
	}

	var mu sync.Mutex

	// ── Telemetry ─────────────────────────────────────────────────────
	tickRate := sim.Config().World.TicksPerSecond
	collector := telemetry.NewCollector(uint64(sim.Config().Telemetry.IntervalSec * tickRate))

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("ANTWORLD_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("ANTWORLD_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Sim:      sim,
		Mu:       &mu,
		DB:       db,
		Port:     cfg.Server.Port,
		AdminKey: adminKey,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	grid := sim.Grid()
	fmt.Printf("\nantworld is alive: %d ants in %d colonies on a %dx%d grid.\n",
		sim.AntCount(), len(sim.Colonies()), grid.Cols, grid.Rows)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Server.Port)
	if sim.Tick() > 0 {
		fmt.Printf("Resuming from tick %s\n", humanize.Comma(int64(sim.Tick())))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	run(sim, &mu, db, collector, sigCh)

	// Final save on shutdown.
	slog.Info("final save")
	mu.Lock()
	err = db.SaveWorldState(sim, keepSnapshots)
	mu.Unlock()
	if err != nil {
		slog.Error("final save failed", "error", err)
	}
	writeTelemetry(sim, collector)

	fmt.Println("Simulation stopped. World state saved.")
}

// run drives the fixed-timestep loop until a shutdown signal arrives.
func run(sim *engine.Simulation, mu *sync.Mutex, db *persistence.DB, collector *telemetry.Collector, sigCh chan os.Signal) {
	tickRate := sim.Config().World.TicksPerSecond
	dt := 1.0 / tickRate
	interval := time.Duration(float64(time.Second) / tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	autosaveEvery := time.Duration(sim.Config().Autosave.IntervalSec * float64(time.Second))
	lastSave := time.Now()
	started := time.Now()

	for {
		select {
		case sig := <-sigCh:
			slog.Info("received signal, shutting down",
				"signal", sig,
				"uptime", humanize.RelTime(started, time.Now(), "", ""),
			)
			return
		case <-ticker.C:
			mu.Lock()
			sim.Update(dt)
			if collector.Due(sim.Tick()) && !sim.Paused() {
				collector.Observe(sim)
			}
			mu.Unlock()

			if time.Since(lastSave) >= autosaveEvery {
				lastSave = time.Now()
				mu.Lock()
				err := db.SaveWorldState(sim, keepSnapshots)
				tick := sim.Tick()
				mu.Unlock()
				if err != nil {
					slog.Error("autosave failed", "error", err)
				} else {
					slog.Info("autosave complete",
						"tick", humanize.Comma(int64(tick)),
						"elapsed", humanize.RelTime(started, time.Now(), "", ""),
					)
				}
			}
		}
	}
}

func writeTelemetry(sim *engine.Simulation, collector *telemetry.Collector) {
	dir := sim.Config().Telemetry.CSVDir
	if dir == "" || len(collector.Samples()) == 0 {
		return
	}
	os.MkdirAll(dir, 0755)
	path := filepath.Join(dir, fmt.Sprintf("run-%d.csv", sim.Seed()))
	if err := collector.WriteCSV(path); err != nil {
		slog.Error("telemetry write failed", "error", err)
		return
	}
	sum := collector.Summarize()
	slog.Info("telemetry written",
		"path", path,
		"samples", sum.Samples,
		"mean_population", fmt.Sprintf("%.1f", sum.MeanPopulation),
		"peak_population", sum.PeakPopulation,
	)
}
