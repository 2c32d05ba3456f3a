// Command forage-report runs repeated headless simulations and prints
// foraging and population statistics per run plus cross-run aggregates.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"log/slog"

	"github.com/nantestudio/antworld/internal/config"
	"github.com/nantestudio/antworld/internal/engine"
	"github.com/nantestudio/antworld/internal/telemetry"
)

type runStats struct {
	runIndex int
	seed     int64

	finalTick  uint64
	population int
	foodStored float64
	births     uint64
	deaths     uint64

	eventCounts map[string]int
	summary     telemetry.Summary
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var cols, rows, colonies int
	var csvDir string

	flag.IntVar(&runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 36000, "ticks per run (60 ticks = 1s)")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.IntVar(&cols, "cols", 120, "world columns")
	flag.IntVar(&rows, "rows", 90, "world rows")
	flag.IntVar(&colonies, "colonies", 2, "colony count")
	flag.StringVar(&csvDir, "csv-dir", "", "write per-run telemetry CSV here (empty = off)")
	flag.Parse()

	// Handlers below print the report to stdout; keep slog noise out of it.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}

	fmt.Printf("=== Forage Report ===\n")
	fmt.Printf("runs=%d ticks=%d grid=%dx%d colonies=%d seed_base=%d seed_step=%d\n\n",
		runs, ticks, cols, rows, colonies, seedBase, seedStep)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		stats, err := runOnce(i+1, seed, ticks, cols, rows, colonies, csvDir)
		if err != nil {
			fmt.Printf("--- Run %d (seed=%d) FAILED: %v ---\n\n", i+1, seed, err)
			continue
		}
		all = append(all, stats)
		printRun(stats)
	}

	printAggregate(all)
}

func runOnce(runIndex int, seed int64, ticks, cols, rows, colonies int, csvDir string) (runStats, error) {
	cfg := config.Default()
	cfg.World.Cols = cols
	cfg.World.Rows = rows
	cfg.World.ColonyCount = colonies
	cfg.Clamp()

	sim, err := engine.NewRandom(cfg, seed)
	if err != nil {
		return runStats{}, err
	}

	collector := telemetry.NewCollector(uint64(cfg.World.TicksPerSecond)) // 1 sample per sim-second
	dt := 1.0 / cfg.World.TicksPerSecond

	for i := 0; i < ticks; i++ {
		sim.Update(dt)
		if collector.Due(sim.Tick()) {
			collector.Observe(sim)
		}
	}

	if csvDir != "" {
		os.MkdirAll(csvDir, 0755)
		path := filepath.Join(csvDir, fmt.Sprintf("forage-run%d-seed%d.csv", runIndex, seed))
		if err := collector.WriteCSV(path); err != nil {
			fmt.Fprintf(os.Stderr, "csv write failed: %v\n", err)
		}
	}

	stats := runStats{
		runIndex:    runIndex,
		seed:        seed,
		finalTick:   sim.Tick(),
		population:  sim.AntCount(),
		births:      sim.Births(),
		deaths:      sim.Deaths(),
		eventCounts: map[string]int{},
		summary:     collector.Summarize(),
	}
	for _, c := range sim.Colonies() {
		stats.foodStored += c.Food
	}
	for _, e := range sim.Events(1000) {
		stats.eventCounts[e.Category]++
	}
	return stats, nil
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Printf("final: tick=%d population=%d food_stored=%.1f births=%d deaths=%d\n",
		rs.finalTick, rs.population, rs.foodStored, rs.births, rs.deaths)
	fmt.Printf("series: mean_pop=%.1f std_pop=%.1f peak_pop=%d mean_food=%.1f\n",
		rs.summary.MeanPopulation, rs.summary.StdPopulation,
		rs.summary.PeakPopulation, rs.summary.MeanFood)
	fmt.Printf("events: %s\n\n", formatCounts(rs.eventCounts))
}

func printAggregate(all []runStats) {
	if len(all) == 0 {
		fmt.Println("no successful runs")
		return
	}

	var totalPop, totalBirths, totalDeaths int
	var totalFood float64
	eventTotals := map[string]int{}
	for _, rs := range all {
		totalPop += rs.population
		totalBirths += int(rs.births)
		totalDeaths += int(rs.deaths)
		totalFood += rs.foodStored
		for k, v := range rs.eventCounts {
			eventTotals[k] += v
		}
	}

	n := float64(len(all))
	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d\n", len(all))
	fmt.Printf("avg_final_population=%.1f avg_food_stored=%.1f avg_births=%.1f avg_deaths=%.1f\n",
		float64(totalPop)/n, totalFood/n, float64(totalBirths)/n, float64(totalDeaths)/n)
	fmt.Printf("avg_events_per_run: %s\n", formatAvgCounts(eventTotals, len(all)))
}

func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", k, counts[k])
	}
	return out
}

func formatAvgCounts(counts map[string]int, runs int) string {
	if len(counts) == 0 || runs == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%.1f", k, float64(counts[k])/float64(runs))
	}
	return out
}
