// Package telemetry samples simulation state at a fixed tick interval and
// writes the series out as CSV, with summary statistics for quick reads.
package telemetry

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"github.com/nantestudio/antworld/internal/ants"
	"github.com/nantestudio/antworld/internal/engine"
)

// Sample is one row of the telemetry series.
type Sample struct {
	Tick        uint64  `csv:"tick"`
	SimTime     float64 `csv:"sim_time"`
	Population  int     `csv:"population"`
	Workers     int     `csv:"workers"`
	Soldiers    int     `csv:"soldiers"`
	Nurses      int     `csv:"nurses"`
	Queens      int     `csv:"queens"`
	Princesses  int     `csv:"princesses"`
	Drones      int     `csv:"drones"`
	Builders    int     `csv:"builders"`
	Eggs        int     `csv:"eggs"`
	Larvae      int     `csv:"larvae"`
	FoodStored  float64 `csv:"food_stored"`
	ActiveCells int     `csv:"active_pheromone_cells"`
	Births      uint64  `csv:"births"`
	Deaths      uint64  `csv:"deaths"`
}

// Collector accumulates samples in memory. Not safe for concurrent use.
type Collector struct {
	Interval uint64 // ticks between samples; 0 disables
	samples  []*Sample
}

func NewCollector(intervalTicks uint64) *Collector {
	return &Collector{Interval: intervalTicks}
}

// Due reports whether the given tick falls on the sampling cadence.
func (c *Collector) Due(tick uint64) bool {
	return c.Interval > 0 && tick%c.Interval == 0
}

// Observe captures the current simulation state as a sample.
func (c *Collector) Observe(s *engine.Simulation) {
	smp := &Sample{
		Tick:        s.Tick(),
		SimTime:     s.SimTime(),
		Population:  s.AntCount(),
		ActiveCells: s.Grid().ActivePheromoneCells(),
		Births:      s.Births(),
		Deaths:      s.Deaths(),
	}
	for _, col := range s.Colonies() {
		smp.FoodStored += col.Food
		smp.Workers += col.CasteCounts[ants.CasteWorker]
		smp.Soldiers += col.CasteCounts[ants.CasteSoldier]
		smp.Nurses += col.CasteCounts[ants.CasteNurse]
		smp.Queens += col.CasteCounts[ants.CasteQueen]
		smp.Princesses += col.CasteCounts[ants.CastePrincess]
		smp.Drones += col.CasteCounts[ants.CasteDrone]
		smp.Builders += col.CasteCounts[ants.CasteBuilder]
		smp.Eggs += col.CasteCounts[ants.CasteEgg]
		smp.Larvae += col.CasteCounts[ants.CasteLarva]
	}
	c.samples = append(c.samples, smp)
}

func (c *Collector) Samples() []*Sample {
	return c.samples
}

// WriteCSV writes the full series to path.
func (c *Collector) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("telemetry: create %s: %w", path, err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&c.samples, f); err != nil {
		return fmt.Errorf("telemetry: write %s: %w", path, err)
	}
	return nil
}

// Summary holds aggregate statistics over the collected series.
type Summary struct {
	Samples        int
	MeanPopulation float64
	StdPopulation  float64
	MeanFood       float64
	StdFood        float64
	PeakPopulation int
	TotalBirths    uint64
	TotalDeaths    uint64
}

// Summarize reduces the series to aggregate statistics.
func (c *Collector) Summarize() Summary {
	sum := Summary{Samples: len(c.samples)}
	if len(c.samples) == 0 {
		return sum
	}
	pop := make([]float64, len(c.samples))
	food := make([]float64, len(c.samples))
	for i, s := range c.samples {
		pop[i] = float64(s.Population)
		food[i] = s.FoodStored
		if s.Population > sum.PeakPopulation {
			sum.PeakPopulation = s.Population
		}
	}
	last := c.samples[len(c.samples)-1]
	sum.TotalBirths = last.Births
	sum.TotalDeaths = last.Deaths
	sum.MeanPopulation = stat.Mean(pop, nil)
	sum.StdPopulation = stat.StdDev(pop, nil)
	sum.MeanFood = stat.Mean(food, nil)
	sum.StdFood = stat.StdDev(food, nil)
	return sum
}
