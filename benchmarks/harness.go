// Package benchmarks provides store-path benchmark infrastructure for sbsim
// calibration.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/sbsim/timing/core"
	"github.com/sarchlab/sbsim/timing/memsys"
	"github.com/sarchlab/sbsim/trace"
)

// Version identifies the report format produced by this harness.
const Version = "0.3.0"

// Scenario defines a single benchmark workload.
type Scenario struct {
	// Name identifies the scenario
	Name string

	// Description explains what the scenario stresses
	Description string

	// Commands is the trace driven through the store path
	Commands []trace.Command

	// Config overrides the harness memory configuration when non-nil
	Config *memsys.Config

	// MaxCycles bounds the run; zero selects the core default
	MaxCycles uint64

	// ExpectedStores is the number of stores that must drain (for validation)
	ExpectedStores uint64
}

// Result holds the measured outcome of one scenario run.
type Result struct {
	// Name identifies the scenario
	Name string `json:"name"`

	// Description explains what the scenario stresses
	Description string `json:"description"`

	// Cycles is the total cycle count for the run
	Cycles uint64 `json:"cycles"`

	// Pushes is the number of stores accepted into the speculative queue
	Pushes uint64 `json:"pushes"`

	// Commits is the number of stores transferred to the commit queue
	Commits uint64 `json:"commits"`

	// DrainedStores is the number of stores accepted by memory
	DrainedStores uint64 `json:"drained_stores"`

	// Flushes and FlushedEntries count speculation discards
	Flushes        uint64 `json:"flushes"`
	FlushedEntries uint64 `json:"flushed_entries"`

	// RequestCycles is the number of cycles a write request was driven;
	// StallCycles is how many of those went ungranted
	RequestCycles uint64 `json:"request_cycles"`
	StallCycles   uint64 `json:"stall_cycles"`

	// DrainRate is drained stores per cycle
	DrainRate float64 `json:"drain_rate"`

	// StallRate is the fraction of request cycles spent waiting
	StallRate float64 `json:"stall_rate"`

	// CacheHits/Misses classify write port requests
	CacheHits   uint64 `json:"cache_hits"`
	CacheMisses uint64 `json:"cache_misses"`

	// Evictions/Writebacks (if any occurred)
	Evictions  uint64 `json:"evictions,omitempty"`
	Writebacks uint64 `json:"writebacks,omitempty"`

	// Load query stats (if the scenario drives loads)
	LoadQueries   uint64 `json:"load_queries,omitempty"`
	LoadConflicts uint64 `json:"load_conflicts,omitempty"`

	// Error is set when the run failed
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Memory is the memory configuration applied to scenarios that do not
	// carry their own; nil selects the default
	Memory *memsys.Config

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables the cache detail section in human-readable output
	Verbose bool
}

// DefaultHarnessConfig returns a default harness configuration.
func DefaultHarnessConfig() HarnessConfig {
	return HarnessConfig{
		Output: os.Stdout,
	}
}

// Harness runs store-path scenarios and reports results.
type Harness struct {
	config    HarnessConfig
	scenarios []Scenario
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:    config,
		scenarios: []Scenario{},
	}
}

// AddScenario adds a scenario to the harness.
func (h *Harness) AddScenario(s Scenario) {
	h.scenarios = append(h.scenarios, s)
}

// AddScenarios adds multiple scenarios to the harness.
func (h *Harness) AddScenarios(scenarios []Scenario) {
	h.scenarios = append(h.scenarios, scenarios...)
}

// RunAll executes all scenarios and returns results.
func (h *Harness) RunAll() []Result {
	results := make([]Result, 0, len(h.scenarios))

	for _, s := range h.scenarios {
		results = append(results, h.runScenario(s))
	}

	return results
}

// runScenario executes a single scenario on a fresh store path.
func (h *Harness) runScenario(s Scenario) Result {
	config := s.Config
	if config == nil {
		config = h.config.Memory
	}
	c := core.NewCore(config)

	start := time.Now()
	summary, err := c.Run(s.Commands, s.MaxCycles)
	wallTime := time.Since(start)

	result := Result{
		Name:           s.Name,
		Description:    s.Description,
		Cycles:         summary.Cycles,
		Pushes:         summary.Buffer.Pushes,
		Commits:        summary.Buffer.Commits,
		DrainedStores:  summary.Buffer.DrainedStores,
		Flushes:        summary.Buffer.Flushes,
		FlushedEntries: summary.Buffer.FlushedEntries,
		RequestCycles:  summary.Buffer.RequestCycles,
		StallCycles:    summary.Buffer.StallCycles,
		DrainRate:      summary.Buffer.DrainRate(),
		StallRate:      summary.Buffer.StallRate(),
		CacheHits:      summary.Port.Hits,
		CacheMisses:    summary.Port.Misses,
		Evictions:      summary.Cache.Evictions,
		Writebacks:     summary.Cache.Writebacks,
		LoadQueries:    summary.LoadQueries,
		LoadConflicts:  summary.LoadConflicts,
		WallTime:       wallTime,
	}
	if err != nil {
		result.Error = err.Error()
	}

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output, "=== sbsim Store Path Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Scenario: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  ERROR: %s\n", r.Error)
		}
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Cycles:          %d\n", r.Cycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Pushes:          %d\n", r.Pushes)
		_, _ = fmt.Fprintf(h.config.Output, "  Commits:         %d\n", r.Commits)
		_, _ = fmt.Fprintf(h.config.Output, "  Drained Stores:  %d\n", r.DrainedStores)
		_, _ = fmt.Fprintf(h.config.Output, "  Drain Rate:      %.3f stores/cycle\n", r.DrainRate)
		_, _ = fmt.Fprintf(h.config.Output, "  Request Cycles:  %d\n", r.RequestCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Stall Cycles:    %d (%.1f%%)\n",
			r.StallCycles, r.StallRate*100)
		if r.Flushes > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Flushes:         %d (%d entries)\n",
				r.Flushes, r.FlushedEntries)
		}

		_, _ = fmt.Fprintln(h.config.Output, "  --- Write Port ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.CacheHits)
		_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.CacheMisses)
		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "  Evictions:  %d\n", r.Evictions)
			_, _ = fmt.Fprintf(h.config.Output, "  Writebacks: %d\n", r.Writebacks)
		}

		if r.LoadQueries > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Alias Checker ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Load Queries:   %d\n", r.LoadQueries)
			_, _ = fmt.Fprintf(h.config.Output, "  Load Conflicts: %d\n", r.LoadConflicts)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,pushes,commits,drained,flushes,flushed_entries,request_cycles,stall_cycles,hits,misses,load_queries,load_conflicts,drain_rate,stall_rate")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%.3f,%.3f\n",
			r.Name,
			r.Cycles,
			r.Pushes,
			r.Commits,
			r.DrainedStores,
			r.Flushes,
			r.FlushedEntries,
			r.RequestCycles,
			r.StallCycles,
			r.CacheHits,
			r.CacheMisses,
			r.LoadQueries,
			r.LoadConflicts,
			r.DrainRate,
			r.StallRate,
		)
	}
}

// Report is the complete output format for benchmark results.
type Report struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual scenario results
	Results []Result `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the simulator
	Version string `json:"version"`

	// Memory is the harness-level memory configuration
	Memory *memsys.Config `json:"memory"`
}

// ReportSummary contains aggregate statistics across all scenarios.
type ReportSummary struct {
	// TotalScenarios is the number of scenarios run
	TotalScenarios int `json:"total_scenarios"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalStores is the sum of all drained stores
	TotalStores uint64 `json:"total_stores"`

	// AverageDrainRate is drained stores per cycle across all scenarios
	AverageDrainRate float64 `json:"average_drain_rate"`

	// TotalWallTime is the total wall clock time for all scenarios
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated
// comparison.
func (h *Harness) PrintJSON(results []Result) error {
	var totalCycles, totalStores uint64
	var totalWallTime time.Duration
	for _, r := range results {
		totalCycles += r.Cycles
		totalStores += r.DrainedStores
		totalWallTime += r.WallTime
	}

	avgRate := float64(0)
	if totalCycles > 0 {
		avgRate = float64(totalStores) / float64(totalCycles)
	}

	memory := h.config.Memory
	if memory == nil {
		memory = memsys.DefaultConfig()
	}

	report := Report{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Memory:    memory,
		},
		Results: results,
		Summary: ReportSummary{
			TotalScenarios:   len(results),
			TotalCycles:      totalCycles,
			TotalStores:      totalStores,
			AverageDrainRate: avgRate,
			TotalWallTime:    totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
