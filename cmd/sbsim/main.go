// Package main provides the entry point for sbsim.
// sbsim is a cycle-level CPU store buffer simulator.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/sbsim/timing/core"
	"github.com/sarchlab/sbsim/timing/memsys"
	"github.com/sarchlab/sbsim/trace"
)

var (
	configPath = flag.String("config", "", "Path to memory configuration JSON file")
	maxCycles  = flag.Uint64("max-cycles", 0, "Cycle budget for the run (0 = default)")
	jsonOut    = flag.Bool("json", false, "Output the report in JSON format")
	verbose    = flag.Bool("v", false, "Verbose output")
)

// report is the JSON output format for a trace run.
type report struct {
	Trace          string  `json:"trace"`
	Cycles         uint64  `json:"cycles"`
	Pushes         uint64  `json:"pushes"`
	Commits        uint64  `json:"commits"`
	DrainedStores  uint64  `json:"drained_stores"`
	Flushes        uint64  `json:"flushes"`
	FlushedEntries uint64  `json:"flushed_entries"`
	RequestCycles  uint64  `json:"request_cycles"`
	StallCycles    uint64  `json:"stall_cycles"`
	DrainRate      float64 `json:"drain_rate"`
	StallRate      float64 `json:"stall_rate"`
	CacheHits      uint64  `json:"cache_hits"`
	CacheMisses    uint64  `json:"cache_misses"`
	Evictions      uint64  `json:"evictions"`
	Writebacks     uint64  `json:"writebacks"`
	LoadQueries    uint64  `json:"load_queries"`
	LoadConflicts  uint64  `json:"load_conflicts"`
}

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: sbsim [options] <trace file>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	tracePath := flag.Arg(0)

	// Set up the memory configuration
	var config *memsys.Config
	if *configPath != "" {
		var err error
		config, err = memsys.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading memory config: %v\n", err)
			os.Exit(1)
		}
	} else {
		config = memsys.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid memory config: %v\n", err)
		os.Exit(1)
	}

	// Load the trace
	commands, err := trace.LoadFile(tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trace: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", tracePath)
		fmt.Printf("Commands: %d\n", len(commands))
		fmt.Printf("Memory: hit=%d miss=%d cache=%dB/%d-way/%dB blocks\n",
			config.HitLatency, config.MissLatency,
			config.CacheSize, config.Associativity, config.BlockSize)
	}

	// Run the trace through the store path
	c := core.NewCore(config)
	summary, err := c.Run(commands, *maxCycles)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running trace: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		printJSON(tracePath, summary)
	} else {
		printReport(tracePath, summary)
	}
}

// printReport writes the human-readable run report.
func printReport(tracePath string, summary core.Summary) {
	totalCycles := summary.Cycles
	if totalCycles == 0 {
		totalCycles = 1 // Avoid division by zero
	}

	buf := summary.Buffer

	fmt.Printf("\n")
	fmt.Printf("Trace: %s\n", tracePath)
	fmt.Printf("Total Cycles: %d\n", summary.Cycles)
	fmt.Printf("Stores Pushed: %d\n", buf.Pushes)
	fmt.Printf("Stores Committed: %d\n", buf.Commits)
	fmt.Printf("Stores Drained: %d\n", buf.DrainedStores)
	fmt.Printf("Drain Rate: %.3f stores/cycle\n", buf.DrainRate())
	fmt.Printf("\n")
	fmt.Printf("Breakdown:\n")
	fmt.Printf("  Request cycles: %5d (%5.1f%%)\n",
		buf.RequestCycles, 100.0*float64(buf.RequestCycles)/float64(totalCycles))
	fmt.Printf("  Stall cycles:   %5d (%5.1f%%)\n",
		buf.StallCycles, 100.0*float64(buf.StallCycles)/float64(totalCycles))
	fmt.Printf("\n")
	fmt.Printf("Write Port:\n")
	fmt.Printf("  Hits:   %d\n", summary.Port.Hits)
	fmt.Printf("  Misses: %d\n", summary.Port.Misses)

	if summary.Cache.Evictions > 0 || summary.Cache.Writebacks > 0 {
		fmt.Printf("\n")
		fmt.Printf("Data Cache:\n")
		fmt.Printf("  Evictions:  %d\n", summary.Cache.Evictions)
		fmt.Printf("  Writebacks: %d\n", summary.Cache.Writebacks)
	}

	if buf.Flushes > 0 {
		fmt.Printf("\n")
		fmt.Printf("Speculation:\n")
		fmt.Printf("  Flushes:         %d\n", buf.Flushes)
		fmt.Printf("  Flushed Entries: %d\n", buf.FlushedEntries)
	}

	if summary.LoadQueries > 0 {
		fmt.Printf("\n")
		fmt.Printf("Alias Checker:\n")
		fmt.Printf("  Load Queries:   %d\n", summary.LoadQueries)
		fmt.Printf("  Load Conflicts: %d\n", summary.LoadConflicts)
	}
}

// printJSON writes the machine-readable run report.
func printJSON(tracePath string, summary core.Summary) {
	buf := summary.Buffer
	r := report{
		Trace:          tracePath,
		Cycles:         summary.Cycles,
		Pushes:         buf.Pushes,
		Commits:        buf.Commits,
		DrainedStores:  buf.DrainedStores,
		Flushes:        buf.Flushes,
		FlushedEntries: buf.FlushedEntries,
		RequestCycles:  buf.RequestCycles,
		StallCycles:    buf.StallCycles,
		DrainRate:      buf.DrainRate(),
		StallRate:      buf.StallRate(),
		CacheHits:      summary.Port.Hits,
		CacheMisses:    summary.Port.Misses,
		Evictions:      summary.Cache.Evictions,
		Writebacks:     summary.Cache.Writebacks,
		LoadQueries:    summary.LoadQueries,
		LoadConflicts:  summary.LoadConflicts,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
		os.Exit(1)
	}
}
