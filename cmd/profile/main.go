// Package main provides a profiling wrapper for sbsim to identify
// performance bottlenecks in the store path.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/sbsim/timing/core"
	"github.com/sarchlab/sbsim/timing/memsys"
	"github.com/sarchlab/sbsim/timing/storebuffer"
)

var (
	storeCount = flag.Uint64("stores", 1_000_000, "number of stores to drive through the buffer")
	span       = flag.Uint64("span", 1<<20, "size of the address region the stores cycle through")
	withLoads  = flag.Bool("loads", true, "interleave load queries with the stores")
	slowMemory = flag.Bool("slow-memory", false, "use the slow memory configuration")
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	config := memsys.DefaultConfig()
	if *slowMemory {
		config = memsys.SlowMemoryConfig()
	}

	fmt.Printf("Driving %d stores over a %d byte region\n", *storeCount, *span)
	fmt.Printf("Memory: hit=%d miss=%d\n", config.HitLatency, config.MissLatency)

	// Set timeout
	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		os.Exit(2)
	}()

	c := core.NewCore(config)

	start := time.Now()
	driveStores(c, *storeCount, *span, *withLoads)
	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	summary := c.Summary()

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Cycles simulated: %d\n", summary.Cycles)
	fmt.Printf("Stores drained: %d\n", summary.Buffer.DrainedStores)
	fmt.Printf("Stall rate: %.3f\n", summary.Buffer.StallRate())
	fmt.Printf("Cache hits/misses: %d/%d\n", summary.Port.Hits, summary.Port.Misses)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("Cycles/second: %.0f\n", float64(summary.Cycles)/elapsed.Seconds())
		fmt.Printf("Stores/second: %.0f\n",
			float64(summary.Buffer.DrainedStores)/elapsed.Seconds())
	}
}

// driveStores pushes and commits count stores through the store path,
// waiting out backpressure the way an execution unit would. Inputs are
// built inline to keep allocation out of the profiled loop.
func driveStores(c *core.Core, count, span uint64, withLoads bool) {
	if span < 8 {
		span = 8
	}

	for i := uint64(0); i < count; i++ {
		addr := 0x10_0000 + (i*8)%span
		in := storebuffer.CycleInput{
			StoreValid: true,
			AddrValid:  true,
			Address:    addr,
			Data:       i,
			ByteEnable: storebuffer.ByteEnableFor(addr, storebuffer.SizeDouble),
			Size:       storebuffer.SizeDouble,
		}
		if withLoads && i%8 == 0 {
			in.LoadOffset = addr & storebuffer.PageOffsetMask
		}

		for !c.Buffer().Ready(false) {
			c.Step(storebuffer.CycleInput{})
		}
		c.Step(in)

		for !c.Buffer().CommitReady() {
			c.Step(storebuffer.CycleInput{})
		}
		c.Step(storebuffer.CycleInput{Commit: true})
	}

	if err := c.Drain(0); err != nil {
		fmt.Fprintf(os.Stderr, "Error draining store path: %v\n", err)
	}
}
