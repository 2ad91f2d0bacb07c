// Package main provides consistency validation for the timed store path.
// Ensures that timing configurations change cycle counts, never memory
// contents.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sarchlab/sbsim/memory"
	"github.com/sarchlab/sbsim/timing/core"
	"github.com/sarchlab/sbsim/timing/memsys"
	"github.com/sarchlab/sbsim/timing/storebuffer"
	"github.com/sarchlab/sbsim/trace"
)

// buildWorkload returns a mixed trace touching several pages with every
// access width, including flushed speculation and same-cycle combinations.
func buildWorkload() []trace.Command {
	var commands []trace.Command

	push := func(addr, value uint64, size uint8) {
		lane := value << (8 * (addr & 7))
		commands = append(commands, trace.PushStore(addr, lane,
			storebuffer.ByteEnableFor(addr, size), size))
	}

	// Straight-line committed stores.
	for i := uint64(0); i < 16; i++ {
		push(0x1_0000+i*8, i+1, storebuffer.SizeDouble)
		commands = append(commands, trace.Commit())
	}

	// Narrow stores layered over the same lanes.
	push(0x1_0003, 0xAB, storebuffer.SizeByte)
	commands = append(commands, trace.Commit())
	push(0x1_0006, 0xBEEF, storebuffer.SizeHalf)
	commands = append(commands, trace.Commit())
	push(0x1_0014, 0xCAFE_F00D, storebuffer.SizeWord)
	commands = append(commands, trace.Commit())

	// Misspeculated stores that must never reach memory.
	push(0x9_0000, 0xDEAD, storebuffer.SizeDouble)
	push(0x9_0008, 0xDEAD, storebuffer.SizeDouble)
	commands = append(commands, trace.Flush())

	// A store pushed in the flush cycle is discarded with the rest.
	push(0x9_0010, 0xDEAD, storebuffer.SizeDouble)
	commands[len(commands)-1] = commands[len(commands)-1].WithFlush()

	// Same-cycle commit+push at the headroom boundary.
	push(0xA_0000, 0x11, storebuffer.SizeDouble)
	push(0xA_0008, 0x22, storebuffer.SizeDouble)
	push(0xA_0010, 0x33, storebuffer.SizeDouble)
	push(0xA_0018, 0x44, storebuffer.SizeDouble)
	commands[len(commands)-1] = commands[len(commands)-1].WithCommit()
	for i := 0; i < 3; i++ {
		commands = append(commands, trace.Commit())
	}

	// Load queries riding alongside the drain.
	commands = append(commands,
		trace.Load(0x000),
		trace.Load(0x018),
		trace.Drain(),
	)

	return commands
}

// applyReference replays the workload through an untimed architectural
// model: stores reach memory exactly when committed, in order.
func applyReference(commands []trace.Command) *memory.Storage {
	golden := memory.NewStorage()

	type pending struct {
		addr, data uint64
		byteEnable uint8
	}
	var spec []pending

	for _, cmd := range commands {
		if cmd.Commit {
			head := spec[0]
			spec = spec[1:]
			golden.WriteMasked64(head.addr, head.data, head.byteEnable)
		}
		if cmd.Push {
			spec = append(spec, pending{cmd.Address, cmd.Data, cmd.ByteEnable})
		}
		if cmd.Flush {
			spec = nil
		}
	}

	return golden
}

// testGoldenEquivalence compares the timed path against the untimed
// reference for every memory configuration.
func testGoldenEquivalence() bool {
	fmt.Println("Testing timed path against the untimed reference model...")

	commands := buildWorkload()
	golden := applyReference(commands)

	configs := map[string]*memsys.Config{
		"default": memsys.DefaultConfig(),
		"slow":    memsys.SlowMemoryConfig(),
		"tiny": {
			HitLatency:    2,
			MissLatency:   20,
			CacheSize:     1024,
			Associativity: 2,
			BlockSize:     64,
		},
	}

	for name, config := range configs {
		if err := config.Validate(); err != nil {
			fmt.Printf("❌ %s config invalid: %v\n", name, err)
			return false
		}

		c := core.NewCore(config)
		if _, err := c.Run(commands, 0); err != nil {
			fmt.Printf("❌ %s run failed: %v\n", name, err)
			return false
		}
		c.Cache().Flush()

		if !c.Storage().Equal(golden) {
			fmt.Printf("❌ %s memory diverges from the reference model\n", name)
			return false
		}
		fmt.Printf("✅ %s: memory byte-identical to the reference\n", name)
	}

	return true
}

// testTimingIndependence verifies that configurations change cycle counts
// but never drained store counts.
func testTimingIndependence() bool {
	fmt.Println("\nTesting timing independence...")

	commands := buildWorkload()

	fast := core.NewCore(memsys.DefaultConfig())
	fastSummary, err := fast.Run(commands, 0)
	if err != nil {
		fmt.Printf("❌ default run failed: %v\n", err)
		return false
	}

	slow := core.NewCore(memsys.SlowMemoryConfig())
	slowSummary, err := slow.Run(commands, 0)
	if err != nil {
		fmt.Printf("❌ slow run failed: %v\n", err)
		return false
	}

	if slowSummary.Cycles <= fastSummary.Cycles {
		fmt.Printf("❌ slow memory did not cost cycles: fast=%d slow=%d\n",
			fastSummary.Cycles, slowSummary.Cycles)
		return false
	}
	fmt.Printf("✅ slow memory costs cycles: fast=%d slow=%d\n",
		fastSummary.Cycles, slowSummary.Cycles)

	if fastSummary.Buffer.DrainedStores != slowSummary.Buffer.DrainedStores {
		fmt.Printf("❌ drained store counts diverge: fast=%d slow=%d\n",
			fastSummary.Buffer.DrainedStores, slowSummary.Buffer.DrainedStores)
		return false
	}
	fmt.Printf("✅ both configurations drain %d stores\n",
		fastSummary.Buffer.DrainedStores)

	return true
}

// testStatisticsInvariants verifies the bookkeeping identities that hold
// for any fully drained run.
func testStatisticsInvariants() bool {
	fmt.Println("\nTesting statistics invariants...")

	c := core.NewCore(nil)
	summary, err := c.Run(buildWorkload(), 0)
	if err != nil {
		fmt.Printf("❌ run failed: %v\n", err)
		return false
	}

	buf := summary.Buffer
	leftover := uint64(c.Buffer().SpeculativeCount())

	if buf.Pushes != buf.Commits+buf.FlushedEntries+leftover {
		fmt.Printf("❌ pushes=%d != commits=%d + flushed=%d + leftover=%d\n",
			buf.Pushes, buf.Commits, buf.FlushedEntries, leftover)
		return false
	}
	fmt.Println("✅ every pushed store is committed, flushed, or still queued")

	if buf.DrainedStores != buf.Commits {
		fmt.Printf("❌ drained=%d != committed=%d after a full drain\n",
			buf.DrainedStores, buf.Commits)
		return false
	}
	fmt.Println("✅ every committed store drained")

	if buf.RequestCycles != buf.StallCycles+buf.DrainedStores {
		fmt.Printf("❌ request cycles=%d != stalls=%d + grants=%d\n",
			buf.RequestCycles, buf.StallCycles, buf.DrainedStores)
		return false
	}
	fmt.Println("✅ every request cycle either stalled or drained one store")

	if summary.Port.Grants != buf.DrainedStores {
		fmt.Printf("❌ port grants=%d != drained stores=%d\n",
			summary.Port.Grants, buf.DrainedStores)
		return false
	}
	if summary.Port.Requests != summary.Port.Hits+summary.Port.Misses {
		fmt.Printf("❌ port requests=%d != hits=%d + misses=%d\n",
			summary.Port.Requests, summary.Port.Hits, summary.Port.Misses)
		return false
	}
	fmt.Println("✅ port counters agree with the buffer's")

	return true
}

// testTraceRoundTrip verifies the text front-end drives the same memory
// image as programmatically built commands.
func testTraceRoundTrip() bool {
	fmt.Println("\nTesting trace text round trip...")

	text := `# narrow stores over one lane
push 0x1000 0x1122334455667788 0xFF double
push 0x1002 0xBEEF0000 0x0C half ; commit
commit
push 0x2000 0x42 0x01 byte
commit
load 0x000
drain
`
	parsed, err := trace.Parse(strings.NewReader(text))
	if err != nil {
		fmt.Printf("❌ parse failed: %v\n", err)
		return false
	}

	built := []trace.Command{
		trace.PushStore(0x1000, 0x1122_3344_5566_7788, 0xFF, storebuffer.SizeDouble),
		trace.PushStore(0x1002, 0xBEEF_0000, 0x0C, storebuffer.SizeHalf).WithCommit(),
		trace.Commit(),
		trace.PushStore(0x2000, 0x42, 0x01, storebuffer.SizeByte),
		trace.Commit(),
		trace.Load(0x000),
		trace.Drain(),
	}

	fromText := core.NewCore(nil)
	if _, err := fromText.Run(parsed, 0); err != nil {
		fmt.Printf("❌ parsed run failed: %v\n", err)
		return false
	}
	fromText.Cache().Flush()

	fromBuilders := core.NewCore(nil)
	if _, err := fromBuilders.Run(built, 0); err != nil {
		fmt.Printf("❌ built run failed: %v\n", err)
		return false
	}
	fromBuilders.Cache().Flush()

	if !fromText.Storage().Equal(fromBuilders.Storage()) {
		fmt.Println("❌ text and builder traces leave different memory")
		return false
	}
	fmt.Println("✅ text and builder traces leave identical memory")

	return true
}

func main() {
	fmt.Println("sbsim Consistency Validation - Timed Path vs Reference")
	fmt.Println("=======================================================")

	allPassed := true

	if !testGoldenEquivalence() {
		allPassed = false
	}
	if !testTimingIndependence() {
		allPassed = false
	}
	if !testStatisticsInvariants() {
		allPassed = false
	}
	if !testTraceRoundTrip() {
		allPassed = false
	}

	fmt.Println("\n=======================================================")
	if allPassed {
		fmt.Println("🎉 ALL CONSISTENCY TESTS PASSED")
		fmt.Println("✅ Timing configurations preserve memory semantics")
		os.Exit(0)
	} else {
		fmt.Println("❌ CONSISTENCY TESTS FAILED")
		fmt.Println("🚨 The timed store path may corrupt memory ordering")
		os.Exit(1)
	}
}
