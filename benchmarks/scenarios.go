// Package benchmarks provides store-path benchmark infrastructure for sbsim
// calibration.
package benchmarks

import (
	"math/rand"

	"github.com/sarchlab/sbsim/timing/memsys"
	"github.com/sarchlab/sbsim/trace"
)

// GetScenarios returns the standard set of scenarios for store path
// calibration. Each scenario targets a specific buffer characteristic.
func GetScenarios() []Scenario {
	return []Scenario{
		streamingStores(),
		burstyCommits(),
		flushHeavySpeculation(),
		aliasProbeMix(),
		randomMix(),
	}
}

// FindScenario returns the named standard scenario.
func FindScenario(name string) (Scenario, bool) {
	for _, s := range GetScenarios() {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// 1. Streaming Stores - Tests drain throughput with sequential addresses
func streamingStores() Scenario {
	const stores = 256

	var commands []trace.Command
	for i := uint64(0); i < stores; i++ {
		commands = append(commands,
			trace.PushStore64(0x1_0000+i*8, i),
			trace.Commit(),
		)
	}
	commands = append(commands, trace.Drain())

	return Scenario{
		Name:           "streaming_stores",
		Description:    "256 sequential doubleword stores committed back to back - measures drain throughput",
		Commands:       commands,
		ExpectedStores: stores,
	}
}

// 2. Bursty Commits - Tests commit queue backpressure against slow memory
func burstyCommits() Scenario {
	const bursts = 64

	var commands []trace.Command
	addr := uint64(0x4_0000)
	for b := 0; b < bursts; b++ {
		for i := 0; i < 3; i++ {
			commands = append(commands, trace.PushStore64(addr, addr))
			addr += 64
		}
		for i := 0; i < 3; i++ {
			commands = append(commands, trace.Commit())
		}
	}
	commands = append(commands, trace.Drain())

	return Scenario{
		Name:           "bursty_commits",
		Description:    "Bursts of three pushes then three commits against slow memory - fills the commit queue",
		Commands:       commands,
		Config:         memsys.SlowMemoryConfig(),
		ExpectedStores: bursts * 3,
	}
}

// 3. Flush-Heavy Speculation - Tests flush bookkeeping under misspeculation
func flushHeavySpeculation() Scenario {
	const rounds = 48

	var commands []trace.Command
	addr := uint64(0x8_0000)
	for r := 0; r < rounds; r++ {
		commands = append(commands,
			trace.PushStore64(addr, addr),
			trace.PushStore64(addr+8, addr+8),
			trace.Commit(),
			trace.PushStore64(addr+16, addr+16),
			trace.Flush(),
		)
		addr += 64
	}
	commands = append(commands, trace.Drain())

	return Scenario{
		Name:           "flush_heavy",
		Description:    "Commit one of three speculative stores per round, flush the rest - measures flush bookkeeping",
		Commands:       commands,
		ExpectedStores: rounds,
	}
}

// 4. Alias/Probe Mix - Tests the page-offset alias checker
func aliasProbeMix() Scenario {
	const rounds = 64

	var commands []trace.Command
	for i := uint64(0); i < rounds; i++ {
		addr := 0xA_0000 + i*0x100
		commands = append(commands,
			trace.PushStore64(addr, i),
			// Same page offset as the store just pushed: must conflict.
			trace.Load(addr&0xFFF),
			// Same offset on another page still matches conservatively.
			trace.Probe(addr+0x1000),
			// Adjacent offset: clean.
			trace.Load((addr+8)&0xFFF),
			trace.Commit(),
		)
	}
	commands = append(commands, trace.Drain())

	return Scenario{
		Name:           "alias_probe_mix",
		Description:    "Interleaved stores, probes, and load queries - measures alias checker conflict rates",
		Commands:       commands,
		ExpectedStores: rounds,
	}
}

// 5. Random Mix - Tests all operations interleaved (fixed seed)
func randomMix() Scenario {
	const ops = 512

	rng := rand.New(rand.NewSource(42))
	var commands []trace.Command
	spec := 0
	expected := uint64(0)

	for i := 0; i < ops; i++ {
		r := rng.Intn(10)
		switch {
		case r < 5 && spec < 3:
			addr := 0x10_0000 + (uint64(rng.Intn(1<<16)) &^ 7)
			commands = append(commands, trace.PushStore64(addr, rng.Uint64()))
			spec++
		case r < 7 && spec > 0:
			commands = append(commands, trace.Commit())
			spec--
			expected++
		case r == 7 && spec > 0:
			commands = append(commands, trace.Flush())
			spec = 0
		case r == 8:
			commands = append(commands, trace.Load(uint64(rng.Intn(1<<12))))
		default:
			commands = append(commands, trace.Idle(1))
		}
	}
	commands = append(commands, trace.Drain())

	return Scenario{
		Name:           "random_mix",
		Description:    "512 seeded random operations - exercises every input combination together",
		Commands:       commands,
		ExpectedStores: expected,
	}
}
