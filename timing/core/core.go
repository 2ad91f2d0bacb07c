// Package core assembles the store path: a store buffer draining through a
// write port into the data cache and its backing storage, stepped one cycle
// at a time. The trace runner drives the buffer the way a well-behaved
// execution unit would, waiting for readiness instead of violating the
// handshake.
package core

import (
	"fmt"

	"github.com/sarchlab/sbsim/memory"
	"github.com/sarchlab/sbsim/timing/memsys"
	"github.com/sarchlab/sbsim/timing/storebuffer"
	"github.com/sarchlab/sbsim/trace"
)

// DefaultMaxCycles bounds trace runs that do not set their own budget.
const DefaultMaxCycles = 100_000

// Summary aggregates statistics from every store-path component.
type Summary struct {
	// Cycles is the total number of cycles stepped.
	Cycles uint64
	// Buffer holds the store buffer counters.
	Buffer storebuffer.Statistics
	// Port holds the write port counters.
	Port memsys.PortStats
	// Cache holds the data cache counters.
	Cache memsys.CacheStats
	// LoadQueries is the number of load queries driven by traces.
	LoadQueries uint64
	// LoadConflicts is the number of those queries that matched a pending
	// store.
	LoadConflicts uint64
}

// Core owns one store path: the store buffer, the write port that drains
// it, the data cache behind the port, and the backing storage.
type Core struct {
	buffer  *storebuffer.StoreBuffer
	port    *memsys.WritePort
	cache   *memsys.DataCache
	storage *memory.Storage

	cycles        uint64
	loadQueries   uint64
	loadConflicts uint64
}

// NewCore builds a store path with the given memory configuration. A nil
// config selects the default.
func NewCore(config *memsys.Config) *Core {
	if config == nil {
		config = memsys.DefaultConfig()
	}
	storage := memory.NewStorage()
	cache := memsys.NewDataCache(config, memsys.NewStorageBacking(storage))
	return &Core{
		buffer:  storebuffer.NewStoreBuffer(),
		port:    memsys.NewWritePort(config, cache),
		cache:   cache,
		storage: storage,
	}
}

// Buffer returns the store buffer.
func (c *Core) Buffer() *storebuffer.StoreBuffer {
	return c.buffer
}

// Port returns the write port.
func (c *Core) Port() *memsys.WritePort {
	return c.port
}

// Cache returns the data cache.
func (c *Core) Cache() *memsys.DataCache {
	return c.cache
}

// Storage returns the backing storage.
func (c *Core) Storage() *memory.Storage {
	return c.storage
}

// Cycles returns the number of cycles stepped so far.
func (c *Core) Cycles() uint64 {
	return c.cycles
}

// Step advances the store path by one cycle. The commit-queue head request
// is offered to the write port and the port's grant feeds back into the
// same cycle's update, so a granted store leaves the buffer and lands in
// the cache within a single step.
func (c *Core) Step(in storebuffer.CycleInput) storebuffer.CycleOutput {
	req, valid := c.buffer.MemRequest()
	in.MemoryGrant = c.port.Consider(req, valid)
	out := c.buffer.Cycle(in)
	c.cycles++
	return out
}

// Run drives a command sequence against the store path. Push and commit
// cycles wait for the buffer's ready and commitReady handshakes, idle
// commands insert empty cycles, and drain commands step until no committed
// store is pending.
//
// The run stops with an error when the trace is malformed or when it does
// not finish within maxCycles extra cycles; zero selects DefaultMaxCycles.
// The summary reflects everything stepped so far, including failed runs.
func (c *Core) Run(commands []trace.Command, maxCycles uint64) (Summary, error) {
	if maxCycles == 0 {
		maxCycles = DefaultMaxCycles
	}
	deadline := c.cycles + maxCycles

	for _, cmd := range commands {
		var err error
		switch {
		case cmd.IdleCycles > 0:
			for i := 0; i < cmd.IdleCycles && err == nil; i++ {
				err = c.stepWithin(deadline, storebuffer.CycleInput{}, cmd)
			}
		case cmd.Drain:
			err = c.drainWithin(deadline, cmd)
		default:
			err = c.execute(cmd, deadline)
		}
		if err != nil {
			return c.Summary(), err
		}
	}
	return c.Summary(), nil
}

// Drain steps empty cycles until no committed store is pending, bounded by
// maxCycles; zero selects DefaultMaxCycles.
func (c *Core) Drain(maxCycles uint64) error {
	if maxCycles == 0 {
		maxCycles = DefaultMaxCycles
	}
	return c.drainWithin(c.cycles+maxCycles, trace.Drain())
}

// execute waits for the handshakes cmd needs, then steps its cycle.
func (c *Core) execute(cmd trace.Command, deadline uint64) error {
	// A commit consumes the oldest speculative entry; nothing stepped here
	// can create one, so an empty speculative queue is a trace defect
	// rather than a condition to wait out.
	if cmd.Commit && c.buffer.SpeculativeCount() == 0 {
		return commandErr(cmd, "commit with no speculative store in flight")
	}

	for !c.canIssue(cmd) {
		if err := c.stepWithin(deadline, storebuffer.CycleInput{}, cmd); err != nil {
			return err
		}
	}

	out := c.Step(cmd.Input())
	if cmd.HasLoad {
		c.loadQueries++
		if out.LoadConflict {
			c.loadConflicts++
		}
	}
	return nil
}

// canIssue reports whether the buffer accepts cmd's push and commit this
// cycle. A push alongside a flush needs no slot: the flush discards it.
func (c *Core) canIssue(cmd trace.Command) bool {
	if cmd.Push && !cmd.Flush && !c.buffer.Ready(cmd.Commit) {
		return false
	}
	if cmd.Commit && !c.buffer.CommitReady() {
		return false
	}
	return true
}

func (c *Core) drainWithin(deadline uint64, cmd trace.Command) error {
	for !c.buffer.NoStorePending() {
		if err := c.stepWithin(deadline, storebuffer.CycleInput{}, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) stepWithin(deadline uint64, in storebuffer.CycleInput, cmd trace.Command) error {
	if c.cycles >= deadline {
		return commandErr(cmd, "cycle budget exhausted after %d cycles", c.cycles)
	}
	c.Step(in)
	return nil
}

// commandErr prefixes the error with the command's source line when it came
// from a trace file.
func commandErr(cmd trace.Command, format string, args ...any) error {
	if cmd.Line > 0 {
		return fmt.Errorf("line %d: %s", cmd.Line, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf(format, args...)
}

// Summary returns the merged statistics for everything stepped so far.
func (c *Core) Summary() Summary {
	return Summary{
		Cycles:        c.cycles,
		Buffer:        c.buffer.Stats(),
		Port:          c.port.Stats(),
		Cache:         c.cache.Stats(),
		LoadQueries:   c.loadQueries,
		LoadConflicts: c.loadConflicts,
	}
}

// Reset clears all store-path state, including cache and storage contents.
func (c *Core) Reset() {
	c.buffer.Reset()
	c.port.Reset()
	c.cache.Reset()
	c.storage.Reset()
	c.cycles = 0
	c.loadQueries = 0
	c.loadConflicts = 0
}
