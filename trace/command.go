// Package trace defines the stimulus format for driving the store path: a
// sequence of per-cycle commands covering store issue, alias probes, commit,
// flush, load queries, and drain steps. Commands come from trace files
// (Parse, LoadFile) or from the programmatic builders.
package trace

import (
	"github.com/sarchlab/sbsim/timing/storebuffer"
)

// Command is one trace step: either a single cycle's control directives
// (push, probe, commit, flush, load in any legal combination) or a
// standalone multi-cycle step (idle, drain).
type Command struct {
	// Line is the 1-based source line the command was parsed from; zero for
	// programmatically built commands.
	Line int

	// Push issues a store this cycle. The address also participates in
	// alias matching.
	Push bool
	// Probe presents Address for alias matching without issuing a store.
	Probe bool
	// Address, Data, ByteEnable, and Size describe the incoming store or
	// probe address.
	Address    uint64
	Data       uint64
	ByteEnable uint8
	Size       uint8

	// Commit confirms the oldest speculative store this cycle.
	Commit bool
	// Flush discards all speculative stores this cycle.
	Flush bool

	// HasLoad marks LoadOffset as this cycle's load page-offset query.
	HasLoad    bool
	LoadOffset uint64

	// IdleCycles inserts that many empty cycles. Standalone.
	IdleCycles int
	// Drain steps until no committed store is pending. Standalone.
	Drain bool
}

// PushStore builds a store-issue cycle.
func PushStore(addr, data uint64, byteEnable, size uint8) Command {
	return Command{
		Push:       true,
		Address:    addr,
		Data:       data,
		ByteEnable: byteEnable,
		Size:       size,
	}
}

// PushStore64 builds a store-issue cycle for a full 64-bit lane at addr.
func PushStore64(addr, data uint64) Command {
	return PushStore(addr, data,
		storebuffer.ByteEnableFor(addr, storebuffer.SizeDouble),
		storebuffer.SizeDouble)
}

// Probe builds a cycle that presents addr for alias matching only.
func Probe(addr uint64) Command {
	return Command{Probe: true, Address: addr}
}

// Commit builds a commit-only cycle.
func Commit() Command {
	return Command{Commit: true}
}

// Flush builds a flush cycle.
func Flush() Command {
	return Command{Flush: true}
}

// Load builds a cycle that queries the alias checker for offset.
func Load(offset uint64) Command {
	return Command{HasLoad: true, LoadOffset: offset}
}

// Idle builds n empty cycles.
func Idle(n int) Command {
	return Command{IdleCycles: n}
}

// Drain builds a step that runs until no committed store is pending.
func Drain() Command {
	return Command{Drain: true}
}

// WithCommit returns a copy of the command with commit asserted.
func (c Command) WithCommit() Command {
	c.Commit = true
	return c
}

// WithLoad returns a copy of the command with a load query attached.
func (c Command) WithLoad(offset uint64) Command {
	c.HasLoad = true
	c.LoadOffset = offset
	return c
}

// WithFlush returns a copy of the command with flush asserted.
func (c Command) WithFlush() Command {
	c.Flush = true
	return c
}

// Input converts the command's single-cycle directives into store buffer
// inputs. Idle and drain commands convert to an empty cycle; the runner
// expands them.
func (c Command) Input() storebuffer.CycleInput {
	return storebuffer.CycleInput{
		StoreValid: c.Push,
		AddrValid:  c.Push || c.Probe,
		Address:    c.Address,
		Data:       c.Data,
		ByteEnable: c.ByteEnable,
		Size:       c.Size,
		Commit:     c.Commit,
		Flush:      c.Flush,
		LoadOffset: c.LoadOffset,
	}
}
