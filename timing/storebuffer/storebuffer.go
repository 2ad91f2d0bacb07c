// Package storebuffer models the store path between a core's execution
// units and the memory hierarchy: a speculative queue of issued stores, a
// commit queue draining confirmed stores to memory one request at a time,
// and a page-offset alias checker consulted by loads.
//
// State advances once per discrete cycle via Cycle. All outputs and
// next-state values are computed from the stable pre-update state plus the
// cycle's inputs, then latched together at the end of the call, so no
// mid-cycle mutation is ever observable.
package storebuffer

import "fmt"

// CycleInput carries the control and data signals sampled in one cycle.
type CycleInput struct {
	// StoreValid asserts a store issue: the address, data, byte-enable,
	// and size fields are pushed into the speculative queue.
	StoreValid bool
	// AddrValid asserts that Address participates in alias matching this
	// cycle, whether or not a store is actually pushed.
	AddrValid bool
	// Address is the translated physical address of the incoming store.
	Address uint64
	// Data is the incoming store payload.
	Data uint64
	// ByteEnable selects the payload bytes the store writes.
	ByteEnable uint8
	// Size is the encoded access width of the incoming store.
	Size uint8
	// Commit confirms the oldest speculative store and transfers it to the
	// commit queue.
	Commit bool
	// Flush discards all speculative entries.
	Flush bool
	// LoadOffset is the page-offset slice of the load probing for
	// conflicts this cycle.
	LoadOffset uint64
	// MemoryGrant is the responder's acceptance of this cycle's write
	// request.
	MemoryGrant bool
}

// CycleOutput carries the signals the buffer drives during the cycle, all
// computed from the pre-update state.
type CycleOutput struct {
	// Ready reports that a push is acceptable this cycle.
	Ready bool
	// CommitReady reports that the commit queue can accept a transfer.
	CommitReady bool
	// NoStorePending reports that the commit queue is fully drained.
	NoStorePending bool
	// LoadConflict reports that the load query matched a pending store or
	// the incoming address.
	LoadConflict bool
	// RequestIssued reports that a write request was driven to memory.
	RequestIssued bool
	// RequestGranted reports that the driven request was accepted; the
	// head entry is popped at the cycle boundary.
	RequestGranted bool
}

// StoreBuffer is the store buffer unit. The zero value is the reset state:
// both queues empty, all pointers and counts zero.
type StoreBuffer struct {
	spec   speculativeQueue
	commit commitQueue
	stats  Statistics
}

// NewStoreBuffer returns a store buffer in the reset state.
func NewStoreBuffer() *StoreBuffer {
	return &StoreBuffer{}
}

// Reset forces both queues empty with all pointers and counts zero, and
// clears the statistics.
func (b *StoreBuffer) Reset() {
	*b = StoreBuffer{}
}

// Ready reports whether the execution unit may issue a store this cycle.
// One slot of headroom is reserved rather than filling to exact capacity;
// a concurrent commit frees its slot in the same cycle it is consumed, so
// commit re-enables a push at the headroom boundary.
func (b *StoreBuffer) Ready(commit bool) bool {
	return b.spec.count < SpeculativeDepth-1 || commit
}

// CommitReady reports whether the commit queue can accept a transfer.
func (b *StoreBuffer) CommitReady() bool {
	return b.commit.count < CommitDepth
}

// NoStorePending reports that no committed store is waiting to drain.
func (b *StoreBuffer) NoStorePending() bool {
	return b.commit.count == 0
}

// SpeculativeCount returns the number of valid speculative entries.
func (b *StoreBuffer) SpeculativeCount() int {
	return b.spec.count
}

// CommitCount returns the number of valid committed entries.
func (b *StoreBuffer) CommitCount() int {
	return b.commit.count
}

// MemRequest returns the write request for the commit-queue head. The same
// head is re-driven every cycle until granted; the second return value is
// false when the commit queue is empty.
func (b *StoreBuffer) MemRequest() (WriteRequest, bool) {
	if b.commit.empty() {
		return WriteRequest{}, false
	}
	return requestFor(b.commit.head()), true
}

// HasPendingStore reports whether any valid entry in either queue matches
// the page-offset slice. It never mutates state.
func (b *StoreBuffer) HasPendingStore(offset uint64) bool {
	return b.commit.matchesOffset(offset) || b.spec.matchesOffset(offset)
}

// Stats returns a copy of the accumulated statistics.
func (b *StoreBuffer) Stats() Statistics {
	return b.stats
}

// Cycle applies one synchronous update: it validates the caller contract,
// computes all outputs and next-state values from the stable pre-update
// state, then latches both queues together.
//
// The commit transfer and the speculative eviction both read the same
// pre-update speculative head, and a granted request pops the pre-update
// commit head, so any combination of push, commit, flush, and grant within
// one cycle nets to the state a hardware implementation would latch.
func (b *StoreBuffer) Cycle(in CycleInput) CycleOutput {
	b.checkContract(in)

	out := CycleOutput{
		Ready:          b.Ready(in.Commit),
		CommitReady:    b.CommitReady(),
		NoStorePending: b.NoStorePending(),
	}
	out.LoadConflict = b.HasPendingStore(in.LoadOffset) ||
		(in.AddrValid && SamePageOffset(in.Address, in.LoadOffset))

	_, out.RequestIssued = b.MemRequest()
	out.RequestGranted = out.RequestIssued && in.MemoryGrant

	nextSpec := b.spec
	nextCommit := b.commit

	if in.Commit {
		nextCommit.push(b.spec.head())
		nextSpec.popHead()
		b.stats.Commits++
	}
	if in.StoreValid && !in.Flush {
		nextSpec.push(StoreEntry{
			Address:    in.Address,
			Data:       in.Data,
			ByteEnable: in.ByteEnable,
			Size:       in.Size,
		})
		b.stats.Pushes++
	}
	if in.Flush {
		b.stats.Flushes++
		b.stats.FlushedEntries += uint64(nextSpec.count)
		nextSpec.flush()
	}
	if out.RequestGranted {
		nextCommit.popHead()
		b.stats.DrainedStores++
	}

	b.spec = nextSpec
	b.commit = nextCommit

	b.stats.Cycles++
	if out.LoadConflict {
		b.stats.AliasHits++
	}
	if out.RequestIssued {
		b.stats.RequestCycles++
		if !out.RequestGranted {
			b.stats.StallCycles++
		}
	}

	b.assertConsistent()
	return out
}

// checkContract validates the cycle's inputs against the pre-update state.
// Violations are upstream sequencing defects; they panic rather than clamp,
// since silently dropping a store corrupts memory ordering for the whole
// processor model.
func (b *StoreBuffer) checkContract(in CycleInput) {
	if in.Commit && in.Flush {
		panic("storebuffer: commit and flush asserted in the same cycle")
	}
	if in.StoreValid && !in.Flush && b.spec.full() {
		panic(fmt.Sprintf(
			"storebuffer: speculative queue overflow (count=%d)", b.spec.count))
	}
	if in.Commit && b.spec.empty() {
		panic("storebuffer: commit with no speculative entry to transfer")
	}
	if in.Commit && b.commit.full() {
		panic(fmt.Sprintf(
			"storebuffer: commit queue overflow (count=%d)", b.commit.count))
	}
}

func (b *StoreBuffer) assertConsistent() {
	if !b.spec.consistent() {
		panic(fmt.Sprintf(
			"storebuffer: speculative queue state corrupted: %+v", b.spec))
	}
	if !b.commit.consistent() {
		panic(fmt.Sprintf(
			"storebuffer: commit queue state corrupted: %+v", b.commit))
	}
}
