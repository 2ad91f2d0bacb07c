package storebuffer

// Statistics holds store buffer activity counters.
type Statistics struct {
	// Cycles is the total number of cycle updates applied.
	Cycles uint64
	// Pushes is the number of stores accepted into the speculative queue.
	Pushes uint64
	// Commits is the number of entries transferred to the commit queue.
	Commits uint64
	// DrainedStores is the number of committed stores accepted by memory.
	DrainedStores uint64
	// Flushes is the number of cycles with flush asserted.
	Flushes uint64
	// FlushedEntries is the number of speculative entries discarded by
	// flushes.
	FlushedEntries uint64
	// AliasHits is the number of cycles whose load query matched a pending
	// store or the incoming address.
	AliasHits uint64
	// RequestCycles is the number of cycles a write request was driven.
	RequestCycles uint64
	// StallCycles is the number of request cycles that went ungranted.
	StallCycles uint64
}

// DrainRate returns drained stores per cycle.
func (s Statistics) DrainRate() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.DrainedStores) / float64(s.Cycles)
}

// StallRate returns the fraction of request cycles spent waiting for a
// grant.
func (s Statistics) StallRate() float64 {
	if s.RequestCycles == 0 {
		return 0
	}
	return float64(s.StallCycles) / float64(s.RequestCycles)
}
