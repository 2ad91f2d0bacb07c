package storebuffer

// Queue depths. Both are fixed by the design; the commit queue matches the
// speculative side so the drain path is not the bottleneck under sustained
// commit pressure.
const (
	// SpeculativeDepth is the capacity of the speculative queue.
	SpeculativeDepth = 4
	// CommitDepth is the capacity of the commit queue.
	CommitDepth = 4
)

// speculativeQueue holds stores issued by execution but not yet confirmed
// non-speculative. It is a fixed arena with read/write pointers modulo the
// depth and an explicit occupancy count; a value copy of the whole struct
// serves as the next-state buffer during a cycle update.
type speculativeQueue struct {
	entries  [SpeculativeDepth]StoreEntry
	readPtr  int
	writePtr int
	count    int
}

func (q *speculativeQueue) full() bool  { return q.count == SpeculativeDepth }
func (q *speculativeQueue) empty() bool { return q.count == 0 }

// head returns the oldest entry. Meaningful only when the queue is not
// empty.
func (q *speculativeQueue) head() StoreEntry {
	return q.entries[q.readPtr]
}

func (q *speculativeQueue) push(e StoreEntry) {
	e.Valid = true
	q.entries[q.writePtr] = e
	q.writePtr = (q.writePtr + 1) % SpeculativeDepth
	q.count++
}

func (q *speculativeQueue) popHead() {
	q.entries[q.readPtr].Clear()
	q.readPtr = (q.readPtr + 1) % SpeculativeDepth
	q.count--
}

// flush invalidates every entry and rewinds the write pointer onto the read
// pointer. The read pointer stays where it is.
func (q *speculativeQueue) flush() {
	for i := range q.entries {
		q.entries[i].Clear()
	}
	q.writePtr = q.readPtr
	q.count = 0
}

func (q *speculativeQueue) matchesOffset(offset uint64) bool {
	offset &= PageOffsetMask
	for i := range q.entries {
		if q.entries[i].Valid && q.entries[i].PageOffset() == offset {
			return true
		}
	}
	return false
}

// consistent reports whether the occupancy count, the valid flags, and the
// pointer window agree: exactly the count slots starting at readPtr are
// valid, and writePtr sits count slots past readPtr.
func (q *speculativeQueue) consistent() bool {
	if q.count < 0 || q.count > SpeculativeDepth {
		return false
	}
	for i := 0; i < SpeculativeDepth; i++ {
		slot := (q.readPtr + i) % SpeculativeDepth
		if q.entries[slot].Valid != (i < q.count) {
			return false
		}
	}
	return q.writePtr == (q.readPtr+q.count)%SpeculativeDepth
}

// commitQueue holds confirmed stores draining to memory in order, one
// outstanding write request at a time. Same arena-with-pointers layout as
// the speculative queue; it is never flushed.
type commitQueue struct {
	entries  [CommitDepth]StoreEntry
	readPtr  int
	writePtr int
	count    int
}

func (q *commitQueue) full() bool  { return q.count == CommitDepth }
func (q *commitQueue) empty() bool { return q.count == 0 }

// head returns the oldest entry. Meaningful only when the queue is not
// empty.
func (q *commitQueue) head() StoreEntry {
	return q.entries[q.readPtr]
}

func (q *commitQueue) push(e StoreEntry) {
	e.Valid = true
	q.entries[q.writePtr] = e
	q.writePtr = (q.writePtr + 1) % CommitDepth
	q.count++
}

func (q *commitQueue) popHead() {
	q.entries[q.readPtr].Clear()
	q.readPtr = (q.readPtr + 1) % CommitDepth
	q.count--
}

func (q *commitQueue) matchesOffset(offset uint64) bool {
	offset &= PageOffsetMask
	for i := range q.entries {
		if q.entries[i].Valid && q.entries[i].PageOffset() == offset {
			return true
		}
	}
	return false
}

func (q *commitQueue) consistent() bool {
	if q.count < 0 || q.count > CommitDepth {
		return false
	}
	for i := 0; i < CommitDepth; i++ {
		slot := (q.readPtr + i) % CommitDepth
		if q.entries[slot].Valid != (i < q.count) {
			return false
		}
	}
	return q.writePtr == (q.readPtr+q.count)%CommitDepth
}
