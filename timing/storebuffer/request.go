package storebuffer

// WriteRequest is the memory-side view of the commit-queue head: a single
// write, addressed by page index and tag, re-driven every cycle until the
// responder grants it. The store buffer never issues reads, and a committed
// store is past speculation, so the kill and tag-valid wires are tied low.
type WriteRequest struct {
	// PageIndex is the page-offset slice of the address.
	PageIndex uint64
	// PageTag is the remaining high address bits.
	PageTag uint64
	// Data is the store payload lane.
	Data uint64
	// ByteEnable selects the lane bytes to write.
	ByteEnable uint8
	// Size is the encoded access width.
	Size uint8
	// IsWrite is always true on this interface.
	IsWrite bool
	// Kill is tied low: committed stores cannot be killed.
	Kill bool
	// TagValid is tied low: translation was resolved before the store
	// entered the buffer, so the tag never arrives late.
	TagValid bool
}

// Address reassembles the full physical address from tag and index.
func (r WriteRequest) Address() uint64 {
	return r.PageTag<<PageOffsetBits | r.PageIndex
}

func requestFor(e StoreEntry) WriteRequest {
	return WriteRequest{
		PageIndex:  e.Address & PageOffsetMask,
		PageTag:    e.Address >> PageOffsetBits,
		Data:       e.Data,
		ByteEnable: e.ByteEnable,
		Size:       e.Size,
		IsWrite:    true,
	}
}
