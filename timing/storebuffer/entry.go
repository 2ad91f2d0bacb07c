package storebuffer

// Store width codes carried in StoreEntry.Size. The code is the log2 of the
// access width in bytes, packed into a 2-bit field on the memory interface.
const (
	// SizeByte is an 8-bit store.
	SizeByte uint8 = 0
	// SizeHalf is a 16-bit store.
	SizeHalf uint8 = 1
	// SizeWord is a 32-bit store.
	SizeWord uint8 = 2
	// SizeDouble is a 64-bit store.
	SizeDouble uint8 = 3
)

// Address slice constants. The page offset is the low address slice that is
// identical between virtual and physical addressing within one page; the
// memory interface addresses by this index plus the remaining high bits as
// the tag.
const (
	// PageOffsetBits is the width of the page-offset slice.
	PageOffsetBits = 12
	// PageOffsetMask selects the page-offset slice of an address.
	PageOffsetMask = (uint64(1) << PageOffsetBits) - 1
)

// WidthBytes returns the access width in bytes for a size code.
func WidthBytes(size uint8) int {
	return 1 << size
}

// ByteEnableFor computes the byte-enable mask for an access of the given
// size code, positioned by the address's low three bits within the aligned
// 64-bit data lane. The access must not cross the lane boundary.
func ByteEnableFor(addr uint64, size uint8) uint8 {
	base := uint8((1 << WidthBytes(size)) - 1)
	return base << (addr & 7)
}

// SamePageOffset reports whether two addresses share the page-offset slice.
func SamePageOffset(a, b uint64) bool {
	return a&PageOffsetMask == b&PageOffsetMask
}

// StoreEntry is one store held in either queue. Valid=false means the slot
// is logically empty regardless of stale field contents.
type StoreEntry struct {
	// Address is the translated physical address of the store.
	Address uint64
	// Data is the store payload, positioned within the aligned 64-bit lane.
	Data uint64
	// ByteEnable selects which of the eight lane bytes the store writes.
	ByteEnable uint8
	// Size is the encoded access width (SizeByte..SizeDouble).
	Size uint8
	// Valid marks the slot as occupied.
	Valid bool
}

// Clear resets the entry to the empty state.
func (e *StoreEntry) Clear() {
	*e = StoreEntry{}
}

// PageOffset returns the entry's page-offset slice.
func (e *StoreEntry) PageOffset() uint64 {
	return e.Address & PageOffsetMask
}
