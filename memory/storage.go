// Package memory provides the functional backing storage used behind the
// timing models: a sparse, byte-addressable memory organized in fixed-size
// pages allocated on first write. Untouched memory reads as zero.
package memory

// PageSize is the allocation granularity in bytes.
const PageSize = 4096

// Storage is a sparse byte-addressable memory. Create instances with
// NewStorage.
type Storage struct {
	pages map[uint64][]byte
}

// NewStorage returns an empty storage.
func NewStorage() *Storage {
	return &Storage{pages: make(map[uint64][]byte)}
}

// page returns the backing page containing addr, allocating it when alloc
// is set. Returns nil for untouched pages when alloc is false.
func (s *Storage) page(addr uint64, alloc bool) []byte {
	base := addr / PageSize
	p, ok := s.pages[base]
	if !ok && alloc {
		p = make([]byte, PageSize)
		s.pages[base] = p
	}
	return p
}

// Read8 returns the byte at addr.
func (s *Storage) Read8(addr uint64) uint8 {
	p := s.page(addr, false)
	if p == nil {
		return 0
	}
	return p[addr%PageSize]
}

// Write8 stores one byte at addr.
func (s *Storage) Write8(addr uint64, v uint8) {
	s.page(addr, true)[addr%PageSize] = v
}

// Read16 returns the little-endian 16-bit value at addr.
func (s *Storage) Read16(addr uint64) uint16 {
	return uint16(s.Read8(addr)) | uint16(s.Read8(addr+1))<<8
}

// Write16 stores a little-endian 16-bit value at addr.
func (s *Storage) Write16(addr uint64, v uint16) {
	s.Write8(addr, uint8(v))
	s.Write8(addr+1, uint8(v>>8))
}

// Read32 returns the little-endian 32-bit value at addr.
func (s *Storage) Read32(addr uint64) uint32 {
	return uint32(s.Read16(addr)) | uint32(s.Read16(addr+2))<<16
}

// Write32 stores a little-endian 32-bit value at addr.
func (s *Storage) Write32(addr uint64, v uint32) {
	s.Write16(addr, uint16(v))
	s.Write16(addr+2, uint16(v>>16))
}

// Read64 returns the little-endian 64-bit value at addr.
func (s *Storage) Read64(addr uint64) uint64 {
	return uint64(s.Read32(addr)) | uint64(s.Read32(addr+4))<<32
}

// Write64 stores a little-endian 64-bit value at addr.
func (s *Storage) Write64(addr uint64, v uint64) {
	s.Write32(addr, uint32(v))
	s.Write32(addr+4, uint32(v>>32))
}

// ReadBlock fills dst with the bytes starting at addr. The range may span
// pages; untouched pages read as zero.
func (s *Storage) ReadBlock(addr uint64, dst []byte) {
	for len(dst) > 0 {
		off := addr % PageSize
		n := PageSize - off
		if n > uint64(len(dst)) {
			n = uint64(len(dst))
		}
		if p := s.page(addr, false); p != nil {
			copy(dst[:n], p[off:off+n])
		} else {
			for i := range dst[:n] {
				dst[i] = 0
			}
		}
		dst = dst[n:]
		addr += n
	}
}

// WriteBlock stores src starting at addr. The range may span pages.
func (s *Storage) WriteBlock(addr uint64, src []byte) {
	for len(src) > 0 {
		off := addr % PageSize
		n := PageSize - off
		if n > uint64(len(src)) {
			n = uint64(len(src))
		}
		copy(s.page(addr, true)[off:off+n], src[:n])
		src = src[n:]
		addr += n
	}
}

// WriteMasked64 merges the enabled bytes of an aligned 64-bit store lane
// into memory: addr is truncated to 8-byte alignment and bit i of
// byteEnable writes lane byte i of data. This is the reference semantics
// for applying a drained store.
func (s *Storage) WriteMasked64(addr uint64, data uint64, byteEnable uint8) {
	base := addr &^ 7
	for i := uint64(0); i < 8; i++ {
		if byteEnable&(1<<i) != 0 {
			s.Write8(base+i, uint8(data>>(8*i)))
		}
	}
}

// PageCount returns the number of pages touched so far.
func (s *Storage) PageCount() int {
	return len(s.pages)
}

// Reset discards all contents; every address reads as zero again.
func (s *Storage) Reset() {
	s.pages = make(map[uint64][]byte)
}

// Equal reports whether both storages hold byte-identical contents.
// Untouched pages compare equal to all-zero pages.
func (s *Storage) Equal(other *Storage) bool {
	bases := make(map[uint64]struct{}, len(s.pages)+len(other.pages))
	for base := range s.pages {
		bases[base] = struct{}{}
	}
	for base := range other.pages {
		bases[base] = struct{}{}
	}

	for base := range bases {
		a := s.pages[base]
		b := other.pages[base]
		for i := 0; i < PageSize; i++ {
			var av, bv byte
			if a != nil {
				av = a[i]
			}
			if b != nil {
				bv = b[i]
			}
			if av != bv {
				return false
			}
		}
	}
	return true
}
