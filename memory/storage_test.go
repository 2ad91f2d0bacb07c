package memory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sbsim/memory"
)

var _ = Describe("Storage", func() {
	var s *memory.Storage

	BeforeEach(func() {
		s = memory.NewStorage()
	})

	Describe("byte access", func() {
		It("should read untouched memory as zero", func() {
			Expect(s.Read8(0)).To(Equal(uint8(0)))
			Expect(s.Read8(0xDEAD_BEEF)).To(Equal(uint8(0)))
			Expect(s.PageCount()).To(Equal(0))
		})

		It("should round-trip single bytes", func() {
			s.Write8(0x1003, 0xAB)

			Expect(s.Read8(0x1003)).To(Equal(uint8(0xAB)))
			Expect(s.Read8(0x1002)).To(Equal(uint8(0)))
			Expect(s.Read8(0x1004)).To(Equal(uint8(0)))
		})

		It("should allocate pages only on write", func() {
			s.Read8(0x5000)
			Expect(s.PageCount()).To(Equal(0))

			s.Write8(0x5000, 1)
			Expect(s.PageCount()).To(Equal(1))

			s.Write8(0x5FFF, 2)
			Expect(s.PageCount()).To(Equal(1))

			s.Write8(0x6000, 3)
			Expect(s.PageCount()).To(Equal(2))
		})
	})

	Describe("wide access", func() {
		It("should store little-endian halfwords", func() {
			s.Write16(0x100, 0xBEEF)

			Expect(s.Read8(0x100)).To(Equal(uint8(0xEF)))
			Expect(s.Read8(0x101)).To(Equal(uint8(0xBE)))
			Expect(s.Read16(0x100)).To(Equal(uint16(0xBEEF)))
		})

		It("should store little-endian words and doublewords", func() {
			s.Write32(0x200, 0xCAFE_F00D)
			s.Write64(0x300, 0x0123_4567_89AB_CDEF)

			Expect(s.Read32(0x200)).To(Equal(uint32(0xCAFE_F00D)))
			Expect(s.Read64(0x300)).To(Equal(uint64(0x0123_4567_89AB_CDEF)))
			Expect(s.Read8(0x300)).To(Equal(uint8(0xEF)))
			Expect(s.Read8(0x307)).To(Equal(uint8(0x01)))
		})

		It("should handle accesses that span a page boundary", func() {
			addr := uint64(memory.PageSize - 4)
			s.Write64(addr, 0x1122_3344_5566_7788)

			Expect(s.Read64(addr)).To(Equal(uint64(0x1122_3344_5566_7788)))
			Expect(s.Read32(memory.PageSize)).To(Equal(uint32(0x1122_3344)))
			Expect(s.PageCount()).To(Equal(2))
		})
	})

	Describe("block access", func() {
		It("should round-trip a block within one page", func() {
			src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
			s.WriteBlock(0x40, src)

			dst := make([]byte, 8)
			s.ReadBlock(0x40, dst)

			Expect(dst).To(Equal(src))
		})

		It("should round-trip a block across pages", func() {
			src := make([]byte, 64)
			for i := range src {
				src[i] = byte(i + 1)
			}
			addr := uint64(memory.PageSize - 16)
			s.WriteBlock(addr, src)

			dst := make([]byte, 64)
			s.ReadBlock(addr, dst)

			Expect(dst).To(Equal(src))
		})

		It("should zero-fill reads from untouched pages", func() {
			dst := []byte{0xFF, 0xFF, 0xFF, 0xFF}
			s.ReadBlock(0x9000, dst)

			Expect(dst).To(Equal([]byte{0, 0, 0, 0}))
		})
	})

	Describe("WriteMasked64", func() {
		It("should write only the enabled lane bytes", func() {
			s.Write64(0x1000, 0xFFFF_FFFF_FFFF_FFFF)

			// Halfword in lane bytes 2..3.
			s.WriteMasked64(0x1002, uint64(0xBEEF)<<16, 0x0C)

			Expect(s.Read64(0x1000)).To(Equal(uint64(0xFFFF_FFFF_BEEF_FFFF)))
		})

		It("should align the address down to the lane base", func() {
			s.WriteMasked64(0x2007, uint64(0x5A)<<56, 0x80)

			Expect(s.Read8(0x2007)).To(Equal(uint8(0x5A)))
			Expect(s.Read8(0x2000)).To(Equal(uint8(0)))
		})

		It("should replace the whole lane when all bytes are enabled", func() {
			s.Write64(0x3000, 0x1111_1111_1111_1111)
			s.WriteMasked64(0x3000, 0xAAAA_BBBB_CCCC_DDDD, 0xFF)

			Expect(s.Read64(0x3000)).To(Equal(uint64(0xAAAA_BBBB_CCCC_DDDD)))
		})
	})

	Describe("Reset", func() {
		It("should drop all contents", func() {
			s.Write64(0x1000, 0xDEAD_BEEF)
			s.Write8(0x9000, 1)

			s.Reset()

			Expect(s.PageCount()).To(Equal(0))
			Expect(s.Read64(0x1000)).To(Equal(uint64(0)))
		})
	})

	Describe("Equal", func() {
		It("should treat empty storages as equal", func() {
			Expect(s.Equal(memory.NewStorage())).To(BeTrue())
		})

		It("should compare contents regardless of write order", func() {
			other := memory.NewStorage()
			s.Write64(0x100, 42)
			s.Write8(0x5000, 7)
			other.Write8(0x5000, 7)
			other.Write64(0x100, 42)

			Expect(s.Equal(other)).To(BeTrue())
			Expect(other.Equal(s)).To(BeTrue())
		})

		It("should treat a zero-written page as equal to an untouched one", func() {
			s.Write64(0x100, 42)
			s.Write64(0x100, 0)

			Expect(s.Equal(memory.NewStorage())).To(BeTrue())
		})

		It("should detect a differing byte", func() {
			other := memory.NewStorage()
			s.Write8(0x100, 1)
			other.Write8(0x100, 2)

			Expect(s.Equal(other)).To(BeFalse())
		})
	})
})
