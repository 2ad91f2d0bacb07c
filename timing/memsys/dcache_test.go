package memsys_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sbsim/memory"
	"github.com/sarchlab/sbsim/timing/memsys"
)

var _ = Describe("DataCache", func() {
	var (
		storage *memory.Storage
		backing *memsys.StorageBacking
		c       *memsys.DataCache
	)

	BeforeEach(func() {
		storage = memory.NewStorage()
		backing = memsys.NewStorageBacking(storage)
		// Small cache for testing: 4KB, 4-way, 64B lines = 16 sets
		config := &memsys.Config{
			HitLatency:    1,
			MissLatency:   10,
			CacheSize:     4 * 1024,
			Associativity: 4,
			BlockSize:     64,
		}
		c = memsys.NewDataCache(config, backing)
	})

	Describe("Write operations", func() {
		It("should miss on a cold cache and allocate the line", func() {
			hit := c.Write(0x1000, 0xDEAD_BEEF, 0xFF)
			Expect(hit).To(BeFalse())

			stats := c.Stats()
			Expect(stats.Writes).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))

			Expect(c.WouldHit(0x1000)).To(BeTrue())
		})

		It("should hit on a resident line", func() {
			c.Write(0x1000, 0x1111_1111, 0xFF)

			hit := c.Write(0x1000, 0x2222_2222, 0xFF)
			Expect(hit).To(BeTrue())

			stats := c.Stats()
			Expect(stats.Hits).To(Equal(uint64(1)))
			Expect(c.Peek(0x1000, 8)).To(Equal(uint64(0x2222_2222)))
		})

		It("should hit on a different lane of the same line", func() {
			c.Write(0x1000, 0x1111_1111, 0xFF)

			hit := c.Write(0x1008, 0x2222_2222, 0xFF)
			Expect(hit).To(BeTrue())
			Expect(c.Peek(0x1000, 8)).To(Equal(uint64(0x1111_1111)))
			Expect(c.Peek(0x1008, 8)).To(Equal(uint64(0x2222_2222)))
		})

		It("should merge only the enabled bytes", func() {
			storage.Write64(0x2000, 0xFFFF_FFFF_FFFF_FFFF)

			// Halfword store into lane bytes 2..3; the fetched line supplies
			// the rest.
			c.Write(0x2002, uint64(0xBEEF)<<16, 0x0C)

			Expect(c.Peek(0x2000, 8)).To(Equal(uint64(0xFFFF_FFFF_BEEF_FFFF)))
		})

		It("should fetch the missing line from backing before merging", func() {
			storage.Write64(0x3000, 0xAAAA_AAAA_AAAA_AAAA)

			c.Write(0x3000, 0x55, 0x01)

			Expect(c.Peek(0x3000, 8)).To(Equal(uint64(0xAAAA_AAAA_AAAA_AA55)))
		})
	})

	Describe("WouldHit", func() {
		It("should classify without touching cache state", func() {
			Expect(c.WouldHit(0x1000)).To(BeFalse())
			Expect(c.WouldHit(0x1000)).To(BeFalse())

			stats := c.Stats()
			Expect(stats.Writes).To(Equal(uint64(0)))
			Expect(stats.Misses).To(Equal(uint64(0)))
		})

		It("should report a hit anywhere within a resident line", func() {
			c.Write(0x1000, 1, 0xFF)

			Expect(c.WouldHit(0x1000)).To(BeTrue())
			Expect(c.WouldHit(0x1038)).To(BeTrue())
			Expect(c.WouldHit(0x1040)).To(BeFalse())
		})
	})

	Describe("Eviction", func() {
		It("should evict the LRU way when a set fills", func() {
			// 16 sets: addresses 0x0000, 0x0400, ... all map to set 0.
			c.Write(0x0000, 1, 0xFF)
			c.Write(0x0400, 2, 0xFF)
			c.Write(0x0800, 3, 0xFF)
			c.Write(0x0C00, 4, 0xFF)

			Expect(c.WouldHit(0x0000)).To(BeTrue())

			c.Write(0x1000, 5, 0xFF)

			stats := c.Stats()
			Expect(stats.Evictions).To(Equal(uint64(1)))
			Expect(c.WouldHit(0x0000)).To(BeFalse())
			Expect(c.WouldHit(0x1000)).To(BeTrue())
		})

		It("should write back dirty evicted lines", func() {
			c.Write(0x0000, 0x1111_1111, 0xFF)
			c.Write(0x0400, 2, 0xFF)
			c.Write(0x0800, 3, 0xFF)
			c.Write(0x0C00, 4, 0xFF)

			// Line 0x0000 lives only in the cache until evicted.
			Expect(storage.Read64(0x0000)).To(Equal(uint64(0)))

			c.Write(0x1000, 5, 0xFF)

			Expect(storage.Read64(0x0000)).To(Equal(uint64(0x1111_1111)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(1)))
		})
	})

	Describe("Peek", func() {
		It("should prefer resident lines over backing contents", func() {
			storage.Write64(0x4000, 0x1111)
			c.Write(0x4000, 0x2222, 0xFF)

			Expect(c.Peek(0x4000, 8)).To(Equal(uint64(0x2222)))
			Expect(storage.Read64(0x4000)).To(Equal(uint64(0x1111)))
		})

		It("should read through to backing for absent lines", func() {
			storage.Write64(0x5000, 0x3333)

			Expect(c.Peek(0x5000, 8)).To(Equal(uint64(0x3333)))
			Expect(c.WouldHit(0x5000)).To(BeFalse())
		})
	})

	Describe("Flush", func() {
		It("should write back all dirty lines and invalidate them", func() {
			c.Write(0x0000, 0x1111, 0xFF)
			c.Write(0x1000, 0x2222, 0xFF)

			Expect(storage.Read64(0x0000)).To(Equal(uint64(0)))
			Expect(storage.Read64(0x1000)).To(Equal(uint64(0)))

			c.Flush()

			Expect(storage.Read64(0x0000)).To(Equal(uint64(0x1111)))
			Expect(storage.Read64(0x1000)).To(Equal(uint64(0x2222)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(2)))
			Expect(c.WouldHit(0x0000)).To(BeFalse())
			Expect(c.WouldHit(0x1000)).To(BeFalse())
		})
	})

	Describe("Reset", func() {
		It("should invalidate lines without writeback and clear stats", func() {
			c.Write(0x0000, 0x1111, 0xFF)

			c.Reset()

			Expect(c.WouldHit(0x0000)).To(BeFalse())
			Expect(storage.Read64(0x0000)).To(Equal(uint64(0)))
			Expect(c.Stats().Writes).To(Equal(uint64(0)))
		})
	})
})
