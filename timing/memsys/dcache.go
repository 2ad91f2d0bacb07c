// Package memsys models the memory side of the store path: a write-allocate,
// write-back data cache built on Akita cache components, and the write port
// that paces committed stores into it.
package memsys

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// CacheStats holds data cache statistics.
type CacheStats struct {
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// DataCache is the drain target for committed stores. Tag and replacement
// state live in an Akita cache directory; line payloads and the byte-enable
// merge path are modeled here.
type DataCache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Line payloads - indexed by (setID * associativity + wayID)
	dataStore [][]byte

	backing BackingStore

	stats CacheStats
}

// NewDataCache creates the cache described by config over the given
// backing store.
func NewDataCache(config *Config, backing BackingStore) *DataCache {
	numSets := config.CacheSize / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &DataCache{
		config: *config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the cache configuration.
func (c *DataCache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *DataCache) Stats() CacheStats {
	return c.stats
}

// blockIndex computes the index into dataStore for a block.
func (c *DataCache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

// blockAddr aligns addr down to its cache line.
func (c *DataCache) blockAddr(addr uint64) uint64 {
	return (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
}

// WouldHit reports whether a write to addr would hit, without touching
// replacement state. The write port uses it to pick the grant latency.
func (c *DataCache) WouldHit(addr uint64) bool {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	return block != nil && block.IsValid
}

// Write merges the enabled bytes of an aligned 64-bit store lane into the
// cache. Uses write-allocate policy: on miss, fetch the line first, then
// merge. Returns true on hit.
func (c *DataCache) Write(addr uint64, data uint64, byteEnable uint8) bool {
	c.stats.Writes++

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr) // PID=0 for now

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block) // Update LRU

		mergeLane(c.dataStore[c.blockIndex(block)], c.laneOffset(addr), data, byteEnable)
		block.IsDirty = true
		return true
	}

	// Write-allocate: fetch the line, then merge.
	c.stats.Misses++
	victim := c.allocate(blockAddr)
	if victim == nil {
		// Degenerate directory; merge straight into backing so the store
		// is not lost.
		if c.backing != nil {
			lane := c.backing.Read(addr&^7, 8)
			mergeLane(lane, 0, data, byteEnable)
			c.backing.Write(addr&^7, lane)
		}
		return false
	}

	mergeLane(c.dataStore[c.blockIndex(victim)], c.laneOffset(addr), data, byteEnable)
	victim.IsDirty = true
	return false
}

// Peek reads size bytes at addr without touching replacement state:
// resident lines win over backing contents.
func (c *DataCache) Peek(addr uint64, size int) uint64 {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		blockData := c.dataStore[c.blockIndex(block)]
		offset := addr % uint64(c.config.BlockSize)
		return extractData(blockData, offset, size)
	}
	if c.backing == nil {
		return 0
	}
	return extractData(c.backing.Read(addr, size), 0, size)
}

// allocate victimizes a line for blockAddr, writing back dirty contents and
// fetching the new line from backing.
func (c *DataCache) allocate(blockAddr uint64) *akitacache.Block {
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return nil
	}

	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		if victim.IsDirty && c.backing != nil {
			c.stats.Writebacks++
			c.backing.Write(victim.Tag, victimData)
		}
	}

	if c.backing != nil {
		copy(victimData, c.backing.Read(blockAddr, c.config.BlockSize))
	} else {
		for i := range victimData {
			victimData[i] = 0
		}
	}

	// Tag stores the block-aligned address directly.
	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim) // Update LRU

	return victim
}

// Flush writes back all dirty lines and invalidates them.
func (c *DataCache) Flush() {
	sets := c.directory.GetSets()
	for _, set := range sets {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty && c.backing != nil {
				c.backing.Write(block.Tag, c.dataStore[c.blockIndex(block)])
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all cache lines without writeback and clears
// statistics.
func (c *DataCache) Reset() {
	c.directory.Reset()
	c.stats = CacheStats{}
}

// laneOffset returns the offset of addr's aligned 64-bit lane within its
// cache line.
func (c *DataCache) laneOffset(addr uint64) uint64 {
	return (addr &^ 7) % uint64(c.config.BlockSize)
}

// mergeLane merges the enabled bytes of a 64-bit lane into line data at
// laneOffset.
func mergeLane(blockData []byte, laneOffset uint64, data uint64, byteEnable uint8) {
	for i := uint64(0); i < 8; i++ {
		if byteEnable&(1<<i) != 0 {
			blockData[laneOffset+i] = byte(data >> (8 * i))
		}
	}
}

// extractData extracts a little-endian value of the given size from a byte
// slice.
func extractData(data []byte, offset uint64, size int) uint64 {
	if data == nil || int(offset)+size > len(data) {
		return 0
	}

	var result uint64
	for i := 0; i < size; i++ {
		result |= uint64(data[int(offset)+i]) << (i * 8)
	}
	return result
}
