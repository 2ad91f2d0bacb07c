package memsys

import (
	"github.com/sarchlab/sbsim/memory"
)

// BackingStore is the next level below the data cache.
type BackingStore interface {
	// Read fetches size bytes starting at addr.
	Read(addr uint64, size int) []byte
	// Write stores data starting at addr.
	Write(addr uint64, data []byte)
}

// StorageBacking wraps memory.Storage as a BackingStore.
type StorageBacking struct {
	storage *memory.Storage
}

// NewStorageBacking creates a new StorageBacking adapter.
func NewStorageBacking(storage *memory.Storage) *StorageBacking {
	return &StorageBacking{storage: storage}
}

// Read fetches data from the backing storage.
func (s *StorageBacking) Read(addr uint64, size int) []byte {
	data := make([]byte, size)
	s.storage.ReadBlock(addr, data)
	return data
}

// Write stores data to the backing storage.
func (s *StorageBacking) Write(addr uint64, data []byte) {
	s.storage.WriteBlock(addr, data)
}
