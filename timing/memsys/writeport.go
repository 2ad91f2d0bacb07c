package memsys

import (
	"github.com/sarchlab/sbsim/timing/storebuffer"
)

// PortStats holds write-port activity counters.
type PortStats struct {
	// Requests is the number of distinct head requests accepted for service.
	Requests uint64
	// Grants is the number of requests granted and applied to the cache.
	Grants uint64
	// Hits is the number of requests whose target line was resident when the
	// request was first seen.
	Hits uint64
	// Misses is the number of requests that needed a line allocation.
	Misses uint64
	// WaitCycles is the number of cycles requests were held without a grant.
	WaitCycles uint64
}

// WritePort models the grant side of the drain interface. The store buffer
// re-drives its head request every cycle; the port classifies the request
// once on first sight (hit or miss against the data cache), counts down the
// configured latency, and grants when it elapses. The write is merged into
// the cache in the grant cycle.
type WritePort struct {
	config Config
	cache  *DataCache

	busy      bool
	pending   storebuffer.WriteRequest
	remaining uint64

	stats PortStats
}

// NewWritePort creates a write port in front of the given cache.
func NewWritePort(config *Config, cache *DataCache) *WritePort {
	return &WritePort{config: *config, cache: cache}
}

// Consider presents this cycle's write request to the port and returns true
// when the request is granted this cycle. A grant is a completion
// commitment: the enabled bytes are merged into the cache before it returns.
// valid=false means no request was driven this cycle and clears any
// in-flight countdown.
func (p *WritePort) Consider(req storebuffer.WriteRequest, valid bool) bool {
	if !valid {
		p.busy = false
		return false
	}

	if !p.busy || req != p.pending {
		p.busy = true
		p.pending = req
		p.stats.Requests++
		if p.cache.WouldHit(req.Address()) {
			p.stats.Hits++
			p.remaining = p.config.HitLatency
		} else {
			p.stats.Misses++
			p.remaining = p.config.MissLatency
		}
	}

	p.remaining--
	if p.remaining > 0 {
		p.stats.WaitCycles++
		return false
	}

	p.busy = false
	p.cache.Write(req.Address(), req.Data, req.ByteEnable)
	p.stats.Grants++
	return true
}

// Busy reports whether a request is being serviced.
func (p *WritePort) Busy() bool {
	return p.busy
}

// Stats returns a copy of the accumulated statistics.
func (p *WritePort) Stats() PortStats {
	return p.stats
}

// Reset clears any in-flight request and the statistics.
func (p *WritePort) Reset() {
	p.busy = false
	p.pending = storebuffer.WriteRequest{}
	p.remaining = 0
	p.stats = PortStats{}
}
