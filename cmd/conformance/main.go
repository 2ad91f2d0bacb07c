// Package main provides conformance validation for the store buffer model.
// Ensures the live model honors its handshake and ordering contracts.
package main

import (
	"fmt"
	"os"

	"github.com/sarchlab/sbsim/memory"
	"github.com/sarchlab/sbsim/timing/core"
	"github.com/sarchlab/sbsim/timing/storebuffer"
	"github.com/sarchlab/sbsim/trace"
)

func pushInput(addr, data uint64) storebuffer.CycleInput {
	return trace.PushStore64(addr, data).Input()
}

// checkReadiness validates the headroom rule on both queues.
func checkReadiness() bool {
	fmt.Println("Checking readiness handshakes...")

	b := storebuffer.NewStoreBuffer()

	for count := 0; count < 3; count++ {
		if !b.Ready(false) {
			fmt.Printf("❌ ready deasserted at count %d\n", count)
			return false
		}
		b.Cycle(pushInput(0x1000+uint64(count)*8, uint64(count)))
	}

	if b.Ready(false) {
		fmt.Println("❌ ready asserted at headroom boundary without a commit")
		return false
	}
	if !b.Ready(true) {
		fmt.Println("❌ ready deasserted at headroom boundary despite a commit")
		return false
	}
	fmt.Printf("✅ speculative ready reserves one slot (count=%d)\n", b.SpeculativeCount())

	// Fill the commit queue without granting anything.
	b.Reset()
	for i := 0; i < 4; i++ {
		if !b.CommitReady() {
			fmt.Printf("❌ commitReady deasserted at count %d\n", i)
			return false
		}
		b.Cycle(pushInput(0x2000+uint64(i)*8, uint64(i)))
		b.Cycle(storebuffer.CycleInput{Commit: true})
	}
	if b.CommitReady() {
		fmt.Println("❌ commitReady asserted with the commit queue full")
		return false
	}
	if b.NoStorePending() {
		fmt.Println("❌ noStorePending asserted with committed stores waiting")
		return false
	}
	fmt.Printf("✅ commit queue backpressure engages at count=%d\n", b.CommitCount())

	return true
}

// checkOrderingAndDrain validates same-cycle commit+push, FIFO drain order,
// head re-drive, and pop-on-grant.
func checkOrderingAndDrain() bool {
	fmt.Println("\nChecking ordering and drain behavior...")

	b := storebuffer.NewStoreBuffer()
	addrs := []uint64{0x3000, 0x3008, 0x3010, 0x3018}

	for _, addr := range addrs[:3] {
		b.Cycle(pushInput(addr, addr))
	}

	// Push the fourth store in the same cycle the oldest commits.
	in := pushInput(addrs[3], addrs[3])
	in.Commit = true
	b.Cycle(in)

	if b.SpeculativeCount() != 3 || b.CommitCount() != 1 {
		fmt.Printf("❌ same-cycle commit+push left counts spec=%d commit=%d\n",
			b.SpeculativeCount(), b.CommitCount())
		return false
	}
	fmt.Println("✅ same-cycle commit+push nets to a full transfer")

	for i := 0; i < 3; i++ {
		b.Cycle(storebuffer.CycleInput{Commit: true})
	}

	// The head request must be re-driven unchanged until granted.
	first, ok := b.MemRequest()
	if !ok {
		fmt.Println("❌ no request driven with committed stores pending")
		return false
	}
	b.Cycle(storebuffer.CycleInput{})
	again, _ := b.MemRequest()
	if first != again {
		fmt.Println("❌ head request changed while ungranted")
		return false
	}
	fmt.Printf("✅ head request re-driven until granted (addr=0x%X)\n", first.Address())

	if !first.IsWrite || first.Kill || first.TagValid {
		fmt.Println("❌ request control wires are miswired")
		return false
	}
	fmt.Println("✅ write request drives isWrite with kill and tagValid low")

	// Grants must pop exactly one store, oldest first.
	for i, want := range addrs {
		req, ok := b.MemRequest()
		if !ok || req.Address() != want {
			fmt.Printf("❌ drain order broken at %d: got 0x%X want 0x%X\n",
				i, req.Address(), want)
			return false
		}
		out := b.Cycle(storebuffer.CycleInput{MemoryGrant: true})
		if !out.RequestGranted {
			fmt.Printf("❌ grant not reflected for store %d\n", i)
			return false
		}
	}
	if !b.NoStorePending() {
		fmt.Println("❌ stores left pending after draining all four")
		return false
	}
	fmt.Println("✅ grants pop committed stores oldest first")

	// A grant with nothing pending must be ignored.
	out := b.Cycle(storebuffer.CycleInput{MemoryGrant: true})
	if out.RequestGranted || b.Stats().DrainedStores != 4 {
		fmt.Println("❌ spurious grant was not ignored")
		return false
	}
	fmt.Println("✅ grant without a driven request is ignored")

	return true
}

// checkFlushBehavior validates that flush wins over a same-cycle push.
func checkFlushBehavior() bool {
	fmt.Println("\nChecking flush behavior...")

	b := storebuffer.NewStoreBuffer()
	b.Cycle(pushInput(0x4000, 1))

	in := pushInput(0x4008, 2)
	in.Flush = true
	b.Cycle(in)

	if b.SpeculativeCount() != 0 {
		fmt.Printf("❌ flush left %d speculative entries\n", b.SpeculativeCount())
		return false
	}
	if !b.NoStorePending() {
		fmt.Println("❌ flush leaked a store into the commit queue")
		return false
	}
	if b.Stats().Pushes != 1 {
		fmt.Printf("❌ store pushed during flush was counted (pushes=%d)\n",
			b.Stats().Pushes)
		return false
	}
	fmt.Println("✅ flush discards the speculative queue and the incoming store")

	return true
}

// checkAliasMatching validates conservative page-offset conflict detection.
func checkAliasMatching() bool {
	fmt.Println("\nChecking alias matching...")

	b := storebuffer.NewStoreBuffer()

	// The incoming store must be visible to a load in the same cycle.
	in := pushInput(0x1234, 0xAA)
	in.LoadOffset = 0x234
	out := b.Cycle(in)
	if !out.LoadConflict {
		fmt.Println("❌ load missed the store arriving in the same cycle")
		return false
	}
	fmt.Println("✅ same-cycle incoming store conflicts")

	cases := []struct {
		offset uint64
		want   bool
		label  string
	}{
		{0x234, true, "matching offset in the speculative queue"},
		{0x235, false, "adjacent offset stays clean"},
	}
	for _, tc := range cases {
		out := b.Cycle(storebuffer.CycleInput{LoadOffset: tc.offset})
		if out.LoadConflict != tc.want {
			fmt.Printf("❌ %s: conflict=%v\n", tc.label, out.LoadConflict)
			return false
		}
		fmt.Printf("✅ %s\n", tc.label)
	}

	// Committed stores still conflict until memory accepts them.
	b.Cycle(storebuffer.CycleInput{Commit: true})
	out = b.Cycle(storebuffer.CycleInput{LoadOffset: 0x234})
	if !out.LoadConflict {
		fmt.Println("❌ committed store stopped conflicting before draining")
		return false
	}
	out = b.Cycle(storebuffer.CycleInput{LoadOffset: 0x234, MemoryGrant: true})
	if !out.LoadConflict {
		fmt.Println("❌ store stopped conflicting in its grant cycle")
		return false
	}
	out = b.Cycle(storebuffer.CycleInput{LoadOffset: 0x234})
	if out.LoadConflict {
		fmt.Println("❌ drained store still conflicts")
		return false
	}
	fmt.Println("✅ conflicts persist through commit and clear after drain")

	return true
}

func expectPanic(label string, f func()) bool {
	panicked := false
	func() {
		defer func() {
			if recover() != nil {
				panicked = true
			}
		}()
		f()
	}()
	if !panicked {
		fmt.Printf("❌ %s: expected a panic\n", label)
		return false
	}
	fmt.Printf("✅ %s panics\n", label)
	return true
}

// checkContractFaults validates that caller contract violations panic.
func checkContractFaults() bool {
	fmt.Println("\nChecking contract fault handling...")

	ok := expectPanic("commit and flush in the same cycle", func() {
		b := storebuffer.NewStoreBuffer()
		b.Cycle(pushInput(0x5000, 1))
		b.Cycle(storebuffer.CycleInput{Commit: true, Flush: true})
	})

	ok = expectPanic("commit with an empty speculative queue", func() {
		storebuffer.NewStoreBuffer().Cycle(storebuffer.CycleInput{Commit: true})
	}) && ok

	ok = expectPanic("push with the speculative queue full", func() {
		b := storebuffer.NewStoreBuffer()
		for i := uint64(0); i < 5; i++ {
			b.Cycle(pushInput(0x6000+i*8, i))
		}
	}) && ok

	ok = expectPanic("commit with the commit queue full", func() {
		b := storebuffer.NewStoreBuffer()
		for i := uint64(0); i < 5; i++ {
			b.Cycle(pushInput(0x7000+i*8, i))
			b.Cycle(storebuffer.CycleInput{Commit: true})
		}
	}) && ok

	return ok
}

// checkGoldenEquivalence validates that the timed path leaves memory
// byte-identical to applying the committed stores in order.
func checkGoldenEquivalence() bool {
	fmt.Println("\nChecking golden model equivalence...")

	stores := []struct {
		addr, data uint64
		byteEnable uint8
		size       uint8
	}{
		{0x1_0000, 0x1122_3344_5566_7788, 0xFF, storebuffer.SizeDouble},
		{0x1_0003, 0xCC << 24, 0x08, storebuffer.SizeByte},
		{0x1_0006, 0xBEEF << 48, 0xC0, storebuffer.SizeHalf},
		{0x2_0FFC, 0xCAFE_F00D << 32, 0xF0, storebuffer.SizeWord},
		{0x1_0000, 0x9999, 0x03, storebuffer.SizeHalf},
	}

	var commands []trace.Command
	for _, s := range stores {
		commands = append(commands,
			trace.PushStore(s.addr, s.data, s.byteEnable, s.size),
			trace.Commit(),
		)
	}
	commands = append(commands, trace.Drain())

	c := core.NewCore(nil)
	if _, err := c.Run(commands, 0); err != nil {
		fmt.Printf("❌ timed run failed: %v\n", err)
		return false
	}
	c.Cache().Flush()

	golden := memory.NewStorage()
	for _, s := range stores {
		golden.WriteMasked64(s.addr, s.data, s.byteEnable)
	}

	if !c.Storage().Equal(golden) {
		fmt.Println("❌ drained memory diverges from in-order masked writes")
		return false
	}
	fmt.Printf("✅ %d stores drained byte-identical to the golden model\n", len(stores))

	return true
}

func main() {
	fmt.Println("sbsim Conformance Validation - Store Buffer Contracts")
	fmt.Println("=====================================================")

	allPassed := true

	if !checkReadiness() {
		allPassed = false
	}
	if !checkOrderingAndDrain() {
		allPassed = false
	}
	if !checkFlushBehavior() {
		allPassed = false
	}
	if !checkAliasMatching() {
		allPassed = false
	}
	if !checkContractFaults() {
		allPassed = false
	}
	if !checkGoldenEquivalence() {
		allPassed = false
	}

	fmt.Println("\n=====================================================")
	if allPassed {
		fmt.Println("🎉 ALL CONFORMANCE CHECKS PASSED")
		fmt.Println("✅ The store buffer honors its handshake and ordering contracts")
		os.Exit(0)
	} else {
		fmt.Println("❌ CONFORMANCE CHECKS FAILED")
		fmt.Println("🚨 The store buffer violates a documented contract")
		os.Exit(1)
	}
}
