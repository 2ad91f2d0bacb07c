// Package main provides the entry point for sbsim.
// sbsim is a cycle-level CPU store buffer simulator built around a
// speculative queue draining through a commit queue into the data cache.
//
// For the full CLI, use: go run ./cmd/sbsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("sbsim - CPU Store Buffer Simulator")
	fmt.Println("Speculative and commit queues with a page-offset alias checker")
	fmt.Println("")
	fmt.Println("Usage: sbsim [options] <trace file>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config      Path to memory configuration JSON file")
	fmt.Println("  -max-cycles  Cycle budget for the run (0 = default)")
	fmt.Println("  -json        Output the report in JSON format")
	fmt.Println("  -v           Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/sbsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/sbsim' instead.")
	}
}
