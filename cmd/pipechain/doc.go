// Package main is the entry point for pipechain.
//
// pipechain relays a file to stdout through a chain of worker processes,
// with a supervising process buffering between every pair of stages.
//
// Architecture:
//
//	source → W0 → supervisor → W1 → supervisor → … → W(N-1) → supervisor → stdout
//
// Configuration:
//   - Environment variables (12-factor), prefix PIPECHAIN_
//   - Optional tuning profile (TOML or YAML) named by PIPECHAIN_PROFILE
//   - Defaults for everything else
//
// Usage:
//
//	# Relay through three stages
//	./pipechain 3 input.bin > output.bin
//
//	# Development mode (colored logs, debug level)
//	PIPECHAIN_LOG_DEV=true PIPECHAIN_LOG_LEVEL=debug ./pipechain 3 input.bin
//
//	# Dump run metrics for a node_exporter textfile collector
//	PIPECHAIN_METRICS_FILE=/var/lib/node_exporter/pipechain.prom ./pipechain 3 input.bin
//
// Exit Status:
//   - 0: success
//   - 1: runtime failure
//   - 2: usage error
package main
