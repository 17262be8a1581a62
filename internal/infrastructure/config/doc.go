// Package config provides 12-factor configuration management for pipechain.
//
// Configuration is layered: built-in defaults, then an optional tuning profile
// (TOML or YAML) named by PIPECHAIN_PROFILE, then environment variables.
// The command line itself carries only the stage count and the source path.
//
// Configuration Sections:
//   - Logging: Log level and output format
//   - Buffer: Sizing policy for the supervisor's per-stage rings
//   - Worker: Per-call transfer size of each relay stage
//   - Metrics: Optional Prometheus textfile written at exit
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//
// Environment Variables:
//   - PIPECHAIN_LOG_LEVEL, PIPECHAIN_LOG_DEV
//   - PIPECHAIN_BUFFER_POLICY, PIPECHAIN_BUFFER_UNIT, PIPECHAIN_BUFFER_FACTOR
//   - PIPECHAIN_BUFFER_EXPONENT, PIPECHAIN_BUFFER_MAX
//   - PIPECHAIN_WORKER_CHUNK_SIZE
//   - PIPECHAIN_METRICS_FILE
//   - PIPECHAIN_PROFILE
package config
