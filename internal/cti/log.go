package cti

import "log"

// logVerbose logs through the standard logger, matching the teacher's
// Config.Verbose-gated log.Printf calls (internal/tile/generator.go,
// internal/tile/memlimit.go). Callers gate on cfg.Verbose before calling.
func logVerbose(format string, args ...interface{}) {
	log.Printf("cti: "+format, args...)
}
