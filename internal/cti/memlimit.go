package cti

import (
	"log"
	"runtime"
)

// defaultMemoryPressurePercent is the fraction of total RAM at which the
// encoder starts spilling tile payloads to disk instead of holding them
// resident (§9 Design Notes, "memory-frugal variant").
const defaultMemoryPressurePercent = 0.90

// computeMemoryLimit returns the maximum bytes the encoder's payload
// buffer should use before spilling to disk: a fraction of total system
// RAM minus current Go heap overhead and a fixed headroom. Returns 0 if
// RAM detection fails or the computed limit is unreasonably small, which
// callers treat as "spilling disabled."
func computeMemoryLimit(fraction float64, verbose bool) int64 {
	totalRAM, err := totalSystemRAM()
	if err != nil {
		if verbose {
			log.Printf("cti: cannot detect system RAM: %v; disk spilling disabled", err)
		}
		return 0
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	overhead := m.Sys + 512*1024*1024

	limit := int64(float64(totalRAM)*fraction) - int64(overhead)
	if limit < 64*1024*1024 {
		if verbose {
			log.Printf("cti: computed memory limit too small (%.0f MB); disk spilling disabled",
				float64(limit)/(1024*1024))
		}
		return 0
	}

	if verbose {
		log.Printf("cti: encoder payload memory limit: %.1f GB (%.0f%% of RAM minus %.1f MB overhead)",
			float64(limit)/(1024*1024*1024), fraction*100, float64(overhead)/(1024*1024))
	}
	return limit
}
