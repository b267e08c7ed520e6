package cti

import (
	"os"
	"sync"
)

// payloadStore holds one compressed payload per linear tile index between
// the parallel compression step and the sequential write-out step (§4.5
// step 3-4; §9 Design Notes "memory-frugal variant"). Workers write to
// disjoint indices and never race with each other.
type payloadStore interface {
	put(i int, data []byte) error
	get(i int) ([]byte, error)
	close() error
}

// memPayloadStore keeps every tile's compressed payload resident. This is
// the reference design's default: simple, and fine for the common case
// where N tiles' worth of compressed data comfortably fits in memory.
type memPayloadStore struct {
	data [][]byte
}

func newMemPayloadStore(n int) *memPayloadStore {
	return &memPayloadStore{data: make([][]byte, n)}
}

func (s *memPayloadStore) put(i int, data []byte) error {
	s.data[i] = data
	return nil
}

func (s *memPayloadStore) get(i int) ([]byte, error) {
	return s.data[i], nil
}

func (s *memPayloadStore) close() error { return nil }

// spillPayloadStore writes each tile's compressed payload to a shared temp
// file as soon as it's produced, rather than holding all N in memory at
// once. Adapted from the teacher's internal/tile/diskstore.go: here a
// single mutex serializes writes (workers append to a shared, growing
// file) instead of diskstore's dedicated I/O goroutine, since CTI has no
// backpressure requirement — the encoder never holds more than
// Concurrency payloads pending write at a time.
type spillPayloadStore struct {
	f       *os.File
	mu      sync.Mutex
	cursor  int64
	offsets []int64
	lengths []int
}

func newSpillPayloadStore(dir string, n int) (*spillPayloadStore, error) {
	f, err := os.CreateTemp(dir, "cti-spill-*.tmp")
	if err != nil {
		return nil, wrapErr(KindIo, err, "create spill file")
	}
	return &spillPayloadStore{
		f:       f,
		offsets: make([]int64, n),
		lengths: make([]int, n),
	}, nil
}

func (s *spillPayloadStore) put(i int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	off := s.cursor
	if len(data) > 0 {
		if _, err := s.f.WriteAt(data, off); err != nil {
			return wrapErr(KindIo, err, "spill tile %d payload", i)
		}
	}
	s.offsets[i] = off
	s.lengths[i] = len(data)
	s.cursor += int64(len(data))
	return nil
}

func (s *spillPayloadStore) get(i int) ([]byte, error) {
	n := s.lengths[i]
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := s.f.ReadAt(buf, s.offsets[i]); err != nil {
		return nil, wrapErr(KindIo, err, "read spilled tile %d payload", i)
	}
	return buf, nil
}

func (s *spillPayloadStore) close() error {
	name := s.f.Name()
	s.f.Close()
	return os.Remove(name)
}

// newPayloadStore picks the memory-resident or spill-to-disk store per
// cfg.MemoryLimitBytes: spilling engages when the estimated worst-case
// resident size (N tiles at the raw, uncompressed tile size — compression
// can only shrink it) would exceed the configured limit. When
// MemoryLimitBytes is zero and cfg.AutoMemoryLimit is set, the limit is
// instead detected from system RAM via computeMemoryLimit.
func newPayloadStore(cfg Config, n int, estimatedResidentBytes int64, outDir string) (payloadStore, error) {
	limit := cfg.MemoryLimitBytes
	if limit <= 0 && cfg.AutoMemoryLimit {
		limit = computeMemoryLimit(defaultMemoryPressurePercent, cfg.Verbose)
	}
	if limit <= 0 || estimatedResidentBytes <= limit {
		return newMemPayloadStore(n), nil
	}
	dir := cfg.SpillDir
	if dir == "" {
		dir = outDir
	}
	if cfg.Verbose {
		logVerbose("estimated payload size %d bytes exceeds memory limit %d bytes; spilling to %s",
			estimatedResidentBytes, limit, dir)
	}
	return newSpillPayloadStore(dir, n)
}
