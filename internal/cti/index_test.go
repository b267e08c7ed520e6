package cti

import (
	"bytes"
	"os"
	"testing"
)

func TestTileIndexEntry_MarshalUnmarshal(t *testing.T) {
	e := tileIndexEntry{Offset: 84, CompressedSize: 1, OriginalSize: 1, CRC32: 0xdeadbeef}
	buf := e.marshal()
	if len(buf) != tileIndexSize {
		t.Fatalf("marshal: got %d bytes, want %d", len(buf), tileIndexSize)
	}
	got := unmarshalTileIndexEntry(buf)
	if got != e {
		t.Errorf("round-trip mismatch: got %+v, want %+v", got, e)
	}
}

func TestWriteReadIndices_RoundTrip(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "idx-*.bin")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	entries := []tileIndexEntry{
		{Offset: uint64(tilePayloadBase(3)), CompressedSize: 10, OriginalSize: 20, CRC32: 1},
		{Offset: uint64(tilePayloadBase(3)) + 10, CompressedSize: 5, OriginalSize: 20, CRC32: 2},
		{Offset: uint64(tilePayloadBase(3)) + 15, CompressedSize: 8, OriginalSize: 20, CRC32: 3},
	}
	if err := writeTileIndexAt(f, entries); err != nil {
		t.Fatalf("writeTileIndexAt: %v", err)
	}

	got, err := readIndicesAt(f, len(entries))
	if err != nil {
		t.Fatalf("readIndicesAt: %v", err)
	}
	for i := range entries {
		if got[i] != entries[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, got[i], entries[i])
		}
	}
}

func TestIndexOffset_Contiguity(t *testing.T) {
	n := 5
	if got := tilePayloadBase(n); got != headerSize+int64(n)*tileIndexSize {
		t.Errorf("tilePayloadBase(%d) = %d, want %d", n, got, headerSize+int64(n)*tileIndexSize)
	}
	if got := indexOffset(0); got != headerSize {
		t.Errorf("indexOffset(0) = %d, want %d", got, headerSize)
	}
}

func TestReadIndicesAt_Empty(t *testing.T) {
	got, err := readIndicesAt(bytes.NewReader(nil), 0)
	if err != nil {
		t.Fatalf("readIndicesAt(0): %v", err)
	}
	if got != nil {
		t.Errorf("readIndicesAt(0) = %v, want nil", got)
	}
}
