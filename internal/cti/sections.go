package cti

import (
	"encoding/binary"
	"io"
	"math"
)

const sectionRecordSize = 20 // ty:u32, offset:u64, size:u64

// Section tags (§3 Section record).
const (
	sectionTagRES uint32 = 0x20534552 // "RES "
	sectionTagICC uint32 = 0x20434349 // "ICC "
)

// section is one trailer payload plus its tag; its absolute offset is
// computed by writeSectionsAt and written only into the TOC record.
type section struct {
	Tag     uint32
	Payload []byte
}

// resSection builds the "RES " section payload: two little-endian f32
// values, xdpi then ydpi (§3 Section record).
func resSection(xdpi, ydpi float64) section {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(float32(xdpi)))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(float32(ydpi)))
	return section{Tag: sectionTagRES, Payload: buf}
}

func iccSection(icc []byte) section {
	return section{Tag: sectionTagICC, Payload: icc}
}

// sectionsForRaster builds the trailer section list for a raster, in the
// fixed order the spec requires when both are present: "RES " before
// "ICC " (§4.5 step 6, §8 Section trailer property).
func sectionsForRaster(r *Raster) []section {
	var sections []section
	if r.HasDPI {
		sections = append(sections, resSection(r.XDPI, r.YDPI))
	}
	if len(r.ICC) > 0 {
		sections = append(sections, iccSection(r.ICC))
	}
	return sections
}

// writeSectionsAt implements the §4.4 write_sections protocol: an empty
// list writes a single u32=0 and nothing else; otherwise it writes
// count:u32, reserves count*20 bytes for the TOC, writes each payload in
// order capturing its absolute offset, then rewinds to patch the TOC.
func writeSectionsAt(w io.WriterAt, base int64, sections []section) (int64, error) {
	if len(sections) == 0 {
		if _, err := w.WriteAt(leUint32(0), base); err != nil {
			return 0, wrapErr(KindIo, err, "write empty section table")
		}
		return base + 4, nil
	}

	count := len(sections)
	tocBase := base + 4
	payloadBase := tocBase + int64(count)*sectionRecordSize

	if _, err := w.WriteAt(leUint32(uint32(count)), base); err != nil {
		return 0, wrapErr(KindIo, err, "write section count")
	}

	offsets := make([]int64, count)
	cursor := payloadBase
	for i, s := range sections {
		offsets[i] = cursor
		if len(s.Payload) > 0 {
			if _, err := w.WriteAt(s.Payload, cursor); err != nil {
				return 0, wrapErr(KindIo, err, "write section %d payload", i)
			}
		}
		cursor += int64(len(s.Payload))
	}

	toc := make([]byte, count*sectionRecordSize)
	for i, s := range sections {
		rec := toc[i*sectionRecordSize : (i+1)*sectionRecordSize]
		binary.LittleEndian.PutUint32(rec[0:4], s.Tag)
		binary.LittleEndian.PutUint64(rec[4:12], uint64(offsets[i]))
		binary.LittleEndian.PutUint64(rec[12:20], uint64(len(s.Payload)))
	}
	if _, err := w.WriteAt(toc, tocBase); err != nil {
		return 0, wrapErr(KindIo, err, "patch section TOC")
	}

	return cursor, nil
}

// sectionRecord is a TOC entry as read back from a container's trailer.
type sectionRecord struct {
	Tag    uint32
	Offset uint64
	Size   uint64
}

// readSectionsAt scans a container's trailer starting at base, without
// touching any tile payload — the §4.6 "list sections" entry point, which
// per §9's redesign note must not decode the raster first.
func readSectionsAt(r io.ReaderAt, base int64) ([]sectionRecord, error) {
	countBuf := make([]byte, 4)
	if _, err := r.ReadAt(countBuf, base); err != nil {
		return nil, wrapErr(KindIo, err, "read section count")
	}
	count := binary.LittleEndian.Uint32(countBuf)
	if count == 0 {
		return nil, nil
	}

	toc := make([]byte, int(count)*sectionRecordSize)
	if _, err := r.ReadAt(toc, base+4); err != nil {
		return nil, wrapErr(KindIo, err, "read section TOC")
	}

	records := make([]sectionRecord, count)
	for i := range records {
		rec := toc[i*sectionRecordSize : (i+1)*sectionRecordSize]
		records[i] = sectionRecord{
			Tag:    binary.LittleEndian.Uint32(rec[0:4]),
			Offset: binary.LittleEndian.Uint64(rec[4:12]),
			Size:   binary.LittleEndian.Uint64(rec[12:20]),
		}
	}
	return records, nil
}

// readSectionPayload reads one section's payload given its TOC record.
func readSectionPayload(r io.ReaderAt, rec sectionRecord) ([]byte, error) {
	buf := make([]byte, rec.Size)
	if rec.Size == 0 {
		return buf, nil
	}
	if _, err := r.ReadAt(buf, int64(rec.Offset)); err != nil {
		return nil, wrapErr(KindIo, err, "read section payload at tag 0x%08x", rec.Tag)
	}
	return buf, nil
}

func leUint32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}
