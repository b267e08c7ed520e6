package cti

import "os"

// EncodeFile creates path and encodes r into it under cfg, per §6's
// encode(raster, config, out_path) collaborator interface.
func EncodeFile(r *Raster, cfg Config, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return wrapErr(KindIo, err, "create %s", path)
	}
	defer f.Close()
	if err := Encode(r, cfg, f); err != nil {
		return err
	}
	return nil
}

// DecodeFile opens path and decodes a full raster from it, per §6's
// decode(path) -> (header, raster) collaborator interface. Use InfoFile
// instead when only the header is needed, to avoid decoding every tile.
func DecodeFile(path string) (Info, *Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, nil, wrapErr(KindIo, err, "open %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// InfoFile reads path's 64-byte header only, per §6's info(path) -> header
// collaborator interface and the §9 redesign note separating this from a
// full decode.
func InfoFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, wrapErr(KindIo, err, "open %s", path)
	}
	defer f.Close()
	return readInfo(f)
}

// ListSectionsFile scans path's trailer section table without decoding any
// tile payload, matching the §9 redesign note that corrects the original
// DumpSections shortcut of decoding the full raster first.
func ListSectionsFile(path string) ([]Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(KindIo, err, "open %s", path)
	}
	defer f.Close()
	return readListSections(f)
}
