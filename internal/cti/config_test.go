package cti

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.TileSize != 256 {
		t.Errorf("TileSize = %d, want 256", cfg.TileSize)
	}
	if cfg.Compression != CompressionNone {
		t.Errorf("Compression = %v, want CompressionNone", cfg.Compression)
	}
	if cfg.ColorTransform {
		t.Error("ColorTransform should default to false")
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("DefaultConfig() should validate, got %v", err)
	}
}

func TestNDKPreset(t *testing.T) {
	cfg := NDKPreset()
	if cfg.TileSize != 4096 {
		t.Errorf("TileSize = %d, want 4096", cfg.TileSize)
	}
	if cfg.Compression != CompressionZstd {
		t.Errorf("Compression = %v, want CompressionZstd", cfg.Compression)
	}
	if !cfg.AutoMemoryLimit {
		t.Error("AutoMemoryLimit should default to true for NDKPreset")
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("NDKPreset() should validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"zero tile size", Config{TileSize: 0, ZstdLevel: 6}, true},
		{"negative tile size", Config{TileSize: -1, ZstdLevel: 6}, true},
		{"zstd level too low", Config{TileSize: 256, ZstdLevel: 0}, true},
		{"zstd level too high", Config{TileSize: 256, ZstdLevel: 16}, true},
		{"valid", Config{TileSize: 256, ZstdLevel: 1}, false},
		{"valid upper bound", Config{TileSize: 256, ZstdLevel: 15}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
