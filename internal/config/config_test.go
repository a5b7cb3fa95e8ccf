package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.OutputDir != ".cortexast" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, ".cortexast")
	}
	if cfg.VectorSearch.ChunkLines != 40 {
		t.Errorf("VectorSearch.ChunkLines = %d, want 40", cfg.VectorSearch.ChunkLines)
	}
	if cfg.TokenEstimator.CharsPerToken != 4 {
		t.Errorf("TokenEstimator.CharsPerToken = %d, want 4", cfg.TokenEstimator.CharsPerToken)
	}
	if len(cfg.Scan.ExcludeDirNames) == 0 {
		t.Error("Scan.ExcludeDirNames should have built-in defaults")
	}
	if cfg.Router.DefaultMaxChars != 8000 {
		t.Errorf("Router.DefaultMaxChars = %d, want 8000", cfg.Router.DefaultMaxChars)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"zero chunk lines", func(c *Config) { c.VectorSearch.ChunkLines = 0 }, true},
		{"zero chars per token", func(c *Config) { c.TokenEstimator.CharsPerToken = 0 }, true},
		{"clamp below default", func(c *Config) { c.Router.MaxCharsClamp = 10 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() should return an error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() returned unexpected error: %v", err)
			}
		})
	}
}

func TestLoad_Default(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != ".cortexast" {
		t.Errorf("OutputDir = %q, want default", cfg.OutputDir)
	}
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `{
		"outputDir": "custom-dir",
		"vectorSearch": {"chunkLines": 80, "model": "custom-model"}
	}`
	configPath := filepath.Join(tmpDir, ".cortexast.json")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "custom-dir" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "custom-dir")
	}
	if cfg.VectorSearch.ChunkLines != 80 {
		t.Errorf("VectorSearch.ChunkLines = %d, want 80", cfg.VectorSearch.ChunkLines)
	}
	if cfg.VectorSearch.DefaultQueryLimit != 10 {
		t.Errorf("VectorSearch.DefaultQueryLimit = %d, want default 10", cfg.VectorSearch.DefaultQueryLimit)
	}
}

func TestConfig_Save(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.OutputDir = "saved-dir"

	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() after save error = %v", err)
	}
	if loaded.OutputDir != "saved-dir" {
		t.Errorf("loaded OutputDir = %q, want %q", loaded.OutputDir, "saved-dir")
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "vectorSearch.chunkLines", Message: "must be positive"}
	got := err.Error()
	want := "config error in field 'vectorSearch.chunkLines': must be positive"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
