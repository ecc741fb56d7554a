package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.MaxNeighborsPerToken != 20 {
		t.Fatalf("MaxNeighborsPerToken = %d, want 20", cfg.MaxNeighborsPerToken)
	}
	if cfg.EmbeddingSimilarityThreshold != 0.50 {
		t.Fatalf("EmbeddingSimilarityThreshold = %v, want 0.50", cfg.EmbeddingSimilarityThreshold)
	}
}

func TestLoadMergesProjectOverUser(t *testing.T) {
	dir := t.TempDir()
	userDir := filepath.Join(dir, "user")
	projectDir := filepath.Join(dir, "project")
	if err := EnsureConfigDirs(userDir, projectDir); err != nil {
		t.Fatalf("EnsureConfigDirs: %v", err)
	}

	if err := os.WriteFile(filepath.Join(userDir, "settings.yaml"), []byte("top_k: 16\nmin_elo: 700\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, ".substrate", "settings.yaml"), []byte("top_k: 64\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.Load(userDir, projectDir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := m.Get()
	if cfg.TopK != 64 {
		t.Fatalf("TopK = %d, want 64 (project should win)", cfg.TopK)
	}
	if cfg.MinElo != 700 {
		t.Fatalf("MinElo = %v, want 700 (inherited from user)", cfg.MinElo)
	}
}

func TestLoadMissingFilesIsNotError(t *testing.T) {
	dir := t.TempDir()
	m := NewManager()
	if err := m.Load(filepath.Join(dir, "nope"), filepath.Join(dir, "also-nope")); err != nil {
		t.Fatalf("Load with missing files: %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SUBSTRATE_DSN", "file:/tmp/override.db")
	m := NewManager()
	if err := m.Load(t.TempDir(), t.TempDir()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := m.Get().DSN; got != "file:/tmp/override.db" {
		t.Fatalf("DSN = %q, want override", got)
	}
}
