package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTokenizerVocabNested(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokenizer.json")
	if err := os.WriteFile(path, []byte(`{"model":{"vocab":{"hello":1,"world":2}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	vocab, err := LoadTokenizerVocab(path)
	if err != nil {
		t.Fatalf("LoadTokenizerVocab: %v", err)
	}
	if vocab["hello"] != 1 || vocab["world"] != 2 {
		t.Fatalf("unexpected vocab: %+v", vocab)
	}
}

func TestLoadTokenizerVocabFlat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokenizer.json")
	if err := os.WriteFile(path, []byte(`{"hello":1,"world":2}`), 0o644); err != nil {
		t.Fatal(err)
	}
	vocab, err := LoadTokenizerVocab(path)
	if err != nil {
		t.Fatalf("LoadTokenizerVocab: %v", err)
	}
	if vocab["hello"] != 1 || vocab["world"] != 2 {
		t.Fatalf("unexpected vocab: %+v", vocab)
	}
}

func TestLoadTokenizerVocabMissingFile(t *testing.T) {
	if _, err := LoadTokenizerVocab(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOpenDirectorySingleFile(t *testing.T) {
	dir := t.TempDir()
	writeSafetensors(t, filepath.Join(dir, "model.safetensors"), "embed_tokens.weight", []int{2, 2}, []float32{1, 2, 3, 4})
	if err := os.WriteFile(filepath.Join(dir, "tokenizer.json"), []byte(`{"model":{"vocab":{"a":0,"b":1}}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	source, err := OpenDirectory(dir)
	if err != nil {
		t.Fatalf("OpenDirectory: %v", err)
	}
	c, ok := source.(*Container)
	if !ok {
		t.Fatalf("expected *Container, got %T", source)
	}
	if len(c.vocab) != 2 {
		t.Fatalf("vocabulary not attached: %+v", c.vocab)
	}
}

func TestOpenDirectoryMissingModel(t *testing.T) {
	dir := t.TempDir()
	if _, err := OpenDirectory(dir); err == nil {
		t.Fatal("expected error for directory with no model artifact")
	}
}
