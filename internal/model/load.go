package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hartonomous/substrate/internal/interfaces"
	"github.com/hartonomous/substrate/internal/substrate"
)

// tokenizerJSON is the slice of a HuggingFace tokenizer.json the extractor
// cares about: the model sub-object's vocab map. spec.md §6 bullet 2
// ("a tokenizer JSON (vocabulary with integer IDs)").
type tokenizerJSON struct {
	Model struct {
		Vocab map[string]int `json:"vocab"`
	} `json:"model"`
}

// LoadTokenizerVocab reads a tokenizer.json file and returns its token ->
// id vocabulary. Falls back to treating the whole file as a flat
// token->id map (some exported tokenizers omit the "model" wrapper) when
// the "model.vocab" field is absent.
func LoadTokenizerVocab(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read tokenizer %s: %v", substrate.ErrPersistence, path, err)
	}

	var tok tokenizerJSON
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: parse tokenizer %s: %v", substrate.ErrCorruption, path, err)
	}
	if len(tok.Model.Vocab) > 0 {
		return tok.Model.Vocab, nil
	}

	var flat map[string]int
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("%w: tokenizer %s has neither model.vocab nor a flat vocab map", substrate.ErrInvalidInput, path)
	}
	return flat, nil
}

// OpenDirectory opens a model artifact directory: a tokenizer.json next to
// either a single model.safetensors file or a model.safetensors.index.json
// shard index, per spec.md §6 bullet 2. The config.json is not otherwise
// consulted — shapes and dtypes are read directly from the safetensors
// header, matching §1's "assume it yields named dense float32 matrices and
// a vocabulary" framing of the external contract.
func OpenDirectory(dir string) (interfaces.TensorSource, error) {
	var source interfaces.TensorSource

	indexPath := filepath.Join(dir, "model.safetensors.index.json")
	if _, err := os.Stat(indexPath); err == nil {
		sharded, err := OpenSharded(indexPath)
		if err != nil {
			return nil, err
		}
		source = sharded
	} else {
		single := filepath.Join(dir, "model.safetensors")
		c, err := Open(single)
		if err != nil {
			return nil, fmt.Errorf("%w: no shard index and no model.safetensors in %s", substrate.ErrInvalidInput, dir)
		}
		source = c
	}

	vocabPath := filepath.Join(dir, "tokenizer.json")
	vocab, err := LoadTokenizerVocab(vocabPath)
	if err != nil {
		return nil, err
	}
	switch s := source.(type) {
	case *Container:
		s.SetVocabulary(vocab)
	case *Sharded:
		s.SetVocabulary(vocab)
	}
	return source, nil
}
