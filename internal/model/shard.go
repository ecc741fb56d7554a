package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hartonomous/substrate/internal/interfaces"
	"github.com/hartonomous/substrate/internal/substrate"
)

// shardIndex is the JSON shape of a model.safetensors.index.json file:
// weight_map names which shard file each tensor lives in.
type shardIndex struct {
	Metadata  map[string]any    `json:"metadata"`
	WeightMap map[string]string `json:"weight_map"`
}

// Sharded is a TensorSource spanning multiple safetensors shard files,
// addressed through a single index file the way large checkpoints are
// distributed. spec.md §6 bullet 2 "sharded index support".
type Sharded struct {
	dir       string
	weightMap map[string]string
	shards    map[string]*Container // lazily opened, keyed by shard filename
	vocab     map[string]int
}

// OpenSharded reads indexPath and lazily opens whichever shard file each
// requested tensor lives in.
func OpenSharded(indexPath string) (*Sharded, error) {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read shard index %s: %v", substrate.ErrPersistence, indexPath, err)
	}
	var idx shardIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: parse shard index %s: %v", substrate.ErrCorruption, indexPath, err)
	}
	return &Sharded{
		dir:       filepath.Dir(indexPath),
		weightMap: idx.WeightMap,
		shards:    make(map[string]*Container),
	}, nil
}

func (s *Sharded) shardFor(tensor string) (*Container, error) {
	file, ok := s.weightMap[tensor]
	if !ok {
		return nil, fmt.Errorf("%w: tensor %q not present in shard index", substrate.ErrNotFound, tensor)
	}
	if c, ok := s.shards[file]; ok {
		return c, nil
	}
	c, err := Open(filepath.Join(s.dir, file))
	if err != nil {
		return nil, err
	}
	s.shards[file] = c
	return c, nil
}

// Tensors implements interfaces.TensorSource by opening every distinct
// shard file referenced in the index and concatenating their tensor lists.
func (s *Sharded) Tensors() []interfaces.TensorInfo {
	seen := map[string]bool{}
	var out []interfaces.TensorInfo
	for name, file := range s.weightMap {
		if seen[file] {
			continue
		}
		c, err := s.shardFor(name)
		if err != nil {
			continue
		}
		seen[file] = true
		out = append(out, c.Tensors()...)
	}
	return out
}

// Matrix implements interfaces.TensorSource.
func (s *Sharded) Matrix(name string) ([][]float32, error) {
	c, err := s.shardFor(name)
	if err != nil {
		return nil, err
	}
	return c.Matrix(name)
}

// SetVocabulary attaches a vocabulary map shared across all shards.
func (s *Sharded) SetVocabulary(v map[string]int) { s.vocab = v }

// Vocabulary implements interfaces.TensorSource.
func (s *Sharded) Vocabulary() map[string]int { return s.vocab }
