// Package extract implements the model extractor: it reads a checkpoint's
// tensors through internal/model, projects the vocabulary's embeddings
// through each layer's linear map, mines neighbor pairs via a blocked GEMM
// similarity scan, and feeds the accepted pairs into internal/dag as
// relations with per-kind ELO and evidence. spec.md §4.5.
//
// Each tensor layer is processed by its own goroutine, pooled the way the
// teacher's reference retrieval experiment (experiments/embedding/main.go)
// and the wider pack's errgroup-based fan-out (grounded on
// transparency-dev/trillian-tessera's storage/aws writer, the clearest
// errgroup.Group{}-with-SetLimit pattern in the retrieved corpus) run
// bounded concurrent work: an errgroup.Group capped to runtime.NumCPU(),
// each task building its own ThreadLocalRecords, merged by one final
// Writer.Flush so the session-wide dedup set is only ever touched
// single-threaded. See DESIGN.md.
package extract

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/dag"
	"github.com/hartonomous/substrate/internal/interfaces"
	"github.com/hartonomous/substrate/internal/logger"
	"github.com/hartonomous/substrate/internal/model"
	"github.com/hartonomous/substrate/internal/substrate"
)

// Stats summarizes one extraction run for CLI/log reporting.
type Stats struct {
	VocabularySize   int
	LayersProcessed  int
	LayersSkipped    int
	EdgesEmitted     int
	RelationsWritten int
}

// Extractor binds a tensor source and a persistence adapter under a config.
type Extractor struct {
	persist interfaces.Persistence
	source  interfaces.TensorSource
	cfg     *config.Config
}

// New returns an Extractor reading from source and writing through persist.
func New(persist interfaces.Persistence, source interfaces.TensorSource, cfg *config.Config) *Extractor {
	if cfg == nil {
		cfg = config.Defaults()
	}
	return &Extractor{persist: persist, source: source, cfg: cfg}
}

// Run extracts every embedding/attention/FFN layer the source exposes,
// resolves the vocabulary to compositions, and writes the accepted edges
// as relations attributed to content. spec.md §4.5 steps 1-5.
func (e *Extractor) Run(ctx context.Context, content substrate.Content) (Stats, error) {
	vocab := e.source.Vocabulary()
	if len(vocab) == 0 {
		return Stats{}, fmt.Errorf("%w: extract: tensor source has no vocabulary", substrate.ErrInvalidInput)
	}

	writer := dag.NewWriter(e.persist)

	vocabLoc := dag.NewThreadLocalRecords()
	vocabIndex := buildVocabIndex(vocabLoc, vocab)
	if _, err := writer.Flush(ctx, []*dag.ThreadLocalRecords{vocabLoc}); err != nil {
		return Stats{}, fmt.Errorf("extract: flush vocabulary: %w", err)
	}

	embedName, embedMatrix, err := findEmbedding(e.source)
	if err != nil {
		return Stats{}, err
	}

	layers := planLayers(e.source.Tensors(), embedName)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	locals := make([]*dag.ThreadLocalRecords, len(layers))
	skipped := make([]bool, len(layers))
	edgeCounts := make([]int, len(layers))

	for idx, layer := range layers {
		idx, layer := idx, layer
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			loc, edges, skip, err := e.processLayer(layer, embedMatrix, vocabIndex, content)
			if err != nil {
				return err
			}
			locals[idx] = loc
			skipped[idx] = skip
			edgeCounts[idx] = edges
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("extract: layer task failed: %w", err)
	}

	var flushable []*dag.ThreadLocalRecords
	stats := Stats{VocabularySize: len(vocab)}
	for i, loc := range locals {
		if skipped[i] {
			stats.LayersSkipped++
			continue
		}
		stats.LayersProcessed++
		stats.EdgesEmitted += edgeCounts[i]
		if loc != nil {
			flushable = append(flushable, loc)
		}
	}

	flushStats, err := writer.Flush(ctx, flushable)
	if err != nil {
		return Stats{}, fmt.Errorf("extract: flush layers: %w", err)
	}
	stats.RelationsWritten = flushStats.RelationsWritten

	logger.Info("extract: run complete",
		"vocab", stats.VocabularySize,
		"layers_processed", stats.LayersProcessed,
		"layers_skipped", stats.LayersSkipped,
		"edges", stats.EdgesEmitted,
		"relations_written", stats.RelationsWritten,
	)
	return stats, nil
}

// layerTask describes one tensor layer queued for projection+extraction.
type layerTask struct {
	name       string
	kind       model.Kind
	layerIndex int // -1 for the embedding layer itself
	isEmbed    bool
}

// planLayers selects the embedding layer plus every attention/FFN tensor,
// numbering attention/FFN occurrences in tensor order so each layer's
// evidence hash can include a stable layer index. spec.md §4.5 step 5:
// "a layer index (for attention/FFN) so evidence ... does not collide."
func planLayers(tensors []interfaces.TensorInfo, embedName string) []layerTask {
	tasks := []layerTask{{name: embedName, kind: model.KindEmbedding, layerIndex: -1, isEmbed: true}}
	idx := 0
	for _, t := range tensors {
		if t.Name == embedName {
			continue
		}
		kind := model.ClassifyTensor(t.Name)
		if kind != model.KindAttention && kind != model.KindFFN {
			continue
		}
		tasks = append(tasks, layerTask{name: t.Name, kind: kind, layerIndex: idx})
		idx++
	}
	return tasks
}

func findEmbedding(source interfaces.TensorSource) (string, [][]float32, error) {
	for _, t := range source.Tensors() {
		if model.ClassifyTensor(t.Name) == model.KindEmbedding {
			m, err := source.Matrix(t.Name)
			if err != nil {
				return "", nil, fmt.Errorf("extract: read embedding %q: %w", t.Name, err)
			}
			if len(m) == 0 {
				return "", nil, fmt.Errorf("%w: extract: embedding tensor %q is empty", substrate.ErrInvalidInput, t.Name)
			}
			return t.Name, m, nil
		}
	}
	return "", nil, fmt.Errorf("%w: extract: no embedding tensor found", substrate.ErrInvalidInput)
}

// processLayer projects one layer, scores it, mines edges, and builds the
// thread-local record set for it. Returns skip=true when the layer's
// tensor is empty, dimensionally incompatible with the embedding, or its
// quality score falls below the kind-specific threshold — all logged, none
// of them fatal to the run. spec.md §4.5 "Error conditions".
func (e *Extractor) processLayer(task layerTask, embed [][]float32, vocab map[int]vocabEntry, content substrate.Content) (*dag.ThreadLocalRecords, int, bool, error) {
	var projected [][]float32

	if task.isEmbed {
		projected = cloneRows(embed)
	} else {
		weight, err := e.source.Matrix(task.name)
		if err != nil {
			return nil, 0, false, fmt.Errorf("read tensor %q: %w", task.name, err)
		}
		if len(weight) == 0 {
			logger.Warn("extract: empty tensor, skipping layer", "tensor", task.name)
			return nil, 0, true, nil
		}
		p, ok := projectThroughWeight(embed, weight, task.kind == model.KindFFN)
		if !ok {
			logger.Warn("extract: dimension mismatch, skipping layer", "tensor", task.name)
			return nil, 0, true, nil
		}
		projected = p
	}
	rowNormalizeAll(projected)

	if !task.isEmbed {
		quality := scoreLayerQuality(projected)
		if quality < qualityThreshold(task.kind) {
			logger.Info("extract: layer below quality threshold, skipping", "tensor", task.name, "quality", quality)
			return nil, 0, true, nil
		}
	}

	policy := edgePolicyFor(task.kind, e.cfg)
	pairs := blockedGEMMNeighbors(projected, policy.threshold, e.cfg.MaxNeighborsPerToken, e.cfg.BlockSize)

	loc := dag.NewThreadLocalRecords()
	emitted := 0
	for _, pair := range pairs {
		vi, okI := vocab[pair.i]
		vj, okJ := vocab[pair.j]
		if !okI || !okJ {
			continue // missing vocabulary entry for an index: skip the pair.
		}
		emitEdge(loc, vi, vj, pair.sim, task, policy, content)
		emitted++
	}
	return loc, emitted, false, nil
}

func cloneRows(m [][]float32) [][]float32 {
	out := make([][]float32, len(m))
	for i, row := range m {
		out[i] = append([]float32(nil), row...)
	}
	return out
}
