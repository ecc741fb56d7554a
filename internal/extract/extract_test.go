package extract

import (
	"context"
	"testing"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/hashid"
	"github.com/hartonomous/substrate/internal/interfaces"
	"github.com/hartonomous/substrate/internal/model"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/internal/substrate"
)

func TestRowNormalizeAllProducesUnitRows(t *testing.T) {
	rows := [][]float32{{3, 4, 0}, {0, 0, 0}}
	rowNormalizeAll(rows)

	got := cosineSim(rows[0], rows[0])
	if got < 0.999 || got > 1.001 {
		t.Fatalf("normalized row self-similarity = %v, want ~1", got)
	}
	if rows[1][0] != 0 || rows[1][1] != 0 {
		t.Fatalf("zero row should stay zero, got %v", rows[1])
	}
}

func TestProjectThroughWeightDimensionMismatch(t *testing.T) {
	embed := [][]float32{{1, 2, 3}}
	weight := [][]float32{{1, 0}} // in_features = 2, mismatched
	if _, ok := projectThroughWeight(embed, weight, false); ok {
		t.Fatal("expected dimension mismatch to report ok=false")
	}
}

func TestProjectThroughWeightAppliesReluForFFN(t *testing.T) {
	embed := [][]float32{{-1, 2}}
	weight := [][]float32{{1, 0}, {0, 1}} // identity
	out, ok := projectThroughWeight(embed, weight, true)
	if !ok {
		t.Fatal("expected ok")
	}
	if out[0][0] != 0 {
		t.Fatalf("ReLU should clamp negative projection to 0, got %v", out[0][0])
	}
	if out[0][1] != 2 {
		t.Fatalf("positive projection unchanged, got %v", out[0][1])
	}
}

func TestScoreLayerQualityPrefersAlignedRows(t *testing.T) {
	aligned := [][]float32{{1, 0, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}}
	rowNormalizeAll(aligned)
	orthogonal := [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
	rowNormalizeAll(orthogonal)

	alignedScore := scoreLayerQuality(aligned)
	orthogonalScore := scoreLayerQuality(orthogonal)
	if alignedScore <= orthogonalScore {
		t.Fatalf("aligned rows should score higher: aligned=%v orthogonal=%v", alignedScore, orthogonalScore)
	}
}

func TestBlockedGEMMNeighborsRespectsTopKAndTieBreak(t *testing.T) {
	rows := [][]float32{
		{1, 0, 0},
		{1, 0, 0}, // tie with row 2 at distance 0
		{1, 0, 0}, // same similarity as row 1, higher index
		{0, 1, 0}, // orthogonal, below threshold
	}
	pairs := blockedGEMMNeighbors(rows, 0.5, 1, 2)

	var got *neighborPair
	for i := range pairs {
		if pairs[i].i == 0 {
			got = &pairs[i]
		}
	}
	if got == nil {
		t.Fatal("expected a neighbor for row 0")
	}
	if got.j != 1 {
		t.Fatalf("tie-break should prefer the lower target index, got j=%d", got.j)
	}
}

func TestEdgePolicyForLinearRanges(t *testing.T) {
	cfg := config.Defaults()
	cfg.EmbeddingSimilarityThreshold = 0.5

	embed := edgePolicyFor(model.KindEmbedding, cfg)
	if embed.threshold != 0.5 {
		t.Fatalf("embedding threshold = %v, want 0.5", embed.threshold)
	}
	if got := embed.eloFor(0.5); got < 799 || got > 801 {
		t.Fatalf("embedding elo at threshold = %v, want ~800", got)
	}
	if got := embed.eloFor(1); got < 1999 || got > 2001 {
		t.Fatalf("embedding elo at sim=1 = %v, want ~2000", got)
	}

	attn := edgePolicyFor(model.KindAttention, cfg)
	if got := attn.eloFor(0.5); got < 999 || got > 1001 {
		t.Fatalf("attention elo at threshold = %v, want ~1000", got)
	}
	if got := attn.eloFor(1); got < 1999 || got > 2001 {
		t.Fatalf("attention elo at sim=1 = %v, want ~2000", got)
	}

	ffn := edgePolicyFor(model.KindFFN, cfg)
	if ffn.threshold != 0.70 {
		t.Fatalf("FFN threshold = %v, want max(cfg, 0.70) = 0.70", ffn.threshold)
	}
}

// fakeSource is a minimal interfaces.TensorSource for exercising Run end to
// end without a real safetensors file on disk.
type fakeSource struct {
	vocab   map[string]int
	tensors map[string][][]float32
	infos   []interfaces.TensorInfo
}

func (f *fakeSource) Tensors() []interfaces.TensorInfo { return f.infos }

func (f *fakeSource) Matrix(name string) ([][]float32, error) {
	return f.tensors[name], nil
}

func (f *fakeSource) Vocabulary() map[string]int { return f.vocab }

func newFakeSource() *fakeSource {
	embed := [][]float32{
		{1, 0, 0}, // cat
		{1, 0, 0}, // dog: identical direction to cat
		{0, 1, 0}, // bird
		{0, 0, 1}, // fish
	}
	identity := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	return &fakeSource{
		vocab: map[string]int{"cat": 0, "dog": 1, "bird": 2, "fish": 3},
		tensors: map[string][][]float32{
			"embed_tokens.weight":               embed,
			"layers.0.self_attn.q_proj.weight": identity,
		},
		infos: []interfaces.TensorInfo{
			{Name: "embed_tokens.weight", DType: interfaces.DTypeF32, Shape: []int{4, 3}},
			{Name: "layers.0.self_attn.q_proj.weight", DType: interfaces.DTypeF32, Shape: []int{3, 3}},
		},
	}
}

func TestExtractorRunEndToEnd(t *testing.T) {
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer s.Close()

	cfg := config.Defaults()
	cfg.EmbeddingSimilarityThreshold = 0.5
	cfg.MaxNeighborsPerToken = 5
	cfg.BlockSize = 2

	source := newFakeSource()
	extractor := New(s, source, cfg)
	content := substrate.Content{Hash: hashid.H(hashid.TagContent, []byte("checkpoint")), ContentType: "model"}

	stats, err := extractor.Run(context.Background(), content)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.VocabularySize != 4 {
		t.Fatalf("VocabularySize = %d, want 4", stats.VocabularySize)
	}
	if stats.RelationsWritten == 0 {
		t.Fatal("expected at least one relation from the cat/dog alignment")
	}

	row, err := s.QuerySingle(context.Background(), "SELECT count(*) FROM relation", nil)
	if err != nil {
		t.Fatalf("QuerySingle: %v", err)
	}
	if row == nil || *row == "0" {
		t.Fatalf("expected relation rows persisted, got %v", row)
	}
}

func TestExtractorRunMissingVocabulary(t *testing.T) {
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer s.Close()

	source := &fakeSource{vocab: map[string]int{}, tensors: map[string][][]float32{}, infos: nil}
	extractor := New(s, source, config.Defaults())
	if _, err := extractor.Run(context.Background(), substrate.Content{}); err == nil {
		t.Fatal("expected an error for an empty vocabulary")
	}
}
