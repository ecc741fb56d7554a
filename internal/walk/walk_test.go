package walk

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/hartonomous/substrate/internal/cache"
	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/hashid"
	"github.com/hartonomous/substrate/internal/ingest"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/internal/substrate"
)

func openArena(t *testing.T) (*store.Store, *graph.Arena) {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	c, err := cache.New(1024)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	return s, graph.NewArena(s, c)
}

// TestMobyDickBridgeWalk is spec.md §8 scenario 2: after ingesting "Call me
// Ishmael. Captain Ahab commanded the Pequod.", walking from "Captain"
// should rank "Ahab" as the top candidate.
func TestMobyDickBridgeWalk(t *testing.T) {
	s, arena := openArena(t)
	ctx := context.Background()

	content := substrate.Content{Hash: hashid.H(hashid.TagContent, []byte("moby")), ContentType: "text"}
	if _, err := ingest.Ingest(ctx, s, content, "Call me Ishmael. Captain Ahab commanded the Pequod."); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	captain := ingest.ComposeCandidate("captain")
	ahab := ingest.ComposeCandidate("ahab")

	cfg := config.Defaults()
	eng := New(arena, cfg)

	cands, err := eng.candidates(ctx, arena, captain.Hash)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cands) == 0 {
		t.Fatal("expected at least one candidate from 'captain'")
	}

	minElo, maxElo, maxObs := candidateBounds(cands)
	st := NewState(captain.Hash, geometry.S3Point{}, 1.0, 8)

	var topCand substrate.Candidate
	topScore := -1.0
	for _, c := range cands {
		sc := score(c, minElo, maxElo, maxObs, st, cfg)
		if sc > topScore {
			topScore = sc
			topCand = c
		}
	}

	if topCand.CompositionID != ahab.Hash {
		t.Fatalf("top candidate from 'captain' = %q, want 'ahab'", topCand.Text)
	}

	for _, c := range cands {
		if c.CompositionID != ahab.Hash && c.TotalObs > topCand.TotalObs {
			t.Fatalf("candidate %q has higher total_obs than the chosen top candidate", c.Text)
		}
	}
}

func TestSoftmaxSumsToOne(t *testing.T) {
	cands := []scored{
		{Candidate: substrate.Candidate{Text: "a"}, score: 0.9},
		{Candidate: substrate.Candidate{Text: "b"}, score: 0.4},
		{Candidate: substrate.Candidate{Text: "c"}, score: 0.1},
	}
	probs := softmax(cands, 0.5)
	var sum float64
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("softmax probabilities sum to %v, want 1", sum)
	}
}

func TestSoftmaxZeroTemperatureIsGreedy(t *testing.T) {
	cands := []scored{
		{Candidate: substrate.Candidate{Text: "a"}, score: 0.2},
		{Candidate: substrate.Candidate{Text: "b"}, score: 0.9},
	}
	probs := softmax(cands, 0)
	if probs[1] != 1 || probs[0] != 0 {
		t.Fatalf("greedy softmax = %v, want one-hot on index 1", probs)
	}
}

func TestTemperatureClamped(t *testing.T) {
	cfg := config.Defaults()
	cfg.BaseTemp = 1.0
	cfg.MinTemp = 0.2
	cfg.EnergyAlpha = 0.5

	if got := temperature(cfg, 0); got != cfg.BaseTemp {
		t.Fatalf("temperature(energy=0) = %v, want base_temp %v", got, cfg.BaseTemp)
	}
	if got := temperature(cfg, 10); got != cfg.MinTemp {
		t.Fatalf("temperature(energy=10) = %v, want min_temp %v", got, cfg.MinTemp)
	}
}

func TestAssembleCapitalizesAndPunctuates(t *testing.T) {
	got := Assemble([]string{"call", "me", "ishmael"})
	if got != "Call me ishmael." {
		t.Fatalf("Assemble = %q, want %q", got, "Call me ishmael.")
	}
}

func TestAssembleGluesPunctuation(t *testing.T) {
	got := Assemble([]string{"hello", "world", "!"})
	if got != "Hello world!" {
		t.Fatalf("Assemble = %q, want %q", got, "Hello world!")
	}
}

func TestAssembleKeepsExistingTerminator(t *testing.T) {
	got := Assemble([]string{"already", "done", "?"})
	if got != "Already done?" {
		t.Fatalf("Assemble = %q, want %q", got, "Already done?")
	}
}

func TestEngineStepTrapsOnIsolatedNode(t *testing.T) {
	_, arena := openArena(t)
	cfg := config.Defaults()
	eng := New(arena, cfg)

	isolated := ingest.ComposeCandidate("zzzznonexistent")
	st := NewState(isolated.Hash, geometry.S3Point{}, 1.0, 8)
	reason, err := eng.Step(context.Background(), st, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if reason != ReasonTrapped {
		t.Fatalf("expected Trapped on an isolated composition with no edges, got %v", reason)
	}
}

func TestEngineStepOutOfEnergy(t *testing.T) {
	_, arena := openArena(t)
	cfg := config.Defaults()
	eng := New(arena, cfg)

	isolated := ingest.ComposeCandidate("zzzznonexistent")
	st := NewState(isolated.Hash, geometry.S3Point{}, 0, 8)
	reason, err := eng.Step(context.Background(), st, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if reason != ReasonOutOfEnergy {
		t.Fatalf("expected OutOfEnergy at energy=0, got %v", reason)
	}
}
