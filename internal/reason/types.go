// Package reason implements the OODA/BDI-style reasoning orchestrator:
// Observe, Orient, Decide, Act (Tree of Thought), Reflect (Reflexion),
// then response assembly. spec.md §4.9.
package reason

import (
	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/search"
	"github.com/hartonomous/substrate/internal/substrate"
)

// IntentionKind distinguishes the three sources Decide draws intentions
// from, each with its own priority band.
type IntentionKind string

const (
	IntentionSubProblem IntentionKind = "sub_problem"
	IntentionBridge     IntentionKind = "bridge"
	IntentionKnownFact  IntentionKind = "known_fact"
)

// Intention is one candidate goal for the Act phase to chase: go from
// whatever node the current hypothesis chain is at, toward Goal.
type Intention struct {
	Kind       IntentionKind
	Goal       substrate.Hash
	Priority   float64
	Difficulty float64 // only meaningful for IntentionSubProblem
}

// OrientResult holds the Gödel-style helper outputs per seed. spec.md
// §4.9 phase 2.
type OrientResult struct {
	Solvable     bool
	SubProblems  map[substrate.Hash][]substrate.Hash
	Gaps         map[substrate.Hash][]substrate.Hash
	KnownFacts   map[substrate.Hash][]graph.Edge
}

// Hypothesis is one Tree-of-Thought beam's resolved chain of paths.
type Hypothesis struct {
	Paths      []search.Result
	Intentions []Intention
	Quality    float64
}

// Result is the orchestrator's final output. spec.md §4.9 phase 6 and
// §7's degraded-result recovery.
type Result struct {
	Response            string
	Confidence           float64
	Hypotheses            []Hypothesis
	ReasoningTrace        []string
}
