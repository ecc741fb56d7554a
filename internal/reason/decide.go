package reason

import (
	"sort"

	"github.com/hartonomous/substrate/internal/substrate"
)

const maxIntentions = 8

const (
	priorityBridge    = 0.8
	priorityKnownFact = 0.5
)

// Decide builds the priority list of intentions from Orient's output:
// solvable sub-problems, cross-seed bridges, and known-fact background
// intentions, sorted by priority and capped at maxIntentions. spec.md
// §4.9 phase 3.
func Decide(orient OrientResult, seeds []substrate.Hash) []Intention {
	var intentions []Intention

	for _, seed := range seeds {
		chain := orient.SubProblems[seed]
		for depth, node := range chain {
			difficulty := float64(depth + 1)
			if difficulty > 10 {
				difficulty = 10
			}
			intentions = append(intentions, Intention{
				Kind:       IntentionSubProblem,
				Goal:       node,
				Priority:   1 - difficulty/10,
				Difficulty: difficulty,
			})
		}
	}

	for i := 0; i < len(seeds); i++ {
		for j := i + 1; j < len(seeds); j++ {
			intentions = append(intentions, Intention{
				Kind:     IntentionBridge,
				Goal:     seeds[j],
				Priority: priorityBridge,
			})
		}
	}

	for _, seed := range seeds {
		facts := orient.KnownFacts[seed]
		if len(facts) == 0 {
			continue
		}
		intentions = append(intentions, Intention{
			Kind:     IntentionKnownFact,
			Goal:     facts[0].Target,
			Priority: priorityKnownFact,
		})
	}

	sort.SliceStable(intentions, func(i, j int) bool { return intentions[i].Priority > intentions[j].Priority })
	if len(intentions) > maxIntentions {
		intentions = intentions[:maxIntentions]
	}
	return intentions
}
