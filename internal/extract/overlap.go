package extract

import (
	"fmt"
	"math"

	"github.com/ppiankov/mediator/internal/model"
)

// OverlapResult holds the shared and contested claims across positions
type OverlapResult struct {
	Shared    []string // Claims asserted by every position, first-seen order
	Contested []string // Union minus shared, first-seen order
	Union     []string // Every distinct claim, first-seen order
	Ratio     float64  // |shared| / max(|union|, 1), rounded to 3 decimals
}

// Summary converts the result into its published form
func (o OverlapResult) Summary() model.OverlapSummary {
	return model.OverlapSummary{
		Shared:    nonNil(o.Shared),
		Contested: nonNil(o.Contested),
		Ratio:     o.Ratio,
	}
}

// Overlap computes shared and contested claims across positions.
// Claims are compared as exact strings. A claim repeated inside one
// position counts once for that position.
func Overlap(positions []model.Position) (OverlapResult, error) {
	if len(positions) < 2 {
		return OverlapResult{}, fmt.Errorf("%w: got %d", model.ErrTooFewPositions, len(positions))
	}

	sets := claimSets(positions)

	var union []string
	seen := make(map[string]bool)
	for _, p := range positions {
		for _, c := range p.Claims {
			if !seen[c] {
				seen[c] = true
				union = append(union, c)
			}
		}
	}

	var shared, contested []string
	for _, c := range union {
		if inAll(sets, c) {
			shared = append(shared, c)
		} else {
			contested = append(contested, c)
		}
	}

	denom := len(union)
	if denom < 1 {
		denom = 1
	}

	return OverlapResult{
		Shared:    shared,
		Contested: contested,
		Union:     union,
		Ratio:     round3(float64(len(shared)) / float64(denom)),
	}, nil
}

// Candidates promotes shared claims and strict-majority contested claims.
// Shared candidates come first, then majority candidates, each in
// first-seen order. Ties (exactly half) are not promoted.
func Candidates(positions []model.Position, overlap OverlapResult) []model.Candidate {
	candidates := make([]model.Candidate, 0, len(overlap.Shared))
	for _, c := range overlap.Shared {
		candidates = append(candidates, model.Candidate{
			Proposition: c,
			Source:      model.SourceShared,
			Confidence:  1.0,
		})
	}

	total := len(positions)
	if total == 0 {
		return candidates
	}

	sets := claimSets(positions)
	for _, c := range overlap.Contested {
		count := 0
		for _, set := range sets {
			if set[c] {
				count++
			}
		}
		if count*2 > total {
			candidates = append(candidates, model.Candidate{
				Proposition: c,
				Source:      model.SourceMajority,
				Confidence:  round3(float64(count) / float64(total)),
			})
		}
	}

	return candidates
}

// SharedPropositions returns the propositions of shared-source candidates only
func SharedPropositions(candidates []model.Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.Source == model.SourceShared {
			out = append(out, c.Proposition)
		}
	}
	return out
}

func claimSets(positions []model.Position) []map[string]bool {
	sets := make([]map[string]bool, len(positions))
	for i, p := range positions {
		set := make(map[string]bool, len(p.Claims))
		for _, c := range p.Claims {
			set[c] = true
		}
		sets[i] = set
	}
	return sets
}

func inAll(sets []map[string]bool, claim string) bool {
	for _, set := range sets {
		if !set[claim] {
			return false
		}
	}
	return true
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
