package extract

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ppiankov/mediator/internal/model"
)

func TestOverlap_TwoPositions(t *testing.T) {
	positions := []model.Position{
		{Agent: "a", Claims: []string{"X", "Y"}},
		{Agent: "b", Claims: []string{"X", "Z"}},
	}

	overlap, err := Overlap(positions)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !reflect.DeepEqual(overlap.Shared, []string{"X"}) {
		t.Errorf("Expected shared [X], got %v", overlap.Shared)
	}
	if !reflect.DeepEqual(overlap.Contested, []string{"Y", "Z"}) {
		t.Errorf("Expected contested [Y Z], got %v", overlap.Contested)
	}
	if overlap.Ratio != 0.333 {
		t.Errorf("Expected ratio 0.333, got %v", overlap.Ratio)
	}

	candidates := Candidates(positions, overlap)
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	want := model.Candidate{Proposition: "X", Source: model.SourceShared, Confidence: 1.0}
	if candidates[0] != want {
		t.Errorf("Expected %+v, got %+v", want, candidates[0])
	}
}

func TestOverlap_TooFewPositions(t *testing.T) {
	tests := []struct {
		desc      string
		positions []model.Position
	}{
		{desc: "nil positions", positions: nil},
		{desc: "single position", positions: []model.Position{{Agent: "a", Claims: []string{"X"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := Overlap(tt.positions)
			if !errors.Is(err, model.ErrTooFewPositions) {
				t.Errorf("Expected ErrTooFewPositions, got %v", err)
			}
		})
	}
}

func TestCandidates_MajorityPromotion(t *testing.T) {
	positions := []model.Position{
		{Agent: "a", Claims: []string{"S", "M", "T"}},
		{Agent: "b", Claims: []string{"S", "M"}},
		{Agent: "c", Claims: []string{"S", "T", "Q"}},
		{Agent: "d", Claims: []string{"S", "M"}},
	}

	overlap, err := Overlap(positions)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	candidates := Candidates(positions, overlap)

	// S shared, M 3/4 majority, T 2/4 tie excluded, Q 1/4 excluded
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d: %+v", len(candidates), candidates)
	}
	if candidates[0].Proposition != "S" || candidates[0].Source != model.SourceShared {
		t.Errorf("Expected shared S first, got %+v", candidates[0])
	}
	if candidates[1].Proposition != "M" || candidates[1].Source != model.SourceMajority {
		t.Errorf("Expected majority M second, got %+v", candidates[1])
	}
	if candidates[1].Confidence != 0.75 {
		t.Errorf("Expected confidence 0.75, got %v", candidates[1].Confidence)
	}

	shared := SharedPropositions(candidates)
	if !reflect.DeepEqual(shared, []string{"S"}) {
		t.Errorf("Expected only shared propositions, got %v", shared)
	}
}

func TestOverlap_SetProperties(t *testing.T) {
	positionSets := [][]model.Position{
		{
			{Agent: "a", Claims: []string{"1", "2", "3"}},
			{Agent: "b", Claims: []string{"3", "2", "4"}},
			{Agent: "c", Claims: []string{"2", "5"}},
		},
		{
			{Agent: "a", Claims: []string{}},
			{Agent: "b", Claims: []string{}},
		},
		{
			{Agent: "a", Claims: []string{"dup", "dup", "x"}},
			{Agent: "b", Claims: []string{"dup"}},
			{Agent: "c", Claims: []string{"x", "dup"}},
		},
	}

	for i, positions := range positionSets {
		overlap, err := Overlap(positions)
		if err != nil {
			t.Fatalf("set %d: unexpected error %v", i, err)
		}

		union := make(map[string]bool)
		for _, c := range overlap.Union {
			union[c] = true
		}
		shared := make(map[string]bool)
		for _, c := range overlap.Shared {
			if !union[c] {
				t.Errorf("set %d: shared claim %q not in union", i, c)
			}
			shared[c] = true
		}
		for _, c := range overlap.Contested {
			if shared[c] {
				t.Errorf("set %d: contested claim %q is also shared", i, c)
			}
		}
		if len(overlap.Shared)+len(overlap.Contested) != len(overlap.Union) {
			t.Errorf("set %d: contested is not union minus shared", i)
		}

		majority := 0
		for _, c := range overlap.Contested {
			count := 0
			for _, p := range positions {
				for _, pc := range uniq(p.Claims) {
					if pc == c {
						count++
					}
				}
			}
			if count*2 > len(positions) {
				majority++
			}
		}
		candidates := Candidates(positions, overlap)
		if len(candidates) != len(overlap.Shared)+majority {
			t.Errorf("set %d: expected %d candidates, got %d", i, len(overlap.Shared)+majority, len(candidates))
		}
	}
}

func uniq(claims []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range claims {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
