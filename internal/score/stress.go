package score

import (
	"fmt"

	"github.com/ppiankov/mediator/internal/model"
)

// majorityGap is the description registered for majority-only candidates
const majorityGap = "Majority-only — not universally shared"

// StressReport is the output of the adversarial stress test
type StressReport struct {
	Domain   string               `json:"domain"`
	Results  []model.StressResult `json:"results"`
	Gaps     []model.Gap          `json:"gaps"`
	Critical []model.Gap          `json:"critical_gaps"`
}

// StressTester classifies candidates and records gaps.
//
// Policy: shared candidates pass; majority candidates are flagged for
// review with exactly one LOW gap. No candidate produces a CRITICAL gap.
type StressTester struct{}

// NewStressTester creates a new stress tester
func NewStressTester() *StressTester {
	return &StressTester{}
}

// Probes returns the three adversarial probe questions for a proposition.
// They document the test and are not executed independently.
func Probes(proposition string) []string {
	return []string{
		fmt.Sprintf("Does '%s' hold against a hostile actor?", proposition),
		fmt.Sprintf("Does '%s' hold at jurisdictional boundaries?", proposition),
		fmt.Sprintf("Does '%s' hold when scope is narrowed by regulation?", proposition),
	}
}

// Run stress-tests every candidate
func (s *StressTester) Run(candidates []model.Candidate, domain string) StressReport {
	report := StressReport{
		Domain:   domain,
		Results:  make([]model.StressResult, 0, len(candidates)),
		Gaps:     []model.Gap{},
		Critical: []model.Gap{},
	}

	for _, c := range candidates {
		status := model.StressPass
		if c.Source != model.SourceShared {
			status = model.StressReview
			report.Gaps = append(report.Gaps, model.Gap{
				Proposition: c.Proposition,
				Description: majorityGap,
				Severity:    model.SeverityLow,
			})
		}

		report.Results = append(report.Results, model.StressResult{
			Proposition: c.Proposition,
			Probes:      Probes(c.Proposition),
			Status:      status,
		})
	}

	for _, g := range report.Gaps {
		if g.Severity == model.SeverityCritical {
			report.Critical = append(report.Critical, g)
		}
	}

	return report
}

// BuildGapMap summarizes a stress report. The map is canon-ready exactly
// when it holds no critical gaps.
func BuildGapMap(report StressReport) model.GapMap {
	return GapMapFromGaps(report.Gaps)
}

// GapMapFromGaps builds a gap map from an arbitrary gap list
func GapMapFromGaps(gaps []model.Gap) model.GapMap {
	critical := 0
	for _, g := range gaps {
		if g.Severity == model.SeverityCritical {
			critical++
		}
	}
	if gaps == nil {
		gaps = []model.Gap{}
	}
	return model.GapMap{
		TotalGaps:     len(gaps),
		CriticalCount: critical,
		Gaps:          gaps,
		CanonReady:    critical == 0,
	}
}
