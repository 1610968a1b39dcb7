package recall

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/mediator/internal/extract"
	"github.com/ppiankov/mediator/internal/model"
)

const (
	// DefaultTopN is the number of matches returned when none is requested
	DefaultTopN = 3

	maxQueryTerms        = 20
	maxMatchedInvariants = 2
	termWeight           = 0.1
	claimTermWeight      = 2.0
)

// Recall surfaces indexed canons relevant to a new mediation.
// The report is advisory. A debt risk never blocks anything.
func (idx *Index) Recall(ctx context.Context, domain string, claims []string, topN int) (*model.RecallReport, error) {
	entries, err := idx.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	return Rank(entries, idx.terms, domain, claims, topN), nil
}

// Rank scores entries against a domain and its claims and builds the report
func Rank(entries []model.IndexEntry, terms *extract.TermExtractor, domain string, claims []string, topN int) *model.RecallReport {
	if topN <= 0 {
		topN = DefaultTopN
	}

	queryTerms := QueryTerms(terms, domain, claims)

	matches := make([]model.RecallMatch, 0)
	for _, entry := range entries {
		score := Score(entry, terms, queryTerms, claims)
		if score <= 0 {
			continue
		}
		matches = append(matches, model.RecallMatch{
			Canon:             entry.Name,
			File:              entry.File,
			Status:            entry.Status,
			DOI:               entry.DOI,
			Score:             score,
			Scope:             entry.Scope,
			MatchedInvariants: matchedInvariants(entry.Invariants, queryTerms),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topN {
		matches = matches[:topN]
	}

	frozen := 0
	for _, m := range matches {
		if m.Status == "FROZEN" || m.Status == "frozen" {
			frozen++
		}
	}

	report := &model.RecallReport{
		Schema:            model.RecallSchema,
		Domain:            domain,
		QueryTerms:        queryTerms,
		Matches:           matches,
		CanonicalDebtRisk: frozen > 0,
		DebtRiskMessage:   "No overlapping frozen canons detected.",
	}
	if len(report.QueryTerms) > maxQueryTerms {
		report.QueryTerms = report.QueryTerms[:maxQueryTerms]
	}
	if frozen > 0 {
		report.DebtRiskMessage = fmt.Sprintf(
			"This domain overlaps with %d frozen canon(s). Cite them in your submission to avoid canonical debt.", frozen)
	}
	return report
}

// QueryTerms returns the deduplicated terms of the domain followed by the
// terms of each claim, in order of first appearance
func QueryTerms(terms *extract.TermExtractor, domain string, claims []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(text string) {
		for _, t := range terms.Extract(text) {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	add(domain)
	for _, c := range claims {
		add(c)
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// Score rates one entry. Each query term present in the entry adds a tenth
// of its weighted frequency. Each claim with at least one term occurring in
// the entry's invariants, scope or fiduciary text adds 2.0. Rounded to two
// decimals.
func Score(entry model.IndexEntry, terms *extract.TermExtractor, queryTerms []string, claims []string) float64 {
	score := 0.0
	for _, t := range queryTerms {
		if tf, ok := entry.TF[t]; ok {
			score += float64(tf) * termWeight
		}
	}

	parts := make([]string, 0, len(entry.Invariants)+2)
	parts = append(parts, entry.Invariants...)
	parts = append(parts, entry.Scope, entry.Fiduciary)
	canonText := strings.ToLower(strings.Join(parts, " "))

	for _, claim := range claims {
		for _, ct := range terms.Extract(claim) {
			if strings.Contains(canonText, ct) {
				score += claimTermWeight
				break
			}
		}
	}

	return math.Round(score*100) / 100
}

func matchedInvariants(invariants []string, queryTerms []string) []string {
	matched := []string{}
	for _, inv := range invariants {
		lower := strings.ToLower(inv)
		for _, t := range queryTerms {
			if strings.Contains(lower, t) {
				matched = append(matched, inv)
				break
			}
		}
		if len(matched) == maxMatchedInvariants {
			break
		}
	}
	return matched
}
