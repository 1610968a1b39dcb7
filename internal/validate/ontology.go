package validate

import (
	"strings"

	"github.com/ppiankov/mediator/internal/model"
)

// OntologyChecker checks candidate invariants against prior canons.
// Implementations report conflicts per invariant; a conflict blocks freezing.
type OntologyChecker interface {
	Name() string
	Check(invariants []string, domain string) model.OntologyValidation
}

// NoConflictChecker is the default checker. It never reports a conflict.
type NoConflictChecker struct{}

// Name returns the checker name
func (NoConflictChecker) Name() string { return "no-conflict" }

// Check passes every invariant
func (NoConflictChecker) Check(invariants []string, domain string) model.OntologyValidation {
	results := make([]model.OntologyResult, 0, len(invariants))
	for _, inv := range invariants {
		results = append(results, model.OntologyResult{Invariant: inv, Status: "PASSES"})
	}
	return model.OntologyValidation{
		Checker:        "no-conflict",
		InvariantCount: len(invariants),
		Results:        results,
		Passed:         true,
	}
}

// GraphChecker looks up the prior canon related to each invariant in a
// domain-term graph. A canon is related when any word of its domain phrase
// occurs in the invariant. Relations are recorded, never treated as conflicts.
type GraphChecker struct {
	nodes []model.OntologyNode
}

// NewGraphChecker creates a checker over the given ontology nodes
func NewGraphChecker(nodes []model.OntologyNode) *GraphChecker {
	return &GraphChecker{nodes: nodes}
}

// Name returns the checker name
func (g *GraphChecker) Name() string { return "domain-graph" }

// Check records related canons for every invariant
func (g *GraphChecker) Check(invariants []string, domain string) model.OntologyValidation {
	results := make([]model.OntologyResult, 0, len(invariants))
	for _, inv := range invariants {
		results = append(results, model.OntologyResult{
			Invariant:    inv,
			Conflict:     false,
			RelatedCanon: g.related(inv),
			Status:       "PASSES",
		})
	}

	passed := true
	for _, r := range results {
		if r.Conflict {
			passed = false
		}
	}

	return model.OntologyValidation{
		Checker:        g.Name(),
		InvariantCount: len(invariants),
		Results:        results,
		Passed:         passed,
	}
}

func (g *GraphChecker) related(invariant string) string {
	lower := strings.ToLower(invariant)
	for _, node := range g.nodes {
		for _, word := range strings.Fields(strings.ToLower(node.Domain)) {
			if strings.Contains(lower, word) {
				return node.Canon
			}
		}
	}
	return ""
}
