package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules holds every keyword table used by the classifiers.
// All matching against these tables is case-insensitive substring matching
// unless a classifier states otherwise.
type Rules struct {
	// Citation recall
	StopWords   []string `yaml:"stop_words"`
	DomainTerms []string `yaml:"domain_terms"` // Weighted x3 in term frequencies

	// Naming triplet
	MechanismWords    []string `yaml:"mechanism_words"`    // Function test passes on any of these
	StructureWords    []string `yaml:"structure_words"`    // Marks a MechanismOutcome name
	AspirationalWords []string `yaml:"aspirational_words"` // Invariant test fails on any of these
	ContestedWords    []string `yaml:"contested_words"`    // Agreement test fails on any of these

	// Positional independence
	PositionalSignals []string `yaml:"positional_signals"`
	MinGroundsLength  int      `yaml:"min_grounds_length"`

	// Domain-term graph of prior canons consulted by the ontology check
	Ontology []OntologyNode `yaml:"ontology"`
}

// OntologyNode links a prior canon to the domain phrase it governs
type OntologyNode struct {
	Canon  string `yaml:"canon"`
	Domain string `yaml:"domain"`
}

// DefaultRules returns the built-in rule tables
func DefaultRules() *Rules {
	return &Rules{
		StopWords: []string{
			"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
			"of", "with", "by", "from", "is", "are", "was", "were", "be", "been",
			"has", "have", "had", "do", "does", "did", "will", "would", "can",
			"could", "should", "may", "might", "must", "shall", "not", "no", "nor",
			"it", "its", "this", "that", "these", "those", "they", "them", "their",
			"we", "us", "our", "you", "your", "he", "she", "his", "her", "who",
			"what", "when", "where", "which", "how", "if", "than", "then", "so",
			"as", "any", "all", "each", "both", "only", "also", "more", "most",
			"such", "same", "other", "into", "out", "up", "about", "over", "after",
			"under", "between", "through", "during", "before", "without", "within",
			"whether", "either", "neither", "once", "while", "because",
			"there", "here", "very", "just", "still", "even", "well", "now",
		},
		DomainTerms: []string{
			"jurisdiction", "custody", "movement", "flow", "flows", "transport",
			"compliance", "obligation", "mediation", "canon", "canonical", "frozen",
			"invariant", "invariants", "epistemic", "agent", "agents", "claim",
			"claims", "provenance", "citation", "version", "operator", "decay",
			"debt", "liability", "precedent", "escrow", "sovereignty", "hardened",
			"propagation", "stare", "decisis", "naming", "protocol", "ontology",
		},
		MechanismWords: []string{"triggered", "driven", "activated", "induced", "based"},
		StructureWords: []string{"triggered", "driven", "activated", "induced"},
		AspirationalWords: []string{
			"policy", "sustainable", "responsible", "ethical",
			"better", "improved", "enhanced", "optimal", "best",
		},
		ContestedWords: []string{
			"good", "bad", "fair", "just", "right", "wrong",
			"safe", "dangerous", "harmful", "beneficial",
		},
		PositionalSignals: []string{
			"i didn't intend", "i submitted", "my position", "i meant",
			"i said", "that was my claim", "i didn't mean", "i was trying to",
			"i never said", "my argument was", "i believe i", "i thought i",
			"on behalf of", "i am the", "representing",
			"as the maker", "as the seller", "as the buyer", "as the owner",
			"my intention was", "i never meant",
		},
		MinGroundsLength: 30,
		Ontology: []OntologyNode{
			{Canon: "FlowTriggeredJurisdiction", Domain: "regulatory jurisdiction over high-risk flows"},
			{Canon: "CustodyAttachedObligation", Domain: "custody obligation during transport"},
		},
	}
}

// LoadRules reads rule tables from a YAML file. Tables absent from the file
// keep their built-in defaults. An empty path returns the defaults.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if rules.MinGroundsLength <= 0 {
		rules.MinGroundsLength = 30
	}
	return rules, nil
}
