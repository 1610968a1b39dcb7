package model

// RecallSchema identifies the citation-recall report format
const RecallSchema = "CitationRecall/1.0"

// IndexEntry is the indexed form of one previously frozen canon document
type IndexEntry struct {
	File       string         `json:"file"`
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	DOI        string         `json:"doi,omitempty"`
	Scope      string         `json:"scope"`
	Invariants []string       `json:"invariants"`
	Fiduciary  string         `json:"fiduciary"`
	Evidence   string         `json:"evidence"`
	TF         map[string]int `json:"tf"` // Term frequencies, domain terms weighted
}

// RecallMatch is a scored index entry surfaced as prior art
type RecallMatch struct {
	Canon             string   `json:"canon"`
	File              string   `json:"file"`
	Status            string   `json:"status"`
	DOI               string   `json:"doi,omitempty"`
	Score             float64  `json:"score"`
	Scope             string   `json:"scope"`
	MatchedInvariants []string `json:"matched_invariants"`
}

// RecallReport is the result of a citation-recall query.
// CanonicalDebtRisk is advisory and never blocks a mediation.
type RecallReport struct {
	Schema            string        `json:"schema"`
	Domain            string        `json:"domain"`
	QueryTerms        []string      `json:"query_terms"`
	Matches           []RecallMatch `json:"matches"`
	CanonicalDebtRisk bool          `json:"canonical_debt_risk"`
	DebtRiskMessage   string        `json:"debt_risk_message"`
}
