package model

// Position is one party's named set of claims about a disputed domain
type Position struct {
	Agent  string   `json:"agent"`  // Submitting agent identifier
	Claims []string `json:"claims"` // Claims compared as opaque exact strings
}

// CandidateSource classifies how a candidate proposition was promoted
type CandidateSource string

const (
	SourceShared   CandidateSource = "shared"   // Asserted by every position
	SourceMajority CandidateSource = "majority" // Asserted by a strict majority of positions
)

// Candidate is a proposition eligible for the canonical record
type Candidate struct {
	Proposition string          `json:"proposition"`
	Source      CandidateSource `json:"source"`
	Confidence  float64         `json:"confidence"` // 1.0 for shared, count/total for majority
}

// StressStatus is the stress-test classification of a candidate
type StressStatus string

const (
	StressPass   StressStatus = "PASSES"
	StressReview StressStatus = "REVIEW"
)

// StressResult records the probes attached to a candidate and its classification
type StressResult struct {
	Proposition string       `json:"proposition"`
	Probes      []string     `json:"probes"`
	Status      StressStatus `json:"status"`
}

// GapSeverity indicates how much a gap weighs against freezing
type GapSeverity string

const (
	SeverityLow      GapSeverity = "LOW"
	SeverityCritical GapSeverity = "CRITICAL"
)

// Gap is a weakness registered against a candidate during the stress test
type Gap struct {
	Proposition string      `json:"proposition"`
	Description string      `json:"gap"`
	Severity    GapSeverity `json:"severity"`
}

// GapMap summarizes the gaps found by the stress test.
// CanonReady holds exactly when CriticalCount is zero.
type GapMap struct {
	TotalGaps     int   `json:"total_gaps"`
	CriticalCount int   `json:"critical_gaps"`
	Gaps          []Gap `json:"gaps"`
	CanonReady    bool  `json:"canon_ready"`
}

// Declarations are the three jurisdictional declarations carried by a mediation
type Declarations struct {
	ScopeBoundary    string `json:"scope_boundary"`
	FiduciaryMoment  string `json:"fiduciary_moment"`
	EvidenceStandard string `json:"evidence_standard"`
}

// MediationInput is the request accepted by the canonization pipeline
type MediationInput struct {
	Domain    string         `json:"domain"`
	Name      string         `json:"name,omitempty"` // Candidate canon name, defaults to Domain
	Type      string         `json:"type,omitempty"` // Input type, "A" or "B" (defaults to "B")
	Positions []Position     `json:"positions"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Declarations
}
