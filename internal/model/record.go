package model

import "time"

// DisputeStatus is the lifecycle state of an agent-to-agent dispute
type DisputeStatus string

const (
	DisputeOpen      DisputeStatus = "open"
	DisputeMediating DisputeStatus = "mediating"
	DisputeResolved  DisputeStatus = "resolved"
	DisputeError     DisputeStatus = "error"
)

// Dispute is a persistent two-party mediation request.
// It is created by the first agent and completed by a second, distinct agent.
type Dispute struct {
	ID        string           `json:"id"`
	Created   time.Time        `json:"created"`
	Domain    string           `json:"domain"`
	Metadata  map[string]any   `json:"metadata"`
	Positions []Position       `json:"positions"`
	Status    DisputeStatus    `json:"status"`
	Result    *MediationResult `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	Declarations
}

// Terminal reports whether the dispute can no longer transition
func (d *Dispute) Terminal() bool {
	return d.Status == DisputeResolved || d.Status == DisputeError
}

// HasAgent reports whether agent already holds a position on the dispute
func (d *Dispute) HasAgent(agent string) bool {
	for _, p := range d.Positions {
		if p.Agent == agent {
			return true
		}
	}
	return false
}

// Validity is the admissibility decision of a challenge
type Validity string

const (
	ValidityAccepted Validity = "ACCEPTED"
	ValidityBlocked  Validity = "BLOCKED"
)

// ChallengeStatus is the lifecycle state of a canon challenge
type ChallengeStatus string

const (
	ChallengeValidating ChallengeStatus = "validating"
	ChallengeRunning    ChallengeStatus = "running"
	ChallengeBlocked    ChallengeStatus = "blocked"
	ChallengeResolved   ChallengeStatus = "resolved"
	ChallengeError      ChallengeStatus = "error"
)

// ChallengeOutcome is the final result of a canon challenge
type ChallengeOutcome string

const (
	OutcomeUpheld  ChallengeOutcome = "UPHELD"
	OutcomeFailed  ChallengeOutcome = "FAILED"
	OutcomeBlocked ChallengeOutcome = "BLOCKED"
	OutcomeError   ChallengeOutcome = "ERROR"
)

// Challenge is a merit-based attack on a frozen canon
type Challenge struct {
	ID                string           `json:"id"`
	Created           time.Time        `json:"created"`
	ChallengerID      string           `json:"challenger_id"`
	CanonHash         string           `json:"canon_hash"`
	CanonDomain       string           `json:"canon_domain"`
	Grounds           string           `json:"grounds"`
	NewEvidence       string           `json:"new_evidence"`
	ScopeArgument     string           `json:"scope_argument"`
	ChallengerClaims  []string         `json:"challenger_claims"`
	Validity          Validity         `json:"validity,omitempty"`
	ValidityReason    string           `json:"validity_reason,omitempty"`
	Status            ChallengeStatus  `json:"status"`
	Outcome           ChallengeOutcome `json:"outcome,omitempty"`
	ResultCanonHash   string           `json:"result_canon_hash,omitempty"`
	ResultCanonStatus ArtifactStatus   `json:"result_canon_status,omitempty"`
	Result            *MediationResult `json:"cmp_result,omitempty"`
	Error             string           `json:"error,omitempty"`
}

// Terminal reports whether the challenge can no longer transition
func (c *Challenge) Terminal() bool {
	switch c.Status {
	case ChallengeBlocked, ChallengeResolved, ChallengeError:
		return true
	}
	return false
}

// ChallengeSummary counts challenge outcomes across the record
type ChallengeSummary struct {
	Total   int `json:"total"`
	Upheld  int `json:"upheld"`
	Failed  int `json:"failed"`
	Blocked int `json:"blocked"`
	Errored int `json:"errored"`
}
