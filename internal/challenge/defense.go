package challenge

import (
	"fmt"

	"github.com/ppiankov/mediator/internal/model"
)

// DefenseAgent is the agent id the canon defends itself under
func DefenseAgent(canonHash string) string {
	return "canon-defense-" + prefix(canonHash, 8)
}

// DefenseClaims is the fixed defense of a frozen canon: procedural
// legitimacy, no overturn without new evidence, scope fidelity and
// evidentiary adequacy.
func DefenseClaims(canonHash string) []string {
	return []string{
		fmt.Sprintf("The original canon (hash: %s...) was produced through adversarial stress testing and survived origin-stripped evaluation.", prefix(canonHash, 16)),
		"A canon that has been frozen cannot be overturned without new evidence that was unavailable at the time of the original mediation.",
		"The scope boundary of the original canon is precisely defined and was not exceeded in the mediation that produced it.",
		"The oracle data used to anchor the canon's invariant was the best available machine-readable price signal at the moment of commitment.",
	}
}

// SyntheticInput builds the mediation that decides a challenge. The
// resulting canon is named after the challenged domain and links back to
// the original through its supersedes metadata.
func SyntheticInput(c model.Challenge) model.MediationInput {
	claims := append([]string{}, c.ChallengerClaims...)
	if c.NewEvidence != "" {
		claims = append(claims, c.NewEvidence)
	}

	scope := c.ScopeArgument
	if scope == "" {
		scope = fmt.Sprintf("Governs the validity of canon %s... in domain: %s", prefix(c.CanonHash, 16), c.CanonDomain)
	}

	return model.MediationInput{
		Domain: "canon challenge: " + c.CanonDomain,
		Name:   c.CanonDomain,
		Type:   "A",
		Positions: []model.Position{
			{Agent: c.ChallengerID, Claims: claims},
			{Agent: DefenseAgent(c.CanonHash), Claims: DefenseClaims(c.CanonHash)},
		},
		Metadata: map[string]any{
			"challenge_id":   c.ID,
			"canon_hash":     c.CanonHash,
			"challenge_type": "canon_challenge",
			"supersedes":     c.CanonHash,
		},
		Declarations: model.Declarations{
			ScopeBoundary:    scope,
			FiduciaryMoment:  "The moment the challenge produces a FROZEN invariant that contradicts the original canon's core invariant.",
			EvidenceStandard: "A challenge is upheld when the new evidence produces a shared invariant that contradicts the original canon and survives the same stress test.",
		},
	}
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
