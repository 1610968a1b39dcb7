package pipeline

import "github.com/ppiankov/mediator/internal/model"

// FreezeDecision is the outcome of the freeze gate
type FreezeDecision struct {
	Status model.ArtifactStatus
	Reason string
}

// Frozen reports whether the decision froze the artifact
func (d FreezeDecision) Frozen() bool {
	return d.Status == model.StatusFrozen
}

// DecideFreeze applies the freeze gate. An artifact freezes only when the
// gap map is canon-ready and the semantic validator approved it or could
// not be reached. Unavailability is treated as approval so that a
// validator outage never blocks canonization.
func DecideFreeze(gapMap model.GapMap, verdict model.SemanticVerdict) FreezeDecision {
	if !gapMap.CanonReady {
		return FreezeDecision{
			Status: model.StatusDraft,
			Reason: "gap map has critical gaps",
		}
	}

	switch verdict.Verdict {
	case model.VerdictFreezeApproved:
		return FreezeDecision{
			Status: model.StatusFrozen,
			Reason: "semantic validation approved",
		}
	case model.VerdictValidatorUnavailable:
		return FreezeDecision{
			Status: model.StatusFrozen,
			Reason: "semantic validator unavailable, frozen without validation",
		}
	default:
		return FreezeDecision{
			Status: model.StatusDraft,
			Reason: "semantic validation blocked freeze",
		}
	}
}
