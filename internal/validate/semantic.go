package validate

import (
	"context"

	"github.com/ppiankov/mediator/internal/model"
)

// SemanticSchema identifies the semantic verdict format
const SemanticSchema = "SemanticValidator/1.0"

// SemanticValidator evaluates whether a candidate artifact may be frozen.
// An error means the validator could not be reached; callers decide how
// to treat unavailability.
type SemanticValidator interface {
	Validate(ctx context.Context, candidate model.ArtifactCandidate) (model.SemanticVerdict, error)
}

// LocalValidator runs the naming triplet, the declarations check and the
// ontology check in process
type LocalValidator struct {
	names    *NameValidator
	ontology OntologyChecker
}

// NewLocalValidator creates a local validator. A nil checker uses NoConflictChecker.
func NewLocalValidator(rules *model.Rules, ontology OntologyChecker) *LocalValidator {
	if ontology == nil {
		ontology = NoConflictChecker{}
	}
	return &LocalValidator{
		names:    NewNameValidator(rules),
		ontology: ontology,
	}
}

// Validate implements SemanticValidator. The local validator never fails.
func (v *LocalValidator) Validate(ctx context.Context, candidate model.ArtifactCandidate) (model.SemanticVerdict, error) {
	if err := ctx.Err(); err != nil {
		return model.SemanticVerdict{}, err
	}
	return v.ValidateArtifact(candidate), nil
}

// ValidateArtifact runs full semantic validation of a candidate artifact
func (v *LocalValidator) ValidateArtifact(candidate model.ArtifactCandidate) model.SemanticVerdict {
	name := candidate.Name
	if name == "" {
		name = candidate.Domain
	}

	nameResult := v.names.Validate(name)
	declResult := ValidateDeclarations(candidate.Declarations)
	ontologyResult := v.ontology.Check(candidate.Invariants, candidate.Domain)

	allPassed := nameResult.Passed && declResult.Passed && ontologyResult.Passed

	verdict := model.VerdictFreezeBlocked
	if allPassed {
		verdict = model.VerdictFreezeApproved
	}

	return model.SemanticVerdict{
		Schema:                SemanticSchema,
		NameValidation:        &nameResult,
		DeclarationValidation: &declResult,
		OntologyValidation:    &ontologyResult,
		CanonReady:            allPassed,
		Verdict:               verdict,
	}
}

// ValidateArtifact validates a candidate with the default rule tables and
// the no-conflict ontology checker
func ValidateArtifact(candidate model.ArtifactCandidate) model.SemanticVerdict {
	return NewLocalValidator(nil, nil).ValidateArtifact(candidate)
}

// Unavailable builds the verdict recorded when the validator cannot be reached
func Unavailable(err error) model.SemanticVerdict {
	msg := "validator unavailable"
	if err != nil {
		msg = err.Error()
	}
	return model.SemanticVerdict{
		Schema:     SemanticSchema,
		CanonReady: true,
		Verdict:    model.VerdictValidatorUnavailable,
		Error:      msg,
	}
}
