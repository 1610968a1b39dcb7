package validate

import (
	"strings"

	"github.com/ppiankov/mediator/internal/model"
)

// NameValidator runs the naming triplet against a candidate canon name
type NameValidator struct {
	rules *model.Rules
}

// NewNameValidator creates a name validator from rule tables
func NewNameValidator(rules *model.Rules) *NameValidator {
	if rules == nil {
		rules = model.DefaultRules()
	}
	return &NameValidator{rules: rules}
}

// FunctionTest reports whether the function can be derived from the name:
// it contains a mechanism word or splits into at least two tokens.
func (v *NameValidator) FunctionTest(name string) bool {
	if containsAny(name, v.rules.MechanismWords) {
		return true
	}
	return len(nameTokens(name)) >= 2
}

// InvariantTest reports whether the name describes what is rather than
// what is intended.
func (v *NameValidator) InvariantTest(name string) bool {
	return !containsAny(name, v.rules.AspirationalWords)
}

// AgreementTest reports whether the name can be cited without agreeing on
// its desirability.
func (v *NameValidator) AgreementTest(name string) bool {
	return !containsAny(name, v.rules.ContestedWords)
}

// Structure identifies the naming structure of a name
func (v *NameValidator) Structure(name string) model.NamingStructure {
	if containsAny(name, v.rules.StructureWords) {
		return model.StructureMechanismOutcome
	}
	if len(nameTokens(name)) == 2 {
		return model.StructurePropertyDomain
	}
	return model.StructureSingleInvariant
}

// Validate runs all three naming tests. The name passes only if all do.
func (v *NameValidator) Validate(name string) model.NameValidation {
	result := model.NameValidation{
		Name:            name,
		FunctionTest:    v.FunctionTest(name),
		InvariantTest:   v.InvariantTest(name),
		AgreementTest:   v.AgreementTest(name),
		NamingStructure: v.Structure(name),
	}
	result.Passed = result.FunctionTest && result.InvariantTest && result.AgreementTest
	result.Verdict = "INVALID_NAME"
	if result.Passed {
		result.Verdict = "VALID_NAME"
	}
	return result
}

// ValidateDeclarations checks that all three jurisdictional declarations are present
func ValidateDeclarations(d model.Declarations) model.DeclarationValidation {
	result := model.DeclarationValidation{
		ScopeBoundary:    d.ScopeBoundary != "",
		FiduciaryMoment:  d.FiduciaryMoment != "",
		EvidenceStandard: d.EvidenceStandard != "",
	}
	result.Passed = result.ScopeBoundary && result.FiduciaryMoment && result.EvidenceStandard
	result.Verdict = "DECLARATIONS_INCOMPLETE"
	if result.Passed {
		result.Verdict = "DECLARATIONS_COMPLETE"
	}
	return result
}

func nameTokens(name string) []string {
	return strings.Fields(strings.ReplaceAll(name, "-", " "))
}

// containsAny does case-insensitive substring matching against a word list
func containsAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
