package validate

import (
	"testing"

	"github.com/ppiankov/mediator/internal/model"
)

func TestNameValidator_Validate(t *testing.T) {
	v := NewNameValidator(nil)

	tests := []struct {
		desc          string
		name          string
		wantFunction  bool
		wantInvariant bool
		wantAgreement bool
		wantStructure model.NamingStructure
		wantPassed    bool
	}{
		{
			desc:          "mechanism outcome name",
			name:          "Flow-Triggered Jurisdiction",
			wantFunction:  true,
			wantInvariant: true,
			wantAgreement: true,
			wantStructure: model.StructureMechanismOutcome,
			wantPassed:    true,
		},
		{
			desc:          "two-token property domain name",
			name:          "custody obligation",
			wantFunction:  true,
			wantInvariant: true,
			wantAgreement: true,
			wantStructure: model.StructurePropertyDomain,
			wantPassed:    true,
		},
		{
			desc:          "single token fails function test",
			name:          "jurisdiction",
			wantFunction:  false,
			wantInvariant: true,
			wantAgreement: true,
			wantStructure: model.StructureSingleInvariant,
			wantPassed:    false,
		},
		{
			desc:          "aspirational name fails invariant test",
			name:          "sustainable transport policy",
			wantFunction:  true,
			wantInvariant: false,
			wantAgreement: true,
			wantStructure: model.StructureSingleInvariant,
			wantPassed:    false,
		},
		{
			desc:          "contested name fails agreement test",
			name:          "Fair Pricing",
			wantFunction:  true,
			wantInvariant: true,
			wantAgreement: false,
			wantStructure: model.StructurePropertyDomain,
			wantPassed:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := v.Validate(tt.name)
			if got.FunctionTest != tt.wantFunction {
				t.Errorf("Expected function test %v, got %v", tt.wantFunction, got.FunctionTest)
			}
			if got.InvariantTest != tt.wantInvariant {
				t.Errorf("Expected invariant test %v, got %v", tt.wantInvariant, got.InvariantTest)
			}
			if got.AgreementTest != tt.wantAgreement {
				t.Errorf("Expected agreement test %v, got %v", tt.wantAgreement, got.AgreementTest)
			}
			if got.NamingStructure != tt.wantStructure {
				t.Errorf("Expected structure %s, got %s", tt.wantStructure, got.NamingStructure)
			}
			if got.Passed != tt.wantPassed {
				t.Errorf("Expected passed %v, got %v", tt.wantPassed, got.Passed)
			}
			wantVerdict := "INVALID_NAME"
			if tt.wantPassed {
				wantVerdict = "VALID_NAME"
			}
			if got.Verdict != wantVerdict {
				t.Errorf("Expected verdict %s, got %s", wantVerdict, got.Verdict)
			}
		})
	}
}

func TestValidateDeclarations(t *testing.T) {
	complete := model.Declarations{
		ScopeBoundary:    "Cross-border movement of regulated goods",
		FiduciaryMoment:  "When custody transfers at the border",
		EvidenceStandard: "Signed manifests",
	}

	result := ValidateDeclarations(complete)
	if !result.Passed || result.Verdict != "DECLARATIONS_COMPLETE" {
		t.Errorf("Expected complete declarations to pass, got %+v", result)
	}

	missingScope := complete
	missingScope.ScopeBoundary = ""
	result = ValidateDeclarations(missingScope)
	if result.Passed {
		t.Error("Expected missing scope boundary to fail")
	}
	if result.ScopeBoundary {
		t.Error("Expected scope_boundary check to be false")
	}
	if !result.FiduciaryMoment || !result.EvidenceStandard {
		t.Error("Expected the other declarations to be reported present")
	}
	if result.Verdict != "DECLARATIONS_INCOMPLETE" {
		t.Errorf("Expected DECLARATIONS_INCOMPLETE, got %s", result.Verdict)
	}
}
