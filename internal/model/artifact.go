package model

// ArtifactStatus is the freeze status of a canonical artifact
type ArtifactStatus string

const (
	StatusDraft  ArtifactStatus = "DRAFT"
	StatusFrozen ArtifactStatus = "FROZEN"
)

// Protocol constants embedded in every artifact and citation
const (
	ArtifactSchema  = "CMP/1.0"
	ProtocolVersion = "CMP v1.0"
	ProtocolDOI     = "10.5281/zenodo.18732820"
)

// Verdict is the outcome of semantic validation
type Verdict string

const (
	VerdictFreezeApproved       Verdict = "FREEZE_APPROVED"
	VerdictFreezeBlocked        Verdict = "FREEZE_BLOCKED"
	VerdictValidatorUnavailable Verdict = "VALIDATOR_UNAVAILABLE"
)

// NamingStructure identifies which naming pattern a canon name follows
type NamingStructure string

const (
	StructureMechanismOutcome NamingStructure = "MechanismOutcome"
	StructurePropertyDomain   NamingStructure = "PropertyDomain"
	StructureSingleInvariant  NamingStructure = "SingleInvariant"
)

// NameValidation is the result of the naming triplet
type NameValidation struct {
	Name            string          `json:"name"`
	FunctionTest    bool            `json:"function_test"`
	InvariantTest   bool            `json:"invariant_test"`
	AgreementTest   bool            `json:"agreement_test"`
	NamingStructure NamingStructure `json:"naming_structure"`
	Passed          bool            `json:"passed"`
	Verdict         string          `json:"verdict"` // VALID_NAME or INVALID_NAME
}

// DeclarationValidation is the result of the declarations completeness check
type DeclarationValidation struct {
	ScopeBoundary    bool   `json:"scope_boundary"`
	FiduciaryMoment  bool   `json:"fiduciary_moment"`
	EvidenceStandard bool   `json:"evidence_standard"`
	Passed           bool   `json:"passed"`
	Verdict          string `json:"verdict"` // DECLARATIONS_COMPLETE or DECLARATIONS_INCOMPLETE
}

// OntologyResult is the ontology check outcome for a single invariant
type OntologyResult struct {
	Invariant    string `json:"invariant"`
	Conflict     bool   `json:"conflict"`
	RelatedCanon string `json:"related_canon,omitempty"`
	Status       string `json:"status"`
}

// OntologyValidation aggregates ontology results for all invariants
type OntologyValidation struct {
	Checker        string           `json:"checker"`
	InvariantCount int              `json:"invariant_count"`
	Results        []OntologyResult `json:"results"`
	Passed         bool             `json:"passed"`
}

// SemanticVerdict is the combined output of the semantic validator.
// When the validator is unavailable only Verdict, CanonReady and Error are set.
type SemanticVerdict struct {
	Schema                string                 `json:"schema"`
	NameValidation        *NameValidation        `json:"name_validation,omitempty"`
	DeclarationValidation *DeclarationValidation `json:"declaration_validation,omitempty"`
	OntologyValidation    *OntologyValidation    `json:"ontology_validation,omitempty"`
	CanonReady            bool                   `json:"canon_ready"`
	Verdict               Verdict                `json:"verdict"`
	Error                 string                 `json:"error,omitempty"`
}

// ArtifactCandidate is the input to semantic validation
type ArtifactCandidate struct {
	Name       string   `json:"name"`
	Domain     string   `json:"domain"`
	Invariants []string `json:"invariants"`
	Declarations
}

// CanonArtifact is the hashed, timestamped record produced by a mediation.
// Hash is a SHA-256 digest of every other field in canonical key order.
type CanonArtifact struct {
	Schema             string          `json:"schema"`
	CmpDOI             string          `json:"cmp_doi"`
	Domain             string          `json:"domain"`
	Status             ArtifactStatus  `json:"status"`
	Timestamp          string          `json:"timestamp"`
	Invariants         []string        `json:"invariants"` // Shared-source propositions only
	CandidateCount     int             `json:"candidate_count"`
	PositionCount      int             `json:"position_count"`
	GapMap             GapMap          `json:"gap_map"`
	SemanticValidation SemanticVerdict `json:"semantic_validation"`
	Metadata           map[string]any  `json:"metadata"`
	Hash               string          `json:"hash"`
}

// Citation is the human-citable summary of an artifact
type Citation struct {
	Domain    string         `json:"domain"`
	Status    ArtifactStatus `json:"status"`
	Timestamp string         `json:"timestamp"`
	Hash      string         `json:"hash"`
	CmpDOI    string         `json:"cmp_doi"`
	CiteAs    string         `json:"cite_as"`
}

// MediationStep is one entry of the seven-step mediation trace
type MediationStep struct {
	Step    string `json:"step"`
	Summary string `json:"summary"`
}

// OverlapSummary reports overlap diagnostics for a mediation
type OverlapSummary struct {
	Shared    []string `json:"shared_claims"`
	Contested []string `json:"contested_claims"`
	Ratio     float64  `json:"overlap_ratio"`
}

// MediationResult is the published output of a mediation
type MediationResult struct {
	Canon      CanonArtifact   `json:"canon"`
	Citation   Citation        `json:"citation"`
	InputType  string          `json:"input_type"`
	Overlap    OverlapSummary  `json:"overlap"`
	Candidates []Candidate     `json:"candidates"`
	StressTest []StressResult  `json:"stress_test"`
	PriorArt   *RecallReport   `json:"prior_art,omitempty"`
	Trace      []MediationStep `json:"trace"`
	CanonPath  string          `json:"canon_path,omitempty"` // Canon document written for a frozen artifact
}
