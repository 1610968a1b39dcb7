package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/mediator/internal/model"
	"github.com/ppiankov/mediator/internal/recall"
)

var fixedTime = time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

type stubValidator struct {
	verdict model.SemanticVerdict
	err     error
}

func (s stubValidator) Validate(ctx context.Context, c model.ArtifactCandidate) (model.SemanticVerdict, error) {
	return s.verdict, s.err
}

func completeDeclarations() model.Declarations {
	return model.Declarations{
		ScopeBoundary:    "Cross-border movement of regulated goods",
		FiduciaryMoment:  "When custody transfers at the border",
		EvidenceStandard: "Signed manifests",
	}
}

func scenarioA() model.MediationInput {
	return model.MediationInput{
		Domain: "custody obligation",
		Type:   "A",
		Positions: []model.Position{
			{Agent: "a", Claims: []string{"X", "Y"}},
			{Agent: "b", Claims: []string{"X", "Z"}},
		},
		Declarations: completeDeclarations(),
	}
}

func TestMediate_ScenarioA_Frozen(t *testing.T) {
	m := NewMediator(nil, WithClock(fixedClock))

	result, err := m.Mediate(context.Background(), scenarioA())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	canon := result.Canon
	if canon.Status != model.StatusFrozen {
		t.Errorf("Expected FROZEN, got %s", canon.Status)
	}
	if len(canon.Invariants) != 1 || canon.Invariants[0] != "X" {
		t.Errorf("Expected invariants [X], got %v", canon.Invariants)
	}
	if len(result.Candidates) != 1 || result.Candidates[0].Source != model.SourceShared {
		t.Errorf("Expected a single shared candidate, got %+v", result.Candidates)
	}
	if canon.SemanticValidation.Verdict != model.VerdictFreezeApproved {
		t.Errorf("Expected FREEZE_APPROVED, got %s", canon.SemanticValidation.Verdict)
	}
	if canon.Schema != model.ArtifactSchema || canon.CmpDOI != model.ProtocolDOI {
		t.Errorf("Unexpected protocol fields: %s %s", canon.Schema, canon.CmpDOI)
	}
	if canon.PositionCount != 2 || canon.CandidateCount != 1 {
		t.Errorf("Expected 2 positions and 1 candidate, got %d and %d", canon.PositionCount, canon.CandidateCount)
	}
	if canon.Timestamp != "2026-01-04T12:00:00.000000000Z" {
		t.Errorf("Unexpected timestamp %s", canon.Timestamp)
	}
	if len(result.Trace) != 7 {
		t.Errorf("Expected 7 trace steps, got %d", len(result.Trace))
	}
	if result.InputType != "A" {
		t.Errorf("Expected input type A, got %s", result.InputType)
	}
	if result.PriorArt != nil {
		t.Error("Expected no prior art without an index")
	}
}

func TestMediate_ScenarioB_MissingScopeIsDraft(t *testing.T) {
	input := scenarioA()
	input.ScopeBoundary = ""

	result, err := NewMediator(nil).Mediate(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.Canon.GapMap.CanonReady {
		t.Error("Expected gap map to be canon-ready")
	}
	if result.Canon.Status != model.StatusDraft {
		t.Errorf("Expected DRAFT, got %s", result.Canon.Status)
	}
	if result.Canon.SemanticValidation.DeclarationValidation.Passed {
		t.Error("Expected declaration validation to fail")
	}
}

func TestMediate_InputErrors(t *testing.T) {
	tests := []struct {
		desc    string
		input   model.MediationInput
		wantErr error
	}{
		{
			desc:    "single position",
			input:   model.MediationInput{Domain: "custody obligation", Positions: []model.Position{{Agent: "a", Claims: []string{"X"}}}},
			wantErr: model.ErrTooFewPositions,
		},
		{
			desc:    "no positions",
			input:   model.MediationInput{Domain: "custody obligation"},
			wantErr: model.ErrTooFewPositions,
		},
		{
			desc: "no claims in any position",
			input: model.MediationInput{
				Domain:       "custody obligation",
				Positions:    []model.Position{{Agent: "a"}, {Agent: "b", Claims: []string{"  "}}},
				Declarations: scenarioA().Declarations,
			},
			wantErr: model.ErrInvalidInput,
		},
		{
			desc:    "blank domain",
			input:   model.MediationInput{Domain: "  ", Positions: scenarioA().Positions},
			wantErr: model.ErrMissingDomain,
		},
	}

	m := NewMediator(nil)
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := m.Mediate(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMediate_MajorityCandidateNeverBecomesInvariant(t *testing.T) {
	input := scenarioA()
	input.Positions = []model.Position{
		{Agent: "a", Claims: []string{"X", "Y"}},
		{Agent: "b", Claims: []string{"X", "Y"}},
		{Agent: "c", Claims: []string{"X", "Z"}},
	}

	result, err := NewMediator(nil).Mediate(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("Expected shared and majority candidates, got %+v", result.Candidates)
	}
	for _, inv := range result.Canon.Invariants {
		if inv == "Y" {
			t.Error("Expected majority claim Y to stay out of invariants")
		}
	}
	if result.Canon.GapMap.TotalGaps != 1 {
		t.Errorf("Expected 1 gap, got %d", result.Canon.GapMap.TotalGaps)
	}
}

func TestMediate_ValidatorFailOpen(t *testing.T) {
	m := NewMediator(stubValidator{err: errors.New("connection refused")})

	result, err := m.Mediate(context.Background(), scenarioA())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Canon.SemanticValidation.Verdict != model.VerdictValidatorUnavailable {
		t.Errorf("Expected VALIDATOR_UNAVAILABLE, got %s", result.Canon.SemanticValidation.Verdict)
	}
	if result.Canon.Status != model.StatusFrozen {
		t.Errorf("Expected FROZEN on validator outage, got %s", result.Canon.Status)
	}
}

// cancellingValidator cancels the mediation while the validator call is in flight
type cancellingValidator struct {
	cancel context.CancelFunc
}

func (v cancellingValidator) Validate(ctx context.Context, c model.ArtifactCandidate) (model.SemanticVerdict, error) {
	v.cancel()
	<-ctx.Done()
	return model.SemanticVerdict{}, errors.New("validator request aborted")
}

func TestMediate_CancelledDuringValidationFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewMediator(cancellingValidator{cancel: cancel})

	result, err := m.Mediate(ctx, scenarioA())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected no result, got status %s", result.Canon.Status)
	}
}

func TestMediate_ValidatorBlocks(t *testing.T) {
	m := NewMediator(stubValidator{verdict: model.SemanticVerdict{Verdict: model.VerdictFreezeBlocked}})

	result, err := m.Mediate(context.Background(), scenarioA())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Canon.Status != model.StatusDraft {
		t.Errorf("Expected DRAFT, got %s", result.Canon.Status)
	}
}

func TestMediate_HashDeterminism(t *testing.T) {
	m := NewMediator(nil, WithClock(fixedClock))

	first, err := m.Mediate(context.Background(), scenarioA())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := m.Mediate(context.Background(), scenarioA())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if first.Canon.Hash != second.Canon.Hash {
		t.Errorf("Expected identical hashes, got %s and %s", first.Canon.Hash, second.Canon.Hash)
	}
	if len(first.Canon.Hash) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(first.Canon.Hash))
	}
}

func TestHashArtifact_SingleFieldChanges(t *testing.T) {
	result, err := NewMediator(nil, WithClock(fixedClock)).Mediate(context.Background(), scenarioA())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	base := result.Canon

	tests := []struct {
		desc   string
		mutate func(a *model.CanonArtifact)
	}{
		{"status", func(a *model.CanonArtifact) { a.Status = model.StatusDraft }},
		{"timestamp", func(a *model.CanonArtifact) { a.Timestamp = "2026-01-04T12:00:00.000000001Z" }},
		{"invariants", func(a *model.CanonArtifact) { a.Invariants = []string{"X", "Y"} }},
		{"metadata", func(a *model.CanonArtifact) { a.Metadata = map[string]any{"session": "demo"} }},
		{"domain", func(a *model.CanonArtifact) { a.Domain = "custody obligations" }},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			changed := base
			changed.Invariants = append([]string{}, base.Invariants...)
			tt.mutate(&changed)

			hash, err := HashArtifact(changed)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if hash == base.Hash {
				t.Errorf("Expected %s change to alter the hash", tt.desc)
			}
			if VerifyArtifact(changed) {
				t.Error("Expected tampered artifact to fail verification")
			}
		})
	}
}

func TestVerifyArtifact_SurvivesJSONRoundTrip(t *testing.T) {
	input := scenarioA()
	input.Metadata = map[string]any{"session": "demo", "round": 3}

	result, err := NewMediator(nil).Mediate(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !VerifyArtifact(result.Canon) {
		t.Fatal("Expected fresh artifact to verify")
	}

	data, err := json.Marshal(result.Canon)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var loaded model.CanonArtifact
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !VerifyArtifact(loaded) {
		t.Error("Expected reloaded artifact to verify")
	}
}

func TestCanonicalJSON_SortedKeysWithoutHash(t *testing.T) {
	a := model.CanonArtifact{Domain: "d", Hash: "abc", Metadata: map[string]any{"z": 1, "a": 2}}

	encoded, err := CanonicalJSON(a)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	s := string(encoded)
	if strings.Contains(s, `"hash"`) {
		t.Error("Expected hash key to be excluded")
	}
	if strings.Index(s, `"candidate_count"`) > strings.Index(s, `"domain"`) {
		t.Error("Expected keys in sorted order")
	}
	if !strings.Contains(s, `"metadata":{"a":2,"z":1}`) {
		t.Errorf("Expected nested keys sorted, got %s", s)
	}
}

func TestCite(t *testing.T) {
	a := model.CanonArtifact{
		Domain: "custody obligation",
		Status: model.StatusFrozen,
		Hash:   "0123456789abcdef0123456789abcdef",
		CmpDOI: model.ProtocolDOI,
	}

	got := Cite(a).CiteAs
	want := "Canonical Doctrine: custody obligation [FROZEN] SHA256:0123456789abcdef... via CMP v1.0 (DOI: 10.5281/zenodo.18732820)"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestMediate_FrozenCanonFeedsRecall(t *testing.T) {
	dir := t.TempDir()
	idx := recall.NewIndex(dir, nil)
	m := NewMediator(nil, WithRecall(idx, 3), WithCanonDocuments(NewRenderer(dir)))

	input := model.MediationInput{
		Domain: "custody obligation",
		Positions: []model.Position{
			{Agent: "a", Claims: []string{"Custody during transport creates the compliance obligation.", "Y"}},
			{Agent: "b", Claims: []string{"Custody during transport creates the compliance obligation.", "Z"}},
		},
		Declarations: completeDeclarations(),
	}

	first, err := m.Mediate(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if first.PriorArt == nil || first.PriorArt.CanonicalDebtRisk {
		t.Errorf("Expected empty prior art on first mediation, got %+v", first.PriorArt)
	}
	if first.CanonPath == "" {
		t.Fatal("Expected canon document to be written")
	}
	if _, err := os.Stat(first.CanonPath); err != nil {
		t.Fatalf("Expected canon document on disk, got %v", err)
	}

	second, err := m.Mediate(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if second.PriorArt == nil || !second.PriorArt.CanonicalDebtRisk {
		t.Fatalf("Expected debt risk from the first frozen canon, got %+v", second.PriorArt)
	}
	if second.PriorArt.Matches[0].Canon != "custody obligation" {
		t.Errorf("Expected match on custody obligation, got %q", second.PriorArt.Matches[0].Canon)
	}
	// Prior art is advisory only
	if second.Canon.Status != model.StatusFrozen {
		t.Errorf("Expected second mediation to still freeze, got %s", second.Canon.Status)
	}
}

func TestMediate_DraftWritesNoDocument(t *testing.T) {
	dir := t.TempDir()
	input := scenarioA()
	input.EvidenceStandard = ""

	result, err := NewMediator(nil, WithCanonDocuments(NewRenderer(dir))).Mediate(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.CanonPath != "" {
		t.Errorf("Expected no canon document for a draft, got %s", result.CanonPath)
	}
}
