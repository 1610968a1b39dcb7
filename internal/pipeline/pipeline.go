package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/mediator/internal/extract"
	"github.com/ppiankov/mediator/internal/logging"
	"github.com/ppiankov/mediator/internal/model"
	"github.com/ppiankov/mediator/internal/recall"
	"github.com/ppiankov/mediator/internal/score"
	"github.com/ppiankov/mediator/internal/validate"
)

// Mediator runs the seven-step canonization process. The core steps are
// pure functions of the input and the validator's verdict. Prior-art
// recall and canon document publication are optional side steps.
// A Mediator is safe for concurrent use.
type Mediator struct {
	validator validate.SemanticValidator
	stress    *score.StressTester
	index     *recall.Index // Optional prior-art index
	topN      int
	renderer  *Renderer // Optional canon document writer
	now       func() time.Time
	logger    *logging.Logger
}

// Option configures a Mediator
type Option func(*Mediator)

// WithRecall attaches a prior-art report from idx to every result
func WithRecall(idx *recall.Index, topN int) Option {
	return func(m *Mediator) {
		m.index = idx
		m.topN = topN
	}
}

// WithCanonDocuments writes a canon document for every frozen artifact
func WithCanonDocuments(r *Renderer) Option {
	return func(m *Mediator) {
		m.renderer = r
	}
}

// WithClock overrides the artifact timestamp source
func WithClock(now func() time.Time) Option {
	return func(m *Mediator) {
		m.now = now
	}
}

// WithLogger sets the mediator logger
func WithLogger(l *logging.Logger) Option {
	return func(m *Mediator) {
		m.logger = l.WithComponent("pipeline")
	}
}

// NewMediator creates a mediator. A nil validator uses the local validator
// with default rules.
func NewMediator(validator validate.SemanticValidator, opts ...Option) *Mediator {
	if validator == nil {
		validator = validate.NewLocalValidator(nil, nil)
	}
	m := &Mediator{
		validator: validator,
		stress:    score.NewStressTester(),
		topN:      recall.DefaultTopN,
		now:       time.Now,
		logger:    logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mediate canonizes the shared claims of two or more positions
func (m *Mediator) Mediate(ctx context.Context, input model.MediationInput) (*model.MediationResult, error) {
	// 1. Intake
	domain := strings.TrimSpace(input.Domain)
	if domain == "" {
		return nil, model.ErrMissingDomain
	}
	inputType := input.Type
	if inputType == "" {
		inputType = "B"
	}
	trace := []model.MediationStep{{
		Step:    "intake",
		Summary: fmt.Sprintf("%d positions, type %s", len(input.Positions), inputType),
	}}

	// 2. Overlap
	overlap, err := extract.Overlap(input.Positions)
	if err != nil {
		return nil, err
	}
	if !hasClaims(input.Positions) {
		return nil, fmt.Errorf("%w: positions carry no claims", model.ErrInvalidInput)
	}
	trace = append(trace, model.MediationStep{
		Step: "overlap",
		Summary: fmt.Sprintf("%d shared, %d contested (ratio: %g)",
			len(overlap.Shared), len(overlap.Contested), overlap.Ratio),
	})

	// 3. Candidates
	candidates := extract.Candidates(input.Positions, overlap)
	trace = append(trace, model.MediationStep{
		Step:    "candidates",
		Summary: fmt.Sprintf("%d extracted", len(candidates)),
	})

	// 4. Stress test
	stress := m.stress.Run(candidates, domain)
	trace = append(trace, model.MediationStep{
		Step:    "stress_test",
		Summary: fmt.Sprintf("%d gaps, %d critical", len(stress.Gaps), len(stress.Critical)),
	})

	// 5. Gap map
	gapMap := score.BuildGapMap(stress)
	trace = append(trace, model.MediationStep{
		Step:    "gap_map",
		Summary: fmt.Sprintf("canon_ready=%t", gapMap.CanonReady),
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 6. Semantic validation and artifact
	invariants := extract.SharedPropositions(candidates)
	verdict, err := m.validateSemantics(ctx, domain, input, invariants)
	if err != nil {
		return nil, err
	}
	decision := DecideFreeze(gapMap, verdict)

	artifact, err := sealArtifact(model.CanonArtifact{
		Domain:             domain,
		Status:             decision.Status,
		Invariants:         invariants,
		CandidateCount:     len(candidates),
		PositionCount:      len(input.Positions),
		GapMap:             gapMap,
		SemanticValidation: verdict,
		Metadata:           input.Metadata,
	}, m.now())
	if err != nil {
		return nil, fmt.Errorf("produce artifact: %w", err)
	}
	trace = append(trace, model.MediationStep{
		Step:    "artifact",
		Summary: fmt.Sprintf("status=%s, hash=%s... (%s)", artifact.Status, artifact.Hash[:16], decision.Reason),
	})

	result := &model.MediationResult{
		Canon:      artifact,
		Citation:   Cite(artifact),
		InputType:  inputType,
		Overlap:    overlap.Summary(),
		Candidates: candidates,
		StressTest: stress.Results,
	}

	// Prior art is advisory and never affects the artifact
	result.PriorArt = m.priorArt(ctx, domain, input.Positions)

	// 7. Publication
	if decision.Frozen() && m.renderer != nil {
		path, err := m.renderer.WriteCanonDocument(artifact, input.Declarations)
		if err != nil {
			m.logger.Warn("canon document not written", "domain", domain, "error", err)
		} else {
			result.CanonPath = path
			if m.index != nil {
				m.index.Invalidate()
			}
		}
	}
	trace = append(trace, model.MediationStep{
		Step:    "publication",
		Summary: result.Citation.CiteAs,
	})
	result.Trace = trace

	m.logger.Info("mediation complete",
		"domain", domain,
		"status", artifact.Status,
		"hash", artifact.Hash,
		"invariants", len(invariants))

	return result, nil
}

func hasClaims(positions []model.Position) bool {
	for _, p := range positions {
		for _, c := range p.Claims {
			if strings.TrimSpace(c) != "" {
				return true
			}
		}
	}
	return false
}

// validateSemantics runs the configured validator. A validator failure
// becomes a VALIDATOR_UNAVAILABLE verdict unless ctx was cancelled.
func (m *Mediator) validateSemantics(ctx context.Context, domain string, input model.MediationInput, invariants []string) (model.SemanticVerdict, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = domain
	}

	verdict, err := m.validator.Validate(ctx, model.ArtifactCandidate{
		Name:         name,
		Domain:       domain,
		Invariants:   invariants,
		Declarations: input.Declarations,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.SemanticVerdict{}, ctxErr
		}
		m.logger.Warn("semantic validator unavailable", "domain", domain, "error", err)
		return validate.Unavailable(err), nil
	}
	return verdict, nil
}

func (m *Mediator) priorArt(ctx context.Context, domain string, positions []model.Position) *model.RecallReport {
	if m.index == nil {
		return nil
	}

	var claims []string
	for _, p := range positions {
		claims = append(claims, p.Claims...)
	}

	report, err := m.index.Recall(ctx, domain, claims, m.topN)
	if err != nil {
		m.logger.Warn("prior art recall failed", "domain", domain, "error", err)
		return nil
	}
	if report.CanonicalDebtRisk {
		m.logger.Info("canonical debt risk", "domain", domain, "matches", len(report.Matches))
	}
	return report
}
