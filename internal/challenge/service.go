// Package challenge runs merit-based challenges against frozen canons.
//
// A challenge first passes the positional-independence gate. Admitted
// challenges are mediated as a two-position dispute between the
// challenger's evidence and a fixed defense of the original canon.
package challenge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/mediator/internal/logging"
	"github.com/ppiankov/mediator/internal/model"
	"github.com/ppiankov/mediator/internal/store"
	"github.com/ppiankov/mediator/internal/validate"
	"github.com/ppiankov/mediator/internal/worker"
)

// Schema identifies challenge records on the wire
const Schema = "CanonChallenge/1.0"

// UnknownChallenger is recorded when no challenger id is supplied
const UnknownChallenger = "agent-unknown"

// Mediator runs the canonization pipeline
type Mediator interface {
	Mediate(ctx context.Context, input model.MediationInput) (*model.MediationResult, error)
}

// SubmitRequest is a challenge against a frozen canon
type SubmitRequest struct {
	ChallengerID     string   `json:"challenger_id"`
	CanonHash        string   `json:"canon_hash"`
	CanonDomain      string   `json:"canon_domain"`
	Grounds          string   `json:"grounds"`
	NewEvidence      string   `json:"new_evidence"`
	ScopeArgument    string   `json:"scope_argument"`
	ChallengerClaims []string `json:"challenger_claims"`
}

// Service owns challenge records
type Service struct {
	store    store.Store[model.Challenge]
	mediator Mediator
	gate     *validate.GroundsValidator
	limiter  *worker.Limiter
	now      func() time.Time
	newID    func() string
	logger   *logging.Logger
}

// Option configures a Service
type Option func(*Service)

// WithGate replaces the default positional-independence gate
func WithGate(g *validate.GroundsValidator) Option {
	return func(s *Service) {
		s.gate = g
	}
}

// WithLimiter throttles submissions per challenger
func WithLimiter(l *worker.Limiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) {
		s.logger = l.WithComponent("challenge")
	}
}

// NewService creates a challenge service
func NewService(st store.Store[model.Challenge], mediator Mediator, opts ...Option) *Service {
	s := &Service{
		store:    st,
		mediator: mediator,
		gate:     validate.NewGroundsValidator(nil),
		now:      time.Now,
		newID:    func() string { return uuid.NewString()[:8] },
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit records a challenge and, when admissible, mediates it.
//
// A blocked challenge is not an error: it is persisted with outcome
// BLOCKED and returned with a nil error. A pipeline failure is persisted
// with outcome ERROR and returned along with the wrapped error.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (model.Challenge, error) {
	if strings.TrimSpace(req.CanonHash) == "" || strings.TrimSpace(req.Grounds) == "" {
		return model.Challenge{}, fmt.Errorf("%w: canon_hash and grounds are required", model.ErrInvalidInput)
	}
	challenger := strings.TrimSpace(req.ChallengerID)
	if challenger == "" {
		challenger = UnknownChallenger
	}
	if err := s.limiter.Check(challenger); err != nil {
		return model.Challenge{}, err
	}

	claims := req.ChallengerClaims
	if claims == nil {
		claims = []string{}
	}

	c := model.Challenge{
		Created:          s.now().UTC(),
		ChallengerID:     challenger,
		CanonHash:        req.CanonHash,
		CanonDomain:      req.CanonDomain,
		Grounds:          req.Grounds,
		NewEvidence:      req.NewEvidence,
		ScopeArgument:    req.ScopeArgument,
		ChallengerClaims: claims,
		Status:           model.ChallengeValidating,
	}

	// 1. Positional independence gate
	accepted, reason := s.gate.Validate(req.Grounds, claims)
	c.ValidityReason = reason
	if !accepted {
		c.Validity = model.ValidityBlocked
		c.Status = model.ChallengeBlocked
		c.Outcome = model.OutcomeBlocked
		if err := s.create(ctx, &c); err != nil {
			return model.Challenge{}, err
		}
		s.logger.Info("challenge blocked", "id", c.ID, "canon", c.CanonHash, "reason", reason)
		return c, nil
	}
	c.Validity = model.ValidityAccepted
	c.Status = model.ChallengeRunning
	if err := s.create(ctx, &c); err != nil {
		return model.Challenge{}, err
	}

	// 2. Mediate the challenger against the canon defense
	s.logger.Info("challenge accepted", "id", c.ID, "canon", c.CanonHash)
	result, mediateErr := s.mediator.Mediate(ctx, SyntheticInput(c))

	// 3. Record the outcome
	final, err := s.store.Update(context.WithoutCancel(ctx), c.ID, func(rec *model.Challenge) error {
		if rec.Status != model.ChallengeRunning {
			return fmt.Errorf("%w: challenge %s left running as %s", model.ErrConflict, rec.ID, rec.Status)
		}
		if mediateErr != nil {
			rec.Status = model.ChallengeError
			rec.Outcome = model.OutcomeError
			rec.Error = mediateErr.Error()
			return nil
		}
		rec.Status = model.ChallengeResolved
		rec.Outcome = Outcome(result.Canon)
		rec.ResultCanonHash = result.Canon.Hash
		rec.ResultCanonStatus = result.Canon.Status
		rec.Result = result
		return nil
	})
	if err != nil {
		return final, fmt.Errorf("record challenge %s outcome: %w", c.ID, err)
	}

	if mediateErr != nil {
		s.logger.Error("challenge mediation failed", "id", c.ID, "error", mediateErr)
		return final, fmt.Errorf("mediate challenge %s: %w", c.ID, mediateErr)
	}

	s.logger.Info("challenge resolved", "id", c.ID, "outcome", final.Outcome, "result_hash", final.ResultCanonHash)
	return final, nil
}

func (s *Service) create(ctx context.Context, c *model.Challenge) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		c.ID = s.newID()
		err = s.store.Create(ctx, c.ID, *c)
		if !errors.Is(err, model.ErrConflict) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	return nil
}

// Outcome is UPHELD when the challenge mediation froze at least one
// invariant, FAILED otherwise.
func Outcome(canon model.CanonArtifact) model.ChallengeOutcome {
	if canon.Status == model.StatusFrozen && len(canon.Invariants) > 0 {
		return model.OutcomeUpheld
	}
	return model.OutcomeFailed
}

// Note explains an outcome to the challenger
func Note(outcome model.ChallengeOutcome) string {
	switch outcome {
	case model.OutcomeBlocked:
		return "Blocked before mediation. Challenges must engage the invariant on its merits; resubmit with factual grounds only."
	case model.OutcomeUpheld:
		return "Upheld. A new FROZEN canon was produced from the new evidence and supersedes the original. Cite the new canon hash in future disputes in this domain."
	case model.OutcomeFailed:
		return "Failed. The new evidence did not freeze an invariant against the original canon, which stands. This challenge remains on the record."
	default:
		return "Mediation failed. The challenge is recorded with its error."
	}
}

// Get returns a challenge by id
func (s *Service) Get(ctx context.Context, id string) (model.Challenge, error) {
	return s.store.Get(ctx, id)
}

// List returns every challenge, newest first
func (s *Service) List(ctx context.Context) ([]model.Challenge, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Created.After(all[j].Created)
	})
	return all, nil
}

// Summary counts outcomes across all challenges
func (s *Service) Summary(ctx context.Context) (model.ChallengeSummary, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return model.ChallengeSummary{}, fmt.Errorf("list challenges: %w", err)
	}

	summary := model.ChallengeSummary{Total: len(all)}
	for _, c := range all {
		switch c.Outcome {
		case model.OutcomeUpheld:
			summary.Upheld++
		case model.OutcomeFailed:
			summary.Failed++
		case model.OutcomeBlocked:
			summary.Blocked++
		case model.OutcomeError:
			summary.Errored++
		}
	}
	return summary, nil
}
