// Package dispute runs the two-party dispute state machine:
// open -> mediating -> resolved | error.
package dispute

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
	"github.com/ppiankov/mediator/internal/worker"
)

// DefaultTTL is how long a dispute may wait for a respondent
const DefaultTTL = time.Hour

// Mediator runs the canonization pipeline
type Mediator interface {
	Mediate(ctx context.Context, input model.MediationInput) (*model.MediationResult, error)
}

// InitiateRequest opens a dispute with the first agent's position
type InitiateRequest struct {
	Agent    string         `json:"agent"`
	Domain   string         `json:"domain"`
	Claims   []string       `json:"claims"`
	Metadata map[string]any `json:"metadata,omitempty"`
	model.Declarations
}

// Service owns dispute records and their transitions
type Service struct {
	store    store.Store[model.Dispute]
	mediator Mediator
	limiter  *worker.Limiter
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
	logger   *logging.Logger
}

// Option configures a Service
type Option func(*Service)

// WithTTL sets the open-dispute lifetime
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLimiter throttles submissions per agent
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
		s.logger = l.WithComponent("dispute")
	}
}

// NewService creates a dispute service
func NewService(st store.Store[model.Dispute], mediator Mediator, opts ...Option) *Service {
	s := &Service{
		store:    st,
		mediator: mediator,
		ttl:      DefaultTTL,
		now:      time.Now,
		newID:    shortID,
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// shortID returns the first 8 characters of a random UUID
func shortID() string {
	return uuid.NewString()[:8]
}

// Initiate opens a dispute. Expired open disputes are pruned first.
func (s *Service) Initiate(ctx context.Context, req InitiateRequest) (model.Dispute, error) {
	domain := strings.TrimSpace(req.Domain)
	if domain == "" {
		return model.Dispute{}, model.ErrMissingDomain
	}
	if strings.TrimSpace(req.Agent) == "" {
		return model.Dispute{}, fmt.Errorf("%w: agent is required", model.ErrInvalidInput)
	}
	if len(req.Claims) == 0 {
		return model.Dispute{}, fmt.Errorf("%w: at least one claim is required", model.ErrInvalidInput)
	}
	if err := s.limiter.Check(req.Agent); err != nil {
		return model.Dispute{}, err
	}

	if err := s.prune(ctx); err != nil {
		s.logger.Warn("prune failed", "error", err)
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	d := model.Dispute{
		Created:      s.now().UTC(),
		Domain:       domain,
		Metadata:     metadata,
		Positions:    []model.Position{{Agent: req.Agent, Claims: req.Claims}},
		Status:       model.DisputeOpen,
		Declarations: req.Declarations,
	}

	// Retry on the rare short-id collision
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		d.ID = s.newID()
		err = s.store.Create(ctx, d.ID, d)
		if !errors.Is(err, model.ErrConflict) {
			break
		}
	}
	if err != nil {
		return model.Dispute{}, fmt.Errorf("create dispute: %w", err)
	}

	s.logger.Info("dispute opened", "id", d.ID, "agent", req.Agent, "domain", domain)
	return d, nil
}

// Respond adds the second position and mediates synchronously.
//
// Only the first respondent on an open dispute wins; later calls, and
// calls from an agent already on the dispute, get model.ErrConflict.
// A pipeline failure leaves the dispute in the error state and is
// returned together with the record.
func (s *Service) Respond(ctx context.Context, id, agent string, claims []string) (model.Dispute, error) {
	if strings.TrimSpace(agent) == "" {
		return model.Dispute{}, fmt.Errorf("%w: agent is required", model.ErrInvalidInput)
	}
	if len(claims) == 0 {
		return model.Dispute{}, fmt.Errorf("%w: at least one claim is required", model.ErrInvalidInput)
	}
	if err := s.limiter.Check(agent); err != nil {
		return model.Dispute{}, err
	}

	d, err := s.store.Update(ctx, id, func(d *model.Dispute) error {
		if d.Status != model.DisputeOpen {
			return fmt.Errorf("%w: dispute %s is %s", model.ErrConflict, id, d.Status)
		}
		if d.HasAgent(agent) {
			return fmt.Errorf("%w: agent %s already holds a position on dispute %s", model.ErrConflict, agent, id)
		}
		if s.expired(*d) {
			return fmt.Errorf("%w: dispute %s", model.ErrExpired, id)
		}
		d.Positions = append(d.Positions, model.Position{Agent: agent, Claims: claims})
		d.Status = model.DisputeMediating
		return nil
	})
	if err != nil {
		return model.Dispute{}, err
	}

	s.logger.Info("dispute mediating", "id", id, "agent", agent)

	result, mediateErr := s.mediator.Mediate(ctx, model.MediationInput{
		Domain:       d.Domain,
		Positions:    d.Positions,
		Metadata:     d.Metadata,
		Declarations: d.Declarations,
	})

	// The outcome is recorded even when the caller has gone away
	final, err := s.store.Update(context.WithoutCancel(ctx), id, func(d *model.Dispute) error {
		if d.Status != model.DisputeMediating {
			return fmt.Errorf("%w: dispute %s left mediating as %s", model.ErrConflict, id, d.Status)
		}
		if mediateErr != nil {
			d.Status = model.DisputeError
			d.Error = mediateErr.Error()
			return nil
		}
		d.Status = model.DisputeResolved
		d.Result = result
		return nil
	})
	if err != nil {
		return final, fmt.Errorf("record dispute %s outcome: %w", id, err)
	}

	if mediateErr != nil {
		s.logger.Error("dispute mediation failed", "id", id, "error", mediateErr)
		return final, fmt.Errorf("mediate dispute %s: %w", id, mediateErr)
	}

	s.logger.Info("dispute resolved", "id", id, "status", result.Canon.Status, "hash", result.Canon.Hash)
	return final, nil
}

// Get returns a dispute by id
func (s *Service) Get(ctx context.Context, id string) (model.Dispute, error) {
	return s.store.Get(ctx, id)
}

// ListOpen prunes expired disputes and returns the open ones, newest first
func (s *Service) ListOpen(ctx context.Context) ([]model.Dispute, error) {
	if err := s.prune(ctx); err != nil {
		return nil, err
	}

	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}

	open := make([]model.Dispute, 0, len(all))
	for _, d := range all {
		if d.Status == model.DisputeOpen {
			open = append(open, d)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].Created.After(open[j].Created)
	})
	return open, nil
}

func (s *Service) expired(d model.Dispute) bool {
	return s.now().Sub(d.Created) > s.ttl
}

// prune deletes open disputes past their TTL. Respond refuses expired
// disputes, so an expired open record can no longer change under us.
func (s *Service) prune(ctx context.Context) error {
	all, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list disputes: %w", err)
	}

	for _, d := range all {
		if d.Status != model.DisputeOpen || !s.expired(d) {
			continue
		}
		if err := s.store.Delete(ctx, d.ID); err != nil {
			return fmt.Errorf("prune dispute %s: %w", d.ID, err)
		}
		s.logger.Debug("dispute expired", "id", d.ID)
	}
	return nil
}
