// Package store persists dispute and challenge records.
//
// Every backend offers an atomic per-record read-modify-write through
// Update, which is what the dispute and challenge state machines rely on
// to reject concurrent or repeated transitions.
package store

import (
	"context"
	"fmt"

	"github.com/ppiankov/mediator/internal/model"
)

// Record kinds. Each kind is stored separately.
const (
	KindDisputes   = "disputes"
	KindChallenges = "challenges"
)

// Store holds records of one kind keyed by id
type Store[T any] interface {
	// Create stores a new record. An existing id returns model.ErrConflict.
	Create(ctx context.Context, id string, rec T) error

	// Get returns a record or model.ErrNotFound
	Get(ctx context.Context, id string) (T, error)

	// Update applies fn to the current record and persists the result
	// atomically with respect to other updates of the same id. An error
	// from fn aborts the update and is returned unchanged.
	Update(ctx context.Context, id string, fn func(rec *T) error) (T, error)

	// Delete removes a record. Missing records are not an error.
	Delete(ctx context.Context, id string) error

	// List returns every record in unspecified order
	List(ctx context.Context) ([]T, error)
}

// Stores bundles the record stores used by the mediator
type Stores struct {
	Disputes   Store[model.Dispute]
	Challenges Store[model.Challenge]
	close      func()
}

// Close releases backend resources
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open creates the stores selected by configuration
func Open(ctx context.Context, cfg model.StoreConfig) (*Stores, error) {
	switch cfg.Driver {
	case "", "file":
		return &Stores{
			Disputes:   NewFileStore[model.Dispute](cfg.Dir, KindDisputes),
			Challenges: NewFileStore[model.Challenge](cfg.Dir, KindChallenges),
		}, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("%w: postgres store requires store.database_url", model.ErrInvalidInput)
		}
		db, err := Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		disputes, err := NewPostgresStore[model.Dispute](ctx, db, KindDisputes)
		if err != nil {
			db.Close()
			return nil, err
		}
		challenges, err := NewPostgresStore[model.Challenge](ctx, db, KindChallenges)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &Stores{
			Disputes:   disputes,
			Challenges: challenges,
			close:      db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", model.ErrInvalidInput, cfg.Driver)
	}
}
