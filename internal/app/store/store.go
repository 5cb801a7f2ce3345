// Package store defines the persistence contract for links and provides a
// database-backed and an in-memory implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tinylink-dev/tinylink/internal/app/model"
)

var (
	// ErrDuplicate signals a unique-constraint violation on the code column.
	ErrDuplicate = errors.New("store: code already exists")
	// ErrNotFound signals that no link matched the given code.
	ErrNotFound = errors.New("store: link not found")
	// ErrUnavailable signals that the backing store cannot currently be reached.
	ErrUnavailable = errors.New("store: unavailable")
)

// Filter narrows a Query. Nil fields are ignored; results are always ordered
// by created_at descending.
type Filter struct {
	Code      *string
	TargetURL *string
}

// Store is the persistence contract consumed by the registry. All mutation
// of link records goes through these operations and nothing else.
type Store interface {
	// Init performs idempotent schema setup. Safe to call repeatedly and
	// under concurrent first use.
	Init(ctx context.Context) error
	Query(ctx context.Context, f Filter) ([]model.Link, error)
	// Insert persists a new link. Returns ErrDuplicate when the code is
	// already taken.
	Insert(ctx context.Context, link *model.Link) error
	// RecordClick increments clicks by one and sets last_clicked to at, as a
	// single atomic update. Returns ErrNotFound when the code is absent.
	RecordClick(ctx context.Context, code string, at time.Time) error
	// Delete removes the link with the given code. Deleting an absent code
	// is not an error.
	Delete(ctx context.Context, code string) error
	// Ping verifies connectivity and returns the store's clock.
	Ping(ctx context.Context) (time.Time, error)
}
