// Package eventstore records every transaction attempt and its lifecycle
// state: a transactions-by-id table for direct lookup and idempotency
// resolution, a transactions-by-user table ordered by time for history
// scans, and an idempotency-keys table binding caller keys to outcomes.
package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/punchamoorthee/pixelmoney/internal/domain"
)

// ErrNotFound is returned by GetByID when no transaction has the id.
// GetByUser returns an empty slice instead.
var ErrNotFound = errors.New("eventstore: transaction not found")

// ErrIdempotencyKeyTaken is returned when BindIdempotency races with
// another writer for the same key.
var ErrIdempotencyKeyTaken = errors.New("eventstore: idempotency key already bound")

// Store is the event-store contract the ledger orchestrator depends on.
// Writes that must land in both the by-id and by-user tables go through a
// single method so the implementation can batch them atomically.
type Store interface {
	// InitSchema creates the tables if they do not already exist.
	InitSchema(ctx context.Context) error

	// PutPending atomically writes tx (status must be PENDING) into both
	// the by-id and by-user tables.
	PutPending(ctx context.Context, tx *domain.Transaction) error

	// PutPendingPair writes two paired event records in one atomic batch,
	// used for the sent/received sides of a P2P transfer.
	PutPendingPair(ctx context.Context, primary, secondary *domain.Transaction) error

	// GetByID looks up a transaction by its id.
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)

	// GetByUser returns up to limit transactions for userID, ordered
	// descending by created_at.
	GetByUser(ctx context.Context, userID string, limit int) ([]*domain.Transaction, error)

	// UpdateStatus transitions a transaction to a terminal status and
	// merges metadata (if non-nil) into the existing metadata blob.
	UpdateStatus(ctx context.Context, id string, status domain.Status, metadata json.RawMessage) error

	// LookupIdempotency resolves a caller-supplied key to the transaction
	// id it is bound to, if any.
	LookupIdempotency(ctx context.Context, key string) (txID string, found bool, err error)

	// BindIdempotency commits the decision: the key now maps to txID. It
	// runs only after the transaction has reached a terminal status.
	BindIdempotency(ctx context.Context, key, txID string) error

	// ListStuck returns PENDING and PENDING_CONFIRMATION transactions last
	// updated more than olderThan ago, for operator reconciliation.
	ListStuck(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Transaction, error)
}
