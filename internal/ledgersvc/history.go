package ledgersvc

import (
	"context"
	"time"

	"github.com/punchamoorthee/pixelmoney/internal/domain"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 50

	// defaultStuckThreshold is how long a transaction may sit in PENDING or
	// PENDING_CONFIRMATION before the reconciliation endpoint surfaces it,
	// absent an explicit override.
	defaultStuckThreshold = 15 * time.Minute
)

// History lists a user's transactions, most recent first. A non-positive
// or oversized requested limit is clamped rather than rejected.
func (s *Service) History(ctx context.Context, userID string, requestedLimit int) ([]*domain.Transaction, error) {
	limit := requestedLimit
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	txs, err := s.es.GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// Reconciliation is a read-only operator view of transactions stuck in
// PENDING or PENDING_CONFIRMATION for longer than the threshold. Those records represent
// sagas that died mid-flight or finished with uncertain bookkeeping.
func (s *Service) Reconciliation(ctx context.Context, olderThanSeconds int, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	olderThan := defaultStuckThreshold
	if olderThanSeconds > 0 {
		olderThan = time.Duration(olderThanSeconds) * time.Second
	}
	return s.es.ListStuck(ctx, olderThan, limit)
}
