// Package ledgersvc implements the ledger orchestrator: the sagas across
// the balance authority, the recipient directory, and the interbank
// gateway, the idempotency-controlled preamble shared by all four
// operations, and the status taxonomy that drives operator reconciliation.
package ledgersvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/punchamoorthee/pixelmoney/internal/balanceclient"
	"github.com/punchamoorthee/pixelmoney/internal/domain"
	"github.com/punchamoorthee/pixelmoney/internal/eventstore"
	"github.com/punchamoorthee/pixelmoney/internal/interbank"
	"github.com/punchamoorthee/pixelmoney/internal/money"
	"github.com/punchamoorthee/pixelmoney/internal/recipient"
)

// Error kinds. The ledgerapi layer maps these with errors.Is; a nil error
// with a terminal-but-failed transaction means the saga ran to completion
// and the failure is recorded in tx.Status instead.
var (
	ErrBadRequest  = errors.New("ledgersvc: bad request")
	ErrNotFound    = errors.New("ledgersvc: not found")
	ErrUnavailable = errors.New("ledgersvc: transient remote failure")
	ErrInternal    = errors.New("ledgersvc: internal inconsistency")
)

const defaultCurrency = "USD"

var (
	sagaCompensationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_saga_compensations_total",
		Help: "Count of saga compensation attempts, labeled by outcome",
	}, []string{"outcome"})

	statusTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_status_total",
		Help: "Count of transactions reaching each terminal status",
	}, []string{"status"})
)

// Service orchestrates the four money-moving operations. All of its
// dependencies are process-wide resources constructed once at startup and
// threaded down explicitly.
type Service struct {
	es        eventstore.Store
	balance   *balanceclient.Client
	recipient *recipient.Client
	interbank *interbank.Client
	log       *zap.Logger

	originBank     string
	supportedBanks map[string]bool

	// idgen/now are the id and clock sources; New sets them to
	// uuid.NewString and time.Now in UTC.
	idgen func() string
	now   func() time.Time
}

type Deps struct {
	EventStore     eventstore.Store
	Balance        *balanceclient.Client
	Recipient      *recipient.Client
	Interbank      *interbank.Client
	Log            *zap.Logger
	OriginBank     string
	SupportedBanks []string
}

func New(d Deps) *Service {
	supported := make(map[string]bool, len(d.SupportedBanks))
	for _, b := range d.SupportedBanks {
		supported[b] = true
	}
	return &Service{
		es:             d.EventStore,
		balance:        d.Balance,
		recipient:      d.Recipient,
		interbank:      d.Interbank,
		log:            d.Log,
		originBank:     d.OriginBank,
		supportedBanks: supported,
		idgen:          uuid.NewString,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func validateIdempotencyKey(key string) error {
	if _, err := uuid.Parse(key); err != nil {
		return fmt.Errorf("%w: idempotency key must be a UUID", ErrBadRequest)
	}
	return nil
}

// preamble validates the idempotency key, resolves a hit/miss against the
// idempotency table, and on a miss writes the initial PENDING row to both
// event tables. replay is true when an existing transaction was found and
// should be returned verbatim.
func (s *Service) preamble(ctx context.Context, idemKey string, build func(id string, now time.Time) *domain.Transaction) (tx *domain.Transaction, replay bool, err error) {
	if err := validateIdempotencyKey(idemKey); err != nil {
		return nil, false, err
	}

	txID, found, err := s.es.LookupIdempotency(ctx, idemKey)
	if err != nil {
		return nil, false, fmt.Errorf("%w: idempotency lookup: %v", ErrUnavailable, err)
	}
	if found {
		existing, err := s.es.GetByID(ctx, txID)
		if errors.Is(err, eventstore.ErrNotFound) {
			s.log.Error("idempotency key bound to missing transaction",
				zap.String("idempotency_key", idemKey), zap.String("transaction_id", txID))
			return nil, false, fmt.Errorf("%w: idempotency key %s bound to missing transaction %s", ErrInternal, idemKey, txID)
		}
		if err != nil {
			return nil, false, fmt.Errorf("%w: idempotency replay lookup: %v", ErrUnavailable, err)
		}
		return existing, true, nil
	}

	now := s.now()
	tx = build(s.idgen(), now)
	tx.Status = domain.StatusPending
	tx.CreatedAt = now
	tx.UpdatedAt = now
	if err := s.es.PutPending(ctx, tx); err != nil {
		return nil, false, fmt.Errorf("%w: write pending transaction: %v", ErrUnavailable, err)
	}
	return tx, false, nil
}

// finalizeSuccess commits the COMPLETED status and the idempotency binding
// that together make the outcome replay-safe. If either write fails after
// the money has already moved, the transaction becomes
// PENDING_CONFIRMATION: the side effects are real, only the bookkeeping is
// uncertain, and the record is left for reconciliation instead of
// silently retried.
func (s *Service) finalizeSuccess(ctx context.Context, tx *domain.Transaction, idemKey string, metadata ...[]byte) *domain.Transaction {
	var meta []byte
	if len(metadata) > 0 {
		meta = metadata[0]
	}
	if err := s.es.UpdateStatus(ctx, tx.ID, domain.StatusCompleted, meta); err != nil {
		s.log.Error("status write failed after successful side effects, leaving PENDING_CONFIRMATION",
			zap.String("transaction_id", tx.ID), zap.Error(err))
		tx.Status = domain.StatusPendingConfirmation
		if uerr := s.es.UpdateStatus(ctx, tx.ID, domain.StatusPendingConfirmation, meta); uerr != nil {
			s.log.Error("PENDING_CONFIRMATION write also failed, manual reconciliation required",
				zap.String("transaction_id", tx.ID), zap.Error(uerr))
		}
		statusTotal.WithLabelValues(string(tx.Status)).Inc()
		return tx
	}
	tx.Status = domain.StatusCompleted
	if meta != nil {
		tx.Metadata = meta
	}

	if err := s.es.BindIdempotency(ctx, idemKey, tx.ID); err != nil {
		s.log.Error("idempotency bind failed after successful side effects, leaving PENDING_CONFIRMATION",
			zap.String("transaction_id", tx.ID), zap.String("idempotency_key", idemKey), zap.Error(err))
		tx.Status = domain.StatusPendingConfirmation
		if uerr := s.es.UpdateStatus(ctx, tx.ID, domain.StatusPendingConfirmation, nil); uerr != nil {
			s.log.Error("PENDING_CONFIRMATION write also failed, manual reconciliation required",
				zap.String("transaction_id", tx.ID), zap.Error(uerr))
		}
		statusTotal.WithLabelValues(string(tx.Status)).Inc()
		return tx
	}
	s.log.Info("transaction completed",
		zap.String("transaction_id", tx.ID), zap.String("type", string(tx.Type)))
	statusTotal.WithLabelValues(string(tx.Status)).Inc()
	return tx
}

// finalizeFailure commits a business or transport terminal status.
func (s *Service) finalizeFailure(ctx context.Context, tx *domain.Transaction, status domain.Status, metadata ...[]byte) *domain.Transaction {
	var meta []byte
	if len(metadata) > 0 {
		meta = metadata[0]
	}
	if err := s.es.UpdateStatus(ctx, tx.ID, status, meta); err != nil {
		s.log.Error("status write failed for a failed saga, record stays PENDING",
			zap.String("transaction_id", tx.ID), zap.String("intended_status", string(status)), zap.Error(err))
		return tx
	}
	tx.Status = status
	if meta != nil {
		tx.Metadata = meta
	}
	if !criticalStatus(status) {
		s.log.Info("transaction failed",
			zap.String("transaction_id", tx.ID), zap.String("status", string(status)))
	}
	statusTotal.WithLabelValues(string(status)).Inc()
	return tx
}

// criticalStatus reports whether a terminal status demands operator
// attention. Those transitions are logged at Error where they occur; every
// other terminal transition gets an Info line here.
func criticalStatus(s domain.Status) bool {
	return s == domain.StatusFailedDebitPostConfirmation ||
		s == domain.StatusPendingConfirmation ||
		strings.HasSuffix(string(s), "_REVERT_FAILED")
}

func currencyOf(amount money.Money) string {
	if amount.Currency == "" {
		return defaultCurrency
	}
	return amount.Currency
}
