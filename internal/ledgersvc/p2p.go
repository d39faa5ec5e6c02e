package ledgersvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/punchamoorthee/pixelmoney/internal/domain"
	"github.com/punchamoorthee/pixelmoney/internal/eventstore"
	"github.com/punchamoorthee/pixelmoney/internal/money"
	"github.com/punchamoorthee/pixelmoney/internal/recipient"
)

// TransferP2P moves funds between two individual accounts inside the
// institution.
//
// Unlike the other three sagas, the recipient must be resolved before the
// PENDING rows can even be written: both the sent-side record's
// destination and the received-side record's owner carry the recipient's
// user id, not the phone number the client supplied. So the idempotency
// preamble is split here. The key check happens first with no write,
// recipient resolution happens next with no write either, and only then
// are the sent/received PENDING rows written together as a pair. A
// self-transfer or unknown-recipient rejection costs zero event-store
// writes.
func (s *Service) TransferP2P(ctx context.Context, idemKey, senderID, destinationPhone string, amount money.Money) (*domain.Transaction, error) {
	if err := amount.MustPositive(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := validateIdempotencyKey(idemKey); err != nil {
		return nil, err
	}

	existingID, found, err := s.es.LookupIdempotency(ctx, idemKey)
	if err != nil {
		return nil, fmt.Errorf("%w: idempotency lookup: %v", ErrUnavailable, err)
	}
	if found {
		existing, err := s.es.GetByID(ctx, existingID)
		if errors.Is(err, eventstore.ErrNotFound) {
			s.log.Error("idempotency key bound to missing transaction",
				zap.String("idempotency_key", idemKey), zap.String("transaction_id", existingID))
			return nil, fmt.Errorf("%w: idempotency key %s bound to missing transaction %s", ErrInternal, idemKey, existingID)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: idempotency replay lookup: %v", ErrUnavailable, err)
		}
		return existing, nil
	}

	recipientID, err := s.recipient.LookupByPhone(ctx, destinationPhone)
	if errors.Is(err, recipient.ErrNotFound) {
		return nil, fmt.Errorf("%w: destination phone number not found", ErrNotFound)
	}
	if errors.Is(err, recipient.ErrUnavailable) {
		return nil, fmt.Errorf("%w: recipient directory unreachable: %v", ErrUnavailable, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: recipient lookup: %v", ErrUnavailable, err)
	}
	if recipientID == senderID {
		return nil, fmt.Errorf("%w: cannot transfer to self", ErrBadRequest)
	}

	now := s.now()
	sentID := s.idgen()
	receivedID := s.idgen()
	currency := currencyOf(amount)

	sent := &domain.Transaction{
		ID:          sentID,
		UserID:      senderID,
		Source:      domain.WalletRef{Type: domain.WalletIndividual, ID: senderID},
		Destination: domain.WalletRef{Type: domain.WalletIndividual, ID: recipientID},
		Type:        domain.TxP2PSent,
		Amount:      amount,
		Currency:    currency,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Metadata:    pairMetadata(receivedID),
	}
	received := &domain.Transaction{
		ID:          receivedID,
		UserID:      recipientID,
		Source:      domain.WalletRef{Type: domain.WalletIndividual, ID: senderID},
		Destination: domain.WalletRef{Type: domain.WalletIndividual, ID: recipientID},
		Type:        domain.TxP2PReceived,
		Amount:      amount,
		Currency:    currency,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Metadata:    pairMetadata(sentID),
	}

	if err := s.es.PutPendingPair(ctx, sent, received); err != nil {
		return nil, fmt.Errorf("%w: write pending transaction pair: %v", ErrUnavailable, err)
	}

	if err := s.balance.Check(ctx, senderID, amount); err != nil {
		status := classifyBalanceErr(err)
		sent = s.finalizeFailure(ctx, sent, status)
		s.finalizeFailure(ctx, received, status)
		return sent, nil
	}

	if _, err := s.balance.Debit(ctx, senderID, amount); err != nil {
		status := classifyBalanceErr(err)
		sent = s.finalizeFailure(ctx, sent, status)
		s.finalizeFailure(ctx, received, status)
		return sent, nil
	}

	if _, err := s.balance.Credit(ctx, recipientID, amount); err != nil {
		base := classifyBalanceErr(err)
		final := s.compensateP2PCredit(ctx, sent, senderID, amount, base)
		s.finalizeFailure(ctx, received, final)
		return sent, nil
	}

	sent = s.finalizeSuccess(ctx, sent, idemKey)
	s.finalizeP2PReceived(ctx, received)
	return sent, nil
}

// compensateP2PCredit credits the sender back after the recipient credit
// failed. Debit-before-credit ordering makes this recoverable; the
// inverse ordering would create money on failure instead. Returns the
// final status written to the sent-side record.
func (s *Service) compensateP2PCredit(ctx context.Context, sent *domain.Transaction, senderID string, amount money.Money, base domain.Status) domain.Status {
	if _, err := s.balance.Credit(ctx, senderID, amount); err != nil {
		final := domain.RevertFailed(base)
		s.log.Error("p2p compensation credit failed, manual reconciliation required",
			zap.String("transaction_id", sent.ID), zap.String("sender_id", senderID), zap.Error(err))
		sagaCompensationsTotal.WithLabelValues("failed").Inc()
		s.finalizeFailure(ctx, sent, final)
		return final
	}
	sagaCompensationsTotal.WithLabelValues("reverted").Inc()
	final := domain.Reverted(base)
	s.finalizeFailure(ctx, sent, final)
	return final
}

// finalizeP2PReceived commits the received-side record once the sent side
// has already been marked COMPLETED. A write failure here does not retract
// money that has already moved to the recipient's balance; it is logged
// and left for reconciliation rather than retried, matching the sent
// side's own PENDING_CONFIRMATION handling in finalizeSuccess.
func (s *Service) finalizeP2PReceived(ctx context.Context, received *domain.Transaction) {
	if err := s.es.UpdateStatus(ctx, received.ID, domain.StatusCompleted, nil); err != nil {
		s.log.Error("received-side status write failed after successful credit, leaving PENDING_CONFIRMATION",
			zap.String("transaction_id", received.ID), zap.Error(err))
		_ = s.es.UpdateStatus(ctx, received.ID, domain.StatusPendingConfirmation, nil)
		return
	}
	received.Status = domain.StatusCompleted
}

func pairMetadata(pairedID string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"paired_transaction_id": pairedID})
	return b
}
