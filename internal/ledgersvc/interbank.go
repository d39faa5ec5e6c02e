package ledgersvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/punchamoorthee/pixelmoney/internal/domain"
	"github.com/punchamoorthee/pixelmoney/internal/interbank"
	"github.com/punchamoorthee/pixelmoney/internal/money"
)

// InterbankTransfer sends funds from an individual account to an account
// at a peer institution.
//
// The gateway call happens before the debit so that a debit is only ever
// attempted against a confirmed external acceptance. The dangerous window
// (gateway accepted, debit failed) is minimized and made observable as
// FAILED_DEBIT_POST_CONFIRMATION, the one terminal status that
// deliberately refuses automatic compensation: reversing the external
// side cannot be done safely from here.
func (s *Service) InterbankTransfer(ctx context.Context, idemKey, senderID, toBank, destinationPhone string, amount money.Money) (*domain.Transaction, error) {
	if err := amount.MustPositive(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if !s.supportedBanks[toBank] {
		return nil, fmt.Errorf("%w: unsupported destination bank %q", ErrBadRequest, toBank)
	}

	tx, replay, err := s.preamble(ctx, idemKey, func(id string, now time.Time) *domain.Transaction {
		return &domain.Transaction{
			ID:          id,
			UserID:      senderID,
			Source:      domain.WalletRef{Type: domain.WalletIndividual, ID: senderID},
			Destination: domain.WalletRef{Type: domain.WalletExternalBank, ID: toBank},
			Type:        domain.TxTransfer,
			Amount:      amount,
			Currency:    currencyOf(amount),
		}
	})
	if err != nil || replay {
		return tx, err
	}

	// 1. Local, cheap funds check. Nothing external has happened yet.
	if err := s.balance.Check(ctx, senderID, amount); err != nil {
		status := classifyBalanceErr(err)
		tx = s.finalizeFailure(ctx, tx, status)
		return tx, nil
	}

	// 2. Confirm with the external gateway before touching the local
	// balance.
	acceptance, err := s.interbank.Send(ctx, interbank.Intent{
		OriginBank:             s.originBank,
		OriginAccountID:        senderID,
		DestinationBank:        toBank,
		DestinationPhoneNumber: destinationPhone,
		Amount:                 amount,
		Currency:               currencyOf(amount),
		TransactionID:          tx.ID,
		Description:            "pixelmoney interbank transfer",
	})
	if err != nil {
		var remoteErr *interbank.RemoteError
		var status domain.Status
		var meta []byte
		if errors.As(err, &remoteErr) {
			status = domain.FailedRemoteStatus(remoteErr.Code)
			meta, _ = json.Marshal(map[string]interface{}{
				"remote_status_code": remoteErr.Code,
				"remote_body":        remoteErr.Body,
			})
		} else {
			status = domain.StatusFailedNetwork
		}
		tx = s.finalizeFailure(ctx, tx, status, meta)
		return tx, nil
	}

	// 3. The dangerous window. The gateway has accepted; the debit must
	// now capture the value locally. A failure here is surfaced
	// prominently and left for manual reconciliation.
	meta, _ := json.Marshal(map[string]string{"remote_transaction_id": acceptance.RemoteTransactionID})

	if _, err := s.balance.Debit(ctx, senderID, amount); err != nil {
		s.log.Error("debit failed after interbank acceptance: value promised externally but not captured locally",
			zap.String("transaction_id", tx.ID), zap.String("sender_id", senderID),
			zap.String("remote_transaction_id", acceptance.RemoteTransactionID), zap.Error(err))
		tx = s.finalizeFailure(ctx, tx, domain.StatusFailedDebitPostConfirmation, meta)
		return tx, nil
	}

	tx = s.finalizeSuccess(ctx, tx, idemKey, meta)
	return tx, nil
}
