package ledgersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/punchamoorthee/pixelmoney/internal/domain"
	"github.com/punchamoorthee/pixelmoney/internal/money"
)

// Deposit moves external value into an individual account: write PENDING,
// credit the account, then bind the idempotency key and mark COMPLETED.
// A failure at the credit step needs no compensation because no local
// side effect preceded it.
func (s *Service) Deposit(ctx context.Context, idemKey, userID string, amount money.Money) (*domain.Transaction, error) {
	if err := amount.MustPositive(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	tx, replay, err := s.preamble(ctx, idemKey, func(id string, now time.Time) *domain.Transaction {
		return &domain.Transaction{
			ID:          id,
			UserID:      userID,
			Source:      domain.WalletRef{Type: domain.WalletExternal, ID: "external"},
			Destination: domain.WalletRef{Type: domain.WalletIndividual, ID: userID},
			Type:        domain.TxDeposit,
			Amount:      amount,
			Currency:    currencyOf(amount),
		}
	})
	if err != nil || replay {
		return tx, err
	}

	if _, err := s.balance.Credit(ctx, userID, amount); err != nil {
		status := classifyBalanceErr(err)
		tx = s.finalizeFailure(ctx, tx, status)
		return tx, nil
	}

	tx = s.finalizeSuccess(ctx, tx, idemKey)
	return tx, nil
}
