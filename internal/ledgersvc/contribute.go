package ledgersvc

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/punchamoorthee/pixelmoney/internal/domain"
	"github.com/punchamoorthee/pixelmoney/internal/money"
)

// Contribute moves funds from an individual account into a group pool:
// check funds, debit the contributor, credit the group. If the group
// credit fails after the debit landed, the contributor is credited back;
// the terminal status records whether that restore succeeded.
func (s *Service) Contribute(ctx context.Context, idemKey, userID, groupID string, amount money.Money) (*domain.Transaction, error) {
	if err := amount.MustPositive(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	tx, replay, err := s.preamble(ctx, idemKey, func(id string, now time.Time) *domain.Transaction {
		return &domain.Transaction{
			ID:          id,
			UserID:      userID,
			Source:      domain.WalletRef{Type: domain.WalletIndividual, ID: userID},
			Destination: domain.WalletRef{Type: domain.WalletGroup, ID: groupID},
			Type:        domain.TxContribution,
			Amount:      amount,
			Currency:    currencyOf(amount),
		}
	})
	if err != nil || replay {
		return tx, err
	}

	if err := s.balance.Check(ctx, userID, amount); err != nil {
		status := classifyBalanceErr(err)
		tx = s.finalizeFailure(ctx, tx, status)
		return tx, nil
	}

	if _, err := s.balance.Debit(ctx, userID, amount); err != nil {
		status := classifyBalanceErr(err)
		tx = s.finalizeFailure(ctx, tx, status)
		return tx, nil
	}

	if _, err := s.balance.GroupCredit(ctx, groupID, amount); err != nil {
		base := classifyBalanceErr(err)
		if _, cerr := s.balance.Credit(ctx, userID, amount); cerr != nil {
			final := domain.RevertFailed(base)
			s.log.Error("contribution compensation credit failed, manual reconciliation required",
				zap.String("transaction_id", tx.ID), zap.String("user_id", userID), zap.Error(cerr))
			sagaCompensationsTotal.WithLabelValues("failed").Inc()
			tx = s.finalizeFailure(ctx, tx, final)
			return tx, nil
		}
		sagaCompensationsTotal.WithLabelValues("reverted").Inc()
		tx = s.finalizeFailure(ctx, tx, domain.Reverted(base))
		return tx, nil
	}

	tx = s.finalizeSuccess(ctx, tx, idemKey)
	return tx, nil
}
