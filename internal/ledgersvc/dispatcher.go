package ledgersvc

import (
	"context"
	"fmt"

	"github.com/punchamoorthee/pixelmoney/internal/domain"
)

// Dispatch routes an Intent to the saga body for its Kind. The ledgerapi
// layer is responsible for decoding a request body into the right Intent
// shape; Dispatch only needs Kind to route.
func (s *Service) Dispatch(ctx context.Context, intent domain.Intent) (*domain.Transaction, error) {
	switch intent.Kind {
	case domain.IntentDeposit:
		if intent.Deposit == nil {
			return nil, fmt.Errorf("%w: deposit intent missing payload", ErrBadRequest)
		}
		return s.Deposit(ctx, intent.IdempotencyKey, intent.UserID, intent.Deposit.Amount)

	case domain.IntentP2P:
		if intent.P2P == nil {
			return nil, fmt.Errorf("%w: p2p intent missing payload", ErrBadRequest)
		}
		return s.TransferP2P(ctx, intent.IdempotencyKey, intent.UserID, intent.P2P.DestinationPhone, intent.P2P.Amount)

	case domain.IntentContribute:
		if intent.Contribute == nil {
			return nil, fmt.Errorf("%w: contribute intent missing payload", ErrBadRequest)
		}
		return s.Contribute(ctx, intent.IdempotencyKey, intent.UserID, intent.Contribute.GroupID, intent.Contribute.Amount)

	case domain.IntentInterbank:
		if intent.Interbank == nil {
			return nil, fmt.Errorf("%w: interbank intent missing payload", ErrBadRequest)
		}
		return s.InterbankTransfer(ctx, intent.IdempotencyKey, intent.UserID, intent.Interbank.ToBank, intent.Interbank.DestinationPhone, intent.Interbank.Amount)

	default:
		return nil, fmt.Errorf("%w: unknown intent kind %q", ErrBadRequest, intent.Kind)
	}
}
